package domain

import (
	"fmt"
	"slices"
)

// NoActiveFeaturesText is shown in place of a feature list when a subject
// has nothing active.
const NoActiveFeaturesText = "(no active recommendations)"

// Feature describes one discrete recommendation a subject may carry.
type Feature struct {
	// Code is the column key used in the subject table (e.g. "rec4").
	Code string `yaml:"code" json:"code" validate:"required,featurecode"`

	// Category groups related features for side-by-side alignment.
	Category string `yaml:"category" json:"category" validate:"required,max=100"`

	// Text is the long display text.
	Text string `yaml:"text" json:"text" validate:"required,max=500"`

	// Short is a compact label used where space is tight.
	Short string `yaml:"short" json:"short" validate:"max=200"`

	// Cost is a free-form cost annotation, empty when unknown.
	Cost string `yaml:"cost,omitempty" json:"cost,omitempty" validate:"max=100"`
}

// FeatureCatalog is the static, process-wide set of known features. It
// preserves declaration order and a category precedence order, both of
// which drive alignment ordering.
type FeatureCatalog struct {
	features   []Feature
	byCode     map[string]int
	categories []string
	catRank    map[string]int
}

// NewFeatureCatalog builds a catalog from features in declaration order.
// When categoryOrder is empty, categories rank by first appearance.
// Otherwise categoryOrder must name every category exactly once.
func NewFeatureCatalog(features []Feature, categoryOrder []string) (*FeatureCatalog, error) {
	verr := NewValidationError("FeatureCatalog")
	c := &FeatureCatalog{
		features: make([]Feature, 0, len(features)),
		byCode:   make(map[string]int, len(features)),
		catRank:  make(map[string]int),
	}

	seen := make(map[string]bool)
	var appearance []string
	for _, f := range features {
		if f.Code == "" {
			verr.AddError("feature code is required")
			continue
		}
		if _, dup := c.byCode[f.Code]; dup {
			verr.AddError(fmt.Sprintf("duplicate feature code %q", f.Code))
			continue
		}
		if f.Category == "" {
			verr.AddError(fmt.Sprintf("feature %q has no category", f.Code))
			continue
		}
		c.byCode[f.Code] = len(c.features)
		c.features = append(c.features, f)
		if !seen[f.Category] {
			seen[f.Category] = true
			appearance = append(appearance, f.Category)
		}
	}

	order := appearance
	if len(categoryOrder) > 0 {
		order = categoryOrder
		listed := make(map[string]bool, len(categoryOrder))
		for _, cat := range categoryOrder {
			if listed[cat] {
				verr.AddError(fmt.Sprintf("category %q listed twice in category order", cat))
			}
			listed[cat] = true
		}
		for _, cat := range appearance {
			if !listed[cat] {
				verr.AddError(fmt.Sprintf("category %q missing from category order", cat))
			}
		}
	}
	if verr.HasErrors() {
		return nil, verr
	}

	for _, cat := range order {
		if _, ok := c.catRank[cat]; ok {
			continue
		}
		c.catRank[cat] = len(c.categories)
		c.categories = append(c.categories, cat)
	}
	return c, nil
}

// Lookup returns the feature registered under code.
func (c *FeatureCatalog) Lookup(code string) (Feature, bool) {
	i, ok := c.byCode[code]
	if !ok {
		return Feature{}, false
	}
	return c.features[i], true
}

// Features returns every feature in declaration order.
func (c *FeatureCatalog) Features() []Feature { return slices.Clone(c.features) }

// Codes returns every feature code in declaration order.
func (c *FeatureCatalog) Codes() []string {
	codes := make([]string, len(c.features))
	for i, f := range c.features {
		codes[i] = f.Code
	}
	return codes
}

// Categories returns category names in precedence order.
func (c *FeatureCatalog) Categories() []string { return slices.Clone(c.categories) }

// CategoryRank returns the precedence of cat, lower first.
func (c *FeatureCatalog) CategoryRank(cat string) (int, bool) {
	r, ok := c.catRank[cat]
	return r, ok
}

// Position returns the declaration index of code.
func (c *FeatureCatalog) Position(code string) (int, bool) {
	i, ok := c.byCode[code]
	return i, ok
}

// ActiveFeatures returns the catalog features present in set, in
// declaration order. Codes unknown to the catalog are ignored.
func (c *FeatureCatalog) ActiveFeatures(set FeatureSet) []Feature {
	var out []Feature
	for _, f := range c.features {
		if set.Has(f.Code) {
			out = append(out, f)
		}
	}
	return out
}

// DefaultFeatures returns the built-in recommendation catalogue.
func DefaultFeatures() []Feature {
	return []Feature{
		{Code: "rec1", Category: "Lab Tests", Short: "Basic lab panel", Text: "Basic lab panel - LDL, HDL, TG, HbA1C, AST, ALT"},
		{Code: "rec2", Category: "Lab Tests", Short: "Advanced lab panel", Text: "Advanced lab panel - ApoB, ApoA1, Lpa"},
		{Code: "rec3", Category: "Lab Tests", Short: "Pathophysiology investigation lab panel", Text: "Genetic testing for Familial Hypercholesterolemia"},
		{Code: "rec4", Category: "Lab Tests", Short: "Routine lab monitoring", Text: "Routine LDL monitoring"},
		{Code: "rec5", Category: "Referrals", Short: "Diagnostic imaging", Text: "Routine diagnostic imaging - carotid doppler"},
		{Code: "rec6", Category: "Referrals", Short: "Advanced diagnostic imaging", Text: "Advanced diagnostic imaging - CTA/heart perfusion test"},
		{Code: "rec7", Category: "Referrals", Short: "Diagnostic procedure", Text: "A diagnostic procedure (e.g., endoscopic procedure, stress test, holter)"},
		{Code: "rec8", Category: "Referrals", Short: "Take medical measurement", Text: "Take BP measurement"},
		{Code: "rec9", Category: "Treatment", Short: "Initiate preventive treatment", Text: "Initiate preventive treatment"},
		{Code: "rec10", Category: "Treatment", Short: "Initiate first-line treatment", Text: "Initiate first-line treatment - low dose statin"},
		{Code: "rec11", Category: "Treatment", Short: "Initiate advanced treatment", Text: "Initiate advanced treatment - medium/high dose statin/statin+ezetimibe/pcsk9"},
		{Code: "rec12", Category: "Treatment", Short: "Treatment upgrade", Text: "Treatment upgrade due to poorly controlled LDL"},
		{Code: "rec13", Category: "Treatment", Short: "Treatment replacement d/t contraindication", Text: "Treatment replacement due to contraindication"},
		{Code: "rec14", Category: "Treatment", Short: "A medical device for treating the condition", Text: "Start using a medical device to treat the condition"},
		{Code: "rec15", Category: "Treatment", Short: "A medical procedure for treating the condition", Text: "A medical procedure to treat the condition"},
		{Code: "rec16", Category: "Consultation", Short: "Specialist consultation", Text: "Specialist consultation - Lipidologist consultation"},
		{Code: "rec17", Category: "Consultation", Short: "Other consultation", Text: "Hepatologic consultation - due to high liver enzymes/liver disease"},
		{Code: "rec18", Category: "Lifestyle Changes", Short: "Nutritional consultation", Text: "Nutritional consultation"},
		{Code: "rec19", Category: "Lifestyle Changes", Short: "Lifestyle improvement", Text: "Lifestyle improvement - start exercises, diet adjustments"},
		{Code: "rec20", Category: "Lifestyle Changes", Short: "Stop harmful habits", Text: "Lifestyle improvement - stop harmful habits"},
		{Code: "rec21", Category: "Other", Short: "Curate patient medical record", Text: "Curate patient medical record"},
	}
}

// DefaultFeatureCatalog returns the built-in catalogue with categories in
// declaration order.
func DefaultFeatureCatalog() *FeatureCatalog {
	c, err := NewFeatureCatalog(DefaultFeatures(), nil)
	if err != nil {
		panic("default feature catalog: " + err.Error())
	}
	return c
}
