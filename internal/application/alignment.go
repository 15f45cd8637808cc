package application

import (
	"github.com/ahrav/go-rankstudy/internal/domain"
)

// AlignmentPlanner computes a shared layout for two subjects' features so
// that recommendations they have in common sit on the same row.
type AlignmentPlanner struct {
	catalog *domain.FeatureCatalog
}

// NewAlignmentPlanner creates a planner over catalog. A nil catalog uses
// domain.DefaultFeatureCatalog.
func NewAlignmentPlanner(catalog *domain.FeatureCatalog) *AlignmentPlanner {
	if catalog == nil {
		catalog = domain.DefaultFeatureCatalog()
	}
	return &AlignmentPlanner{catalog: catalog}
}

// Catalog returns the feature catalog the planner orders by.
func (p *AlignmentPlanner) Catalog() *domain.FeatureCatalog { return p.catalog }

// Plan returns the alignment plan for left and right.
//
// Categories active on both sides come first, then categories active on
// one side, each group in catalog precedence order. Within a category,
// shared codes come first, then left-only, then right-only, each in
// declaration order. Swapping the arguments keeps CategoryOrder and the
// shared rows; only the left-only and right-only runs trade places.
func (p *AlignmentPlanner) Plan(left, right domain.Subject) domain.AlignmentPlan {
	leftCodes := p.codesByCategory(left.Features)
	rightCodes := p.codesByCategory(right.Features)

	var common, only []string
	for _, cat := range p.catalog.Categories() {
		_, inLeft := leftCodes[cat]
		_, inRight := rightCodes[cat]
		switch {
		case inLeft && inRight:
			common = append(common, cat)
		case inLeft || inRight:
			only = append(only, cat)
		}
	}

	plan := domain.AlignmentPlan{
		CategoryOrder: append(common, only...),
		Rows:          make(map[string][]string, len(common)+len(only)),
	}
	for _, cat := range plan.CategoryOrder {
		plan.Rows[cat] = alignCodes(leftCodes[cat], left.Features, rightCodes[cat], right.Features)
	}
	return plan
}

// codesByCategory groups the active codes of set by category, keeping
// declaration order. Categories with no active code are absent.
func (p *AlignmentPlanner) codesByCategory(set domain.FeatureSet) map[string][]string {
	out := make(map[string][]string)
	for _, f := range p.catalog.ActiveFeatures(set) {
		out[f.Category] = append(out[f.Category], f.Code)
	}
	return out
}

func alignCodes(leftCodes []string, leftSet domain.FeatureSet, rightCodes []string, rightSet domain.FeatureSet) []string {
	rows := make([]string, 0, len(leftCodes)+len(rightCodes))
	var leftOnly []string
	for _, c := range leftCodes {
		if rightSet.Has(c) {
			rows = append(rows, c)
		} else {
			leftOnly = append(leftOnly, c)
		}
	}
	rows = append(rows, leftOnly...)
	for _, c := range rightCodes {
		if !leftSet.Has(c) {
			rows = append(rows, c)
		}
	}
	return rows
}

// AlignedRow is one rendered line of an alignment plan.
type AlignedRow struct {
	Category string

	// Left and Right hold the feature on each side, nil when that side
	// does not have it.
	Left  *domain.Feature
	Right *domain.Feature
}

// Shared reports whether both sides carry the row's feature.
func (r AlignedRow) Shared() bool { return r.Left != nil && r.Right != nil }

// Layout flattens Plan(left, right) into display rows.
func (p *AlignmentPlanner) Layout(left, right domain.Subject) []AlignedRow {
	plan := p.Plan(left, right)
	rows := make([]AlignedRow, 0, plan.Len())
	for _, cat := range plan.CategoryOrder {
		for _, code := range plan.Rows[cat] {
			f, ok := p.catalog.Lookup(code)
			if !ok {
				continue
			}
			row := AlignedRow{Category: cat}
			if left.Features.Has(code) {
				lf := f
				row.Left = &lf
			}
			if right.Features.Has(code) {
				rf := f
				row.Right = &rf
			}
			rows = append(rows, row)
		}
	}
	return rows
}
