// Package domain contains pure, dependency-free domain models and types
// for the pairwise ranking session engine.
package domain

import "slices"

// AdherenceNotApplicable is the adherence tier for subjects without an
// active treatment.
const AdherenceNotApplicable = "not applicable"

// FeatureSet is the set of feature codes active on a subject.
type FeatureSet map[string]struct{}

// NewFeatureSet builds a FeatureSet from codes.
func NewFeatureSet(codes ...string) FeatureSet {
	s := make(FeatureSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Has reports whether code is active.
func (s FeatureSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Codes returns the active codes sorted lexically.
func (s FeatureSet) Codes() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// Subject is one entity being compared. It is immutable once loaded.
type Subject struct {
	// ID uniquely identifies the subject within a catalog.
	ID int `json:"id"`

	// Age in whole years.
	Age int `json:"age" validate:"gte=0,lte=130"`

	// Risk is the cardiovascular risk score.
	Risk int `json:"risk" validate:"gte=0"`

	// RiskBand is the banded risk tier.
	RiskBand int `json:"risk_band" validate:"gte=0"`

	Sex string `json:"sex" validate:"max=32"`

	BMI float64 `json:"bmi" validate:"gte=0,lte=150"`

	// Adherence is the treatment adherence tier, or AdherenceNotApplicable.
	Adherence string `json:"adherence" validate:"max=64"`

	Smoker bool `json:"smoker"`

	// SocioEconomic is the socio-economic tier label.
	SocioEconomic string `json:"socio_economic" validate:"max=64"`

	// Features holds the active feature codes.
	Features FeatureSet `json:"-"`
}

// AgeUnit returns "year" or "years" to match Age.
func (s Subject) AgeUnit() string {
	if s.Age == 1 {
		return "year"
	}
	return "years"
}
