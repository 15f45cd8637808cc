// Package testutils provides shared fixtures for rating session tests.
package testutils

import (
	"fmt"

	"github.com/ahrav/go-rankstudy/internal/domain"
)

// NewSubject returns a subject with id and the given active feature codes.
// Attributes are filled with plausible values derived from id.
func NewSubject(id int, features ...string) domain.Subject {
	return domain.Subject{
		ID:            id,
		Age:           40 + id%40,
		Risk:          1 + id%40,
		RiskBand:      id % 4,
		Sex:           []string{"F", "M"}[id%2],
		BMI:           22.5 + float64(id%10),
		Adherence:     domain.AdherenceNotApplicable,
		Smoker:        id%3 == 0,
		SocioEconomic: fmt.Sprintf("tier%d", id%5),
		Features:      domain.NewFeatureSet(features...),
	}
}

// Subjects returns one featureless subject per id.
func Subjects(ids ...int) []domain.Subject {
	out := make([]domain.Subject, len(ids))
	for i, id := range ids {
		out[i] = NewSubject(id)
	}
	return out
}

// SubjectRange returns featureless subjects with ids lo..hi inclusive.
func SubjectRange(lo, hi int) []domain.Subject {
	var out []domain.Subject
	for id := lo; id <= hi; id++ {
		out = append(out, NewSubject(id))
	}
	return out
}

// Pairs builds raw pairs from flattened (a, b) values.
func Pairs(ids ...int) []domain.RawPair {
	if len(ids)%2 != 0 {
		panic("testutils.Pairs: odd number of ids")
	}
	out := make([]domain.RawPair, 0, len(ids)/2)
	for i := 0; i < len(ids); i += 2 {
		out = append(out, domain.RawPair{A: ids[i], B: ids[i+1]})
	}
	return out
}

// SequentialPairs returns n pairs (base+2i, base+2i+1).
func SequentialPairs(base, n int) []domain.RawPair {
	out := make([]domain.RawPair, n)
	for i := range out {
		out[i] = domain.RawPair{A: base + 2*i, B: base + 2*i + 1}
	}
	return out
}

// ScenarioFeatureCatalog returns a small catalog with categories Labs,
// Treatment, and Lifestyle in that precedence.
func ScenarioFeatureCatalog() *domain.FeatureCatalog {
	c, err := domain.NewFeatureCatalog([]domain.Feature{
		{Code: "f1", Category: "Labs", Text: "Basic lab panel"},
		{Code: "f2", Category: "Labs", Text: "Advanced lab panel"},
		{Code: "f3", Category: "Labs", Text: "Genetic testing"},
		{Code: "f6", Category: "Treatment", Text: "First-line treatment"},
		{Code: "f7", Category: "Treatment", Text: "Advanced treatment"},
		{Code: "f8", Category: "Treatment", Text: "Treatment upgrade"},
		{Code: "f13", Category: "Lifestyle", Text: "Exercise and diet"},
		{Code: "f14", Category: "Lifestyle", Text: "Stop harmful habits"},
	}, nil)
	if err != nil {
		panic(err)
	}
	return c
}
