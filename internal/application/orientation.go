package application

import (
	"math/rand/v2"

	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

// DefaultSeed is the orientation seed used when none is configured.
const DefaultSeed uint64 = 42

// PrepareResult is the outcome of orienting a raw pair list.
type PrepareResult struct {
	// Pairs is the prepared sequence, self-pairs removed.
	Pairs []domain.PreparedPair

	// Dropped lists every self-pair that was removed.
	Dropped []*domain.InvalidPairError
}

// UniqueSubjects counts distinct subject ids across the prepared pairs.
func (r PrepareResult) UniqueSubjects() int {
	return countUniqueSubjects(r.Pairs)
}

func countUniqueSubjects(pairs []domain.PreparedPair) int {
	ids := make(map[int]struct{}, len(pairs)*2)
	for _, p := range pairs {
		ids[p.Canonical.A] = struct{}{}
		ids[p.Canonical.B] = struct{}{}
	}
	return len(ids)
}

// newOrientationSource returns the generator that decides display order.
// It is seeded once per Prepare call, so the draw for pair k+1 depends on
// every draw before it.
func newOrientationSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Prepare assigns a reproducible left/right orientation to every pair.
//
// Self-pairs are removed and reported in PrepareResult.Dropped. Every id of
// the remaining pairs must exist in catalog; otherwise Prepare fails with a
// *domain.UnknownSubjectError listing all missing ids. A list with no
// remaining pairs fails with domain.ErrEmptyPairSet.
//
// For a fixed seed and ordered input the orientation is identical across
// calls and processes, which is what lets a resumed session skip storing it.
func Prepare(catalog ports.SubjectCatalog, raw []domain.RawPair, seed uint64) (PrepareResult, error) {
	var res PrepareResult
	kept := make([]domain.RawPair, 0, len(raw))
	for i, p := range raw {
		if p.IsSelf() {
			res.Dropped = append(res.Dropped, &domain.InvalidPairError{Position: i, Pair: p})
			continue
		}
		kept = append(kept, p)
	}

	ids := make([]int, 0, len(kept)*2)
	for _, p := range kept {
		ids = append(ids, p.A, p.B)
	}
	if missing := catalog.ContainsAll(ids); len(missing) > 0 {
		return PrepareResult{}, &domain.UnknownSubjectError{IDs: missing}
	}
	if len(kept) == 0 {
		return PrepareResult{}, domain.ErrEmptyPairSet
	}

	rng := newOrientationSource(seed)
	res.Pairs = make([]domain.PreparedPair, 0, len(kept))
	for i, p := range kept {
		a, err := catalog.Lookup(p.A)
		if err != nil {
			return PrepareResult{}, err
		}
		b, err := catalog.Lookup(p.B)
		if err != nil {
			return PrepareResult{}, err
		}
		pp := domain.PreparedPair{Index: i, Canonical: p}
		if rng.Float64() < 0.5 {
			pp.Left, pp.Right = a, b
		} else {
			pp.Left, pp.Right = b, a
		}
		res.Pairs = append(res.Pairs, pp)
	}
	return res, nil
}
