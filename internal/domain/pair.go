package domain

import "fmt"

// RawPair is an unordered comparison between two subjects as listed in the
// input. A is the first-listed subject, B the second; together they define
// the canonical storage order.
type RawPair struct {
	A int `json:"a"`
	B int `json:"b"`
}

// PairKey identifies a comparison independently of order.
type PairKey struct {
	Lo int
	Hi int
}

// Key returns the order-independent identity of p, so (a,b) and (b,a)
// share a key.
func (p RawPair) Key() PairKey {
	if p.A <= p.B {
		return PairKey{Lo: p.A, Hi: p.B}
	}
	return PairKey{Lo: p.B, Hi: p.A}
}

// IsSelf reports whether the pair compares a subject with itself.
func (p RawPair) IsSelf() bool { return p.A == p.B }

// Reversed returns (B, A).
func (p RawPair) Reversed() RawPair { return RawPair{A: p.B, B: p.A} }

// String renders the pair as (a, b).
func (p RawPair) String() string { return fmt.Sprintf("(%d, %d)", p.A, p.B) }

// Choice names the displayed side a rater selected.
type Choice string

// Valid choices.
const (
	ChoiceLeft  Choice = "left"
	ChoiceRight Choice = "right"
)

// Valid reports whether c is one of the two accepted literals.
func (c Choice) Valid() bool { return c == ChoiceLeft || c == ChoiceRight }

// PreparedPair is a raw pair annotated with its display orientation.
type PreparedPair struct {
	// Index is the position of the pair in the prepared sequence.
	Index int

	// Canonical is the pair in its original input order.
	Canonical RawPair

	Left  Subject
	Right Subject
}

// Resolve returns the chosen and other subject ids for choice.
func (p PreparedPair) Resolve(choice Choice) (chosen, other int) {
	if choice == ChoiceLeft {
		return p.Left.ID, p.Right.ID
	}
	return p.Right.ID, p.Left.ID
}

// Swapped reports whether the left subject is the canonical B.
func (p PreparedPair) Swapped() bool { return p.Left.ID != p.Canonical.A }
