package domain

import (
	"encoding/json"
	"fmt"
)

// Confidence bounds for a judgment.
const (
	MinConfidence = 1
	MaxConfidence = 5
)

// ValidConfidence reports whether c lies in MinConfidence..MaxConfidence.
func ValidConfidence(c int) bool { return c >= MinConfidence && c <= MaxConfidence }

var confidenceLabels = map[int]string{
	5: "5 - completely sure",
	4: "4 - almost",
	3: "3 - fairly",
	2: "2 - slightly",
	1: "1 - not sure, chose because I had to",
}

// ConfidenceLabel returns the prompt label for c.
func ConfidenceLabel(c int) string {
	if l, ok := confidenceLabels[c]; ok {
		return l
	}
	return fmt.Sprintf("%d", c)
}

// Judgment records one rater decision for one prepared pair.
type Judgment struct {
	// PairIndex is the prepared-pair slot this judgment fills.
	PairIndex int `json:"pair_index"`

	// ChosenID is the subject the rater prioritised.
	ChosenID int `json:"chosen_id"`

	// OtherID is the subject that was not chosen.
	OtherID int `json:"other_id"`

	// Confidence is the rater's certainty, 1..5.
	Confidence int `json:"confidence"`
}

// Pair returns the stored (chosen, other) tuple.
func (j Judgment) Pair() RawPair { return RawPair{A: j.ChosenID, B: j.OtherID} }

// Result returns the export form of j.
func (j Judgment) Result() Result {
	return Result{Pair: j.Pair(), Confidence: j.Confidence}
}

// Result is the exported shape of a judgment: ((chosen, other), confidence).
type Result struct {
	Pair       RawPair
	Confidence int
}

// MarshalJSON encodes r as [[chosen, other], confidence].
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{[2]int{r.Pair.A, r.Pair.B}, r.Confidence})
}

// SessionProgress is the mutable record of a rater's work through a
// prepared pair sequence.
type SessionProgress struct {
	// TotalPairs is the length of the prepared sequence.
	TotalPairs int

	// Cursor is the index of the next unanswered pair.
	Cursor int

	// Judgments is indexed by pair index; nil marks an unanswered slot.
	Judgments []*Judgment

	RaterID string
}

// NewSessionProgress returns empty progress for total pairs.
func NewSessionProgress(raterID string, total int) SessionProgress {
	return SessionProgress{
		TotalPairs: total,
		Judgments:  make([]*Judgment, total),
		RaterID:    raterID,
	}
}

// Answered counts filled slots.
func (p SessionProgress) Answered() int {
	n := 0
	for _, j := range p.Judgments {
		if j != nil {
			n++
		}
	}
	return n
}

// Results returns the filled judgments in slot order.
func (p SessionProgress) Results() []Judgment {
	out := make([]Judgment, 0, len(p.Judgments))
	for _, j := range p.Judgments {
		if j != nil {
			out = append(out, *j)
		}
	}
	return out
}

// Clone returns a deep copy of p.
func (p SessionProgress) Clone() SessionProgress {
	c := p
	c.Judgments = make([]*Judgment, len(p.Judgments))
	for i, j := range p.Judgments {
		if j != nil {
			cp := *j
			c.Judgments[i] = &cp
		}
	}
	return c
}
