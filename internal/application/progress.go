package application

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/tidwall/gjson"

	"github.com/ahrav/go-rankstudy/internal/domain"
)

// SnapshotVersion is written into every serialized snapshot.
const SnapshotVersion = 1

// snapshotDocument is the on-disk shape of a progress snapshot.
type snapshotDocument struct {
	Version       int             `json:"version"`
	RaterID       string          `json:"rater_id"`
	TotalPairs    int             `json:"total_pairs"`
	AnsweredPairs int             `json:"answered_pairs"`
	CurrentIndex  int             `json:"current_index"`
	SavedAt       time.Time       `json:"saved_at"`
	Results       []domain.Result `json:"results"`
}

// ReconcileReport summarises how much of a snapshot was restored.
type ReconcileReport struct {
	// Placed is the number of prepared-pair slots filled from the snapshot.
	Placed int

	// Total is the number of prepared pairs.
	Total int

	// Dropped counts well-formed entries whose pair is not in the current
	// prepared set.
	Dropped int

	// Duplicates counts well-formed entries whose slot was already filled.
	Duplicates int

	// Problems holds one *domain.MalformedSnapshotEntryError per skipped
	// entry.
	Problems []error

	// Corrupt is set when the blob could not be read as a snapshot at all.
	Corrupt bool
}

// Complete reports whether every slot was restored.
func (r ReconcileReport) Complete() bool { return r.Total > 0 && r.Placed == r.Total }

// Summary renders the report for a rater.
func (r ReconcileReport) Summary() string {
	msg := fmt.Sprintf("restored %d of %d pairs", r.Placed, r.Total)
	if n := len(r.Problems); n > 0 {
		msg += fmt.Sprintf(", skipped %d malformed entries", n)
	}
	if r.Dropped > 0 {
		msg += fmt.Sprintf(", %d no longer in the pair set", r.Dropped)
	}
	if r.Corrupt {
		msg += ", snapshot unreadable"
	}
	return msg
}

// ProgressStore converts session progress to and from snapshot blobs.
type ProgressStore struct {
	now func() time.Time
}

// NewProgressStore creates a ProgressStore stamping snapshots with the
// current UTC time.
func NewProgressStore() *ProgressStore {
	return &ProgressStore{now: func() time.Time { return time.Now().UTC() }}
}

// Serialize returns a self-contained JSON snapshot of progress. Results
// appear in slot order as [[chosen, other], confidence].
func (s *ProgressStore) Serialize(progress domain.SessionProgress) ([]byte, error) {
	judgments := progress.Results()
	doc := snapshotDocument{
		Version:       SnapshotVersion,
		RaterID:       progress.RaterID,
		TotalPairs:    progress.TotalPairs,
		AnsweredPairs: len(judgments),
		CurrentIndex:  progress.Cursor,
		SavedAt:       s.now(),
		Results:       make([]domain.Result, len(judgments)),
	}
	for i, j := range judgments {
		doc.Results[i] = j.Result()
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// Reconcile restores judgments from snapshot onto prepared.
//
// Entries are matched by unordered pair identity, so a judgment saved as
// (b, a) lands on the slot prepared from (a, b). When the same pair appears
// in several slots, entries fill them in slot order. Malformed entries are
// skipped one at a time and never abort the reconciliation; an empty
// snapshot leaves progress empty with a zero cursor.
func (s *ProgressStore) Reconcile(snapshot []byte, prepared []domain.PreparedPair) (domain.SessionProgress, ReconcileReport) {
	progress := domain.NewSessionProgress("", len(prepared))
	report := ReconcileReport{Total: len(prepared)}

	if len(bytes.TrimSpace(snapshot)) == 0 {
		return progress, report
	}
	if !gjson.ValidBytes(snapshot) {
		report.Corrupt = true
		return progress, report
	}

	root := gjson.ParseBytes(snapshot)
	if rater := root.Get("rater_id"); rater.Type == gjson.String {
		progress.RaterID = rater.Str
	}
	results := root.Get("results")
	switch {
	case !results.Exists() || results.Type == gjson.Null:
		return progress, report
	case !results.IsArray():
		report.Corrupt = true
		return progress, report
	}

	slots := make(map[domain.PairKey][]int, len(prepared))
	for _, pp := range prepared {
		k := pp.Canonical.Key()
		slots[k] = append(slots[k], pp.Index)
	}

	for i, entry := range results.Array() {
		pair, conf, err := parseSnapshotEntry(i, entry)
		if err != nil {
			report.Problems = append(report.Problems, err)
			continue
		}
		candidates, ok := slots[pair.Key()]
		if !ok {
			report.Dropped++
			continue
		}
		slot := -1
		for _, c := range candidates {
			if progress.Judgments[c] == nil {
				slot = c
				break
			}
		}
		if slot < 0 {
			report.Duplicates++
			continue
		}

		stored := normalizeToCanonical(pair, prepared[slot].Canonical)
		progress.Judgments[slot] = &domain.Judgment{
			PairIndex:  slot,
			ChosenID:   stored.A,
			OtherID:    stored.B,
			Confidence: conf,
		}
		report.Placed++
	}

	progress.Cursor = firstOpenSlot(progress.Judgments)
	return progress, report
}

// normalizeToCanonical re-expresses a (chosen, other) tuple using the ids
// of canonical, keeping the chosen subject first.
func normalizeToCanonical(pair, canonical domain.RawPair) domain.RawPair {
	switch pair {
	case canonical:
		return canonical
	case canonical.Reversed():
		return canonical.Reversed()
	default:
		return pair
	}
}

func firstOpenSlot(judgments []*domain.Judgment) int {
	for i, j := range judgments {
		if j == nil {
			return i
		}
	}
	return len(judgments)
}

// parseSnapshotEntry accepts [[chosen, other], confidence] or
// {"pair": [chosen, other], "confidence": n}.
func parseSnapshotEntry(index int, entry gjson.Result) (domain.RawPair, int, error) {
	malformed := func(format string, args ...any) error {
		return &domain.MalformedSnapshotEntryError{Index: index, Reason: fmt.Sprintf(format, args...)}
	}

	var pairField, confField gjson.Result
	switch {
	case entry.IsArray():
		parts := entry.Array()
		if len(parts) != 2 {
			return domain.RawPair{}, 0, malformed("expected 2 elements, got %d", len(parts))
		}
		pairField, confField = parts[0], parts[1]
	case entry.IsObject():
		pairField, confField = entry.Get("pair"), entry.Get("confidence")
		if !pairField.Exists() {
			return domain.RawPair{}, 0, malformed("missing key %q", "pair")
		}
		if !confField.Exists() {
			return domain.RawPair{}, 0, malformed("missing key %q", "confidence")
		}
	default:
		return domain.RawPair{}, 0, malformed("unexpected %s", entry.Type)
	}

	if !pairField.IsArray() {
		return domain.RawPair{}, 0, malformed("pair is not a list")
	}
	ids := pairField.Array()
	if len(ids) != 2 {
		return domain.RawPair{}, 0, malformed("pair has %d ids, want 2", len(ids))
	}
	a, ok := jsonInt(ids[0])
	if !ok {
		return domain.RawPair{}, 0, malformed("non-integer id %s", ids[0].Raw)
	}
	b, ok := jsonInt(ids[1])
	if !ok {
		return domain.RawPair{}, 0, malformed("non-integer id %s", ids[1].Raw)
	}
	if a == b {
		return domain.RawPair{}, 0, malformed("pair compares subject %d with itself", a)
	}
	conf, ok := jsonInt(confField)
	if !ok {
		return domain.RawPair{}, 0, malformed("non-integer confidence %s", confField.Raw)
	}
	if !domain.ValidConfidence(conf) {
		return domain.RawPair{}, 0, malformed("confidence %d outside %d..%d", conf, domain.MinConfidence, domain.MaxConfidence)
	}
	return domain.RawPair{A: a, B: b}, conf, nil
}

// jsonInt reads r as an integral JSON number.
func jsonInt(r gjson.Result) (int, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	if r.Num != math.Trunc(r.Num) || math.Abs(r.Num) > 1<<53 {
		return 0, false
	}
	return int(r.Num), true
}
