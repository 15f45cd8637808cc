package application

import (
	"fmt"
	"slices"
	"strings"

	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

// Session is the caller-owned state of one rater's pass over a pair list.
// It moves through the stages
//
//	awaiting_identity -> awaiting_input -> briefing -> rating -> finished
//
// and carries no hidden global state: a host that re-runs its driving logic
// on every trigger can rebuild a Session from the same inputs plus a
// snapshot and get the same orientation and progress back.
//
// A Session is not safe for concurrent use; exactly one rater drives it.
type Session struct {
	stage     domain.Stage
	raterID   string
	seed      uint64
	catalog   ports.SubjectCatalog
	prepared  []domain.PreparedPair
	dropped   []*domain.InvalidPairError
	progress  domain.SessionProgress
	anomalies int
}

// NewSession returns a session waiting for a rater identity.
func NewSession() *Session {
	return &Session{stage: domain.StageAwaitingIdentity}
}

// Stage returns the current workflow stage.
func (s *Session) Stage() domain.Stage { return s.stage }

// RaterID returns the identified rater, empty before Identify.
func (s *Session) RaterID() string { return s.raterID }

// Seed returns the orientation seed the pairs were prepared with.
func (s *Session) Seed() uint64 { return s.seed }

// Identify records the rater and moves to awaiting_input.
func (s *Session) Identify(raterID string) error {
	if s.stage != domain.StageAwaitingIdentity {
		return domain.NewStageError("Identify", s.stage)
	}
	raterID = strings.TrimSpace(raterID)
	if raterID == "" {
		verr := domain.NewValidationError("Rater")
		verr.AddError("rater id is required")
		return verr
	}
	s.raterID = raterID
	s.stage = domain.StageAwaitingInput
	return nil
}

// Load prepares raw against catalog and moves to briefing. On error the
// session is left untouched in awaiting_input.
func (s *Session) Load(catalog ports.SubjectCatalog, raw []domain.RawPair, seed uint64) (PrepareResult, error) {
	if s.stage != domain.StageAwaitingInput {
		return PrepareResult{}, domain.NewStageError("Load", s.stage)
	}
	res, err := Prepare(catalog, raw, seed)
	if err != nil {
		return PrepareResult{}, err
	}
	s.catalog = catalog
	s.seed = seed
	s.prepared = res.Pairs
	s.dropped = res.Dropped
	s.progress = domain.NewSessionProgress(s.raterID, len(res.Pairs))
	s.anomalies = 0
	s.stage = domain.StageBriefing
	return res, nil
}

// Resume reconciles snapshot onto the prepared pairs. It is only allowed
// during briefing, before any new judgment exists.
func (s *Session) Resume(snapshot []byte, store *ProgressStore) (ReconcileReport, error) {
	if s.stage != domain.StageBriefing {
		return ReconcileReport{}, domain.NewStageError("Resume", s.stage)
	}
	progress, report := store.Reconcile(snapshot, s.prepared)
	progress.RaterID = s.raterID
	s.progress = progress
	return report, nil
}

// Briefing describes the work ahead of the rater.
type Briefing struct {
	TotalPairs     int
	UniqueSubjects int
	Answered       int
	DroppedPairs   int
}

// Remaining returns how many pairs still need a judgment.
func (b Briefing) Remaining() int { return b.TotalPairs - b.Answered }

// Briefing summarises the prepared pairs and any restored progress.
func (s *Session) Briefing() (Briefing, error) {
	switch s.stage {
	case domain.StageBriefing, domain.StageRating, domain.StageFinished:
	default:
		return Briefing{}, domain.NewStageError("Briefing", s.stage)
	}
	return Briefing{
		TotalPairs:     len(s.prepared),
		UniqueSubjects: countUniqueSubjects(s.prepared),
		Answered:       s.progress.Answered(),
		DroppedPairs:   len(s.dropped),
	}, nil
}

// Begin moves from briefing to rating.
func (s *Session) Begin() error {
	if s.stage != domain.StageBriefing {
		return domain.NewStageError("Begin", s.stage)
	}
	if len(s.prepared) == 0 {
		return domain.ErrEmptyPairSet
	}
	s.stage = domain.StageRating
	return nil
}

// Cursor returns the index of the next unanswered pair.
func (s *Session) Cursor() int { return s.progress.Cursor }

// Total returns the number of prepared pairs.
func (s *Session) Total() int { return len(s.prepared) }

// Current returns the pair at the cursor.
func (s *Session) Current() (domain.PreparedPair, error) {
	if s.stage != domain.StageRating {
		return domain.PreparedPair{}, domain.NewStageError("Current", s.stage)
	}
	if s.progress.Cursor >= len(s.prepared) {
		return domain.PreparedPair{}, fmt.Errorf("cursor %d of %d: %w",
			s.progress.Cursor, len(s.prepared), domain.ErrOutOfRange)
	}
	return s.prepared[s.progress.Cursor], nil
}

// Submit records the rater's choice for the current pair and advances the
// cursor. Invalid input leaves the session unchanged. Submit never finishes
// the session; check ReadyToFinish and call Finish.
func (s *Session) Submit(choice domain.Choice, confidence int) (domain.Judgment, error) {
	if s.stage != domain.StageRating {
		return domain.Judgment{}, domain.NewStageError("Submit", s.stage)
	}
	if !choice.Valid() {
		return domain.Judgment{}, fmt.Errorf("%w: %q, want %q or %q",
			domain.ErrInvalidChoice, choice, domain.ChoiceLeft, domain.ChoiceRight)
	}
	if !domain.ValidConfidence(confidence) {
		return domain.Judgment{}, fmt.Errorf("%w: %d, want %d..%d",
			domain.ErrInvalidConfidence, confidence, domain.MinConfidence, domain.MaxConfidence)
	}
	pair, err := s.Current()
	if err != nil {
		return domain.Judgment{}, err
	}

	chosen, other := pair.Resolve(choice)
	stored := domain.RawPair{A: chosen, B: other}
	switch stored {
	case pair.Canonical, pair.Canonical.Reversed():
	default:
		// Unreachable while left and right come from the canonical pair.
		s.anomalies++
	}

	j := domain.Judgment{
		PairIndex:  pair.Index,
		ChosenID:   stored.A,
		OtherID:    stored.B,
		Confidence: confidence,
	}
	s.progress.Judgments[pair.Index] = &j
	s.progress.Cursor++
	return j, nil
}

// ReadyToFinish reports whether the cursor has passed the last pair.
func (s *Session) ReadyToFinish() bool {
	return s.stage == domain.StageRating && s.progress.Cursor >= len(s.prepared)
}

// Finish closes the session for editing.
func (s *Session) Finish() error {
	if s.stage != domain.StageRating {
		return domain.NewStageError("Finish", s.stage)
	}
	if !s.ReadyToFinish() {
		return fmt.Errorf("finish with %d of %d pairs answered: %w",
			s.progress.Cursor, len(s.prepared), domain.ErrInvalidTransition)
	}
	s.stage = domain.StageFinished
	return nil
}

// Export returns the answered judgments in cursor order as
// ((chosen, other), confidence) results.
func (s *Session) Export() ([]domain.Result, error) {
	if s.stage != domain.StageFinished {
		return nil, domain.NewStageError("Export", s.stage)
	}
	judgments := s.progress.Results()
	out := make([]domain.Result, len(judgments))
	for i, j := range judgments {
		out[i] = j.Result()
	}
	return out, nil
}

// Restart discards all in-memory progress and returns to awaiting_input,
// keeping the rater identity. It reports how many answered judgments were
// discarded so a caller can warn before confirming. Anything not already
// saved as a snapshot is lost.
func (s *Session) Restart() (int, error) {
	switch s.stage {
	case domain.StageBriefing, domain.StageRating, domain.StageFinished:
	default:
		return 0, domain.NewStageError("Restart", s.stage)
	}
	discarded := s.progress.Answered()
	s.catalog = nil
	s.prepared = nil
	s.dropped = nil
	s.progress = domain.SessionProgress{}
	s.anomalies = 0
	s.stage = domain.StageAwaitingInput
	return discarded, nil
}

// Snapshot serializes the current progress.
func (s *Session) Snapshot(store *ProgressStore) ([]byte, error) {
	switch s.stage {
	case domain.StageBriefing, domain.StageRating, domain.StageFinished:
	default:
		return nil, domain.NewStageError("Snapshot", s.stage)
	}
	return store.Serialize(s.progress)
}

// Progress returns a copy of the current progress.
func (s *Session) Progress() domain.SessionProgress { return s.progress.Clone() }

// Prepared returns a copy of the prepared pair sequence.
func (s *Session) Prepared() []domain.PreparedPair { return slices.Clone(s.prepared) }

// Dropped returns the self-pairs removed during Load.
func (s *Session) Dropped() []*domain.InvalidPairError { return slices.Clone(s.dropped) }

// Anomalies counts submissions whose (chosen, other) matched neither
// orientation of the slot's canonical pair. It should always be zero.
func (s *Session) Anomalies() int { return s.anomalies }
