package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/testutils"
)

// ratingSession returns a session in the rating stage over raw.
func ratingSession(t *testing.T, raw []domain.RawPair, ids ...int) *Session {
	t.Helper()
	s := NewSession()
	require.NoError(t, s.Identify("rater-1"))
	_, err := s.Load(mustCatalog(t, testutils.Subjects(ids...)), raw, DefaultSeed)
	require.NoError(t, err)
	require.NoError(t, s.Begin())
	return s
}

// chooseSubject returns the choice that selects id in pp.
func chooseSubject(pp domain.PreparedPair, id int) domain.Choice {
	if pp.Left.ID == id {
		return domain.ChoiceLeft
	}
	return domain.ChoiceRight
}

func TestSession_FullWalkthrough(t *testing.T) {
	s := ratingSession(t, testutils.Pairs(10, 11, 12, 13), 10, 11, 12, 13)
	assert.Equal(t, domain.StageRating, s.Stage())
	assert.Equal(t, 0, s.Cursor())

	first, err := s.Current()
	require.NoError(t, err)
	j, err := s.Submit(chooseSubject(first, 11), 4)
	require.NoError(t, err)
	assert.Equal(t, 11, j.ChosenID)
	assert.Equal(t, 10, j.OtherID)
	assert.Equal(t, 1, s.Cursor())
	assert.False(t, s.ReadyToFinish())

	second, err := s.Current()
	require.NoError(t, err)
	_, err = s.Submit(chooseSubject(second, 12), 2)
	require.NoError(t, err)
	assert.True(t, s.ReadyToFinish())

	_, err = s.Current()
	assert.ErrorIs(t, err, domain.ErrOutOfRange)

	require.NoError(t, s.Finish())
	assert.Equal(t, domain.StageFinished, s.Stage())

	results, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, []domain.Result{
		{Pair: domain.RawPair{A: 11, B: 10}, Confidence: 4},
		{Pair: domain.RawPair{A: 12, B: 13}, Confidence: 2},
	}, results)
	assert.Zero(t, s.Anomalies())
}

func TestSession_StoresCanonicalIDsRegardlessOfSide(t *testing.T) {
	raw := testutils.SequentialPairs(1, 16)
	ids := make([]int, 0, 32)
	for i := 1; i <= 32; i++ {
		ids = append(ids, i)
	}
	s := ratingSession(t, raw, ids...)

	for !s.ReadyToFinish() {
		pp, err := s.Current()
		require.NoError(t, err)
		j, err := s.Submit(domain.ChoiceLeft, 3)
		require.NoError(t, err)
		assert.Equal(t, pp.Canonical.Key(), j.Pair().Key())
		assert.Equal(t, pp.Left.ID, j.ChosenID)
	}
	assert.Zero(t, s.Anomalies())
}

func TestSession_SubmitRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		choice     domain.Choice
		confidence int
		wantErr    error
	}{
		{name: "confidence zero", choice: domain.ChoiceLeft, confidence: 0, wantErr: domain.ErrInvalidConfidence},
		{name: "confidence six", choice: domain.ChoiceRight, confidence: 6, wantErr: domain.ErrInvalidConfidence},
		{name: "unknown side", choice: "middle", confidence: 3, wantErr: domain.ErrInvalidChoice},
		{name: "empty side", choice: "", confidence: 3, wantErr: domain.ErrInvalidChoice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ratingSession(t, testutils.Pairs(1, 2, 3, 4), 1, 2, 3, 4)
			_, err := s.Submit(tt.choice, tt.confidence)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, s.Cursor())
			assert.Zero(t, s.Progress().Answered())
		})
	}
}

func TestSession_StageGuards(t *testing.T) {
	s := NewSession()
	assert.Equal(t, domain.StageAwaitingIdentity, s.Stage())

	_, err := s.Load(mustCatalog(t, testutils.Subjects(1, 2)), testutils.Pairs(1, 2), DefaultSeed)
	var stageErr *domain.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "Load", stageErr.Operation)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = s.Submit(domain.ChoiceLeft, 3)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.Begin(), domain.ErrInvalidTransition)
	assert.ErrorIs(t, s.Finish(), domain.ErrInvalidTransition)
	_, err = s.Export()
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	_, err = s.Restart()
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	err = s.Identify("   ")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, domain.StageAwaitingIdentity, s.Stage())

	require.NoError(t, s.Identify("  carol "))
	assert.Equal(t, "carol", s.RaterID())
	assert.ErrorIs(t, s.Identify("dave"), domain.ErrInvalidTransition)
}

func TestSession_LoadFailureKeepsStage(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Identify("r"))

	_, err := s.Load(mustCatalog(t, testutils.Subjects(1, 2)), testutils.Pairs(1, 3), DefaultSeed)
	assert.ErrorIs(t, err, domain.ErrUnknownSubject)
	assert.Equal(t, domain.StageAwaitingInput, s.Stage())

	res, err := s.Load(mustCatalog(t, testutils.Subjects(1, 2)), testutils.Pairs(1, 1, 1, 2), 9)
	require.NoError(t, err)
	assert.Len(t, res.Dropped, 1)
	assert.Equal(t, domain.StageBriefing, s.Stage())
	assert.Equal(t, uint64(9), s.Seed())

	brief, err := s.Briefing()
	require.NoError(t, err)
	assert.Equal(t, Briefing{TotalPairs: 1, UniqueSubjects: 2, DroppedPairs: 1}, brief)
	assert.Equal(t, 1, brief.Remaining())
}

func TestSession_FinishRequiresAllPairs(t *testing.T) {
	s := ratingSession(t, testutils.Pairs(1, 2, 3, 4), 1, 2, 3, 4)
	_, err := s.Submit(domain.ChoiceLeft, 5)
	require.NoError(t, err)

	err = s.Finish()
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, domain.StageRating, s.Stage())
}

func TestSession_ResumeThenContinue(t *testing.T) {
	raw := testutils.Pairs(1, 2, 3, 4, 5, 6)
	catalog := mustCatalog(t, testutils.Subjects(1, 2, 3, 4, 5, 6))
	store := NewProgressStore()

	s := NewSession()
	require.NoError(t, s.Identify("erin"))
	_, err := s.Load(catalog, raw, DefaultSeed)
	require.NoError(t, err)

	report, err := s.Resume([]byte(`{"results": [[[2,1],4], [[6,5],1]]}`), store)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Placed)

	brief, err := s.Briefing()
	require.NoError(t, err)
	assert.Equal(t, 2, brief.Answered)
	assert.Equal(t, 1, brief.Remaining())

	require.NoError(t, s.Begin())
	assert.Equal(t, 1, s.Cursor())
	pp, err := s.Current()
	require.NoError(t, err)
	assert.Equal(t, domain.RawPair{A: 3, B: 4}, pp.Canonical)

	_, err = s.Submit(chooseSubject(pp, 4), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Cursor())
	assert.False(t, s.ReadyToFinish(), "cursor advances by one even when the next slot is filled")

	_, err = s.Resume(nil, store)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSession_Restart(t *testing.T) {
	s := ratingSession(t, testutils.Pairs(1, 2, 3, 4), 1, 2, 3, 4)
	_, err := s.Submit(domain.ChoiceRight, 3)
	require.NoError(t, err)

	discarded, err := s.Restart()
	require.NoError(t, err)
	assert.Equal(t, 1, discarded)
	assert.Equal(t, domain.StageAwaitingInput, s.Stage())
	assert.Equal(t, "rater-1", s.RaterID())
	assert.Zero(t, s.Total())
	assert.Empty(t, s.Prepared())

	_, err = s.Load(mustCatalog(t, testutils.Subjects(1, 2, 3, 4)), testutils.Pairs(1, 2, 3, 4), DefaultSeed)
	require.NoError(t, err)
	assert.Zero(t, s.Progress().Answered())
}

func TestSession_SnapshotRoundTrip(t *testing.T) {
	raw := testutils.Pairs(1, 2, 3, 4)
	store := NewProgressStore()

	s := ratingSession(t, raw, 1, 2, 3, 4)
	_, err := s.Submit(domain.ChoiceLeft, 4)
	require.NoError(t, err)
	blob, err := s.Snapshot(store)
	require.NoError(t, err)

	resumed := NewSession()
	require.NoError(t, resumed.Identify("rater-1"))
	_, err = resumed.Load(mustCatalog(t, testutils.Subjects(1, 2, 3, 4)), raw, DefaultSeed)
	require.NoError(t, err)
	report, err := resumed.Resume(blob, store)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Placed)
	assert.Equal(t, s.Progress(), resumed.Progress())
	assert.Equal(t, s.Prepared(), resumed.Prepared())

	_, err = NewSession().Snapshot(store)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestSession_ProgressIsACopy(t *testing.T) {
	s := ratingSession(t, testutils.Pairs(1, 2), 1, 2)
	_, err := s.Submit(domain.ChoiceLeft, 2)
	require.NoError(t, err)

	p := s.Progress()
	p.Judgments[0].Confidence = 5
	assert.Equal(t, 2, s.Progress().Judgments[0].Confidence)
}
