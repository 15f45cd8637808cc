package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-rankstudy/infrastructure/storage/memory"
	"github.com/ahrav/go-rankstudy/infrastructure/telemetry"
	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
	"github.com/ahrav/go-rankstudy/internal/testutils"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// failingStore rejects every Save.
type failingStore struct {
	ports.SnapshotStore
}

func (failingStore) Save(context.Context, ports.SnapshotRecord) error {
	return ports.NewStoreError("r", "Save", ports.ErrStoreUnavailable)
}

func (failingStore) Latest(context.Context, string) (ports.SnapshotRecord, bool, error) {
	return ports.SnapshotRecord{}, false, nil
}

func newTestService(t *testing.T, store ports.SnapshotStore, opts ...StudyOption) (*StudyService, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	opts = append([]StudyOption{
		WithMetrics(telemetry.NewPrometheusMetrics(reg)),
		WithLogger(quietLogger()),
	}, opts...)
	return NewStudyService(store, opts...), reg
}

func answerAll(t *testing.T, svc *StudyService, sess *Session, limiter *rate.Limiter) {
	t.Helper()
	ctx := context.Background()
	for !sess.ReadyToFinish() {
		_, err := svc.Submit(ctx, sess, limiter, domain.ChoiceLeft, 3)
		require.NoError(t, err)
	}
}

func TestStudyService_OpenSubmitFinish(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(t, store)
	catalog := mustCatalog(t, testutils.SubjectRange(1, 6))
	raw := testutils.SequentialPairs(1, 3)

	sess, report, err := svc.Open(ctx, "ann", catalog, raw)
	require.NoError(t, err)
	assert.Equal(t, domain.StageBriefing, sess.Stage())
	assert.Equal(t, 0, report.Placed)
	assert.Equal(t, 3, report.Total)

	require.NoError(t, sess.Begin())
	answerAll(t, svc, sess, nil)

	results, err := svc.Finish(ctx, sess)
	require.NoError(t, err)
	assert.Len(t, results, 3)

	recs, err := store.List(ctx, "ann")
	require.NoError(t, err)
	require.Len(t, recs, 4, "three autosaves and the final save")
	assert.Equal(t, 3, recs[0].Answered)
	assert.Equal(t, 3, recs[0].Total)
	assert.NotEmpty(t, recs[0].ID)
}

func TestStudyService_ResumesLatestSnapshot(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, reg := newTestService(t, store, WithSeed(11))
	catalog := mustCatalog(t, testutils.SubjectRange(1, 20))
	raw := testutils.SequentialPairs(1, 10)

	sess, _, err := svc.Open(ctx, "ben", catalog, raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(11), sess.Seed())
	require.NoError(t, sess.Begin())
	for i := 0; i < 3; i++ {
		_, err := svc.Submit(ctx, sess, nil, domain.ChoiceRight, 4)
		require.NoError(t, err)
	}

	resumed, report, err := svc.Open(ctx, "ben", catalog, raw)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Placed)
	assert.Equal(t, 10, report.Total)
	require.NoError(t, resumed.Begin())
	assert.Equal(t, 3, resumed.Cursor())
	assert.Equal(t, sess.Progress().Results(), resumed.Progress().Results())

	expected := `
# HELP rankstudy_judgments_recorded_total Total number of pairwise judgments accepted.
# TYPE rankstudy_judgments_recorded_total counter
rankstudy_judgments_recorded_total{rater="ben"} 3
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "rankstudy_judgments_recorded_total"))
}

func TestStudyService_OpenErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, memory.New())
	catalog := mustCatalog(t, testutils.Subjects(1, 2))

	_, _, err := svc.Open(ctx, "", catalog, testutils.Pairs(1, 2))
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, _, err = svc.Open(ctx, "cat", catalog, testutils.Pairs(1, 3, 4, 2))
	var unknown *domain.UnknownSubjectError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, []int{3, 4}, unknown.IDs)

	_, _, err = svc.Open(ctx, "cat", catalog, testutils.Pairs(2, 2))
	assert.ErrorIs(t, err, domain.ErrEmptyPairSet)
}

func TestStudyService_AutosaveThrottle(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(t, store, WithAutosaveInterval(time.Hour))
	catalog := mustCatalog(t, testutils.SubjectRange(1, 8))

	sess, _, err := svc.Open(ctx, "dee", catalog, testutils.SequentialPairs(1, 4))
	require.NoError(t, err)
	require.NoError(t, sess.Begin())

	answerAll(t, svc, sess, svc.NewAutosaveLimiter())

	recs, err := store.List(ctx, "dee")
	require.NoError(t, err)
	require.Len(t, recs, 2, "first submission and the completing submission")
	assert.Equal(t, 4, recs[0].Answered)
	assert.Equal(t, 1, recs[1].Answered)
}

func TestStudyService_SubmitErrors(t *testing.T) {
	ctx := context.Background()
	catalog := mustCatalog(t, testutils.Subjects(1, 2))

	t.Run("rejected input leaves session", func(t *testing.T) {
		svc, reg := newTestService(t, memory.New())
		sess, _, err := svc.Open(ctx, "eve", catalog, testutils.Pairs(1, 2))
		require.NoError(t, err)
		require.NoError(t, sess.Begin())

		_, err = svc.Submit(ctx, sess, nil, domain.ChoiceLeft, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidConfidence)
		assert.Equal(t, 0, sess.Cursor())

		count, err := testutil.GatherAndCount(reg, "rankstudy_session_events_total")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("failed autosave keeps judgment", func(t *testing.T) {
		svc, _ := newTestService(t, failingStore{})
		sess, _, err := svc.Open(ctx, "eve", catalog, testutils.Pairs(1, 2))
		require.NoError(t, err)
		require.NoError(t, sess.Begin())

		j, err := svc.Submit(ctx, sess, nil, domain.ChoiceLeft, 5)
		assert.ErrorIs(t, err, ports.ErrStoreUnavailable)
		assert.Equal(t, 5, j.Confidence)
		assert.Equal(t, 1, sess.Cursor())

		_, err = svc.Finish(ctx, sess)
		assert.True(t, errors.Is(err, ports.ErrStoreUnavailable))
	})
}

func TestStudyService_Restart(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc, _ := newTestService(t, store)
	catalog := mustCatalog(t, testutils.SubjectRange(1, 4))
	raw := testutils.SequentialPairs(1, 2)

	sess, _, err := svc.Open(ctx, "fay", catalog, raw)
	require.NoError(t, err)
	require.NoError(t, sess.Begin())
	_, err = svc.Submit(ctx, sess, nil, domain.ChoiceLeft, 2)
	require.NoError(t, err)

	discarded, err := svc.Restart(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, 1, discarded)

	reopened, report, err := svc.Open(ctx, "fay", catalog, raw)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Placed, "saved progress survives a restart")
	assert.Equal(t, domain.StageBriefing, reopened.Stage())
}

func TestNewStudyService_RequiresStore(t *testing.T) {
	assert.Panics(t, func() { NewStudyService(nil) })
}
