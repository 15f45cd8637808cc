package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/ahrav/go-rankstudy/internal/domain"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

// StudyService wires a Session to its collaborators: snapshot storage,
// metrics, tracing, and logging. It holds no per-session state, so one
// service can drive any number of independent sessions one call at a time.
type StudyService struct {
	store    ports.SnapshotStore
	metrics  ports.MetricsCollector
	progress *ProgressStore
	planner  *AlignmentPlanner
	logger   *slog.Logger
	seed     uint64
	autosave time.Duration
	newID    func() string
	now      func() time.Time
}

// StudyOption configures a StudyService.
type StudyOption func(*StudyService)

// WithMetrics sets the metrics collector.
func WithMetrics(m ports.MetricsCollector) StudyOption {
	return func(s *StudyService) { s.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) StudyOption {
	return func(s *StudyService) { s.logger = l }
}

// WithSeed sets the orientation seed.
func WithSeed(seed uint64) StudyOption {
	return func(s *StudyService) { s.seed = seed }
}

// WithAutosaveInterval sets the minimum gap between autosaves.
func WithAutosaveInterval(d time.Duration) StudyOption {
	return func(s *StudyService) { s.autosave = d }
}

// WithPlanner sets the alignment planner.
func WithPlanner(p *AlignmentPlanner) StudyOption {
	return func(s *StudyService) { s.planner = p }
}

// NewStudyService creates a StudyService persisting snapshots to store.
func NewStudyService(store ports.SnapshotStore, opts ...StudyOption) *StudyService {
	if store == nil {
		panic("study service: snapshot store is required")
	}
	s := &StudyService{
		store:    store,
		progress: NewProgressStore(),
		logger:   slog.Default(),
		seed:     DefaultSeed,
		newID:    func() string { return uuid.NewString() },
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.planner == nil {
		s.planner = NewAlignmentPlanner(nil)
	}
	s.logger = s.logger.With("component", "study")
	return s
}

// Planner returns the alignment planner used for display.
func (s *StudyService) Planner() *AlignmentPlanner { return s.planner }

// ProgressStore returns the snapshot codec.
func (s *StudyService) ProgressStore() *ProgressStore { return s.progress }

func (s *StudyService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.Tracer("study-service")
	ctx, span := tracer.Start(ctx, name)
	span.SetAttributes(attrs...)
	return ctx, span
}

// Open starts a session for raterID over catalog and raw, then restores
// the rater's latest stored snapshot if one exists. The returned session is
// in the briefing stage. Catalog and pair problems fail before anything is
// restored.
func (s *StudyService) Open(
	ctx context.Context,
	raterID string,
	catalog ports.SubjectCatalog,
	raw []domain.RawPair,
) (*Session, ReconcileReport, error) {
	ctx, span := s.startSpan(ctx, "StudyService.Open",
		attribute.String("rater.id", raterID),
		attribute.Int("pairs.raw", len(raw)))
	defer span.End()
	start := time.Now()

	sess := NewSession()
	if err := sess.Identify(raterID); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, ReconcileReport{}, err
	}
	res, err := sess.Load(catalog, raw, s.seed)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.count("session_open_failed", raterID)
		return nil, ReconcileReport{}, err
	}
	for _, d := range res.Dropped {
		s.logger.WarnContext(ctx, "dropped self-pair", "rater", sess.RaterID(), "position", d.Position, "subject", d.Pair.A)
	}

	rec, found, err := s.store.Latest(ctx, sess.RaterID())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, ReconcileReport{}, fmt.Errorf("failed to load snapshot: %w", err)
	}
	var report ReconcileReport
	if found {
		report, err = sess.Resume(rec.Blob, s.progress)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, ReconcileReport{}, err
		}
		s.logger.InfoContext(ctx, "restored snapshot",
			"rater", sess.RaterID(),
			"snapshot", rec.ID,
			"placed", report.Placed,
			"total", report.Total,
			"dropped", report.Dropped,
			"malformed", len(report.Problems))
		s.countN("snapshot_entries_malformed", float64(len(report.Problems)), sess.RaterID())
	} else {
		report = ReconcileReport{Total: sess.Total()}
	}

	span.SetAttributes(
		attribute.Int("pairs.prepared", sess.Total()),
		attribute.Int("pairs.restored", report.Placed))
	span.SetStatus(codes.Ok, "session opened")
	s.latency("open", time.Since(start), sess.RaterID())
	s.gauge("session_cursor", float64(sess.Cursor()), sess.RaterID())
	return sess, report, nil
}

// Submit records a judgment and autosaves according to the autosave
// interval. The submission that completes the pair list always saves.
// A failed autosave is logged and returned alongside the recorded
// judgment; the judgment itself is kept.
func (s *StudyService) Submit(
	ctx context.Context,
	sess *Session,
	limiter *rate.Limiter,
	choice domain.Choice,
	confidence int,
) (domain.Judgment, error) {
	ctx, span := s.startSpan(ctx, "StudyService.Submit",
		attribute.String("rater.id", sess.RaterID()),
		attribute.Int("cursor", sess.Cursor()))
	defer span.End()

	j, err := sess.Submit(choice, confidence)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.count("submission_rejected", sess.RaterID())
		return domain.Judgment{}, err
	}
	s.count("judgments_recorded", sess.RaterID())
	s.gauge("session_cursor", float64(sess.Cursor()), sess.RaterID())

	if sess.ReadyToFinish() || limiter == nil || limiter.Allow() {
		if _, err := s.Save(ctx, sess); err != nil {
			s.logger.ErrorContext(ctx, "autosave failed", "rater", sess.RaterID(), "error", err)
			span.SetStatus(codes.Error, err.Error())
			return j, err
		}
	}
	span.SetStatus(codes.Ok, "judgment recorded")
	return j, nil
}

// NewAutosaveLimiter returns the limiter Submit uses to throttle saves.
// Each session should get its own limiter.
func (s *StudyService) NewAutosaveLimiter() *rate.Limiter {
	if s.autosave <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(s.autosave), 1)
}

// Save persists a snapshot of sess.
func (s *StudyService) Save(ctx context.Context, sess *Session) (ports.SnapshotRecord, error) {
	ctx, span := s.startSpan(ctx, "StudyService.Save",
		attribute.String("rater.id", sess.RaterID()))
	defer span.End()
	start := time.Now()

	blob, err := sess.Snapshot(s.progress)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ports.SnapshotRecord{}, err
	}
	progress := sess.Progress()
	rec := ports.SnapshotRecord{
		ID:        s.newID(),
		RaterID:   sess.RaterID(),
		Answered:  progress.Answered(),
		Total:     progress.TotalPairs,
		Blob:      blob,
		CreatedAt: s.now(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		span.SetStatus(codes.Error, err.Error())
		s.count("snapshot_save_failed", sess.RaterID())
		return ports.SnapshotRecord{}, err
	}
	s.latency("save", time.Since(start), sess.RaterID())
	s.logger.DebugContext(ctx, "saved snapshot", "rater", rec.RaterID, "snapshot", rec.ID, "answered", rec.Answered, "total", rec.Total)
	span.SetStatus(codes.Ok, "snapshot saved")
	return rec, nil
}

// Finish closes sess, stores a final snapshot, and returns the export.
func (s *StudyService) Finish(ctx context.Context, sess *Session) ([]domain.Result, error) {
	ctx, span := s.startSpan(ctx, "StudyService.Finish",
		attribute.String("rater.id", sess.RaterID()))
	defer span.End()

	if err := sess.Finish(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if _, err := s.Save(ctx, sess); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	results, err := sess.Export()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if n := sess.Anomalies(); n > 0 {
		s.logger.ErrorContext(ctx, "judgments stored with non-canonical pairs", "rater", sess.RaterID(), "count", n)
	}
	s.count("sessions_finished", sess.RaterID())
	s.logger.InfoContext(ctx, "session finished", "rater", sess.RaterID(), "judgments", len(results))
	span.SetAttributes(attribute.Int("judgments", len(results)))
	span.SetStatus(codes.Ok, "session finished")
	return results, nil
}

// Restart discards the in-memory progress of sess. Saved snapshots are
// kept, so a later Open resumes from the last save.
func (s *StudyService) Restart(ctx context.Context, sess *Session) (int, error) {
	discarded, err := sess.Restart()
	if err != nil {
		return 0, err
	}
	s.logger.WarnContext(ctx, "session restarted", "rater", sess.RaterID(), "discarded", discarded)
	s.count("sessions_restarted", sess.RaterID())
	return discarded, nil
}

func (s *StudyService) count(metric, rater string) { s.countN(metric, 1, rater) }

func (s *StudyService) countN(metric string, v float64, rater string) {
	if s.metrics == nil || v == 0 {
		return
	}
	s.metrics.RecordCounter(metric, v, map[string]string{"rater": rater})
}

func (s *StudyService) gauge(metric string, v float64, rater string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordGauge(metric, v, map[string]string{"rater": rater})
}

func (s *StudyService) latency(op string, d time.Duration, rater string) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordLatency(op, d, map[string]string{"rater": rater})
}
