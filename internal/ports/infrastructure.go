package ports

import (
	"context"
	"time"
)

// SnapshotRecord is one persisted point-in-time copy of a rater's progress.
type SnapshotRecord struct {
	// ID uniquely identifies the record (a UUID).
	ID string

	// RaterID is the rater the snapshot belongs to.
	RaterID string

	// Answered and Total mirror the counts inside Blob for listing without
	// decoding.
	Answered int
	Total    int

	// Blob is the serialized snapshot.
	Blob []byte

	CreatedAt time.Time
}

// SnapshotStore persists progress snapshots.
// Implementations could use SQLite, a file system, or memory.
type SnapshotStore interface {
	// Save stores rec. The ID must be unique.
	Save(ctx context.Context, rec SnapshotRecord) error

	// Latest returns the most recent snapshot for raterID.
	// The boolean is false when the rater has none.
	Latest(ctx context.Context, raterID string) (SnapshotRecord, bool, error)

	// List returns every snapshot for raterID, newest first.
	List(ctx context.Context, raterID string) ([]SnapshotRecord, error)
}

// MetricsCollector defines the interface for collecting operational metrics.
// Implementations should integrate with observability platforms like
// Prometheus, OpenTelemetry, or custom monitoring solutions.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	// The labels map provides additional context for the metric.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric.
	RecordGauge(metric string, value float64, labels map[string]string)
}
