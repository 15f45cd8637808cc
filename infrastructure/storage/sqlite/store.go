// Package sqlite provides a SQLite-backed snapshot store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/ahrav/go-rankstudy/infrastructure/storage/sqlite/migrations"
	"github.com/ahrav/go-rankstudy/internal/ports"
)

var _ ports.SnapshotStore = (*Store)(nil)

// ErrDuplicateSnapshot indicates a snapshot id was saved twice.
var ErrDuplicateSnapshot = errors.New("snapshot already exists")

// Store persists progress snapshots in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite snapshot store at path and applies embedded
// migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(ctx, sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Save inserts rec as the rater's newest snapshot.
func (s *Store) Save(ctx context.Context, rec ports.SnapshotRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return ports.NewStoreError(rec.RaterID, "Save", ports.ErrStoreUnavailable)
	}
	if strings.TrimSpace(rec.ID) == "" || strings.TrimSpace(rec.RaterID) == "" {
		return ports.NewStoreError(rec.RaterID, "Save", fmt.Errorf("snapshot id and rater id are required"))
	}

	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO snapshots (id, rater_id, answered, total, blob, created_at, seq)
VALUES (?, ?, ?, ?, ?, ?,
    (SELECT COALESCE(MAX(seq), 0) + 1 FROM snapshots WHERE rater_id = ?))`,
		rec.ID, rec.RaterID, rec.Answered, rec.Total, rec.Blob, toMillis(rec.CreatedAt), rec.RaterID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ports.NewStoreError(rec.RaterID, "Save", ErrDuplicateSnapshot)
		}
		return ports.NewStoreError(rec.RaterID, "Save", err)
	}
	return nil
}

// Latest returns the newest snapshot for raterID.
func (s *Store) Latest(ctx context.Context, raterID string) (ports.SnapshotRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return ports.SnapshotRecord{}, false, err
	}
	if s == nil || s.sqlDB == nil {
		return ports.SnapshotRecord{}, false, ports.NewStoreError(raterID, "Latest", ports.ErrStoreUnavailable)
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, rater_id, answered, total, blob, created_at
FROM snapshots
WHERE rater_id = ?
ORDER BY seq DESC
LIMIT 1`, raterID)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.SnapshotRecord{}, false, nil
	}
	if err != nil {
		return ports.SnapshotRecord{}, false, ports.NewStoreError(raterID, "Latest", err)
	}
	return rec, true, nil
}

// List returns every snapshot for raterID, newest first.
func (s *Store) List(ctx context.Context, raterID string) ([]ports.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, ports.NewStoreError(raterID, "List", ports.ErrStoreUnavailable)
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, rater_id, answered, total, blob, created_at
FROM snapshots
WHERE rater_id = ?
ORDER BY seq DESC`, raterID)
	if err != nil {
		return nil, ports.NewStoreError(raterID, "List", err)
	}
	defer rows.Close()

	var out []ports.SnapshotRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, ports.NewStoreError(raterID, "List", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, ports.NewStoreError(raterID, "List", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (ports.SnapshotRecord, error) {
	var (
		rec       ports.SnapshotRecord
		createdAt int64
	)
	if err := row.Scan(&rec.ID, &rec.RaterID, &rec.Answered, &rec.Total, &rec.Blob, &createdAt); err != nil {
		return ports.SnapshotRecord{}, err
	}
	rec.CreatedAt = fromMillis(createdAt)
	return rec, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
