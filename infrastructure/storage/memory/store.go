// Package memory provides an in-process snapshot store.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ahrav/go-rankstudy/internal/ports"
)

var _ ports.SnapshotStore = (*Store)(nil)

// Store keeps snapshots in memory. It is safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	ids     map[string]struct{}
	byRater map[string][]ports.SnapshotRecord
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		ids:     make(map[string]struct{}),
		byRater: make(map[string][]ports.SnapshotRecord),
	}
}

// Save appends rec to the rater's history.
func (s *Store) Save(ctx context.Context, rec ports.SnapshotRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec.ID == "" || rec.RaterID == "" {
		return ports.NewStoreError(rec.RaterID, "Save", fmt.Errorf("snapshot id and rater id are required"))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.ids[rec.ID]; dup {
		return ports.NewStoreError(rec.RaterID, "Save", fmt.Errorf("snapshot %s already exists", rec.ID))
	}
	rec.Blob = slices.Clone(rec.Blob)
	s.ids[rec.ID] = struct{}{}
	s.byRater[rec.RaterID] = append(s.byRater[rec.RaterID], rec)
	return nil
}

// Latest returns the most recently saved snapshot for raterID.
func (s *Store) Latest(ctx context.Context, raterID string) (ports.SnapshotRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return ports.SnapshotRecord{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.byRater[raterID]
	if len(recs) == 0 {
		return ports.SnapshotRecord{}, false, nil
	}
	rec := recs[len(recs)-1]
	rec.Blob = slices.Clone(rec.Blob)
	return rec, true, nil
}

// List returns raterID's snapshots, newest first.
func (s *Store) List(ctx context.Context, raterID string) ([]ports.SnapshotRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.byRater[raterID]
	out := make([]ports.SnapshotRecord, len(recs))
	for i, rec := range recs {
		rec.Blob = slices.Clone(rec.Blob)
		out[len(recs)-1-i] = rec
	}
	return out, nil
}
