// Package memory provides an in-memory MetricStore for development and tests.
package memory

import (
	"context"
	"sync"

	"github.com/socialpulse/tiktok-metrics/internal/query"
	"github.com/socialpulse/tiktok-metrics/internal/store"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

// Store keeps records per scope with a process-local sequence counter.
type Store struct {
	mu      sync.RWMutex
	records map[store.Scope][]store.StoredMetric
	seq     uint64
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		records: make(map[store.Scope][]store.StoredMetric),
	}
}

// InsertMany appends the records, assigning each the next sequence number.
func (s *Store) InsertMany(_ context.Context, scope store.Scope, records []tiktok.OwnedMetric) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range records {
		s.seq++
		s.records[scope] = append(s.records[scope], store.StoredMetric{
			OwnedMetric: rec,
			Seq:         s.seq,
		})
	}
	return len(records), nil
}

// Query evaluates the predicate directly against the stored records.
func (s *Store) Query(_ context.Context, scope store.Scope, pred query.Predicate) ([]store.StoredMetric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.StoredMetric, 0)
	for _, rec := range s.records[scope] {
		if pred.Matches(rec.OwnedMetric) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close(_ context.Context) error { return nil }

// Len reports the number of records stored in a scope, for test assertions.
func (s *Store) Len(scope store.Scope) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records[scope])
}
