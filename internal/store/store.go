// Package store defines the persistence contract for canonical metric
// records. Backends only need insert-many, predicate-filtered retrieval, and a
// recoverable insertion order; everything analytical happens above them.
package store

import (
	"context"

	"github.com/socialpulse/tiktok-metrics/internal/query"
	"github.com/socialpulse/tiktok-metrics/internal/tiktok"
)

// Scope selects the owner partition records live in.
type Scope string

// The two owner scopes, one per ingestion pipeline.
const (
	ScopeUser  Scope = "user"
	ScopeAdmin Scope = "admin"
)

// OwnerField returns the canonical owner field name for the scope.
func (s Scope) OwnerField() string {
	if s == ScopeAdmin {
		return query.OwnerFieldAdmin
	}
	return query.OwnerFieldUser
}

// StoredMetric is a retrieved record tagged with its insertion-order marker.
// Seq increases monotonically per insert within a scope; backends that cannot
// expose native insertion order synthesize it at read time.
type StoredMetric struct {
	tiktok.OwnedMetric
	Seq uint64
}

// MetricStore persists and retrieves canonical records.
type MetricStore interface {
	// InsertMany appends the records to the scope's partition and returns
	// the number actually inserted.
	InsertMany(ctx context.Context, scope Scope, records []tiktok.OwnedMetric) (int, error)

	// Query returns the records in scope matching the predicate, in no
	// particular order, each tagged with its insertion marker.
	Query(ctx context.Context, scope Scope, pred query.Predicate) ([]StoredMetric, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}
