package driven

import (
	"context"

	"github.com/loankit/docpipe/internal/core/domain"
)

// VectorStore persists (id, vector, text, metadata) tuples for a single
// collection and answers nearest-neighbour queries.
//
// Upsert replaces by id: repeating an upsert with the same id leaves
// exactly one stored entry, with the later write winning. Query returns
// candidates ordered by the store-native distance (lower = closer),
// with Distance populated and Score left at zero. Turning distances
// into scores belongs to the reranker, not the store.
type VectorStore interface {
	// Upsert validates and writes records, returning how many were
	// written. Empty input returns (0, nil).
	Upsert(ctx context.Context, records []domain.EmbeddingRecord) (int, error)

	// Query returns up to k nearest candidates for the query vector.
	Query(ctx context.Context, vector []float64, k int) ([]domain.Candidate, error)

	// Close releases underlying resources. Safe to call on backends
	// with nothing to release.
	Close() error
}

// VectorStoreOpener opens a store handle for one logical operation.
// The pipeline acquires a handle per ingest/search call and releases it
// on every exit path; handles are never held across requests.
type VectorStoreOpener func(ctx context.Context) (VectorStore, error)
