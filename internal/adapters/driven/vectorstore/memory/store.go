// Package memory provides an in-process vector store with the same
// contract as the SQLite store. Nothing survives the process; it
// exists for tests and for pipelines that skip persistence.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/loankit/docpipe/internal/core/domain"
	"github.com/loankit/docpipe/internal/core/ports/driven"
)

var _ driven.VectorStore = (*Store)(nil)

// Store keeps embedding records in a map keyed by id.
type Store struct {
	mu      sync.RWMutex
	records map[string]domain.EmbeddingRecord
	closed  bool
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{records: make(map[string]domain.EmbeddingRecord)}
}

// Upsert inserts or replaces records by id and returns the number
// written.
func (s *Store) Upsert(ctx context.Context, records []domain.EmbeddingRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, domain.ErrStoreClosed
	}
	if len(records) == 0 {
		return 0, nil
	}
	for i, rec := range records {
		if rec.ChunkID == "" {
			return 0, fmt.Errorf("%w: record %d has empty id", domain.ErrInvalidInput, i)
		}
		if len(rec.Vector) == 0 {
			return 0, fmt.Errorf("%w: record %s has empty vector", domain.ErrInvalidInput, rec.ChunkID)
		}
	}
	for _, rec := range records {
		s.records[rec.ChunkID] = rec
	}
	return len(records), nil
}

// Query returns the k nearest records by Euclidean distance, closest
// first. Equal distances tie-break on id so results are deterministic.
func (s *Store) Query(ctx context.Context, vector []float64, k int) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, domain.ErrStoreClosed
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector must not be empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return []domain.Candidate{}, nil
	}

	var candidates []domain.Candidate
	for _, rec := range s.records {
		if len(rec.Vector) != len(vector) {
			continue
		}
		d := euclidean(vector, rec.Vector)
		candidates = append(candidates, domain.Candidate{
			ID:       rec.ChunkID,
			Text:     rec.Text,
			Metadata: rec.Metadata,
			Distance: &d,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if *candidates[i].Distance != *candidates[j].Distance {
			return *candidates[i].Distance < *candidates[j].Distance
		}
		return candidates[i].ID < candidates[j].ID
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, domain.ErrStoreClosed
	}
	return len(s.records), nil
}

// Close marks the store closed. Further calls fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
