// Package sqlite provides a persistent vector store backed by a local
// SQLite database. Vectors are stored as little-endian float64 blobs
// and compared with brute-force Euclidean distance at query time,
// which is plenty for collection sizes in the tens of thousands.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/loankit/docpipe/internal/core/domain"
	"github.com/loankit/docpipe/internal/core/ports/driven"
)

var _ driven.VectorStore = (*Store)(nil)

// DBFilename is the database file created under the store directory.
const DBFilename = "embeddings.db"

// Store is a SQLite-backed vector store scoped to one collection.
// Records are keyed by (collection, id), so re-upserting an id
// replaces the previous record instead of growing the table.
type Store struct {
	db         *sql.DB
	collection string
	closed     bool
}

// Open creates or opens the store under dataDir for one collection.
func Open(dataDir, collection string) (*Store, error) {
	if collection == "" {
		return nil, fmt.Errorf("%w: collection must not be empty", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DBFilename)

	// WAL mode for concurrent reads during ingest.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS embeddings (
			collection TEXT NOT NULL,
			id         TEXT NOT NULL,
			vector     BLOB NOT NULL,
			text       TEXT NOT NULL,
			metadata   TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating embeddings table: %w", err)
	}

	return &Store{db: db, collection: collection}, nil
}

// Upsert inserts or replaces records by id and returns the number
// written. An empty batch is a no-op. Records with an empty id or
// vector are rejected before anything is written.
func (s *Store) Upsert(ctx context.Context, records []domain.EmbeddingRecord) (int, error) {
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO embeddings (collection, id, vector, text, metadata)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			vector = excluded.vector,
			text = excluded.text,
			metadata = excluded.metadata
	`)
	if err != nil {
		return 0, fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		metadataJSON, err := json.Marshal(normaliseMetadata(rec.Metadata))
		if err != nil {
			return 0, fmt.Errorf("marshalling metadata for %s: %w", rec.ChunkID, err)
		}
		blob := float64SliceToBytes(rec.Vector)
		if _, err := stmt.ExecContext(ctx, s.collection, rec.ChunkID, blob, rec.Text, string(metadataJSON)); err != nil {
			return 0, fmt.Errorf("upserting %s: %w", rec.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing upsert: %w", err)
	}
	return len(records), nil
}

// Query returns the k nearest records to vector by Euclidean distance,
// closest first.
func (s *Store) Query(ctx context.Context, vector []float64, k int) ([]domain.Candidate, error) {
	if s.closed {
		return nil, domain.ErrStoreClosed
	}
	if len(vector) == 0 {
		return nil, fmt.Errorf("%w: query vector must not be empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return []domain.Candidate{}, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, vector, text, metadata FROM embeddings WHERE collection = ?
	`, s.collection)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var (
			id           string
			blob         []byte
			text         string
			metadataJSON string
		)
		if err := rows.Scan(&id, &blob, &text, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning embedding row: %w", err)
		}

		stored := bytesToFloat64Slice(blob)
		if len(stored) != len(vector) {
			continue // Different embedder dimensions; incomparable.
		}

		var metadata map[string]any
		if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
			return nil, fmt.Errorf("decoding metadata for %s: %w", id, err)
		}

		d := euclidean(vector, stored)
		candidates = append(candidates, domain.Candidate{
			ID:       id,
			Text:     text,
			Metadata: metadata,
			Distance: &d,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return *candidates[i].Distance < *candidates[j].Distance
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s.closed {
		return 0, domain.ErrStoreClosed
	}
	var n int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings WHERE collection = ?`, s.collection)
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting embeddings: %w", err)
	}
	return n, nil
}

// Close closes the database connection. Further calls fail with
// ErrStoreClosed.
func (s *Store) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// euclidean computes the L2 distance between equal-length vectors.
func euclidean(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// float64SliceToBytes converts a []float64 to a little-endian blob.
func float64SliceToBytes(floats []float64) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*8)
	for i, f := range floats {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

// bytesToFloat64Slice converts a blob back to []float64.
func bytesToFloat64Slice(data []byte) []float64 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float64, len(data)/8)
	for i := range floats {
		floats[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return floats
}

// normaliseMetadata coerces metadata values into JSON-stable
// primitives. Strings, bools, numbers, nil and lists pass through;
// anything else is stringified so the stored form round-trips
// predictably.
func normaliseMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(metadata))
	for k, v := range metadata {
		switch v.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64, json.Number, nil,
			[]any, []string, []int, []float64:
			out[k] = v
		default:
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}
