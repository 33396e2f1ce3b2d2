// Package driving provides interfaces for primary/inbound adapters.
// Any caller, whether the CLI in this repo or an external web layer,
// drives the pipeline through these interfaces and gets back plain
// structured data with no framework-specific types.
package driving

import (
	"context"

	"github.com/loankit/docpipe/internal/core/domain"
)

// IngestOptions controls a single ingestion run.
type IngestOptions struct {
	// RawDir is the directory holding source files. Required; a missing
	// directory fails the run before any work is done.
	RawDir string

	// OutputDir receives the chunk JSONL and document metadata JSON
	// artifacts. Empty disables artifact persistence.
	OutputDir string

	// ChunkFilename overrides the chunk artifact name (default chunks.jsonl).
	ChunkFilename string

	// DocumentFilename overrides the document metadata artifact name
	// (default documents.json).
	DocumentFilename string

	// SkipVectorStore skips embedding and upsert, producing artifacts only.
	SkipVectorStore bool
}

// IngestResult reports what one ingestion run produced.
type IngestResult struct {
	// RunID uniquely identifies this ingestion run in logs and artifacts.
	RunID string `json:"run_id"`

	Documents []domain.Document `json:"documents"`
	Chunks    []domain.Chunk    `json:"chunks"`

	// Upserted is the number of embedding records written to the store.
	Upserted int `json:"upserted"`

	// Mock reports that vectors came from the placeholder embedder.
	Mock bool `json:"mock"`
}

// SearchResult carries ranked candidates for a query.
type SearchResult struct {
	Query      string             `json:"query"`
	Candidates []domain.Candidate `json:"candidates"`

	// Mock reports that the query vector came from the placeholder embedder.
	Mock bool `json:"mock"`
}

// PipelineService exposes the three collaborator operations of the
// retrieval pipeline. Each call is a self-contained transaction.
type PipelineService interface {
	// Ingest loads, chunks, embeds and upserts everything under RawDir.
	// An empty directory yields zero counts, not an error.
	Ingest(ctx context.Context, opts IngestOptions) (*IngestResult, error)

	// Search embeds the query and returns reranked nearest-neighbour
	// candidates. Blank queries and backend failures degrade to an
	// empty result rather than an error.
	Search(ctx context.Context, query string, limit int) (*SearchResult, error)

	// Rerank orders candidates by score, truncated to the configured
	// top-k. Reranker failures degrade to the original order.
	Rerank(candidates []domain.Candidate) []domain.Candidate
}
