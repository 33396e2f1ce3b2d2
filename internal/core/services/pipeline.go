// Package services implements the core pipeline orchestration behind
// the driving ports.
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/loankit/docpipe/internal/chunker"
	"github.com/loankit/docpipe/internal/core/domain"
	"github.com/loankit/docpipe/internal/core/ports/driven"
	"github.com/loankit/docpipe/internal/core/ports/driving"
	"github.com/loankit/docpipe/internal/loader"
	"github.com/loankit/docpipe/internal/logger"
	"github.com/loankit/docpipe/internal/reranker"
)

// DefaultTopK is the result cap applied when no limit is configured.
const DefaultTopK = 5

// Ensure Pipeline implements the interface.
var _ driving.PipelineService = (*Pipeline)(nil)

// Pipeline wires the loader, chunker, embedder, vector store and
// reranker into the ingest/search/rerank operations. A store handle is
// opened per call and always released before returning.
type Pipeline struct {
	loader    *loader.Loader
	chunker   *chunker.Chunker
	embedder  driven.Embedder
	openStore driven.VectorStoreOpener
	reranker  driven.Reranker
	topK      int
}

// NewPipeline creates a pipeline service.
func NewPipeline(
	ld *loader.Loader,
	ck *chunker.Chunker,
	embedder driven.Embedder,
	openStore driven.VectorStoreOpener,
	rr driven.Reranker,
	topK int,
) *Pipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Pipeline{
		loader:    ld,
		chunker:   ck,
		embedder:  embedder,
		openStore: openStore,
		reranker:  rr,
		topK:      topK,
	}
}

// Ingest loads every supported file under RawDir, chunks and embeds
// the text, and upserts the vectors. A missing raw directory fails
// before any work; an empty one succeeds with zero counts.
func (p *Pipeline) Ingest(ctx context.Context, opts driving.IngestOptions) (*driving.IngestResult, error) {
	runID := uuid.NewString()
	logger.Section(fmt.Sprintf("ingest run %s", runID))

	documents, err := p.loader.Load(ctx, opts.RawDir)
	if err != nil {
		return nil, fmt.Errorf("loading documents: %w", err)
	}

	result := &driving.IngestResult{
		RunID:     runID,
		Documents: documents,
		Chunks:    []domain.Chunk{},
		Mock:      p.embedder.Mock(),
	}
	if len(documents) == 0 {
		logger.Info("nothing to ingest under %s", opts.RawDir)
		return result, nil
	}

	result.Chunks = p.chunker.ChunkAll(documents)
	logger.Info("chunked %d documents into %d chunks", len(documents), len(result.Chunks))

	if opts.OutputDir != "" {
		if err := writeArtifacts(opts, documents, result.Chunks); err != nil {
			return nil, fmt.Errorf("writing artifacts: %w", err)
		}
	}

	if opts.SkipVectorStore || len(result.Chunks) == 0 {
		return result, nil
	}

	records, err := p.embedChunks(ctx, result.Chunks)
	if err != nil {
		return nil, fmt.Errorf("embedding chunks: %w", err)
	}

	store, err := p.openStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}
	defer store.Close()

	upserted, err := store.Upsert(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("upserting embeddings: %w", err)
	}
	result.Upserted = upserted

	logger.Info("upserted %d embeddings (model=%s)", upserted, p.embedder.ModelName())
	return result, nil
}

// Search embeds the query and returns reranked nearest neighbours. A
// blank query or a store failure yields an empty result, not an error;
// only embedding failures are surfaced. limit sizes the store query;
// the returned list is always capped at the configured top-k.
func (p *Pipeline) Search(ctx context.Context, query string, limit int) (*driving.SearchResult, error) {
	result := &driving.SearchResult{
		Query:      query,
		Candidates: []domain.Candidate{},
		Mock:       p.embedder.Mock(),
	}

	if strings.TrimSpace(query) == "" {
		logger.Warn("blank query, returning no results")
		return result, nil
	}

	k := limit
	if k <= 0 {
		k = p.topK
	}

	vector, err := p.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	store, err := p.openStore(ctx)
	if err != nil {
		logger.Warn("vector store unavailable: %v", err)
		return result, nil
	}
	defer store.Close()

	candidates, err := store.Query(ctx, vector, k)
	if err != nil {
		logger.Warn("vector query failed: %v", err)
		return result, nil
	}

	for i := range candidates {
		candidates[i].Score = reranker.ScoreFromDistance(candidates[i].Distance)
	}

	result.Candidates = p.rerankOrFallback(candidates, p.topK)
	return result, nil
}

// Rerank orders candidates by score, truncated to the configured
// top-k. A failing reranker degrades to the original order.
func (p *Pipeline) Rerank(candidates []domain.Candidate) []domain.Candidate {
	return p.rerankOrFallback(candidates, p.topK)
}

func (p *Pipeline) rerankOrFallback(candidates []domain.Candidate, k int) []domain.Candidate {
	ordered := candidates
	if p.reranker != nil {
		reranked, err := p.reranker.Rerank(candidates)
		if err != nil {
			logger.Warn("rerank failed, keeping original order: %v", err)
		} else {
			ordered = reranked
		}
	}
	if len(ordered) > k {
		ordered = ordered[:k]
	}
	return ordered
}

// embedChunks batch-embeds chunk texts and pairs each vector with its
// chunk, one-to-one.
func (p *Pipeline) embedChunks(ctx context.Context, chunks []domain.Chunk) ([]domain.EmbeddingRecord, error) {
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	vectors, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("expected %d vectors, got %d", len(chunks), len(vectors))
	}

	records := make([]domain.EmbeddingRecord, len(chunks))
	for i, chunk := range chunks {
		records[i] = domain.EmbeddingRecord{
			ChunkID:  chunk.ChunkID,
			Vector:   vectors[i],
			Text:     chunk.Text,
			Metadata: chunk.Metadata,
		}
	}
	return records, nil
}
