package services

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loankit/docpipe/internal/adapters/driven/embedding/hash"
	"github.com/loankit/docpipe/internal/adapters/driven/vectorstore/memory"
	"github.com/loankit/docpipe/internal/chunker"
	"github.com/loankit/docpipe/internal/core/domain"
	"github.com/loankit/docpipe/internal/core/ports/driven"
	"github.com/loankit/docpipe/internal/core/ports/driving"
	"github.com/loankit/docpipe/internal/loader"
	"github.com/loankit/docpipe/internal/reranker"
)

// sharedOpener hands out the same store for every call but ignores
// Close, so one in-memory store survives ingest and search.
type sharedStore struct {
	*memory.Store
}

func (s *sharedStore) Close() error { return nil }

func newTestPipeline(store *memory.Store) *Pipeline {
	opener := func(ctx context.Context) (driven.VectorStore, error) {
		return &sharedStore{Store: store}, nil
	}
	return NewPipeline(
		loader.NewDefault(),
		chunker.New(chunker.WithChunkSize(120), chunker.WithOverlap(20), chunker.WithMinChunkChars(10)),
		hash.New(),
		opener,
		reranker.New(),
		5,
	)
}

func writeRaw(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestIngestThenSearch(t *testing.T) {
	rawDir := t.TempDir()
	outDir := t.TempDir()
	writeRaw(t, rawDir, "loans.txt", "Loan limits depend on income. Credit score also matters. Rates vary by lender and term length.")
	writeRaw(t, rawDir, "rates.txt", "Fixed rates stay constant for the whole term. Variable rates track the reference index over time.")

	store := memory.New()
	p := newTestPipeline(store)
	ctx := context.Background()

	result, err := p.Ingest(ctx, driving.IngestOptions{RawDir: rawDir, OutputDir: outDir})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.Documents, 2)
	assert.NotEmpty(t, result.Chunks)
	assert.Equal(t, len(result.Chunks), result.Upserted)
	assert.True(t, result.Mock)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Upserted, count)

	// An exact chunk text embeds to the identical vector, so searching
	// for it must return that chunk first with distance zero.
	target := result.Chunks[0].Text
	search, err := p.Search(ctx, target, 3)
	require.NoError(t, err)

	require.NotEmpty(t, search.Candidates)
	best := search.Candidates[0]
	assert.Equal(t, result.Chunks[0].ChunkID, best.ID)
	require.NotNil(t, best.Distance)
	assert.Equal(t, 0.0, *best.Distance)
	assert.Equal(t, 1.0, best.Score)
	assert.Equal(t, 1.0, best.ScoreNormalized)
	assert.True(t, search.Mock)
}

func TestIngest_MissingRawDir(t *testing.T) {
	p := newTestPipeline(memory.New())

	_, err := p.Ingest(context.Background(), driving.IngestOptions{
		RawDir: filepath.Join(t.TempDir(), "absent"),
	})
	assert.ErrorIs(t, err, domain.ErrRawDirNotFound)
}

func TestIngest_EmptyRawDir(t *testing.T) {
	p := newTestPipeline(memory.New())

	result, err := p.Ingest(context.Background(), driving.IngestOptions{RawDir: t.TempDir()})
	require.NoError(t, err)

	assert.Empty(t, result.Documents)
	assert.Empty(t, result.Chunks)
	assert.Equal(t, 0, result.Upserted)
}

func TestIngest_Idempotent(t *testing.T) {
	rawDir := t.TempDir()
	writeRaw(t, rawDir, "doc.txt", "The same document ingested twice must not grow the store.")

	store := memory.New()
	p := newTestPipeline(store)
	ctx := context.Background()

	first, err := p.Ingest(ctx, driving.IngestOptions{RawDir: rawDir})
	require.NoError(t, err)
	second, err := p.Ingest(ctx, driving.IngestOptions{RawDir: rawDir})
	require.NoError(t, err)

	assert.Equal(t, first.Upserted, second.Upserted)
	assert.NotEqual(t, first.RunID, second.RunID)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.Upserted, count)
}

func TestIngest_SkipVectorStore(t *testing.T) {
	rawDir := t.TempDir()
	outDir := t.TempDir()
	writeRaw(t, rawDir, "doc.txt", "Artifacts only, nothing reaches the vector store.")

	store := memory.New()
	p := newTestPipeline(store)

	result, err := p.Ingest(context.Background(), driving.IngestOptions{
		RawDir:          rawDir,
		OutputDir:       outDir,
		SkipVectorStore: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Upserted)
	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Artifacts are still written.
	assert.FileExists(t, filepath.Join(outDir, DefaultChunkFilename))
	assert.FileExists(t, filepath.Join(outDir, DefaultDocumentFilename))
}

func TestIngest_ArtifactContents(t *testing.T) {
	rawDir := t.TempDir()
	outDir := t.TempDir()
	writeRaw(t, rawDir, "loan_guide.txt", "Underwriting reviews income, debts and credit history before approval.")

	p := newTestPipeline(memory.New())
	result, err := p.Ingest(context.Background(), driving.IngestOptions{RawDir: rawDir, OutputDir: outDir})
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(outDir, DefaultChunkFilename))
	require.NoError(t, err)
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		assert.NotEmpty(t, line["id"])
		assert.NotEmpty(t, line["text"])
		assert.NotNil(t, line["metadata"])
		lines++
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, len(result.Chunks), lines)

	data, err := os.ReadFile(filepath.Join(outDir, DefaultDocumentFilename))
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(data, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, result.Documents[0].DocID, docs[0]["doc_id"])
	assert.Equal(t, "loan guide", docs[0]["doc_title"])
}

func TestSearch_BlankQuery(t *testing.T) {
	p := newTestPipeline(memory.New())

	result, err := p.Search(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
}

func TestSearch_StoreUnavailable(t *testing.T) {
	opener := func(ctx context.Context) (driven.VectorStore, error) {
		return nil, errors.New("backend down")
	}
	p := NewPipeline(loader.NewDefault(), chunker.New(), hash.New(), opener, reranker.New(), 5)

	result, err := p.Search(context.Background(), "loan limits", 5)
	require.NoError(t, err)
	assert.Empty(t, result.Candidates)
}

func TestSearch_LimitRespected(t *testing.T) {
	rawDir := t.TempDir()
	writeRaw(t, rawDir, "a.txt", "First topic covers application requirements in detail for every borrower category.")
	writeRaw(t, rawDir, "b.txt", "Second topic covers repayment schedules and the handling of missed installments.")
	writeRaw(t, rawDir, "c.txt", "Third topic covers refinancing options and the costs associated with early exit.")

	store := memory.New()
	p := newTestPipeline(store)
	ctx := context.Background()

	_, err := p.Ingest(ctx, driving.IngestOptions{RawDir: rawDir})
	require.NoError(t, err)

	result, err := p.Search(ctx, "repayment schedules", 2)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Candidates), 2)
}

func TestSearch_CappedAtConfiguredTopK(t *testing.T) {
	rawDir := t.TempDir()
	writeRaw(t, rawDir, "a.txt", "First topic covers application requirements in detail for every borrower category.")
	writeRaw(t, rawDir, "b.txt", "Second topic covers repayment schedules and the handling of missed installments.")
	writeRaw(t, rawDir, "c.txt", "Third topic covers refinancing options and the costs associated with early exit.")
	writeRaw(t, rawDir, "d.txt", "Fourth topic covers insurance requirements and when lenders may demand coverage.")

	store := memory.New()
	opener := func(ctx context.Context) (driven.VectorStore, error) {
		return &sharedStore{Store: store}, nil
	}
	p := NewPipeline(
		loader.NewDefault(),
		chunker.New(chunker.WithChunkSize(120), chunker.WithOverlap(20), chunker.WithMinChunkChars(10)),
		hash.New(),
		opener,
		reranker.New(),
		2,
	)
	ctx := context.Background()

	result, err := p.Ingest(ctx, driving.IngestOptions{RawDir: rawDir})
	require.NoError(t, err)
	require.GreaterOrEqual(t, result.Upserted, 4)

	// A limit above top-k widens the store query but never the result.
	search, err := p.Search(ctx, "repayment schedules", 5)
	require.NoError(t, err)
	assert.Len(t, search.Candidates, 2)
}

type failingReranker struct{}

func (failingReranker) Rerank([]domain.Candidate) ([]domain.Candidate, error) {
	return nil, errors.New("model unavailable")
}

func TestRerank_FallbackOnFailure(t *testing.T) {
	p := NewPipeline(loader.NewDefault(), chunker.New(), hash.New(), nil, failingReranker{}, 5)

	in := []domain.Candidate{
		{ID: "a", Score: 0.1},
		{ID: "b", Score: 0.9},
	}
	out := p.Rerank(in)

	// Original order preserved when the reranker fails.
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, "b", out[1].ID)
}

func TestRerank_OrdersAndTruncates(t *testing.T) {
	p := NewPipeline(loader.NewDefault(), chunker.New(), hash.New(), nil, reranker.New(), 2)

	out := p.Rerank([]domain.Candidate{
		{ID: "low", Score: 0.1},
		{ID: "high", Score: 0.9},
		{ID: "mid", Score: 0.5},
	})

	require.Len(t, out, 2)
	assert.Equal(t, "high", out[0].ID)
	assert.Equal(t, "mid", out[1].ID)
	assert.Equal(t, 1.0, out[0].ScoreNormalized)
}
