// Package openai provides an embedder backed by the OpenAI embeddings
// API. Requests are rate limited client-side so large ingest batches
// stay under the account's requests-per-second cap.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	goopenai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/loankit/docpipe/internal/core/ports/driven"
)

var _ driven.Embedder = (*Embedder)(nil)

// Default configuration values.
const (
	DefaultModel             = "text-embedding-3-small"
	DefaultRequestsPerSecond = 3
	DefaultBurst             = 1
	DefaultBatchSize         = 64
)

// Model dimensions for OpenAI embedding models.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the OpenAI embedder.
type Config struct {
	// APIKey is the OpenAI API key (required).
	APIKey string

	// BaseURL overrides the API base URL. Useful for Azure OpenAI or
	// compatible endpoints.
	BaseURL string

	// Model is the embedding model (default: text-embedding-3-small).
	Model string

	// RequestsPerSecond caps the client-side request rate.
	RequestsPerSecond float64

	// Burst is the rate limiter burst size.
	Burst int

	// BatchSize is the maximum number of texts per API request.
	BatchSize int
}

// Embedder generates embeddings via the OpenAI API.
type Embedder struct {
	client     *goopenai.Client
	limiter    *rate.Limiter
	model      string
	dimensions int
	batchSize  int
}

// New creates an OpenAI embedder.
func New(cfg Config) (*Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: 60 * time.Second}

	dimensions, ok := modelDimensions[cfg.Model]
	if !ok {
		dimensions = modelDimensions[DefaultModel]
	}

	return &Embedder{
		client:     goopenai.NewClientWithConfig(clientCfg),
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		model:      cfg.Model,
		dimensions: dimensions,
		batchSize:  cfg.BatchSize,
	}, nil
}

// Embed generates a vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("openai: no embedding returned")
	}
	return vectors[0], nil
}

// EmbedBatch generates vectors for multiple texts, splitting the input
// into API-sized batches and preserving input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, 0, len(texts))
	for offset := 0; offset < len(texts); offset += e.batchSize {
		end := offset + e.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := e.embedBatch(ctx, texts[offset:end])
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func (e *Embedder) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("openai: rate limit wait: %w", err)
	}

	resp, err := e.client.CreateEmbeddings(ctx, goopenai.EmbeddingRequestStrings{
		Input: texts,
		Model: goopenai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai: create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("openai: expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	// Order by response index; the API does not guarantee input order.
	vectors := make([][]float64, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || data.Index >= len(texts) {
			return nil, fmt.Errorf("openai: embedding index %d out of range", data.Index)
		}
		vector := make([]float64, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float64(v)
		}
		vectors[data.Index] = vector
	}
	return vectors, nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int { return e.dimensions }

// ModelName returns the name of the embedding model being used.
func (e *Embedder) ModelName() string { return e.model }

// Mock reports that these vectors carry real semantic meaning.
func (e *Embedder) Mock() bool { return false }
