// Package config loads docpipe configuration from a TOML file with
// documented defaults for every value. The pipeline core consumes this
// configuration but does not own it; any caller may build a Config by
// hand instead.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultChunkSize     = 800
	DefaultChunkOverlap  = 120
	DefaultMinChunkChars = 200

	DefaultStoreBackend = "sqlite"
	DefaultStorePath    = "data/embeddings"
	DefaultCollection   = "loan_documents"

	DefaultTopK     = 5
	DefaultScoreKey = "score"

	DefaultEmbeddingProvider = "hash"
	DefaultAPIKeyEnv         = "OPENAI_API_KEY"

	DefaultRawDir    = "data/raw"
	DefaultOutputDir = "data/processed"
)

// Chunk configures the chunker.
type Chunk struct {
	Size     int `toml:"size"`
	Overlap  int `toml:"overlap"`
	MinChars int `toml:"min_chars"`
}

// VectorStore selects and locates the vector store backend.
type VectorStore struct {
	// Backend is "sqlite" or "memory".
	Backend    string `toml:"backend"`
	Path       string `toml:"path"`
	Collection string `toml:"collection"`
}

// Reranker configures result ranking.
type Reranker struct {
	TopK     int    `toml:"top_k"`
	ScoreKey string `toml:"score_key"`
}

// Embedding selects the embedding provider.
type Embedding struct {
	// Provider is "hash" (deterministic placeholder) or "openai".
	Provider string `toml:"provider"`

	// Model names the remote embedding model (openai provider only).
	Model string `toml:"model"`

	// APIKeyEnv is the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`

	// RequestsPerSecond and Burst bound the request rate to the remote
	// provider. Zero values use the adapter's defaults.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// Ingest holds default directories for ingestion runs.
type Ingest struct {
	RawDir    string `toml:"raw_dir"`
	OutputDir string `toml:"output_dir"`
}

// Config is the root configuration.
type Config struct {
	Chunk       Chunk       `toml:"chunk"`
	VectorStore VectorStore `toml:"vectorstore"`
	Reranker    Reranker    `toml:"reranker"`
	Embedding   Embedding   `toml:"embedding"`
	Ingest      Ingest      `toml:"ingest"`
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		Chunk: Chunk{
			Size:     DefaultChunkSize,
			Overlap:  DefaultChunkOverlap,
			MinChars: DefaultMinChunkChars,
		},
		VectorStore: VectorStore{
			Backend:    DefaultStoreBackend,
			Path:       DefaultStorePath,
			Collection: DefaultCollection,
		},
		Reranker: Reranker{
			TopK:     DefaultTopK,
			ScoreKey: DefaultScoreKey,
		},
		Embedding: Embedding{
			Provider:  DefaultEmbeddingProvider,
			APIKeyEnv: DefaultAPIKeyEnv,
		},
		Ingest: Ingest{
			RawDir:    DefaultRawDir,
			OutputDir: DefaultOutputDir,
		},
	}
}

// Load reads configuration from path. A missing file yields defaults;
// a present but malformed file is an error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	if c.Chunk.Size <= 0 {
		c.Chunk.Size = DefaultChunkSize
	}
	if c.Chunk.Overlap < 0 {
		c.Chunk.Overlap = DefaultChunkOverlap
	}
	if c.Chunk.MinChars <= 0 {
		c.Chunk.MinChars = DefaultMinChunkChars
	}
	if c.VectorStore.Backend == "" {
		c.VectorStore.Backend = DefaultStoreBackend
	}
	if c.VectorStore.Path == "" {
		c.VectorStore.Path = DefaultStorePath
	}
	if c.VectorStore.Collection == "" {
		c.VectorStore.Collection = DefaultCollection
	}
	if c.Reranker.TopK <= 0 {
		c.Reranker.TopK = DefaultTopK
	}
	if c.Reranker.ScoreKey == "" {
		c.Reranker.ScoreKey = DefaultScoreKey
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = DefaultEmbeddingProvider
	}
	if c.Embedding.APIKeyEnv == "" {
		c.Embedding.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.Ingest.RawDir == "" {
		c.Ingest.RawDir = DefaultRawDir
	}
	if c.Ingest.OutputDir == "" {
		c.Ingest.OutputDir = DefaultOutputDir
	}
}
