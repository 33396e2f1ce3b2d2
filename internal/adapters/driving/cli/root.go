// Package cli wires the pipeline service into cobra commands.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loankit/docpipe/internal/adapters/driven/embedding/hash"
	"github.com/loankit/docpipe/internal/adapters/driven/embedding/openai"
	"github.com/loankit/docpipe/internal/adapters/driven/vectorstore/memory"
	"github.com/loankit/docpipe/internal/adapters/driven/vectorstore/sqlite"
	"github.com/loankit/docpipe/internal/chunker"
	"github.com/loankit/docpipe/internal/config"
	"github.com/loankit/docpipe/internal/core/ports/driven"
	"github.com/loankit/docpipe/internal/core/ports/driving"
	"github.com/loankit/docpipe/internal/core/services"
	"github.com/loankit/docpipe/internal/loader"
	"github.com/loankit/docpipe/internal/logger"
	"github.com/loankit/docpipe/internal/reranker"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	cfgPath string
	verbose bool
)

// cfg and pipelineService are populated by the persistent pre-run.
// Tests inject their own service here instead of building one.
var (
	cfg             *config.Config
	pipelineService driving.PipelineService
)

// sharedMemoryStore backs the "memory" vector store backend for the
// lifetime of the process.
var sharedMemoryStore *memory.Store

var rootCmd = &cobra.Command{
	Use:   "docpipe",
	Short: "Document ingestion and retrieval pipeline",
	Long: `docpipe ingests raw documents (txt, json, pdf) into overlapping
text chunks, embeds them, and answers similarity queries over the
resulting vectors.`,
	SilenceUsage:      true,
	PersistentPreRunE: initPipeline,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "docpipe.toml", "path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// initPipeline loads configuration and assembles the pipeline service.
// A service injected before execution (by tests) is left untouched.
func initPipeline(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)

	c, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	cfg = c

	if pipelineService != nil {
		return nil
	}

	embedder, err := buildEmbedder(c)
	if err != nil {
		return err
	}

	opener, err := buildStoreOpener(c)
	if err != nil {
		return err
	}

	pipelineService = services.NewPipeline(
		loader.NewDefault(),
		chunker.New(
			chunker.WithChunkSize(c.Chunk.Size),
			chunker.WithOverlap(c.Chunk.Overlap),
			chunker.WithMinChunkChars(c.Chunk.MinChars),
		),
		embedder,
		opener,
		reranker.New(reranker.WithScoreKey(c.Reranker.ScoreKey)),
		c.Reranker.TopK,
	)
	return nil
}

func buildEmbedder(c *config.Config) (driven.Embedder, error) {
	switch c.Embedding.Provider {
	case "hash":
		return hash.New(), nil
	case "openai":
		apiKey := os.Getenv(c.Embedding.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("embedding provider %q needs %s set", c.Embedding.Provider, c.Embedding.APIKeyEnv)
		}
		return openai.New(openai.Config{
			APIKey:            apiKey,
			Model:             c.Embedding.Model,
			RequestsPerSecond: c.Embedding.RequestsPerSecond,
			Burst:             c.Embedding.Burst,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}
}

func buildStoreOpener(c *config.Config) (driven.VectorStoreOpener, error) {
	switch c.VectorStore.Backend {
	case "sqlite":
		return func(ctx context.Context) (driven.VectorStore, error) {
			return sqlite.Open(c.VectorStore.Path, c.VectorStore.Collection)
		}, nil
	case "memory":
		return func(ctx context.Context) (driven.VectorStore, error) {
			if sharedMemoryStore == nil {
				sharedMemoryStore = memory.New()
			}
			return noCloseStore{sharedMemoryStore}, nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", c.VectorStore.Backend)
	}
}

// noCloseStore keeps the shared in-memory store alive across pipeline
// calls, which close their store handle on every exit path.
type noCloseStore struct {
	*memory.Store
}

func (noCloseStore) Close() error { return nil }
