package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/loankit/docpipe/internal/core/ports/driving"
	"github.com/loankit/docpipe/internal/logger"
	"github.com/loankit/docpipe/internal/watcher"
)

var (
	ingestRawDir    string
	ingestOutputDir string
	ingestSkipStore bool
	ingestWatch     bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest raw documents into the vector store",
	Long: `Loads every supported file under the raw directory, chunks and
embeds the text, writes chunk/document artifacts, and upserts the
vectors. Re-running over unchanged files is idempotent.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestRawDir, "raw-dir", "", "directory with source files (default from config)")
	ingestCmd.Flags().StringVar(&ingestOutputDir, "output-dir", "", "directory for chunk/document artifacts (default from config)")
	ingestCmd.Flags().BoolVar(&ingestSkipStore, "skip-vectorstore", false, "write artifacts only, skip embedding and upsert")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "keep running and re-ingest when files change")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	opts := driving.IngestOptions{
		RawDir:          ingestRawDir,
		OutputDir:       ingestOutputDir,
		SkipVectorStore: ingestSkipStore,
	}
	if opts.RawDir == "" {
		opts.RawDir = cfg.Ingest.RawDir
	}
	if opts.OutputDir == "" {
		opts.OutputDir = cfg.Ingest.OutputDir
	}

	ctx := cmd.Context()
	if err := ingestOnce(ctx, cmd, opts); err != nil {
		return err
	}

	if !ingestWatch {
		return nil
	}

	w := watcher.New(opts.RawDir, func(ctx context.Context) error {
		return ingestOnce(ctx, cmd, opts)
	})
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func ingestOnce(ctx context.Context, cmd *cobra.Command, opts driving.IngestOptions) error {
	result, err := pipelineService.Ingest(ctx, opts)
	if err != nil {
		return err
	}

	cmd.Printf("Ingested %d documents (%d chunks, %d upserted)\n",
		len(result.Documents), len(result.Chunks), result.Upserted)
	if result.Mock {
		logger.Warn("vectors came from the placeholder embedder; similarity is not semantic")
	}
	return nil
}
