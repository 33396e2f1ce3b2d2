package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/loankit/docpipe/internal/reranker"
)

var rerankInput string

var rerankCmd = &cobra.Command{
	Use:   "rerank",
	Short: "Rerank externally scored candidates",
	Long: `Reads a JSON array of candidates (objects with at least a score
field) from stdin or --input, orders them by score and prints the
reranked list with normalised scores as JSON.`,
	RunE: runRerank,
}

func init() {
	rerankCmd.Flags().StringVarP(&rerankInput, "input", "i", "", "read candidates from file instead of stdin")
	rootCmd.AddCommand(rerankCmd)
}

func runRerank(cmd *cobra.Command, _ []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	var reader io.Reader = cmd.InOrStdin()
	if rerankInput != "" {
		f, err := os.Open(rerankInput)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		reader = f
	}

	dec := json.NewDecoder(reader)
	dec.UseNumber()
	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return fmt.Errorf("decoding candidates: %w", err)
	}

	rr := reranker.New(reranker.WithScoreKey(cfg.Reranker.ScoreKey))
	candidates, err := rr.FromMaps(items)
	if err != nil {
		return fmt.Errorf("reading candidates: %w", err)
	}

	ranked := pipelineService.Rerank(candidates)

	data, err := json.MarshalIndent(ranked, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
