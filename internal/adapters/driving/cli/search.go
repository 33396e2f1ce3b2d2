package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/loankit/docpipe/internal/core/ports/driving"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search ingested documents",
	Long: `Embeds the query and returns the nearest chunks from the vector
store, reranked by similarity score.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (default from config)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if pipelineService == nil {
		return errors.New("pipeline service not configured")
	}

	result, err := pipelineService.Search(cmd.Context(), args[0], searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, result)
	}
	return outputSearchTable(cmd, result)
}

func outputSearchJSON(cmd *cobra.Command, result *driving.SearchResult) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, result *driving.SearchResult) error {
	if len(result.Candidates) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, c := range result.Candidates {
		title, _ := c.Metadata["doc_title"].(string)
		if title == "" {
			title = c.ID
		}

		cmd.Printf("  [%d] %s (%.4f)\n", i+1, title, c.ScoreNormalized)
		cmd.Printf("      %s\n", snippet(c.Text, 120))
		cmd.Println()
	}
	if result.Mock {
		cmd.Println("Note: results ranked by placeholder vectors, not semantic similarity.")
	}
	return nil
}

// snippet truncates text to max characters on a rune boundary.
func snippet(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "…"
}
