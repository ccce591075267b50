package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-indexsync/internal/core/ports/driven"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed items",
	Long: `Searches item titles, keywords and descriptions in the index.
Each term matches as a prefix. Results are ordered by relevance.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if inspector == nil {
		return notConfigured("search")
	}

	hits, err := inspector.Search(cmd.Context(), query, searchLimit)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}

	return outputSearchTable(cmd, hits)
}

// searchResult is the JSON shape of a hit.
type searchResult struct {
	ID          string   `json:"id"`
	Domain      string   `json:"domain"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Keywords    []string `json:"keywords,omitempty"`
	Score       float64  `json:"score"`
}

func outputSearchJSON(cmd *cobra.Command, hits []driven.SearchHit) error {
	results := make([]searchResult, len(hits))
	for i := range hits {
		item := hits[i].Item
		results[i] = searchResult{
			ID:          item.UniqueIdentifier,
			Domain:      item.DomainIdentifier,
			Title:       item.Title,
			Description: item.Description,
			Keywords:    item.Keywords,
			Score:       hits[i].Score,
		}
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []driven.SearchHit) error {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i := range hits {
		// Format: [N] Title (Score)
		item := hits[i].Item
		title := item.Title
		if title == "" {
			title = item.UniqueIdentifier
		}

		cmd.Printf("  [%d] %s (%.2f)\n", i+1, title, hits[i].Score)
		cmd.Printf("      ID: %s\n", item.UniqueIdentifier)
		if item.Description != "" {
			cmd.Printf("      %s\n", item.Description)
		}
		if len(item.Keywords) > 0 {
			cmd.Printf("      Keywords: %s\n", strings.Join(item.Keywords, ", "))
		}
		cmd.Println()
	}

	return nil
}
