package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
)

var (
	searchLimit         int
	searchMinSimilarity float64
	searchJSON          bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed documents",
	Long: `Embeds the query and returns the most similar document segments,
ranked by cosine similarity.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().Float64Var(&searchMinSimilarity, "min-similarity", 0, "drop results scoring below this threshold")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searcher == nil {
		return errors.New("search service not configured")
	}

	opts := domain.SearchOptions{
		MaxResults:    searchLimit,
		MinSimilarity: searchMinSimilarity,
	}
	// Config defaults apply when the flags are left untouched.
	if appConfig != nil {
		if !cmd.Flags().Changed("limit") {
			opts.MaxResults = appConfig.Search.MaxResults
		}
		if !cmd.Flags().Changed("min-similarity") {
			opts.MinSimilarity = appConfig.Search.MinSimilarity
		}
	}

	results, err := searcher.Search(context.Background(), args[0], opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchText(cmd, results)
}

// searchResultJSON is the stable JSON shape for scripting.
type searchResultJSON struct {
	Score         float64 `json:"score"`
	DocumentID    string  `json:"document_id"`
	Filename      string  `json:"filename"`
	SegmentID     string  `json:"segment_id"`
	SequenceIndex int     `json:"sequence_index"`
	Text          string  `json:"text"`
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{
			Score:         r.Score,
			DocumentID:    r.Document.ID,
			Filename:      r.Document.Filename,
			SegmentID:     r.Segment.ID,
			SequenceIndex: r.Segment.SequenceIndex,
			Text:          r.Segment.Text,
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchText(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, r := range results {
		cmd.Printf("  [%d] %s #%d (%.3f)\n", i+1, r.Document.Filename, r.Segment.SequenceIndex, r.Score)
		cmd.Printf("      %s\n", snippet(r.Segment.Text, 200))
		cmd.Println()
	}
	return nil
}

// snippet collapses whitespace and truncates for single-line display.
func snippet(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= max {
		return text
	}
	cut := strings.LastIndex(text[:max], " ")
	if cut <= 0 {
		cut = max
	}
	return text[:cut] + "..."
}
