package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show corpus and index statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	stats, err := documentService.Stats(context.Background())
	if err != nil {
		return fmt.Errorf("failed to collect stats: %w", err)
	}

	cmd.Println("Corpus:")
	cmd.Printf("  Documents:       %d\n", stats.TotalDocuments)
	cmd.Printf("    pending:       %d\n", stats.Pending)
	cmd.Printf("    processing:    %d\n", stats.Processing)
	cmd.Printf("    completed:     %d\n", stats.Completed)
	cmd.Printf("    failed:        %d\n", stats.Failed)
	cmd.Println()
	cmd.Println("Index:")
	cmd.Printf("  Segments:        %d\n", stats.TotalSegments)
	cmd.Printf("  Active vectors:  %d\n", stats.ActiveVectors)
	return nil
}
