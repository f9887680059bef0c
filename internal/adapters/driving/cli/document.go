package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
)

var showSegments bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all documents",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its index entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	showCmd.Flags().BoolVar(&showSegments, "segments", false, "also print the document's segments")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	docs, err := documentService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		cmd.Println("No documents yet. Use 'docsearch add' to ingest some.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s\n", docs[i].ID)
		cmd.Printf("    File:     %s\n", docs[i].Filename)
		cmd.Printf("    Status:   %s\n", describeStatus(&docs[i]))
		cmd.Printf("    Added:    %s\n", docs[i].CreatedAt.Format("2006-01-02 15:04:05"))
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	ctx := context.Background()
	doc, err := documentService.Get(ctx, args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  File:      %s\n", doc.Filename)
	cmd.Printf("  Format:    %s\n", doc.Format)
	cmd.Printf("  Status:    %s\n", describeStatus(doc))
	cmd.Printf("  Segments:  %d\n", doc.SegmentCount)
	cmd.Printf("  Added:     %s\n", doc.CreatedAt.Format("2006-01-02 15:04:05"))

	if !showSegments {
		return nil
	}

	segments, err := documentService.Segments(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("failed to get segments: %w", err)
	}

	cmd.Println("\n  Segments:")
	for _, seg := range segments {
		cmd.Printf("    #%d [%d tokens, chars %d-%d, slot %d]\n",
			seg.SequenceIndex, seg.TokenCount, seg.CharStart, seg.CharEnd, seg.VectorSlot)
		cmd.Printf("      %s\n", snippet(seg.Text, 120))
	}
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

// describeStatus renders the status with its failure reason, if any.
func describeStatus(doc *domain.Document) string {
	if doc.Status == domain.StatusFailed && doc.ErrorMessage != "" {
		return fmt.Sprintf("%s (%s)", doc.Status, doc.ErrorMessage)
	}
	return string(doc.Status)
}
