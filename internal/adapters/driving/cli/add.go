package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
)

var addNoWait bool

var addCmd = &cobra.Command{
	Use:   "add [file...]",
	Short: "Ingest documents into the search index",
	Long: `Parses the given files, splits them into overlapping segments, embeds
each segment and adds the vectors to the search index. Supported
formats: pdf, docx, txt.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().BoolVar(&addNoWait, "no-wait", false, "queue ingestion without waiting for it to finish")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	if documentService == nil || ingestor == nil || parserRegistry == nil {
		return errors.New("ingestion pipeline not configured")
	}

	ctx := context.Background()
	var accepted []string
	var failed int

	for _, path := range args {
		docID, err := acceptFile(ctx, path)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", path, err)
			failed++
			continue
		}
		accepted = append(accepted, docID)
		cmd.Printf("Queued %s\n", path)
	}

	if addNoWait {
		return exitStatus(failed)
	}

	ingestor.Wait()

	for _, docID := range accepted {
		doc, err := documentService.Get(ctx, docID)
		if err != nil {
			cmd.PrintErrf("%s: %v\n", docID, err)
			failed++
			continue
		}
		switch doc.Status {
		case domain.StatusCompleted:
			cmd.Printf("Indexed %s (%d segments)\n", doc.Filename, doc.SegmentCount)
		case domain.StatusFailed:
			cmd.PrintErrf("%s: %s\n", doc.Filename, doc.ErrorMessage)
			failed++
		default:
			cmd.Printf("%s is still %s\n", doc.Filename, doc.Status)
		}
	}

	return exitStatus(failed)
}

// acceptFile parses one file and queues it for ingestion.
func acceptFile(ctx context.Context, path string) (string, error) {
	format, err := domain.FormatFromPath(path)
	if err != nil {
		return "", err
	}

	parser, err := parserRegistry.Get(format)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	text, err := parser.Extract(ctx, data)
	if err != nil {
		return "", err
	}

	doc, err := documentService.Accept(ctx, filepath.Base(path), format)
	if err != nil {
		return "", err
	}

	if err := ingestor.Enqueue(doc.ID, text); err != nil {
		return "", err
	}
	return doc.ID, nil
}

func exitStatus(failed int) error {
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}
