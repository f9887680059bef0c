package driven

import (
	"context"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
)

// Parser extracts plain text from a document of one format.
// Implementations fail with domain.ErrCorruptFile rather than return
// partial garbage text.
type Parser interface {
	// Format returns the document format this parser handles.
	Format() domain.Format

	// Extract returns the plain text content of the file bytes.
	Extract(ctx context.Context, data []byte) (string, error)
}

// ParserRegistry selects a parser by format tag.
type ParserRegistry interface {
	// Get returns the parser for the format, or
	// domain.ErrUnsupportedFormat if none is registered.
	Get(format domain.Format) (Parser, error)
}
