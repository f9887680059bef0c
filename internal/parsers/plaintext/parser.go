// Package plaintext provides a parser for plain text documents.
package plaintext

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
)

// Ensure Parser implements the interface.
var _ driven.Parser = (*Parser)(nil)

// Parser handles plain text documents.
type Parser struct{}

// New creates a new plain text parser.
func New() *Parser {
	return &Parser{}
}

// Format returns the document format this parser handles.
func (p *Parser) Format() domain.Format {
	return domain.FormatTXT
}

// Extract returns the text content with line endings normalised to \n.
// Content that is not valid UTF-8 is rejected rather than passed through
// with replacement characters.
func (p *Parser) Extract(_ context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", domain.ErrCorruptFile
	}

	content := string(data)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return content, nil
}
