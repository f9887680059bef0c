// Package parsers wires format-specific parsers into a registry keyed
// by document format.
package parsers

import (
	"fmt"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch-cli/internal/parsers/docx"
	"github.com/custodia-labs/docsearch-cli/internal/parsers/pdf"
	"github.com/custodia-labs/docsearch-cli/internal/parsers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.ParserRegistry = (*Registry)(nil)

// Registry maps document formats to their parsers.
type Registry struct {
	parsers map[domain.Format]driven.Parser
}

// NewRegistry creates a registry with the given parsers. Registering two
// parsers for the same format keeps the last one.
func NewRegistry(parsers ...driven.Parser) *Registry {
	r := &Registry{parsers: make(map[domain.Format]driven.Parser, len(parsers))}
	for _, p := range parsers {
		r.parsers[p.Format()] = p
	}
	return r
}

// NewDefaultRegistry creates a registry with all built-in parsers.
func NewDefaultRegistry() *Registry {
	return NewRegistry(plaintext.New(), docx.New(), pdf.New())
}

// Get returns the parser for the format.
func (r *Registry) Get(format domain.Format) (driven.Parser, error) {
	p, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}
	return p, nil
}
