package driving

import (
	"context"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
)

// Searcher answers natural-language queries with ranked segments.
type Searcher interface {
	// Search embeds the query, scans the vector index and returns
	// results joined with segment and document metadata, ordered by
	// descending similarity. An empty index or no hits above the
	// threshold yields an empty slice, not an error.
	Search(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, error)
}
