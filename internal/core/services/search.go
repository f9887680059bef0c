package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch-cli/internal/logger"
)

// Ensure SearchService implements the interface.
var _ driving.Searcher = (*SearchService)(nil)

// Search defaults.
const (
	DefaultMaxResults = 10
	// maxWidenRounds bounds how often the candidate pool doubles when
	// the similarity threshold filters out too many hits.
	maxWidenRounds = 3
)

// SearchService answers queries by scanning the vector index and joining
// hits back to segment and document metadata.
type SearchService struct {
	store    driven.MetadataStore
	index    driven.VectorIndex
	embedder driven.EmbeddingService
}

// NewSearchService creates a new search service.
func NewSearchService(
	store driven.MetadataStore,
	index driven.VectorIndex,
	embedder driven.EmbeddingService,
) *SearchService {
	return &SearchService{
		store:    store,
		index:    index,
		embedder: embedder,
	}
}

// Search embeds the query and returns ranked results above the
// similarity threshold.
func (s *SearchService) Search(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, error) {
	logger.Section("Search")
	logger.Debug("Query: %q", query)

	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query must not be empty", domain.ErrInvalidInput)
	}

	limit := opts.MaxResults
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	if opts.MinSimilarity < 0 || opts.MinSimilarity > 1 {
		return nil, fmt.Errorf("%w: min similarity %.2f out of range [0, 1]", domain.ErrInvalidInput, opts.MinSimilarity)
	}

	queryVector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.candidates(queryVector, limit, opts.MinSimilarity)
	if err != nil {
		return nil, err
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	if len(hits) == 0 {
		logger.Debug("No hits above threshold %.2f", opts.MinSimilarity)
		return []domain.SearchResult{}, nil
	}

	return s.hydrate(ctx, hits)
}

// candidates scans the index for hits above the threshold. The pool
// starts at the requested size and doubles while filtering leaves fewer
// than limit hits, for a bounded number of rounds.
func (s *SearchService) candidates(queryVector []float32, limit int, minSimilarity float64) ([]driven.VectorHit, error) {
	k := limit
	for round := 0; ; round++ {
		hits, err := s.index.Search(queryVector, k)
		if err != nil {
			return nil, fmt.Errorf("search index: %w", err)
		}

		kept := hits[:0:len(hits)]
		for _, hit := range hits {
			if hit.Score >= minSimilarity {
				kept = append(kept, hit)
			}
		}
		logger.Debug("Round %d: k=%d, %d hits, %d above threshold", round, k, len(hits), len(kept))

		// Stop when satisfied, when the index is exhausted, or when
		// the widening budget runs out.
		if len(kept) >= limit || len(hits) < k || round >= maxWidenRounds {
			return kept, nil
		}
		k *= 2
	}
}

// hydrate joins vector hits to their segments and documents.
func (s *SearchService) hydrate(ctx context.Context, hits []driven.VectorHit) ([]domain.SearchResult, error) {
	slots := make([]int64, len(hits))
	for i, hit := range hits {
		slots[i] = hit.Slot
	}

	segments, err := s.store.GetSegmentsBySlots(ctx, slots)
	if err != nil {
		return nil, fmt.Errorf("resolve segments: %w", err)
	}

	// Hits arrive score-descending from the index; the join preserves
	// that order.
	results := make([]domain.SearchResult, 0, len(hits))
	docs := make(map[string]*domain.Document)
	for _, hit := range hits {
		segment, ok := segments[hit.Slot]
		if !ok {
			return nil, fmt.Errorf("%w: hit on slot %d has no segment row", domain.ErrIndexCorrupt, hit.Slot)
		}

		doc, ok := docs[segment.DocumentID]
		if !ok {
			doc, err = s.store.GetDocument(ctx, segment.DocumentID)
			if err != nil {
				return nil, fmt.Errorf("resolve document %s: %w", segment.DocumentID, err)
			}
			docs[segment.DocumentID] = doc
		}

		results = append(results, domain.SearchResult{
			Segment:  segment,
			Document: *doc,
			Score:    hit.Score,
		})
	}

	logger.Info("Returning %d results", len(results))
	return results, nil
}
