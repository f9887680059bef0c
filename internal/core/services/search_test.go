package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
)

// searchFixture populates a store and index through the indexer so the
// slot-to-segment bijection holds.
type searchFixture struct {
	store    *memory.MetadataStore
	index    *fakeIndex
	embedder *fakeEmbedder
	service  *SearchService
}

func newSearchFixture(t *testing.T) *searchFixture {
	t.Helper()
	store := memory.NewMetadataStore()
	index := newFakeIndex(3)
	embedder := newFakeEmbedder(3)
	return &searchFixture{
		store:    store,
		index:    index,
		embedder: embedder,
		service:  NewSearchService(store, index, embedder),
	}
}

// addSegment ingests one single-segment document whose vector is fixed.
func (f *searchFixture) addSegment(t *testing.T, filename, text string, vector []float32) *domain.Document {
	t.Helper()
	ctx := context.Background()

	doc, err := f.store.CreateDocument(ctx, filename, domain.FormatTXT)
	require.NoError(t, err)

	f.embedder.vecs[text] = vector
	indexer := NewIndexer(f.store, f.index)
	_, err = indexer.InsertSegments(ctx, doc.ID,
		[]domain.SegmentDraft{{Text: text, TokenCount: 1, CharEnd: len(text)}},
		[][]float32{vector})
	require.NoError(t, err)
	return doc
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newSearchFixture(t)

	_, err := f.service.Search(context.Background(), "   ", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_InvalidThreshold(t *testing.T) {
	f := newSearchFixture(t)

	_, err := f.service.Search(context.Background(), "query", domain.SearchOptions{MinSimilarity: 1.5})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearch_EmptyIndex(t *testing.T) {
	f := newSearchFixture(t)

	results, err := f.service.Search(context.Background(), "anything", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_RanksByScore(t *testing.T) {
	f := newSearchFixture(t)
	exact := f.addSegment(t, "exact.txt", "exact match", []float32{1, 0, 0})
	near := f.addSegment(t, "near.txt", "close match", []float32{0.6, 0.8, 0})
	f.addSegment(t, "far.txt", "unrelated", []float32{0, 0, 1})

	f.embedder.vecs["query"] = []float32{1, 0, 0}
	results, err := f.service.Search(context.Background(), "query", domain.SearchOptions{MaxResults: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "exact match", results[0].Segment.Text)
	assert.Equal(t, exact.ID, results[0].Document.ID)
	assert.InDelta(t, 1.0, results[0].Score, 1e-6)

	assert.Equal(t, near.ID, results[1].Document.ID)
	assert.InDelta(t, 0.6, results[1].Score, 1e-6)
}

func TestSearch_ThresholdFiltersAll(t *testing.T) {
	f := newSearchFixture(t)
	f.addSegment(t, "a.txt", "some text", []float32{0.5, 0.5, 0.7071})

	f.embedder.vecs["query"] = []float32{1, 0, 0}
	results, err := f.service.Search(context.Background(), "query", domain.SearchOptions{MinSimilarity: 0.9})
	require.NoError(t, err)
	assert.Empty(t, results, "no hit above threshold yields an empty result, not an error")
}

func TestSearch_WideningStopsWhenThresholdStarves(t *testing.T) {
	f := newSearchFixture(t)

	// Only one of four segments clears the threshold. The candidate
	// pool widens a few rounds looking for more, then settles for the
	// single qualifying hit.
	f.addSegment(t, "a.txt", "a", []float32{0, 1, 0})
	f.addSegment(t, "b.txt", "b", []float32{0.6, 0.8, 0})
	f.addSegment(t, "c.txt", "c", []float32{0.5, 0.866, 0})
	f.addSegment(t, "d.txt", "d", []float32{0.3, 0.954, 0})

	f.embedder.vecs["query"] = []float32{1, 0, 0}
	results, err := f.service.Search(context.Background(), "query",
		domain.SearchOptions{MaxResults: 3, MinSimilarity: 0.55})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].Segment.Text)
}

func TestSearch_DefaultLimit(t *testing.T) {
	f := newSearchFixture(t)
	f.addSegment(t, "a.txt", "text a", []float32{1, 0, 0})

	f.embedder.vecs["query"] = []float32{1, 0, 0}
	results, err := f.service.Search(context.Background(), "query", domain.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_EmbedderDown(t *testing.T) {
	f := newSearchFixture(t)
	f.embedder.embedded = 1
	f.embedder.failAfter = 1

	_, err := f.service.Search(context.Background(), "query", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestSearch_DanglingSlotIsCorruption(t *testing.T) {
	f := newSearchFixture(t)

	// Vector with no matching segment row breaks the bijection.
	_, err := f.index.Add([]float32{1, 0, 0})
	require.NoError(t, err)

	f.embedder.vecs["query"] = []float32{1, 0, 0}
	_, err = f.service.Search(context.Background(), "query", domain.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}
