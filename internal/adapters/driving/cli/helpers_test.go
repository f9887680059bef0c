package cli

import (
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docsearch-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docsearch-cli/internal/adapters/driven/vectorindex/flat"
	"github.com/custodia-labs/docsearch-cli/internal/chunker"
	"github.com/custodia-labs/docsearch-cli/internal/core/services"
	"github.com/custodia-labs/docsearch-cli/internal/parsers"
)

const testDims = 8

// stubEmbedder produces deterministic unit vectors without a model.
type stubEmbedder struct{}

func (stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, testDims)
	for i, r := range text {
		vec[i%testDims] += float32(r % 13)
	}
	// Cheap normalisation keeps scores in [-1, 1].
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		vec[0] = 1
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(float64(norm)))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}

func (e stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (stubEmbedder) Dimensions() int              { return testDims }
func (stubEmbedder) ModelName() string            { return "stub" }
func (stubEmbedder) Ping(_ context.Context) error { return nil }
func (stubEmbedder) Close() error                 { return nil }

// wordTokenizer counts whitespace-separated words as tokens.
type wordTokenizer struct{}

func (wordTokenizer) Count(text string) int { return len(strings.Fields(text)) }

func (wordTokenizer) Encode(text string) []int {
	words := strings.Fields(text)
	tokens := make([]int, len(words))
	for i, w := range words {
		tokens[i] = len(w)
	}
	return tokens
}

func (wordTokenizer) Decode(tokens []int) string {
	parts := make([]string, len(tokens))
	for i, n := range tokens {
		parts[i] = strings.Repeat("x", n)
	}
	return strings.Join(parts, " ")
}

// setupTestServices wires the CLI against in-memory and temp-dir backed
// adapters. The returned cleanup restores the package state.
func setupTestServices(t *testing.T) func() {
	t.Helper()

	store := memory.NewMetadataStore()
	index, err := flat.New(filepath.Join(t.TempDir(), "vectors.idx"), testDims)
	require.NoError(t, err)

	indexer := services.NewIndexer(store, index)
	chk := chunker.New(wordTokenizer{}, chunker.WithMaxTokens(50), chunker.WithOverlapTokens(5))
	coordinator := services.NewIngestionCoordinator(store, stubEmbedder{}, chk, indexer)

	documentService = services.NewDocService(store, index, indexer)
	searcher = services.NewSearchService(store, index, stubEmbedder{})
	ingestor = coordinator
	parserRegistry = parsers.NewDefaultRegistry()

	return func() {
		coordinator.Stop()
		documentService = nil
		searcher = nil
		ingestor = nil
		parserRegistry = nil
		appConfig = nil
	}
}
