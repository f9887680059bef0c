package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
)

// fakeIndex is an in-memory VectorIndex with controllable failures.
type fakeIndex struct {
	mu           sync.Mutex
	dims         int
	vectors      [][]float32 // nil entry = tombstone
	adds         int
	failAddAfter int // fail Add once this many adds succeeded (0 = never)
	persists     int
}

var _ driven.VectorIndex = (*fakeIndex)(nil)

func newFakeIndex(dims int) *fakeIndex {
	return &fakeIndex{dims: dims}
}

func (f *fakeIndex) Add(vector []float32) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(vector) != f.dims {
		return 0, domain.ErrDimensionMismatch
	}
	if f.failAddAfter > 0 && f.adds >= f.failAddAfter {
		return 0, errors.New("index full")
	}
	f.adds++
	f.vectors = append(f.vectors, append([]float32(nil), vector...))
	return int64(len(f.vectors) - 1), nil
}

func (f *fakeIndex) Search(query []float32, k int) ([]driven.VectorHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(query) != f.dims {
		return nil, domain.ErrDimensionMismatch
	}
	var hits []driven.VectorHit
	for slot, vec := range f.vectors {
		if vec == nil {
			continue
		}
		hits = append(hits, driven.VectorHit{Slot: int64(slot), Score: domain.Dot(query, vec)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Slot < hits[j].Slot
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func (f *fakeIndex) Remove(slot int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if slot < 0 || slot >= int64(len(f.vectors)) || f.vectors[slot] == nil {
		return domain.ErrNotFound
	}
	f.vectors[slot] = nil
	return nil
}

func (f *fakeIndex) Contains(slot int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slot >= 0 && slot < int64(len(f.vectors)) && f.vectors[slot] != nil
}

func (f *fakeIndex) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, vec := range f.vectors {
		if vec != nil {
			n++
		}
	}
	return n
}

func (f *fakeIndex) Dimensions() int { return f.dims }

func (f *fakeIndex) Persist() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persists++
	return nil
}

func (f *fakeIndex) Close() error { return nil }

// fakeEmbedder returns canned vectors and can fail mid-batch.
type fakeEmbedder struct {
	mu        sync.Mutex
	dims      int
	vecs      map[string][]float32
	embedded  int
	failAfter int           // fail once this many texts embedded (0 = never)
	gate      chan struct{} // if set, EmbedBatch blocks until closed
}

var _ driven.EmbeddingService = (*fakeEmbedder)(nil)

func newFakeEmbedder(dims int) *fakeEmbedder {
	return &fakeEmbedder{dims: dims, vecs: make(map[string][]float32)}
}

func (f *fakeEmbedder) vector(text string) []float32 {
	if vec, ok := f.vecs[text]; ok {
		return vec
	}
	vec := make([]float32, f.dims)
	vec[len(text)%f.dims] = 1
	return vec
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAfter > 0 && f.embedded >= f.failAfter {
		return nil, fmt.Errorf("%w: model offline", domain.ErrEmbeddingUnavailable)
	}
	f.embedded++
	return f.vector(text), nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if f.gate != nil {
		<-f.gate
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int { return f.dims }

func (f *fakeEmbedder) ModelName() string { return "fake-embedder" }

func (f *fakeEmbedder) Ping(_ context.Context) error { return nil }

func (f *fakeEmbedder) Close() error { return nil }

// stubChunker splits on blank lines with one word per token.
type stubChunker struct{}

func (stubChunker) Chunk(text string) []domain.SegmentDraft {
	var drafts []domain.SegmentDraft
	start := 0
	emit := func(end int) {
		chunk := text[start:end]
		tokens := 0
		inWord := false
		for _, r := range chunk {
			if r == ' ' || r == '\n' || r == '\t' {
				inWord = false
				continue
			}
			if !inWord {
				tokens++
				inWord = true
			}
		}
		if tokens > 0 {
			drafts = append(drafts, domain.SegmentDraft{
				Text:       chunk,
				TokenCount: tokens,
				CharStart:  start,
				CharEnd:    end,
			})
		}
	}
	for i := 0; i+1 < len(text); i++ {
		if text[i] == '\n' && text[i+1] == '\n' {
			emit(i)
			start = i + 2
		}
	}
	emit(len(text))
	return drafts
}
