package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch-cli/internal/logger"
)

// Indexer keeps the vector index and the segment rows of the metadata
// store in lockstep: every active vector slot has exactly one segment
// row and vice versa. All writers that touch both stores go through the
// same Indexer so paired writes never interleave.
type Indexer struct {
	mu    sync.Mutex
	store driven.MetadataStore
	index driven.VectorIndex
}

// NewIndexer creates a new indexer over the given stores.
func NewIndexer(store driven.MetadataStore, index driven.VectorIndex) *Indexer {
	return &Indexer{
		store: store,
		index: index,
	}
}

// InsertSegments adds one vector per draft to the index and saves the
// matching segment rows. On any failure every slot added by this call is
// removed again, so a failed insert leaves no trace of the document.
func (ix *Indexer) InsertSegments(
	ctx context.Context, documentID string, drafts []domain.SegmentDraft, vectors [][]float32,
) ([]domain.Segment, error) {
	if len(drafts) != len(vectors) {
		return nil, fmt.Errorf("%w: %d drafts but %d vectors", domain.ErrInvalidInput, len(drafts), len(vectors))
	}
	if len(drafts) == 0 {
		return []domain.Segment{}, nil
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	segments := make([]domain.Segment, 0, len(drafts))
	slots := make([]int64, 0, len(drafts))

	for i, draft := range drafts {
		slot, err := ix.index.Add(vectors[i])
		if err != nil {
			ix.rollback(slots)
			return nil, fmt.Errorf("%w: add vector %d: %v", domain.ErrStorageWrite, i, err)
		}
		slots = append(slots, slot)

		segments = append(segments, domain.Segment{
			ID:            uuid.New().String(),
			DocumentID:    documentID,
			SequenceIndex: i,
			Text:          draft.Text,
			TokenCount:    draft.TokenCount,
			CharStart:     draft.CharStart,
			CharEnd:       draft.CharEnd,
			VectorSlot:    slot,
		})
	}

	if err := ix.store.SaveSegments(ctx, segments); err != nil {
		ix.rollback(slots)
		return nil, fmt.Errorf("%w: save segments: %v", domain.ErrStorageWrite, err)
	}

	return segments, nil
}

// RemoveDocument deletes a document's segment rows and tombstones their
// vector slots.
func (ix *Indexer) RemoveDocument(ctx context.Context, documentID string) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	segments, err := ix.store.GetSegments(ctx, documentID)
	if err != nil {
		return fmt.Errorf("get segments: %w", err)
	}

	if err := ix.store.DeleteSegments(ctx, documentID); err != nil {
		return fmt.Errorf("%w: delete segments: %v", domain.ErrStorageWrite, err)
	}

	for _, seg := range segments {
		if err := ix.index.Remove(seg.VectorSlot); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("remove vector slot %d: %w", seg.VectorSlot, err)
		}
	}

	return nil
}

// Persist flushes the vector index to disk.
func (ix *Indexer) Persist() error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.index.Persist()
}

// ValidateConsistency checks the slot-to-segment bijection: every vector
// slot referenced by a segment row must be active in the index, and the
// index must hold no active vectors beyond those. A mismatch means the
// two stores diverged, for example after a crash between paired writes.
func (ix *Indexer) ValidateConsistency(ctx context.Context) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	slots, err := ix.store.AllVectorSlots(ctx)
	if err != nil {
		return fmt.Errorf("list vector slots: %w", err)
	}

	for _, slot := range slots {
		if !ix.index.Contains(slot) {
			return fmt.Errorf("%w: segment references slot %d but the index has no active vector there",
				domain.ErrIndexCorrupt, slot)
		}
	}

	if active := ix.index.Len(); active != len(slots) {
		return fmt.Errorf("%w: index holds %d active vectors but segments reference %d slots",
			domain.ErrIndexCorrupt, active, len(slots))
	}

	logger.Debug("Consistency check passed: %d active vectors", len(slots))
	return nil
}

// rollback tombstones slots added by a failed insert. Slots are never
// recycled, so a failed insert burns its slot numbers.
func (ix *Indexer) rollback(slots []int64) {
	for _, slot := range slots {
		if err := ix.index.Remove(slot); err != nil {
			logger.Warn("Rollback: failed to remove slot %d: %v", slot, err)
		}
	}
}
