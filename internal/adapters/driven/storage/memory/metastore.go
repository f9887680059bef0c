// Package memory provides an in-memory metadata store for tests and
// ephemeral use. It mirrors the SQLite store's semantics, including
// the status state machine.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
)

// Ensure MetadataStore implements the interface.
var _ driven.MetadataStore = (*MetadataStore)(nil)

// MetadataStore is an in-memory implementation of driven.MetadataStore.
type MetadataStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
	segments  map[string][]domain.Segment // keyed by document ID
}

// NewMetadataStore creates a new in-memory metadata store.
func NewMetadataStore() *MetadataStore {
	return &MetadataStore{
		documents: make(map[string]domain.Document),
		segments:  make(map[string][]domain.Segment),
	}
}

// CreateDocument inserts a new document in StatusPending.
func (s *MetadataStore) CreateDocument(_ context.Context, filename string, format domain.Format) (*domain.Document, error) {
	if filename == "" || !format.Valid() {
		return nil, domain.ErrInvalidInput
	}

	doc := domain.Document{
		ID:        uuid.New().String(),
		Filename:  filename,
		Format:    format,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = doc
	return &doc, nil
}

// GetDocument retrieves a document by ID.
func (s *MetadataStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.documents[id]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return &doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *MetadataStore) ListDocuments(_ context.Context) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// TransitionStatus moves a document through the status state machine.
func (s *MetadataStore) TransitionStatus(_ context.Context, id string, next domain.Status, segmentCount int, errMessage string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.documents[id]
	if !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if !doc.Status.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, doc.Status, next)
	}

	doc.Status = next
	doc.SegmentCount = 0
	doc.ErrorMessage = ""
	switch next {
	case domain.StatusCompleted:
		doc.SegmentCount = segmentCount
	case domain.StatusFailed:
		doc.ErrorMessage = errMessage
	}
	s.documents[id] = doc
	return nil
}

// SaveSegments stores segment rows.
func (s *MetadataStore) SaveSegments(_ context.Context, segments []domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seg := range segments {
		s.segments[seg.DocumentID] = append(s.segments[seg.DocumentID], seg)
	}
	return nil
}

// GetSegments returns a document's segments ordered by sequence index.
func (s *MetadataStore) GetSegments(_ context.Context, documentID string) ([]domain.Segment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	segments := append([]domain.Segment(nil), s.segments[documentID]...)
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].SequenceIndex < segments[j].SequenceIndex
	})
	return segments, nil
}

// GetSegmentsBySlots resolves vector slots to segments.
func (s *MetadataStore) GetSegmentsBySlots(_ context.Context, slots []int64) (map[int64]domain.Segment, error) {
	wanted := make(map[int64]bool, len(slots))
	for _, slot := range slots {
		wanted[slot] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[int64]domain.Segment)
	for _, segments := range s.segments {
		for _, seg := range segments {
			if wanted[seg.VectorSlot] {
				result[seg.VectorSlot] = seg
			}
		}
	}
	return result, nil
}

// DeleteSegments removes all segment rows for a document.
func (s *MetadataStore) DeleteSegments(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.segments, documentID)
	return nil
}

// DeleteDocument removes the document row.
func (s *MetadataStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.documents[id]; !ok {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	delete(s.documents, id)
	return nil
}

// AllVectorSlots returns every vector slot referenced by a segment.
func (s *MetadataStore) AllVectorSlots(_ context.Context) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var slots []int64
	for _, segments := range s.segments {
		for _, seg := range segments {
			slots = append(slots, seg.VectorSlot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i] < slots[j] })
	return slots, nil
}

// Stats returns per-status document counts and the total segment count.
func (s *MetadataStore) Stats(_ context.Context) (*domain.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.Stats{TotalDocuments: len(s.documents)}
	for _, doc := range s.documents {
		switch doc.Status {
		case domain.StatusPending:
			stats.Pending++
		case domain.StatusProcessing:
			stats.Processing++
		case domain.StatusCompleted:
			stats.Completed++
		case domain.StatusFailed:
			stats.Failed++
		}
	}
	for _, segments := range s.segments {
		stats.TotalSegments += len(segments)
	}
	return stats, nil
}

// Close releases resources.
func (s *MetadataStore) Close() error {
	return nil
}
