package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch-cli/internal/logger"
)

// Ensure DocService implements the interface.
var _ driving.DocumentService = (*DocService)(nil)

// DocService exposes document lifecycle operations.
type DocService struct {
	store   driven.MetadataStore
	index   driven.VectorIndex
	indexer *Indexer
}

// NewDocService creates a new document service.
func NewDocService(store driven.MetadataStore, index driven.VectorIndex, indexer *Indexer) *DocService {
	return &DocService{
		store:   store,
		index:   index,
		indexer: indexer,
	}
}

// Accept registers an uploaded file and returns the pending document.
func (s *DocService) Accept(ctx context.Context, filename string, format domain.Format) (*domain.Document, error) {
	if filename == "" {
		return nil, fmt.Errorf("%w: filename must not be empty", domain.ErrInvalidInput)
	}
	if !format.Valid() {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, format)
	}

	doc, err := s.store.CreateDocument(ctx, filename, format)
	if err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	logger.Info("Accepted document %s (%s)", doc.ID, filename)
	return doc, nil
}

// Get returns a document by ID.
func (s *DocService) Get(ctx context.Context, id string) (*domain.Document, error) {
	return s.store.GetDocument(ctx, id)
}

// List returns all documents, newest first.
func (s *DocService) List(ctx context.Context) ([]domain.Document, error) {
	return s.store.ListDocuments(ctx)
}

// Segments returns a document's segments in order.
func (s *DocService) Segments(ctx context.Context, id string) ([]domain.Segment, error) {
	if _, err := s.store.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	return s.store.GetSegments(ctx, id)
}

// Delete removes a document, its segments and their vectors. The vector
// slots are tombstoned and never reused.
func (s *DocService) Delete(ctx context.Context, id string) error {
	if _, err := s.store.GetDocument(ctx, id); err != nil {
		return err
	}

	if err := s.indexer.RemoveDocument(ctx, id); err != nil {
		return fmt.Errorf("remove segments: %w", err)
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if err := s.indexer.Persist(); err != nil {
		logger.Warn("Persist vector index: %v", err)
	}
	logger.Info("Deleted document %s", id)
	return nil
}

// Stats summarises the corpus and index state.
func (s *DocService) Stats(ctx context.Context) (*domain.Stats, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("collect stats: %w", err)
	}
	stats.ActiveVectors = s.index.Len()
	return stats, nil
}
