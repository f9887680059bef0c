package driving

import (
	"context"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
)

// DocumentService exposes document lifecycle operations.
type DocumentService interface {
	// Accept registers an uploaded file and returns the pending document.
	Accept(ctx context.Context, filename string, format domain.Format) (*domain.Document, error)

	// Get returns a document by ID.
	Get(ctx context.Context, id string) (*domain.Document, error)

	// List returns all documents, newest first.
	List(ctx context.Context) ([]domain.Document, error)

	// Segments returns a document's segments in order.
	Segments(ctx context.Context, id string) ([]domain.Segment, error)

	// Delete removes a document, its segments and their vectors.
	// Deleting an unknown document fails with domain.ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Stats summarises the corpus and index state.
	Stats(ctx context.Context) (*domain.Stats, error)
}
