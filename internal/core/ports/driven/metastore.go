package driven

import (
	"context"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
)

// MetadataStore persists documents and segments.
// Backed by SQLite for durable storage; an in-memory implementation
// exists for tests and ephemeral use.
type MetadataStore interface {
	// CreateDocument inserts a new document in StatusPending.
	CreateDocument(ctx context.Context, filename string, format domain.Format) (*domain.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if it does not exist.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// TransitionStatus moves a document through the status state
	// machine. segmentCount is recorded on completion and errMessage on
	// failure. Fails with domain.ErrInvalidTransition for any edge the
	// lifecycle does not allow.
	TransitionStatus(ctx context.Context, id string, next domain.Status, segmentCount int, errMessage string) error

	// SaveSegments inserts segment rows in a single transaction.
	SaveSegments(ctx context.Context, segments []domain.Segment) error

	// GetSegments returns a document's segments ordered by sequence index.
	GetSegments(ctx context.Context, documentID string) ([]domain.Segment, error)

	// GetSegmentsBySlots resolves vector slots to segments.
	// Slots with no segment are absent from the result map.
	GetSegmentsBySlots(ctx context.Context, slots []int64) (map[int64]domain.Segment, error)

	// DeleteSegments removes all segment rows for a document.
	DeleteSegments(ctx context.Context, documentID string) error

	// DeleteDocument removes the document row. Segments must be deleted
	// first. Returns domain.ErrNotFound if the document does not exist.
	DeleteDocument(ctx context.Context, id string) error

	// AllVectorSlots returns every vector slot referenced by a segment.
	AllVectorSlots(ctx context.Context) ([]int64, error)

	// Stats returns per-status document counts and the total segment count.
	Stats(ctx context.Context) (*domain.Stats, error)

	// Close releases resources.
	Close() error
}
