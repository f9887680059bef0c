package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driving"
	"github.com/custodia-labs/docsearch-cli/internal/logger"
)

// Ensure IngestionCoordinator implements the interface.
var _ driving.Ingestor = (*IngestionCoordinator)(nil)

// DefaultQueueSize is the capacity of the ingestion queue.
const DefaultQueueSize = 64

// Chunker splits extracted text into segment drafts.
type Chunker interface {
	Chunk(text string) []domain.SegmentDraft
}

// ingestTask is one unit of work for the background worker.
type ingestTask struct {
	documentID string
	text       string
}

// IngestionCoordinator runs the chunk-embed-index pipeline on a single
// background worker. One worker keeps paired writes to the vector index
// and the metadata store strictly sequential.
type IngestionCoordinator struct {
	store    driven.MetadataStore
	embedder driven.EmbeddingService
	chunker  Chunker
	indexer  *Indexer

	queue chan ingestTask
	stop  chan struct{}
	done  chan struct{}

	mu       sync.Mutex
	inflight map[string]bool
	stopped  bool
	tasks    sync.WaitGroup
}

// CoordinatorOption configures the coordinator.
type CoordinatorOption func(*IngestionCoordinator)

// WithQueueSize overrides the queue capacity.
func WithQueueSize(n int) CoordinatorOption {
	return func(c *IngestionCoordinator) {
		if n > 0 {
			c.queue = make(chan ingestTask, n)
		}
	}
}

// NewIngestionCoordinator creates a coordinator and starts its worker.
func NewIngestionCoordinator(
	store driven.MetadataStore,
	embedder driven.EmbeddingService,
	chunker Chunker,
	indexer *Indexer,
	opts ...CoordinatorOption,
) *IngestionCoordinator {
	c := &IngestionCoordinator{
		store:    store,
		embedder: embedder,
		chunker:  chunker,
		indexer:  indexer,
		queue:    make(chan ingestTask, DefaultQueueSize),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		inflight: make(map[string]bool),
	}
	go c.run()
	return c
}

// Enqueue schedules ingestion of already-extracted text for the document.
func (c *IngestionCoordinator) Enqueue(documentID, text string) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return fmt.Errorf("ingestion worker is stopped")
	}
	if c.inflight[documentID] {
		c.mu.Unlock()
		return fmt.Errorf("%w: document %s", domain.ErrIngestInProgress, documentID)
	}
	c.inflight[documentID] = true
	c.tasks.Add(1)
	c.mu.Unlock()

	select {
	case c.queue <- ingestTask{documentID: documentID, text: text}:
		return nil
	case <-c.stop:
		c.finish(documentID)
		return fmt.Errorf("ingestion worker is stopped")
	}
}

// Wait blocks until every enqueued task has been processed or dropped.
func (c *IngestionCoordinator) Wait() {
	c.tasks.Wait()
}

// Stop shuts down the worker. The in-flight task finishes; queued tasks
// are dropped and their documents remain pending.
func (c *IngestionCoordinator) Stop() {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		<-c.done
		return
	}
	c.stopped = true
	c.mu.Unlock()

	close(c.stop)
	<-c.done
}

// run is the worker loop. It owns all pipeline writes.
func (c *IngestionCoordinator) run() {
	defer close(c.done)
	for {
		select {
		case <-c.stop:
			c.drain()
			return
		case task := <-c.queue:
			c.process(task)
			c.finish(task.documentID)
		}
	}
}

// drain drops queued tasks after Stop so Wait does not hang on them.
func (c *IngestionCoordinator) drain() {
	for {
		select {
		case task := <-c.queue:
			logger.Warn("Dropping queued ingestion for document %s", task.documentID)
			c.finish(task.documentID)
		default:
			return
		}
	}
}

// finish releases the in-flight slot for a document.
func (c *IngestionCoordinator) finish(documentID string) {
	c.mu.Lock()
	delete(c.inflight, documentID)
	c.mu.Unlock()
	c.tasks.Done()
}

// process runs one document through chunk, embed and index. Failures
// mark the document failed; the indexer guarantees a failed insert
// leaves no segment rows or vectors behind.
func (c *IngestionCoordinator) process(task ingestTask) {
	ctx := context.Background()

	logger.Section("Ingestion")
	logger.Debug("Document: %s", task.documentID)

	if err := c.store.TransitionStatus(ctx, task.documentID, domain.StatusProcessing, 0, ""); err != nil {
		logger.Warn("Cannot start processing document %s: %v", task.documentID, err)
		return
	}

	drafts := c.chunker.Chunk(task.text)
	logger.Debug("Chunked into %d segments", len(drafts))
	if len(drafts) == 0 {
		c.markFailed(ctx, task.documentID, fmt.Errorf("document has no text content"))
		return
	}

	texts := make([]string, len(drafts))
	for i, draft := range drafts {
		texts[i] = draft.Text
	}

	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		c.markFailed(ctx, task.documentID, fmt.Errorf("embed segments: %w", err))
		return
	}

	segments, err := c.indexer.InsertSegments(ctx, task.documentID, drafts, vectors)
	if err != nil {
		c.markFailed(ctx, task.documentID, fmt.Errorf("index segments: %w", err))
		return
	}

	if err := c.store.TransitionStatus(ctx, task.documentID, domain.StatusCompleted, len(segments), ""); err != nil {
		logger.Warn("Cannot complete document %s: %v", task.documentID, err)
		return
	}

	if err := c.indexer.Persist(); err != nil {
		logger.Warn("Persist vector index: %v", err)
	}
	logger.Info("Document %s completed with %d segments", task.documentID, len(segments))
}

// markFailed records the failure reason on the document.
func (c *IngestionCoordinator) markFailed(ctx context.Context, documentID string, cause error) {
	logger.Warn("Ingestion of document %s failed: %v", documentID, cause)
	if err := c.store.TransitionStatus(ctx, documentID, domain.StatusFailed, 0, cause.Error()); err != nil {
		logger.Warn("Cannot mark document %s failed: %v", documentID, err)
	}
}
