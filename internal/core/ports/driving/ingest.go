package driving

// Ingestor drives documents through the ingestion pipeline.
// Work runs on a single background worker; Enqueue returns as soon as
// the task is queued, with the document visible at pending/processing
// while work proceeds.
type Ingestor interface {
	// Enqueue schedules ingestion of already-extracted text for the
	// document. Fails with domain.ErrIngestInProgress if the document
	// is already queued or being processed, and with an error if the
	// worker has been stopped.
	Enqueue(documentID, text string) error

	// Wait blocks until all enqueued tasks have been processed.
	Wait()

	// Stop prevents further dequeuing and waits for the in-flight task
	// to finish. Queued tasks that were never started are dropped;
	// their documents remain pending.
	Stop()
}
