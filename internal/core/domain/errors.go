package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates a document format no parser handles.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrCorruptFile indicates a file that could not be parsed as its
	// declared format. Parsers return this rather than partial text.
	ErrCorruptFile = errors.New("corrupt file")

	// ErrDimensionMismatch indicates a vector whose length does not match
	// the configured embedding dimension. This is a configuration error,
	// not retried.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrInvalidTransition indicates an illegal document status change.
	// This is a programming error, not retried.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrEmbeddingUnavailable indicates the embedding service could not be
	// reached. Transient; ingestion may be retried later.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStorageWrite indicates a partial write during segment insertion.
	// The affected document's slots and rows are rolled back.
	ErrStorageWrite = errors.New("storage write failure")

	// ErrIngestInProgress indicates ingestion is already running for the
	// document.
	ErrIngestInProgress = errors.New("ingestion already in progress")

	// ErrIndexCorrupt indicates a segment references a slot that is absent
	// or tombstoned in the vector index. Detected at load time.
	ErrIndexCorrupt = errors.New("vector index and segment store out of sync")
)
