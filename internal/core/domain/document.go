package domain

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Format identifies the source file format of a document.
type Format string

// Supported document formats.
const (
	FormatPDF  Format = "pdf"
	FormatDOCX Format = "docx"
	FormatTXT  Format = "txt"
)

// Valid reports whether the format is one of the supported formats.
func (f Format) Valid() bool {
	switch f {
	case FormatPDF, FormatDOCX, FormatTXT:
		return true
	}
	return false
}

// FormatFromPath derives the document format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	format := Format(ext)
	if !format.Valid() {
		return "", fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
	return format, nil
}

// Status is the processing lifecycle state of a document.
type Status string

// Document lifecycle states.
const (
	// StatusPending means the document has been accepted but not yet processed.
	StatusPending Status = "pending"

	// StatusProcessing means ingestion is currently running for the document.
	StatusProcessing Status = "processing"

	// StatusCompleted means all segments are indexed and searchable.
	StatusCompleted Status = "completed"

	// StatusFailed means ingestion failed; ErrorMessage holds the reason.
	// A failed document may be retried (failed -> processing).
	StatusFailed Status = "failed"
)

// CanTransition reports whether moving from s to next is a legal
// lifecycle transition. No transition may skip processing, and
// completed is terminal except for deletion.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	case StatusFailed:
		return next == StatusProcessing
	}
	return false
}

// Document represents an ingested document with its processing metadata.
// Documents are created in StatusPending on upload acceptance and are
// mutated only by the ingestion coordinator as processing advances.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Filename is the original file name as uploaded.
	Filename string

	// Format is the source file format (pdf, docx, txt).
	Format Format

	// Status is the current processing state.
	Status Status

	// SegmentCount is the number of segments created during ingestion.
	// Zero until the document reaches StatusCompleted.
	SegmentCount int

	// ErrorMessage holds the failure reason when Status is StatusFailed.
	ErrorMessage string

	// CreatedAt is when the document was accepted.
	CreatedAt time.Time
}

// Segment is a bounded span of a document's text, embedded as one vector.
type Segment struct {
	// ID is the unique identifier for the segment.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// SequenceIndex is the ordinal position within the document.
	SequenceIndex int

	// Text is the segment content, including any leading overlap
	// carried over from the previous segment.
	Text string

	// TokenCount is the token length of Text.
	TokenCount int

	// CharStart and CharEnd delimit the span of the original document
	// text this segment's own (non-overlap) content covers.
	CharStart int
	CharEnd   int

	// VectorSlot is the position of this segment's vector in the
	// vector index. Assigned at insertion time and stable until the
	// segment is deleted.
	VectorSlot int64
}

// SegmentDraft is a chunker-produced segment before it has an identity
// or a vector slot.
type SegmentDraft struct {
	Text       string
	TokenCount int
	CharStart  int
	CharEnd    int
}
