// Package sqlite provides the durable metadata store for documents and
// segments, backed by a single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docsearch-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.MetadataStore = (*Store)(nil)

// Store is a SQLite-backed metadata store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store in the specified data directory.
// If dataDir is empty, defaults to ~/.docsearch/data/metadata.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docsearch", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// CreateDocument inserts a new document in StatusPending.
func (s *Store) CreateDocument(ctx context.Context, filename string, format domain.Format) (*domain.Document, error) {
	if filename == "" || !format.Valid() {
		return nil, domain.ErrInvalidInput
	}

	doc := &domain.Document{
		ID:        uuid.New().String(),
		Filename:  filename,
		Format:    format,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, filename, format, status, segment_count, error_message, created_at)
		VALUES (?, ?, ?, ?, 0, '', ?)
	`, doc.ID, doc.Filename, string(doc.Format), string(doc.Status), doc.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	return doc, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, filename, format, status, segment_count, error_message, created_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns all documents, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, format, status, segment_count, error_message, created_at
		FROM documents ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, rows.Err()
}

// TransitionStatus moves a document through the status state machine.
// The update is a compare-and-set on the current status so concurrent
// transitions cannot skip states.
func (s *Store) TransitionStatus(ctx context.Context, id string, next domain.Status, segmentCount int, errMessage string) error {
	var current string
	row := s.db.QueryRowContext(ctx, "SELECT status FROM documents WHERE id = ?", id)
	if err := row.Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("querying status: %w", err)
	}

	if !domain.Status(current).CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, next)
	}

	count, message := 0, ""
	switch next {
	case domain.StatusCompleted:
		count = segmentCount
	case domain.StatusFailed:
		message = errMessage
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE documents SET status = ?, segment_count = ?, error_message = ?
		WHERE id = ? AND status = ?
	`, string(next), count, message, id, current)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update: %w", err)
	}
	if affected == 0 {
		// Lost a race with another transition.
		return fmt.Errorf("%w: %s -> %s (concurrent update)", domain.ErrInvalidTransition, current, next)
	}
	return nil
}

// SaveSegments inserts segment rows in a single transaction.
func (s *Store) SaveSegments(ctx context.Context, segments []domain.Segment) error {
	if len(segments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO segments (id, document_id, sequence_index, text, token_count, char_start, char_end, vector_slot)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, seg := range segments {
		_, err := stmt.ExecContext(ctx,
			seg.ID, seg.DocumentID, seg.SequenceIndex, seg.Text,
			seg.TokenCount, seg.CharStart, seg.CharEnd, seg.VectorSlot)
		if err != nil {
			return fmt.Errorf("inserting segment %s: %w", seg.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing segments: %w", err)
	}
	return nil
}

// GetSegments returns a document's segments ordered by sequence index.
func (s *Store) GetSegments(ctx context.Context, documentID string) ([]domain.Segment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, sequence_index, text, token_count, char_start, char_end, vector_slot
		FROM segments WHERE document_id = ? ORDER BY sequence_index
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying segments: %w", err)
	}
	defer rows.Close()

	return scanSegments(rows)
}

// GetSegmentsBySlots resolves vector slots to segments.
func (s *Store) GetSegmentsBySlots(ctx context.Context, slots []int64) (map[int64]domain.Segment, error) {
	result := make(map[int64]domain.Segment, len(slots))
	if len(slots) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(slots))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, len(slots))
	for i, slot := range slots {
		args[i] = slot
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, document_id, sequence_index, text, token_count, char_start, char_end, vector_slot
		FROM segments WHERE vector_slot IN (%s)
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("querying segments by slot: %w", err)
	}
	defer rows.Close()

	segments, err := scanSegments(rows)
	if err != nil {
		return nil, err
	}
	for _, seg := range segments {
		result[seg.VectorSlot] = seg
	}
	return result, nil
}

// DeleteSegments removes all segment rows for a document.
func (s *Store) DeleteSegments(ctx context.Context, documentID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM segments WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting segments: %w", err)
	}
	return nil
}

// DeleteDocument removes the document row.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// AllVectorSlots returns every vector slot referenced by a segment.
func (s *Store) AllVectorSlots(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT vector_slot FROM segments ORDER BY vector_slot")
	if err != nil {
		return nil, fmt.Errorf("querying vector slots: %w", err)
	}
	defer rows.Close()

	var slots []int64
	for rows.Next() {
		var slot int64
		if err := rows.Scan(&slot); err != nil {
			return nil, fmt.Errorf("scanning vector slot: %w", err)
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}

// Stats returns per-status document counts and the total segment count.
// ActiveVectors is filled in by the caller from the vector index.
func (s *Store) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{}

	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM documents GROUP BY status")
	if err != nil {
		return nil, fmt.Errorf("querying document counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning document counts: %w", err)
		}
		stats.TotalDocuments += count
		switch domain.Status(status) {
		case domain.StatusPending:
			stats.Pending = count
		case domain.StatusProcessing:
			stats.Processing = count
		case domain.StatusCompleted:
			stats.Completed = count
		case domain.StatusFailed:
			stats.Failed = count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM segments")
	if err := row.Scan(&stats.TotalSegments); err != nil {
		return nil, fmt.Errorf("counting segments: %w", err)
	}

	return stats, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(sc scanner) (*domain.Document, error) {
	var doc domain.Document
	var format, status string
	err := sc.Scan(&doc.ID, &doc.Filename, &format, &status,
		&doc.SegmentCount, &doc.ErrorMessage, &doc.CreatedAt)
	if err != nil {
		return nil, err
	}
	doc.Format = domain.Format(format)
	doc.Status = domain.Status(status)
	return &doc, nil
}

func scanSegments(rows *sql.Rows) ([]domain.Segment, error) {
	var segments []domain.Segment
	for rows.Next() {
		var seg domain.Segment
		err := rows.Scan(&seg.ID, &seg.DocumentID, &seg.SequenceIndex, &seg.Text,
			&seg.TokenCount, &seg.CharStart, &seg.CharEnd, &seg.VectorSlot)
		if err != nil {
			return nil, fmt.Errorf("scanning segment: %w", err)
		}
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}
