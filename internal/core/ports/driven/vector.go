package driven

// VectorIndex stores segment vectors and answers exact top-k similarity
// queries. Slots are assigned monotonically and never recycled, so a
// segment's slot reference stays valid until the segment is deleted.
//
// The index is append-only apart from tombstoning: Remove marks a slot
// inactive without moving other vectors, which lets concurrent searches
// observe a consistent set of active slots.
type VectorIndex interface {
	// Add appends a vector and returns its slot. Fails with
	// domain.ErrDimensionMismatch if the vector length does not match
	// the index dimension.
	Add(vector []float32) (int64, error)

	// Search returns up to k active slots ordered by descending
	// inner-product score, ties broken by lower slot. The scan is
	// exact (brute force); ranking is deterministic.
	Search(query []float32, k int) ([]VectorHit, error)

	// Remove tombstones a slot, excluding it from future searches.
	// Fails with domain.ErrNotFound if the slot does not exist or is
	// already tombstoned.
	Remove(slot int64) error

	// Contains reports whether the slot exists and is active.
	Contains(slot int64) bool

	// Len returns the number of active (non-tombstoned) slots.
	Len() int

	// Dimensions returns the fixed vector dimension of the index.
	Dimensions() int

	// Persist writes the index to durable storage.
	Persist() error

	// Close persists and releases resources.
	Close() error
}

// VectorHit is a single similarity search result.
type VectorHit struct {
	// Slot identifies the matched vector.
	Slot int64

	// Score is the inner product against the query. For unit-normalized
	// vectors this is the cosine similarity.
	Score float64
}
