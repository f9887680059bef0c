// Package flat provides an exact (brute-force) inner-product vector
// index with tombstone deletion and single-file binary persistence.
//
// Slots are assigned in append order and never recycled. Deletion
// tombstones a slot in place; tombstoned slots are skipped during
// search and their vector data is dropped on the next Persist, but the
// slot numbering is preserved so segment references never need
// renumbering. There is no physical compaction.
package flat

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/custodia-labs/docsearch-cli/internal/core/domain"
	"github.com/custodia-labs/docsearch-cli/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// File format constants.
const (
	fileMagic   = 0x46564958 // "FVIX"
	fileVersion = 1
)

// Index is an exact flat vector index.
type Index struct {
	mu        sync.RWMutex
	path      string
	dimension int
	vectors   [][]float32 // nil entry = tombstoned slot
	active    int
}

// New creates or opens a flat index at path with the given dimension.
// If a persisted file exists it is loaded; a dimension conflict with
// the persisted file is an error.
func New(path string, dimension int) (*Index, error) {
	if path == "" {
		return nil, errors.New("flat: path cannot be empty")
	}
	if dimension <= 0 {
		return nil, errors.New("flat: dimension must be positive")
	}

	idx := &Index{
		path:      path,
		dimension: dimension,
	}

	if _, err := os.Stat(path); err == nil {
		if err := idx.load(); err != nil {
			return nil, fmt.Errorf("loading index %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("stat index %s: %w", path, err)
	}

	return idx, nil
}

// Add appends a vector and returns its slot.
func (idx *Index) Add(vector []float32) (int64, error) {
	if len(vector) != idx.dimension {
		return 0, fmt.Errorf("%w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(vector), idx.dimension)
	}

	// Copy so callers cannot mutate stored data.
	stored := make([]float32, len(vector))
	copy(stored, vector)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	slot := int64(len(idx.vectors))
	idx.vectors = append(idx.vectors, stored)
	idx.active++
	return slot, nil
}

// Search scans every active vector and returns up to k hits ordered by
// descending inner product, ties broken by lower slot.
func (idx *Index) Search(query []float32, k int) ([]driven.VectorHit, error) {
	if len(query) != idx.dimension {
		return nil, fmt.Errorf("%w: got %d, index has %d",
			domain.ErrDimensionMismatch, len(query), idx.dimension)
	}
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]driven.VectorHit, 0, idx.active)
	for slot, vec := range idx.vectors {
		if vec == nil {
			continue // tombstoned
		}
		hits = append(hits, driven.VectorHit{
			Slot:  int64(slot),
			Score: domain.Dot(query, vec),
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Slot < hits[j].Slot
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Remove tombstones a slot.
func (idx *Index) Remove(slot int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if slot < 0 || slot >= int64(len(idx.vectors)) || idx.vectors[slot] == nil {
		return fmt.Errorf("slot %d: %w", slot, domain.ErrNotFound)
	}
	idx.vectors[slot] = nil
	idx.active--
	return nil
}

// Contains reports whether the slot exists and is active.
func (idx *Index) Contains(slot int64) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return slot >= 0 && slot < int64(len(idx.vectors)) && idx.vectors[slot] != nil
}

// Len returns the number of active slots.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.active
}

// Dimensions returns the fixed vector dimension.
func (idx *Index) Dimensions() int {
	return idx.dimension
}

// Persist writes the index to disk atomically (write temp, rename).
//
// Layout (little endian):
//
//	uint32 magic, uint32 version, uint32 dimension, uint64 slot count,
//	tombstone bitmap (1 bit per slot, LSB first),
//	float32 data for each active slot in slot order.
func (idx *Index) Persist() error {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	dir := filepath.Dir(idx.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".index-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := idx.encode(w); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding index: %w", err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("flushing index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmp.Name(), idx.path); err != nil {
		return fmt.Errorf("replacing index file: %w", err)
	}
	return nil
}

// Close persists the index.
func (idx *Index) Close() error {
	return idx.Persist()
}

func (idx *Index) encode(w io.Writer) error {
	header := []any{
		uint32(fileMagic),
		uint32(fileVersion),
		uint32(idx.dimension),
		uint64(len(idx.vectors)),
	}
	for _, v := range header {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	if err := writeBitmap(w, idx.vectors); err != nil {
		return err
	}

	for _, vec := range idx.vectors {
		if vec == nil {
			continue
		}
		for _, x := range vec {
			if err := binary.Write(w, binary.LittleEndian, math.Float32bits(x)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (idx *Index) load() error {
	f, err := os.Open(idx.path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	var magic, version, dimension uint32
	var slots uint64
	for _, v := range []any{&magic, &version, &dimension, &slots} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("reading header: %w", err)
		}
	}

	if magic != fileMagic {
		return errors.New("not a vector index file")
	}
	if version != fileVersion {
		return fmt.Errorf("unsupported index file version %d", version)
	}
	if int(dimension) != idx.dimension {
		return fmt.Errorf("%w: file has dimension %d, configured %d",
			domain.ErrDimensionMismatch, dimension, idx.dimension)
	}

	tombstoned, err := readBitmap(r, int(slots))
	if err != nil {
		return fmt.Errorf("reading tombstone bitmap: %w", err)
	}

	vectors := make([][]float32, slots)
	buf := make([]byte, 4)
	for slot := range vectors {
		if tombstoned[slot] {
			continue
		}
		vec := make([]float32, dimension)
		for i := range vec {
			if _, err := io.ReadFull(r, buf); err != nil {
				return fmt.Errorf("reading vector data: %w", err)
			}
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
		}
		vectors[slot] = vec
	}

	active := 0
	for _, vec := range vectors {
		if vec != nil {
			active++
		}
	}

	idx.mu.Lock()
	idx.vectors = vectors
	idx.active = active
	idx.mu.Unlock()
	return nil
}

// writeBitmap emits one bit per slot, set when the slot is tombstoned.
func writeBitmap(w io.Writer, vectors [][]float32) error {
	bitmap := make([]byte, (len(vectors)+7)/8)
	for slot, vec := range vectors {
		if vec == nil {
			bitmap[slot/8] |= 1 << (slot % 8)
		}
	}
	_, err := w.Write(bitmap)
	return err
}

func readBitmap(r io.Reader, slots int) ([]bool, error) {
	bitmap := make([]byte, (slots+7)/8)
	if _, err := io.ReadFull(r, bitmap); err != nil {
		return nil, err
	}
	tombstoned := make([]bool, slots)
	for slot := range tombstoned {
		tombstoned[slot] = bitmap[slot/8]&(1<<(slot%8)) != 0
	}
	return tombstoned, nil
}
