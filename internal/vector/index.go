// Package vector implements an append-only, disk-persisted flat index with
// exact k-nearest-neighbor search by squared Euclidean distance.
//
// Every vector stored in an index has the same length, equal to the
// dimension the index was opened with. Internal ids are insertion ranks:
// 0-based, monotonically increasing, never reused. Every mutation persists
// the full index to disk before returning, so a crash after a successful
// call never loses data written before that call.
package vector

import (
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
)

const (
	fileMagic   uint32 = 0x4B425658 // "KBVX"
	fileVersion uint32 = 1

	headerSize = 20 // magic + version + dim (uint32) + count (uint64)
)

// Result is a single nearest-neighbor match.
type Result struct {
	ID       int
	Distance float32
}

// Index is a flat L2 index over fixed-dimension vectors, persisted as a
// single binary file.
type Index struct {
	path string
	dim  int
	data []float32 // count*dim values in insertion order
}

// Open loads the index at path, creating an empty one if the file does not
// exist. If an existing file was written with a different dimension than
// expectedDim, it is discarded and replaced with a fresh empty index; this
// is destructive and logged loudly, as accepting mismatched data would
// silently break every subsequent search.
func Open(path string, expectedDim int) (*Index, error) {
	if expectedDim <= 0 {
		return nil, wrap("Open", fmt.Errorf("invalid dimension %d", expectedDim))
	}

	ix := &Index{path: path, dim: expectedDim}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := ix.persist(); err != nil {
			return nil, err
		}
		return ix, nil
	}
	if err != nil {
		return nil, wrap("Open", fmt.Errorf("%w: %v", ErrStorage, err))
	}

	storedDim, data, err := decodeFile(raw)
	if err != nil {
		return nil, wrap("Open", err)
	}
	if storedDim != expectedDim {
		log.Printf("vector: index at %s has dimension %d, expected %d; discarding and starting fresh",
			path, storedDim, expectedDim)
		if err := ix.persist(); err != nil {
			return nil, err
		}
		return ix, nil
	}

	ix.data = data
	return ix, nil
}

// Dimensions returns the configured vector dimension.
func (ix *Index) Dimensions() int {
	return ix.dim
}

// Size returns the number of stored vectors.
func (ix *Index) Size() int {
	return len(ix.data) / ix.dim
}

// At returns a copy of the vector stored under id.
func (ix *Index) At(id int) ([]float32, error) {
	if id < 0 || id >= ix.Size() {
		return nil, wrap("At", fmt.Errorf("id %d out of range [0,%d)", id, ix.Size()))
	}
	out := make([]float32, ix.dim)
	copy(out, ix.data[id*ix.dim:(id+1)*ix.dim])
	return out, nil
}

// Add appends vectors and returns their assigned internal ids in insertion
// order. The whole batch is rejected with ErrDimensionMismatch if any vector
// has the wrong length. The updated index is persisted before returning; a
// persistence failure rolls back the in-memory append so the call has no
// effect.
func (ix *Index) Add(vectors [][]float32) ([]int, error) {
	for i, v := range vectors {
		if len(v) != ix.dim {
			return nil, wrap("Add",
				fmt.Errorf("%w: vector %d has %d dimensions, index has %d", ErrDimensionMismatch, i, len(v), ix.dim))
		}
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	prev := len(ix.data)
	start := ix.Size()
	for _, v := range vectors {
		ix.data = append(ix.data, v...)
	}

	if err := ix.persist(); err != nil {
		ix.data = ix.data[:prev]
		return nil, err
	}

	ids := make([]int, len(vectors))
	for i := range ids {
		ids[i] = start + i
	}
	return ids, nil
}

// Search returns up to min(k, Size()) entries nearest to query, ordered by
// ascending squared Euclidean distance with ties broken by lower id. An
// empty index yields an empty result.
func (ix *Index) Search(query []float32, k int) ([]Result, error) {
	if len(query) != ix.dim {
		return nil, wrap("Search",
			fmt.Errorf("%w: query has %d dimensions, index has %d", ErrDimensionMismatch, len(query), ix.dim))
	}
	n := ix.Size()
	if n == 0 || k <= 0 {
		return nil, nil
	}

	results := make([]Result, n)
	for i := 0; i < n; i++ {
		results[i] = Result{ID: i, Distance: squaredL2(query, ix.data[i*ix.dim:(i+1)*ix.dim])}
	}
	sort.Slice(results, func(a, b int) bool {
		if results[a].Distance != results[b].Distance {
			return results[a].Distance < results[b].Distance
		}
		return results[a].ID < results[b].ID
	})

	if k > n {
		k = n
	}
	return results[:k], nil
}

// persist writes the full index to a temporary file in the same directory
// and renames it over the target path, so readers never observe a partial
// write.
func (ix *Index) persist() error {
	dir := filepath.Dir(ix.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return wrap("persist", fmt.Errorf("%w: %v", ErrStorage, err))
		}
	}

	tmp, err := os.CreateTemp(dir, ".index-*")
	if err != nil {
		return wrap("persist", fmt.Errorf("%w: %v", ErrStorage, err))
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(ix.encode()); err != nil {
		tmp.Close()
		return wrap("persist", fmt.Errorf("%w: %v", ErrStorage, err))
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return wrap("persist", fmt.Errorf("%w: %v", ErrStorage, err))
	}
	if err := tmp.Close(); err != nil {
		return wrap("persist", fmt.Errorf("%w: %v", ErrStorage, err))
	}
	if err := os.Rename(tmp.Name(), ix.path); err != nil {
		return wrap("persist", fmt.Errorf("%w: %v", ErrStorage, err))
	}
	return nil
}

func (ix *Index) encode() []byte {
	buf := make([]byte, headerSize+len(ix.data)*4)
	binary.LittleEndian.PutUint32(buf[0:], fileMagic)
	binary.LittleEndian.PutUint32(buf[4:], fileVersion)
	binary.LittleEndian.PutUint32(buf[8:], uint32(ix.dim))
	binary.LittleEndian.PutUint64(buf[12:], uint64(ix.Size()))
	for i, v := range ix.data {
		binary.LittleEndian.PutUint32(buf[headerSize+i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeFile(raw []byte) (dim int, data []float32, err error) {
	if len(raw) < headerSize {
		return 0, nil, fmt.Errorf("%w: file too short", ErrCorrupt)
	}
	if binary.LittleEndian.Uint32(raw[0:]) != fileMagic {
		return 0, nil, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint32(raw[4:]); v != fileVersion {
		return 0, nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	dim = int(binary.LittleEndian.Uint32(raw[8:]))
	count := int(binary.LittleEndian.Uint64(raw[12:]))
	if dim <= 0 || count < 0 {
		return 0, nil, fmt.Errorf("%w: invalid header", ErrCorrupt)
	}
	if len(raw) != headerSize+count*dim*4 {
		return 0, nil, fmt.Errorf("%w: size does not match header", ErrCorrupt)
	}

	data = make([]float32, count*dim)
	for i := range data {
		data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[headerSize+i*4:]))
	}
	return dim, data, nil
}

func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
