// Package index implements a flat, append-only similarity index over
// fixed-dimension embedding vectors with exact L2 nearest-neighbor search.
package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"sort"
)

// fileMagic identifies a persisted flat index.
const fileMagic uint32 = 0x4d495258 // "MIRX"

// Result is one search hit: the position of a stored vector and its
// squared L2 distance to the query.
type Result struct {
	Pos      int
	Distance float32
}

// Flat is an append-only flat index. Position i always refers to the i-th
// vector ever added; vectors are never reordered or removed except by
// Truncate during load-time recovery.
type Flat struct {
	dim     int
	vectors [][]float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

// Dim returns the configured vector dimension.
func (f *Flat) Dim() int { return f.dim }

// Len returns the number of stored vectors.
func (f *Flat) Len() int { return len(f.vectors) }

// Add appends one vector. The vector is copied, so the caller may reuse
// its slice.
func (f *Flat) Add(vec []float32) error {
	if len(vec) != f.dim {
		return fmt.Errorf("index: vector dimension mismatch: expected %d, got %d", f.dim, len(vec))
	}
	cp := make([]float32, f.dim)
	copy(cp, vec)
	f.vectors = append(f.vectors, cp)
	return nil
}

// Search returns the k nearest stored vectors by L2 distance, closest first.
// k is clamped to the index size; an empty index yields an empty result.
func (f *Flat) Search(query []float32, k int) ([]Result, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("index: query dimension mismatch: expected %d, got %d", f.dim, len(query))
	}
	if k > len(f.vectors) {
		k = len(f.vectors)
	}
	if k <= 0 || len(f.vectors) == 0 {
		return nil, nil
	}

	results := make([]Result, len(f.vectors))
	for i, vec := range f.vectors {
		results[i] = Result{Pos: i, Distance: l2(query, vec)}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Distance < results[b].Distance
	})
	return results[:k], nil
}

// Truncate discards all vectors at position n and beyond. Used only by
// load-time consistency recovery.
func (f *Flat) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	if n < len(f.vectors) {
		f.vectors = f.vectors[:n]
	}
}

// Save writes the index to path. Layout: magic, dim, count, then raw
// little-endian float32 data.
func (f *Flat) Save(path string) error {
	buf := make([]byte, 12+4*f.dim*len(f.vectors))
	binary.LittleEndian.PutUint32(buf[0:4], fileMagic)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(f.dim))
	binary.LittleEndian.PutUint32(buf[8:12], uint32(len(f.vectors)))
	off := 12
	for _, vec := range f.vectors {
		for _, v := range vec {
			binary.LittleEndian.PutUint32(buf[off:off+4], math.Float32bits(v))
			off += 4
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("index: write %s: %w", path, err)
	}
	return nil
}

// LoadFlat reads an index previously written by Save. The stored dimension
// must match dim.
func LoadFlat(path string, dim int) (*Flat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("index: read %s: %w", path, err)
	}
	if len(data) < 12 {
		return nil, fmt.Errorf("index: %s: file too short", path)
	}
	if binary.LittleEndian.Uint32(data[0:4]) != fileMagic {
		return nil, fmt.Errorf("index: %s: bad magic", path)
	}
	fileDim := int(binary.LittleEndian.Uint32(data[4:8]))
	count := int(binary.LittleEndian.Uint32(data[8:12]))
	if fileDim != dim {
		return nil, fmt.Errorf("index: %s: dimension mismatch: expected %d, got %d", path, dim, fileDim)
	}
	if len(data) < 12+4*fileDim*count {
		return nil, fmt.Errorf("index: %s: truncated vector data", path)
	}

	f := NewFlat(dim)
	off := 12
	for i := 0; i < count; i++ {
		vec := make([]float32, dim)
		for j := 0; j < dim; j++ {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off : off+4]))
			off += 4
		}
		f.vectors = append(f.vectors, vec)
	}
	return f, nil
}

// l2 computes the squared L2 distance between two equal-length vectors.
func l2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}
