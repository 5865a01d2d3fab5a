// Package mock provides a deterministic embedder for tests and offline
// demos. Vectors are derived from a hash of the text, so identical texts
// always embed identically, but there is no real semantic similarity.
package mock

import (
	"context"
	"hash/fnv"
	"math"
)

// Embedder generates hash-seeded embeddings.
type Embedder struct {
	dimensions int
}

// New creates a mock embedder with the given dimensionality.
func New(dimensions int) *Embedder {
	return &Embedder{dimensions: dimensions}
}

// Embed creates a deterministic unit vector from the text hash.
func (m *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	embedding := make([]float32, m.dimensions)
	for i := 0; i < m.dimensions; i++ {
		seed = seed*6364136223846793005 + 1442695040888963407
		embedding[i] = float32(int64(seed)) / float32(math.MaxInt64)
	}
	return normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (m *Embedder) Dimensions() int {
	return m.dimensions
}

func normalize(vec []float32) []float32 {
	var norm float32
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = float32(math.Sqrt(float64(norm)))
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
