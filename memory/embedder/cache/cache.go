// Package cache wraps any memory.Embedder with a ristretto cache keyed by
// the exact text. A single turn can embed the same utterance several times
// (fact capture, retrieval, diagnostics), so caching saves repeated calls to
// the embedding service.
package cache

import (
	"context"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/miralabs/mira-go-sdk/memory"
)

// Config configures the embedding cache.
type Config struct {
	// MaxEntries caps the number of cached embeddings. Default: 4096.
	MaxEntries int64
}

// Embedder is a caching decorator around another embedder.
type Embedder struct {
	inner memory.Embedder
	cache *ristretto.Cache
}

// New wraps inner with an embedding cache.
func New(inner memory.Embedder, cfg Config) (*Embedder, error) {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 4096
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: cfg.MaxEntries * 10,
		MaxCost:     cfg.MaxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &Embedder{inner: inner, cache: c}, nil
}

// Embed returns the cached vector for text, or delegates and caches the
// result. Errors are never cached.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.cache.Get(text); ok {
		if vec, ok := v.([]float32); ok {
			return vec, nil
		}
	}

	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Set(text, vec, 1)
	return vec, nil
}

// Dimensions returns the wrapped embedder's vector size.
func (e *Embedder) Dimensions() int {
	return e.inner.Dimensions()
}

// Wait blocks until buffered cache writes are applied. Ristretto admits
// entries asynchronously, so call this before relying on a hit.
func (e *Embedder) Wait() {
	e.cache.Wait()
}

// Close releases cache resources.
func (e *Embedder) Close() {
	e.cache.Close()
}
