package memory

import "context"

// Embedder converts text to vector embeddings.
// Implementations: openai (production), onnx (offline, build tag), mock
// (testing), cache (decorator around any of them).
//
// Embed must return a vector of exactly Dimensions() length; the embedding
// dimension is agreed with the Store's index at construction time and a
// mismatch is a configuration error, never silently truncated.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
