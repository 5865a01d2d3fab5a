// Package openai implements memory.Embedder on top of the OpenAI
// embeddings API.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

// DefaultDimensions matches text-embedding-3-small.
const DefaultDimensions = 1536

// Config configures the OpenAI embedder.
type Config struct {
	// Model is the embedding model. Default: text-embedding-3-small.
	Model string

	// Dimensions is the expected vector size. Default: 1536.
	Dimensions int
}

// Embedder calls the OpenAI embeddings endpoint.
type Embedder struct {
	client *openai.Client
	cfg    Config
}

// New creates an embedder with a client configured from the environment.
func New(cfg Config) *Embedder {
	client := openai.NewClient()
	return NewFromClient(&client, cfg)
}

// NewFromClient creates an embedder from an existing client.
func NewFromClient(client *openai.Client, cfg Config) *Embedder {
	if cfg.Model == "" {
		cfg.Model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &Embedder{client: client, cfg: cfg}
}

// Embed converts text to an embedding vector. A vector of unexpected length
// is a configuration error, never truncated or padded.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.cfg.Model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}

	raw := resp.Data[0].Embedding
	if len(raw) != e.cfg.Dimensions {
		return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", e.cfg.Dimensions, len(raw))
	}
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

// Dimensions returns the configured embedding size.
func (e *Embedder) Dimensions() int {
	return e.cfg.Dimensions
}
