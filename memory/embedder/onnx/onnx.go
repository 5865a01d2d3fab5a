//go:build onnx

// Package onnx implements memory.Embedder with a local sentence-transformer
// model (all-MiniLM-L6-v2) running under ONNX Runtime. It allows fully
// offline operation at the cost of lower-quality embeddings than the hosted
// service.
package onnx

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
)

const (
	maxSeqLen = 128

	clsTokenID = 101
	sepTokenID = 102
	unkTokenID = 100
)

// Config configures the ONNX embedder.
type Config struct {
	// ModelPath is the path to the ONNX model file. Required.
	ModelPath string

	// TokenizerPath is the path to the tokenizer.json vocab file. Required.
	TokenizerPath string

	// SharedLibraryPath points at libonnxruntime. Required on platforms
	// where it is not on the default loader path.
	SharedLibraryPath string

	// Dimensions is the embedding vector size. Default: 384.
	Dimensions int
}

// Embedder runs sentence embedding inference locally.
type Embedder struct {
	session    *ort.DynamicAdvancedSession
	vocab      map[string]int
	dimensions int
}

// New loads the model and tokenizer and prepares an inference session.
func New(cfg Config) (*Embedder, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return nil, fmt.Errorf("onnx: ModelPath and TokenizerPath are required")
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = 384
	}

	if cfg.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("onnx: initialize runtime: %w", err)
	}

	vocab, err := loadVocab(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: create session: %w", err)
	}

	return &Embedder{
		session:    session,
		vocab:      vocab,
		dimensions: cfg.Dimensions,
	}, nil
}

// Embed tokenizes the text, runs inference, and mean-pools the hidden
// states into a normalized sentence vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	inputIDs := make([]int64, maxSeqLen)
	attention := make([]int64, maxSeqLen)
	tokenType := make([]int64, maxSeqLen)

	tokens := e.tokenize(text)
	if len(tokens) > maxSeqLen-2 {
		tokens = tokens[:maxSeqLen-2]
	}
	inputIDs[0] = clsTokenID
	attention[0] = 1
	for i, tok := range tokens {
		inputIDs[i+1] = tok
		attention[i+1] = 1
	}
	inputIDs[len(tokens)+1] = sepTokenID
	attention[len(tokens)+1] = 1

	shape := ort.NewShape(1, maxSeqLen)
	tensors := make([]ort.Value, 0, 3)
	for _, data := range [][]int64{inputIDs, attention, tokenType} {
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			for _, prev := range tensors {
				prev.Destroy()
			}
			return nil, fmt.Errorf("onnx: create input tensor: %w", err)
		}
		tensors = append(tensors, t)
	}
	defer func() {
		for _, t := range tensors {
			t.Destroy()
		}
	}()

	outputs := []ort.Value{nil}
	if err := e.session.Run(tensors, outputs); err != nil {
		return nil, fmt.Errorf("onnx: inference: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("onnx: unexpected output tensor type")
	}
	return e.pool(out, attention)
}

// pool mean-pools hidden states over attended tokens, handling both pooled
// [1, dim] and unpooled [1, seq, dim] model outputs.
func (e *Embedder) pool(out *ort.Tensor[float32], attention []int64) ([]float32, error) {
	data := out.GetData()
	shape := out.GetShape()

	embedding := make([]float32, e.dimensions)
	switch len(shape) {
	case 2:
		if len(data) < e.dimensions {
			return nil, fmt.Errorf("onnx: output dimension mismatch: expected %d, got %d", e.dimensions, len(data))
		}
		copy(embedding, data[:e.dimensions])
	case 3:
		seqLen, hidden := int(shape[1]), int(shape[2])
		if hidden != e.dimensions {
			return nil, fmt.Errorf("onnx: hidden size mismatch: expected %d, got %d", e.dimensions, hidden)
		}
		var attended float32
		for i := 0; i < seqLen && i < len(attention); i++ {
			if attention[i] == 0 {
				continue
			}
			attended++
			for j := 0; j < hidden; j++ {
				embedding[j] += data[i*hidden+j]
			}
		}
		if attended == 0 {
			return nil, fmt.Errorf("onnx: no attended tokens")
		}
		for j := range embedding {
			embedding[j] /= attended
		}
	default:
		return nil, fmt.Errorf("onnx: unexpected output shape %v", shape)
	}

	return normalize(embedding), nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close releases the inference session.
func (e *Embedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

// tokenize performs lowercase WordPiece tokenization against the loaded
// vocab.
func (e *Embedder) tokenize(text string) []int64 {
	var ids []int64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}
		if id, ok := e.vocab[word]; ok {
			ids = append(ids, int64(id))
			continue
		}
		for _, piece := range e.wordPieces(word) {
			if id, ok := e.vocab[piece]; ok {
				ids = append(ids, int64(id))
			} else {
				ids = append(ids, unkTokenID)
			}
		}
	}
	return ids
}

// wordPieces greedily splits a word into the longest matching vocab
// subwords, with the "##" continuation prefix after the first piece.
func (e *Embedder) wordPieces(word string) []string {
	var pieces []string
	start := 0
	for start < len(word) {
		end := len(word)
		matched := false
		for end > start {
			piece := word[start:end]
			if start > 0 {
				piece = "##" + piece
			}
			if _, ok := e.vocab[piece]; ok {
				pieces = append(pieces, piece)
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			pieces = append(pieces, "[UNK]")
			start++
		}
	}
	return pieces
}

// loadVocab reads the WordPiece vocab out of a tokenizer.json file.
func loadVocab(path string) (map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Model.Vocab) == 0 {
		return nil, fmt.Errorf("empty vocab in %s", path)
	}
	return parsed.Model.Vocab, nil
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
