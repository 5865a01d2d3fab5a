// Package memory provides the agent's long-term semantic memory: a durable,
// append-only collection of classified facts about the user, kept 1:1 aligned
// with a flat vector index for similarity retrieval.
//
// Architecture:
//   - Store: owns the note collection, dedup, persistence and retrieval
//   - index.Flat: append-only L2 similarity index over fixed-dimension vectors
//   - Embedder: text-to-vector conversion (OpenAI adapter, ONNX for offline,
//     mock for tests)
//   - llm.Classifier / llm.Extractor / llm.Summarizer: external language
//     service collaborators the Store delegates to
//
// Notes are never deleted. Storing a note whose text already exists
// (case-insensitive) bumps its importance instead of re-embedding. The note
// file and the index file are written on every accepted store; if a crash
// leaves their cardinalities out of step, Load truncates both to the smaller
// count rather than failing.
package memory
