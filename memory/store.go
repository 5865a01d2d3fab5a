package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/miralabs/mira-go-sdk/llm"
	"github.com/miralabs/mira-go-sdk/memory/index"
)

const (
	// DefaultNotesPath is where the note collection is persisted.
	DefaultNotesPath = "memory.json"

	// DefaultIndexPath is where the vector index is persisted.
	DefaultIndexPath = "memory.index"

	// EmptyProfileSummary is returned by Summarize when nothing is known yet.
	EmptyProfileSummary = "no stable info about the user yet."

	// minUtteranceLen is the shortest utterance worth sending for extraction.
	minUtteranceLen = 5
)

// Config holds Store configuration.
type Config struct {
	// NotesPath is the note collection file. Default: memory.json.
	NotesPath string

	// IndexPath is the vector index file. Default: memory.index.
	IndexPath string
}

// DefaultConfig returns the standard on-disk layout.
var DefaultConfig = &Config{
	NotesPath: DefaultNotesPath,
	IndexPath: DefaultIndexPath,
}

// Store is the durable semantic memory for one user session.
//
// Invariant: the note collection and the vector index are always the same
// size and in the same order; index position i is note i. Notes are never
// deleted and importance only ever increases (capped at 3).
type Store struct {
	mu       sync.Mutex
	cfg      Config
	embedder Embedder
	service  llm.Service

	notes []Note
	index *index.Flat
}

// NewStore creates a Store backed by the given embedder and language
// service. Call Load before first use to pick up persisted state.
func NewStore(embedder Embedder, service llm.Service, cfg *Config) *Store {
	if cfg == nil {
		cfg = DefaultConfig
	}
	c := *cfg
	if c.NotesPath == "" {
		c.NotesPath = DefaultNotesPath
	}
	if c.IndexPath == "" {
		c.IndexPath = DefaultIndexPath
	}
	return &Store{
		cfg:      c,
		embedder: embedder,
		service:  service,
		index:    index.NewFlat(embedder.Dimensions()),
	}
}

// Load reads persisted notes and index from disk. If only one of the two
// files exists the store starts fresh; if their cardinalities disagree both
// are truncated to the smaller count, preferring correctness over
// completeness.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, notesErr := os.Stat(s.cfg.NotesPath)
	_, indexErr := os.Stat(s.cfg.IndexPath)
	if notesErr != nil || indexErr != nil {
		log.Printf("[MEMORY] Starting fresh memory")
		s.notes = nil
		s.index = index.NewFlat(s.embedder.Dimensions())
		return nil
	}

	data, err := os.ReadFile(s.cfg.NotesPath)
	if err != nil {
		return fmt.Errorf("read notes: %w", err)
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse notes: %w", err)
	}
	var notes []Note
	for _, entry := range raw {
		if n, ok := decodeNote(entry); ok {
			notes = append(notes, n)
		}
	}

	idx, err := index.LoadFlat(s.cfg.IndexPath, s.embedder.Dimensions())
	if err != nil {
		return fmt.Errorf("load index: %w", err)
	}

	if idx.Len() != len(notes) {
		n := idx.Len()
		if len(notes) < n {
			n = len(notes)
		}
		log.Printf("[MEMORY] Index/notes size mismatch (index=%d, notes=%d), truncating both to %d",
			idx.Len(), len(notes), n)
		notes = notes[:n]
		idx.Truncate(n)
	}

	s.notes = notes
	s.index = idx
	log.Printf("[MEMORY] Loaded %d memory notes", len(s.notes))
	return nil
}

// Store persists one fact about the user. Empty text is a no-op. If the
// same text already exists (case-insensitive) its importance is bumped
// instead of re-embedding. sourceMsg and turn are optional provenance
// (turn 0 = unknown).
func (s *Store) Store(ctx context.Context, text, sourceMsg string, turn int) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.notes {
		if strings.EqualFold(s.notes[i].Text, text) {
			if s.notes[i].Importance < 3 {
				s.notes[i].Importance++
			}
			log.Printf("[MEMORY] Duplicate note, bumping importance to %d: %s", s.notes[i].Importance, text)
			return s.saveNotes()
		}
	}

	typ, tags, importance := s.classify(ctx, text)

	emb, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed note: %w", err)
	}
	if err := s.index.Add(emb); err != nil {
		return fmt.Errorf("index note: %w", err)
	}

	note := newNote(text, typ, tags, importance, sourceMsg, turn)
	s.notes = append(s.notes, note)
	log.Printf("[MEMORY] Stored note: %s (type=%s, importance=%d)", note.Text, note.Type, note.Importance)

	// Notes first, index second: a crash in between is repaired by the
	// load-time truncation check.
	if err := s.saveNotes(); err != nil {
		return err
	}
	if err := s.index.Save(s.cfg.IndexPath); err != nil {
		return fmt.Errorf("save index: %w", err)
	}
	return nil
}

// classify delegates note classification and falls back to (other, nil, 1)
// when the collaborator fails or returns garbage.
func (s *Store) classify(ctx context.Context, text string) (NoteType, []string, int) {
	c, err := s.service.Classify(ctx, text)
	if err != nil {
		log.Printf("[MEMORY] Classification failed, using fallback: %v", err)
		return NoteOther, nil, 1
	}
	return noteTypeOf(c.Type), c.Tags, c.Importance
}

// noteTypeOf maps a collaborator-provided type string onto the known enum.
func noteTypeOf(t string) NoteType {
	switch typ := NoteType(strings.ToLower(strings.TrimSpace(t))); typ {
	case NoteIdentity, NotePreference, NoteGoal, NoteWorry, NoteRelationship,
		NoteStory, NotePersonalityTrait, NoteMoodPattern, NoteLegacy:
		return typ
	default:
		return NoteOther
	}
}

// CaptureUtterance runs fact extraction over one user message and stores
// every returned fact. Ultra-short messages are never sent for extraction;
// extraction failure degrades to a logged no-op.
func (s *Store) CaptureUtterance(ctx context.Context, text string, turn int) {
	cleaned := strings.TrimSpace(text)
	if len(cleaned) < minUtteranceLen {
		return
	}

	facts, err := s.service.Extract(ctx, cleaned)
	if err != nil {
		log.Printf("[MEMORY] Extraction failed, skipping: %v", err)
		return
	}
	for _, fact := range facts {
		if err := s.Store(ctx, fact, cleaned, turn); err != nil {
			log.Printf("[MEMORY] Failed to store fact %q: %v", fact, err)
		}
	}
}

// Retrieve returns up to topK note texts nearest to the query's embedding.
// An empty query or an empty store yields an empty result.
func (s *Store) Retrieve(ctx context.Context, query string, topK int) ([]string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}

	s.mu.Lock()
	empty := len(s.notes) == 0
	s.mu.Unlock()
	if empty {
		return nil, nil
	}

	emb, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	results, err := s.index.Search(emb, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	texts := make([]string, 0, len(results))
	for _, r := range results {
		if r.Pos >= 0 && r.Pos < len(s.notes) {
			texts = append(texts, s.notes[r.Pos].Text)
		}
	}
	return texts, nil
}

// HasAny reports whether anything is known about the user yet.
func (s *Store) HasAny() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes) > 0
}

// Count returns the current note count.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// IndexLen returns the vector index size. Always equal to Count.
func (s *Store) IndexLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Len()
}

// AllNotes returns the note texts in store order, for diagnostics.
func (s *Store) AllNotes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	texts := make([]string, len(s.notes))
	for i, n := range s.notes {
		texts[i] = n.Text
	}
	return texts
}

// StructuredNotes returns a copy of the full note records, for diagnostics
// and relationship-stage scoring.
func (s *Store) StructuredNotes() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Note, len(s.notes))
	copy(out, s.notes)
	return out
}

// Summarize builds a prose profile from the highest-importance notes.
func (s *Store) Summarize(ctx context.Context, maxNotes int) (string, error) {
	s.mu.Lock()
	if len(s.notes) == 0 {
		s.mu.Unlock()
		return EmptyProfileSummary, nil
	}
	sorted := make([]Note, len(s.notes))
	copy(sorted, s.notes)
	s.mu.Unlock()

	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Importance > sorted[b].Importance
	})
	if maxNotes > 0 && len(sorted) > maxNotes {
		sorted = sorted[:maxNotes]
	}
	texts := make([]string, len(sorted))
	for i, n := range sorted {
		texts[i] = n.Text
	}

	summary, err := s.service.Summarize(ctx, texts)
	if err != nil {
		return "", fmt.Errorf("summarize profile: %w", err)
	}
	return summary, nil
}

// saveNotes writes the note collection. Caller holds the lock.
func (s *Store) saveNotes() error {
	data, err := json.MarshalIndent(s.notes, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal notes: %w", err)
	}
	if err := os.WriteFile(s.cfg.NotesPath, data, 0o644); err != nil {
		return fmt.Errorf("save notes: %w", err)
	}
	return nil
}
