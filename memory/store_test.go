package memory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/miralabs/mira-go-sdk/llm"
	"github.com/miralabs/mira-go-sdk/memory/index"
)

const testDim = 4

// stubEmbedder returns a deterministic vector derived from the text length.
type stubEmbedder struct {
	fail  bool
	calls int
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("embedder down")
	}
	vec := make([]float32, testDim)
	for i := range vec {
		vec[i] = float32(len(text) + i)
	}
	return vec, nil
}

func (e *stubEmbedder) Dimensions() int { return testDim }

// stubService implements llm.Service with overridable behavior.
type stubService struct {
	classifyFn  func(string) (llm.Classification, error)
	extractFn   func(string) ([]string, error)
	summarizeFn func([]string) (string, error)
}

func (s *stubService) Classify(ctx context.Context, text string) (llm.Classification, error) {
	if s.classifyFn != nil {
		return s.classifyFn(text)
	}
	return llm.Classification{Type: "other", Importance: 1}, nil
}

func (s *stubService) Extract(ctx context.Context, text string) ([]string, error) {
	if s.extractFn != nil {
		return s.extractFn(text)
	}
	return nil, nil
}

func (s *stubService) Summarize(ctx context.Context, notes []string) (string, error) {
	if s.summarizeFn != nil {
		return s.summarizeFn(notes)
	}
	return "summary", nil
}

func newTestStore(t *testing.T, service *stubService) (*Store, *stubEmbedder, Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := Config{
		NotesPath: filepath.Join(dir, "memory.json"),
		IndexPath: filepath.Join(dir, "memory.index"),
	}
	if service == nil {
		service = &stubService{}
	}
	emb := &stubEmbedder{}
	return NewStore(emb, service, &cfg), emb, cfg
}

func TestStoreEmptyTextIsNoOp(t *testing.T) {
	s, emb, _ := newTestStore(t, nil)
	ctx := context.Background()

	if err := s.Store(ctx, "   ", "", 0); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if s.Count() != 0 || emb.calls != 0 {
		t.Errorf("expected untouched store, got count=%d embeds=%d", s.Count(), emb.calls)
	}
}

func TestStoreDedupBumpsImportance(t *testing.T) {
	s, emb, _ := newTestStore(t, nil)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		if err := s.Store(ctx, "user likes jazz", "", 0); err != nil {
			t.Fatalf("Store %d failed: %v", i, err)
		}
	}

	notes := s.StructuredNotes()
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if notes[0].Importance != 3 {
		t.Errorf("expected importance capped at 3, got %d", notes[0].Importance)
	}
	if emb.calls != 1 {
		t.Errorf("duplicates must not re-embed, got %d embed calls", emb.calls)
	}
	if s.IndexLen() != 1 {
		t.Errorf("expected 1 index vector, got %d", s.IndexLen())
	}
}

func TestStoreDedupIsCaseInsensitive(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	ctx := context.Background()

	s.Store(ctx, "User Likes Jazz", "", 0)
	s.Store(ctx, "user likes jazz", "", 0)

	if s.Count() != 1 {
		t.Errorf("expected case-insensitive dedup, got %d notes", s.Count())
	}
}

func TestStoreKeepsNotesAndIndexInLockstep(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.Store(ctx, fmt.Sprintf("fact number %d", i), "", i+1); err != nil {
			t.Fatalf("Store failed: %v", err)
		}
	}
	if s.Count() != s.IndexLen() {
		t.Errorf("notes=%d index=%d, must match", s.Count(), s.IndexLen())
	}
}

func TestStoreEmbedFailureAborts(t *testing.T) {
	s, emb, _ := newTestStore(t, nil)
	emb.fail = true
	ctx := context.Background()

	if err := s.Store(ctx, "user likes jazz", "", 0); err == nil {
		t.Fatal("expected error from failing embedder")
	}
	if s.Count() != 0 || s.IndexLen() != 0 {
		t.Errorf("failed store must not leave partial state, notes=%d index=%d", s.Count(), s.IndexLen())
	}
}

func TestStoreClassifierFailureFallsBack(t *testing.T) {
	service := &stubService{
		classifyFn: func(string) (llm.Classification, error) {
			return llm.Classification{}, errors.New("service down")
		},
	}
	s, _, _ := newTestStore(t, service)
	ctx := context.Background()

	if err := s.Store(ctx, "user likes jazz", "", 0); err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	notes := s.StructuredNotes()
	if notes[0].Type != NoteOther || notes[0].Importance != 1 {
		t.Errorf("expected fallback (other, 1), got (%s, %d)", notes[0].Type, notes[0].Importance)
	}
}

func TestStoreUnknownTypeMapsToOther(t *testing.T) {
	service := &stubService{
		classifyFn: func(string) (llm.Classification, error) {
			return llm.Classification{Type: "philosophy", Importance: 2}, nil
		},
	}
	s, _, _ := newTestStore(t, service)

	s.Store(context.Background(), "user ponders existence", "", 0)
	if got := s.StructuredNotes()[0].Type; got != NoteOther {
		t.Errorf("expected other, got %s", got)
	}
}

func TestCaptureUtteranceSkipsShort(t *testing.T) {
	called := false
	service := &stubService{
		extractFn: func(string) ([]string, error) {
			called = true
			return nil, nil
		},
	}
	s, _, _ := newTestStore(t, service)

	s.CaptureUtterance(context.Background(), "hey", 1)
	if called {
		t.Error("extraction must be skipped for ultra-short messages")
	}
}

func TestCaptureUtteranceStoresFacts(t *testing.T) {
	service := &stubService{
		extractFn: func(string) ([]string, error) {
			return []string{"user plays guitar", "user lives in berlin"}, nil
		},
	}
	s, _, _ := newTestStore(t, service)

	s.CaptureUtterance(context.Background(), "i play guitar and live in berlin", 7)
	if s.Count() != 2 {
		t.Fatalf("expected 2 notes, got %d", s.Count())
	}
	for _, n := range s.StructuredNotes() {
		if n.CreatedAt != 7 {
			t.Errorf("expected created_at 7, got %d", n.CreatedAt)
		}
		if n.SourceMsg == "" {
			t.Error("expected source message provenance")
		}
	}
}

func TestCaptureUtteranceExtractionFailureIsNoOp(t *testing.T) {
	service := &stubService{
		extractFn: func(string) ([]string, error) {
			return nil, errors.New("service down")
		},
	}
	s, _, _ := newTestStore(t, service)

	s.CaptureUtterance(context.Background(), "long enough message", 1)
	if s.Count() != 0 {
		t.Errorf("expected no notes after failed extraction, got %d", s.Count())
	}
}

func TestRetrieveEmptyStore(t *testing.T) {
	s, _, _ := newTestStore(t, nil)

	notes, err := s.Retrieve(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(notes) != 0 {
		t.Errorf("expected empty result, got %v", notes)
	}
}

func TestRetrieveReturnsNearest(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	ctx := context.Background()

	// The stub embedder keys on text length, so equal-length texts are
	// exact neighbors.
	s.Store(ctx, "aaaa", "", 0)
	s.Store(ctx, "bbbbbbbbbb", "", 0)

	notes, err := s.Retrieve(ctx, "cccc", 1)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if len(notes) != 1 || notes[0] != "aaaa" {
		t.Errorf("expected nearest note aaaa, got %v", notes)
	}
}

func TestLoadFreshWhenFilesMissing(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Count() != 0 {
		t.Errorf("expected fresh store, got %d notes", s.Count())
	}
}

func TestLoadRoundTrip(t *testing.T) {
	service := &stubService{}
	dir := t.TempDir()
	cfg := Config{
		NotesPath: filepath.Join(dir, "memory.json"),
		IndexPath: filepath.Join(dir, "memory.index"),
	}
	ctx := context.Background()

	s := NewStore(&stubEmbedder{}, service, &cfg)
	s.Store(ctx, "user likes jazz", "msg", 3)
	s.Store(ctx, "user hates mornings", "msg", 4)

	reloaded := NewStore(&stubEmbedder{}, service, &cfg)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Count() != 2 || reloaded.IndexLen() != 2 {
		t.Fatalf("expected 2 notes and 2 vectors, got %d/%d", reloaded.Count(), reloaded.IndexLen())
	}
	if got := reloaded.AllNotes()[0]; got != "user likes jazz" {
		t.Errorf("expected store order preserved, got %q first", got)
	}
}

func TestLoadTruncatesOnCardinalityMismatch(t *testing.T) {
	service := &stubService{}
	dir := t.TempDir()
	cfg := Config{
		NotesPath: filepath.Join(dir, "memory.json"),
		IndexPath: filepath.Join(dir, "memory.index"),
	}
	ctx := context.Background()

	s := NewStore(&stubEmbedder{}, service, &cfg)
	for i := 0; i < 5; i++ {
		s.Store(ctx, fmt.Sprintf("fact number %d", i), "", 0)
	}

	// Simulate a crash that persisted more vectors than notes.
	idx, err := index.LoadFlat(cfg.IndexPath, testDim)
	if err != nil {
		t.Fatalf("reload index: %v", err)
	}
	idx.Truncate(3)
	if err := idx.Save(cfg.IndexPath); err != nil {
		t.Fatalf("save truncated index: %v", err)
	}

	reloaded := NewStore(&stubEmbedder{}, service, &cfg)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if reloaded.Count() != 3 || reloaded.IndexLen() != 3 {
		t.Errorf("expected both truncated to 3, got notes=%d index=%d", reloaded.Count(), reloaded.IndexLen())
	}
}

func TestLoadTruncatesWhenIndexLarger(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		NotesPath: filepath.Join(dir, "memory.json"),
		IndexPath: filepath.Join(dir, "memory.index"),
	}

	notesJSON := `["fact one", "fact two", "fact three"]`
	if err := os.WriteFile(cfg.NotesPath, []byte(notesJSON), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	idx := index.NewFlat(testDim)
	for i := 0; i < 5; i++ {
		idx.Add(make([]float32, testDim))
	}
	if err := idx.Save(cfg.IndexPath); err != nil {
		t.Fatalf("write index: %v", err)
	}

	s := NewStore(&stubEmbedder{}, &stubService{}, &cfg)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if s.Count() != 3 || s.IndexLen() != 3 {
		t.Errorf("expected both truncated to 3, got notes=%d index=%d", s.Count(), s.IndexLen())
	}
}

func TestLoadUpgradesLegacyStrings(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		NotesPath: filepath.Join(dir, "memory.json"),
		IndexPath: filepath.Join(dir, "memory.index"),
	}

	notesJSON := `["user likes jazz", {"text": "user plays guitar", "type": "preference", "tags": [], "importance": 2}]`
	if err := os.WriteFile(cfg.NotesPath, []byte(notesJSON), 0o644); err != nil {
		t.Fatalf("write notes: %v", err)
	}
	idx := index.NewFlat(testDim)
	idx.Add(make([]float32, testDim))
	idx.Add(make([]float32, testDim))
	if err := idx.Save(cfg.IndexPath); err != nil {
		t.Fatalf("write index: %v", err)
	}

	s := NewStore(&stubEmbedder{}, &stubService{}, &cfg)
	if err := s.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	notes := s.StructuredNotes()
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if notes[0].Type != NoteLegacy || notes[0].Importance != 1 {
		t.Errorf("expected legacy upgrade (legacy, 1), got (%s, %d)", notes[0].Type, notes[0].Importance)
	}
	if notes[1].Type != NotePreference || notes[1].Importance != 2 {
		t.Errorf("expected typed note preserved, got (%s, %d)", notes[1].Type, notes[1].Importance)
	}
}

func TestSummarizeEmptyStore(t *testing.T) {
	s, _, _ := newTestStore(t, nil)

	got, err := s.Summarize(context.Background(), 80)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if got != EmptyProfileSummary {
		t.Errorf("expected %q, got %q", EmptyProfileSummary, got)
	}
}

func TestSummarizeOrdersByImportanceAndCaps(t *testing.T) {
	var seen []string
	service := &stubService{
		classifyFn: func(text string) (llm.Classification, error) {
			imp := 1
			if text == "big fact" {
				imp = 3
			}
			return llm.Classification{Type: "other", Importance: imp}, nil
		},
		summarizeFn: func(notes []string) (string, error) {
			seen = notes
			return "profile", nil
		},
	}
	s, _, _ := newTestStore(t, service)
	ctx := context.Background()

	s.Store(ctx, "small fact one", "", 0)
	s.Store(ctx, "big fact", "", 0)
	s.Store(ctx, "small fact two", "", 0)

	if _, err := s.Summarize(ctx, 2); err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("expected 2 notes after cap, got %d", len(seen))
	}
	if seen[0] != "big fact" {
		t.Errorf("expected highest importance first, got %q", seen[0])
	}
	// Stable sort keeps equal-importance notes in store order.
	if seen[1] != "small fact one" {
		t.Errorf("expected stable ordering, got %q second", seen[1])
	}
}

func TestHasAny(t *testing.T) {
	s, _, _ := newTestStore(t, nil)
	if s.HasAny() {
		t.Error("fresh store should report no notes")
	}
	s.Store(context.Background(), "user likes jazz", "", 0)
	if !s.HasAny() {
		t.Error("expected HasAny after storing")
	}
}
