package llm

import (
	"strings"
	"testing"
)

func TestParseClassification(t *testing.T) {
	c, err := ParseClassification(`{"type": "preference", "tags": ["music", " jazz "], "importance": 2}`)
	if err != nil {
		t.Fatalf("ParseClassification failed: %v", err)
	}
	if c.Type != "preference" || c.Importance != 2 {
		t.Errorf("unexpected classification: %+v", c)
	}
	if len(c.Tags) != 2 || c.Tags[1] != "jazz" {
		t.Errorf("expected trimmed tags, got %v", c.Tags)
	}
}

func TestParseClassificationMalformed(t *testing.T) {
	if _, err := ParseClassification("sure! here is the json you asked for"); err == nil {
		t.Error("expected error for non-JSON reply")
	}
}

func TestParseClassificationDefaults(t *testing.T) {
	c, err := ParseClassification(`{"importance": 9}`)
	if err != nil {
		t.Fatalf("ParseClassification failed: %v", err)
	}
	if c.Type != "other" {
		t.Errorf("expected type fallback other, got %q", c.Type)
	}
	if c.Importance != 1 {
		t.Errorf("expected out-of-range importance clamped to 1, got %d", c.Importance)
	}
}

func TestParseFactsSentinel(t *testing.T) {
	for _, raw := range []string{"NONE", "none", "None.", "  NONE  ", ""} {
		if got := ParseFacts(raw); got != nil {
			t.Errorf("ParseFacts(%q): expected nil, got %v", raw, got)
		}
	}
}

func TestParseFactsStripsMarkers(t *testing.T) {
	facts := ParseFacts("- user likes jazz\n-   user plays guitar\n\nuser lives in berlin")
	want := []string{"user likes jazz", "user plays guitar", "user lives in berlin"}
	if len(facts) != len(want) {
		t.Fatalf("expected %d facts, got %d: %v", len(want), len(facts), facts)
	}
	for i := range want {
		if facts[i] != want[i] {
			t.Errorf("fact %d: expected %q, got %q", i, want[i], facts[i])
		}
	}
}

func TestParseFactsCapsCount(t *testing.T) {
	raw := "- one\n- two\n- three\n- four\n- five\n- six\n- seven"
	facts := ParseFacts(raw)
	if len(facts) != MaxFactsPerUtterance {
		t.Errorf("expected %d facts, got %d", MaxFactsPerUtterance, len(facts))
	}
}

func TestParseFactsCapsLength(t *testing.T) {
	long := strings.Repeat("x", 500)
	facts := ParseFacts("- " + long)
	if len(facts) != 1 || len(facts[0]) != 200 {
		t.Errorf("expected one 200-char fact, got %d facts, len %d", len(facts), len(facts[0]))
	}
}
