// Package llm defines the contracts for the external language service the
// core delegates to: note classification, fact extraction and profile
// summarization. Implementations live in the provider subpackages
// (llm/openai, llm/anthropic); callers own retry and cancellation policy.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// NoFactsSentinel is the reply an extraction prompt returns when the
// utterance contains nothing worth remembering.
const NoFactsSentinel = "NONE"

// MaxFactsPerUtterance caps how many facts a single message may yield.
const MaxFactsPerUtterance = 5

// maxFactLen truncates runaway fact lines.
const maxFactLen = 200

// Classification is the structured result of classifying one note.
type Classification struct {
	Type       string   `json:"type"`
	Tags       []string `json:"tags"`
	Importance int      `json:"importance"`
}

// Classifier maps a note text to its type, tags and importance.
// A failed or malformed classification is an error; the memory store falls
// back to (other, nil, 1) rather than failing the store operation.
type Classifier interface {
	Classify(ctx context.Context, noteText string) (Classification, error)
}

// Extractor maps a raw user utterance to zero or more short fact strings,
// each phrased as a claim about the user. A "no facts" reply yields nil.
type Extractor interface {
	Extract(ctx context.Context, userText string) ([]string, error)
}

// Summarizer turns a list of note texts into a short prose profile.
type Summarizer interface {
	Summarize(ctx context.Context, notes []string) (string, error)
}

// Service bundles all three collaborator roles; the provider subpackages
// implement it with a single client.
type Service interface {
	Classifier
	Extractor
	Summarizer
}

// ParseClassification decodes the model's classification reply. The reply
// must be a bare JSON object; importance is clamped to 1..3 and non-string
// tags are dropped.
func ParseClassification(raw string) (Classification, error) {
	raw = strings.TrimSpace(raw)
	var c Classification
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Classification{}, fmt.Errorf("llm: malformed classification %q: %w", raw, err)
	}
	c.Type = strings.TrimSpace(c.Type)
	if c.Type == "" {
		c.Type = "other"
	}
	var tags []string
	for _, t := range c.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	c.Tags = tags
	if c.Importance < 1 || c.Importance > 3 {
		c.Importance = 1
	}
	return c, nil
}

// ParseFacts splits an extraction reply into individual fact strings.
// Lines are trimmed of list markers, capped in length, and limited to
// MaxFactsPerUtterance. The NONE sentinel (or an empty reply) yields nil.
func ParseFacts(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.HasPrefix(strings.ToUpper(raw), NoFactsSentinel) {
		return nil
	}

	var facts []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "-"))
		if line == "" {
			continue
		}
		if len(line) > maxFactLen {
			line = line[:maxFactLen]
		}
		facts = append(facts, line)
		if len(facts) == MaxFactsPerUtterance {
			break
		}
	}
	return facts
}
