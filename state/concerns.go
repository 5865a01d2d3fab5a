package state

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// ConcernType categorizes a tracked worry or event.
type ConcernType string

const (
	ConcernHealth       ConcernType = "health"
	ConcernExam         ConcernType = "exam"
	ConcernInterview    ConcernType = "interview"
	ConcernRelationship ConcernType = "relationship"
	ConcernGeneralWorry ConcernType = "general_worry"
)

// Concern is a worry or event the agent should eventually follow up on.
// At most one unresolved concern exists per type; concerns are never
// deleted, only resolved.
type Concern struct {
	Type ConcernType `json:"type"`

	// Text is the utterance that triggered the concern.
	Text string `json:"text"`

	// CreatedAt is the turn index at registration.
	CreatedAt int `json:"created_at"`

	// LastAskedAt is the turn index of the last follow-up, 0 if never asked
	// (turn indexes start at 1).
	LastAskedAt int `json:"last_asked_at,omitempty"`

	Resolved bool `json:"resolved"`

	// Severity is 1-3, frozen at registration time.
	Severity int `json:"severity"`
}

var concernPhrases = []struct {
	typ     ConcernType
	phrases []string
}{
	{ConcernHealth, []string{"i'm sick", "im sick", "not feeling well", "feeling sick", "got sick"}},
	{ConcernExam, []string{"exam", "test"}},
	{ConcernInterview, []string{"interview", "job interview"}},
	{ConcernRelationship, []string{"breakup", "broke up", "relationship ended"}},
	{ConcernGeneralWorry, []string{
		"worried", "worry",
		"don't know what to do", "dont know what to do",
		"lost about my life", "lost in life",
	}},
}

var panicPhrases = []string{"really scared", "panic", "freaking out", "can't sleep", "cant sleep", "very worried"}

var worryPhrases = []string{"worried", "nervous", "stressed", "anxious"}

// scanForConcerns tests the text against every concern phrase table and
// registers matches.
func (t *Tracker) scanForConcerns(ctx context.Context, text string) {
	lower := strings.ToLower(text)
	for _, c := range concernPhrases {
		if containsAny(lower, c.phrases) {
			t.registerConcern(ctx, c.typ, text)
		}
	}
}

// registerConcern adds a concern unless an unresolved one of the same type
// already exists, and mirrors it into long-term memory as a note.
func (t *Tracker) registerConcern(ctx context.Context, typ ConcernType, rawText string) {
	for i := range t.conv.Concerns {
		if t.conv.Concerns[i].Type == typ && !t.conv.Concerns[i].Resolved {
			return
		}
	}

	trimmed := strings.TrimSpace(rawText)
	concern := Concern{
		Type:      typ,
		Text:      trimmed,
		CreatedAt: t.conv.MessageCount,
		Severity:  concernSeverity(rawText),
	}
	t.conv.Concerns = append(t.conv.Concerns, concern)
	log.Printf("[STATE] Registered %s concern (severity=%d)", typ, concern.Severity)

	note := fmt.Sprintf("user has an ongoing concern about %s: %s", typ, trimmed)
	if err := t.memory.Store(ctx, note, trimmed, t.conv.MessageCount); err != nil {
		log.Printf("[STATE] Failed to mirror concern into memory: %v", err)
	}
}

// concernSeverity derives severity from intensifier language at
// registration time; it never changes afterwards.
func concernSeverity(text string) int {
	lower := strings.ToLower(text)
	if containsAny(lower, panicPhrases) {
		return 3
	}
	if containsAny(lower, worryPhrases) {
		return 2
	}
	return 1
}

// PickConcernToFollowUp selects the unresolved concern most due for a
// follow-up this turn, or nil. A concern must be at least 3 turns old and
// not asked about within the last 8 turns; among the eligible, the highest
// age + 3*severity wins, ties broken by encounter order.
func (t *Tracker) PickConcernToFollowUp() *Concern {
	now := t.conv.MessageCount
	best := -1
	bestScore := -1

	for i := range t.conv.Concerns {
		c := &t.conv.Concerns[i]
		if c.Resolved {
			continue
		}
		age := now - c.CreatedAt
		if age < 3 {
			continue
		}
		if c.LastAskedAt > 0 && now-c.LastAskedAt < 8 {
			continue
		}
		score := age + 3*c.Severity
		if score > bestScore {
			bestScore = score
			best = i
		}
	}

	if best < 0 {
		return nil
	}
	return &t.conv.Concerns[best]
}

// MarkConcernAsked stamps the concern as followed up this turn. No-op on
// nil.
func (t *Tracker) MarkConcernAsked(c *Concern) {
	if c == nil {
		return
	}
	c.LastAskedAt = t.conv.MessageCount
}

// resolveConcerns marks health concerns resolved when the user says they
// are feeling better.
func (t *Tracker) resolveConcerns(text string) {
	if !SaysFeelingBetter(text) {
		return
	}
	for i := range t.conv.Concerns {
		if t.conv.Concerns[i].Type == ConcernHealth && !t.conv.Concerns[i].Resolved {
			t.conv.Concerns[i].Resolved = true
			log.Printf("[STATE] Resolved health concern")
		}
	}
}
