// Package state tracks the latent conversational state of one chat session:
// moods, energy, trust, relationship stage, engagement, open loops, pending
// concerns and the multi-message story buffer. The Tracker updates all of it
// exactly once per incoming user turn; the policy engine reads the resulting
// snapshot.
package state

import (
	"context"
	"strings"

	"github.com/miralabs/mira-go-sdk/core"
	"github.com/miralabs/mira-go-sdk/memory"
)

// Mood is the user's detected affective state for the current turn.
type Mood string

const (
	MoodNeutral  Mood = "neutral"
	MoodSad      Mood = "sad"
	MoodStressed Mood = "stressed"
	MoodHappy    Mood = "happy"
	MoodAngry    Mood = "angry"
	MoodTired    Mood = "tired"
)

// AIMood is the agent's own tone, derived from the user's mood.
type AIMood string

const (
	AIMoodChill      AIMood = "chill"
	AIMoodPlayful    AIMood = "playful"
	AIMoodSerious    AIMood = "serious"
	AIMoodSupportive AIMood = "supportive"
)

// Stage is the coarse relationship ordinal derived from accumulated memory.
type Stage string

const (
	StageStranger      Stage = "stranger"
	StageGettingToKnow Stage = "getting_to_know"
	StageFriend        Stage = "friend"
	StageCloseFriend   Stage = "close_friend"
)

// Conversation is the full per-session state. JSON tags match the turn log
// artifact.
type Conversation struct {
	RelationshipStage Stage  `json:"relationship_stage"`
	AITrustLevel      int    `json:"ai_trust_level"`
	UserMood          Mood   `json:"user_mood"`
	AIMood            AIMood `json:"ai_mood"`
	AIEnergy          int    `json:"ai_energy"`

	PrivacyRefusal bool `json:"privacy_refusal"`

	MessageCount   int `json:"message_count"`
	UserEngagement int `json:"user_engagement"`

	OpenLoops []string  `json:"open_loops"`
	Concerns  []Concern `json:"concerns"`

	StoryBufferActive bool   `json:"story_buffer_active"`
	StoryBuffer       string `json:"story_buffer"`
}

// initialConversation is the state of a brand-new session.
func initialConversation() Conversation {
	return Conversation{
		RelationshipStage: StageStranger,
		AITrustLevel:      10,
		UserMood:          MoodNeutral,
		AIMood:            AIMoodChill,
		AIEnergy:          70,
		UserEngagement:    50,
	}
}

// Tracker owns the Conversation for one session. It is created at session
// start and torn down at session end; nothing outside this package mutates
// the state directly.
type Tracker struct {
	conv    Conversation
	memory  *memory.Store
	rng     core.Rand
	turnLog *TurnLog
}

// Option configures the tracker.
type Option func(*Tracker)

// WithTurnLog enables the append-only per-turn state log.
func WithTurnLog(l *TurnLog) Option {
	return func(t *Tracker) {
		t.turnLog = l
	}
}

// NewTracker creates a Tracker over a fresh conversation. The memory store
// feeds relationship-stage scoring and receives mirrored concern notes.
func NewTracker(mem *memory.Store, rng core.Rand, opts ...Option) *Tracker {
	t := &Tracker{
		conv:   initialConversation(),
		memory: mem,
		rng:    rng,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Snapshot returns a deep copy of the current conversation state.
func (t *Tracker) Snapshot() Conversation {
	snap := t.conv
	snap.OpenLoops = append([]string(nil), t.conv.OpenLoops...)
	snap.Concerns = append([]Concern(nil), t.conv.Concerns...)
	return snap
}

// MessageCount returns the number of user turns processed so far.
func (t *Tracker) MessageCount() int {
	return t.conv.MessageCount
}

// UpdateFromUser processes one real user turn. Call it exactly once per
// turn: it increments the message clock, re-derives every per-turn signal,
// registers and resolves concerns, and appends a snapshot to the turn log.
func (t *Tracker) UpdateFromUser(ctx context.Context, text string) {
	t.conv.MessageCount++

	mood := DetectMood(text)
	t.conv.UserMood = mood
	t.conv.AIMood = aiMoodFor(mood)

	// Recomputed fresh each turn, never sticky.
	t.conv.PrivacyRefusal = WantsPrivacy(text)

	if MentionsFuture(text) {
		t.conv.OpenLoops = append(t.conv.OpenLoops, strings.TrimSpace(text))
	}

	t.updateRelationshipStage()
	t.updateEnergyAndTrust(text)
	t.updateEngagement(text)

	t.scanForConcerns(ctx, text)
	t.resolveConcerns(text)

	if t.turnLog != nil {
		t.turnLog.Append(t.conv.MessageCount, text, t.Snapshot())
	}
}

// aiMoodFor mirrors negative affect with a supportive tone, positive affect
// with a playful one, and stays chill otherwise.
func aiMoodFor(mood Mood) AIMood {
	switch mood {
	case MoodSad, MoodStressed, MoodAngry, MoodTired:
		return AIMoodSupportive
	case MoodHappy:
		return AIMoodPlayful
	default:
		return AIMoodChill
	}
}

// updateRelationshipStage maps a weighted score over structured memory to a
// stage. Relationship notes weigh x3, goals and worries x2, everything else
// x1, each multiplied by the note's importance.
func (t *Tracker) updateRelationshipStage() {
	score := 0
	for _, n := range t.memory.StructuredNotes() {
		switch n.Type {
		case memory.NoteRelationship:
			score += 3 * n.Importance
		case memory.NoteGoal, memory.NoteWorry:
			score += 2 * n.Importance
		default:
			score += n.Importance
		}
	}

	switch {
	case score == 0:
		t.conv.RelationshipStage = StageStranger
	case score < 6:
		t.conv.RelationshipStage = StageGettingToKnow
	case score < 20:
		t.conv.RelationshipStage = StageFriend
	default:
		t.conv.RelationshipStage = StageCloseFriend
	}
}

// updateEnergyAndTrust applies the per-turn dynamics: slow energy decay,
// boosts for positive reactions, trust loss for hostility.
func (t *Tracker) updateEnergyAndTrust(text string) {
	t.conv.AIEnergy = max(30, t.conv.AIEnergy-1)

	if IsPositiveReaction(text) {
		t.conv.AIEnergy = min(100, t.conv.AIEnergy+3)
		t.conv.AITrustLevel = min(100, t.conv.AITrustLevel+2)
	}
	if IsHostile(text) {
		t.conv.AITrustLevel = max(0, t.conv.AITrustLevel-5)
	}
}

// updateEngagement estimates engagement from message length and questions.
func (t *Tracker) updateEngagement(text string) {
	trimmed := strings.TrimSpace(text)

	score := 0
	if len(trimmed) > 40 {
		score++
	}
	if len(trimmed) > 120 {
		score++
	}
	if strings.Contains(trimmed, "?") {
		score++
	}

	t.conv.UserEngagement = clamp(t.conv.UserEngagement-1+5*score, 0, 100)
}

// ShouldAskDeeperQuestion decides probabilistically whether this turn may
// carry one deeper personal question. Only established relationships with
// enough trust and energy qualify, and even then only ~15% of turns.
func (t *Tracker) ShouldAskDeeperQuestion() bool {
	c := &t.conv
	if c.RelationshipStage != StageFriend && c.RelationshipStage != StageCloseFriend {
		return false
	}
	if c.MessageCount < 5 {
		return false
	}
	if c.AITrustLevel < 30 || c.AIEnergy < 40 {
		return false
	}
	return t.rng.Float64() < 0.15
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
