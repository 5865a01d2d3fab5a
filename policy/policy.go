// Package policy derives the per-turn behavior profile: how long to answer,
// whether to ask back, what tone and structure to use, and whether to lean
// on long-term memory. It is a pure function of the current conversation
// state and user text, side-effect-free except for its random draws.
package policy

import (
	"strings"

	"github.com/miralabs/mira-go-sdk/core"
	"github.com/miralabs/mira-go-sdk/state"
)

// StyleMode is the agent's energy band for this turn.
type StyleMode string

const (
	StyleLowEnergy  StyleMode = "low_energy"
	StyleNormal     StyleMode = "normal"
	StyleHighEnergy StyleMode = "high_energy"
)

// ReplyLength is the target reply size.
type ReplyLength string

const (
	LengthVeryShort ReplyLength = "very_short"
	LengthShort     ReplyLength = "short"
	LengthNormal    ReplyLength = "normal"
)

// Skeleton hints at the structural shape of the reply.
type Skeleton string

const (
	SkeletonReactionOnly        Skeleton = "reaction_only"
	SkeletonReactionPlusCounter Skeleton = "reaction_plus_counter_question"
	SkeletonAnswerPlusTease     Skeleton = "short_answer_plus_tease"
	SkeletonOneWordPlusEmoji    Skeleton = "one_word_plus_emoji"
	SkeletonMiniStory           Skeleton = "mini_story_plus_question"

	// SkeletonBrainLag is the confused/lagging variant forced by brain lag.
	SkeletonBrainLag Skeleton = "brain_lag"
)

// Profile is the full stylistic contract handed to response generation for
// one turn.
type Profile struct {
	StyleMode   StyleMode   `json:"style_mode"`
	ReplyLength ReplyLength `json:"reply_length"`

	AskCounterQuestion bool `json:"ask_counter_question"`
	AllowTopicShift    bool `json:"allow_topic_shift"`
	AllowRefusal       bool `json:"allow_refusal"`
	AllowImperfection  bool `json:"allow_imperfection"`
	UseEmoji           bool `json:"use_emoji"`

	SkeletonHint  Skeleton `json:"skeleton_hint"`
	ForceBrainLag bool     `json:"force_brain_lag"`

	// Echoed state, so the consumer needs no second lookup.
	AIEnergy int        `json:"ai_energy"`
	AITrust  int        `json:"ai_trust"`
	UserMood state.Mood `json:"user_mood"`

	// Detected heavy-topic flags that shaped the draws above.
	EmotionalConfession bool `json:"is_emotional_confession"`
	HeavyLifeTopic      bool `json:"is_heavy_life"`
}

var confessionPhrases = []string{
	"i think i like",
	"i like her",
	"i like him",
	"i love her",
	"i love him",
	"i caught feelings",
}

var heavyLifePhrases = []string{
	"am i a failure",
	"will i make it",
	"will i be successful",
	"what's the point",
	"whats the point",
	"i feel lost",
	"lost in life",
	"don't know what to do",
	"dont know what to do",
}

// reactionEmoji is the fixed set whose presence in the user's text loosens
// the agent's own emoji rate.
var reactionEmoji = []string{"😂", "🤣", "😅", "😭", "😍", "😌", "🥲", "😎", "🥺", "😡", "😤", "❤️", "💀"}

// Engine draws behavior profiles. The random source is injected so tests
// can force specific outcomes.
type Engine struct {
	rng core.Rand
}

// NewEngine creates a policy engine over the given random source.
func NewEngine(rng core.Rand) *Engine {
	return &Engine{rng: rng}
}

// BuildProfile derives this turn's behavior profile from the state snapshot
// and the user's message.
func (e *Engine) BuildProfile(snap state.Conversation, userText string) Profile {
	trimmed := strings.TrimSpace(userText)
	lower := strings.ToLower(trimmed)
	msgLen := len(trimmed)

	style := StyleNormal
	if snap.AIEnergy < 45 {
		style = StyleLowEnergy
	} else if snap.AIEnergy > 80 {
		style = StyleHighEnergy
	}

	confession := containsAny(lower, confessionPhrases)
	heavy := containsAny(lower, heavyLifePhrases)

	length := LengthNormal
	switch {
	case style == StyleLowEnergy || msgLen < 25:
		length = LengthVeryShort
	case msgLen < 80:
		length = LengthShort
	}

	// Counter questions: common but not every turn, and dialed down when
	// the user needs room.
	prob := 0.55
	if style == StyleLowEnergy {
		prob -= 0.20
	}
	if confession || heavy {
		prob -= 0.20
	}
	switch snap.UserMood {
	case state.MoodSad, state.MoodStressed, state.MoodAngry, state.MoodTired:
		prob -= 0.10
	}
	// A short direct question should not be dodged too hard.
	if strings.Contains(lower, "?") && msgLen < 40 {
		prob = maxFloat(prob, 0.35)
	}
	prob = clampFloat(prob, 0, 1)
	askCounter := e.rng.Float64() < prob

	allowTopicShift := e.rng.Float64() < 0.15

	emojiRate := 0.08
	if containsAny(trimmed, reactionEmoji) {
		emojiRate += 0.10
	}
	if style == StyleLowEnergy {
		emojiRate -= 0.04
	}
	if heavy {
		emojiRate -= 0.05
	}
	emojiRate = clampFloat(emojiRate, 0, 0.30)
	useEmoji := e.rng.Float64() < emojiRate

	skeleton := e.pickSkeleton(length)

	forceBrainLag := false
	if style != StyleHighEnergy && e.rng.Float64() < 0.08 {
		forceBrainLag = true
		skeleton = SkeletonBrainLag
		length = LengthVeryShort
		askCounter = false
	}

	return Profile{
		StyleMode:           style,
		ReplyLength:         length,
		AskCounterQuestion:  askCounter,
		AllowTopicShift:     allowTopicShift,
		AllowRefusal:        true,
		AllowImperfection:   true,
		UseEmoji:            useEmoji,
		SkeletonHint:        skeleton,
		ForceBrainLag:       forceBrainLag,
		AIEnergy:            snap.AIEnergy,
		AITrust:             snap.AITrustLevel,
		UserMood:            snap.UserMood,
		EmotionalConfession: confession,
		HeavyLifeTopic:      heavy,
	}
}

// pickSkeleton draws uniformly from the candidate set for the length tier.
func (e *Engine) pickSkeleton(length ReplyLength) Skeleton {
	var candidates []Skeleton
	switch length {
	case LengthVeryShort:
		candidates = []Skeleton{SkeletonReactionOnly, SkeletonOneWordPlusEmoji, SkeletonAnswerPlusTease}
	case LengthShort:
		candidates = []Skeleton{SkeletonReactionPlusCounter, SkeletonAnswerPlusTease, SkeletonReactionOnly}
	default:
		candidates = []Skeleton{SkeletonMiniStory, SkeletonAnswerPlusTease, SkeletonReactionPlusCounter}
	}
	return candidates[e.rng.Intn(len(candidates))]
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
