package state

import "strings"

// The lexical detectors below are deliberately isolated pure predicates over
// fixed phrase tables, so each can be tested (and later replaced by a
// learned classifier) without touching the tracker.

var moodEmoji = []struct {
	mood   Mood
	emojis []string
}{
	{MoodSad, []string{"😭", "😢", "💔", "🥹"}},
	{MoodHappy, []string{"😂", "🤣", "😆", "😹"}},
	{MoodAngry, []string{"😡", "🤬", "😤"}},
	{MoodTired, []string{"😴", "🥱", "💤"}},
}

var moodWords = []struct {
	mood  Mood
	words []string
}{
	{MoodSad, []string{"sad", "depressed", "down", "upset", "lonely", "cry"}},
	{MoodStressed, []string{"stressed", "overwhelmed", "anxious", "anxiety", "panic"}},
	{MoodAngry, []string{"angry", "pissed", "mad", "furious", "irritated"}},
	{MoodHappy, []string{"excited", "hyped", "happy", "good", "great", "awesome", "loving it"}},
	{MoodTired, []string{"tired", "exhausted", "sleepy", "drained", "worn out"}},
}

var privacyPhrases = []string{
	"don't want to share",
	"dont want to share",
	"don't wanna share",
	"dont wanna share",
	"private information",
	"too private",
	"not comfortable sharing",
	"none of your business",
}

var futurePhrases = []string{"next week", "tomorrow", "soon", "next month"}

var positivePhrases = []string{"haha", "lol", "lmao", "love this", "this is nice", "that's nice", "thats nice"}

var hostilePhrases = []string{"stupid", "dumb", "hate you", "annoying", "useless"}

var bettermentPhrases = []string{"i'm better", "im better", "feeling better", "much better now"}

// DetectMood classifies the user's mood from emoji and lexical cues. Emoji
// cues take precedence; within each tier the first matching category wins.
func DetectMood(text string) Mood {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	for _, e := range moodEmoji {
		if containsAny(trimmed, e.emojis) {
			return e.mood
		}
	}
	for _, w := range moodWords {
		if containsAny(lower, w.words) {
			return w.mood
		}
	}
	return MoodNeutral
}

// WantsPrivacy reports whether the text is a boundary refusal.
func WantsPrivacy(text string) bool {
	return containsAny(strings.ToLower(text), privacyPhrases)
}

// MentionsFuture reports whether the text references upcoming events worth
// keeping as an open loop.
func MentionsFuture(text string) bool {
	return containsAny(strings.ToLower(text), futurePhrases)
}

// IsPositiveReaction reports laughter or appreciation cues.
func IsPositiveReaction(text string) bool {
	return containsAny(strings.ToLower(text), positivePhrases)
}

// IsHostile reports insulting or dismissive language.
func IsHostile(text string) bool {
	return containsAny(strings.ToLower(text), hostilePhrases)
}

// SaysFeelingBetter reports an explicit betterment signal that resolves
// health concerns.
func SaysFeelingBetter(text string) bool {
	return containsAny(strings.ToLower(text), bettermentPhrases)
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
