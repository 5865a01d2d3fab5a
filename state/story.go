package state

import "strings"

// Multi-message story buffering: some users split one story across several
// physical sends ("wait", "...", then the chunks, then "done"). While the
// buffer is active the session holds its reply and accumulates chunks; the
// completion marker flushes everything as one merged utterance.

var holdMarkers = []string{"wait", "one sec", "hold on", "more coming", "i'll explain", "ill explain"}

var doneMarkers = []string{"done", "that's it", "thats it", "finished", "end"}

// ShouldHoldReply reports whether this message should be buffered instead
// of answered. An explicit hold marker or a trailing ellipsis activates
// buffering; while active, everything except a completion marker is held.
func (t *Tracker) ShouldHoldReply(text string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(text))

	if isExactMatch(trimmed, holdMarkers) {
		t.conv.StoryBufferActive = true
		return true
	}

	if t.conv.StoryBufferActive {
		if isExactMatch(trimmed, doneMarkers) {
			return false // flush signal
		}
		return true
	}

	if strings.HasSuffix(trimmed, "...") {
		t.conv.StoryBufferActive = true
		return true
	}
	return false
}

// AppendToStoryBuffer adds one chunk to the story buffer. Pure hold markers
// are signals, not content, and are skipped.
func (t *Tracker) AppendToStoryBuffer(text string) {
	chunk := strings.TrimSpace(text)
	if isExactMatch(strings.ToLower(chunk), holdMarkers) {
		return
	}
	if t.conv.StoryBuffer == "" {
		t.conv.StoryBuffer = chunk
		return
	}
	t.conv.StoryBuffer += " " + chunk
}

// ConsumeStoryWith merges the buffer with the final message, clears the
// buffer and deactivates buffering. A pure completion marker is treated as
// a terminator and omitted from the merged text.
func (t *Tracker) ConsumeStoryWith(text string) string {
	buf := strings.TrimSpace(t.conv.StoryBuffer)
	t.conv.StoryBuffer = ""
	t.conv.StoryBufferActive = false

	if buf == "" {
		return text
	}
	trimmed := strings.ToLower(strings.TrimSpace(text))
	if isExactMatch(trimmed, doneMarkers) {
		return buf
	}
	return strings.TrimSpace(buf + " " + text)
}

// BufferingStory reports whether the story buffer is currently active.
func (t *Tracker) BufferingStory() bool {
	return t.conv.StoryBufferActive
}

func isExactMatch(s string, markers []string) bool {
	for _, m := range markers {
		if s == m {
			return true
		}
	}
	return false
}
