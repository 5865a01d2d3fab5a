package state

import "testing"

func TestStoryRoundTrip(t *testing.T) {
	tr := newTestTracker(t)

	chunks := []string{"wait", "i went to the store", "and then i saw sam"}
	for _, chunk := range chunks {
		if !tr.ShouldHoldReply(chunk) {
			t.Fatalf("expected %q to be held", chunk)
		}
		tr.AppendToStoryBuffer(chunk)
	}

	if tr.ShouldHoldReply("done") {
		t.Fatal("completion marker must flush, not hold")
	}
	merged := tr.ConsumeStoryWith("done")
	if merged != "i went to the store and then i saw sam" {
		t.Errorf("unexpected merged story: %q", merged)
	}
	if tr.BufferingStory() {
		t.Error("buffer must deactivate after consumption")
	}
	if tr.Snapshot().StoryBuffer != "" {
		t.Error("buffer must be empty after consumption")
	}
}

func TestStoryEllipsisActivates(t *testing.T) {
	tr := newTestTracker(t)

	if !tr.ShouldHoldReply("so yesterday something wild happened...") {
		t.Fatal("trailing ellipsis should activate buffering")
	}
	tr.AppendToStoryBuffer("so yesterday something wild happened...")

	merged := tr.ConsumeStoryWith("my bike got stolen")
	if merged != "so yesterday something wild happened... my bike got stolen" {
		t.Errorf("unexpected merged story: %q", merged)
	}
}

func TestStoryFinalChunkIncludedWhenNotMarker(t *testing.T) {
	tr := newTestTracker(t)

	tr.ShouldHoldReply("hold on")
	tr.AppendToStoryBuffer("hold on")
	tr.ShouldHoldReply("first part")
	tr.AppendToStoryBuffer("first part")

	merged := tr.ConsumeStoryWith("and the ending")
	if merged != "first part and the ending" {
		t.Errorf("unexpected merged story: %q", merged)
	}
}

func TestStoryInactiveByDefault(t *testing.T) {
	tr := newTestTracker(t)

	if tr.ShouldHoldReply("a normal message") {
		t.Error("ordinary messages must not be held")
	}
	if tr.ShouldHoldReply("done") {
		t.Error("completion marker outside a story must not hold")
	}
}

func TestStoryConsumeWithoutBuffer(t *testing.T) {
	tr := newTestTracker(t)

	if got := tr.ConsumeStoryWith("plain text"); got != "plain text" {
		t.Errorf("expected passthrough, got %q", got)
	}
}
