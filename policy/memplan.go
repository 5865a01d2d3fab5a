package policy

import "github.com/miralabs/mira-go-sdk/core"

// MemoryMode is how confidently a surfaced note should be recalled.
type MemoryMode string

const (
	// MemoryStrong states the note as clear recall ("you said you like X").
	MemoryStrong MemoryMode = "strong"

	// MemoryHedged states the note as fuzzy recall ("i think you said...").
	MemoryHedged MemoryMode = "hedged"
)

// MemoryPlan decides what to do with retrieved notes this turn. Humans
// don't bring up everything they know every message, so surfacing is a coin
// flip even when relevant notes exist.
type MemoryPlan struct {
	// UseMemory is whether any note may be referenced this turn.
	UseMemory bool `json:"use_memory"`

	// Mode is set only when UseMemory is true.
	Mode MemoryMode `json:"mode,omitempty"`

	// PickedNote is the single note to reference, chosen uniformly.
	PickedNote string `json:"picked_note,omitempty"`

	// Notes are all retrieved candidates, for consumer context.
	Notes []string `json:"notes"`
}

// PlanMemoryUse draws this turn's memory decision over the retrieved notes:
// 50% chance to surface anything at all, then 70% confident vs 30% hedged
// recall of one uniformly chosen note.
func PlanMemoryUse(rng core.Rand, notes []string) MemoryPlan {
	if len(notes) == 0 {
		return MemoryPlan{}
	}
	if rng.Float64() < 0.5 {
		return MemoryPlan{Notes: notes}
	}

	mode := MemoryStrong
	if rng.Float64() >= 0.7 {
		mode = MemoryHedged
	}
	return MemoryPlan{
		UseMemory:  true,
		Mode:       mode,
		PickedNote: notes[rng.Intn(len(notes))],
		Notes:      notes,
	}
}
