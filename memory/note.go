package memory

import (
	"encoding/json"

	"github.com/google/uuid"
)

// NoteType is the high-level category of a stored fact.
type NoteType string

const (
	NoteIdentity         NoteType = "identity"
	NotePreference       NoteType = "preference"
	NoteGoal             NoteType = "goal"
	NoteWorry            NoteType = "worry"
	NoteRelationship     NoteType = "relationship"
	NoteStory            NoteType = "story"
	NotePersonalityTrait NoteType = "personality_trait"
	NoteMoodPattern      NoteType = "mood_pattern"
	NoteOther            NoteType = "other"

	// NoteLegacy marks entries upgraded from the old plain-string format.
	NoteLegacy NoteType = "legacy"
)

// Note is a single durable fact about the user.
//
// The JSON field names match the persisted artifact so existing note files
// load unchanged.
type Note struct {
	ID         string   `json:"id,omitempty"`
	Text       string   `json:"text"`
	Type       NoteType `json:"type"`
	Tags       []string `json:"tags"`
	Importance int      `json:"importance"`

	// SourceMsg is the original utterance the note was extracted from.
	SourceMsg string `json:"source_msg,omitempty"`

	// CreatedAt is the turn index at which the note was stored, when known.
	CreatedAt int `json:"created_at,omitempty"`
}

// newNote builds a Note with a fresh ID and importance clamped to 1..3.
func newNote(text string, typ NoteType, tags []string, importance int, sourceMsg string, createdAt int) Note {
	if importance < 1 {
		importance = 1
	}
	if importance > 3 {
		importance = 3
	}
	return Note{
		ID:         uuid.New().String(),
		Text:       text,
		Type:       typ,
		Tags:       tags,
		Importance: importance,
		SourceMsg:  sourceMsg,
		CreatedAt:  createdAt,
	}
}

// decodeNote parses one persisted entry. Legacy entries are plain JSON
// strings; they are upgraded to typed notes on the spot.
func decodeNote(raw json.RawMessage) (Note, bool) {
	var legacy string
	if err := json.Unmarshal(raw, &legacy); err == nil {
		if legacy == "" {
			return Note{}, false
		}
		return Note{
			ID:         uuid.New().String(),
			Text:       legacy,
			Type:       NoteLegacy,
			Tags:       []string{},
			Importance: 1,
		}, true
	}

	var n Note
	if err := json.Unmarshal(raw, &n); err != nil || n.Text == "" {
		return Note{}, false
	}
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Type == "" {
		n.Type = NoteOther
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	if n.Importance < 1 {
		n.Importance = 1
	}
	if n.Importance > 3 {
		n.Importance = 3
	}
	return n, true
}
