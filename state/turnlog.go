package state

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// DefaultTurnLogPath is where per-turn snapshots are appended.
const DefaultTurnLogPath = "state_log.jsonl"

// TurnLog is an append-only JSONL record of every processed turn, kept for
// offline analysis. Writes are best-effort: a failed append is logged and
// never blocks the turn.
type TurnLog struct {
	path string
}

// NewTurnLog creates a log writing to path (DefaultTurnLogPath if empty).
func NewTurnLog(path string) *TurnLog {
	if path == "" {
		path = DefaultTurnLogPath
	}
	return &TurnLog{path: path}
}

type turnEntry struct {
	Ts           int64        `json:"ts"`
	MessageIndex int          `json:"message_index"`
	UserText     string       `json:"user_text"`
	State        Conversation `json:"state"`
}

// Append writes one snapshot line.
func (l *TurnLog) Append(messageIndex int, userText string, snap Conversation) {
	entry := turnEntry{
		Ts:           time.Now().Unix(),
		MessageIndex: messageIndex,
		UserText:     userText,
		State:        snap,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		log.Printf("[STATE] Failed to marshal turn log entry: %v", err)
		return
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("[STATE] Failed to open turn log: %v", err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("[STATE] Failed to write turn log: %v", err)
	}
}
