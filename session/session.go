// Package session wires memory, state tracking and the policy engine into
// the per-turn pipeline: buffer or capture the message, update state, pick a
// concern to follow up, build the behavior profile, retrieve and plan memory
// use, and optionally generate a reply through pluggable collaborators.
package session

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/miralabs/mira-go-sdk/core"
	"github.com/miralabs/mira-go-sdk/memory"
	"github.com/miralabs/mira-go-sdk/policy"
	"github.com/miralabs/mira-go-sdk/state"
)

// retrieveTopK is how many notes are pulled for each turn.
const retrieveTopK = 5

// TurnDecision is everything the pipeline decided about one user turn. When
// Held is true the message was absorbed into the story buffer and nothing
// else is populated except State.
type TurnDecision struct {
	// Held means no reply should be produced this turn.
	Held bool `json:"held"`

	// Text is the effective utterance after story-buffer merging.
	Text string `json:"text"`

	Profile    policy.Profile    `json:"profile"`
	MemoryPlan policy.MemoryPlan `json:"memory_plan"`
	Notes      []string          `json:"notes"`

	State state.Conversation `json:"state"`

	// Concern, if set, should be followed up on this turn.
	Concern *state.Concern `json:"concern,omitempty"`

	// AskDeeper allows one deeper personal question this turn.
	AskDeeper bool `json:"ask_deeper"`
}

// Responder turns a decision into reply text. Implementations typically
// render the profile and memory plan into a system prompt for a chat model.
type Responder interface {
	Respond(ctx context.Context, decision TurnDecision) (string, error)
}

// Rewriter post-processes a draft reply, e.g. to strip assistant-speak or
// enforce persona voice. A failed rewrite keeps the draft.
type Rewriter interface {
	Rewrite(ctx context.Context, draft string, decision TurnDecision) (string, error)
}

// Session runs the full turn pipeline for one user.
type Session struct {
	memory  *memory.Store
	tracker *state.Tracker
	engine  *policy.Engine
	rng     core.Rand

	responder Responder
	rewriter  Rewriter
}

// Option configures a Session.
type Option func(*Session)

// WithResponder sets the reply generator used by Respond.
func WithResponder(r Responder) Option {
	return func(s *Session) { s.responder = r }
}

// WithRewriter sets the optional reply post-processor.
func WithRewriter(r Rewriter) Option {
	return func(s *Session) { s.rewriter = r }
}

// WithRand overrides the random source shared by the tracker and the policy
// engine.
func WithRand(rng core.Rand) Option {
	return func(s *Session) { s.rng = rng }
}

// New creates a Session over a loaded memory store. trackerOpts are passed
// through to the state tracker (e.g. state.WithTurnLog).
func New(mem *memory.Store, opts []Option, trackerOpts ...state.Option) *Session {
	s := &Session{
		memory: mem,
		rng:    core.NewRand(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.tracker = state.NewTracker(mem, s.rng, trackerOpts...)
	s.engine = policy.NewEngine(s.rng)
	return s
}

// HandleMessage runs the decision pipeline for one user message. It never
// generates a reply; callers that want text should use Respond.
func (s *Session) HandleMessage(ctx context.Context, userText string) (*TurnDecision, error) {
	if s.tracker.ShouldHoldReply(userText) {
		s.tracker.AppendToStoryBuffer(userText)
		return &TurnDecision{Held: true, State: s.tracker.Snapshot()}, nil
	}

	text := userText
	if s.tracker.BufferingStory() {
		text = s.tracker.ConsumeStoryWith(userText)
	}

	// Capture before the clock ticks, so the note carries this turn's index.
	s.memory.CaptureUtterance(ctx, text, s.tracker.MessageCount()+1)

	s.tracker.UpdateFromUser(ctx, text)

	concern := s.tracker.PickConcernToFollowUp()
	s.tracker.MarkConcernAsked(concern)
	askDeeper := s.tracker.ShouldAskDeeperQuestion()

	snap := s.tracker.Snapshot()
	profile := s.engine.BuildProfile(snap, text)

	notes, err := s.memory.Retrieve(ctx, text, retrieveTopK)
	if err != nil {
		log.Printf("[SESSION] Retrieval failed, continuing without notes: %v", err)
		notes = nil
	}
	plan := policy.PlanMemoryUse(s.rng, notes)

	decision := &TurnDecision{
		Text:       text,
		Profile:    profile,
		MemoryPlan: plan,
		Notes:      notes,
		State:      snap,
		AskDeeper:  askDeeper,
	}
	if concern != nil {
		c := *concern
		decision.Concern = &c
	}
	return decision, nil
}

// Respond runs the pipeline and generates a reply through the configured
// responder. On a held turn the reply is empty and the decision says so.
func (s *Session) Respond(ctx context.Context, userText string) (string, *TurnDecision, error) {
	decision, err := s.HandleMessage(ctx, userText)
	if err != nil {
		return "", nil, err
	}
	if decision.Held {
		return "", decision, nil
	}
	if s.responder == nil {
		return "", decision, fmt.Errorf("no responder configured")
	}

	reply, err := s.responder.Respond(ctx, *decision)
	if err != nil {
		return "", decision, fmt.Errorf("generate reply: %w", err)
	}

	if s.rewriter != nil {
		rewritten, err := s.rewriter.Rewrite(ctx, reply, *decision)
		if err != nil {
			log.Printf("[SESSION] Rewrite failed, keeping draft: %v", err)
		} else if strings.TrimSpace(rewritten) != "" {
			reply = rewritten
		}
	}

	if strings.TrimSpace(reply) == "" {
		return "", decision, fmt.Errorf("responder returned empty reply")
	}
	return reply, decision, nil
}

// Summarize builds a prose profile of the user from stored notes.
func (s *Session) Summarize(ctx context.Context, maxNotes int) (string, error) {
	return s.memory.Summarize(ctx, maxNotes)
}

// Diagnostics is a point-in-time view of the session internals.
type Diagnostics struct {
	State     state.Conversation `json:"state"`
	NoteCount int                `json:"note_count"`
	IndexLen  int                `json:"index_len"`
	Notes     []string           `json:"notes"`
}

// Debug returns the current session internals for inspection.
func (s *Session) Debug() Diagnostics {
	return Diagnostics{
		State:     s.tracker.Snapshot(),
		NoteCount: s.memory.Count(),
		IndexLen:  s.memory.IndexLen(),
		Notes:     s.memory.AllNotes(),
	}
}
