package domain

import (
	"time"
)

type DialogueState string

const (
	StateIdle                 DialogueState = "Idle"
	StateClassifyingIntent    DialogueState = "ClassifyingIntent"
	StateAwaitingSlots        DialogueState = "AwaitingSlots"
	StateAwaitingConfirmation DialogueState = "AwaitingConfirmation"
	StateExecuting            DialogueState = "Executing"
	StateCancelled            DialogueState = "Cancelled"
	StateTimedOut             DialogueState = "TimedOut"
)

type Speaker string

const (
	SpeakerUser      Speaker = "user"
	SpeakerAssistant Speaker = "assistant"
)

// TurnEntry is one line of the bounded conversation history kept per session.
type TurnEntry struct {
	Speaker   Speaker   `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Session holds the conversational state for one active voice conversation.
// Mutated only by the orchestrator's per-session worker (single writer).
type Session struct {
	ID           string               `json:"id"`
	RoomName     string               `json:"room_name"`
	UserID       string               `json:"user_id"`
	Language     string               `json:"language"`
	State        DialogueState        `json:"state"`
	PendingIntent string              `json:"pending_intent,omitempty"`
	PendingSlots map[string]SlotValue `json:"pending_slots,omitempty"`
	// ConfirmRetried marks that one unclear confirmation answer has already
	// been re-prompted; the next unclear answer is treated as a negation.
	ConfirmRetried bool        `json:"confirm_retried,omitempty"`
	History        []TurnEntry `json:"history"`
	CreatedAt      time.Time   `json:"created_at"`
	LastActiveAt   time.Time   `json:"last_active_at"`
	ExpiresAt      time.Time   `json:"expires_at"`
	// StateDeadline applies to every non-Idle state; a session past it is
	// moved to TimedOut and back to Idle with pending work discarded.
	StateDeadline time.Time `json:"state_deadline,omitempty"`
}

func NewSession(id, roomName, userID, language string, now time.Time, ttl time.Duration) *Session {
	return &Session{
		ID:           id,
		RoomName:     roomName,
		UserID:       userID,
		Language:     language,
		State:        StateIdle,
		PendingSlots: make(map[string]SlotValue),
		CreatedAt:    now,
		LastActiveAt: now,
		ExpiresAt:    now.Add(ttl),
	}
}

// AppendTurn records one history line, evicting the oldest past limit.
func (s *Session) AppendTurn(speaker Speaker, text string, at time.Time, limit int) {
	s.History = append(s.History, TurnEntry{Speaker: speaker, Text: text, Timestamp: at})
	if limit > 0 && len(s.History) > limit {
		s.History = s.History[len(s.History)-limit:]
	}
}

// ClearPending resolves any pending intent. Every transition back to Idle
// goes through here so at most one pending intent ever exists.
func (s *Session) ClearPending() {
	s.PendingIntent = ""
	s.PendingSlots = make(map[string]SlotValue)
	s.ConfirmRetried = false
	s.StateDeadline = time.Time{}
}

func (s *Session) Touch(now time.Time, ttl time.Duration) {
	s.LastActiveAt = now
	s.ExpiresAt = now.Add(ttl)
}

func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// StateExpired reports whether the per-state deadline has passed for a
// non-Idle session.
func (s *Session) StateExpired(now time.Time) bool {
	return s.State != StateIdle && !s.StateDeadline.IsZero() && now.After(s.StateDeadline)
}
