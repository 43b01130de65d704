package domain

import "time"

// TranscriptEvent is one finalized speech-to-text result delivered by the
// external transcription collaborator. EventID makes redelivery idempotent.
type TranscriptEvent struct {
	EventID    string    `json:"event_id"`
	SessionID  string    `json:"session_id"`
	RoomName   string    `json:"room_name"`
	UserID     string    `json:"user_id"`
	Text       string    `json:"text"`
	Language   string    `json:"language"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

type RoomEventType string

const (
	RoomEventParticipantLeft RoomEventType = "participant_left"
	RoomEventRoomEnded       RoomEventType = "room_ended"
)

// RoomEvent is a lifecycle signal from the external media-room collaborator.
// Both event types terminate the session immediately, whatever its state.
type RoomEvent struct {
	Type      RoomEventType `json:"type"`
	SessionID string        `json:"session_id"`
	RoomName  string        `json:"room_name"`
	Timestamp time.Time     `json:"timestamp"`
}

// SynthesisRequest is the fire-and-forget outbound message handed to the
// external text-to-speech collaborator.
type SynthesisRequest struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	VoiceID   string `json:"voice_id"`
	Language  string `json:"language"`
}
