package domain

import "time"

// TurnRecord is the persisted audit row for one orchestration cycle. It backs
// the turn-history API and is never consulted by the dialogue itself; the
// bounded in-memory history on Session remains the classification context.
type TurnRecord struct {
	ID           string      `json:"id" gorm:"primaryKey"`
	SessionID    string      `json:"session_id" gorm:"index"`
	EventID      string      `json:"event_id" gorm:"index"`
	RoomName     string      `json:"room_name"`
	UserID       string      `json:"user_id"`
	Utterance    string      `json:"utterance"`
	Intent       string      `json:"intent"`
	Confidence   float64     `json:"confidence"`
	Outcome      OutcomeKind `json:"outcome"`
	ResponseText string      `json:"response_text"`
	LatencyMs    int64       `json:"latency_ms"`
	CreatedAt    time.Time   `json:"created_at"`
}
