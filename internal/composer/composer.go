package composer

import (
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/adapter/queue"
	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/observability/telemetry"
)

// Broadcaster fans turn outcomes out to live observers.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Composer turns a dialogue decision into the outbound action: a synthesis
// request for the TTS collaborator plus a live update for observers. The
// synthesis publish is fire-and-forget; delivery and playback belong to the
// collaborator.
type Composer struct {
	mq             queue.MessageQueue
	hub            Broadcaster
	subject        string
	defaultVoiceID string
	log            *zap.Logger
}

func New(mq queue.MessageQueue, hub Broadcaster, subject, defaultVoiceID string, log *zap.Logger) *Composer {
	return &Composer{
		mq:             mq,
		hub:            hub,
		subject:        subject,
		defaultVoiceID: defaultVoiceID,
		log:            log,
	}
}

type update struct {
	SessionID string             `json:"session_id"`
	RoomName  string             `json:"room_name"`
	Outcome   domain.TurnOutcome `json:"outcome"`
	Timestamp time.Time          `json:"timestamp"`
}

// Compose emits the outbound side of one orchestration cycle.
func (c *Composer) Compose(session *domain.Session, outcome domain.TurnOutcome) {
	if outcome.Text != "" && c.mq != nil {
		req := domain.SynthesisRequest{
			SessionID: session.ID,
			Text:      outcome.Text,
			VoiceID:   c.defaultVoiceID,
			Language:  session.Language,
		}
		payload, err := json.Marshal(req)
		if err == nil {
			err = c.mq.Publish(c.subject, payload)
		}
		if err != nil {
			// Fire-and-forget: the turn already resolved, so a synthesis
			// publish failure is logged, never surfaced to the session.
			c.log.Error("Failed to publish synthesis request",
				zap.String("session_id", session.ID),
				zap.Error(err),
			)
		} else {
			telemetry.SynthesisPublishedTotal.Inc()
		}
	}

	if c.hub != nil {
		payload, err := json.Marshal(update{
			SessionID: session.ID,
			RoomName:  session.RoomName,
			Outcome:   outcome,
			Timestamp: time.Now(),
		})
		if err == nil {
			c.hub.Broadcast(payload)
		}
	}
}
