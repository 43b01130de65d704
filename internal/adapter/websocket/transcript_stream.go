package websocket

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/orchestrator"
)

// TranscriptStreamHandler is the bidirectional surface for a live room:
// clients push finalized transcript events and receive the engine's turn
// outcome for each one on the same connection.
type TranscriptStreamHandler struct {
	engine *orchestrator.Orchestrator
	logger *zap.Logger
}

func NewTranscriptStreamHandler(engine *orchestrator.Orchestrator, logger *zap.Logger) *TranscriptStreamHandler {
	return &TranscriptStreamHandler{
		engine: engine,
		logger: logger,
	}
}

type streamReply struct {
	EventID   string             `json:"event_id,omitempty"`
	SessionID string             `json:"session_id"`
	Outcome   domain.TurnOutcome `json:"outcome,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// HandleStream reads transcript events until the client disconnects.
// Malformed frames get an error reply instead of closing the stream.
func (h *TranscriptStreamHandler) HandleStream(c *websocket.Conn) {
	ctx := context.Background()

	for {
		messageType, data, err := c.ReadMessage()
		if err != nil {
			break
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var ev domain.TranscriptEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			h.writeReply(c, streamReply{Error: "malformed transcript event"})
			continue
		}

		outcome, err := h.engine.Dispatch(ctx, ev)
		if err != nil {
			h.logger.Warn("Stream dispatch failed",
				zap.String("session_id", ev.SessionID),
				zap.Error(err),
			)
			h.writeReply(c, streamReply{EventID: ev.EventID, SessionID: ev.SessionID, Error: err.Error()})
			continue
		}

		h.writeReply(c, streamReply{EventID: ev.EventID, SessionID: ev.SessionID, Outcome: outcome})
	}
}

func (h *TranscriptStreamHandler) writeReply(c *websocket.Conn, reply streamReply) {
	payload, _ := json.Marshal(reply)
	if err := c.WriteMessage(websocket.TextMessage, payload); err != nil {
		h.logger.Error("Failed to write stream reply", zap.Error(err))
	}
}

// SetupStreamRoutes registers the transcript stream and the observer feed.
func SetupStreamRoutes(app *fiber.App, handler *TranscriptStreamHandler, hub *Hub) {
	upgrade := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	app.Use("/ws/transcripts", upgrade)
	app.Get("/ws/transcripts", websocket.New(handler.HandleStream))

	app.Use("/ws/updates", upgrade)
	app.Get("/ws/updates", websocket.New(hub.ServeObserver))
}
