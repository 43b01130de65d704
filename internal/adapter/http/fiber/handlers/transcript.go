package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/domain"
	"github.com/seu-repo/aura-core/internal/orchestrator"
)

type TranscriptHandler struct {
	engine *orchestrator.Orchestrator
	log    *zap.Logger
}

func NewTranscriptHandler(engine *orchestrator.Orchestrator, log *zap.Logger) *TranscriptHandler {
	return &TranscriptHandler{
		engine: engine,
		log:    log,
	}
}

type TranscriptRequest struct {
	EventID    string  `json:"event_id"`
	SessionID  string  `json:"session_id"`
	RoomName   string  `json:"room_name"`
	UserID     string  `json:"user_id"`
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// Dispatch accepts one finalized transcript and returns the turn outcome.
// Redelivered event ids return the originally computed outcome.
func (h *TranscriptHandler) Dispatch(c *fiber.Ctx) error {
	var req TranscriptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if req.SessionID == "" || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session_id and text are required"})
	}

	outcome, err := h.engine.Dispatch(c.Context(), domain.TranscriptEvent{
		EventID:    req.EventID,
		SessionID:  req.SessionID,
		RoomName:   req.RoomName,
		UserID:     req.UserID,
		Text:       req.Text,
		Language:   req.Language,
		Confidence: req.Confidence,
	})
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"session_id": req.SessionID,
		"outcome":    outcome,
	})
}
