package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/orchestrator"
	"github.com/seu-repo/aura-core/internal/ports"
)

type SessionHandler struct {
	engine *orchestrator.Orchestrator
	turns  ports.TurnRepository
	log    *zap.Logger
}

func NewSessionHandler(engine *orchestrator.Orchestrator, turns ports.TurnRepository, log *zap.Logger) *SessionHandler {
	return &SessionHandler{
		engine: engine,
		turns:  turns,
		log:    log,
	}
}

// Get returns the last persisted snapshot of a session.
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session id is required"})
	}

	session, err := h.engine.SessionSnapshot(c.Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(session)
}

// Turns returns the audit log for a session, newest first.
func (h *SessionHandler) Turns(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session id is required"})
	}
	if h.turns == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "turn history is not enabled"})
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 500 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "limit must be between 1 and 500"})
		}
		limit = parsed
	}

	records, err := h.turns.FindBySessionID(c.Context(), id, limit)
	if err != nil {
		h.log.Error("Failed to load turn history", zap.String("session_id", id), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load turn history"})
	}

	return c.JSON(fiber.Map{
		"session_id": id,
		"turns":      records,
	})
}

// End terminates a session immediately, releasing its worker and snapshot.
func (h *SessionHandler) End(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "session id is required"})
	}

	h.engine.EndSession(c.Context(), id, "api")
	return c.SendStatus(fiber.StatusNoContent)
}
