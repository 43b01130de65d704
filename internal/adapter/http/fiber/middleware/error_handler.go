package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/aura-core/internal/orchestrator"
)

func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError

		switch {
		case errors.Is(err, orchestrator.ErrSessionNotFound):
			code = fiber.StatusNotFound
		case errors.Is(err, orchestrator.ErrEmptyEvent):
			code = fiber.StatusBadRequest
		case errors.Is(err, orchestrator.ErrQueueFull):
			code = fiber.StatusTooManyRequests
		default:
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
		}

		if code == fiber.StatusInternalServerError {
			log.Error("Internal Server Error", zap.Error(err), zap.String("path", c.Path()))
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
