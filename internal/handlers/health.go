package handlers

import (
	"cardform/internal/repositories"

	"github.com/gofiber/fiber/v2"
)

const Version = "1.0.0"

type HealthHandler struct {
	sessions repositories.SessionRepository
}

func NewHealthHandler(sessions repositories.SessionRepository) *HealthHandler {
	return &HealthHandler{sessions: sessions}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": Version,
		"services": fiber.Map{
			"forms": fiber.Map{
				"active_sessions": h.sessions.Len(),
			},
		},
	})
}
