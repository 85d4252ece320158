package utils

import (
	"errors"

	"cardform/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFormClaims extracts the session claims from the Fiber context.
// It returns an error if the claims are missing or of an invalid type.
func GetFormClaims(c *fiber.Ctx) (*models.FormClaims, error) {
	v := c.Locals("claims")
	if v == nil {
		return nil, errors.New("claims not found in context")
	}

	claims, ok := v.(*models.FormClaims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}
	return claims, nil
}
