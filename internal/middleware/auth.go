// Package middleware provides HTTP middleware components for the application.
// It includes the session token check used by the payment form routes.
package middleware

import (
	"strings"

	apperrors "cardform/internal/errors"
	"cardform/internal/utils"
	"cardform/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// FormSessionMiddleware validates session tokens. A token only opens the form
// session it was issued for.
type FormSessionMiddleware struct {
	secret string
	logger *zap.SugaredLogger
}

func NewFormSessionMiddleware(secret string, logger *zap.SugaredLogger) *FormSessionMiddleware {
	return &FormSessionMiddleware{
		secret: secret,
		logger: logger,
	}
}

// Handler checks for:
// - Presence of Authorization header with Bearer token
// - Valid signature, issuer and expiry
// - A subject matching the :id route parameter
func (m *FormSessionMiddleware) Handler(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		m.logger.Debugw("Missing Authorization header", "path", c.Path())
		return response.Error(c, fiber.StatusUnauthorized, "missing authorization header")
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		m.logger.Debugw("Invalid Authorization format", "path", c.Path())
		return response.Error(c, fiber.StatusUnauthorized, "invalid authorization format")
	}

	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	claims, err := utils.ParseSessionToken(m.secret, tokenString)
	if err != nil {
		m.logger.Debugw("Token validation error", "path", c.Path(), "error", err)
		return response.Domain(c, fiber.StatusUnauthorized, apperrors.ErrInvalidToken)
	}

	if id := c.Params("id"); id != "" && id != claims.SessionID() {
		m.logger.Warnw("Token used for another session", "token_session", claims.SessionID(), "requested", id)
		return response.Error(c, fiber.StatusForbidden, "token does not grant access to this form")
	}

	c.Locals("claims", claims)
	c.Locals("sessionID", claims.SessionID())

	return c.Next()
}
