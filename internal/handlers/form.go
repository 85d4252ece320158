package handlers

import (
	"errors"
	"time"

	apperrors "cardform/internal/errors"
	"cardform/internal/repositories"
	"cardform/internal/services/paymentform"
	"cardform/internal/utils"
	"cardform/internal/utils/response"
	"cardform/internal/utils/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// fieldNames is the oneof list accepted for the :field route parameter
const fieldNames = "number holder_name expiry_month expiry_year cvv"

var fieldUpdaters = map[string]func(*paymentform.Controller, string) bool{
	"number":       (*paymentform.Controller).UpdateCardNumber,
	"holder_name":  (*paymentform.Controller).UpdateCardholderName,
	"expiry_month": (*paymentform.Controller).UpdateExpiryMonth,
	"expiry_year":  (*paymentform.Controller).UpdateExpiryYear,
	"cvv":          (*paymentform.Controller).UpdateCVV,
}

type updateFieldInput struct {
	Value *string `json:"value" validate:"required,max=64"`
}

type FormHandler struct {
	sessions  repositories.SessionRepository
	validator *validation.RequestValidator
	secret    string
	tokenTTL  time.Duration
	keepAlive time.Duration
	logger    *zap.SugaredLogger
}

func NewFormHandler(sessions repositories.SessionRepository, secret string, tokenTTL time.Duration, logger *zap.SugaredLogger) *FormHandler {
	return &FormHandler{
		sessions:  sessions,
		validator: validation.New(),
		secret:    secret,
		tokenTTL:  tokenTTL,
		keepAlive: 15 * time.Second,
		logger:    logger,
	}
}

// CreateForm opens a new payment form session and returns its token
func (h *FormHandler) CreateForm(c *fiber.Ctx) error {
	session := h.sessions.Create()

	token, err := utils.GenerateSessionToken(h.secret, session.ID, h.tokenTTL)
	if err != nil {
		h.logger.Errorw("Failed to sign session token", "session", session.ID, "error", err)
		_ = h.sessions.Delete(session.ID)
		return response.ServerError(c, "Failed to create form")
	}

	return response.Created(c, "Form created", fiber.Map{
		"id":    session.ID,
		"token": token,
		"state": session.Controller.State(),
	})
}

func (h *FormHandler) GetForm(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}
	return response.Success(c, "Form retrieved", session.Controller.State())
}

// UpdateField applies one keystroke-level edit. Input the form refuses to
// store is reported as 422 together with the unchanged state.
func (h *FormHandler) UpdateField(c *fiber.Ctx) error {
	field := c.Params("field")
	if verr := h.validator.Var("field", field, "oneof="+fieldNames); verr != nil {
		return response.Domain(c, fiber.StatusBadRequest, apperrors.ErrUnknownField)
	}

	var input updateFieldInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request format")
	}
	if errs := h.validator.Struct(input); len(errs) > 0 {
		return response.ValidationError(c, errs)
	}

	session, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}

	ctrl := session.Controller
	if !fieldUpdaters[field](ctrl, *input.Value) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": apperrors.ErrInvalidInput.Message,
			"code":  apperrors.ErrInvalidInput.Code,
			"data":  ctrl.State(),
		})
	}

	return response.Success(c, "Field updated", ctrl.State())
}

// Submit starts payment processing. The outcome is observed through GetForm
// or the event stream.
func (h *FormHandler) Submit(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}

	ctrl := session.Controller
	switch err := ctrl.ProcessPayment(); {
	case errors.Is(err, paymentform.ErrSubmissionInProgress):
		return response.Domain(c, fiber.StatusConflict, apperrors.ErrSubmissionInProgress)
	case errors.Is(err, paymentform.ErrClosed):
		return response.Domain(c, fiber.StatusGone, apperrors.ErrSessionClosed)
	case err != nil:
		h.logger.Errorw("Submit failed", "session", session.ID, "error", err)
		return response.ServerError(c, "Failed to submit payment")
	}

	state := ctrl.State()
	if state.HasValidationErrors {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "Form has validation errors",
			"data":  state,
		})
	}
	return response.Accepted(c, "Payment submitted", state)
}

func (h *FormHandler) ResetSubmission(c *fiber.Ctx) error {
	session, err := h.session(c)
	if err != nil {
		return h.sessionError(c, err)
	}

	session.Controller.ResetSubmissionState()
	return response.Success(c, "Submission state reset", session.Controller.State())
}

func (h *FormHandler) DeleteForm(c *fiber.Ctx) error {
	if err := h.sessions.Delete(h.sessionID(c)); err != nil {
		return h.sessionError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *FormHandler) sessionID(c *fiber.Ctx) string {
	if claims, err := utils.GetFormClaims(c); err == nil {
		return claims.SessionID()
	}
	return c.Params("id")
}

func (h *FormHandler) session(c *fiber.Ctx) (*repositories.Session, error) {
	return h.sessions.Get(h.sessionID(c))
}

func (h *FormHandler) sessionError(c *fiber.Ctx, err error) error {
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		return response.Domain(c, fiber.StatusNotFound, apperrors.ErrSessionNotFound)
	}
	h.logger.Errorw("Session lookup failed", "error", err)
	return response.ServerError(c, "Internal error")
}
