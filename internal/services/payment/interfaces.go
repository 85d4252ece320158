package payment

import (
	"context"

	"cardform/internal/models"
)

// Backend submits validated card fields for payment.
// Submit resolves exactly once: nil on success, or an error describing the failure.
// Implementations must return promptly once ctx is done.
type Backend interface {
	Submit(ctx context.Context, fields models.CardFields) error
}

// BackendFunc adapts a plain function to Backend
type BackendFunc func(ctx context.Context, fields models.CardFields) error

func (f BackendFunc) Submit(ctx context.Context, fields models.CardFields) error {
	return f(ctx, fields)
}
