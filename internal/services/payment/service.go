package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cardform/internal/models"
)

// DefaultDelay is how long the stub takes to "process" a payment
const DefaultDelay = 2 * time.Second

var ErrDeclined = errors.New("card declined")

// StubBackend simulates a payment processor: it waits Delay and then succeeds,
// or fails with FailWith when set.
type StubBackend struct {
	Delay    time.Duration
	FailWith error
}

// NewStubBackend creates a stub that always succeeds after delay
func NewStubBackend(delay time.Duration) *StubBackend {
	return &StubBackend{Delay: delay}
}

func (b *StubBackend) Submit(ctx context.Context, fields models.CardFields) error {
	if b.Delay > 0 {
		timer := time.NewTimer(b.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return fmt.Errorf("payment interrupted: %w", ctx.Err())
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return fmt.Errorf("payment interrupted: %w", err)
	}

	if b.FailWith != nil {
		return b.FailWith
	}
	return nil
}
