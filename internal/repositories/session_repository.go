package repositories

import (
	"time"

	"cardform/internal/services/paymentform"
)

// Session is one payment form served over HTTP
type Session struct {
	ID         string
	Controller *paymentform.Controller
	CreatedAt  time.Time
}

// ControllerFactory builds the controller backing a new session
type ControllerFactory func(id string) *paymentform.Controller

// ActiveSessionsReporter receives the number of live sessions after every change
type ActiveSessionsReporter interface {
	SetActiveSessions(n int)
}

// SessionRepository keeps payment form sessions in memory
type SessionRepository interface {
	Create() *Session
	// Get returns the session and marks it as recently used.
	Get(id string) (*Session, error)
	// Delete closes the controller and forgets the session.
	Delete(id string) error
	// Sweep disposes sessions unused for longer than idleTTL and reports how
	// many were removed.
	Sweep(idleTTL time.Duration) int
	Len() int
	CloseAll()
}
