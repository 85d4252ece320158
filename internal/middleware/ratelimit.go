package middleware

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

type sessionLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// SessionRateLimiter throttles requests with one token bucket per form session.
type SessionRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*sessionLimiter
	rps      rate.Limit
	burst    int
}

func NewSessionRateLimiter(rps float64, burst int) *SessionRateLimiter {
	return &SessionRateLimiter{
		limiters: make(map[string]*sessionLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}
}

func (l *SessionRateLimiter) getLimiter(sessionID string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.limiters[sessionID]
	if !ok {
		entry = &sessionLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.limiters[sessionID] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// Cleanup removes buckets not used for maxAge and reports how many were dropped.
func (l *SessionRateLimiter) Cleanup(maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	var deleted int
	for id, entry := range l.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(l.limiters, id)
			deleted++
		}
	}
	return deleted
}

// Handler must run after FormSessionMiddleware so the session id is known.
func (l *SessionRateLimiter) Handler(c *fiber.Ctx) error {
	sessionID, _ := c.Locals("sessionID").(string)
	if sessionID == "" {
		sessionID = c.Params("id")
	}

	if !l.getLimiter(sessionID).Allow() {
		c.Set(fiber.HeaderRetryAfter, "1")
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": "Too many requests. Please try again later.",
		})
	}
	return c.Next()
}
