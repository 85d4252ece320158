package repositories

import (
	"fmt"
	"sync"
	"time"

	apperrors "cardform/internal/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type sessionEntry struct {
	session  *Session
	lastSeen time.Time
}

type sessionRepository struct {
	factory  ControllerFactory
	reporter ActiveSessionsReporter
	logger   *zap.SugaredLogger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessionRepository creates an empty registry. reporter may be nil.
func NewSessionRepository(factory ControllerFactory, reporter ActiveSessionsReporter, logger *zap.SugaredLogger) SessionRepository {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &sessionRepository{
		factory:  factory,
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*sessionEntry),
	}
}

func (r *sessionRepository) Create() *Session {
	id := uuid.NewString()
	now := r.now()
	s := &Session{
		ID:         id,
		Controller: r.factory(id),
		CreatedAt:  now,
	}

	r.mu.Lock()
	r.sessions[id] = &sessionEntry{session: s, lastSeen: now}
	n := len(r.sessions)
	r.mu.Unlock()

	r.report(n)
	r.logger.Infof("Session %s created (%d active)", id, n)
	return s
}

func (r *sessionRepository) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, apperrors.ErrSessionNotFound)
	}
	entry.lastSeen = r.now()
	return entry.session, nil
}

func (r *sessionRepository) Delete(id string) error {
	r.mu.Lock()
	entry, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, apperrors.ErrSessionNotFound)
	}
	entry.session.Controller.Close()
	r.report(n)
	r.logger.Infof("Session %s disposed (%d active)", id, n)
	return nil
}

func (r *sessionRepository) Sweep(idleTTL time.Duration) int {
	cutoff := r.now().Add(-idleTTL)

	r.mu.Lock()
	var expired []*Session
	for id, entry := range r.sessions {
		if entry.lastSeen.Before(cutoff) {
			expired = append(expired, entry.session)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range expired {
		s.Controller.Close()
		r.logger.Debugf("Session %s expired", s.ID)
	}
	if len(expired) > 0 {
		r.report(n)
		r.logger.Infof("Swept %d idle sessions (%d active)", len(expired), n)
	}
	return len(expired)
}

func (r *sessionRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *sessionRepository) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*sessionEntry)
	r.mu.Unlock()

	for _, entry := range sessions {
		entry.session.Controller.Close()
	}
	r.report(0)
}

func (r *sessionRepository) report(n int) {
	if r.reporter != nil {
		r.reporter.SetActiveSessions(n)
	}
}
