package repositories

import (
	"errors"
	"sync"
	"testing"
	"time"

	"cardform/internal/clock"
	apperrors "cardform/internal/errors"
	"cardform/internal/services/payment"
	"cardform/internal/services/paymentform"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	mu     sync.Mutex
	counts []int
}

func (r *recordingReporter) SetActiveSessions(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts = append(r.counts, n)
}

func (r *recordingReporter) last() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.counts) == 0 {
		return -1
	}
	return r.counts[len(r.counts)-1]
}

func newTestRepository(reporter ActiveSessionsReporter) *sessionRepository {
	factory := func(id string) *paymentform.Controller {
		return paymentform.NewController(
			clock.Fixed{Year: 25, Month: 6},
			payment.NewStubBackend(time.Millisecond),
			paymentform.WithID(id),
		)
	}
	return NewSessionRepository(factory, reporter, nil).(*sessionRepository)
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	reporter := &recordingReporter{}
	repo := newTestRepository(reporter)

	s := repo.Create()
	require.NotEmpty(t, s.ID)
	require.NotNil(t, s.Controller)
	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, 1, reporter.last())

	got, err := repo.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	other := repo.Create()
	assert.NotEqual(t, s.ID, other.ID)
	assert.Equal(t, 2, reporter.last())
}

func TestSessionRepository_GetUnknown(t *testing.T) {
	repo := newTestRepository(nil)

	_, err := repo.Get("missing")
	assert.True(t, errors.Is(err, apperrors.ErrSessionNotFound))
}

func TestSessionRepository_DeleteClosesController(t *testing.T) {
	reporter := &recordingReporter{}
	repo := newTestRepository(reporter)
	s := repo.Create()

	require.NoError(t, repo.Delete(s.ID))
	assert.Equal(t, 0, repo.Len())
	assert.Equal(t, 0, reporter.last())

	assert.False(t, s.Controller.UpdateCardholderName("Jane"))
	assert.ErrorIs(t, s.Controller.ProcessPayment(), paymentform.ErrClosed)

	err := repo.Delete(s.ID)
	assert.True(t, errors.Is(err, apperrors.ErrSessionNotFound))
}

func TestSessionRepository_SweepRemovesIdleSessions(t *testing.T) {
	reporter := &recordingReporter{}
	repo := newTestRepository(reporter)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	stale := repo.Create()
	fresh := repo.Create()

	now = now.Add(20 * time.Minute)
	_, err := repo.Get(fresh.ID)
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	removed := repo.Sweep(30 * time.Minute)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, repo.Len())
	assert.Equal(t, 1, reporter.last())

	_, err = repo.Get(stale.ID)
	assert.True(t, errors.Is(err, apperrors.ErrSessionNotFound))
	assert.False(t, stale.Controller.UpdateCVV("123"))

	_, err = repo.Get(fresh.ID)
	assert.NoError(t, err)
}

func TestSessionRepository_SweepNothingToDo(t *testing.T) {
	reporter := &recordingReporter{}
	repo := newTestRepository(reporter)
	repo.Create()
	calls := len(reporter.counts)

	assert.Equal(t, 0, repo.Sweep(time.Hour))
	assert.Len(t, reporter.counts, calls)
}

func TestSessionRepository_CloseAll(t *testing.T) {
	reporter := &recordingReporter{}
	repo := newTestRepository(reporter)
	a := repo.Create()
	b := repo.Create()

	repo.CloseAll()

	assert.Equal(t, 0, repo.Len())
	assert.Equal(t, 0, reporter.last())
	assert.ErrorIs(t, a.Controller.ProcessPayment(), paymentform.ErrClosed)
	assert.ErrorIs(t, b.Controller.ProcessPayment(), paymentform.ErrClosed)
}
