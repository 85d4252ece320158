package paymentform

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cardform/internal/clock"
	"cardform/internal/models"
	"cardform/internal/services/payment"
	"cardform/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Submit(ctx context.Context, fields models.CardFields) error {
	args := m.Called(ctx, fields)
	return args.Error(0)
}

type MockMetrics struct {
	mock.Mock
}

func (m *MockMetrics) RecordRejectedInput(field string) {
	m.Called(field)
}

func (m *MockMetrics) RecordValidationFailure(field string) {
	m.Called(field)
}

func (m *MockMetrics) RecordSubmission(result string, duration time.Duration) {
	m.Called(result, duration)
}

func (m *MockMetrics) RecordDroppedResult() {
	m.Called()
}

type recorder struct {
	mu     sync.Mutex
	states []models.FormState
}

func (r *recorder) observe(s models.FormState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) snapshot() []models.FormState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.FormState(nil), r.states...)
}

func (r *recorder) last() models.FormState {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return models.FormState{}
	}
	return r.states[len(r.states)-1]
}

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

var june2025 = clock.Fixed{Year: 25, Month: 6}

func fillValidForm(t *testing.T, c *Controller) {
	t.Helper()
	require.True(t, c.UpdateCardNumber("4111111111111111"))
	require.True(t, c.UpdateCardholderName("Jane Doe"))
	require.True(t, c.UpdateExpiryMonth("12"))
	require.True(t, c.UpdateExpiryYear("30"))
	require.True(t, c.UpdateCVV("123"))
}

func TestController_InitialState(t *testing.T) {
	c := NewController(june2025, &MockBackend{})
	defer c.Close()

	s := c.State()
	assert.Equal(t, models.CardFields{}, s.Fields)
	assert.False(t, s.IsSubmitting)
	assert.False(t, s.IsSubmissionSuccessful)
	assert.False(t, s.HasValidationErrors)
	assert.Equal(t, models.SubmissionIdle, s.Status)
}

func TestController_UpdateCardNumber(t *testing.T) {
	c := NewController(june2025, &MockBackend{})
	defer c.Close()

	tests := []struct {
		name       string
		input      string
		wantNumber string
		wantError  string
	}{
		{"partial number is formatted and flagged", "41111", "4111 1", validation.MsgInvalidNumber},
		{"valid number", "4111111111111111", "4111 1111 1111 1111", ""},
		{"separators are normalised", "4539-1488-0343-6467", "4539 1488 0343 6467", ""},
		{"luhn failure", "1234 5678 9012 3456", "1234 5678 9012 3456", validation.MsgInvalidNumber},
		{"letters are dropped", "abcd", "", ""},
		{"cleared", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.True(t, c.UpdateCardNumber(tt.input))
			s := c.State()
			assert.Equal(t, tt.wantNumber, s.Fields.Number)
			assert.Equal(t, tt.wantError, s.NumberError)
			assert.Equal(t, tt.wantError != "", s.HasValidationErrors)
		})
	}
}

func TestController_UpdateCardholderName(t *testing.T) {
	c := NewController(june2025, &MockBackend{})
	defer c.Close()

	c.UpdateCardholderName("Al")
	assert.Equal(t, "Al", c.State().Fields.HolderName)
	assert.Equal(t, validation.MsgInvalidName, c.State().NameError)

	c.UpdateCardholderName("  Jane Doe ")
	assert.Equal(t, "  Jane Doe ", c.State().Fields.HolderName)
	assert.Empty(t, c.State().NameError)

	c.UpdateCardholderName("")
	assert.Empty(t, c.State().NameError)
}

func TestController_ExpiryRejectsMalformedInput(t *testing.T) {
	m := new(MockMetrics)
	m.On("RecordRejectedInput", validation.FieldExpiryMonth).Return()
	m.On("RecordRejectedInput", validation.FieldExpiryYear).Return()

	c := NewController(june2025, &MockBackend{}, WithMetrics(m))
	defer c.Close()

	require.True(t, c.UpdateExpiryMonth("1"))
	before := c.State()

	assert.False(t, c.UpdateExpiryMonth("abc"))
	assert.False(t, c.UpdateExpiryMonth("123"))
	assert.False(t, c.UpdateExpiryYear("2030"))
	assert.Equal(t, before, c.State())
	assert.Equal(t, "1", c.State().Fields.ExpiryMonth)

	m.AssertNumberOfCalls(t, "RecordRejectedInput", 3)
}

func TestController_ExpiryErrors(t *testing.T) {
	c := NewController(june2025, &MockBackend{})
	defer c.Close()

	// neither part entered yet
	assert.Empty(t, c.State().ExpiryError)

	c.UpdateExpiryMonth("01")
	assert.Equal(t, validation.MsgInvalidExpiry, c.State().ExpiryError, "year still empty")

	c.UpdateExpiryYear("25")
	assert.Equal(t, validation.MsgInvalidExpiry, c.State().ExpiryError, "past month of current year")

	c.UpdateExpiryMonth("06")
	assert.Empty(t, c.State().ExpiryError)

	c.UpdateExpiryMonth("13")
	assert.Equal(t, validation.MsgInvalidExpiry, c.State().ExpiryError)

	c.UpdateExpiryMonth("")
	c.UpdateExpiryYear("")
	assert.Empty(t, c.State().ExpiryError, "both cleared counts as not entered")
}

func TestController_UpdateCVV(t *testing.T) {
	c := NewController(june2025, &MockBackend{})
	defer c.Close()

	assert.True(t, c.UpdateCVV("12"))
	assert.Equal(t, validation.MsgInvalidCVV, c.State().CVVError)

	assert.True(t, c.UpdateCVV("1234"))
	assert.Empty(t, c.State().CVVError)

	assert.False(t, c.UpdateCVV("12345"))
	assert.False(t, c.UpdateCVV("12a"))
	assert.Equal(t, "1234", c.State().Fields.CVV)
}

func TestController_ProcessPayment_Success(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Submit", mock.Anything, mock.Anything).Return(nil)

	c := NewController(june2025, backend)
	defer c.Close()

	rec := &recorder{}
	unsubscribe := c.Subscribe(rec.observe)
	defer unsubscribe()

	fillValidForm(t, c)
	require.NoError(t, c.ProcessPayment())

	require.Eventually(t, func() bool { return rec.last().IsSubmissionSuccessful }, waitFor, tick)

	states := rec.snapshot()
	submitting := -1
	for i, s := range states {
		assert.False(t, s.IsSubmitting && s.IsSubmissionSuccessful, "invariant broken at %d", i)
		if s.IsSubmitting && submitting < 0 {
			submitting = i
		}
	}
	require.GreaterOrEqual(t, submitting, 0, "submitting state was never published")
	assert.Equal(t, models.SubmissionSubmitting, states[submitting].Status)

	final := c.State()
	assert.False(t, final.IsSubmitting)
	assert.True(t, final.IsSubmissionSuccessful)
	assert.False(t, final.HasValidationErrors)
	assert.Empty(t, final.NumberError)
	assert.Empty(t, final.NameError)
	assert.Empty(t, final.ExpiryError)
	assert.Empty(t, final.CVVError)
	assert.Empty(t, final.GeneralError)
	assert.Equal(t, models.SubmissionSucceeded, final.Status)

	backend.AssertNumberOfCalls(t, "Submit", 1)
	submitted := backend.Calls[0].Arguments.Get(1).(models.CardFields)
	assert.Equal(t, "4111 1111 1111 1111", submitted.Number)
}

func TestController_ProcessPayment_EmptyForm(t *testing.T) {
	backend := new(MockBackend)
	m := new(MockMetrics)
	m.On("RecordValidationFailure", mock.Anything).Return()

	c := NewController(june2025, backend, WithMetrics(m))
	defer c.Close()

	require.NoError(t, c.ProcessPayment())

	s := c.State()
	assert.True(t, s.HasValidationErrors)
	assert.Equal(t, validation.MsgSubmitNumber, s.NumberError)
	assert.Equal(t, validation.MsgSubmitName, s.NameError)
	assert.Equal(t, validation.MsgSubmitExpiry, s.ExpiryError)
	assert.Equal(t, validation.MsgSubmitCVV, s.CVVError)
	assert.False(t, s.IsSubmitting)
	assert.Equal(t, models.SubmissionIdle, s.Status)

	backend.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
	m.AssertNumberOfCalls(t, "RecordValidationFailure", 4)
}

func TestController_ProcessPayment_SubmitMessagesReplaceKeystrokeMessages(t *testing.T) {
	c := NewController(june2025, &MockBackend{})
	defer c.Close()

	fillValidForm(t, c)
	c.UpdateCardNumber("4111 1111 1111 1112")
	assert.Equal(t, validation.MsgInvalidNumber, c.State().NumberError)

	require.NoError(t, c.ProcessPayment())

	s := c.State()
	assert.Equal(t, validation.MsgSubmitNumber, s.NumberError)
	assert.Empty(t, s.NameError)
	assert.Empty(t, s.ExpiryError)
	assert.Empty(t, s.CVVError)
	assert.True(t, s.HasValidationErrors)
}

func TestController_ProcessPayment_RejectedTwicePublishesTwice(t *testing.T) {
	c := NewController(june2025, &MockBackend{})
	defer c.Close()

	require.NoError(t, c.ProcessPayment())
	first := c.State()
	require.NoError(t, c.ProcessPayment())
	second := c.State()

	assert.Equal(t, first.Version+1, second.Version)
	first.Version = second.Version
	assert.Equal(t, first, second)
}

func TestController_ProcessPayment_BackendFailure(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Submit", mock.Anything, mock.Anything).Return(payment.ErrDeclined)

	c := NewController(june2025, backend)
	defer c.Close()

	fillValidForm(t, c)
	require.NoError(t, c.ProcessPayment())

	require.Eventually(t, func() bool { return c.State().GeneralError != "" }, waitFor, tick)

	s := c.State()
	assert.Equal(t, "Payment failed: card declined", s.GeneralError)
	assert.False(t, s.IsSubmitting)
	assert.False(t, s.IsSubmissionSuccessful)
	assert.False(t, s.HasValidationErrors)
	assert.Equal(t, models.SubmissionFailed, s.Status)

	c.ResetSubmissionState()
	s = c.State()
	assert.Empty(t, s.GeneralError)
	assert.Equal(t, models.SubmissionIdle, s.Status)
	assert.Equal(t, "4111 1111 1111 1111", s.Fields.Number, "fields survive reset")
}

func TestController_ProcessPayment_WhileSubmitting(t *testing.T) {
	release := make(chan struct{})
	backend := new(MockBackend)
	backend.On("Submit", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { <-release }).
		Return(nil)

	c := NewController(june2025, backend)
	defer c.Close()

	fillValidForm(t, c)
	require.NoError(t, c.ProcessPayment())
	before := c.State()
	require.True(t, before.IsSubmitting)

	err := c.ProcessPayment()
	assert.ErrorIs(t, err, ErrSubmissionInProgress)
	assert.Equal(t, before, c.State(), "rejected submit must not publish")

	close(release)
	require.Eventually(t, func() bool { return c.State().IsSubmissionSuccessful }, waitFor, tick)
	backend.AssertNumberOfCalls(t, "Submit", 1)
}

func TestController_ProcessPayment_FromSucceededResetsFirst(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Submit", mock.Anything, mock.Anything).Return(nil)

	c := NewController(june2025, backend)
	defer c.Close()

	fillValidForm(t, c)
	require.NoError(t, c.ProcessPayment())
	require.Eventually(t, func() bool { return c.State().IsSubmissionSuccessful }, waitFor, tick)

	require.NoError(t, c.ProcessPayment())
	require.Eventually(t, func() bool { return c.State().IsSubmissionSuccessful }, waitFor, tick)
	backend.AssertNumberOfCalls(t, "Submit", 2)
}

func TestController_ResetSubmissionState_Idempotent(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Submit", mock.Anything, mock.Anything).Return(nil)

	c := NewController(june2025, backend)
	defer c.Close()

	fillValidForm(t, c)
	require.NoError(t, c.ProcessPayment())
	require.Eventually(t, func() bool { return c.State().IsSubmissionSuccessful }, waitFor, tick)

	c.ResetSubmissionState()
	once := c.State()
	c.ResetSubmissionState()
	twice := c.State()

	assert.Equal(t, once, twice)
	assert.False(t, twice.IsSubmissionSuccessful)
	assert.Empty(t, twice.GeneralError)
	assert.Equal(t, models.SubmissionIdle, twice.Status)
}

func TestController_ResetSubmissionState_KeepsFieldErrors(t *testing.T) {
	c := NewController(june2025, &MockBackend{})
	defer c.Close()

	require.NoError(t, c.ProcessPayment())
	before := c.State()

	c.ResetSubmissionState()
	assert.Equal(t, before, c.State())
}

func TestController_SubmitTimeout(t *testing.T) {
	backend := payment.BackendFunc(func(ctx context.Context, _ models.CardFields) error {
		<-ctx.Done()
		return ctx.Err()
	})

	c := NewController(june2025, backend, WithSubmitTimeout(20*time.Millisecond))
	defer c.Close()

	fillValidForm(t, c)
	require.NoError(t, c.ProcessPayment())

	require.Eventually(t, func() bool { return c.State().GeneralError != "" }, waitFor, tick)
	assert.Contains(t, c.State().GeneralError, context.DeadlineExceeded.Error())
	assert.Equal(t, models.SubmissionFailed, c.State().Status)
}

func TestController_CloseDuringSubmission(t *testing.T) {
	returned := make(chan error, 1)
	backend := payment.BackendFunc(func(ctx context.Context, _ models.CardFields) error {
		<-ctx.Done()
		err := errors.New("interrupted")
		returned <- err
		return err
	})

	dropped := make(chan struct{})
	m := new(MockMetrics)
	m.On("RecordDroppedResult").Run(func(mock.Arguments) { close(dropped) }).Return()

	c := NewController(june2025, backend, WithMetrics(m))
	fillValidForm(t, c)
	require.NoError(t, c.ProcessPayment())
	submitting := c.State()

	c.Close()

	select {
	case <-returned:
	case <-time.After(waitFor):
		t.Fatal("backend context was not cancelled by Close")
	}
	select {
	case <-dropped:
	case <-time.After(waitFor):
		t.Fatal("late result was not dropped")
	}

	assert.Equal(t, submitting, c.State(), "disposed state must not change")
	assert.ErrorIs(t, c.ProcessPayment(), ErrClosed)
	assert.False(t, c.UpdateCardNumber("4242"))
	assert.Equal(t, submitting, c.State())

	c.Close()
	m.AssertExpectations(t)
}

func TestController_SubscribeDeliversInOrder(t *testing.T) {
	c := NewController(june2025, &MockBackend{})
	defer c.Close()

	c.UpdateCardholderName("J")
	rec := &recorder{}
	unsubscribe := c.Subscribe(rec.observe)
	defer unsubscribe()

	for _, in := range []string{"4", "41", "411", "4111", "41111"} {
		c.UpdateCardNumber(in)
	}

	want := c.State().Version
	require.Eventually(t, func() bool { return rec.last().Version == want }, waitFor, tick)

	states := rec.snapshot()
	require.Len(t, states, 6, "current state plus five edits")
	assert.Equal(t, "J", states[0].Fields.HolderName)
	for i := 1; i < len(states); i++ {
		assert.Equal(t, states[i-1].Version+1, states[i].Version)
	}
	assert.Equal(t, "4111 1", states[5].Fields.Number)
}

func TestController_UnchangedEditIsNotPublished(t *testing.T) {
	c := NewController(june2025, &MockBackend{})
	defer c.Close()

	c.UpdateCardholderName("Jane")
	v := c.State().Version
	assert.True(t, c.UpdateCardholderName("Jane"))
	assert.Equal(t, v, c.State().Version)
}

func TestController_ObserverMayCallBack(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Submit", mock.Anything, mock.Anything).Return(nil)

	c := NewController(june2025, backend)
	defer c.Close()

	var resets sync.WaitGroup
	resets.Add(1)
	var once sync.Once
	unsubscribe := c.Subscribe(func(s models.FormState) {
		if s.IsSubmissionSuccessful {
			c.ResetSubmissionState()
			once.Do(resets.Done)
		}
	})
	defer unsubscribe()

	fillValidForm(t, c)
	require.NoError(t, c.ProcessPayment())

	done := make(chan struct{})
	go func() {
		resets.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("observer did not run")
	}

	require.Eventually(t, func() bool { return c.State().Status == models.SubmissionIdle }, waitFor, tick)
	assert.False(t, c.State().IsSubmissionSuccessful)
}

func TestController_Unsubscribe(t *testing.T) {
	c := NewController(june2025, &MockBackend{})
	defer c.Close()

	rec := &recorder{}
	unsubscribe := c.Subscribe(rec.observe)
	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, waitFor, tick)

	unsubscribe()
	unsubscribe()
	c.UpdateCardholderName("Jane")

	time.Sleep(20 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestController_DoneClosesOnClose(t *testing.T) {
	c := NewController(june2025, &MockBackend{}, WithID("form-1"))
	assert.Equal(t, "form-1", c.ID())

	select {
	case <-c.Done():
		t.Fatal("done before close")
	default:
	}

	c.Close()
	c.Close()

	select {
	case <-c.Done():
	case <-time.After(waitFor):
		t.Fatal("done not closed")
	}
}
