package paymentform

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cardform/internal/clock"
	"cardform/internal/models"
	"cardform/internal/services/creditcard"
	"cardform/internal/services/payment"
	"cardform/internal/validation"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Controller owns the state of one payment form
type Controller struct {
	id            string
	clock         clock.Clock
	backend       payment.Backend
	logger        *zap.SugaredLogger
	metrics       MetricsCollector
	submitTimeout time.Duration

	// mu guards everything below
	mu     sync.Mutex
	state  models.FormState
	fsm    *fsm.FSM
	subs   map[*subscription]struct{}
	closed bool

	// ctx is cancelled by Close and bounds in-flight backend calls
	ctx    context.Context
	cancel context.CancelFunc
}

// NewController creates a controller holding an empty form
func NewController(clk clock.Clock, backend payment.Backend, opts ...Option) *Controller {
	if clk == nil {
		panic("clock is required")
	}
	if backend == nil {
		panic("payment backend is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		clock:   clk,
		backend: backend,
		logger:  zap.NewNop().Sugar(),
		metrics: &NoopMetricsCollector{},
		state:   models.NewFormState(),
		subs:    make(map[*subscription]struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.fsm = newSubmissionFSM(c.logger, c.id)

	return c
}

// State returns the current snapshot
func (c *Controller) State() models.FormState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// UpdateCardNumber stores the input regrouped by four and validates its digits.
func (c *Controller) UpdateCardNumber(input string) bool {
	formatted := creditcard.FormatNumber(input)

	return c.mutate(func(s *models.FormState) {
		s.Fields.Number = formatted
		s.NumberError = messageIf(formatted != "" && !creditcard.ValidateNumber(formatted), validation.MsgInvalidNumber)
	})
}

// UpdateCardholderName stores the name as typed.
func (c *Controller) UpdateCardholderName(input string) bool {
	return c.mutate(func(s *models.FormState) {
		s.Fields.HolderName = input
		s.NameError = messageIf(input != "" && !creditcard.ValidateName(input), validation.MsgInvalidName)
	})
}

// UpdateExpiryMonth stores up to two digits. Anything else is rejected and
// leaves the state untouched.
func (c *Controller) UpdateExpiryMonth(input string) bool {
	if !c.acceptInput(validation.FieldExpiryMonth, input) {
		return false
	}
	return c.mutate(func(s *models.FormState) {
		s.Fields.ExpiryMonth = input
		s.ExpiryError = c.expiryError(s.Fields)
	})
}

// UpdateExpiryYear stores up to two digits. Anything else is rejected and
// leaves the state untouched.
func (c *Controller) UpdateExpiryYear(input string) bool {
	if !c.acceptInput(validation.FieldExpiryYear, input) {
		return false
	}
	return c.mutate(func(s *models.FormState) {
		s.Fields.ExpiryYear = input
		s.ExpiryError = c.expiryError(s.Fields)
	})
}

// UpdateCVV stores up to four digits. Anything else is rejected and leaves
// the state untouched.
func (c *Controller) UpdateCVV(input string) bool {
	if !c.acceptInput(validation.FieldCVV, input) {
		return false
	}
	return c.mutate(func(s *models.FormState) {
		s.Fields.CVV = input
		s.CVVError = messageIf(input != "" && !creditcard.ValidateCVV(input), validation.MsgInvalidCVV)
	})
}

// ProcessPayment validates the whole form and, when it passes, hands the
// fields to the backend asynchronously. Validation failures are reported
// through the published state, not the returned error.
func (c *Controller) ProcessPayment() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}
	if c.state.IsSubmitting {
		c.logger.Debugf("Payment form %s: submit ignored, already submitting", c.id)
		return ErrSubmissionInProgress
	}

	v := validation.New()
	v.Card(c.state.Fields, c.clock.CurrentYearLastTwoDigits(), c.clock.CurrentMonth())

	next := c.state
	next.NumberError = v.Error(validation.FieldNumber)
	next.NameError = v.Error(validation.FieldHolderName)
	next.ExpiryError = v.Error(validation.FieldExpiry)
	next.CVVError = v.Error(validation.FieldCVV)

	if !v.Valid() {
		for field := range v.Errors {
			c.metrics.RecordValidationFailure(field)
		}
		next.HasValidationErrors = true
		c.logger.Debugf("Payment form %s: submit rejected, %d invalid fields", c.id, len(v.Errors))
		c.commitLocked(next, true)
		return nil
	}

	if c.fsm.Can(EventReset) {
		c.fire(EventReset)
	}
	c.fire(EventSubmit)

	next.HasValidationErrors = false
	next.GeneralError = ""
	next.IsSubmissionSuccessful = false
	next.IsSubmitting = true
	c.commitLocked(next, true)

	c.logger.Infof("Payment form %s: submitting card %s", c.id, creditcard.MaskNumber(next.Fields.Number))
	go c.submit(next.Fields)

	return nil
}

// ResetSubmissionState clears the outcome of the last submission so the next
// one can be observed. Other fields and errors are kept.
func (c *Controller) ResetSubmissionState() {
	c.mutate(func(s *models.FormState) {
		if c.fsm.Can(EventReset) {
			c.fire(EventReset)
		}
		s.IsSubmissionSuccessful = false
		s.GeneralError = ""
	})
}

// Close disposes the controller. In-flight backend calls are cancelled and
// their results discarded; subscribers stop receiving states.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	subs := c.subs
	c.subs = nil
	c.mu.Unlock()

	c.cancel()
	for sub := range subs {
		sub.close()
	}
	c.logger.Debugf("Payment form %s closed", c.id)
}

// Done is closed once the controller has been closed.
func (c *Controller) Done() <-chan struct{} {
	return c.ctx.Done()
}

// ID returns the identifier used in logs.
func (c *Controller) ID() string {
	return c.id
}

func (c *Controller) submit(fields models.CardFields) {
	ctx := c.ctx
	if c.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.submitTimeout)
		defer cancel()
	}

	start := time.Now()
	err := c.backend.Submit(ctx, fields)
	c.complete(err, time.Since(start))
}

func (c *Controller) complete(err error, elapsed time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		c.metrics.RecordDroppedResult()
		c.logger.Debugf("Payment form %s: dropping backend result after close", c.id)
		return
	}

	next := c.state
	next.IsSubmitting = false

	if err != nil {
		c.fire(EventFail)
		next.GeneralError = fmt.Sprintf("Payment failed: %v", err)
		c.metrics.RecordSubmission(ResultFailure, elapsed)
		c.logger.Warnf("Payment form %s: payment failed after %s: %v", c.id, elapsed, err)
	} else {
		c.fire(EventSucceed)
		next.IsSubmissionSuccessful = true
		c.metrics.RecordSubmission(ResultSuccess, elapsed)
		c.logger.Infof("Payment form %s: payment succeeded after %s", c.id, elapsed)
	}

	c.commitLocked(next, true)
}

// mutate applies edit to a copy of the current state and publishes the copy
// if it differs. It reports false once the controller is closed.
func (c *Controller) mutate(edit func(s *models.FormState)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}

	next := c.state
	edit(&next)
	next.HasValidationErrors = next.HasFieldErrors()
	c.commitLocked(next, false)
	return true
}

// commitLocked replaces the state and publishes it. Unless force is set, a
// state equal to the current one is not republished. c.mu must be held.
func (c *Controller) commitLocked(next models.FormState, force bool) {
	next.Status = c.status()
	next.Version = c.state.Version
	if !force && next == c.state {
		return
	}
	next.Version++
	c.state = next
	c.publishLocked(next)
}

func (c *Controller) acceptInput(field, input string) bool {
	v := validation.New()
	v.FieldInput(field, input)
	if v.Valid() {
		return true
	}
	c.metrics.RecordRejectedInput(field)
	c.logger.Debugf("Payment form %s: rejected %s input: %s", c.id, field, v.Error(field))
	return false
}

// expiryError treats a form with neither month nor year as not yet entered.
func (c *Controller) expiryError(f models.CardFields) string {
	if f.ExpiryMonth == "" && f.ExpiryYear == "" {
		return ""
	}
	ok := creditcard.ValidateExpiry(f.ExpiryMonth, f.ExpiryYear, c.clock.CurrentYearLastTwoDigits(), c.clock.CurrentMonth())
	return messageIf(!ok, validation.MsgInvalidExpiry)
}

func messageIf(failed bool, message string) string {
	if failed {
		return message
	}
	return ""
}
