/*
Package paymentform holds the state of one card payment form session.

A Controller owns the current models.FormState. Front-ends call its mutators
as the user types, call ProcessPayment on submit and render every snapshot
they receive through Subscribe.

Usage:

	ctrl := paymentform.NewController(clock.NewSystem(time.UTC), payment.NewStubBackend(2*time.Second),
	    paymentform.WithLogger(log),
	)
	defer ctrl.Close()

	unsubscribe := ctrl.Subscribe(func(s models.FormState) { render(s) })
	defer unsubscribe()

	ctrl.UpdateCardNumber("4111111111111111")
	ctrl.UpdateCardholderName("Jane Doe")
	ctrl.UpdateExpiryMonth("12")
	ctrl.UpdateExpiryYear("30")
	ctrl.UpdateCVV("123")

	if err := ctrl.ProcessPayment(); errors.Is(err, paymentform.ErrSubmissionInProgress) {
	    // a payment is already on its way
	}

Submission:

Submitting runs through a small state machine (idle, submitting, succeeded,
failed). A rejected submit leaves the machine idle and only sets field errors.
Succeeded and failed are terminal until ResetSubmissionState is called; a new
ProcessPayment from a terminal state resets implicitly.

Errors:

Field and backend failures never surface as Go errors; they are written into
the published state. ProcessPayment returns:
  - ErrSubmissionInProgress: a submission is already running, nothing changed
  - ErrClosed: the controller has been closed

Concurrency:

Every mutation replaces the whole state under one lock. Each subscriber has its
own delivery goroutine, receives snapshots in mutation order and may call back
into the controller. After Close, pending backend results are discarded.
*/
package paymentform
