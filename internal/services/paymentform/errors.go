package paymentform

import "errors"

var (
	ErrSubmissionInProgress = errors.New("payment submission already in progress")
	ErrClosed               = errors.New("payment form is closed")
)
