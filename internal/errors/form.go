package errors

var (
	ErrSessionNotFound = &DomainError{
		Code:    "SESSION_NOT_FOUND",
		Message: "payment form session not found",
	}
	ErrSessionClosed = &DomainError{
		Code:    "SESSION_CLOSED",
		Message: "payment form session is closed",
	}
	ErrSubmissionInProgress = &DomainError{
		Code:    "SUBMISSION_IN_PROGRESS",
		Message: "a payment is already being processed",
	}
	ErrInvalidInput = &DomainError{
		Code:    "INVALID_INPUT",
		Message: "input rejected for this field",
	}
	ErrUnknownField = &DomainError{
		Code:    "UNKNOWN_FIELD",
		Message: "unknown form field",
	}
	ErrInvalidToken = &DomainError{
		Code:    "INVALID_TOKEN",
		Message: "invalid session token",
	}
)
