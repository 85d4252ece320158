package models

// CardFields holds the values currently typed into the payment form.
type CardFields struct {
	Number      string `json:"number"`
	HolderName  string `json:"holder_name"`
	ExpiryMonth string `json:"expiry_month"`
	ExpiryYear  string `json:"expiry_year"`
	CVV         string `json:"cvv"`
}

// SubmissionStatus is the state of the submission state machine
type SubmissionStatus string

const (
	SubmissionIdle       SubmissionStatus = "idle"
	SubmissionSubmitting SubmissionStatus = "submitting"
	SubmissionSucceeded  SubmissionStatus = "succeeded"
	SubmissionFailed     SubmissionStatus = "failed"
)

// FormState is the snapshot published to front-ends on every change.
// A field error is non-empty only when that field's last validation failed.
type FormState struct {
	Fields CardFields `json:"fields"`

	NumberError  string `json:"number_error,omitempty"`
	NameError    string `json:"name_error,omitempty"`
	ExpiryError  string `json:"expiry_error,omitempty"`
	CVVError     string `json:"cvv_error,omitempty"`
	GeneralError string `json:"general_error,omitempty"`

	IsSubmitting           bool `json:"is_submitting"`
	IsSubmissionSuccessful bool `json:"is_submission_successful"`
	HasValidationErrors    bool `json:"has_validation_errors"`

	Status  SubmissionStatus `json:"status"`
	Version uint64           `json:"version"`
}

// NewFormState returns the empty form shown when a session starts
func NewFormState() FormState {
	return FormState{Status: SubmissionIdle}
}

// HasFieldErrors reports whether any per-field message is set
func (s FormState) HasFieldErrors() bool {
	return s.NumberError != "" || s.NameError != "" || s.ExpiryError != "" || s.CVVError != ""
}
