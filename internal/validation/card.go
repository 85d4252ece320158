package validation

import (
	"cardform/internal/models"
	"cardform/internal/services/creditcard"
)

// Card validates every field of a payment form against the submit-time rules.
func (v *Validator) Card(fields models.CardFields, currentYear, currentMonth int) {
	v.Check(creditcard.ValidateNumber(fields.Number), FieldNumber, MsgSubmitNumber)
	v.Check(creditcard.ValidateName(fields.HolderName), FieldHolderName, MsgSubmitName)
	v.Check(
		creditcard.ValidateExpiry(fields.ExpiryMonth, fields.ExpiryYear, currentYear, currentMonth),
		FieldExpiry,
		MsgSubmitExpiry,
	)
	v.Check(creditcard.ValidateCVV(fields.CVV), FieldCVV, MsgSubmitCVV)
}

// FieldInput validates a single raw edit before it is stored. Expiry parts and
// the CVV only accept digits and are length-capped; other fields are free text.
func (v *Validator) FieldInput(field, value string) {
	switch field {
	case FieldExpiryMonth, FieldExpiryYear:
		v.Check(len(value) <= MaxExpiryPartLength, field, "must be at most 2 digits")
		v.Check(creditcard.IsDigits(value), field, "must contain digits only")
	case FieldCVV:
		v.Check(len(value) <= MaxCVVLength, field, "must be at most 4 digits")
		v.Check(creditcard.IsDigits(value), field, "must contain digits only")
	}
}
