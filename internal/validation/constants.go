package validation

// Form field keys, shared by the controller and the HTTP layer
const (
	FieldNumber      = "number"
	FieldHolderName  = "holder_name"
	FieldExpiry      = "expiry"
	FieldExpiryMonth = "expiry_month"
	FieldExpiryYear  = "expiry_year"
	FieldCVV         = "cvv"
)

// Messages shown while the user is typing
const (
	MsgInvalidNumber = "Invalid card number"
	MsgInvalidName   = "Name must be at least 3 characters"
	MsgInvalidExpiry = "Invalid or expired date"
	MsgInvalidCVV    = "CVV must be 3 or 4 digits"
)

// Messages shown when a submit attempt is rejected
const (
	MsgSubmitNumber = "Please enter a valid 16-digit card number"
	MsgSubmitName   = "Please enter the cardholder name"
	MsgSubmitExpiry = "Please enter a valid expiry date"
	MsgSubmitCVV    = "Please enter a valid CVV"
)

// Input limits for single fields
const (
	MaxExpiryPartLength = 2
	MaxCVVLength        = 4
)
