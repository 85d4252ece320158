// Package creditcard holds the pure field rules of the payment form.
// Nothing here reads the clock or keeps state; callers pass the current
// year and month in.
package creditcard

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// NumberLength is the only accepted card number length
	NumberLength = 16
	// MinNameLength is counted in runes after trimming
	MinNameLength = 3

	groupSize      = 4
	groupSeparator = " "
)

var cvvRegex = regexp.MustCompile(`^[0-9]{3,4}$`)

// ValidateNumber strips formatting and accepts exactly 16 digits that pass Luhn.
func ValidateNumber(raw string) bool {
	digits := DigitsOnly(raw)
	if len(digits) != NumberLength {
		return false
	}
	return Luhn(digits)
}

// Luhn Algorithm: starting from the rightmost digit, every second digit is
// doubled and folded back below ten before summing.
func Luhn(digits string) bool {
	if digits == "" || !IsDigits(digits) {
		return false
	}

	var sum int
	shouldDouble := false

	for i := len(digits) - 1; i >= 0; i-- {
		digit := int(digits[i] - '0')
		if shouldDouble {
			digit = digit * 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		shouldDouble = !shouldDouble
	}

	return sum%10 == 0
}

// ValidateName requires at least three characters once surrounding space is removed.
func ValidateName(name string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(name)) >= MinNameLength
}

// ValidateExpiry checks a two-digit month/year pair against the current
// two-digit year and month. Years are compared as given; there is no
// century handling.
func ValidateExpiry(month, year string, currentYear, currentMonth int) bool {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return false
	}

	switch {
	case y < currentYear:
		return false
	case y == currentYear:
		return m >= currentMonth
	default:
		return true
	}
}

// ValidateCVV accepts exactly three or four digits.
func ValidateCVV(cvv string) bool {
	return cvvRegex.MatchString(cvv)
}
