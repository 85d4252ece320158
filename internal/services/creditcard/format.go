package creditcard

import "strings"

// IsDigits reports whether s is made of ASCII digits only. Empty input is all digits.
func IsDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// DigitsOnly drops every character that is not an ASCII digit.
func DigitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// FormatNumber regroups the digits of s by four, separated by single spaces.
func FormatNumber(s string) string {
	digits := DigitsOnly(s)
	if digits == "" {
		return ""
	}

	var sb strings.Builder
	sb.Grow(len(digits) + len(digits)/groupSize)
	for i := 0; i < len(digits); i++ {
		if i > 0 && i%groupSize == 0 {
			sb.WriteString(groupSeparator)
		}
		sb.WriteByte(digits[i])
	}
	return sb.String()
}

// MaskNumber keeps the first six and last four digits visible. Used for logs only.
func MaskNumber(s string) string {
	cleaned := DigitsOnly(s)
	n := len(cleaned)
	if n == 0 {
		return ""
	}
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	if n < 10 {
		return strings.Repeat("*", n-4) + cleaned[n-4:]
	}
	return cleaned[:6] + strings.Repeat("*", n-10) + cleaned[n-4:]
}
