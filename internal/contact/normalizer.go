// Package contact validates and canonicalizes raw phone-number input into the
// single canonical form used by the delivery channels: the fixed country
// prefix followed by a ten-digit national number.
package contact

import "strings"

// CountryPrefix is the fixed country calling code assumed for every contact.
const CountryPrefix = "91"

const nationalLength = 10

// validLeadingDigits are the allowed first digits of a national mobile number.
// Landline-style numbers start lower and are rejected.
var validLeadingDigits = map[byte]bool{'6': true, '7': true, '8': true, '9': true}

// Reason is a typed rejection reason for an invalid contact.
type Reason string

const (
	ReasonEmpty      Reason = "empty"
	ReasonBadLength  Reason = "bad_length"
	ReasonBadLeading Reason = "invalid_leading_digit"
	ReasonRepeated   Reason = "all_digits_identical"
	ReasonSequential Reason = "sequential_digits"
)

// ValidationResult is the outcome of normalizing one raw input. Canonical is
// set only when Valid; Reason only when not.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Canonical string `json:"canonical,omitempty"`
	Reason    Reason `json:"reason,omitempty"`
}

// Normalize strips, reshapes and validates a raw phone string. The reshaping
// rules are tried in strict order, first match wins:
//
//  1. prefix + 10 digits (12 total) is split into prefix and national number
//  2. a single leading zero + 10 digits (11 total) drops the zero
//  3. exactly 10 digits is the national number as-is
//  4. longer than 10 digits keeps the last 10 as a best effort
//  5. anything shorter is left for validation to reject
//
// Normalize is idempotent: feeding a canonical value back in yields the same
// result.
func Normalize(raw string) ValidationResult {
	digits := stripNonDigits(raw)
	if digits == "" {
		return ValidationResult{Valid: false, Reason: ReasonEmpty}
	}

	var national string
	switch {
	case strings.HasPrefix(digits, CountryPrefix) && len(digits) == len(CountryPrefix)+nationalLength:
		national = digits[len(CountryPrefix):]
	case strings.HasPrefix(digits, "0") && len(digits) == nationalLength+1:
		national = digits[1:]
	case len(digits) == nationalLength:
		national = digits
	case len(digits) > nationalLength:
		national = digits[len(digits)-nationalLength:]
	default:
		national = digits
	}

	if reason, ok := validate(national); !ok {
		return ValidationResult{Valid: false, Reason: reason}
	}
	return ValidationResult{Valid: true, Canonical: CountryPrefix + national}
}

func validate(national string) (Reason, bool) {
	if len(national) != nationalLength {
		return ReasonBadLength, false
	}
	if !validLeadingDigits[national[0]] {
		return ReasonBadLeading, false
	}
	if allIdentical(national) {
		return ReasonRepeated, false
	}
	if ascendingCyclic(national) {
		return ReasonSequential, false
	}
	return "", true
}

func allIdentical(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

// ascendingCyclic reports whether every digit is the previous plus one,
// wrapping 9 to 0.
func ascendingCyclic(s string) bool {
	for i := 1; i < len(s); i++ {
		prev := s[i-1] - '0'
		if s[i]-'0' != (prev+1)%10 {
			return false
		}
	}
	return true
}

func stripNonDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// FormatDisplay renders a canonical contact grouped for readability, e.g.
// "+91 98765 43210". It is for display only and never used for delivery.
func FormatDisplay(canonical string) string {
	if len(canonical) != len(CountryPrefix)+nationalLength || !strings.HasPrefix(canonical, CountryPrefix) {
		return canonical
	}
	national := canonical[len(CountryPrefix):]
	return "+" + CountryPrefix + " " + national[:5] + " " + national[5:]
}
