package contact_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgekeep/go-booking-notifications/internal/contact"
)

func TestNormalize_InputShapes(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		valid     bool
		canonical string
		reason    contact.Reason
	}{
		{"with country prefix", "919876543210", true, "919876543210", ""},
		{"plus and spaces", "+91 98765 43210", true, "919876543210", ""},
		{"leading zero", "09876543210", true, "919876543210", ""},
		{"bare national number", "9876543210", true, "919876543210", ""},
		{"dashed input", "98765-43210", true, "919876543210", ""},
		{"overlong takes last ten", "0091 9876543210", true, "919876543210", ""},
		{"empty", "", false, "", contact.ReasonEmpty},
		{"no digits at all", "abc-def", false, "", contact.ReasonEmpty},
		{"too short", "98765", false, "", contact.ReasonBadLength},
		{"landline leading digit", "0226543210", false, "", contact.ReasonBadLeading},
		{"all identical digits", "9999999999", false, "", contact.ReasonRepeated},
		{"ascending run", "6789012345", false, "", contact.ReasonSequential},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := contact.Normalize(tc.raw)
			assert.Equal(t, tc.valid, res.Valid)
			assert.Equal(t, tc.canonical, res.Canonical)
			assert.Equal(t, tc.reason, res.Reason)
		})
	}
}

func TestNormalize_RejectsAllIdenticalDigits(t *testing.T) {
	// Only runs starting with a valid leading digit get as far as the
	// pattern checks; the rest fail on the leading digit alone.
	for d := '0'; d <= '9'; d++ {
		num := strings.Repeat(string(d), 10)
		res := contact.Normalize(num)
		assert.False(t, res.Valid, "number %s should be rejected", num)
	}
}

func TestNormalize_RejectsAscendingCyclicSequences(t *testing.T) {
	// Every strictly ascending run (mod 10) of length ten, regardless of
	// starting digit, is implausible and rejected.
	for start := 0; start < 10; start++ {
		num := make([]byte, 10)
		for i := range num {
			num[i] = byte('0' + (start+i)%10)
		}
		res := contact.Normalize(string(num))
		assert.False(t, res.Valid, "sequence %s should be rejected", num)
	}
}

func TestNormalize_InputShapeEquivalence(t *testing.T) {
	// prefix+number, bare number and 0+number all canonicalize identically.
	numbers := []string{"9876543210", "6123056789", "7000012345", "8899776655"}
	for _, n := range numbers {
		withPrefix := contact.Normalize("91" + n)
		bare := contact.Normalize(n)
		withZero := contact.Normalize("0" + n)

		require.True(t, bare.Valid, "number %s should be valid", n)
		assert.Equal(t, bare, withPrefix)
		assert.Equal(t, bare, withZero)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{"+91 98765 43210", "09876543210", "6123056789"}
	for _, raw := range inputs {
		first := contact.Normalize(raw)
		require.True(t, first.Valid)
		second := contact.Normalize(first.Canonical)
		assert.Equal(t, first, second)
	}
}

func TestFormatDisplay(t *testing.T) {
	assert.Equal(t, "+91 98765 43210", contact.FormatDisplay("919876543210"))
	// Anything that is not a canonical value passes through untouched.
	assert.Equal(t, "98765", contact.FormatDisplay("98765"))
}
