// Package format holds the pure message-formatting helpers used by the
// dispatcher: Philippine mobile number normalization and message body
// decoration. Nothing here performs I/O.
package format

import "strings"

const (
	// CountryCode is the Philippine calling code prefixed to local numbers.
	CountryCode = "63"

	// SingleSegmentLimit is the single-credit SMS length. Longer bodies are
	// allowed but cost extra segments; callers can observe this via
	// SegmentCount.
	SingleSegmentLimit = 160
)

// NormalizePhoneNumber converts a raw phone number to the gateway's
// international format. It strips every non-digit character, then:
//
//	9171234567  (10 digits, leading 9) -> 639171234567
//	09171234567 (11 digits, leading 0) -> 639171234567
//	639171234567                       -> unchanged
//
// Anything else is returned as its bare digits. The function is total and
// idempotent.
func NormalizePhoneNumber(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10 && digits[0] == '9':
		return CountryCode + digits
	case len(digits) == 11 && digits[0] == '0' && digits[1] == '9':
		return CountryCode + digits[1:]
	default:
		return digits
	}
}

// FormatMessageBody trims the body and prepends the configured sender prefix
// once. Stable: same input, same output.
func FormatMessageBody(body, prefix string) string {
	body = strings.TrimSpace(body)
	if body == "" {
		return ""
	}

	prefix = strings.TrimSpace(prefix)
	if prefix == "" || strings.HasPrefix(body, prefix) {
		return body
	}

	return prefix + " " + body
}

// SegmentCount returns how many SMS segments the body occupies.
func SegmentCount(body string) int {
	if body == "" {
		return 0
	}
	n := len(body) / SingleSegmentLimit
	if len(body)%SingleSegmentLimit > 0 {
		n++
	}
	return n
}

// ExceedsSingleSegment reports whether the body costs more than one credit.
func ExceedsSingleSegment(body string) bool {
	return len(body) > SingleSegmentLimit
}
