package registration

import "strings"

// FormatPhoneNumber normalizes partial input into North American display
// form while the user types. Digits beyond the tenth are dropped.
func FormatPhoneNumber(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch n := len(digits); {
	case n < 4:
		return digits
	case n < 7:
		return "(" + digits[:3] + ") " + digits[3:]
	default:
		if n > 10 {
			digits = digits[:10]
		}
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:]
	}
}
