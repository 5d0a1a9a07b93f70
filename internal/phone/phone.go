// Package phone canonicalizes caller-supplied phone numbers into the two
// formats the upstream providers accept: a bare 10-digit US national number,
// or a +-prefixed E.164 string. Both transformations are idempotent.
package phone

import "strings"

// Digits strips every non-digit character from s.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// National reduces s to a 10-digit US national number. An 11-digit number
// with a leading country code 1 has the 1 dropped. Any other digit count is
// unusable and reported via ok=false; callers decide whether that is a hard
// validation failure or just an absent criterion.
func National(s string) (string, bool) {
	d := Digits(s)
	if len(d) == 11 && strings.HasPrefix(d, "1") {
		d = d[1:]
	}
	if len(d) != 10 {
		return "", false
	}
	return d, true
}

// E164 converts s to international format. An explicit leading + keeps the
// caller's country code, with formatting stripped. 10 digits get a +1
// prefix, 11 digits with a leading 1 get a bare +, anything else is passed
// through with a + so the upstream can report its own validation error.
func E164(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "+") {
		return DigitsPlus(trimmed)
	}
	d := Digits(trimmed)
	switch {
	case len(d) == 10:
		return "+1" + d
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d
	default:
		return "+" + d
	}
}

// DigitsPlus strips everything except digits and a leading +. This is the
// looser cleanup used where the upstream accepts either national or
// international input.
func DigitsPlus(s string) string {
	trimmed := strings.TrimSpace(s)
	d := Digits(trimmed)
	if strings.HasPrefix(trimmed, "+") {
		return "+" + d
	}
	return d
}
