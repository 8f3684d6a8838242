// Package validation holds the pure input checks run before any network call:
// email, phone, password strength, display name and OTP code format, plus a
// minimal input sanitizer.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultOTPLength = 6
	MaxInputLength   = 1000

	minPasswordLength = 8
	minNameLength     = 2
	maxNameLength     = 100
)

var (
	emailRe      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe      = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	phoneNoiseRe = regexp.MustCompile(`[\s\-()]`)
	nameRe       = regexp.MustCompile(`^[a-zA-ZáéíóúÁÉÍÓÚñÑ\s]+$`)
	digitsRe     = regexp.MustCompile(`^[0-9]+$`)
	upperRe      = regexp.MustCompile(`[A-Z]`)
	lowerRe      = regexp.MustCompile(`[a-z]`)
	digitRe      = regexp.MustCompile(`[0-9]`)
)

// Result is the outcome of a rule-based check. Message names the first
// rule that failed and is empty when Valid.
type Result struct {
	Valid   bool
	Message string
}

func ok() Result { return Result{Valid: true} }

func fail(msg string) Result { return Result{Valid: false, Message: msg} }

// ValidateEmail reports whether s has the local@domain.tld shape.
func ValidateEmail(s string) bool {
	return emailRe.MatchString(s)
}

// ValidatePhone ignores spaces, dashes and parentheses, then requires 10 to
// 15 digits with an optional leading '+'.
func ValidatePhone(s string) bool {
	return phoneRe.MatchString(phoneNoiseRe.ReplaceAllString(s, ""))
}

// ValidatePassword checks length, uppercase, lowercase and digit, in that
// order, and reports the first unmet rule.
func ValidatePassword(s string) Result {
	switch {
	case utf8.RuneCountInString(s) < minPasswordLength:
		return fail(fmt.Sprintf("Password must be at least %d characters long", minPasswordLength))
	case !upperRe.MatchString(s):
		return fail("Password must contain at least one uppercase letter")
	case !lowerRe.MatchString(s):
		return fail("Password must contain at least one lowercase letter")
	case !digitRe.MatchString(s):
		return fail("Password must contain at least one number")
	}
	return ok()
}

// ValidateName accepts 2 to 100 letters (Latin alphabet plus Spanish
// accented letters) and spaces, after trimming.
func ValidateName(s string) Result {
	name := strings.TrimSpace(s)
	n := utf8.RuneCountInString(name)

	switch {
	case n < minNameLength:
		return fail(fmt.Sprintf("Name must be at least %d characters long", minNameLength))
	case n > maxNameLength:
		return fail(fmt.Sprintf("Name cannot exceed %d characters", maxNameLength))
	case !nameRe.MatchString(name):
		return fail("Name may only contain letters and spaces")
	}
	return ok()
}

// ValidateOTP requires exactly length characters, all of them digits.
// A non-positive length falls back to DefaultOTPLength.
func ValidateOTP(code string, length int) Result {
	if length <= 0 {
		length = DefaultOTPLength
	}
	if code == "" || utf8.RuneCountInString(code) != length {
		return fail(fmt.Sprintf("The code must have %d digits", length))
	}
	if !digitsRe.MatchString(code) {
		return fail("The code may only contain digits")
	}
	return ok()
}

// SanitizeInput trims s, drops angle brackets and truncates the result to
// MaxInputLength characters. It is a cosmetic filter, not an escaping layer.
func SanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("<", "", ">", "").Replace(s)

	if utf8.RuneCountInString(s) <= MaxInputLength {
		return s
	}
	return string([]rune(s)[:MaxInputLength])
}
