package password

import (
	"errors"
	"strings"
	"unicode"
)

const minLength = 8

const specialChars = `!@#$%^&*(),.?":{}|<>`

// ErrWeakPassword is the sentinel matched by errors.Is for every
// strength-policy violation. The concrete *PolicyError carries the
// user-facing reason.
var ErrWeakPassword = errors.New("weak password")

// PolicyError reports the first strength rule a candidate secret
// violates. Reason is written for end users, not for logs.
type PolicyError struct {
	Reason string
}

func (e *PolicyError) Error() string { return e.Reason }

func (e *PolicyError) Unwrap() error { return ErrWeakPassword }

// CheckStrength validates a candidate secret against the account
// password policy. Rules are checked in a fixed order and the first
// failure is reported: length, uppercase, lowercase, digit, special
// character.
func CheckStrength(secret string) error {
	if len(secret) < minLength {
		return &PolicyError{Reason: "Password must be at least 8 characters long"}
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range secret {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasUpper {
		return &PolicyError{Reason: "Password must contain at least one uppercase letter"}
	}
	if !hasLower {
		return &PolicyError{Reason: "Password must contain at least one lowercase letter"}
	}
	if !hasDigit {
		return &PolicyError{Reason: "Password must contain at least one number"}
	}
	if !strings.ContainsAny(secret, specialChars) {
		return &PolicyError{Reason: "Password must contain at least one special character"}
	}

	return nil
}
