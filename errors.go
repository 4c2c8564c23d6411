package goIdentity

import (
	"errors"
	"strings"

	"github.com/MrEthical07/goIdentity/password"
)

var (
	// ErrMissingFields is an exported constant or variable used by the identity engine.
	ErrMissingFields = errors.New("required fields missing")
	// ErrInvalidIdentifier is an exported constant or variable used by the identity engine.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrInvalidAge is an exported constant or variable used by the identity engine.
	ErrInvalidAge = errors.New("age out of allowed range")
	// ErrAccountNotFound is an exported constant or variable used by the identity engine.
	ErrAccountNotFound = errors.New("account not found")
	// ErrUserNotFound is an exported constant or variable used by the identity engine.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsernameTaken is an exported constant or variable used by the identity engine.
	ErrUsernameTaken = errors.New("username already taken")
	// ErrAccountExists is an exported constant or variable used by the identity engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrDuplicateKey is an exported constant or variable used by the identity engine.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidPassword is an exported constant or variable used by the identity engine.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrPasswordNotSet is an exported constant or variable used by the identity engine.
	ErrPasswordNotSet = errors.New("no password set for account")
	// ErrOTPNotRequested is an exported constant or variable used by the identity engine.
	ErrOTPNotRequested = errors.New("no verification code requested")
	// ErrCodeExpired is an exported constant or variable used by the identity engine.
	ErrCodeExpired = errors.New("verification code expired")
	// ErrInvalidCode is an exported constant or variable used by the identity engine.
	ErrInvalidCode = errors.New("verification code mismatch")
	// ErrInvalidRecoveryMethod is an exported constant or variable used by the identity engine.
	ErrInvalidRecoveryMethod = errors.New("identifier is not a recovery channel of this account")
	// ErrAlreadyDeactivated is an exported constant or variable used by the identity engine.
	ErrAlreadyDeactivated = errors.New("account already deactivated")
	// ErrNotDeactivated is an exported constant or variable used by the identity engine.
	ErrNotDeactivated = errors.New("account is not deactivated")
	// ErrRecoveryLimit is an exported constant or variable used by the identity engine.
	ErrRecoveryLimit = errors.New("recovery channel limit reached")
	// ErrDeliveryFailed is an exported constant or variable used by the identity engine.
	ErrDeliveryFailed = errors.New("code delivery failed")
	// ErrResendRateLimited is an exported constant or variable used by the identity engine.
	ErrResendRateLimited = errors.New("code resend rate limited")
	// ErrTokenInvalid is an exported constant or variable used by the identity engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrRepositoryUnavailable is an exported constant or variable used by the identity engine.
	ErrRepositoryUnavailable = errors.New("account repository unavailable")
	// ErrPendingUnavailable is an exported constant or variable used by the identity engine.
	ErrPendingUnavailable = errors.New("pending signup backend unavailable")
	// ErrImageStoreNotConfigured is an exported constant or variable used by the identity engine.
	ErrImageStoreNotConfigured = errors.New("image store not configured")
	// ErrInvalidConfig is an exported constant or variable used by the identity engine.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ErrPasswordPolicy is the sentinel matched by errors.Is for strength
// violations. The concrete [password.PolicyError] carries the reason.
var ErrPasswordPolicy = password.ErrWeakPassword

// InvalidIdentifierError wraps [ErrInvalidIdentifier] with the raw input,
// so transports can surface a hint tailored to what the caller typed.
type InvalidIdentifierError struct {
	Raw string
}

func (e *InvalidIdentifierError) Error() string {
	return "invalid identifier: " + e.Hint()
}

func (e *InvalidIdentifierError) Unwrap() error { return ErrInvalidIdentifier }

// Hint returns the user-facing guidance for the rejected input: malformed
// emails get an email hint, bare digit strings get a country-code hint,
// everything else a username hint.
func (e *InvalidIdentifierError) Hint() string {
	switch {
	case strings.Contains(e.Raw, "@"):
		return "Enter Valid Email/Gmail"
	case e.Raw != "" && allDigits(e.Raw):
		return "Enter Valid Username or select country code for mobile number"
	default:
		return "Enter Valid Username"
	}
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
