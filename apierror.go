package goIdentity

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/goIdentity/password"
)

// APIError is the transport-facing rendering of an engine error: a
// machine-readable code, an HTTP status, and a client-actionable message.
// Statuses are intentionally uneven across flows (USER_NOT_FOUND is 401,
// ALREADY_DEACTIVATED is 400); the unevenness is a kept compatibility
// contract.
type APIError struct {
	Code    string `json:"code"`
	Status  int    `json:"-"`
	Message string `json:"message"`
}

func (e APIError) Error() string { return e.Code + ": " + e.Message }

// FromError maps an engine error onto its API shape. Unrecognized errors
// map to a generic 500 with no internal detail.
func FromError(err error) APIError {
	var identErr *InvalidIdentifierError
	if errors.As(err, &identErr) {
		return APIError{Code: "INVALID_IDENTIFIER", Status: http.StatusBadRequest, Message: identErr.Hint()}
	}

	var policyErr *password.PolicyError
	if errors.As(err, &policyErr) {
		return APIError{Code: "WEAK_PASSWORD", Status: http.StatusBadRequest, Message: policyErr.Reason}
	}

	switch {
	case errors.Is(err, ErrMissingFields):
		return APIError{Code: "MISSING_FIELDS", Status: http.StatusBadRequest, Message: "Required fields are missing"}
	case errors.Is(err, ErrInvalidIdentifier):
		return APIError{Code: "INVALID_IDENTIFIER", Status: http.StatusBadRequest, Message: "Enter Valid Username"}
	case errors.Is(err, ErrInvalidAge):
		return APIError{Code: "INVALID_AGE", Status: http.StatusBadRequest, Message: "Age must be between 13 and 150"}
	case errors.Is(err, ErrUsernameTaken):
		return APIError{Code: "USERNAME_TAKEN", Status: http.StatusBadRequest, Message: "Username is already taken"}
	case errors.Is(err, ErrAccountExists):
		return APIError{Code: "ACCOUNT_EXISTS", Status: http.StatusBadRequest, Message: "An account with this identifier already exists"}
	case errors.Is(err, ErrAccountNotFound):
		return APIError{Code: "ACCOUNT_NOT_FOUND", Status: http.StatusUnauthorized, Message: "No account found for this identifier"}
	case errors.Is(err, ErrUserNotFound):
		return APIError{Code: "USER_NOT_FOUND", Status: http.StatusUnauthorized, Message: "No user found for this identifier"}
	case errors.Is(err, ErrInvalidPassword):
		return APIError{Code: "INVALID_PASSWORD", Status: http.StatusUnauthorized, Message: "Incorrect password"}
	case errors.Is(err, ErrPasswordNotSet):
		return APIError{Code: "PASSWORD_NOT_SET", Status: http.StatusUnauthorized, Message: "No password set. Sign in with a code or set a password first"}
	case errors.Is(err, ErrOTPNotRequested):
		return APIError{Code: "OTP_NOT_REQUESTED", Status: http.StatusBadRequest, Message: "No verification code was requested"}
	case errors.Is(err, ErrCodeExpired):
		return APIError{Code: "CODE_EXPIRED", Status: http.StatusBadRequest, Message: "The code has expired. Request a new one"}
	case errors.Is(err, ErrInvalidCode):
		return APIError{Code: "INVALID_CODE", Status: http.StatusBadRequest, Message: "The code is incorrect"}
	case errors.Is(err, ErrInvalidRecoveryMethod):
		return APIError{Code: "INVALID_RECOVERY_METHOD", Status: http.StatusBadRequest, Message: "This identifier is not a recovery method for the account"}
	case errors.Is(err, ErrAlreadyDeactivated):
		return APIError{Code: "ALREADY_DEACTIVATED", Status: http.StatusBadRequest, Message: "Account is already deactivated"}
	case errors.Is(err, ErrNotDeactivated):
		return APIError{Code: "NOT_DEACTIVATED", Status: http.StatusBadRequest, Message: "Account is not deactivated"}
	case errors.Is(err, ErrRecoveryLimit):
		return APIError{Code: "RECOVERY_LIMIT", Status: http.StatusBadRequest, Message: "Recovery channel limit reached"}
	case errors.Is(err, ErrPasswordPolicy):
		return APIError{Code: "WEAK_PASSWORD", Status: http.StatusBadRequest, Message: "Password does not meet the strength policy"}
	case errors.Is(err, ErrResendRateLimited):
		return APIError{Code: "RATE_LIMITED", Status: http.StatusTooManyRequests, Message: "Too many attempts. Try again later"}
	case errors.Is(err, ErrTokenInvalid):
		return APIError{Code: "UNAUTHORIZED", Status: http.StatusUnauthorized, Message: "Invalid or expired token"}
	case errors.Is(err, ErrDeliveryFailed):
		return APIError{Code: "DELIVERY_ERROR", Status: http.StatusInternalServerError, Message: "Could not deliver the code. Try again"}
	default:
		return APIError{Code: "INTERNAL_ERROR", Status: http.StatusInternalServerError, Message: "Something went wrong"}
	}
}
