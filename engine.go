package goIdentity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/MrEthical07/goIdentity/internal"
	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/password"
)

// Engine is the identity state machine. All orchestration of signup,
// signin, verification, recovery, and lifecycle flows goes through its
// methods; construction happens exclusively through [Builder.Build].
//
// Engine methods are safe for concurrent use.
type Engine struct {
	config Config

	repo     AccountRepository
	delivery DeliveryGateway
	push     PushGateway
	images   ImageStore

	pending       *pendingSignupStore
	resendLimiter *resendLimiter

	audit   *auditDispatcher
	metrics *Metrics

	passwordHash *password.Argon2
	jwtManager   *jwt.Manager
	validate     *validator.Validate
}

// Close releases background resources (the audit dispatcher). The
// engine must not be used after Close.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.audit.Close()
}

// MetricsSnapshot returns a point-in-time copy of engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	return e.metrics.Snapshot()
}

// AuditDropped reports how many audit events were dropped because the
// dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Validate parses and verifies an access token and returns the identity
// it carries. It performs no repository I/O.
func (e *Engine) Validate(_ context.Context, token string) (*AuthResult, error) {
	claims, err := e.jwtManager.ParseAccess(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	return &AuthResult{
		AccountID: claims.UID,
		Username:  claims.Username,
	}, nil
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}

// issueToken signs an access token for the account. Token issuance is
// deliberately independent of deactivation state: a deactivated account
// still receives a token so the client can drive reactivation.
func (e *Engine) issueToken(account Account) (string, error) {
	return e.jwtManager.CreateAccess(account.ID, account.Username)
}

// lookupByIdentifier resolves a classified identifier to an account.
// Absence maps to ErrAccountNotFound regardless of kind.
func (e *Engine) lookupByIdentifier(ctx context.Context, id Identifier) (Account, error) {
	switch id.Kind {
	case KindEmail:
		return e.repo.GetByEmail(ctx, id.Value)
	case KindMobile:
		return e.repo.GetByMobile(ctx, id.Value)
	case KindUsername:
		return e.repo.GetByUsername(ctx, id.Value)
	default:
		return Account{}, &InvalidIdentifierError{Raw: id.Value}
	}
}

// mapRepoError normalizes repository failures: not-found and duplicate
// sentinels pass through, everything else becomes unavailable.
func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrDuplicateKey):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrRepositoryUnavailable, err)
	}
}

func mapPendingStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errPendingNotFound):
		return ErrOTPNotRequested
	case errors.Is(err, errPendingExpired):
		return ErrCodeExpired
	case errors.Is(err, errPendingCodeMismatch):
		return ErrInvalidCode
	default:
		return fmt.Errorf("%w: %v", ErrPendingUnavailable, err)
	}
}

func mapResendLimiterError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, errResendRateLimited):
		return ErrResendRateLimited
	default:
		return fmt.Errorf("%w: %v", ErrPendingUnavailable, err)
	}
}

// ageInYears computes age by calendar-year subtraction. This is coarser
// than elapsed-time age: a birthday late in the year counts a full year
// from January 1st. The imprecision is a kept contract, not a bug.
func ageInYears(dob time.Time, now time.Time) int {
	return now.Year() - dob.Year()
}

func (e *Engine) checkAge(dob time.Time) error {
	age := ageInYears(dob, time.Now())
	if age < e.config.Signup.MinAge || age > e.config.Signup.MaxAge {
		return fmt.Errorf("%w: age %d is outside [%d, %d]",
			ErrInvalidAge, age, e.config.Signup.MinAge, e.config.Signup.MaxAge)
	}
	return nil
}

// generatedUsername mints a random username for accounts created without
// one (implicit and mobile-first signups), retrying on collision.
func (e *Engine) generatedUsername(ctx context.Context) (string, error) {
	const maxAttempts = 5

	for i := 0; i < maxAttempts; i++ {
		suffix, err := internal.NewDigits(6)
		if err != nil {
			return "", err
		}
		candidate := e.config.Signup.GeneratedUsernamePrefix + suffix

		_, err = e.repo.GetByUsername(ctx, candidate)
		if errors.Is(err, ErrAccountNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", mapRepoError(err)
		}
	}

	return "", fmt.Errorf("%w: could not mint unique username", ErrRepositoryUnavailable)
}

// newCode generates a fresh 6-digit code with its absolute expiry.
func newCode(ttl time.Duration) (code string, expiresAt time.Time, err error) {
	code, err = internal.NewCode()
	if err != nil {
		return "", time.Time{}, err
	}
	return code, time.Now().Add(ttl), nil
}
