package goIdentity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/MrEthical07/goIdentity/internal"
	"github.com/MrEthical07/goIdentity/password"
)

// SignupRequest is the input for [Engine.RequestSignup]. Email and
// Mobile are individually optional but at least one must be present.
// Password is optional; when supplied it is hashed immediately and only
// the hash is staged in the pending record.
type SignupRequest struct {
	Name        string    `validate:"required"`
	Username    string    `validate:"required"`
	Email       string    `validate:"omitempty,email"`
	Mobile      string
	DateOfBirth time.Time `validate:"required"`
	Gender      string    `validate:"omitempty,oneof=male female other"`
	Password    string
}

// RequestSignup stages a pending signup and sends a verification code to
// the supplied email (preferred) or mobile.
//
// The pending record is persisted before the delivery attempt and
// deleted again if delivery fails: a record whose code never reached the
// user must not linger. Any previous pending signup for the same
// username, email, or mobile is superseded. The record auto-expires via
// the store TTL once the code expiry plus the configured grace has
// passed.
func (e *Engine) RequestSignup(ctx context.Context, req SignupRequest) (*SignupReceipt, error) {
	if err := e.validateSignupRequest(req); err != nil {
		e.emitAudit(ctx, auditEventSignupRequested, false, "", err, nil)
		return nil, err
	}

	var credentialHash string
	if req.Password != "" {
		if err := password.CheckStrength(req.Password); err != nil {
			e.emitAudit(ctx, auditEventSignupRequested, false, "", err, nil)
			return nil, err
		}
		hash, err := e.passwordHash.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		credentialHash = hash
	}

	_, err := e.repo.GetByUsername(ctx, req.Username)
	switch {
	case err == nil:
		e.emitAudit(ctx, auditEventSignupRequested, false, "", ErrUsernameTaken, func() map[string]string {
			return map[string]string{"username": req.Username}
		})
		return nil, ErrUsernameTaken
	case !errors.Is(err, ErrAccountNotFound):
		return nil, mapRepoError(err)
	}

	for _, id := range []Identifier{
		{Kind: KindUsername, Value: req.Username},
		{Kind: KindEmail, Value: req.Email},
		{Kind: KindMobile, Value: req.Mobile},
	} {
		if id.Value == "" {
			continue
		}
		if err := e.pending.Supersede(ctx, id); err != nil {
			return nil, mapPendingStoreError(err)
		}
	}

	code, expiresAt, err := newCode(e.config.Codes.SignupTTL)
	if err != nil {
		return nil, err
	}

	record := &pendingSignupRecord{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Username:       req.Username,
		Email:          req.Email,
		Mobile:         req.Mobile,
		Gender:         req.Gender,
		CredentialHash: credentialHash,
		DateOfBirth:    req.DateOfBirth.Unix(),
		CodeHash:       internal.HashCode(code),
		ExpiresAt:      expiresAt.Unix(),
	}

	ttl := e.config.Codes.SignupTTL + e.config.Codes.PendingGrace
	if err := e.pending.Save(ctx, record, ttl); err != nil {
		return nil, mapPendingStoreError(err)
	}

	destination := Identifier{Kind: KindEmail, Value: req.Email}
	if req.Email == "" {
		destination = Identifier{Kind: KindMobile, Value: req.Mobile}
	}

	receipt, err := e.deliverCode(ctx, destination, code, purposeVerification, expiresAt)
	if err != nil {
		// The pending record must never outlive a failed delivery,
		// otherwise the user has no way to obtain their code.
		_ = e.pending.Delete(ctx, record)
		e.metricInc(MetricSignupDeliveryFailure)
		e.emitAudit(ctx, auditEventSignupDeliveryFailed, false, "", err, func() map[string]string {
			return map[string]string{"username": req.Username}
		})
		return nil, err
	}

	e.metricInc(MetricSignupRequest)
	e.emitAudit(ctx, auditEventSignupRequested, true, "", nil, func() map[string]string {
		return map[string]string{
			"username": req.Username,
			"method":   string(receipt.Method),
		}
	})

	return &SignupReceipt{Delivery: *receipt}, nil
}

func (e *Engine) validateSignupRequest(req SignupRequest) error {
	if err := e.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrMissingFields, err)
	}
	if req.Email == "" && req.Mobile == "" {
		return fmt.Errorf("%w: email or mobile is required", ErrMissingFields)
	}
	if len(req.Name) > e.config.Signup.MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrMissingFields, e.config.Signup.MaxNameLength)
	}

	if id := Classify(req.Username); id.Kind != KindUsername || !usernameShaped(id.Value) {
		return &InvalidIdentifierError{Raw: req.Username}
	}

	// The mobile rule is the classifier's, not a stricter E.164 profile,
	// so any number accepted here is also routable at signin.
	if req.Mobile != "" {
		if id := Classify(req.Mobile); id.Kind != KindMobile {
			return &InvalidIdentifierError{Raw: req.Mobile}
		}
	}

	return e.checkAge(req.DateOfBirth)
}
