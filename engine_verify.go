package goIdentity

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/MrEthical07/goIdentity/internal"
)

// VerifyCode completes a code-gated flow for the identifier. Pending
// signups take precedence: if the identifier resolves to a staged
// registration the code consumes it and promotes it to a confirmed
// account. Otherwise the code is checked against the verification state
// of the existing account.
//
// Promotion can race a concurrent registration of the same username.
// The store consume is atomic, but the account insert is not part of it,
// so a duplicate-key failure from the repository maps to ErrAccountExists
// and the caller must restart the signup.
func (e *Engine) VerifyCode(ctx context.Context, identifier, code string) (*VerifyResult, error) {
	id := Classify(identifier)
	if id.Kind == KindInvalid || (id.Kind == KindUsername && !usernameShaped(id.Value)) {
		err := &InvalidIdentifierError{Raw: identifier}
		e.emitAudit(ctx, auditEventVerifyFailure, false, "", err, nil)
		return nil, err
	}

	_, err := e.pending.Find(ctx, id)
	switch {
	case err == nil:
		return e.verifyPending(ctx, id, code)
	case errors.Is(err, errPendingNotFound):
		return e.verifyAccount(ctx, id, code)
	default:
		return nil, mapPendingStoreError(err)
	}
}

func (e *Engine) verifyPending(ctx context.Context, id Identifier, code string) (*VerifyResult, error) {
	consumed, err := e.pending.Consume(ctx, id, internal.HashCode(code))
	if err != nil {
		mapped := mapPendingStoreError(err)
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, "", mapped, nil)
		return nil, mapped
	}

	// The username may have been claimed between signup request and
	// verification. The check runs only after the code matched, so a
	// guessed wrong code cannot be used to tell whether the name raced.
	if consumed.Username != "" {
		_, err := e.repo.GetByUsername(ctx, consumed.Username)
		switch {
		case err == nil:
			e.metricInc(MetricSignupRaceLost)
			e.emitAudit(ctx, auditEventSignupRace, false, "", ErrAccountExists, func() map[string]string {
				return map[string]string{"username": consumed.Username}
			})
			return nil, ErrAccountExists
		case !errors.Is(err, ErrAccountNotFound):
			return nil, mapRepoError(err)
		}
	}

	username := consumed.Username
	if username == "" {
		username, err = e.generatedUsername(ctx)
		if err != nil {
			return nil, err
		}
	}

	var dob time.Time
	if consumed.DateOfBirth != 0 {
		dob = time.Unix(consumed.DateOfBirth, 0).UTC()
	}

	account, err := e.repo.Create(ctx, CreateAccountInput{
		Username:       username,
		Email:          consumed.Email,
		Mobile:         consumed.Mobile,
		CredentialHash: consumed.CredentialHash,
		Name:           consumed.Name,
		DateOfBirth:    dob,
		Gender:         consumed.Gender,
	})
	if err != nil {
		err = mapRepoError(err)
		if errors.Is(err, ErrDuplicateKey) {
			e.metricInc(MetricSignupRaceLost)
			e.emitAudit(ctx, auditEventSignupRace, false, "", ErrAccountExists, nil)
			return nil, ErrAccountExists
		}
		return nil, err
	}

	token, err := e.issueToken(account)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricSignupPromoted)
	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, auditEventSignupPromoted, true, account.ID, nil, func() map[string]string {
		return map[string]string{"username": account.Username}
	})

	return &VerifyResult{
		Token:           token,
		Account:         sanitizeAccount(account),
		ProfileComplete: account.ProfileImageRef != "",
		Created:         true,
	}, nil
}

func (e *Engine) verifyAccount(ctx context.Context, id Identifier, code string) (*VerifyResult, error) {
	account, err := e.lookupByIdentifier(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if err := e.checkAccountCode(ctx, account, code); err != nil {
		e.metricInc(MetricVerifyFailure)
		e.emitAudit(ctx, auditEventVerifyFailure, false, account.ID, err, nil)
		return nil, err
	}

	// Single use: a matching code is cleared before the token goes out.
	if err := e.repo.UpdateVerification(ctx, account.ID, "", time.Time{}); err != nil {
		return nil, mapRepoError(err)
	}

	token, err := e.issueToken(account)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricVerifySuccess)
	e.emitAudit(ctx, auditEventVerifySuccess, true, account.ID, nil, nil)

	return &VerifyResult{
		Token:           token,
		Account:         sanitizeAccount(account),
		ProfileComplete: account.ProfileImageRef != "",
	}, nil
}

// checkAccountCode validates a verification code stored on the account.
// An expired code is cleared eagerly so a later attempt reports
// OTP_NOT_REQUESTED rather than CODE_EXPIRED forever.
func (e *Engine) checkAccountCode(ctx context.Context, account Account, code string) error {
	if account.OTPCode == "" {
		return ErrOTPNotRequested
	}
	if time.Now().After(account.OTPExpiry) {
		_ = e.repo.UpdateVerification(ctx, account.ID, "", time.Time{})
		return ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(account.OTPCode), []byte(code)) != 1 {
		return ErrInvalidCode
	}
	return nil
}
