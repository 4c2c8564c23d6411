package goIdentity

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goIdentity/password"
)

// VerifyResetCode checks a reset code without consuming it. The reset
// flow is two-phase on the client: the code screen validates here, then
// the new-password screen submits the same code to [Engine.ResetPassword],
// which is the call that finally burns it.
//
// The account is addressed by any identifier kind, so a caller holding
// the email or mobile the code was sent to does not need the username.
func (e *Engine) VerifyResetCode(ctx context.Context, identifier, code string) error {
	account, err := e.resetAccount(ctx, identifier)
	if err != nil {
		return err
	}

	if err := e.checkResetCode(ctx, account, code); err != nil {
		e.emitAudit(ctx, auditEventResetCodeVerified, false, account.ID, err, nil)
		return err
	}

	e.emitAudit(ctx, auditEventResetCodeVerified, true, account.ID, nil, nil)
	return nil
}

// ResetPassword sets a new password for the account after validating the
// reset code. On success it clears both the reset code and any live
// verification code, so nothing issued before the reset can still
// authenticate, and returns a fresh token.
//
// The password policy is checked before the code so a user with a weak
// password keeps a usable code for the retry.
func (e *Engine) ResetPassword(ctx context.Context, identifier, code, newSecret string) (*ResetResult, error) {
	if err := password.CheckStrength(newSecret); err != nil {
		e.emitAudit(ctx, auditEventPasswordResetFailure, false, "", err, nil)
		return nil, err
	}

	account, err := e.resetAccount(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := e.checkResetCode(ctx, account, code); err != nil {
		e.metricInc(MetricPasswordResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetFailure, false, account.ID, err, nil)
		return nil, err
	}

	hash, err := e.passwordHash.Hash(newSecret)
	if err != nil {
		return nil, err
	}

	if err := e.repo.UpdateCredentialHash(ctx, account.ID, hash); err != nil {
		return nil, mapRepoError(err)
	}
	if err := e.repo.UpdateResetCode(ctx, account.ID, "", time.Time{}); err != nil {
		return nil, mapRepoError(err)
	}
	if err := e.repo.UpdateVerification(ctx, account.ID, "", time.Time{}); err != nil {
		return nil, mapRepoError(err)
	}

	account.CredentialHash = hash

	token, err := e.issueToken(account)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricPasswordResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetSuccess, true, account.ID, nil, nil)

	e.notifyPasswordChanged(ctx, account)

	return &ResetResult{
		Token:   token,
		Account: sanitizeAccount(account),
	}, nil
}

// resetAccount resolves the account a reset code was issued for, by
// username, email, or mobile.
func (e *Engine) resetAccount(ctx context.Context, identifier string) (Account, error) {
	id := Classify(identifier)
	if id.Kind == KindInvalid || (id.Kind == KindUsername && !usernameShaped(id.Value)) {
		return Account{}, &InvalidIdentifierError{Raw: identifier}
	}

	account, err := e.lookupByIdentifier(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Account{}, ErrUserNotFound
		}
		return Account{}, mapRepoError(err)
	}
	return account, nil
}

// checkResetCode validates the stored reset code. Mirrors the
// verification code rules: empty means never requested, expiry clears
// the code eagerly, mismatch leaves it in place.
func (e *Engine) checkResetCode(ctx context.Context, account Account, code string) error {
	if account.ResetCode == "" {
		return ErrOTPNotRequested
	}
	if time.Now().After(account.ResetExpiry) {
		_ = e.repo.UpdateResetCode(ctx, account.ID, "", time.Time{})
		return ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(account.ResetCode), []byte(code)) != 1 {
		return ErrInvalidCode
	}
	return nil
}

// notifyPasswordChanged fans out best-effort change notifications over
// every channel the account has. Failures are swallowed; the reset has
// already succeeded.
func (e *Engine) notifyPasswordChanged(ctx context.Context, account Account) {
	body := fmt.Sprintf("Your %s password was just changed. If this wasn't you, reset it immediately.",
		e.config.Messaging.AppName)

	if account.Email != "" {
		subject := fmt.Sprintf("%s password changed", e.config.Messaging.AppName)
		if err := e.delivery.SendEmail(ctx, account.Email, subject, body); err != nil {
			e.metricInc(MetricDeliveryFailure)
		}
	}
	if account.Mobile != "" {
		if err := e.delivery.SendSMS(ctx, account.Mobile, body); err != nil {
			e.metricInc(MetricDeliveryFailure)
		}
	}

	e.notifyPush(ctx, account.ID, "Password changed", body, map[string]string{"event": "password_changed"})
}
