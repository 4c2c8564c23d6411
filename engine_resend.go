package goIdentity

import (
	"context"
	"errors"

	"github.com/MrEthical07/goIdentity/internal"
)

// ResendCode re-issues a verification code for the identifier, covering
// both a staged pending signup and a confirmed account mid signin. Each
// resend replaces the previous code; the old one stops working at once.
//
// Unlike the initial signup, a failed resend delivery leaves the pending
// record in place. The registration already exists and the user can
// retry, so dropping it would only force them to start over.
//
// The optional preferred argument picks the delivery channel when the
// resolved record carries both an email and a mobile; at most the first
// value is honored.
func (e *Engine) ResendCode(ctx context.Context, identifier string, preferred ...DeliveryMethod) (*DeliveryReceipt, error) {
	id := Classify(identifier)
	if id.Kind == KindInvalid || (id.Kind == KindUsername && !usernameShaped(id.Value)) {
		return nil, &InvalidIdentifierError{Raw: identifier}
	}

	if e.config.Resend.Enabled {
		if err := e.resendLimiter.Check(ctx, id.Value); err != nil {
			mapped := mapResendLimiterError(err)
			if errors.Is(mapped, ErrResendRateLimited) {
				e.metricInc(MetricResendRateLimited)
				e.emitAudit(ctx, auditEventCodeResendRateLimited, false, "", mapped, nil)
			}
			return nil, mapped
		}
	}

	record, err := e.pending.Find(ctx, id)
	switch {
	case err == nil:
		return e.resendPending(ctx, record, firstMethod(preferred))
	case errors.Is(err, errPendingNotFound):
		return e.resendAccount(ctx, id, firstMethod(preferred))
	default:
		return nil, mapPendingStoreError(err)
	}
}

func (e *Engine) resendPending(ctx context.Context, record *pendingSignupRecord, preferred DeliveryMethod) (*DeliveryReceipt, error) {
	code, expiresAt, err := newCode(e.config.Codes.SignupTTL)
	if err != nil {
		return nil, err
	}

	record.CodeHash = internal.HashCode(code)
	record.ExpiresAt = expiresAt.Unix()

	ttl := e.config.Codes.SignupTTL + e.config.Codes.PendingGrace
	if err := e.pending.Save(ctx, record, ttl); err != nil {
		return nil, mapPendingStoreError(err)
	}

	destination := chooseContact(record.Email, record.Mobile, preferred)

	receipt, err := e.deliverCode(ctx, destination, code, purposeVerification, expiresAt)
	if err != nil {
		e.emitAudit(ctx, auditEventCodeResend, false, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricCodeResend)
	e.emitAudit(ctx, auditEventCodeResend, true, "", nil, func() map[string]string {
		return map[string]string{"method": string(receipt.Method), "stage": "pending"}
	})

	return receipt, nil
}

func (e *Engine) resendAccount(ctx context.Context, id Identifier, preferred DeliveryMethod) (*DeliveryReceipt, error) {
	account, err := e.lookupByIdentifier(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}

	code, expiresAt, err := newCode(e.config.Codes.SigninTTL)
	if err != nil {
		return nil, err
	}

	if err := e.repo.UpdateVerification(ctx, account.ID, code, expiresAt); err != nil {
		return nil, mapRepoError(err)
	}

	destination := id
	if id.Kind == KindUsername {
		destination = chooseContact(account.Email, account.Mobile, preferred)
		if destination.Kind == KindInvalid {
			return nil, ErrInvalidRecoveryMethod
		}
	}

	receipt, err := e.deliverCode(ctx, destination, code, purposeVerification, expiresAt)
	if err != nil {
		e.emitAudit(ctx, auditEventCodeResend, false, account.ID, err, nil)
		return nil, err
	}

	e.metricInc(MetricCodeResend)
	e.emitAudit(ctx, auditEventCodeResend, true, account.ID, nil, func() map[string]string {
		return map[string]string{"method": string(receipt.Method), "stage": "account"}
	})

	return receipt, nil
}
