package goIdentity

import (
	"context"
	"errors"
)

// RequestOTP is the mobile-first entry point: given a phone number it
// creates the account eagerly if none exists, minting a generated
// username, and sends a signin code over SMS. Verification then goes
// through [Engine.VerifyCode] like any other code.
//
// Unlike [Engine.Signin], the account here is created before the channel
// is proven reachable. The generated account is harmless if the SMS
// never arrives; it has no credential and can only be entered through a
// code sent to the same number.
func (e *Engine) RequestOTP(ctx context.Context, mobile string) (*DeliveryReceipt, error) {
	id := Classify(mobile)
	if id.Kind != KindMobile {
		err := &InvalidIdentifierError{Raw: mobile}
		e.emitAudit(ctx, auditEventOTPRequested, false, "", err, nil)
		return nil, err
	}

	account, err := e.repo.GetByMobile(ctx, id.Value)
	if errors.Is(err, ErrAccountNotFound) {
		username, uerr := e.generatedUsername(ctx)
		if uerr != nil {
			return nil, uerr
		}
		account, err = e.repo.Create(ctx, CreateAccountInput{
			Username: username,
			Mobile:   id.Value,
		})
		if errors.Is(err, ErrDuplicateKey) {
			// Lost a race with a concurrent request for the same number.
			account, err = e.repo.GetByMobile(ctx, id.Value)
		}
	}
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

	receipt, err := e.deliverCode(ctx, id, code, purposeVerification, expiresAt)
	if err != nil {
		e.emitAudit(ctx, auditEventOTPRequested, false, account.ID, err, nil)
		return nil, err
	}

	e.metricInc(MetricSigninOTPSent)
	e.emitAudit(ctx, auditEventOTPRequested, true, account.ID, nil, nil)

	return receipt, nil
}
