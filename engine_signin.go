package goIdentity

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/MrEthical07/goIdentity/internal"
	"github.com/MrEthical07/goIdentity/password"
)

// Signin drives the unified authentication entry point. The identifier
// is classified once and the (account exists, password supplied,
// credential set) matrix decides the path:
//
//   - password matches: token issued immediately with SkipOTP set, even
//     for a deactivated account, so the client can drive reactivation.
//   - account without a credential: a signin code is sent and the flow
//     continues in [Engine.VerifyCode].
//   - account with a credential but no password supplied: the client is
//     told to ask for the password.
//   - unknown email or mobile: a pending signup is staged implicitly and
//     a verification code sent; unknown usernames fail instead, since a
//     username alone cannot be verified as reachable.
//
// The optional preferred argument picks the code delivery channel when
// the flow is addressed by username and the account has both an email
// and a mobile; at most the first value is honored.
func (e *Engine) Signin(ctx context.Context, identifier, secret string, preferred ...DeliveryMethod) (*SigninResult, error) {
	id := Classify(identifier)
	if id.Kind == KindInvalid || (id.Kind == KindUsername && !usernameShaped(id.Value)) {
		err := &InvalidIdentifierError{Raw: identifier}
		e.emitAudit(ctx, auditEventSigninPasswordFailure, false, "", err, nil)
		return nil, err
	}

	account, err := e.lookupByIdentifier(ctx, id)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			return nil, mapRepoError(err)
		}
		return e.signinUnknown(ctx, id, secret)
	}

	if secret == "" {
		if account.CredentialHash == "" {
			return e.signinSendCode(ctx, id, account, firstMethod(preferred))
		}
		return &SigninResult{
			Outcome:    OutcomePasswordRequired,
			Identifier: id.Value,
		}, nil
	}

	return e.signinPassword(ctx, id, account, secret)
}

// signinUnknown handles identifiers with no confirmed account. Email and
// mobile identifiers stage an implicit pending signup; the account is
// only created once [Engine.VerifyCode] proves the channel is reachable.
func (e *Engine) signinUnknown(ctx context.Context, id Identifier, secret string) (*SigninResult, error) {
	if id.Kind == KindUsername {
		e.emitAudit(ctx, auditEventSigninPasswordFailure, false, "", ErrAccountNotFound, nil)
		return nil, ErrAccountNotFound
	}

	var credentialHash string
	if secret != "" {
		if err := password.CheckStrength(secret); err != nil {
			return nil, err
		}
		hash, err := e.passwordHash.Hash(secret)
		if err != nil {
			return nil, err
		}
		credentialHash = hash
	}

	if err := e.pending.Supersede(ctx, id); err != nil {
		return nil, mapPendingStoreError(err)
	}

	code, expiresAt, err := newCode(e.config.Codes.SignupTTL)
	if err != nil {
		return nil, err
	}

	record := &pendingSignupRecord{
		ID:             uuid.NewString(),
		CredentialHash: credentialHash,
		CodeHash:       internal.HashCode(code),
		ExpiresAt:      expiresAt.Unix(),
	}
	switch id.Kind {
	case KindEmail:
		record.Email = id.Value
	case KindMobile:
		record.Mobile = id.Value
	}

	ttl := e.config.Codes.SignupTTL + e.config.Codes.PendingGrace
	if err := e.pending.Save(ctx, record, ttl); err != nil {
		return nil, mapPendingStoreError(err)
	}

	receipt, err := e.deliverCode(ctx, id, code, purposeVerification, expiresAt)
	if err != nil {
		_ = e.pending.Delete(ctx, record)
		e.metricInc(MetricSignupDeliveryFailure)
		e.emitAudit(ctx, auditEventSignupDeliveryFailed, false, "", err, nil)
		return nil, err
	}

	e.metricInc(MetricSigninImplicitSignup)
	e.emitAudit(ctx, auditEventSigninImplicitSignup, true, "", nil, func() map[string]string {
		return map[string]string{"method": string(receipt.Method)}
	})

	return &SigninResult{
		Outcome:    OutcomeAccountCreationRequired,
		Identifier: id.Value,
		Delivery:   receipt,
	}, nil
}

// signinSendCode issues a signin code for a confirmed account that has
// no password. The code is stored on the account record, not the pending
// store; only unconfirmed signups live in Redis.
func (e *Engine) signinSendCode(ctx context.Context, id Identifier, account Account, preferred DeliveryMethod) (*SigninResult, error) {
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
		e.emitAudit(ctx, auditEventSigninOTPSent, false, account.ID, err, nil)
		return nil, err
	}

	e.metricInc(MetricSigninOTPSent)
	e.emitAudit(ctx, auditEventSigninOTPSent, true, account.ID, nil, func() map[string]string {
		return map[string]string{"method": string(receipt.Method)}
	})

	return &SigninResult{
		Outcome:    OutcomeOTPSent,
		Identifier: id.Value,
		Delivery:   receipt,
	}, nil
}

func (e *Engine) signinPassword(ctx context.Context, id Identifier, account Account, secret string) (*SigninResult, error) {
	if account.CredentialHash == "" {
		e.emitAudit(ctx, auditEventSigninPasswordFailure, false, account.ID, ErrPasswordNotSet, nil)
		return nil, ErrPasswordNotSet
	}

	ok, err := e.passwordHash.Verify(secret, account.CredentialHash)
	if err != nil {
		return nil, err
	}
	if !ok {
		e.metricInc(MetricSigninPasswordFailure)
		e.emitAudit(ctx, auditEventSigninPasswordFailure, false, account.ID, ErrInvalidPassword, nil)
		return nil, ErrInvalidPassword
	}

	token, err := e.issueToken(account)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricSigninPasswordSuccess)
	e.emitAudit(ctx, auditEventSigninPasswordSuccess, true, account.ID, nil, func() map[string]string {
		return map[string]string{"deactivated": boolString(account.Deactivated)}
	})

	return &SigninResult{
		Outcome:     OutcomeTokenIssued,
		Token:       token,
		SkipOTP:     true,
		Deactivated: account.Deactivated,
		Identifier:  id.Value,
	}, nil
}

// chooseContact picks the delivery channel for flows that are not
// addressed by a contact value directly. An explicit preference wins
// when that channel exists; otherwise email wins over mobile. Absence
// of both is KindInvalid.
func chooseContact(email, mobile string, preferred DeliveryMethod) Identifier {
	if preferred == DeliverySMS && mobile != "" {
		return Identifier{Kind: KindMobile, Value: mobile}
	}
	if preferred == DeliveryEmail && email != "" {
		return Identifier{Kind: KindEmail, Value: email}
	}
	if email != "" {
		return Identifier{Kind: KindEmail, Value: email}
	}
	if mobile != "" {
		return Identifier{Kind: KindMobile, Value: mobile}
	}
	return Identifier{Kind: KindInvalid}
}

func firstMethod(preferred []DeliveryMethod) DeliveryMethod {
	if len(preferred) == 0 {
		return ""
	}
	return preferred[0]
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
