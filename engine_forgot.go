package goIdentity

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// ForgotPassword starts account recovery for the identifier.
//
// A username resolves to exactly one account and returns its recovery
// options: the masked union of primary and recovery channels. An email
// or mobile may be shared by several accounts, so those lookups always
// return the list of matching account references, even when only one
// matches; the client picks a username and calls ForgotPassword again.
func (e *Engine) ForgotPassword(ctx context.Context, identifier string) (*ForgotPasswordResult, error) {
	id := Classify(identifier)
	if id.Kind == KindInvalid || (id.Kind == KindUsername && !usernameShaped(id.Value)) {
		return nil, &InvalidIdentifierError{Raw: identifier}
	}

	e.metricInc(MetricForgotPasswordLookup)

	if id.Kind == KindUsername {
		account, err := e.repo.GetByUsername(ctx, id.Value)
		if err != nil {
			if errors.Is(err, ErrAccountNotFound) {
				e.emitAudit(ctx, auditEventForgotPassword, false, "", ErrUserNotFound, nil)
				return nil, ErrUserNotFound
			}
			return nil, mapRepoError(err)
		}

		e.emitAudit(ctx, auditEventForgotPassword, true, account.ID, nil, nil)

		return &ForgotPasswordResult{
			Outcome:  OutcomeChooseRecoveryMethod,
			Recovery: recoveryOptionsFor(account),
		}, nil
	}

	var (
		accounts []Account
		err      error
	)
	if id.Kind == KindEmail {
		accounts, err = e.repo.ListByEmail(ctx, id.Value)
	} else {
		accounts, err = e.repo.ListByMobile(ctx, id.Value)
	}
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(accounts) == 0 {
		e.emitAudit(ctx, auditEventForgotPassword, false, "", ErrUserNotFound, nil)
		return nil, ErrUserNotFound
	}

	refs := make([]AccountRef, 0, len(accounts))
	for _, account := range accounts {
		refs = append(refs, AccountRef{ID: account.ID, Username: account.Username})
	}

	e.emitAudit(ctx, auditEventForgotPassword, true, "", nil, func() map[string]string {
		return map[string]string{"matches": strconv.Itoa(len(refs))}
	})

	return &ForgotPasswordResult{
		Outcome:  OutcomeMultipleUsersFound,
		Accounts: refs,
	}, nil
}

// SendResetCodeForUsername sends a reset code over one of the account's
// recovery channels. The channel is named by its raw value and must be a
// member of the account's primary or recovery set.
//
// Delivery failures are masked: the caller receives a normal receipt
// either way, so probing cannot distinguish a reachable channel from a
// dead one. The failure is still recorded in audit and metrics.
func (e *Engine) SendResetCodeForUsername(ctx context.Context, username, channel string) (*DeliveryReceipt, error) {
	account, err := e.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapRepoError(err)
	}

	destination := Classify(channel)
	if !isRecoveryChannel(account, destination) {
		e.emitAudit(ctx, auditEventResetCodeSent, false, account.ID, ErrInvalidRecoveryMethod, nil)
		return nil, ErrInvalidRecoveryMethod
	}

	code, expiresAt, err := newCode(e.config.Codes.UsernameResetTTL)
	if err != nil {
		return nil, err
	}

	if err := e.repo.UpdateResetCode(ctx, account.ID, code, expiresAt); err != nil {
		return nil, mapRepoError(err)
	}

	receipt, err := e.deliverCode(ctx, destination, code, purposeReset, expiresAt)
	if err != nil {
		e.emitAudit(ctx, auditEventResetCodeDeliveryError, false, account.ID, err, nil)
		receipt = maskedReceipt(destination, expiresAt)
	} else {
		e.metricInc(MetricResetCodeSent)
		e.emitAudit(ctx, auditEventResetCodeSent, true, account.ID, nil, func() map[string]string {
			return map[string]string{"method": string(receipt.Method)}
		})
	}

	return receipt, nil
}

// recoveryOptionsFor builds the masked channel union for an account,
// primary contact first, de-duplicated on the raw value.
func recoveryOptionsFor(account Account) *RecoveryOptions {
	emails := make([]string, 0, len(account.RecoveryEmails)+1)
	if account.Email != "" {
		emails = append(emails, account.Email)
	}
	emails = append(emails, account.RecoveryEmails...)

	phones := make([]string, 0, len(account.RecoveryPhones)+1)
	if account.Mobile != "" {
		phones = append(phones, account.Mobile)
	}
	phones = append(phones, account.RecoveryPhones...)

	return &RecoveryOptions{
		MaskedEmails: maskAll(dedupe(emails), MaskEmail),
		MaskedPhones: maskAll(dedupe(phones), MaskPhone),
	}
}

// isRecoveryChannel reports whether the classified destination belongs
// to the account's primary or recovery set.
func isRecoveryChannel(account Account, destination Identifier) bool {
	switch destination.Kind {
	case KindEmail:
		if destination.Value == account.Email {
			return true
		}
		for _, email := range account.RecoveryEmails {
			if destination.Value == email {
				return true
			}
		}
	case KindMobile:
		if destination.Value == account.Mobile {
			return true
		}
		for _, phone := range account.RecoveryPhones {
			if destination.Value == phone {
				return true
			}
		}
	}
	return false
}

// maskedReceipt is the receipt returned when delivery failed but the
// failure must not be observable by the caller.
func maskedReceipt(destination Identifier, expiresAt time.Time) *DeliveryReceipt {
	receipt := &DeliveryReceipt{
		Identifier: destination.Value,
		ExpiresAt:  expiresAt,
	}
	if destination.Kind == KindEmail {
		receipt.Method = DeliveryEmail
		receipt.MaskedDestination = MaskEmail(destination.Value)
	} else {
		receipt.Method = DeliverySMS
		receipt.MaskedDestination = MaskPhone(destination.Value)
	}
	return receipt
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0]
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func maskAll(values []string, mask func(string) string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = mask(v)
	}
	return out
}
