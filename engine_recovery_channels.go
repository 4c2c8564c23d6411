package goIdentity

import (
	"context"
	"errors"
	"fmt"
)

// AddRecoveryChannels appends recovery emails and phones to an account.
// Values are classified before acceptance, duplicates against the
// existing set and the primary contacts are dropped silently, and each
// list is capped by the configured limit.
func (e *Engine) AddRecoveryChannels(ctx context.Context, accountID string, emails, phones []string) (*RecoveryChannels, error) {
	account, err := e.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapRepoError(err)
	}

	nextEmails := append([]string(nil), account.RecoveryEmails...)
	for _, raw := range emails {
		id := Classify(raw)
		if id.Kind != KindEmail {
			return nil, &InvalidIdentifierError{Raw: raw}
		}
		if id.Value == account.Email || contains(nextEmails, id.Value) {
			continue
		}
		nextEmails = append(nextEmails, id.Value)
	}

	nextPhones := append([]string(nil), account.RecoveryPhones...)
	for _, raw := range phones {
		id := Classify(raw)
		if id.Kind != KindMobile {
			return nil, &InvalidIdentifierError{Raw: raw}
		}
		if id.Value == account.Mobile || contains(nextPhones, id.Value) {
			continue
		}
		nextPhones = append(nextPhones, id.Value)
	}

	if len(nextEmails) > e.config.Signup.MaxRecoveryEmails {
		return nil, fmt.Errorf("%w: at most %d recovery emails", ErrRecoveryLimit, e.config.Signup.MaxRecoveryEmails)
	}
	if len(nextPhones) > e.config.Signup.MaxRecoveryPhones {
		return nil, fmt.Errorf("%w: at most %d recovery phones", ErrRecoveryLimit, e.config.Signup.MaxRecoveryPhones)
	}

	if err := e.repo.UpdateRecoveryChannels(ctx, account.ID, nextEmails, nextPhones); err != nil {
		return nil, mapRepoError(err)
	}

	e.emitAudit(ctx, auditEventRecoveryChannelsUpdate, true, account.ID, nil, nil)

	return &RecoveryChannels{Emails: nextEmails, Phones: nextPhones}, nil
}

// RecoveryChannels returns the account's current recovery channel lists,
// unmasked. This is an authenticated self-view; masking is only for the
// unauthenticated forgot-password surface.
func (e *Engine) RecoveryChannels(ctx context.Context, accountID string) (*RecoveryChannels, error) {
	account, err := e.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapRepoError(err)
	}

	return &RecoveryChannels{
		Emails: append([]string(nil), account.RecoveryEmails...),
		Phones: append([]string(nil), account.RecoveryPhones...),
	}, nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
