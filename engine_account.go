package goIdentity

import (
	"context"
	"errors"
)

// Account returns the sanitized self-view of an account. Credential and
// transient code fields never leave the engine.
func (e *Engine) Account(ctx context.Context, accountID string) (*SanitizedAccount, error) {
	account, err := e.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapRepoError(err)
	}

	sanitized := sanitizeAccount(account)
	return &sanitized, nil
}

// RegisterPushToken stores the device push token used for best-effort
// notifications. An empty token unregisters the device.
func (e *Engine) RegisterPushToken(ctx context.Context, accountID, token, platform string) error {
	account, err := e.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrUserNotFound
		}
		return mapRepoError(err)
	}

	if err := e.repo.UpdatePushToken(ctx, account.ID, token, platform); err != nil {
		return mapRepoError(err)
	}

	return nil
}
