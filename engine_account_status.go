package goIdentity

import (
	"context"
	"errors"
)

// Deactivate marks the account as deactivated. The account and its data
// remain intact and signin still works; clients use the Deactivated flag
// on the signin result to steer the user into reactivation.
func (e *Engine) Deactivate(ctx context.Context, accountID string) (*SanitizedAccount, error) {
	account, err := e.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapRepoError(err)
	}

	if account.Deactivated {
		e.emitAudit(ctx, auditEventAccountDeactivated, false, account.ID, ErrAlreadyDeactivated, nil)
		return nil, ErrAlreadyDeactivated
	}

	updated, err := e.repo.UpdateDeactivated(ctx, account.ID, true)
	if err != nil {
		return nil, mapRepoError(err)
	}

	e.metricInc(MetricAccountDeactivated)
	e.emitAudit(ctx, auditEventAccountDeactivated, true, account.ID, nil, nil)

	sanitized := sanitizeAccount(updated)
	return &sanitized, nil
}

// Reactivate clears the deactivated flag. Only deactivated accounts can
// be reactivated; calling it twice is a NOT_DEACTIVATED conflict rather
// than a silent no-op, so clients notice state drift.
func (e *Engine) Reactivate(ctx context.Context, accountID string) (*SanitizedAccount, error) {
	account, err := e.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, mapRepoError(err)
	}

	if !account.Deactivated {
		e.emitAudit(ctx, auditEventAccountReactivated, false, account.ID, ErrNotDeactivated, nil)
		return nil, ErrNotDeactivated
	}

	updated, err := e.repo.UpdateDeactivated(ctx, account.ID, false)
	if err != nil {
		return nil, mapRepoError(err)
	}

	e.metricInc(MetricAccountReactivated)
	e.emitAudit(ctx, auditEventAccountReactivated, true, account.ID, nil, nil)

	sanitized := sanitizeAccount(updated)
	return &sanitized, nil
}
