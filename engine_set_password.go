package goIdentity

import (
	"context"
	"errors"

	"github.com/MrEthical07/goIdentity/password"
)

// SetPassword sets or replaces the password of an authenticated account.
// No code is required; the caller proved their identity by presenting a
// valid token, which is how code-only accounts graduate to password
// signin. Existing sessions are not invalidated.
func (e *Engine) SetPassword(ctx context.Context, accountID, newSecret string) error {
	if err := password.CheckStrength(newSecret); err != nil {
		e.emitAudit(ctx, auditEventPasswordSet, false, accountID, err, nil)
		return err
	}

	account, err := e.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrUserNotFound
		}
		return mapRepoError(err)
	}

	hash, err := e.passwordHash.Hash(newSecret)
	if err != nil {
		return err
	}

	if err := e.repo.UpdateCredentialHash(ctx, account.ID, hash); err != nil {
		return mapRepoError(err)
	}

	e.metricInc(MetricPasswordSet)
	e.emitAudit(ctx, auditEventPasswordSet, true, account.ID, nil, nil)

	e.notifyPush(ctx, account.ID, "Password updated", "Your account password was updated.",
		map[string]string{"event": "password_set"})

	return nil
}
