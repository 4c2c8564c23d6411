package goIdentity

import (
	"context"
	"errors"
	"io"
)

// SetProfileImage uploads a profile image and records its reference on
// the account, replacing and deleting any previous image. Requires an
// [ImageStore] to be configured on the builder.
func (e *Engine) SetProfileImage(ctx context.Context, accountID, name string, r io.Reader) (string, error) {
	if e.images == nil {
		return "", ErrImageStoreNotConfigured
	}

	account, err := e.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return "", ErrUserNotFound
		}
		return "", mapRepoError(err)
	}

	ref, err := e.images.Upload(ctx, name, r)
	if err != nil {
		return "", err
	}

	if err := e.repo.UpdateProfileImage(ctx, account.ID, ref); err != nil {
		// The upload is orphaned if the record update fails; reclaim it.
		_ = e.images.Delete(ctx, ref)
		return "", mapRepoError(err)
	}

	if account.ProfileImageRef != "" {
		_ = e.images.Delete(ctx, account.ProfileImageRef)
	}

	e.emitAudit(ctx, auditEventProfileImageUpdated, true, account.ID, nil, nil)

	return ref, nil
}

// RemoveProfileImage deletes the account's profile image, if any.
// Removing when no image is set is a no-op, not an error.
func (e *Engine) RemoveProfileImage(ctx context.Context, accountID string) error {
	if e.images == nil {
		return ErrImageStoreNotConfigured
	}

	account, err := e.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return ErrUserNotFound
		}
		return mapRepoError(err)
	}

	if account.ProfileImageRef == "" {
		return nil
	}

	if err := e.repo.UpdateProfileImage(ctx, account.ID, ""); err != nil {
		return mapRepoError(err)
	}
	_ = e.images.Delete(ctx, account.ProfileImageRef)

	e.emitAudit(ctx, auditEventProfileImageUpdated, true, account.ID, nil, func() map[string]string {
		return map[string]string{"removed": "true"}
	})

	return nil
}
