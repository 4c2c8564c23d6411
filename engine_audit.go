package goIdentity

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventSignupRequested        = "signup_requested"
	auditEventSignupDeliveryFailed   = "signup_delivery_failed"
	auditEventSignupPromoted         = "signup_promoted"
	auditEventSignupRace             = "signup_promotion_race"
	auditEventSigninPasswordSuccess  = "signin_password_success"
	auditEventSigninPasswordFailure  = "signin_password_failure"
	auditEventSigninOTPSent          = "signin_otp_sent"
	auditEventSigninImplicitSignup   = "signin_implicit_signup"
	auditEventVerifySuccess          = "verify_code_success"
	auditEventVerifyFailure          = "verify_code_failure"
	auditEventCodeResend             = "code_resend"
	auditEventCodeResendRateLimited  = "code_resend_rate_limited"
	auditEventForgotPassword         = "forgot_password_lookup"
	auditEventResetCodeSent          = "reset_code_sent"
	auditEventResetCodeDeliveryError = "reset_code_delivery_masked"
	auditEventResetCodeVerified      = "reset_code_verified"
	auditEventPasswordResetSuccess   = "password_reset_success"
	auditEventPasswordResetFailure   = "password_reset_failure"
	auditEventPasswordSet            = "password_set"
	auditEventAccountDeactivated     = "account_deactivated"
	auditEventAccountReactivated     = "account_reactivated"
	auditEventRecoveryChannelsUpdate = "recovery_channels_updated"
	auditEventOTPRequested           = "otp_requested"
	auditEventProfileImageUpdated    = "profile_image_updated"
	auditEventPushFailure            = "push_delivery_failed"
)

// AuditErrorCode defines a public type used by goIdentity APIs.
//
// AuditErrorCode instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditErrorCode string

const (
	auditErrInvalidInput       AuditErrorCode = "invalid_input"
	auditErrInvalidIdentifier  AuditErrorCode = "invalid_identifier"
	auditErrAccountNotFound    AuditErrorCode = "account_not_found"
	auditErrDuplicate          AuditErrorCode = "duplicate"
	auditErrInvalidCredentials AuditErrorCode = "invalid_credentials"
	auditErrCodeInvalid        AuditErrorCode = "code_invalid"
	auditErrCodeExpired        AuditErrorCode = "code_expired"
	auditErrCodeNotRequested   AuditErrorCode = "code_not_requested"
	auditErrRecoveryMethod     AuditErrorCode = "invalid_recovery_method"
	auditErrStatusConflict     AuditErrorCode = "status_conflict"
	auditErrPasswordPolicy     AuditErrorCode = "password_policy"
	auditErrRateLimited        AuditErrorCode = "rate_limited"
	auditErrDeliveryFailed     AuditErrorCode = "delivery_failed"
	auditErrUnavailable        AuditErrorCode = "backend_unavailable"
	auditErrInternal           AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	accountID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		IP:        clientIPFromContext(ctx),
		UserAgent: userAgentFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrMissingFields),
		errors.Is(err, ErrInvalidAge),
		errors.Is(err, ErrRecoveryLimit):
		return auditErrInvalidInput
	case errors.Is(err, ErrInvalidIdentifier):
		return auditErrInvalidIdentifier
	case errors.Is(err, ErrAccountNotFound),
		errors.Is(err, ErrUserNotFound):
		return auditErrAccountNotFound
	case errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrAccountExists),
		errors.Is(err, ErrDuplicateKey):
		return auditErrDuplicate
	case errors.Is(err, ErrInvalidPassword),
		errors.Is(err, ErrPasswordNotSet),
		errors.Is(err, ErrTokenInvalid):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrInvalidCode):
		return auditErrCodeInvalid
	case errors.Is(err, ErrCodeExpired):
		return auditErrCodeExpired
	case errors.Is(err, ErrOTPNotRequested):
		return auditErrCodeNotRequested
	case errors.Is(err, ErrInvalidRecoveryMethod):
		return auditErrRecoveryMethod
	case errors.Is(err, ErrAlreadyDeactivated),
		errors.Is(err, ErrNotDeactivated):
		return auditErrStatusConflict
	case errors.Is(err, ErrPasswordPolicy):
		return auditErrPasswordPolicy
	case errors.Is(err, ErrResendRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrDeliveryFailed):
		return auditErrDeliveryFailed
	case errors.Is(err, ErrRepositoryUnavailable),
		errors.Is(err, ErrPendingUnavailable),
		errors.Is(err, ErrImageStoreNotConfigured):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
