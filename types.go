package goIdentity

import (
	"context"
	"io"
	"time"
)

// IdentifierKind is the classified shape of a caller-supplied identifier.
//
//	Docs: docs/classifier.md
type IdentifierKind uint8

const (
	// KindInvalid is an exported constant or variable used by the identity engine.
	KindInvalid IdentifierKind = iota
	// KindEmail is an exported constant or variable used by the identity engine.
	KindEmail
	// KindMobile is an exported constant or variable used by the identity engine.
	KindMobile
	// KindUsername is an exported constant or variable used by the identity engine.
	KindUsername
)

// Identifier is the tagged result of [Classify]. It is produced once per
// operation and matched on Kind thereafter; call sites never re-test the
// raw string shape.
type Identifier struct {
	Kind  IdentifierKind
	Value string
}

// Account is the confirmed, persistent identity record returned by
// [AccountRepository]. Email and Mobile are optional and unique only among
// accounts that have one. CredentialHash may be empty: accounts created
// through code-only flows carry no password.
type Account struct {
	ID              string
	Username        string
	Email           string
	Mobile          string
	CredentialHash  string
	Name            string
	DateOfBirth     time.Time
	Gender          string
	Deactivated     bool
	ProfileImageRef string

	// Transient verification state. A code and its expiry are always set
	// and cleared together.
	OTPCode     string
	OTPExpiry   time.Time
	ResetCode   string
	ResetExpiry time.Time

	RecoveryEmails []string
	RecoveryPhones []string

	PushToken    string
	PushPlatform string
}

// CreateAccountInput is the input for [AccountRepository.Create].
type CreateAccountInput struct {
	Username       string
	Email          string
	Mobile         string
	CredentialHash string
	Name           string
	DateOfBirth    time.Time
	Gender         string
}

// AccountRepository is the primary interface that callers must implement
// to integrate goIdentity with their account database.
//
// Lookup methods return [ErrAccountNotFound] (possibly wrapped) when no
// account matches. Create must enforce sparse uniqueness: a non-empty
// username, email, or mobile colliding with another account fails with
// [ErrDuplicateKey]; empty values never collide.
//
//	Docs: docs/engine.md, docs/usage.md
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (Account, error)
	GetByUsername(ctx context.Context, username string) (Account, error)
	GetByEmail(ctx context.Context, email string) (Account, error)
	GetByMobile(ctx context.Context, mobile string) (Account, error)
	ListByEmail(ctx context.Context, email string) ([]Account, error)
	ListByMobile(ctx context.Context, mobile string) ([]Account, error)
	Create(ctx context.Context, input CreateAccountInput) (Account, error)
	UpdateCredentialHash(ctx context.Context, id string, hash string) error
	UpdateVerification(ctx context.Context, id string, code string, expiry time.Time) error
	UpdateResetCode(ctx context.Context, id string, code string, expiry time.Time) error
	UpdateDeactivated(ctx context.Context, id string, deactivated bool) (Account, error)
	UpdateRecoveryChannels(ctx context.Context, id string, emails, phones []string) error
	UpdateProfileImage(ctx context.Context, id string, ref string) error
	UpdatePushToken(ctx context.Context, id string, token, platform string) error
}

// DeliveryGateway transmits verification and reset codes. Both methods
// return an error on transport failure; the engine decides per flow
// whether that failure is surfaced or swallowed.
type DeliveryGateway interface {
	SendEmail(ctx context.Context, to, subject, body string) error
	SendSMS(ctx context.Context, to, body string) error
}

// PushGateway delivers push notifications. Failures must never fail the
// calling operation; the engine treats every push as best-effort.
type PushGateway interface {
	SendPush(ctx context.Context, accountID, title, body string, data map[string]string) (bool, error)
}

// ImageStore holds profile images referenced by [Account.ProfileImageRef].
type ImageStore interface {
	Upload(ctx context.Context, name string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// DeliveryMethod names the channel a code was sent over.
type DeliveryMethod string

const (
	// DeliveryEmail is an exported constant or variable used by the identity engine.
	DeliveryEmail DeliveryMethod = "email"
	// DeliverySMS is an exported constant or variable used by the identity engine.
	DeliverySMS DeliveryMethod = "sms"
)

// DeliveryReceipt reports where a code was sent. Destination is masked;
// Identifier is the raw value the caller must echo back to VerifyCode.
type DeliveryReceipt struct {
	Method            DeliveryMethod
	MaskedDestination string
	Identifier        string
	ExpiresAt         time.Time
}

// SigninOutcome distinguishes the non-error protocol states a Signin call
// can land in. Failure states are sentinel errors, not outcomes.
type SigninOutcome uint8

const (
	// OutcomeTokenIssued is an exported constant or variable used by the identity engine.
	OutcomeTokenIssued SigninOutcome = iota
	// OutcomeOTPSent is an exported constant or variable used by the identity engine.
	OutcomeOTPSent
	// OutcomePasswordRequired is an exported constant or variable used by the identity engine.
	OutcomePasswordRequired
	// OutcomeAccountCreationRequired is an exported constant or variable used by the identity engine.
	OutcomeAccountCreationRequired
)

// SigninResult is returned by [Engine.Signin].
//
// SkipOTP is true only on the password fast path: a matching password
// issues a token immediately, even for a deactivated account. Deactivated
// signals the client to drive a reactivation flow with the issued token.
type SigninResult struct {
	Outcome     SigninOutcome
	Token       string
	SkipOTP     bool
	Deactivated bool
	Identifier  string
	Delivery    *DeliveryReceipt
}

// SignupReceipt is returned by [Engine.RequestSignup].
type SignupReceipt struct {
	Delivery DeliveryReceipt
}

// SanitizedAccount is the client-safe account projection: credential and
// transient code fields are stripped.
type SanitizedAccount struct {
	ID              string
	Username        string
	Email           string
	Mobile          string
	Name            string
	Gender          string
	Deactivated     bool
	ProfileImageRef string
	RecoveryEmails  []string
	RecoveryPhones  []string
}

// VerifyResult is returned by [Engine.VerifyCode] on both the pending
// promotion path and the existing-account path.
type VerifyResult struct {
	Token           string
	Account         SanitizedAccount
	ProfileComplete bool
	Created         bool
}

// AccountRef identifies one account sharing a contact value, returned by
// [Engine.ForgotPassword] for email/mobile lookups.
type AccountRef struct {
	ID       string
	Username string
}

// RecoveryOptions lists the masked channels a username can recover
// through: the union of recovery channels and primary contacts,
// de-duplicated. Both lists may be empty.
type RecoveryOptions struct {
	MaskedEmails []string
	MaskedPhones []string
}

// ForgotOutcome distinguishes the two ForgotPassword response shapes.
type ForgotOutcome uint8

const (
	// OutcomeChooseRecoveryMethod is an exported constant or variable used by the identity engine.
	OutcomeChooseRecoveryMethod ForgotOutcome = iota
	// OutcomeMultipleUsersFound is an exported constant or variable used by the identity engine.
	OutcomeMultipleUsersFound
)

// ForgotPasswordResult is returned by [Engine.ForgotPassword].
type ForgotPasswordResult struct {
	Outcome  ForgotOutcome
	Recovery *RecoveryOptions
	Accounts []AccountRef
}

// ResetResult is returned by [Engine.ResetPassword].
type ResetResult struct {
	Token   string
	Account SanitizedAccount
}

// RecoveryChannels is the current recovery-channel state of an account.
type RecoveryChannels struct {
	Emails []string
	Phones []string
}

// AuthResult is returned by [Engine.Validate]. It carries the identity
// decoded from a valid access token.
type AuthResult struct {
	AccountID string
	Username  string
}

func sanitizeAccount(a Account) SanitizedAccount {
	return SanitizedAccount{
		ID:              a.ID,
		Username:        a.Username,
		Email:           a.Email,
		Mobile:          a.Mobile,
		Name:            a.Name,
		Gender:          a.Gender,
		Deactivated:     a.Deactivated,
		ProfileImageRef: a.ProfileImageRef,
		RecoveryEmails:  append([]string(nil), a.RecoveryEmails...),
		RecoveryPhones:  append([]string(nil), a.RecoveryPhones...),
	}
}
