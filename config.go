package goIdentity

import (
	"fmt"
	"time"
)

// Config defines a public type used by goIdentity APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT       JWTConfig
	Password  PasswordConfig
	Codes     CodeConfig
	Signup    SignupConfig
	Messaging MessagingConfig
	Resend    ResendConfig
	Pending   PendingConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by goIdentity APIs.
//
// JWTConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "hs256" (default), "ed25519" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by goIdentity APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
CODE CONFIG
====================================
*/

// CodeConfig holds the lifetimes of the one-time codes the engine issues.
// UsernameResetTTL is longer than the signin and signup windows because
// recovery requires the extra pick-a-channel step first.
type CodeConfig struct {
	SigninTTL        time.Duration
	SignupTTL        time.Duration
	UsernameResetTTL time.Duration

	// PendingGrace is how long an unconfirmed pending signup outlives its
	// code expiry before the store's TTL collects it.
	PendingGrace time.Duration
}

// SignupConfig defines a public type used by goIdentity APIs.
//
// SignupConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SignupConfig struct {
	MinAge            int
	MaxAge            int
	MaxNameLength     int
	MaxRecoveryEmails int
	MaxRecoveryPhones int

	// GeneratedUsernamePrefix prefixes the random usernames minted for
	// implicit and mobile-first signups, e.g. "user" -> user493028.
	GeneratedUsernamePrefix string
}

// MessagingConfig defines a public type used by goIdentity APIs.
//
// MessagingConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MessagingConfig struct {
	AppName string

	// SMSAppHash is appended to SMS bodies for Android one-tap autofill.
	SMSAppHash string
}

// ResendConfig is the fixed-window throttle on code resends per
// identifier.
type ResendConfig struct {
	Enabled     bool
	MaxAttempts int
	Window      time.Duration
}

// PendingConfig defines a public type used by goIdentity APIs.
//
// PendingConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PendingConfig struct {
	RedisPrefix string
}

// AuditConfig defines a public type used by goIdentity APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goIdentity APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration used by [New].
// JWT.PrivateKey must still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     24 * time.Hour,
			SigningMethod: "hs256",
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Codes: CodeConfig{
			SigninTTL:        5 * time.Minute,
			SignupTTL:        5 * time.Minute,
			UsernameResetTTL: 15 * time.Minute,
			PendingGrace:     10 * time.Minute,
		},
		Signup: SignupConfig{
			MinAge:                  13,
			MaxAge:                  150,
			MaxNameLength:           25,
			MaxRecoveryEmails:       4,
			MaxRecoveryPhones:       4,
			GeneratedUsernamePrefix: "user",
		},
		Messaging: MessagingConfig{
			AppName: "goIdentity",
		},
		Resend: ResendConfig{
			Enabled:     true,
			MaxAttempts: 5,
			Window:      15 * time.Minute,
		},
		Pending: PendingConfig{
			RedisPrefix: "aip",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return fmt.Errorf("%w: JWT AccessTTL must be > 0", ErrInvalidConfig)
	}
	if c.JWT.SigningMethod != "hs256" && c.JWT.SigningMethod != "ed25519" {
		return fmt.Errorf("%w: unsupported JWT signing method", ErrInvalidConfig)
	}
	if len(c.JWT.PrivateKey) == 0 {
		return fmt.Errorf("%w: JWT PrivateKey is required", ErrInvalidConfig)
	}
	if c.JWT.SigningMethod == "ed25519" && len(c.JWT.PublicKey) == 0 {
		return fmt.Errorf("%w: ed25519 requires PublicKey", ErrInvalidConfig)
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return fmt.Errorf("%w: Password Memory must be >= 8192 KB", ErrInvalidConfig)
	}
	if c.Password.Time < 1 {
		return fmt.Errorf("%w: Password Time must be >= 1", ErrInvalidConfig)
	}
	if c.Password.Parallelism < 1 {
		return fmt.Errorf("%w: Password Parallelism must be >= 1", ErrInvalidConfig)
	}
	if c.Password.SaltLength < 16 {
		return fmt.Errorf("%w: Password SaltLength must be >= 16", ErrInvalidConfig)
	}
	if c.Password.KeyLength < 16 {
		return fmt.Errorf("%w: Password KeyLength must be >= 16", ErrInvalidConfig)
	}

	// Codes
	if c.Codes.SigninTTL <= 0 || c.Codes.SignupTTL <= 0 {
		return fmt.Errorf("%w: Codes OTP TTLs must be > 0", ErrInvalidConfig)
	}
	if c.Codes.UsernameResetTTL <= 0 {
		return fmt.Errorf("%w: Codes UsernameResetTTL must be > 0", ErrInvalidConfig)
	}
	if c.Codes.PendingGrace < 0 {
		return fmt.Errorf("%w: Codes PendingGrace must be >= 0", ErrInvalidConfig)
	}

	// Signup
	if c.Signup.MinAge < 0 || c.Signup.MaxAge <= c.Signup.MinAge {
		return fmt.Errorf("%w: Signup age window is invalid", ErrInvalidConfig)
	}
	if c.Signup.MaxNameLength <= 0 {
		return fmt.Errorf("%w: Signup MaxNameLength must be > 0", ErrInvalidConfig)
	}
	if c.Signup.MaxRecoveryEmails < 0 || c.Signup.MaxRecoveryPhones < 0 {
		return fmt.Errorf("%w: Signup recovery channel caps must be >= 0", ErrInvalidConfig)
	}
	if c.Signup.GeneratedUsernamePrefix == "" {
		return fmt.Errorf("%w: Signup GeneratedUsernamePrefix is required", ErrInvalidConfig)
	}

	// Resend
	if c.Resend.Enabled {
		if c.Resend.MaxAttempts <= 0 {
			return fmt.Errorf("%w: Resend MaxAttempts must be > 0 when enabled", ErrInvalidConfig)
		}
		if c.Resend.Window <= 0 {
			return fmt.Errorf("%w: Resend Window must be > 0 when enabled", ErrInvalidConfig)
		}
	}

	// Pending
	if c.Pending.RedisPrefix == "" {
		return fmt.Errorf("%w: Pending RedisPrefix is required", ErrInvalidConfig)
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("%w: Audit BufferSize must be > 0 when audit is enabled", ErrInvalidConfig)
	}

	return nil
}
