package goIdentity

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/MrEthical07/goIdentity/jwt"
	"github.com/MrEthical07/goIdentity/password"
)

// Builder defines a public type used by goIdentity APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config
	redis  *redis.Client

	repo     AccountRepository
	delivery DeliveryGateway
	push     PushGateway
	images   ImageStore

	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing the pending-signup store and
// the resend limiter.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithRepository sets the account repository. Required.
func (b *Builder) WithRepository(repo AccountRepository) *Builder {
	b.repo = repo
	return b
}

// WithDelivery sets the code delivery gateway. Required.
func (b *Builder) WithDelivery(gw DeliveryGateway) *Builder {
	b.delivery = gw
	return b
}

// WithPushGateway sets the optional best-effort push gateway.
func (b *Builder) WithPushGateway(gw PushGateway) *Builder {
	b.push = gw
	return b
}

// WithImageStore sets the optional profile image store.
func (b *Builder) WithImageStore(store ImageStore) *Builder {
	b.images = store
	return b
}

// WithAuditSink sets the sink receiving audit events when auditing is
// enabled in the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and wires the engine. A builder can
// be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.repo == nil {
		return nil, errors.New("account repository required")
	}
	if b.delivery == nil {
		return nil, errors.New("delivery gateway required")
	}

	engine := &Engine{
		config:   cfg,
		repo:     b.repo,
		delivery: b.delivery,
		push:     b.push,
		images:   b.images,
	}

	engine.pending = newPendingSignupStore(b.redis, cfg.Pending)
	engine.resendLimiter = newResendLimiter(b.redis, cfg.Resend)
	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)
	engine.validate = validator.New(validator.WithRequiredStructEnabled())

	ph, err := password.NewArgon2(password.Config{
		Memory:      cfg.Password.Memory,
		Time:        cfg.Password.Time,
		Parallelism: cfg.Password.Parallelism,
		SaltLength:  cfg.Password.SaltLength,
		KeyLength:   cfg.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}
	engine.passwordHash = ph

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
	})
	if err != nil {
		return nil, err
	}
	engine.jwtManager = jm

	b.built = true

	return engine, nil
}
