package goIdentity

import (
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestConfigValidateAcceptsDefaultsWithKey(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing jwt key", func(c *Config) { c.JWT.PrivateKey = nil }},
		{"zero access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }},
		{"unknown signing method", func(c *Config) { c.JWT.SigningMethod = "rs256" }},
		{"ed25519 without public key", func(c *Config) { c.JWT.SigningMethod = "ed25519"; c.JWT.PublicKey = nil }},
		{"argon2 memory too low", func(c *Config) { c.Password.Memory = 1024 }},
		{"zero signin ttl", func(c *Config) { c.Codes.SigninTTL = 0 }},
		{"zero username reset ttl", func(c *Config) { c.Codes.UsernameResetTTL = 0 }},
		{"inverted age window", func(c *Config) { c.Signup.MinAge = 100; c.Signup.MaxAge = 50 }},
		{"empty username prefix", func(c *Config) { c.Signup.GeneratedUsernamePrefix = "" }},
		{"resend enabled without attempts", func(c *Config) { c.Resend.MaxAttempts = 0 }},
	}

	for _, tc := range cases {
		cfg := testConfig()
		tc.mutate(&cfg)
		if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: err = %v, want ErrInvalidConfig", tc.name, err)
		}
	}
}

func TestBuilderRequiresDependencies(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatalf("Build without redis succeeded")
	}
	if _, err := New().WithConfig(testConfig()).WithRedis(rdb).Build(); err == nil {
		t.Fatalf("Build without repository succeeded")
	}
	if _, err := New().WithConfig(testConfig()).WithRedis(rdb).WithRepository(newMockRepo()).Build(); err == nil {
		t.Fatalf("Build without delivery gateway succeeded")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	builder := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithRepository(newMockRepo()).
		WithDelivery(&stubDelivery{})

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("first Build: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := builder.Build(); err == nil {
		t.Fatalf("second Build on the same builder succeeded")
	}
}

func TestConfigCloneIsolatesKeyMaterial(t *testing.T) {
	cfg := testConfig()
	clone := cloneConfig(cfg)

	clone.JWT.PrivateKey[0] ^= 0xff
	if cfg.JWT.PrivateKey[0] == clone.JWT.PrivateKey[0] {
		t.Fatalf("clone shares key slice with original")
	}
}
