package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"
	"time"
)

func newHS256Manager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()
	m, err := NewManager(Config{
		AccessTTL:     ttl,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("unit-test-signing-key-0123456789"),
		Issuer:        "goIdentity-test",
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestCreateAndParseAccessHS256(t *testing.T) {
	m := newHS256Manager(t, time.Hour)

	token, err := m.CreateAccess("acc-1", "alice")
	if err != nil {
		t.Fatalf("CreateAccess: %v", err)
	}

	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if claims.UID != "acc-1" || claims.Username != "alice" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestParseAccessRejectsExpired(t *testing.T) {
	m := newHS256Manager(t, time.Millisecond)

	token, err := m.CreateAccess("acc-1", "alice")
	if err != nil {
		t.Fatalf("CreateAccess: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := m.ParseAccess(token); err == nil {
		t.Fatalf("ParseAccess accepted an expired token")
	}
}

func TestNewManagerRejectsBadConfig(t *testing.T) {
	cases := []Config{
		{SigningMethod: MethodHS256, PrivateKey: []byte("k")},                            // zero TTL
		{AccessTTL: time.Hour, SigningMethod: MethodHS256},                               // no key
		{AccessTTL: time.Hour, SigningMethod: "rs256", PrivateKey: []byte("k")},          // unknown method
		{AccessTTL: time.Hour, SigningMethod: MethodHS256, PrivateKey: []byte("k"), Leeway: 5 * time.Minute}, // excessive leeway
	}

	for i, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("case %d: NewManager accepted invalid config", i)
		}
	}
}

func TestParseAccessRejectsForeignKey(t *testing.T) {
	m1 := newHS256Manager(t, time.Hour)

	m2, err := NewManager(Config{
		AccessTTL:     time.Hour,
		SigningMethod: MethodHS256,
		PrivateKey:    []byte("another-signing-key-9876543210abc"),
		Issuer:        "goIdentity-test",
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, err := m1.CreateAccess("acc-1", "alice")
	if err != nil {
		t.Fatalf("CreateAccess: %v", err)
	}
	if _, err := m2.ParseAccess(token); err == nil {
		t.Fatalf("ParseAccess accepted a token signed with a different key")
	}
}

func TestParseAccessRejectsGarbage(t *testing.T) {
	m := newHS256Manager(t, time.Hour)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := m.ParseAccess(raw); err == nil {
			t.Fatalf("ParseAccess(%q) succeeded", raw)
		}
	}
}

func TestEd25519RoundTrip(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	// Raw key material is accepted alongside PEM.
	m, err := NewManager(Config{
		AccessTTL:     time.Hour,
		SigningMethod: MethodEd25519,
		PrivateKey:    priv,
		PublicKey:     pub,
		Issuer:        "goIdentity-test",
	})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	token, err := m.CreateAccess("acc-1", "alice")
	if err != nil {
		t.Fatalf("CreateAccess: %v", err)
	}
	claims, err := m.ParseAccess(token)
	if err != nil {
		t.Fatalf("ParseAccess: %v", err)
	}
	if claims.UID != "acc-1" {
		t.Fatalf("claims = %+v", claims)
	}
}
