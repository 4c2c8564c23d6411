package goIdentity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestVerifyCodePromotesPendingSignup(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := te.engine.RequestSignup(ctx, validSignupRequest()); err != nil {
		t.Fatalf("RequestSignup: %v", err)
	}

	result, err := te.engine.VerifyCode(ctx, "alice", te.delivery.lastCode(t))
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}

	if !result.Created {
		t.Fatalf("Created = false, want true")
	}
	if result.Token == "" {
		t.Fatalf("no token issued")
	}
	if result.Account.Username != "alice" {
		t.Fatalf("account username = %q", result.Account.Username)
	}
	if result.ProfileComplete {
		t.Fatalf("fresh account cannot have a complete profile")
	}

	// Promotion consumes the record; the same code cannot create twice.
	if _, err := te.engine.VerifyCode(ctx, "alice", "000000"); !errors.Is(err, ErrOTPNotRequested) {
		t.Fatalf("replay: err = %v, want ErrOTPNotRequested", err)
	}
}

func TestVerifyCodeWrongCodeKeepsPending(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := te.engine.RequestSignup(ctx, validSignupRequest()); err != nil {
		t.Fatalf("RequestSignup: %v", err)
	}
	code := te.delivery.lastCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := te.engine.VerifyCode(ctx, "alice", wrong); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("err = %v, want ErrInvalidCode", err)
	}

	// A mistyped code must not burn the attempt.
	if _, err := te.engine.VerifyCode(ctx, "alice", code); err != nil {
		t.Fatalf("retry with correct code: %v", err)
	}
}

func TestVerifyCodeExpiredPending(t *testing.T) {
	te := newTestEngine(t, func(cfg *Config) {
		cfg.Codes.SignupTTL = time.Minute
	})
	ctx := context.Background()

	if _, err := te.engine.RequestSignup(ctx, validSignupRequest()); err != nil {
		t.Fatalf("RequestSignup: %v", err)
	}
	code := te.delivery.lastCode(t)

	// Expire the code but stay inside the record's grace window.
	record, err := te.engine.pending.Find(ctx, Identifier{Kind: KindUsername, Value: "alice"})
	if err != nil {
		t.Fatalf("pending Find: %v", err)
	}
	record.ExpiresAt = time.Now().Add(-time.Second).Unix()
	if err := te.engine.pending.Save(ctx, record, time.Minute); err != nil {
		t.Fatalf("pending Save: %v", err)
	}

	if _, err := te.engine.VerifyCode(ctx, "alice", code); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("err = %v, want ErrCodeExpired", err)
	}

	// Expiry deletes the record eagerly.
	if _, err := te.engine.pending.Find(ctx, Identifier{Kind: KindUsername, Value: "alice"}); !errors.Is(err, errPendingNotFound) {
		t.Fatalf("expired record still present: %v", err)
	}
}

func TestVerifyCodeLosesPromotionRace(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := te.engine.RequestSignup(ctx, validSignupRequest()); err != nil {
		t.Fatalf("RequestSignup: %v", err)
	}
	code := te.delivery.lastCode(t)

	// Someone claims the username between signup and verification.
	te.seedAccount(t, Account{Username: "alice"})

	if _, err := te.engine.VerifyCode(ctx, "alice", code); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("err = %v, want ErrAccountExists", err)
	}

	// The doomed pending record is cleaned up.
	if _, err := te.engine.pending.Find(ctx, Identifier{Kind: KindUsername, Value: "alice"}); !errors.Is(err, errPendingNotFound) {
		t.Fatalf("raced record still present: %v", err)
	}
}

func TestVerifyCodeWrongCodeOnRacedPendingStaysInvalid(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()

	if _, err := te.engine.RequestSignup(ctx, validSignupRequest()); err != nil {
		t.Fatalf("RequestSignup: %v", err)
	}
	code := te.delivery.lastCode(t)

	te.seedAccount(t, Account{Username: "alice"})

	// The code must fail on its own merits; a wrong guess may not learn
	// that the username has been claimed, and must not burn the record.
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := te.engine.VerifyCode(ctx, "alice", wrong); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("err = %v, want ErrInvalidCode", err)
	}
	if _, err := te.engine.pending.Find(ctx, Identifier{Kind: KindUsername, Value: "alice"}); err != nil {
		t.Fatalf("pending record dropped on wrong code: %v", err)
	}

	// Only the real code surfaces the lost race.
	if _, err := te.engine.VerifyCode(ctx, "alice", code); !errors.Is(err, ErrAccountExists) {
		t.Fatalf("err = %v, want ErrAccountExists", err)
	}
}

func TestVerifyCodeAgainstAccount(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	seeded := te.seedAccount(t, Account{Username: "alice", Email: "alice@example.com"})

	if _, err := te.engine.Signin(ctx, "alice", ""); err != nil {
		t.Fatalf("Signin: %v", err)
	}

	result, err := te.engine.VerifyCode(ctx, "alice", te.delivery.lastCode(t))
	if err != nil {
		t.Fatalf("VerifyCode: %v", err)
	}
	if result.Created {
		t.Fatalf("Created = true for an existing account")
	}
	if result.Token == "" {
		t.Fatalf("no token issued")
	}

	// Single use: the stored code is cleared on success.
	account, _ := te.repo.get(seeded.ID)
	if account.OTPCode != "" {
		t.Fatalf("code not cleared after successful verification")
	}

	if _, err := te.engine.VerifyCode(ctx, "alice", "000000"); !errors.Is(err, ErrOTPNotRequested) {
		t.Fatalf("replay: err = %v, want ErrOTPNotRequested", err)
	}
}

func TestVerifyCodeAccountCodeExpired(t *testing.T) {
	te := newTestEngine(t, nil)
	ctx := context.Background()
	seeded := te.seedAccount(t, Account{
		Username:  "alice",
		Email:     "alice@example.com",
		OTPCode:   "123456",
		OTPExpiry: time.Now().Add(-time.Minute),
	})

	if _, err := te.engine.VerifyCode(ctx, "alice", "123456"); !errors.Is(err, ErrCodeExpired) {
		t.Fatalf("err = %v, want ErrCodeExpired", err)
	}

	// The dead code is cleared so the next attempt reports not-requested.
	account, _ := te.repo.get(seeded.ID)
	if account.OTPCode != "" {
		t.Fatalf("expired code not cleared")
	}
	if _, err := te.engine.VerifyCode(ctx, "alice", "123456"); !errors.Is(err, ErrOTPNotRequested) {
		t.Fatalf("second attempt: err = %v, want ErrOTPNotRequested", err)
	}
}

func TestVerifyCodeAccountWithoutCode(t *testing.T) {
	te := newTestEngine(t, nil)
	te.seedAccount(t, Account{Username: "alice"})

	if _, err := te.engine.VerifyCode(context.Background(), "alice", "123456"); !errors.Is(err, ErrOTPNotRequested) {
		t.Fatalf("err = %v, want ErrOTPNotRequested", err)
	}
}

func TestVerifyCodeUnknownIdentifier(t *testing.T) {
	te := newTestEngine(t, nil)

	if _, err := te.engine.VerifyCode(context.Background(), "ghost", "123456"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}
