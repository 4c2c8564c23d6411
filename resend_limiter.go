package goIdentity

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

var (
	errResendRateLimited        = errors.New("resend rate limited")
	errResendLimiterUnavailable = errors.New("resend limiter unavailable")
)

// resendLimiter enforces a fixed window of code resends per identifier.
type resendLimiter struct {
	redis  *redis.Client
	config ResendConfig
}

func newResendLimiter(redisClient *redis.Client, cfg ResendConfig) *resendLimiter {
	return &resendLimiter{
		redis:  redisClient,
		config: cfg,
	}
}

func (l *resendLimiter) Check(ctx context.Context, identifier string) error {
	if !l.config.Enabled {
		return nil
	}
	return l.enforceFixedWindow(ctx, resendIdentifierKey(identifier))
}

func (l *resendLimiter) enforceFixedWindow(ctx context.Context, key string) error {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", errResendLimiterUnavailable, err)
	}

	if count == 1 {
		if err := l.redis.Expire(ctx, key, l.config.Window).Err(); err != nil {
			return fmt.Errorf("%w: %v", errResendLimiterUnavailable, err)
		}
	}

	if count > int64(l.config.MaxAttempts) {
		return errResendRateLimited
	}

	return nil
}

func resendIdentifierKey(identifier string) string {
	return "aipr:" + identifier
}
