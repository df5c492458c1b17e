package auth

import (
	"context"
	"strings"
	"time"

	"log/slog"

	"github.com/redis/go-redis/v9"
)

const throttleKeyPrefix = "inkwell:login_attempts:"

// LoginThrottle limits failed sign-in attempts per email. Redis
// outages fail open: a broken throttle must not lock everyone out.
type LoginThrottle struct {
	client *redis.Client
	limit  int64
	window time.Duration
	logger *slog.Logger
}

// NewLoginThrottle constructs a LoginThrottle.
func NewLoginThrottle(client *redis.Client, limit int64, window time.Duration, logger *slog.Logger) *LoginThrottle {
	return &LoginThrottle{client: client, limit: limit, window: window, logger: logger}
}

// Allow reports whether another sign-in attempt for the email may
// proceed.
func (t *LoginThrottle) Allow(ctx context.Context, email string) bool {
	if t == nil || t.client == nil {
		return true
	}
	count, err := t.client.Get(ctx, t.key(email)).Int64()
	if err != nil && err != redis.Nil {
		t.warn("throttle read", err)
		return true
	}
	return count < t.limit
}

// RecordFailure counts a failed attempt. The window starts with the
// first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, email string) {
	if t == nil || t.client == nil {
		return
	}
	key := t.key(email)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		t.warn("throttle incr", err)
		return
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			t.warn("throttle expire", err)
		}
	}
}

// Reset clears the counter after a successful sign-in.
func (t *LoginThrottle) Reset(ctx context.Context, email string) {
	if t == nil || t.client == nil {
		return
	}
	if err := t.client.Del(ctx, t.key(email)).Err(); err != nil {
		t.warn("throttle reset", err)
	}
}

func (t *LoginThrottle) key(email string) string {
	return throttleKeyPrefix + strings.ToLower(strings.TrimSpace(email))
}

func (t *LoginThrottle) warn(op string, err error) {
	if t.logger != nil {
		t.logger.Warn(op, slog.Any("error", err))
	}
}
