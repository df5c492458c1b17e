package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-blog/inkwell/internal/platform/httpx"
	_ "github.com/inkwell-blog/inkwell/testing"
)

func newTestThrottle(t *testing.T, limit int64) (*LoginThrottle, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewLoginThrottle(client, limit, time.Minute, nil), mr
}

func TestThrottleBlocksAfterLimit(t *testing.T) {
	throttle, _ := newTestThrottle(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.True(t, throttle.Allow(ctx, "ada@example.com"))
		throttle.RecordFailure(ctx, "ada@example.com")
	}
	assert.False(t, throttle.Allow(ctx, "ada@example.com"))

	// Other accounts are unaffected.
	assert.True(t, throttle.Allow(ctx, "ben@example.com"))
}

func TestThrottleKeyIsCaseInsensitive(t *testing.T) {
	throttle, _ := newTestThrottle(t, 1)
	ctx := context.Background()

	throttle.RecordFailure(ctx, "Ada@Example.com")
	assert.False(t, throttle.Allow(ctx, "ada@example.com"))
}

func TestThrottleResetClearsCounter(t *testing.T) {
	throttle, _ := newTestThrottle(t, 1)
	ctx := context.Background()

	throttle.RecordFailure(ctx, "ada@example.com")
	assert.False(t, throttle.Allow(ctx, "ada@example.com"))

	throttle.Reset(ctx, "ada@example.com")
	assert.True(t, throttle.Allow(ctx, "ada@example.com"))
}

func TestThrottleWindowExpires(t *testing.T) {
	throttle, mr := newTestThrottle(t, 1)
	ctx := context.Background()

	throttle.RecordFailure(ctx, "ada@example.com")
	assert.False(t, throttle.Allow(ctx, "ada@example.com"))

	mr.FastForward(2 * time.Minute)
	assert.True(t, throttle.Allow(ctx, "ada@example.com"))
}

func TestThrottleFailsOpenWhenRedisDown(t *testing.T) {
	throttle, mr := newTestThrottle(t, 1)
	ctx := context.Background()

	throttle.RecordFailure(ctx, "ada@example.com")
	mr.Close()

	assert.True(t, throttle.Allow(ctx, "ada@example.com"))
}

func TestNilThrottleAllowsEverything(t *testing.T) {
	var throttle *LoginThrottle
	ctx := context.Background()

	assert.True(t, throttle.Allow(ctx, "ada@example.com"))
	throttle.RecordFailure(ctx, "ada@example.com")
	throttle.Reset(ctx, "ada@example.com")
}

func TestSignInThrottled(t *testing.T) {
	throttle, _ := newTestThrottle(t, 2)
	repo := newMockRepository()
	tokens := NewTokenManager("test-secret", "15m", "7d")
	svc := NewService(repo, tokens, throttle, nil, 4)
	registerTestUser(t, svc, "ada@example.com", "hunter22")

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := svc.SignIn(ctx, "ada@example.com", "wrong")
		require.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// The third attempt is rejected before the password check, even
	// with the right password.
	_, err := svc.SignIn(ctx, "ada@example.com", "hunter22")
	require.ErrorIs(t, err, httpx.ErrRateLimited)
}
