package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/inkwell-blog/inkwell/internal/jobs"
)

type stubPurger struct {
	removed int64
	err     error
	calls   int
}

func (s *stubPurger) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	s.calls++
	return s.removed, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewTokenCleanupTask(t *testing.T) {
	task, err := NewTokenCleanupTask(TokenCleanupPayload{Reason: "cron"})
	require.NoError(t, err)
	assert.Equal(t, TaskTypeTokenCleanup, task.Type())
	assert.Contains(t, string(task.Payload()), "cron")
}

func TestTokenCleanupHandler(t *testing.T) {
	purger := &stubPurger{removed: 3}
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	handler := NewTokenCleanupHandler(purger, metrics, testLogger())

	task, err := NewTokenCleanupTask(TokenCleanupPayload{Reason: "manual"})
	require.NoError(t, err)

	require.NoError(t, handler(context.Background(), task))
	assert.Equal(t, 1, purger.calls)

	count, err := testutil.GatherAndCount(registry,
		"inkwell_jobs_total", "inkwell_refresh_tokens_purged_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTokenCleanupHandlerPropagatesError(t *testing.T) {
	purger := &stubPurger{err: errors.New("database down")}
	handler := NewTokenCleanupHandler(purger, jobmetrics.NewMetrics(prometheus.NewRegistry()), testLogger())

	task, err := NewTokenCleanupTask(TokenCleanupPayload{})
	require.NoError(t, err)

	err = handler(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestTokenCleanupHandlerSkipsRetryOnBadPayload(t *testing.T) {
	purger := &stubPurger{}
	handler := NewTokenCleanupHandler(purger, nil, testLogger())

	err := handler(context.Background(), asynq.NewTask(TaskTypeTokenCleanup, []byte("{not json")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	assert.Zero(t, purger.calls)
}
