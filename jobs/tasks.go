package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/inkwell-blog/inkwell/internal/jobs"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeTokenCleanup is the task type for purging dead refresh tokens.
	TaskTypeTokenCleanup = "auth:purge_refresh_tokens"
)

// TokenCleanupPayload configures a refresh token purge run.
type TokenCleanupPayload struct {
	// Reason is recorded in the worker log, for example "cron" or "manual".
	Reason string `json:"reason"`
}

// TokenPurger removes refresh tokens that can never be redeemed again.
type TokenPurger interface {
	PurgeExpiredTokens(ctx context.Context) (int64, error)
}

// NewTokenCleanupTask constructs an Asynq task.
func NewTokenCleanupTask(payload TokenCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeTokenCleanup, data), nil
}

// NewTokenCleanupHandler returns the handler for TaskTypeTokenCleanup tasks.
// The metrics argument may be nil.
func NewTokenCleanupHandler(purger TokenPurger, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload TokenCleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := metrics.Track(TaskTypeTokenCleanup)
		removed, err := purger.PurgeExpiredTokens(ctx)
		if err != nil {
			logger.Error("token cleanup failed", slog.Any("error", err))
			return tracker.End(err)
		}
		metrics.AddPurgedTokens(TaskTypeTokenCleanup, removed)
		logger.Info("token cleanup done", slog.Int64("removed", removed), slog.String("reason", payload.Reason))
		return tracker.End(nil)
	}
}
