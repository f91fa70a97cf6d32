package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// DefaultIdempotencyRetention is used when the payload leaves retention unset.
const DefaultIdempotencyRetention = 72 * time.Hour

// KeyPruner deletes idempotency keys older than a cutoff.
type KeyPruner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob prunes expired Idempotency-Key records.
type IdempotencyCleanupJob struct {
	Pruner  KeyPruner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob initialises the cleanup handler.
func NewIdempotencyCleanupJob(pruner KeyPruner, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Pruner: pruner, Logger: logger, Metrics: metrics}
}

// Handle removes keys older than the payload retention.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Pruner == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	var payload IdempotencyCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		payload.Retention = DefaultIdempotencyRetention
	}
	removed, err := j.Pruner.Cleanup(ctx, payload.Retention)
	if err != nil {
		return err
	}
	tracker.Processed(int(removed))
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("idempotency keys pruned",
		slog.String("job", TaskIdempotencyCleanup),
		slog.Int64("removed", removed),
		slog.Duration("retention", payload.Retention),
	)
	return nil
}
