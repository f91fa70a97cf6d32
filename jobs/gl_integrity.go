package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// IntegrityChecker re-sums open-period transactions.
type IntegrityChecker interface {
	CheckIntegrity(ctx context.Context) (journals.IntegrityReport, error)
}

// GLIntegrityJob reports transactions whose stored balance flag disagrees with
// their entries.
type GLIntegrityJob struct {
	Checker IntegrityChecker
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewGLIntegrityJob initialises the integrity handler.
func NewGLIntegrityJob(checker IntegrityChecker, logger *slog.Logger, metrics *jobmetrics.Metrics) *GLIntegrityJob {
	return &GLIntegrityJob{Checker: checker, Logger: logger, Metrics: metrics}
}

// Handle executes the integrity check.
func (j *GLIntegrityJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Checker == nil {
		return errors.New("gl integrity: handler not configured")
	}
	tracker := j.Metrics.Track(TaskGLIntegrity)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	var payload GLIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	start := time.Now()
	logger := j.logger()
	report, err := j.Checker.CheckIntegrity(ctx)
	if err != nil {
		logger.Error("gl integrity check failed", slog.Any("error", err))
		return err
	}
	for _, m := range report.Mismatches {
		logger.Warn("transaction balance flag mismatch",
			slog.Int64("transaction_id", m.TransactionID),
			slog.Int64("period_id", m.PeriodID),
			slog.Bool("stored_flag", m.StoredFlag),
			slog.String("debits", m.TotalDebits.StringFixed(2)),
			slog.String("credits", m.TotalCredits.StringFixed(2)),
		)
	}
	tracker.Processed(report.Checked)
	j.Metrics.AddAnomalies("flag_mismatch", len(report.Mismatches))
	j.Metrics.AddAnomalies("unbalanced", report.Unbalanced)
	logger.Info("gl integrity check completed",
		slog.Int("checked", report.Checked),
		slog.Int("unbalanced", report.Unbalanced),
		slog.Int("mismatches", len(report.Mismatches)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *GLIntegrityJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default().With(slog.String("job", TaskGLIntegrity))
	}
	return j.Logger.With(slog.String("job", TaskGLIntegrity))
}
