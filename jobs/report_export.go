package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// WorkbookWriter renders a period workbook.
type WorkbookWriter interface {
	WriteWorkbook(ctx context.Context, periodID int64, w io.Writer) error
}

// ReportExportJob writes period workbooks under Dir.
type ReportExportJob struct {
	Writer  WorkbookWriter
	Dir     string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReportExportJob initialises the export handler.
func NewReportExportJob(writer WorkbookWriter, dir string, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportExportJob {
	return &ReportExportJob{Writer: writer, Dir: dir, Logger: logger, Metrics: metrics}
}

// Handle decodes the payload and exports the requested period.
func (j *ReportExportJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Writer == nil {
		return errors.New("report export: handler not configured")
	}
	tracker := j.Metrics.Track(TaskReportExport)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()
	var payload ReportExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.PeriodID <= 0 {
		return asynq.SkipRetry
	}
	path, err := j.Export(ctx, payload.PeriodID)
	if err != nil {
		j.logger().Error("report export failed", slog.Int64("period_id", payload.PeriodID), slog.Any("error", err))
		return err
	}
	tracker.Processed(1)
	j.logger().Info("report exported",
		slog.Int64("period_id", payload.PeriodID),
		slog.String("requested_by", payload.RequestedBy),
		slog.String("path", path),
	)
	return nil
}

// Export writes the workbook of periodID and returns its path. The file only
// appears under its final name once fully written.
func (j *ReportExportJob) Export(ctx context.Context, periodID int64) (string, error) {
	if err := os.MkdirAll(j.Dir, 0o755); err != nil {
		return "", fmt.Errorf("report export: create dir: %w", err)
	}
	name := fmt.Sprintf("ledger-period-%d-%s.xlsx", periodID, uuid.NewString())
	tmp, err := os.CreateTemp(j.Dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("report export: create file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if err := j.Writer.WriteWorkbook(ctx, periodID, tmp); err != nil {
		_ = tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("report export: close file: %w", err)
	}
	path := filepath.Join(j.Dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("report export: rename: %w", err)
	}
	return path, nil
}

func (j *ReportExportJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default().With(slog.String("job", TaskReportExport))
	}
	return j.Logger.With(slog.String("job", TaskReportExport))
}
