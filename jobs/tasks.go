package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskGLIntegrity re-sums the transactions of open periods.
	TaskGLIntegrity = "ledger:gl_integrity"
	// TaskReportExport writes a period workbook to the export directory.
	TaskReportExport = "ledger:report_export"
	// TaskIdempotencyCleanup prunes expired Idempotency-Key records.
	TaskIdempotencyCleanup = "ledger:idempotency_cleanup"
)

// TaskTypes lists every task the worker handles.
var TaskTypes = []string{TaskGLIntegrity, TaskReportExport, TaskIdempotencyCleanup}

// GLIntegrityPayload carries scheduling metadata.
type GLIntegrityPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// ReportExportPayload selects the period to export.
type ReportExportPayload struct {
	PeriodID    int64  `json:"period_id"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// IdempotencyCleanupPayload sets how long keys are retained.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewGLIntegrityTask constructs the integrity task.
func NewGLIntegrityTask(at time.Time) (*asynq.Task, error) {
	return newTask(TaskGLIntegrity, GLIntegrityPayload{ScheduledFor: at})
}

// NewReportExportTask constructs an export task for periodID.
func NewReportExportTask(periodID int64, requestedBy string) (*asynq.Task, error) {
	return newTask(TaskReportExport, ReportExportPayload{PeriodID: periodID, RequestedBy: requestedBy})
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, IdempotencyCleanupPayload{Retention: retention})
}

func newTask(typ string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, body, asynq.Queue(QueueDefault)), nil
}
