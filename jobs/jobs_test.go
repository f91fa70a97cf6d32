package jobs

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgertest"
	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func TestGLIntegrityJobCountsAnomalies(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	period := f.OpenMonth(t, 2025, 1)
	short := f.Post(t, period.ID, ledgertest.Date(2025, 1, 6), accounting.TransactionTypePurchases,
		f.Dr(t, "5100", "100"), f.Cr(t, "2000", "90"))
	_, err := f.Journals.BalanceTransaction(ctx, short.ID, "reviewer")
	require.NoError(t, err)
	f.Post(t, period.ID, ledgertest.Date(2025, 1, 7), accounting.TransactionTypePurchases,
		f.Dr(t, "5100", "10"), f.Cr(t, "2000", "5"))

	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	job := NewGLIntegrityJob(f.Journals, nil, metrics)
	task, err := NewGLIntegrityTask(time.Now())
	require.NoError(t, err)

	require.NoError(t, job.Handle(ctx, task))

	expected := `
# HELP ledger_integrity_anomalies_total Ledger integrity anomalies found by background checks, grouped by kind.
# TYPE ledger_integrity_anomalies_total counter
ledger_integrity_anomalies_total{kind="flag_mismatch"} 1
ledger_integrity_anomalies_total{kind="unbalanced"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "ledger_integrity_anomalies_total"))

	expected = `
# HELP ledger_job_items_total Items handled by successful ledger job runs.
# TYPE ledger_job_items_total counter
ledger_job_items_total{job="ledger:gl_integrity"} 2
# HELP ledger_jobs_total Ledger job runs by task type and outcome (success, failure, skipped).
# TYPE ledger_jobs_total counter
ledger_jobs_total{job="ledger:gl_integrity",status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "ledger_job_items_total", "ledger_jobs_total"))
}

func TestGLIntegrityJobRejectsBadPayload(t *testing.T) {
	registry := prometheus.NewRegistry()
	job := NewGLIntegrityJob(ledgertest.New(t).Journals, nil, jobmetrics.NewMetrics(registry))
	err := job.Handle(context.Background(), asynq.NewTask(TaskGLIntegrity, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)

	expected := `
# HELP ledger_jobs_total Ledger job runs by task type and outcome (success, failure, skipped).
# TYPE ledger_jobs_total counter
ledger_jobs_total{job="ledger:gl_integrity",status="skipped"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "ledger_jobs_total"))
	count, err := testutil.GatherAndCount(registry, "ledger_jobs_failures_total")
	require.NoError(t, err)
	require.Zero(t, count, "skipped payloads are not failures")
}

type failingChecker struct{}

func (failingChecker) CheckIntegrity(ctx context.Context) (journals.IntegrityReport, error) {
	return journals.IntegrityReport{}, errors.New("store down")
}

func TestGLIntegrityJobRecordsFailure(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	job := NewGLIntegrityJob(failingChecker{}, nil, metrics)
	task, err := NewGLIntegrityTask(time.Now())
	require.NoError(t, err)

	require.EqualError(t, job.Handle(context.Background(), task), "store down")

	expected := `
# HELP ledger_jobs_failures_total Ledger job runs that failed and will be retried.
# TYPE ledger_jobs_failures_total counter
ledger_jobs_failures_total{job="ledger:gl_integrity"} 1
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "ledger_jobs_failures_total"))
}

func TestReportExportJobWritesWorkbook(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	period := f.OpenMonth(t, 2025, 1)
	f.Post(t, period.ID, ledgertest.Date(2025, 1, 5), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "50"), f.Cr(t, "4000", "50"))

	dir := filepath.Join(t.TempDir(), "exports")
	job := NewReportExportJob(f.Reports, dir, nil, nil)
	task, err := NewReportExportTask(period.ID, "controller")
	require.NoError(t, err)
	require.NoError(t, job.Handle(ctx, task))

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	require.True(t, strings.HasPrefix(files[0].Name(), "ledger-period-1-"))
	require.True(t, strings.HasSuffix(files[0].Name(), ".xlsx"))

	data, err := os.ReadFile(filepath.Join(dir, files[0].Name()))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(data), "PK"))
}

type brokenWriter struct{}

func (brokenWriter) WriteWorkbook(ctx context.Context, periodID int64, w io.Writer) error {
	_, _ = w.Write([]byte("partial"))
	return accounting.ErrPeriodNotFound
}

func TestReportExportJobLeavesNoPartialFile(t *testing.T) {
	dir := t.TempDir()
	job := NewReportExportJob(brokenWriter{}, dir, nil, nil)
	_, err := job.Export(context.Background(), 9)
	require.ErrorIs(t, err, accounting.ErrNotFound)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, files)
}

func TestReportExportJobSkipsMissingPeriod(t *testing.T) {
	job := NewReportExportJob(brokenWriter{}, t.TempDir(), nil, nil)
	err := job.Handle(context.Background(), asynq.NewTask(TaskReportExport, []byte(`{"period_id":0}`)))
	require.ErrorIs(t, err, asynq.SkipRetry)
}

type stubPruner struct {
	retention time.Duration
}

func (p *stubPruner) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	p.retention = olderThan
	return 4, nil
}

func TestIdempotencyCleanupDefaultsRetention(t *testing.T) {
	pruner := &stubPruner{}
	registry := prometheus.NewRegistry()
	job := NewIdempotencyCleanupJob(pruner, nil, jobmetrics.NewMetrics(registry))
	task, err := NewIdempotencyCleanupTask(0)
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, DefaultIdempotencyRetention, pruner.retention)

	expected := `
# HELP ledger_job_items_total Items handled by successful ledger job runs.
# TYPE ledger_job_items_total counter
ledger_job_items_total{job="ledger:idempotency_cleanup"} 4
`
	require.NoError(t, testutil.GatherAndCompare(registry, strings.NewReader(expected), "ledger_job_items_total"))
	count, err := testutil.GatherAndCount(registry, "ledger_job_last_success_timestamp_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestTasksUseDefaultQueue(t *testing.T) {
	task, err := NewReportExportTask(3, "")
	require.NoError(t, err)
	require.Equal(t, TaskReportExport, task.Type())
	require.JSONEq(t, `{"period_id":3}`, string(task.Payload()))
}

func TestHealthWithoutInspector(t *testing.T) {
	h := NewHandler(nil, nil)
	rr := httptest.NewRecorder()
	h.health(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"queue":"default","pending":0}`, rr.Body.String())
}
