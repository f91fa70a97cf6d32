// Package jobmetrics instruments the ledger's background jobs: run outcomes,
// items handled per run, time of the last good run and integrity anomalies.
package jobmetrics

import (
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Run outcomes used as the status label.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	// StatusSkipped marks tasks rejected without retry, such as undecodable
	// payloads or a period id that can never resolve.
	StatusSkipped = "skipped"
)

// Metrics exposes Prometheus collectors for background jobs.
type Metrics struct {
	runs        *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	items       *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
	anomalies   *prometheus.CounterVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the job metrics against registerer, or the default
// Prometheus registerer when nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker follows one task run. A nil-metrics tracker only measures time.
type Tracker struct {
	metrics   *Metrics
	job       string
	start     time.Time
	processed int
}

// Track starts a tracker for the task type job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// Processed adds n handled items (transactions checked, keys pruned, workbooks
// written) to the run. Items are only counted when the run succeeds.
func (t *Tracker) Processed(n int) {
	if t == nil || n <= 0 {
		return
	}
	t.processed += n
}

// Outcome classifies err into a status label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, asynq.SkipRetry):
		return StatusSkipped
	default:
		return StatusFailure
	}
}

// End records the run and returns err untouched so handlers can defer it.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	m := t.metrics
	status := Outcome(err)
	m.runs.WithLabelValues(t.job, status).Inc()
	m.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	switch status {
	case StatusSuccess:
		m.lastSuccess.WithLabelValues(t.job).SetToCurrentTime()
		if t.processed > 0 {
			m.items.WithLabelValues(t.job).Add(float64(t.processed))
		}
	case StatusFailure:
		m.failures.WithLabelValues(t.job).Inc()
	}
	return err
}

// AddAnomalies increments the integrity anomaly counter for kind.
func (m *Metrics) AddAnomalies(kind string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.anomalies.WithLabelValues(kind).Add(float64(count))
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_jobs_total",
			Help: "Ledger job runs by task type and outcome (success, failure, skipped).",
		}, []string{"job", "status"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_jobs_failures_total",
			Help: "Ledger job runs that failed and will be retried.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ledger_job_duration_seconds",
			Help:    "Duration in seconds of ledger job runs.",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 60, 300},
		}, []string{"job"}),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_job_items_total",
			Help: "Items handled by successful ledger job runs.",
		}, []string{"job"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ledger_job_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run per task type.",
		}, []string{"job"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_integrity_anomalies_total",
			Help: "Ledger integrity anomalies found by background checks, grouped by kind.",
		}, []string{"kind"}),
	}
	registerer.MustRegister(m.runs, m.failures, m.duration, m.items, m.lastSuccess, m.anomalies)
	return m
}
