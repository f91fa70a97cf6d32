// Package observability exposes the Prometheus registry shared by the HTTP
// server, the ledger services and the job worker.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jobmetrics "github.com/odyssey-erp/odyssey-ledger/internal/jobs"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	txnsCreated     *prometheus.CounterVec
	periodsClosed   prometheus.Counter
	closeFailures   *prometheus.CounterVec
	jobs            *jobmetrics.Metrics
}

// NewMetrics initialises the registry and its collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_http_requests_total",
		Help: "HTTP requests partitioned by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ledger_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_created_total",
		Help: "Transactions recorded, partitioned by balance state.",
	}, []string{"balanced"})
	closed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ledger_periods_closed_total",
		Help: "Accounting periods closed successfully.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_period_close_failures_total",
		Help: "Rejected or failed period closes, partitioned by reason.",
	}, []string{"reason"})
	registry.MustRegister(requests, duration, created, closed, failures)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		txnsCreated:     created,
		periodsClosed:   closed,
		closeFailures:   failures,
		jobs:            jobmetrics.NewMetrics(registry),
	}
}

// Handler returns the http.Handler serving /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records a counter and a latency observation for each request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Registerer exposes the registry for custom collectors.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

// Jobs returns the job collectors registered on the same registry.
func (m *Metrics) Jobs() *jobmetrics.Metrics {
	if m == nil {
		return nil
	}
	return m.jobs
}

// TransactionCreated counts a recorded transaction.
func (m *Metrics) TransactionCreated(balanced bool) {
	if m == nil {
		return
	}
	m.txnsCreated.WithLabelValues(strconv.FormatBool(balanced)).Inc()
}

// PeriodClosed counts a successful close.
func (m *Metrics) PeriodClosed() {
	if m == nil {
		return
	}
	m.periodsClosed.Inc()
}

// PeriodCloseFailed counts a rejected close.
func (m *Metrics) PeriodCloseFailed(reason string) {
	if m == nil {
		return
	}
	m.closeFailures.WithLabelValues(reason).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
