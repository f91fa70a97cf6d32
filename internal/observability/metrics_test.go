package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	body := scrape(t, NewMetrics())
	if !strings.Contains(body, "ledger_periods_closed_total 0") {
		t.Fatalf("expected body to contain ledger_periods_closed_total, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, "ledger_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, "ledger_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestLedgerCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.TransactionCreated(true)
	metrics.TransactionCreated(true)
	metrics.TransactionCreated(false)
	metrics.PeriodClosed()
	metrics.PeriodCloseFailed("unbalanced")

	body := scrape(t, metrics)
	for _, want := range []string{
		`ledger_transactions_created_total{balanced="true"} 2`,
		`ledger_transactions_created_total{balanced="false"} 1`,
		`ledger_periods_closed_total 1`,
		`ledger_period_close_failures_total{reason="unbalanced"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestJobMetricsShareRegistry(t *testing.T) {
	metrics := NewMetrics()
	_ = metrics.Jobs().Track("ledger:gl_integrity").End(errors.New("boom"))
	metrics.Jobs().AddAnomalies("flag_mismatch", 3)

	body := scrape(t, metrics)
	for _, want := range []string{
		`ledger_jobs_total{job="ledger:gl_integrity",status="failure"} 1`,
		`ledger_jobs_failures_total{job="ledger:gl_integrity"} 1`,
		`ledger_integrity_anomalies_total{kind="flag_mismatch"} 3`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var metrics *Metrics
	metrics.TransactionCreated(true)
	metrics.PeriodClosed()
	metrics.PeriodCloseFailed("lock")
	if metrics.Jobs() != nil {
		t.Fatal("expected nil job metrics")
	}
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
