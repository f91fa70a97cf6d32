package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	accountinghttp "github.com/odyssey-erp/odyssey-ledger/internal/accounting/http"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgertest"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/lock"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

type noIdempotency struct{}

func (noIdempotency) CheckAndInsert(ctx context.Context, key, module string) error { return nil }
func (noIdempotency) Delete(ctx context.Context, key string) error               { return nil }

func newTestRouter(t *testing.T, cfg *Config) (http.Handler, *ledgertest.Fixture, *observability.Metrics) {
	t.Helper()
	f := ledgertest.New(t)
	metrics := observability.NewMetrics()
	handler := accountinghttp.NewHandler(nil, accountinghttp.Services{
		Accounts:  f.Accounts,
		Journals:  f.Journals,
		Periods:   f.Periods,
		Reports:   f.Reports,
		Subledger: f.Subledger,
	}, noIdempotency{})
	router := NewRouter(RouterParams{
		Config:            cfg,
		AccountingHandler: handler,
		Metrics:           metrics,
	})
	return router, f, metrics
}

func TestRouterHealthAndSecurityHeaders(t *testing.T) {
	router, _, _ := newTestRouter(t, &Config{RateLimitPerMinute: 100})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	require.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	require.NotEmpty(t, rr.Header().Get("X-Request-Id"))
}

func TestRouterRecordsActorInAudit(t *testing.T) {
	router, f, _ := newTestRouter(t, &Config{RateLimitPerMinute: 100})

	body := `{"accountNumber":"1500","name":"Equipment","type":"ASSET"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/accounts", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(ActorHeader, "controller-7")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	last := f.Audit.Logs[len(f.Audit.Logs)-1]
	require.Equal(t, "controller-7", last.ActorID)
}

func TestRouterRateLimits(t *testing.T) {
	router, _, _ := newTestRouter(t, &Config{RateLimitPerMinute: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRouterExposesMetrics(t *testing.T) {
	router, _, _ := newTestRouter(t, &Config{RateLimitPerMinute: 100})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/accounts/number/1000", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `ledger_http_requests_total{code="200",route="/api/v1/accounts/number/{number}"} 1`)
}

func TestLoadConfigDefaultsAndOverrides(t *testing.T) {
	t.Setenv("PG_DSN", "postgres://ledger@localhost/ledger")
	t.Setenv("LEDGER_CASH_ACCOUNT", "1010")
	t.Setenv("CLOSE_LOCK_TTL", "45s")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, 45*time.Second, cfg.CloseLockTTL)
	require.False(t, cfg.IsProduction())

	registry, err := mappings.NewRegistry(cfg.AccountOverrides())
	require.NoError(t, err)
	require.Equal(t, "1010", registry.Number(mappings.RoleCash))
}

func TestLoadConfigRejectsNegativeRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_PER_MINUTE", "-1")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestLoggerHonoursLevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogFormat: "json", LogLevel: "warn"}, &buf)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.True(t, strings.HasPrefix(out, "{"), out)
	require.Contains(t, out, `"msg":"shown"`)
}

func TestPeriodLockerReportsHeldLockAsConflict(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	locker := NewPeriodLocker(lock.NewRedis(client, lock.Options{TTL: time.Second, Retries: -1}))
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "ledger:period:1:close")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "ledger:period:1:close")
	require.ErrorIs(t, err, accounting.ErrCloseInProgress)
	require.ErrorIs(t, err, accounting.ErrStateConflict)

	require.NoError(t, release(ctx))
	require.Nil(t, NewPeriodLocker(nil))
}

func TestRouterServesExports(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ledger-period-1.xlsx"), []byte("PK\x03\x04"), 0o644))
	router, _, _ := newTestRouter(t, &Config{RateLimitPerMinute: 100, ExportDir: dir})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/exports/ledger-period-1.xlsx", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, xlsxContentType, rr.Header().Get("Content-Type"))
	require.Equal(t, "private, max-age=3600", rr.Header().Get("Cache-Control"))
}
