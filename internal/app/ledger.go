package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/store"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/subledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/lock"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// LedgerDeps lists what BuildLedger needs. Redis and Metrics are optional.
type LedgerDeps struct {
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Config  *Config
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Ledger bundles the services of one Postgres-backed ledger.
type Ledger struct {
	Store       *store.Store
	Registry    *mappings.Registry
	Audit       *shared.AuditLogger
	Idempotency *shared.IdempotencyStore
	Accounts    *accounts.Service
	Journals    *journals.Service
	Periods     *periods.Service
	Reports     *reports.Service
	Subledger   *subledger.Service
}

// BuildLedger wires the services over the pool. With a Redis client the period
// close is serialized through a distributed lock and closed-period statements
// are cached.
func BuildLedger(deps LedgerDeps) (*Ledger, error) {
	if deps.Pool == nil {
		return nil, fmt.Errorf("app: database pool required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	registry, err := mappings.NewRegistry(deps.Config.AccountOverrides())
	if err != nil {
		return nil, err
	}

	st := store.New(deps.Pool)
	audit := shared.NewAuditLogger(deps.Pool)
	l := &Ledger{
		Store:       st,
		Registry:    registry,
		Audit:       audit,
		Idempotency: shared.NewIdempotencyStore(deps.Pool),
		Accounts:    accounts.NewService(st.Accounts(), audit, logger.With(slog.String("service", "accounts"))),
		Journals:    journals.NewService(st.Journals(), audit, logger.With(slog.String("service", "journals"))),
		Periods:     periods.NewService(st.Periods(), audit, logger.With(slog.String("service", "periods"))),
		Reports:     reports.NewService(st.Reports(), registry, audit, logger.With(slog.String("service", "reports"))),
		Subledger:   subledger.NewService(st.Subledger(), audit, logger.With(slog.String("service", "subledger"))),
	}

	if deps.Metrics != nil {
		l.Journals.WithMetrics(deps.Metrics)
		l.Periods.WithMetrics(deps.Metrics)
	}
	if deps.Redis != nil {
		lockTTL := lock.DefaultTTL
		var cacheTTL time.Duration
		if deps.Config != nil {
			if deps.Config.CloseLockTTL > 0 {
				lockTTL = deps.Config.CloseLockTTL
			}
			cacheTTL = deps.Config.ReportCacheTTL
		}
		l.Periods.WithLocker(NewPeriodLocker(lock.NewRedis(deps.Redis, lock.Options{TTL: lockTTL})))
		if cacheTTL > 0 {
			statements := reports.NewCache(deps.Redis, cacheTTL)
			l.Reports.WithCache(statements)
			l.Accounts.WithStatementCache(statements)
			l.Journals.WithStatementCache(statements)
			l.Periods.WithStatementCache(statements)
		}
	}
	return l, nil
}
