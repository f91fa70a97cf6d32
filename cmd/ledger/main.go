package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	accountinghttp "github.com/odyssey-erp/odyssey-ledger/internal/accounting/http"
	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
	"github.com/odyssey-erp/odyssey-ledger/migrations"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.MigrateOnStart {
		version, err := db.Migrate(pool, migrations.FS)
		if err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("schema migrated", slog.Uint64("version", uint64(version)))
	}

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, close lock and report cache disabled", slog.Any("error", err))
			redisClient = nil
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("redis close", slog.Any("error", err))
				}
			}()
		}
	}

	metrics := observability.NewMetrics()
	ledger, err := app.BuildLedger(app.LedgerDeps{
		Pool:    pool,
		Redis:   redisClient,
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
	})
	if err != nil {
		logger.Error("build ledger", slog.Any("error", err))
		os.Exit(1)
	}

	accountingHandler := accountinghttp.NewHandler(logger, accountinghttp.Services{
		Accounts:  ledger.Accounts,
		Journals:  ledger.Journals,
		Periods:   ledger.Periods,
		Reports:   ledger.Reports,
		Subledger: ledger.Subledger,
	}, ledger.Idempotency)

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() { _ = inspector.Close() }()
		jobHandler = jobs.NewHandler(inspector, logger)
	} else {
		jobHandler = jobs.NewHandler(nil, logger)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:            logger,
		Config:            cfg,
		AccountingHandler: accountingHandler,
		JobHandler:        jobHandler,
		Metrics:           metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
