package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/app"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

var rootCmd = &cobra.Command{
	Use:           "ledgerctl",
	Short:         "Operate the double-entry ledger",
	Long:          "Apply migrations, seed the chart of accounts, export period workbooks and manage background jobs.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// env is the runtime shared by commands that touch the database.
type env struct {
	cfg    *app.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
}

func openEnv(ctx context.Context) (*env, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: app.NewLogger(cfg), pool: pool}, nil
}

func (e *env) Close() {
	if e != nil && e.pool != nil {
		e.pool.Close()
	}
}

func (e *env) ledger() (*app.Ledger, error) {
	return app.BuildLedger(app.LedgerDeps{Pool: e.pool, Config: e.cfg, Logger: e.logger})
}

func commandContext(cmd *cobra.Command) context.Context {
	return shared.ContextWithActor(cmd.Context(), "ledgerctl")
}
