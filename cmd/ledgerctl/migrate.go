package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
	"github.com/odyssey-erp/odyssey-ledger/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		version, err := db.Migrate(e.pool, migrations.FS)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", version)
		return nil
	},
}

var migrateDownSteps int

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateDownSteps <= 0 {
			return fmt.Errorf("--steps must be positive")
		}
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		if err := db.MigrateDown(e.pool, migrations.FS, migrateDownSteps); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rolled back %d migration(s)\n", migrateDownSteps)
		return nil
	},
}

func init() {
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "Number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
