package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default chart of accounts",
	Long:  "Creates every default account whose number is not taken yet. Running it twice is harmless.",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		ledger, err := e.ledger()
		if err != nil {
			return err
		}
		created, err := ledger.Accounts.SeedDefaultChart(commandContext(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d account(s)\n", created)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
