package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	exportPeriod int64
	exportOut    string
	exportAsync  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a period workbook",
	Long:  "Writes the income statement, balance sheet, cash flow and trial balance of a period to an .xlsx file, or queues the export job with --async.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportPeriod <= 0 {
			return errors.New("--period is required")
		}
		if exportAsync {
			return enqueueExport(cmd, exportPeriod)
		}
		e, err := openEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer e.Close()

		ledger, err := e.ledger()
		if err != nil {
			return err
		}
		out := exportOut
		if out == "" {
			out = fmt.Sprintf("ledger-period-%d.xlsx", exportPeriod)
		}
		wb, err := ledger.Reports.ExportWorkbook(commandContext(cmd), exportPeriod)
		if err != nil {
			return err
		}
		defer func() { _ = wb.Close() }()
		if err := wb.SaveAs(out); err != nil {
			_ = os.Remove(out)
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Workbook written to %s\n", out)
		return nil
	},
}

func init() {
	exportCmd.Flags().Int64Var(&exportPeriod, "period", 0, "Period id to export")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file (default ledger-period-<id>.xlsx)")
	exportCmd.Flags().BoolVar(&exportAsync, "async", false, "Queue the export job instead of writing locally")
	rootCmd.AddCommand(exportCmd)
}
