package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Sheet names used by ExportWorkbook.
const (
	SheetIncomeStatement = "Income Statement"
	SheetBalanceSheet    = "Balance Sheet"
	SheetCashFlow        = "Cash Flow"
	SheetTrialBalance    = "Trial Balance"
)

// ExportWorkbook renders the income statement, balance sheet as of period end,
// cash flow and trial balance of a period into one workbook.
func (s *Service) ExportWorkbook(ctx context.Context, periodID int64) (*excelize.File, error) {
	period, err := s.period(ctx, periodID)
	if err != nil {
		return nil, err
	}
	end := period.EndDate
	is, err := s.IncomeStatement(ctx, periodID)
	if err != nil {
		return nil, err
	}
	bs, err := s.BalanceSheet(ctx, &end)
	if err != nil {
		return nil, err
	}
	cf, err := s.CashFlowStatement(ctx, periodID)
	if err != nil {
		return nil, err
	}
	tb, err := s.TrialBalance(ctx, &end)
	if err != nil {
		return nil, err
	}
	return BuildWorkbook(is, bs, cf, tb)
}

// WriteWorkbook streams the period workbook to w.
func (s *Service) WriteWorkbook(ctx context.Context, periodID int64, w io.Writer) error {
	f, err := s.ExportWorkbook(ctx, periodID)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	return f.Write(w)
}

// BuildWorkbook lays the statements out one per sheet.
func BuildWorkbook(is IncomeStatement, bs BalanceSheet, cf CashFlowStatement, tb TrialBalance) (*excelize.File, error) {
	f := excelize.NewFile()
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	w := &sheetWriter{f: f, header: header}

	w.sheet(SheetIncomeStatement)
	w.row("Income Statement", is.Period.Name, is.Period.StartDate+" - "+is.Period.EndDate)
	w.heading("Account Number", "Revenue", "Amount")
	for _, line := range is.Revenues {
		w.row(line.AccountNumber, line.Account, line.Amount.InexactFloat64())
	}
	w.row("", "Total Revenues", is.TotalRevenues.InexactFloat64())
	w.heading("Account Number", "Expense", "Amount")
	for _, line := range is.Expenses {
		w.row(line.AccountNumber, line.Account, line.Amount.InexactFloat64())
	}
	w.row("", "Total Expenses", is.TotalExpenses.InexactFloat64())
	w.row("", "Net Income", is.NetIncome.InexactFloat64())

	w.sheet(SheetBalanceSheet)
	w.row("Balance Sheet", "As of", bs.AsOfDate)
	w.section("Current Assets", bs.Assets.Current)
	w.section("Fixed Assets", bs.Assets.Fixed)
	w.row("", "Total Assets", bs.TotalAssets.InexactFloat64())
	w.section("Current Liabilities", bs.Liabilities.Current)
	w.section("Long-term Liabilities", bs.Liabilities.LongTerm)
	w.row("", "Total Liabilities", bs.TotalLiabilities.InexactFloat64())
	w.section("Equity", bs.Equity)
	w.row("", "Total Equity", bs.TotalEquity.InexactFloat64())
	w.row("", "Total Liabilities and Equity", bs.TotalLiabilitiesAndEquity.InexactFloat64())

	w.sheet(SheetCashFlow)
	w.row("Cash Flow Statement", cf.Period.Name, cf.Period.StartDate+" - "+cf.Period.EndDate)
	w.heading("Activity", "Account", "Amount")
	for _, item := range cf.Items {
		w.row(string(item.Activity), item.AccountNumber+" "+item.Account, item.Amount.InexactFloat64())
	}
	w.row("", "Operating Activities", cf.OperatingActivities.InexactFloat64())
	w.row("", "Investing Activities", cf.InvestingActivities.InexactFloat64())
	w.row("", "Financing Activities", cf.FinancingActivities.InexactFloat64())
	w.row("", "Net Cash Flow", cf.NetCashFlow.InexactFloat64())
	w.row("", "Beginning Cash", cf.BeginningCash.InexactFloat64())
	w.row("", "Ending Cash", cf.EndingCash.InexactFloat64())

	w.sheet(SheetTrialBalance)
	w.row("Trial Balance", "As of", tb.AsOfDate)
	w.heading("Code", "Account", "Debit", "Credit", "Closing")
	for _, grp := range tb.Groups {
		for _, acc := range grp.Accounts {
			w.row(acc.Code, acc.Name, acc.Debit.InexactFloat64(), acc.Credit.InexactFloat64(), acc.Closing.InexactFloat64())
		}
		w.row(grp.Key, "Subtotal", grp.Debit.InexactFloat64(), grp.Credit.InexactFloat64(), grp.Closing.InexactFloat64())
	}
	w.row("", "Total", tb.TotalDebit.InexactFloat64(), tb.TotalCredit.InexactFloat64(), tb.TotalClosing.InexactFloat64())

	if w.err != nil {
		return nil, w.err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}
	idx, err := f.GetSheetIndex(SheetIncomeStatement)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

// sheetWriter appends rows to the current sheet and keeps the first error.
type sheetWriter struct {
	f      *excelize.File
	header int
	name   string
	next   int
	err    error
}

func (w *sheetWriter) sheet(name string) {
	if w.err != nil {
		return
	}
	if _, err := w.f.NewSheet(name); err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetColWidth(name, "A", "B", 30)
	w.name = name
	w.next = 1
}

func (w *sheetWriter) row(values ...any) {
	if w.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(w.name, cell, &values); err != nil {
		w.err = fmt.Errorf("reports: sheet %s row %d: %w", w.name, w.next, err)
		return
	}
	w.next++
}

func (w *sheetWriter) heading(values ...any) {
	if w.err != nil {
		return
	}
	w.next++
	first := w.next
	w.row(values...)
	if w.err != nil {
		return
	}
	from, _ := excelize.CoordinatesToCellName(1, first)
	to, _ := excelize.CoordinatesToCellName(len(values), first)
	w.err = w.f.SetCellStyle(w.name, from, to, w.header)
}

func (w *sheetWriter) section(label string, lines []StatementLine) {
	w.heading("Account Number", label, "Amount")
	for _, line := range lines {
		w.row(line.AccountNumber, line.Account, line.Amount.InexactFloat64())
	}
}
