package reports_test

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgertest"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

// january posts a month of activity: net income 300, ending cash 4800.
func january(t *testing.T, f *ledgertest.Fixture) accounting.Period {
	t.Helper()
	jan := f.OpenMonth(t, 2025, time.January)
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 2), accounting.TransactionTypeReceipts,
		f.Dr(t, "1000", "5000"), f.Cr(t, "3000", "5000"))
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 6), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "1000"), f.Cr(t, "4000", "1000"))
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 10), accounting.TransactionTypePayments,
		f.Dr(t, "5100", "700"), f.Cr(t, "1000", "700"))
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 15), accounting.TransactionTypePurchases,
		f.Dr(t, "1300", "2000"), f.Cr(t, "1000", "2000"))
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 20), accounting.TransactionTypeReceipts,
		f.Dr(t, "1000", "1500"), f.Cr(t, "2100", "1500"))
	return jan
}

func TestIncomeStatement(t *testing.T) {
	f := ledgertest.New(t)
	jan := january(t, f)
	ctx := context.Background()

	is, err := f.Reports.IncomeStatement(ctx, jan.ID)
	require.NoError(t, err)
	require.True(t, is.TotalRevenues.Equal(ledgertest.Amount("1000")))
	require.True(t, is.TotalExpenses.Equal(ledgertest.Amount("700")))
	require.True(t, is.NetIncome.Equal(ledgertest.Amount("300")))
	require.Equal(t, "January 2025", is.Period.Name)
	require.Len(t, is.Revenues, 1)
	require.Equal(t, "4000", is.Revenues[0].AccountNumber)

	all, err := f.Reports.IncomeStatement(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, "All Periods", all.Period.Name)
	require.True(t, all.NetIncome.Equal(is.NetIncome))

	_, err = f.Reports.IncomeStatement(ctx, 404)
	require.ErrorIs(t, err, accounting.ErrPeriodNotFound)
}

func TestBalanceSheetHoldsEquation(t *testing.T) {
	f := ledgertest.New(t)
	january(t, f)
	ctx := context.Background()
	asOf := ledgertest.Date(2025, 1, 31)

	bs, err := f.Reports.BalanceSheet(ctx, &asOf)
	require.NoError(t, err)
	require.True(t, bs.IsBalanced)
	require.True(t, bs.TotalAssets.Equal(ledgertest.Amount("6800")))
	require.True(t, bs.TotalLiabilities.Equal(ledgertest.Amount("1500")))
	require.True(t, bs.TotalEquity.Equal(ledgertest.Amount("5300")))
	require.True(t, bs.CurrentAssets.Equal(ledgertest.Amount("4800")))
	require.True(t, bs.CurrentLiabilities.IsZero(), "loans payable is long term")
	require.Len(t, bs.Assets.Fixed, 1)
	require.Equal(t, "2025-01-31", bs.AsOfDate)

	again, err := f.Reports.BalanceSheet(ctx, &asOf)
	require.NoError(t, err)
	require.Equal(t, bs, again)

	early := ledgertest.Date(2025, 1, 3)
	partial, err := f.Reports.BalanceSheet(ctx, &early)
	require.NoError(t, err)
	require.True(t, partial.TotalAssets.Equal(ledgertest.Amount("5000")))

	today, err := f.Reports.BalanceSheet(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, ledgertest.Now.Format(time.DateOnly), today.AsOfDate)
}

func TestCashFlowStatement(t *testing.T) {
	f := ledgertest.New(t)
	jan := january(t, f)
	ctx := context.Background()

	cf, err := f.Reports.CashFlowStatement(ctx, jan.ID)
	require.NoError(t, err)
	require.True(t, cf.OperatingActivities.Equal(ledgertest.Amount("300")))
	require.True(t, cf.InvestingActivities.Equal(ledgertest.Amount("-2000")))
	require.True(t, cf.FinancingActivities.Equal(ledgertest.Amount("6500")))
	require.True(t, cf.NetCashFlow.Equal(ledgertest.Amount("4800")))
	require.True(t, cf.BeginningCash.IsZero())
	require.True(t, cf.EndingCash.Equal(ledgertest.Amount("4800")))

	feb := f.OpenMonth(t, 2025, time.February)
	f.Post(t, feb.ID, ledgertest.Date(2025, 2, 3), accounting.TransactionTypeReceipts,
		f.Dr(t, "1000", "200"), f.Cr(t, "1100", "200"))
	next, err := f.Reports.CashFlowStatement(ctx, feb.ID)
	require.NoError(t, err)
	require.True(t, next.BeginningCash.Equal(ledgertest.Amount("4800")))
	require.True(t, next.OperatingActivities.Equal(ledgertest.Amount("200")))
	require.True(t, next.EndingCash.Equal(ledgertest.Amount("5000")))
}

func TestTrialBalanceAndRatios(t *testing.T) {
	f := ledgertest.New(t)
	jan := january(t, f)
	ctx := context.Background()

	tb, err := f.Reports.TrialBalance(ctx, nil)
	require.NoError(t, err)
	require.True(t, tb.IsBalanced)
	require.True(t, tb.TotalDebit.Equal(ledgertest.Amount("10200")))

	ratios, err := f.Reports.FinancialRatios(ctx, jan.ID)
	require.NoError(t, err)
	require.Equal(t, reports.FinancialRatios{
		CurrentRatio:      "4.53",
		DebtToEquityRatio: "0.28",
		ProfitMargin:      "30.00",
		ReturnOnAssets:    "4.41",
		ReturnOnEquity:    "5.66",
	}, ratios)
}

func TestComparativeReport(t *testing.T) {
	f := ledgertest.New(t)
	jan := january(t, f)
	feb := f.OpenMonth(t, 2025, time.February)
	f.Post(t, feb.ID, ledgertest.Date(2025, 2, 4), accounting.TransactionTypeSales,
		f.Dr(t, "1100", "450"), f.Cr(t, "4000", "450"))
	ctx := context.Background()

	cmp, err := f.Reports.ComparativeReport(ctx, []int64{jan.ID, feb.ID}, reports.KindIncomeStatement)
	require.NoError(t, err)
	require.Equal(t, 2, cmp.Periods)
	require.True(t, cmp.Reports[0].(reports.IncomeStatement).NetIncome.Equal(ledgertest.Amount("300")))
	require.True(t, cmp.Reports[1].(reports.IncomeStatement).NetIncome.Equal(ledgertest.Amount("450")))

	sheets, err := f.Reports.ComparativeReport(ctx, []int64{jan.ID, feb.ID}, reports.KindBalanceSheet)
	require.NoError(t, err)
	first := sheets.Reports[0].(reports.BalanceSheet)
	second := sheets.Reports[1].(reports.BalanceSheet)
	require.Equal(t, "January 2025", first.Period)
	require.Equal(t, "2025-02-28", second.AsOfDate)
	require.True(t, second.TotalAssets.Equal(ledgertest.Amount("7250")))

	_, err = f.Reports.ComparativeReport(ctx, []int64{jan.ID}, reports.Kind("cash-flow"))
	require.ErrorIs(t, err, accounting.ErrValidation)
	_, err = f.Reports.ComparativeReport(ctx, nil, reports.KindIncomeStatement)
	require.ErrorIs(t, err, accounting.ErrValidation)
	_, err = f.Reports.ComparativeReport(ctx, []int64{jan.ID, 404}, reports.KindIncomeStatement)
	require.ErrorIs(t, err, accounting.ErrPeriodNotFound)
}

func TestCreateAccrualEntries(t *testing.T) {
	f := ledgertest.New(t)
	jan := january(t, f)
	ctx := context.Background()

	res, err := f.Reports.CreateAccrualEntries(ctx, jan.ID, []reports.Adjustment{
		{Description: "Utilities", AccountID: f.Account(t, "5100").ID, Amount: ledgertest.Amount("150"), Kind: reports.Accrue},
		{Description: "Advance billing", AccountID: f.Account(t, "4000").ID, Amount: ledgertest.Amount("80"), Kind: reports.Defer},
	}, "controller")
	require.NoError(t, err)
	require.Len(t, res.Transactions, 2)
	require.Equal(t, "Created 2 accrual/deferral entries", res.Message)

	accrual := res.Transactions[0]
	require.Equal(t, "Accrual: Utilities", accrual.Description)
	require.Equal(t, accounting.TransactionTypeAdjustments, accrual.Type)
	require.Equal(t, jan.EndDate, accrual.Date)
	require.True(t, accrual.IsBalanced)
	require.True(t, strings.HasPrefix(accrual.Reference, "ADJ-"))
	require.Equal(t, "5100", accrual.Entries[0].AccountNumber)
	require.Equal(t, "2200", accrual.Entries[1].AccountNumber)

	deferral := res.Transactions[1]
	require.Equal(t, "Deferral: Advance billing", deferral.Description)
	require.Equal(t, "1199", deferral.Entries[0].AccountNumber)
	require.Contains(t, f.Audit.Actions(), "period.adjustments")

	is, err := f.Reports.IncomeStatement(ctx, jan.ID)
	require.NoError(t, err)
	require.True(t, is.NetIncome.Equal(ledgertest.Amount("230")))
}

func TestCreateAccrualEntriesIsAtomic(t *testing.T) {
	f := ledgertest.New(t)
	jan := january(t, f)
	ctx := context.Background()

	_, err := f.Reports.CreateAccrualEntries(ctx, jan.ID, []reports.Adjustment{
		{Description: "Utilities", AccountID: f.Account(t, "5100").ID, Amount: ledgertest.Amount("150"), Kind: reports.Accrue},
		{Description: "Wrong side", AccountID: f.Account(t, "4000").ID, Amount: ledgertest.Amount("10"), Kind: reports.Accrue},
	}, "controller")
	require.ErrorIs(t, err, accounting.ErrValidation)

	is, err := f.Reports.IncomeStatement(ctx, jan.ID)
	require.NoError(t, err)
	require.True(t, is.NetIncome.Equal(ledgertest.Amount("300")), "the first adjustment must be rolled back")

	_, err = f.Reports.CreateAccrualEntries(ctx, jan.ID, []reports.Adjustment{
		{Description: "Zero", AccountID: f.Account(t, "5100").ID, Kind: "reverse"},
	}, "controller")
	var verr *accounting.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 2)

	_, err = f.Periods.ClosePeriod(ctx, jan.ID, "controller")
	require.NoError(t, err)
	_, err = f.Reports.CreateAccrualEntries(ctx, jan.ID, []reports.Adjustment{
		{Description: "Late", AccountID: f.Account(t, "5100").ID, Amount: ledgertest.Amount("1"), Kind: reports.Accrue},
	}, "controller")
	require.ErrorIs(t, err, accounting.ErrPeriodNotOpen)
}

func TestStatementCacheForClosedPeriods(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := ledgertest.New(t)
	f.Reports.WithCache(reports.NewCache(client, time.Hour))
	jan := january(t, f)
	ctx := context.Background()

	_, err := f.Reports.IncomeStatement(ctx, jan.ID)
	require.NoError(t, err)
	require.False(t, mr.Exists("reports:income:1:1"), "open periods are never cached")

	_, err = f.Periods.ClosePeriod(ctx, jan.ID, "controller")
	require.NoError(t, err)

	first, err := f.Reports.IncomeStatement(ctx, jan.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists("reports:income:1:1"))
	second, err := f.Reports.IncomeStatement(ctx, jan.ID)
	require.NoError(t, err)
	require.True(t, first.NetIncome.Equal(second.NetIncome))
	require.Equal(t, first.Period, second.Period)

	_, err = f.Reports.CashFlowStatement(ctx, jan.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists("reports:cashflow:1:1"))

	require.NoError(t, f.Reports.InvalidateCache(ctx))
	_, err = f.Reports.IncomeStatement(ctx, jan.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists("reports:income:1:2"))
}

func TestCachedCashFlowFollowsEarlierPostings(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := ledgertest.New(t)
	f.WithCache(reports.NewCache(client, time.Hour))
	ctx := context.Background()
	feb := f.OpenMonth(t, 2025, time.February)
	jan := f.OpenMonth(t, 2025, time.January)
	f.Post(t, feb.ID, ledgertest.Date(2025, 2, 3), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "200"), f.Cr(t, "4000", "200"))
	_, err := f.Periods.ClosePeriod(ctx, feb.ID, "controller")
	require.NoError(t, err)

	before, err := f.Reports.CashFlowStatement(ctx, feb.ID)
	require.NoError(t, err)
	require.True(t, before.BeginningCash.IsZero())
	require.True(t, before.EndingCash.Equal(ledgertest.Amount("200")))

	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 20), accounting.TransactionTypeReceipts,
		f.Dr(t, "1000", "1000"), f.Cr(t, "3000", "1000"))

	after, err := f.Reports.CashFlowStatement(ctx, feb.ID)
	require.NoError(t, err)
	require.True(t, after.BeginningCash.Equal(ledgertest.Amount("1000")), "beginning cash %s", after.BeginningCash)
	require.True(t, after.EndingCash.Equal(ledgertest.Amount("1200")))
}

func TestAccrualsAndAccountUpdatesInvalidateCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := ledgertest.New(t)
	cache := reports.NewCache(client, time.Hour)
	f.WithCache(cache)
	ctx := context.Background()
	jan := january(t, f)

	version := func() int64 {
		v, err := cache.Version(ctx)
		require.NoError(t, err)
		return v
	}
	start := version()

	_, err := f.Reports.CreateAccrualEntries(ctx, jan.ID, []reports.Adjustment{{
		Kind:        reports.Accrue,
		Description: "utilities",
		AccountID:   f.Account(t, "5100").ID,
		Amount:      ledgertest.Amount("50"),
	}}, "controller")
	require.NoError(t, err)
	afterAccrual := version()
	require.Greater(t, afterAccrual, start)

	name := "Operating Cash"
	_, err = f.Accounts.UpdateAccount(ctx, f.Account(t, "1000").ID, accounts.UpdateAccountInput{Name: &name})
	require.NoError(t, err)
	require.Greater(t, version(), afterAccrual)
}

func TestExportWorkbook(t *testing.T) {
	f := ledgertest.New(t)
	jan := january(t, f)

	var buf bytes.Buffer
	require.NoError(t, f.Reports.WriteWorkbook(context.Background(), jan.ID, &buf))

	book, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer book.Close()
	require.Equal(t, []string{
		reports.SheetIncomeStatement,
		reports.SheetBalanceSheet,
		reports.SheetCashFlow,
		reports.SheetTrialBalance,
	}, book.GetSheetList())
	title, err := book.GetCellValue(reports.SheetBalanceSheet, "C1")
	require.NoError(t, err)
	require.Equal(t, "2025-01-31", title)
}
