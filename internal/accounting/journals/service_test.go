package journals_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgertest"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

type countingMetrics struct {
	balanced, unbalanced int
}

func (m *countingMetrics) TransactionCreated(balanced bool) {
	if balanced {
		m.balanced++
		return
	}
	m.unbalanced++
}

func TestCreateTransactionBalanced(t *testing.T) {
	f := ledgertest.New(t)
	metrics := &countingMetrics{}
	f.Journals.WithMetrics(metrics)
	period := f.OpenMonth(t, 2025, 1)

	res, err := f.Journals.CreateTransaction(context.Background(), journals.CreateTransactionInput{
		Type:        accounting.TransactionTypeSales,
		Description: "Cash sale",
		Date:        ledgertest.Date(2025, 1, 10),
		Entries: []journals.EntryInput{
			f.Cr(t, "4000", "100"),
			f.Dr(t, "1000", "100"),
		},
	})
	require.NoError(t, err)
	txn := res.Transaction
	require.True(t, txn.IsBalanced)
	require.Equal(t, period.ID, txn.PeriodID)
	require.True(t, txn.Amount.Equal(ledgertest.Amount("100")))
	require.Len(t, txn.Entries, 2)
	require.True(t, txn.Entries[0].Debit.Valid, "debits are listed first")
	require.Empty(t, res.Warnings)
	require.Equal(t, 1, metrics.balanced)
}

func TestCreateTransactionStoresUnbalanced(t *testing.T) {
	f := ledgertest.New(t)
	metrics := &countingMetrics{}
	f.Journals.WithMetrics(metrics)
	period := f.OpenMonth(t, 2025, 1)
	ctx := context.Background()

	res, err := f.Journals.CreateTransaction(ctx, journals.CreateTransactionInput{
		Type:     accounting.TransactionTypePurchases,
		Date:     ledgertest.Date(2025, 1, 12),
		PeriodID: period.ID,
		Entries: []journals.EntryInput{
			f.Dr(t, "5100", "100"),
			f.Cr(t, "2000", "90"),
		},
	})
	require.NoError(t, err)
	require.False(t, res.Transaction.IsBalanced)
	require.Contains(t, res.Warnings, "Transaction does not balance. Debits: 100.00, Credits: 90.00")
	require.Equal(t, 1, metrics.unbalanced)

	unbalanced, err := f.Journals.GetUnbalancedTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, unbalanced, 1)

	balanced, err := f.Journals.BalanceTransaction(ctx, res.Transaction.ID, "reviewer")
	require.NoError(t, err)
	require.True(t, balanced.IsBalanced)
}

func TestCreateTransactionRejectsMalformedEntries(t *testing.T) {
	f := ledgertest.New(t)
	period := f.OpenMonth(t, 2025, 1)
	ctx := context.Background()
	cash := f.Account(t, "1000")

	_, err := f.Journals.CreateTransaction(ctx, journals.CreateTransactionInput{
		Type:     accounting.TransactionTypeSales,
		Date:     ledgertest.Date(2025, 1, 10),
		PeriodID: period.ID,
		Entries: []journals.EntryInput{
			{AccountID: cash.ID, Debit: decimal.NewNullDecimal(ledgertest.Amount("10")), Credit: decimal.NewNullDecimal(ledgertest.Amount("10"))},
			{AccountID: 9999, Credit: decimal.NewNullDecimal(ledgertest.Amount("10"))},
		},
	})
	var verr *accounting.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Errors, "Entry 1: Entry cannot have both debit and credit amounts")
	require.Contains(t, verr.Errors, "Entry 2: Account 9999 not found")

	_, err = f.Journals.CreateTransaction(ctx, journals.CreateTransactionInput{
		Type:     accounting.TransactionType("GIFTS"),
		Date:     ledgertest.Date(2025, 1, 10),
		PeriodID: period.ID,
	})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Errors, "Transaction must have at least 1 journal entry")

	list, total, err := f.Journals.ListTransactions(ctx, journals.TransactionFilter{})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, list)
}

func TestCreateTransactionPeriodRules(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()

	_, err := f.Journals.CreateTransaction(ctx, journals.CreateTransactionInput{
		Type:    accounting.TransactionTypeSales,
		Date:    ledgertest.Date(2025, 1, 10),
		Entries: []journals.EntryInput{f.Dr(t, "1000", "5"), f.Cr(t, "4000", "5")},
	})
	require.ErrorIs(t, err, accounting.ErrPeriodNotFound)

	period := f.OpenMonth(t, 2025, 1)
	_, err = f.Journals.CreateTransaction(ctx, journals.CreateTransactionInput{
		Type:     accounting.TransactionTypeSales,
		Date:     ledgertest.Date(2025, 2, 1),
		PeriodID: period.ID,
		Entries:  []journals.EntryInput{f.Dr(t, "1000", "5"), f.Cr(t, "4000", "5")},
	})
	require.ErrorIs(t, err, accounting.ErrDateOutOfRange)

	_, err = f.Periods.ClosePeriod(ctx, period.ID, "controller")
	require.NoError(t, err)
	_, err = f.Journals.CreateTransaction(ctx, journals.CreateTransactionInput{
		Type:     accounting.TransactionTypeSales,
		Date:     ledgertest.Date(2025, 1, 20),
		PeriodID: period.ID,
		Entries:  []journals.EntryInput{f.Dr(t, "1000", "5"), f.Cr(t, "4000", "5")},
	})
	require.ErrorIs(t, err, accounting.ErrPeriodNotOpen)
}

func TestUpdateAndDeleteOnlyUnbalanced(t *testing.T) {
	f := ledgertest.New(t)
	period := f.OpenMonth(t, 2025, 1)
	ctx := context.Background()

	balanced := f.Post(t, period.ID, ledgertest.Date(2025, 1, 5), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "10"), f.Cr(t, "4000", "10"))
	desc := "edited"
	_, err := f.Journals.UpdateTransaction(ctx, balanced.ID, journals.UpdateTransactionInput{Description: &desc})
	require.ErrorIs(t, err, accounting.ErrTransactionBalanced)
	require.ErrorIs(t, f.Journals.DeleteTransaction(ctx, balanced.ID, "alice"), accounting.ErrTransactionBalanced)

	open := f.Post(t, period.ID, ledgertest.Date(2025, 1, 6), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "10"), f.Cr(t, "4000", "8"))
	updated, err := f.Journals.UpdateTransaction(ctx, open.ID, journals.UpdateTransactionInput{Description: &desc})
	require.NoError(t, err)
	require.Equal(t, "edited", updated.Description)

	outside := ledgertest.Date(2025, 3, 1)
	_, err = f.Journals.UpdateTransaction(ctx, open.ID, journals.UpdateTransactionInput{Date: &outside})
	require.ErrorIs(t, err, accounting.ErrDateOutOfRange)

	require.NoError(t, f.Journals.DeleteTransaction(ctx, open.ID, "alice"))
	_, err = f.Journals.GetTransaction(ctx, open.ID)
	require.ErrorIs(t, err, accounting.ErrTransactionNotFound)
}

func TestAccountBalanceAndSummary(t *testing.T) {
	f := ledgertest.New(t)
	period := f.OpenMonth(t, 2025, 1)
	ctx := context.Background()

	f.Post(t, period.ID, ledgertest.Date(2025, 1, 3), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "500"), f.Cr(t, "4000", "500"))
	f.Post(t, period.ID, ledgertest.Date(2025, 1, 4), accounting.TransactionTypeSales,
		f.Dr(t, "1100", "250"), f.Cr(t, "4000", "250"))
	f.Post(t, period.ID, ledgertest.Date(2025, 1, 9), accounting.TransactionTypePayments,
		f.Dr(t, "5100", "120"), f.Cr(t, "1000", "120"))
	f.Post(t, period.ID, ledgertest.Date(2025, 1, 9), accounting.TransactionTypePayments,
		f.Dr(t, "5100", "999"), f.Cr(t, "1000", "1"))

	cash, err := f.Journals.GetAccountBalance(ctx, f.Account(t, "1000").ID, nil, nil)
	require.NoError(t, err)
	require.True(t, cash.TotalDebits.Equal(ledgertest.Amount("500")))
	require.True(t, cash.TotalCredits.Equal(ledgertest.Amount("120")), "unbalanced entries are excluded")
	require.True(t, cash.Balance.Equal(ledgertest.Amount("380")))

	revenue, err := f.Journals.GetAccountBalance(ctx, f.Account(t, "4000").ID, nil, nil)
	require.NoError(t, err)
	require.True(t, revenue.Balance.Equal(ledgertest.Amount("750")), "revenue balances are credit positive")

	summary, err := f.Journals.GetTransactionSummary(ctx, nil, nil)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	require.Equal(t, accounting.TransactionTypePayments, summary[0].Type)
	require.Equal(t, 2, summary[0].Count)

	check, err := f.Journals.ValidateEntries(ctx, []journals.EntryInput{
		f.Dr(t, "1000", "10"), f.Dr(t, "1000", "5"), f.Cr(t, "4000", "15"),
	})
	require.NoError(t, err)
	require.True(t, check.IsValid)
	require.True(t, check.IsBalanced)
	require.Contains(t, check.Warnings, "Duplicate account 1000 in transaction")
}
