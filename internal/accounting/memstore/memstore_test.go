package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func day(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

func TestWithTxRollsBackOnError(t *testing.T) {
	store := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		_, err := tx.InsertAccount(ctx, accounting.Account{AccountNumber: "1000", Type: accounting.AccountTypeAsset})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		_, err := tx.GetAccountByNumber(ctx, "1000")
		return err
	})
	require.ErrorIs(t, err, accounting.ErrAccountNotFound)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(t, store.WithTx(cancelled, func(context.Context, *Tx) error { return nil }), context.Canceled)
}

func TestLedgerLinesOrderingAndFilters(t *testing.T) {
	store := New()
	ctx := context.Background()

	require.NoError(t, store.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		cash, err := tx.InsertAccount(ctx, accounting.Account{AccountNumber: "1000", Type: accounting.AccountTypeAsset})
		if err != nil {
			return err
		}
		sales, err := tx.InsertAccount(ctx, accounting.Account{AccountNumber: "4000", Type: accounting.AccountTypeRevenue})
		if err != nil {
			return err
		}
		period, err := tx.InsertPeriod(ctx, accounting.Period{
			Status: accounting.PeriodStatusOpen, StartDate: day(1), EndDate: day(31),
		})
		if err != nil {
			return err
		}
		for i, d := range []int{20, 5, 12} {
			txn, err := tx.InsertTransaction(ctx, accounting.Transaction{
				Date: day(d), PeriodID: period.ID, IsBalanced: i != 2,
			})
			if err != nil {
				return err
			}
			amount := decimal.NewNullDecimal(decimal.NewFromInt(int64(d)))
			if _, err := tx.InsertJournalEntries(ctx, txn.ID, []accounting.JournalEntry{
				{AccountID: cash.ID, Debit: amount},
				{AccountID: sales.ID, Credit: amount},
			}); err != nil {
				return err
			}
		}
		return nil
	}))

	require.NoError(t, store.WithTx(ctx, func(ctx context.Context, tx *Tx) error {
		lines, err := tx.LedgerLines(ctx, accounting.LineFilter{})
		require.NoError(t, err)
		require.Len(t, lines, 6)
		require.Equal(t, day(5), lines[0].Date)
		require.Equal(t, day(20), lines[5].Date)
		require.Equal(t, "4000", lines[1].AccountNumber)

		end := day(15)
		scoped, err := tx.LedgerLines(ctx, accounting.LineFilter{End: &end, BalancedOnly: true})
		require.NoError(t, err)
		require.Len(t, scoped, 2)

		unbalanced, err := tx.CountUnbalancedTransactions(ctx, 1)
		require.NoError(t, err)
		require.Equal(t, 1, unbalanced)

		open, err := tx.TransactionsInOpenPeriods(ctx)
		require.NoError(t, err)
		require.Len(t, open, 3)
		require.Len(t, open[0].Entries, 2)
		return nil
	}))
}
