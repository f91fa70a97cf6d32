package validation

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAmountRules(t *testing.T) {
	res := AssetValue(d("-1"))
	require.False(t, res.IsValid)
	require.Equal(t, []string{"Asset values must be positive"}, res.Errors)

	res = AssetValue(decimal.Zero)
	require.True(t, res.IsValid)
	require.Len(t, res.Warnings, 1)

	res = LiabilityAmount(decimal.Zero)
	require.True(t, res.IsValid)
	require.Empty(t, res.Warnings)

	require.False(t, RevenueAmount(d("-0.01")).IsValid)
	require.Len(t, RevenueAmount(decimal.Zero).Warnings, 1)
	require.False(t, ExpenseAmount(d("-5")).IsValid)
	require.True(t, ExpenseAmount(d("5")).IsValid)
}

func TestDateNotFuture(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.True(t, DateNotFuture(now, now).IsValid)
	require.False(t, DateNotFuture(now.Add(time.Second), now).IsValid)
}

func TestAccountingEquationTolerance(t *testing.T) {
	require.True(t, AccountingEquation(d("100.00"), d("40.00"), d("60.01")).IsValid)
	res := AccountingEquation(d("100.00"), d("40.00"), d("60.02"))
	require.False(t, res.IsValid)
	require.Contains(t, res.Errors[0], "Assets (100.00)")
}

func TestSharesAndPar(t *testing.T) {
	neg, zero := int64(-1), int64(0)
	require.False(t, SharesOutstanding(&neg).IsValid)
	require.Len(t, SharesOutstanding(&zero).Warnings, 1)
	require.True(t, SharesOutstanding(nil).IsValid)

	require.True(t, ParValue(decimal.NullDecimal{}).IsValid)
	require.False(t, ParValue(decimal.NewNullDecimal(d("-2"))).IsValid)
}

func TestBatchPrefixesMessages(t *testing.T) {
	res := Batch(Entry{
		Assets:      []decimal.Decimal{d("10"), d("-1")},
		Liabilities: []decimal.Decimal{d("-3")},
		Expenses:    []decimal.Decimal{decimal.Zero},
	})
	require.False(t, res.IsValid)
	require.Equal(t, []string{
		"Asset 2: Asset values must be positive",
		"Liability 1: Liability amounts must be positive",
	}, res.Errors)
	require.Equal(t, []string{"Expense 1: Expense amount is zero"}, res.Warnings)
}

func TestResultErr(t *testing.T) {
	require.NoError(t, AssetValue(d("1")).Err("asset"))
	err := AssetValue(d("-1")).Err("asset")
	require.Error(t, err)
	require.Contains(t, err.Error(), "Asset values must be positive")
}
