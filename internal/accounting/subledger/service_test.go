package subledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgertest"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/subledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/validation"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

func create(t *testing.T, f *ledgertest.Fixture, kind subledger.Kind, name, amount string) subledger.Record {
	t.Helper()
	rec, _, err := f.Subledger.Create(context.Background(), subledger.CreateInput{
		Kind:   kind,
		Name:   name,
		Amount: ledgertest.Amount(amount),
		Date:   ledgertest.Date(2025, 1, 10),
	})
	require.NoError(t, err)
	return rec
}

func TestCreateValidatesByKind(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()

	_, _, err := f.Subledger.Create(ctx, subledger.CreateInput{
		Kind:   subledger.KindAsset,
		Name:   "Truck",
		Amount: ledgertest.Amount("-1"),
		Date:   ledgertest.Date(2025, 4, 1),
	})
	var verr *accounting.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Errors, "Asset values must be positive")
	require.Contains(t, verr.Errors, "Date cannot be in the future")

	shares := int64(100)
	_, _, err = f.Subledger.Create(ctx, subledger.CreateInput{
		Kind:              subledger.KindRevenue,
		Name:              "Consulting",
		Amount:            ledgertest.Amount("10"),
		Date:              ledgertest.Date(2025, 1, 1),
		SharesOutstanding: &shares,
	})
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Errors, "Shares and par value apply to equity only")

	_, _, err = f.Subledger.Create(ctx, subledger.CreateInput{Kind: "GOODWILL", Name: "x"})
	require.ErrorIs(t, err, accounting.ErrValidation)

	rec, warnings, err := f.Subledger.Create(ctx, subledger.CreateInput{
		Kind:              subledger.KindEquity,
		Name:              "Common Stock",
		Amount:            ledgertest.Amount("5000"),
		Date:              ledgertest.Date(2025, 1, 1),
		SharesOutstanding: &shares,
		ParValue:          decimal.NewNullDecimal(ledgertest.Amount("1")),
	})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.True(t, rec.IsActive)
	require.Equal(t, int64(100), *rec.SharesOutstanding)

	zero, warnings, err := f.Subledger.Create(ctx, subledger.CreateInput{
		Kind:   subledger.KindAsset,
		Name:   "Scrap",
		Amount: decimal.Zero,
		Date:   ledgertest.Date(2025, 1, 1),
	})
	require.NoError(t, err)
	require.NotZero(t, zero.ID)
	require.Contains(t, warnings, "Asset value is zero - consider if this is correct")
}

func TestDeleteIsSoftForAssetsAndLiabilities(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	truck := create(t, f, subledger.KindAsset, "Truck", "800")
	fee := create(t, f, subledger.KindRevenue, "Fee", "50")

	require.NoError(t, f.Subledger.Delete(ctx, truck.ID, "alice"))
	kept, err := f.Subledger.Get(ctx, truck.ID)
	require.NoError(t, err)
	require.False(t, kept.IsActive)

	require.NoError(t, f.Subledger.Delete(ctx, fee.ID, "alice"))
	_, err = f.Subledger.Get(ctx, fee.ID)
	require.ErrorIs(t, err, accounting.ErrRecordNotFound)

	totals, err := f.Subledger.Totals(ctx)
	require.NoError(t, err)
	require.True(t, totals.Assets.IsZero(), "inactive records are excluded")

	active, total, err := f.Subledger.List(ctx, subledger.ListFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Zero(t, total)
	require.Empty(t, active)
}

func TestUpdateRerunsRules(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	loan := create(t, f, subledger.KindLiability, "Bank loan", "1500")

	negative := ledgertest.Amount("-5")
	_, _, err := f.Subledger.Update(ctx, loan.ID, subledger.UpdateInput{Amount: &negative})
	require.ErrorIs(t, err, accounting.ErrValidation)

	amount := ledgertest.Amount("1200")
	updated, _, err := f.Subledger.Update(ctx, loan.ID, subledger.UpdateInput{Amount: &amount})
	require.NoError(t, err)
	require.True(t, updated.Amount.Equal(amount))
	require.Equal(t, ledgertest.Now, updated.UpdatedAt)
}

func TestReconcileAgainstLedger(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	jan := f.OpenMonth(t, 2025, time.January)
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 2), accounting.TransactionTypeReceipts,
		f.Dr(t, "1000", "5000"), f.Cr(t, "3000", "5000"))
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 6), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "1000"), f.Cr(t, "4000", "1000"))
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 9), accounting.TransactionTypePayments,
		f.Dr(t, "5100", "700"), f.Cr(t, "1000", "700"))

	create(t, f, subledger.KindAsset, "Operating account", "5300")
	create(t, f, subledger.KindEquity, "Owner contribution", "5000")
	create(t, f, subledger.KindRevenue, "Sales", "1000")
	create(t, f, subledger.KindExpense, "Rent", "700")

	asOf := ledgertest.Date(2025, 1, 31)
	rec, err := f.Subledger.Reconcile(ctx, &asOf)
	require.NoError(t, err)
	require.True(t, rec.Reconciled)
	require.True(t, rec.SubledgerEquation.IsValid)
	require.True(t, rec.LedgerEquation.IsValid)
	require.Len(t, rec.Lines, 3)

	create(t, f, subledger.KindAsset, "Unbooked laptop", "100")
	rec, err = f.Subledger.Reconcile(ctx, &asOf)
	require.NoError(t, err)
	require.False(t, rec.Reconciled)
	require.Equal(t, subledger.KindAsset, rec.Lines[0].Kind)
	require.True(t, rec.Lines[0].Difference.Equal(ledgertest.Amount("100")))
	require.False(t, rec.SubledgerEquation.IsValid)
}

func TestValidateBatch(t *testing.T) {
	f := ledgertest.New(t)
	res := f.Subledger.ValidateBatch(validation.Entry{
		Assets:   []decimal.Decimal{ledgertest.Amount("10"), ledgertest.Amount("-1")},
		Expenses: []decimal.Decimal{decimal.Zero},
	})
	require.False(t, res.IsValid)
	require.Equal(t, []string{"Asset 2: Asset values must be positive"}, res.Errors)
	require.Equal(t, []string{"Expense 1: Expense amount is zero"}, res.Warnings)
}
