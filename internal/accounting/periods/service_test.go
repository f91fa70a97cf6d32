package periods_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/ledgertest"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	_ "github.com/odyssey-erp/odyssey-ledger/testing"
)

type closeMetrics struct {
	closed int
	failed []string
}

func (m *closeMetrics) PeriodClosed()                   { m.closed++ }
func (m *closeMetrics) PeriodCloseFailed(reason string) { m.failed = append(m.failed, reason) }

type stubLocker struct {
	keys     []string
	released int
	err      error
}

func (l *stubLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.keys = append(l.keys, key)
	return func(context.Context) error {
		l.released++
		return nil
	}, nil
}

func TestCreatePeriodValidation(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()

	_, err := f.Periods.CreatePeriod(ctx, periods.CreatePeriodInput{
		Name:      "Backwards",
		Type:      accounting.PeriodTypeMonthly,
		StartDate: ledgertest.Date(2025, 1, 31),
		EndDate:   ledgertest.Date(2025, 1, 1),
	})
	require.ErrorIs(t, err, accounting.ErrInvalidPeriodRange)

	_, err = f.Periods.CreatePeriod(ctx, periods.CreatePeriodInput{
		Name:      "",
		Type:      accounting.PeriodType("WEEKLY"),
		StartDate: ledgertest.Date(2025, 1, 1),
		EndDate:   ledgertest.Date(2025, 1, 7),
	})
	var verr *accounting.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Errors, 2)
}

func TestCreatePeriodRejectsOverlap(t *testing.T) {
	f := ledgertest.New(t)
	jan := f.OpenMonth(t, 2025, time.January)
	require.True(t, jan.IsCurrent)

	_, err := f.Periods.CreatePeriod(context.Background(), periods.CreatePeriodInput{
		Name:      "Mid January",
		Type:      accounting.PeriodTypeMonthly,
		StartDate: ledgertest.Date(2025, 1, 31),
		EndDate:   ledgertest.Date(2025, 2, 27),
	})
	require.ErrorIs(t, err, accounting.ErrPeriodOverlap)

	feb := f.OpenMonth(t, 2025, time.February)
	require.False(t, feb.IsCurrent, "a monthly period does not displace the current one")
}

func TestCreateAnnualPeriodBecomesCurrent(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	f.OpenMonth(t, 2024, time.December)

	fy, err := f.Periods.CreatePeriod(ctx, periods.CreatePeriodInput{
		Name:      "FY 2025",
		Type:      accounting.PeriodTypeAnnual,
		StartDate: ledgertest.Date(2025, 1, 1),
		EndDate:   ledgertest.Date(2025, 12, 31),
	})
	require.NoError(t, err)
	require.True(t, fy.IsCurrent)

	current, err := f.Periods.GetCurrentPeriod(ctx)
	require.NoError(t, err)
	require.Equal(t, fy.ID, current.ID)
}

func TestClosePeriodRollsForward(t *testing.T) {
	f := ledgertest.New(t)
	metrics := &closeMetrics{}
	locker := &stubLocker{}
	f.Periods.WithMetrics(metrics)
	f.Periods.WithLocker(locker)
	ctx := context.Background()
	jan := f.OpenMonth(t, 2025, time.January)

	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 5), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "1000"), f.Cr(t, "4000", "1000"))
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 8), accounting.TransactionTypePayments,
		f.Dr(t, "5100", "400"), f.Cr(t, "1000", "400"))

	res, err := f.Periods.ClosePeriod(ctx, jan.ID, "controller")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 2, res.AdjustmentsCount)
	require.True(t, res.RetainedEarningsAdjustment.Equal(ledgertest.Amount("600")))
	require.True(t, res.RetainedEarnings.Equal(ledgertest.Amount("600")))
	require.Equal(t, "Period closed successfully. Retained earnings adjusted by $600.00", res.Message)

	require.NotNil(t, res.NextPeriod)
	next := *res.NextPeriod
	require.Equal(t, "February 2025", next.Name)
	require.Equal(t, ledgertest.Date(2025, 2, 1), next.StartDate)
	require.Equal(t, ledgertest.Date(2025, 2, 28), next.EndDate)
	require.True(t, next.IsCurrent)

	closed, err := f.Periods.GetPeriod(ctx, jan.ID)
	require.NoError(t, err)
	require.Equal(t, accounting.PeriodStatusClosed, closed.Status)
	require.False(t, closed.IsCurrent)
	require.Equal(t, "controller", closed.ClosedBy)

	current, err := f.Periods.GetCurrentPeriod(ctx)
	require.NoError(t, err)
	require.Equal(t, next.ID, current.ID)

	require.Equal(t, 1, metrics.closed)
	require.Equal(t, []string{"ledger:period:1:close"}, locker.keys)
	require.Equal(t, 1, locker.released)
	require.Contains(t, f.Audit.Actions(), "period.close")

	_, err = f.Periods.ClosePeriod(ctx, jan.ID, "controller")
	require.ErrorIs(t, err, accounting.ErrPeriodNotOpen)
	require.Equal(t, []string{"state"}, metrics.failed)
}

func TestClosePeriodPromotesExistingSuccessor(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	jan := f.OpenMonth(t, 2025, time.January)
	feb := f.OpenMonth(t, 2025, time.February)
	require.False(t, feb.IsCurrent)

	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 5), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "1234567.50"), f.Cr(t, "4000", "1234567.50"))

	res, err := f.Periods.ClosePeriod(ctx, jan.ID, "controller")
	require.NoError(t, err)
	require.Equal(t, "Period closed successfully. Retained earnings adjusted by $1,234,567.50", res.Message)
	require.NotNil(t, res.NextPeriod)
	require.Equal(t, feb.ID, res.NextPeriod.ID)
	require.True(t, res.NextPeriod.IsCurrent)

	current, err := f.Periods.GetCurrentPeriod(ctx)
	require.NoError(t, err)
	require.Equal(t, feb.ID, current.ID)

	_, total, err := f.Periods.ListPeriods(ctx, periods.PeriodFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, total)
}

func TestClosePeriodRejectsPartialSuccessorOverlap(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	jan := f.OpenMonth(t, 2025, time.January)
	_, err := f.Periods.CreatePeriod(ctx, periods.CreatePeriodInput{
		Name:      "Mid February",
		Type:      accounting.PeriodTypeMonthly,
		StartDate: ledgertest.Date(2025, 2, 10),
		EndDate:   ledgertest.Date(2025, 3, 9),
	})
	require.NoError(t, err)

	_, err = f.Periods.ClosePeriod(ctx, jan.ID, "controller")
	require.ErrorIs(t, err, accounting.ErrPeriodOverlap)

	still, err := f.Periods.GetPeriod(ctx, jan.ID)
	require.NoError(t, err)
	require.Equal(t, accounting.PeriodStatusOpen, still.Status)
	require.True(t, still.IsCurrent)
}

func TestClosePeriodLossMessage(t *testing.T) {
	f := ledgertest.New(t)
	jan := f.OpenMonth(t, 2025, time.January)
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 9), accounting.TransactionTypePayments,
		f.Dr(t, "5100", "2500.25"), f.Cr(t, "1000", "2500.25"))

	res, err := f.Periods.ClosePeriod(context.Background(), jan.ID, "controller")
	require.NoError(t, err)
	require.Equal(t, "Period closed successfully. Retained earnings adjusted by $-2,500.25", res.Message)
}

func TestClosePeriodBlockedByUnbalanced(t *testing.T) {
	f := ledgertest.New(t)
	metrics := &closeMetrics{}
	f.Periods.WithMetrics(metrics)
	ctx := context.Background()
	jan := f.OpenMonth(t, 2025, time.January)

	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 5), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "100"), f.Cr(t, "4000", "100"))
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 6), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "100"), f.Cr(t, "4000", "99"))

	_, err := f.Periods.ClosePeriod(ctx, jan.ID, "controller")
	var unbalanced *accounting.UnbalancedError
	require.ErrorAs(t, err, &unbalanced)
	require.Equal(t, 1, unbalanced.Count)
	require.ErrorIs(t, err, accounting.ErrUnbalancedTransactions)
	require.Equal(t, []string{"unbalanced"}, metrics.failed)

	still, err := f.Periods.GetPeriod(ctx, jan.ID)
	require.NoError(t, err)
	require.Equal(t, accounting.PeriodStatusOpen, still.Status)
	require.True(t, still.IsCurrent)

	list, total, err := f.Periods.ListPeriods(ctx, periods.PeriodFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, total, "a failed close leaves no next period behind")
	require.Len(t, list, 1)
}

func TestClosePeriodLockFailure(t *testing.T) {
	f := ledgertest.New(t)
	metrics := &closeMetrics{}
	f.Periods.WithMetrics(metrics)
	f.Periods.WithLocker(&stubLocker{err: errors.New("lock held")})
	jan := f.OpenMonth(t, 2025, time.January)

	_, err := f.Periods.ClosePeriod(context.Background(), jan.ID, "controller")
	require.EqualError(t, err, "lock held")
	require.Equal(t, []string{"lock"}, metrics.failed)
}

func TestLockedPeriodIsImmutable(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	jan := f.OpenMonth(t, 2025, time.January)

	_, err := f.Periods.LockPeriod(ctx, jan.ID, "auditor")
	require.ErrorIs(t, err, accounting.ErrInvalidTransition)

	_, err = f.Periods.ClosePeriod(ctx, jan.ID, "controller")
	require.NoError(t, err)
	locked, err := f.Periods.LockPeriod(ctx, jan.ID, "auditor")
	require.NoError(t, err)
	require.Equal(t, accounting.PeriodStatusLocked, locked.Status)
	require.Equal(t, "auditor", locked.LockedBy)

	_, err = f.Periods.LockPeriod(ctx, jan.ID, "auditor")
	require.ErrorIs(t, err, accounting.ErrInvalidTransition)
	_, err = f.Periods.ClosePeriod(ctx, jan.ID, "controller")
	require.ErrorIs(t, err, accounting.ErrPeriodNotOpen)

	name := "Renamed"
	_, err = f.Periods.UpdatePeriod(ctx, jan.ID, periods.UpdatePeriodInput{Name: &name})
	require.ErrorIs(t, err, accounting.ErrPeriodNotOpen)
	require.ErrorIs(t, f.Periods.DeletePeriod(ctx, jan.ID, "admin"), accounting.ErrPeriodNotOpen)
}

func TestUpdateAndDeletePeriod(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	jan := f.OpenMonth(t, 2025, time.January)
	feb := f.OpenMonth(t, 2025, time.February)

	overlap := ledgertest.Date(2025, 1, 15)
	_, err := f.Periods.UpdatePeriod(ctx, feb.ID, periods.UpdatePeriodInput{StartDate: &overlap})
	require.ErrorIs(t, err, accounting.ErrPeriodOverlap)

	notes := "short month"
	updated, err := f.Periods.UpdatePeriod(ctx, feb.ID, periods.UpdatePeriodInput{Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, "short month", updated.Notes)

	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 2), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "1"), f.Cr(t, "4000", "1"))
	require.ErrorIs(t, f.Periods.DeletePeriod(ctx, jan.ID, "admin"), accounting.ErrPeriodHasTransactions)
	require.NoError(t, f.Periods.DeletePeriod(ctx, feb.ID, "admin"))
	_, err = f.Periods.GetPeriod(ctx, feb.ID)
	require.ErrorIs(t, err, accounting.ErrPeriodNotFound)
}

func TestGetPeriodSummary(t *testing.T) {
	f := ledgertest.New(t)
	ctx := context.Background()
	jan := f.OpenMonth(t, 2025, time.January)

	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 2), accounting.TransactionTypeSales,
		f.Dr(t, "1000", "300"), f.Cr(t, "3000", "300"))
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 3), accounting.TransactionTypeSales,
		f.Dr(t, "1100", "200"), f.Cr(t, "4000", "200"))
	f.Post(t, jan.ID, ledgertest.Date(2025, 1, 4), accounting.TransactionTypeSales,
		f.Dr(t, "1100", "5"), f.Cr(t, "4000", "4"))

	summary, err := f.Periods.GetPeriodSummary(ctx, jan.ID)
	require.NoError(t, err)
	require.Equal(t, 3, summary.TotalTransactions)
	require.Equal(t, 2, summary.BalancedTransactions)
	require.True(t, summary.TotalDebits.Equal(ledgertest.Amount("505")))
	require.True(t, summary.TotalCredits.Equal(ledgertest.Amount("504")))
	require.True(t, summary.AccountingEquation.TotalAssets.Equal(ledgertest.Amount("500")))
	require.True(t, summary.AccountingEquation.TotalEquity.Equal(ledgertest.Amount("500")))
	require.True(t, summary.AccountingEquation.IsBalanced)
}

func TestNextPeriodAndName(t *testing.T) {
	q := periods.NextPeriod(accounting.Period{
		Type:      accounting.PeriodTypeQuarterly,
		StartDate: ledgertest.Date(2025, 1, 1),
		EndDate:   ledgertest.Date(2025, 3, 31),
	})
	require.Equal(t, "Q2 2025", q.Name)
	require.Equal(t, ledgertest.Date(2025, 6, 30), q.EndDate)

	fy := periods.NextPeriod(accounting.Period{
		Type:      accounting.PeriodTypeAnnual,
		StartDate: ledgertest.Date(2024, 1, 1),
		EndDate:   ledgertest.Date(2024, 12, 31),
	})
	require.Equal(t, "FY 2025", fy.Name)
	require.Equal(t, ledgertest.Date(2025, 12, 31), fy.EndDate)
	require.Equal(t, accounting.PeriodStatusOpen, fy.Status)
}
