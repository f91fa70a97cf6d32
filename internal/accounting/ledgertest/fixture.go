// Package ledgertest wires the ledger services over an in-memory store for tests.
package ledgertest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/memstore"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/subledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// Now is the fixed clock used by every fixture service.
var Now = time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC)

// Audit collects audit records in memory.
type Audit struct {
	Logs []shared.AuditLog
}

// Record appends log.
func (a *Audit) Record(ctx context.Context, log shared.AuditLog) error {
	a.Logs = append(a.Logs, log)
	return nil
}

// Actions lists the recorded actions in order.
func (a *Audit) Actions() []string {
	out := make([]string, 0, len(a.Logs))
	for _, l := range a.Logs {
		out = append(out, l.Action)
	}
	return out
}

// Fixture bundles the services of one in-memory ledger.
type Fixture struct {
	Store     *memstore.Store
	Audit     *Audit
	Registry  *mappings.Registry
	Accounts  *accounts.Service
	Journals  *journals.Service
	Periods   *periods.Service
	Reports   *reports.Service
	Subledger *subledger.Service
}

// New returns a fixture with the default chart seeded.
func New(t testing.TB) *Fixture {
	t.Helper()
	store := memstore.New()
	audit := &Audit{}
	registry, err := mappings.NewRegistry(nil)
	require.NoError(t, err)
	clock := func() time.Time { return Now }

	f := &Fixture{
		Store:     store,
		Audit:     audit,
		Registry:  registry,
		Accounts:  accounts.NewService(store.Accounts(), audit, nil),
		Journals:  journals.NewService(store.Journals(), audit, nil),
		Periods:   periods.NewService(store.Periods(), audit, nil),
		Reports:   reports.NewService(store.Reports(), registry, audit, nil),
		Subledger: subledger.NewService(store.Subledger(), audit, nil),
	}
	f.Accounts.WithNow(clock)
	f.Journals.WithNow(clock)
	f.Periods.WithNow(clock)
	f.Reports.WithNow(clock)
	f.Subledger.WithNow(clock)

	_, err = f.Accounts.SeedDefaultChart(context.Background())
	require.NoError(t, err)
	return f
}

// WithCache caches closed-period statements in c and has every mutating
// service invalidate it.
func (f *Fixture) WithCache(c *reports.Cache) {
	f.Reports.WithCache(c)
	f.Accounts.WithStatementCache(c)
	f.Journals.WithStatementCache(c)
	f.Periods.WithStatementCache(c)
}

// Account returns the account numbered number.
func (f *Fixture) Account(t testing.TB, number string) accounting.Account {
	t.Helper()
	acc, err := f.Accounts.GetAccountByNumber(context.Background(), number)
	require.NoError(t, err)
	return acc
}

// OpenMonth creates the MONTHLY period covering month of year.
func (f *Fixture) OpenMonth(t testing.TB, year int, month time.Month) accounting.Period {
	t.Helper()
	start := Date(year, month, 1)
	period, err := f.Periods.CreatePeriod(context.Background(), periods.CreatePeriodInput{
		Name:      periods.PeriodName(start, accounting.PeriodTypeMonthly),
		Type:      accounting.PeriodTypeMonthly,
		StartDate: start,
		EndDate:   start.AddDate(0, 1, -1),
	})
	require.NoError(t, err)
	return period
}

// Post records a transaction in periodID dated date.
func (f *Fixture) Post(t testing.TB, periodID int64, date time.Time, typ accounting.TransactionType, entries ...journals.EntryInput) accounting.Transaction {
	t.Helper()
	res, err := f.Journals.CreateTransaction(context.Background(), journals.CreateTransactionInput{
		Type:        typ,
		Description: string(typ),
		Date:        date,
		PeriodID:    periodID,
		Entries:     entries,
	})
	require.NoError(t, err)
	return res.Transaction
}

// Dr is a debit of amount to the account numbered number.
func (f *Fixture) Dr(t testing.TB, number, amount string) journals.EntryInput {
	t.Helper()
	return journals.Debit(f.Account(t, number).ID, Amount(amount), "")
}

// Cr is a credit of amount to the account numbered number.
func (f *Fixture) Cr(t testing.TB, number, amount string) journals.EntryInput {
	t.Helper()
	return journals.Credit(f.Account(t, number).ID, Amount(amount), "")
}

// Amount parses a decimal literal.
func Amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Date returns midnight UTC of the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
