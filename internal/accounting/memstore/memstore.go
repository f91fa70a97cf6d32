// Package memstore is an in-memory implementation of every ledger repository
// port. Each WithTx call runs under one mutex and restores a snapshot when the
// callback fails, so services observe the same all-or-nothing behaviour as the
// Postgres store.
package memstore

import (
	"context"
	"sync"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/subledger"
)

type state struct {
	accounts map[int64]accounting.Account
	periods  map[int64]accounting.Period
	txns     map[int64]accounting.Transaction
	entries  map[int64][]accounting.JournalEntry
	records  map[int64]subledger.Record
	seq      map[string]int64
}

func newState() state {
	return state{
		accounts: make(map[int64]accounting.Account),
		periods:  make(map[int64]accounting.Period),
		txns:     make(map[int64]accounting.Transaction),
		entries:  make(map[int64][]accounting.JournalEntry),
		records:  make(map[int64]subledger.Record),
		seq:      make(map[string]int64),
	}
}

func (s state) clone() state {
	out := newState()
	for k, v := range s.accounts {
		out.accounts[k] = v
	}
	for k, v := range s.periods {
		out.periods[k] = v
	}
	for k, v := range s.txns {
		out.txns[k] = v
	}
	for k, v := range s.entries {
		out.entries[k] = append([]accounting.JournalEntry(nil), v...)
	}
	for k, v := range s.records {
		out.records[k] = v
	}
	for k, v := range s.seq {
		out.seq[k] = v
	}
	return out
}

func (s *state) next(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Store holds ledger state in memory.
type Store struct {
	mu   sync.Mutex
	data state
}

// New returns an empty store.
func New() *Store {
	return &Store{data: newState()}
}

// WithTx runs fn against the store, discarding its changes when it fails.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.data.clone()
	if err := fn(ctx, &Tx{st: &s.data}); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// Accounts adapts the store to the chart of accounts port.
func (s *Store) Accounts() accounts.RepositoryPort { return accountsPort{s} }

// Journals adapts the store to the journal port.
func (s *Store) Journals() journals.RepositoryPort { return journalsPort{s} }

// Periods adapts the store to the period port.
func (s *Store) Periods() periods.RepositoryPort { return periodsPort{s} }

// Reports adapts the store to the reporting port.
func (s *Store) Reports() reports.RepositoryPort { return reportsPort{s} }

// Subledger adapts the store to the subledger port.
func (s *Store) Subledger() subledger.RepositoryPort { return subledgerPort{s} }

type accountsPort struct{ s *Store }

func (p accountsPort) WithTx(ctx context.Context, fn func(context.Context, accounts.TxRepository) error) error {
	return p.s.WithTx(ctx, func(ctx context.Context, tx *Tx) error { return fn(ctx, tx) })
}

type journalsPort struct{ s *Store }

func (p journalsPort) WithTx(ctx context.Context, fn func(context.Context, journals.TxRepository) error) error {
	return p.s.WithTx(ctx, func(ctx context.Context, tx *Tx) error { return fn(ctx, tx) })
}

type periodsPort struct{ s *Store }

func (p periodsPort) WithTx(ctx context.Context, fn func(context.Context, periods.TxRepository) error) error {
	return p.s.WithTx(ctx, func(ctx context.Context, tx *Tx) error { return fn(ctx, tx) })
}

type reportsPort struct{ s *Store }

func (p reportsPort) WithTx(ctx context.Context, fn func(context.Context, reports.TxRepository) error) error {
	return p.s.WithTx(ctx, func(ctx context.Context, tx *Tx) error { return fn(ctx, tx) })
}

type subledgerPort struct{ s *Store }

func (p subledgerPort) WithTx(ctx context.Context, fn func(context.Context, subledger.TxRepository) error) error {
	return p.s.WithTx(ctx, func(ctx context.Context, tx *Tx) error { return fn(ctx, tx) })
}

// Tx operates on the store while WithTx holds its lock.
type Tx struct {
	st *state
}

var (
	_ accounts.TxRepository  = (*Tx)(nil)
	_ journals.TxRepository  = (*Tx)(nil)
	_ periods.TxRepository   = (*Tx)(nil)
	_ reports.TxRepository   = (*Tx)(nil)
	_ subledger.TxRepository = (*Tx)(nil)
)
