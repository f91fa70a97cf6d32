// Package store persists the ledger in Postgres through pgx. Every repository
// port of the accounting packages is served by the same Tx type.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/reports"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/subledger"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/db"
)

const uniqueViolation = "23505"

// Store wraps the pool shared by all ledger repositories.
type Store struct {
	pool *pgxpool.Pool
}

// New constructs a Store using the provided pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// WithTx executes fn inside a repeatable-read transaction. Failures that do not
// already carry a domain kind surface as accounting.ErrIntegrity.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, *Tx) error) error {
	if s == nil || s.pool == nil {
		return accounting.Integrity(errors.New("store: not initialised"))
	}
	return accounting.Integrity(db.WithTx(ctx, s.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &Tx{tx: tx})
	}))
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

// Tx runs ledger queries inside one database transaction.
type Tx struct {
	tx pgx.Tx
}

var (
	_ accounts.TxRepository  = (*Tx)(nil)
	_ journals.TxRepository  = (*Tx)(nil)
	_ periods.TxRepository   = (*Tx)(nil)
	_ reports.TxRepository   = (*Tx)(nil)
	_ subledger.TxRepository = (*Tx)(nil)
)

// notFound maps pgx.ErrNoRows onto the domain sentinel.
func notFound(err error, sentinel error, key any) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %v", sentinel, key)
	}
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func requireAffected(tag pgconn.CommandTag, sentinel error, key any) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %v", sentinel, key)
	}
	return nil
}

// where accumulates AND-ed predicates with positional arguments.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, fmt.Sprintf(clause, len(w.args)))
}

func (w *where) raw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	out := " WHERE " + w.clauses[0]
	for _, c := range w.clauses[1:] {
		out += " AND " + c
	}
	return out
}

// page appends LIMIT/OFFSET placeholders for p and returns the clause.
func (w *where) page(p accounting.Page) string {
	p = p.Normalize()
	w.args = append(w.args, p.Limit, p.Offset())
	return fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(w.args)-1, len(w.args))
}
