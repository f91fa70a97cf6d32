package subledger

import (
	"context"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes subledger persistence within a transaction.
type TxRepository interface {
	InsertRecord(ctx context.Context, rec Record) (Record, error)
	// GetRecord returns accounting.ErrRecordNotFound when id is absent.
	GetRecord(ctx context.Context, id int64) (Record, error)
	ListRecords(ctx context.Context, filter ListFilter) ([]Record, int, error)
	UpdateRecord(ctx context.Context, rec Record) (Record, error)
	DeleteRecord(ctx context.Context, id int64) error
	// SubledgerTotals sums active records dated on or before asOf; nil means all.
	SubledgerTotals(ctx context.Context, asOf *time.Time) (Totals, error)
	LedgerLines(ctx context.Context, filter accounting.LineFilter) ([]accounting.LedgerLine, error)
}
