package periods

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the period operations available within a transaction.
type TxRepository interface {
	GetPeriod(ctx context.Context, id int64) (accounting.Period, error)
	// GetPeriodForUpdate locks the period row until the transaction ends.
	GetPeriodForUpdate(ctx context.Context, id int64) (accounting.Period, error)
	GetCurrentPeriod(ctx context.Context) (accounting.Period, error)
	ListPeriods(ctx context.Context, filter PeriodFilter) ([]accounting.Period, int, error)
	// FindOverlappingPeriods returns periods whose window intersects [start, end],
	// both ends inclusive, ignoring excludeID.
	FindOverlappingPeriods(ctx context.Context, start, end time.Time, excludeID int64) ([]accounting.Period, error)
	InsertPeriod(ctx context.Context, period accounting.Period) (accounting.Period, error)
	UpdatePeriod(ctx context.Context, period accounting.Period) (accounting.Period, error)
	ClearCurrentPeriod(ctx context.Context) error
	DeletePeriod(ctx context.Context, id int64) error
	CountTransactions(ctx context.Context, periodID int64) (int, error)
	CountUnbalancedTransactions(ctx context.Context, periodID int64) (int, error)
	LedgerLines(ctx context.Context, filter accounting.LineFilter) ([]accounting.LedgerLine, error)
	// SumClosedNetIncome totals NetIncome over CLOSED and LOCKED periods.
	SumClosedNetIncome(ctx context.Context) (decimal.Decimal, error)
}
