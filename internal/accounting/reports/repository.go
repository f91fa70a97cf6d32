package reports

import (
	"context"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// TxRepository exposes the reads statements need plus the writes used by
// period-end adjustments.
type TxRepository interface {
	accounts.AccountStore
	journals.Poster
	GetPeriod(ctx context.Context, id int64) (accounting.Period, error)
	GetPeriodForUpdate(ctx context.Context, id int64) (accounting.Period, error)
	GetCurrentPeriod(ctx context.Context) (accounting.Period, error)
	LedgerLines(ctx context.Context, filter accounting.LineFilter) ([]accounting.LedgerLine, error)
}
