package journals

import (
	"context"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// Poster is the write subset shared with other packages that record transactions.
type Poster interface {
	AccountsByIDs(ctx context.Context, ids []int64) (map[int64]accounting.Account, error)
	InsertTransaction(ctx context.Context, txn accounting.Transaction) (accounting.Transaction, error)
	InsertJournalEntries(ctx context.Context, transactionID int64, entries []accounting.JournalEntry) ([]accounting.JournalEntry, error)
}

// TxRepository exposes the journal operations available within a transaction.
type TxRepository interface {
	Poster
	GetAccount(ctx context.Context, id int64) (accounting.Account, error)
	GetPeriodForUpdate(ctx context.Context, id int64) (accounting.Period, error)
	GetCurrentPeriod(ctx context.Context) (accounting.Period, error)
	// GetTransaction returns the header with entries, debits first.
	GetTransaction(ctx context.Context, id int64) (accounting.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]accounting.Transaction, int, error)
	UpdateTransaction(ctx context.Context, txn accounting.Transaction) (accounting.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	ListUnbalancedTransactions(ctx context.Context) ([]accounting.Transaction, error)
	TransactionSummary(ctx context.Context, start, end *time.Time) ([]TypeSummary, error)
	SetTransactionBalanced(ctx context.Context, id int64, balanced bool) error
	LedgerLines(ctx context.Context, filter accounting.LineFilter) ([]accounting.LedgerLine, error)
	TransactionsInOpenPeriods(ctx context.Context) ([]accounting.Transaction, error)
}
