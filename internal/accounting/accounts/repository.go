package accounts

import (
	"context"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// RepositoryPort abstracts transactional repository behaviour.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
}

// AccountReader resolves accounts by id or number. Missing rows surface as
// accounting.ErrAccountNotFound.
type AccountReader interface {
	GetAccount(ctx context.Context, id int64) (accounting.Account, error)
	GetAccountByNumber(ctx context.Context, number string) (accounting.Account, error)
}

// AccountStore is the subset EnsureAccount needs from a transaction.
type AccountStore interface {
	AccountReader
	InsertAccount(ctx context.Context, account accounting.Account) (accounting.Account, error)
}

// TxRepository exposes the chart of accounts operations available within a transaction.
type TxRepository interface {
	AccountStore
	ListAccounts(ctx context.Context, filter ListAccountsFilter) ([]accounting.Account, int, error)
	// AllAccounts returns every account of typ ordered by number; "" means all types.
	AllAccounts(ctx context.Context, typ accounting.AccountType) ([]accounting.Account, error)
	ListChildren(ctx context.Context, parentID int64) ([]accounting.Account, error)
	UpdateAccount(ctx context.Context, account accounting.Account) (accounting.Account, error)
	DeleteAccount(ctx context.Context, id int64) error
	CountAccountEntries(ctx context.Context, accountID int64) (int, error)
	SearchAccounts(ctx context.Context, query string, typ accounting.AccountType, limit int) ([]accounting.Account, error)
}
