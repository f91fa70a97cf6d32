package accounts

import "github.com/odyssey-erp/odyssey-ledger/internal/accounting"

// CreateAccountInput carries the fields required to open an account.
type CreateAccountInput struct {
	AccountNumber    string
	Name             string
	Type             accounting.AccountType
	ParentID         *int64
	Description      string
	IsSystem         bool
	BalanceClass     accounting.BalanceClass
	CashFlowActivity accounting.CashFlowActivity
	ActorID          string
}

// UpdateAccountInput lists the mutable account fields. Nil means unchanged.
type UpdateAccountInput struct {
	Name             *string
	Description      *string
	Status           *accounting.AccountStatus
	ParentID         *int64
	BalanceClass     *accounting.BalanceClass
	CashFlowActivity *accounting.CashFlowActivity
	ActorID          string
}

// ListAccountsFilter narrows the paginated account listing.
type ListAccountsFilter struct {
	Page       int
	Limit      int
	Type       accounting.AccountType
	Status     accounting.AccountStatus
	ParentOnly bool
}

// SearchLimit caps SearchAccounts results.
const SearchLimit = 20
