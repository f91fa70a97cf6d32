package journals

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// EntryInput describes one debit or credit line of a new transaction.
type EntryInput struct {
	AccountID   int64               `json:"accountId"`
	Debit       decimal.NullDecimal `json:"debit"`
	Credit      decimal.NullDecimal `json:"credit"`
	Description string              `json:"description,omitempty"`
}

// CreateTransactionInput groups the fields required to record a transaction.
// A zero PeriodID posts into the current period.
type CreateTransactionInput struct {
	Type        accounting.TransactionType
	Description string
	Amount      decimal.Decimal
	Date        time.Time
	PeriodID    int64
	Reference   string
	AssetID     *int64
	LiabilityID *int64
	EquityID    *int64
	RevenueID   *int64
	ExpenseID   *int64
	Entries     []EntryInput
	ActorID     string
}

// UpdateTransactionInput lists the header fields editable while a transaction is
// unbalanced. Nil means unchanged.
type UpdateTransactionInput struct {
	Description *string
	Reference   *string
	Amount      *decimal.Decimal
	Date        *time.Time
	ActorID     string
}

// TransactionFilter narrows ListTransactions.
type TransactionFilter struct {
	Page       int
	Limit      int
	Type       accounting.TransactionType
	PeriodID   int64
	StartDate  *time.Time
	EndDate    *time.Time
	IsBalanced *bool
}

// ValidationResult reports structural validity and balance of a set of entries.
type ValidationResult struct {
	IsValid      bool            `json:"isValid"`
	IsBalanced   bool            `json:"isBalanced"`
	TotalDebits  decimal.Decimal `json:"totalDebits"`
	TotalCredits decimal.Decimal `json:"totalCredits"`
	Errors       []string        `json:"errors"`
	Warnings     []string        `json:"warnings"`
}

// CreateResult is the persisted transaction plus non-blocking warnings.
type CreateResult struct {
	Transaction accounting.Transaction `json:"transaction"`
	Warnings    []string               `json:"warnings"`
}

// TypeSummary aggregates transactions of one type.
type TypeSummary struct {
	Type        accounting.TransactionType `json:"type"`
	Count       int                        `json:"count"`
	TotalAmount decimal.Decimal            `json:"totalAmount"`
}

// AccountBalance is the net balance of one account over a window.
type AccountBalance struct {
	AccountID     int64                  `json:"accountId"`
	AccountNumber string                 `json:"accountNumber"`
	AccountName   string                 `json:"accountName"`
	AccountType   accounting.AccountType `json:"accountType"`
	TotalDebits   decimal.Decimal        `json:"totalDebits"`
	TotalCredits  decimal.Decimal        `json:"totalCredits"`
	Balance       decimal.Decimal        `json:"balance"`
	StartDate     *time.Time             `json:"startDate,omitempty"`
	EndDate       *time.Time             `json:"endDate,omitempty"`
}
