package accounting

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates CoA categories.
type AccountType string

const (
	AccountTypeAsset     AccountType = "ASSET"
	AccountTypeLiability AccountType = "LIABILITY"
	AccountTypeEquity    AccountType = "EQUITY"
	AccountTypeRevenue   AccountType = "REVENUE"
	AccountTypeExpense   AccountType = "EXPENSE"
)

// AccountTypes lists every account type in chart order.
var AccountTypes = []AccountType{
	AccountTypeAsset,
	AccountTypeLiability,
	AccountTypeEquity,
	AccountTypeRevenue,
	AccountTypeExpense,
}

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	_, ok := accountRanges[t]
	return ok
}

// AccountStatus enumerates account lifecycle values.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "ACTIVE"
	AccountStatusInactive AccountStatus = "INACTIVE"
	AccountStatusArchived AccountStatus = "ARCHIVED"
)

// Valid reports whether s is a known account status.
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountStatusActive, AccountStatusInactive, AccountStatusArchived:
		return true
	}
	return false
}

// BalanceClass optionally pins an account to a balance sheet section.
type BalanceClass string

const (
	BalanceClassUnset      BalanceClass = ""
	BalanceClassCurrent    BalanceClass = "CURRENT"
	BalanceClassNonCurrent BalanceClass = "NON_CURRENT"
)

// CashFlowActivity optionally pins an account to a cash flow bucket.
type CashFlowActivity string

const (
	CashFlowUnset     CashFlowActivity = ""
	CashFlowOperating CashFlowActivity = "OPERATING"
	CashFlowInvesting CashFlowActivity = "INVESTING"
	CashFlowFinancing CashFlowActivity = "FINANCING"
)

// PeriodType enumerates period cadences.
type PeriodType string

const (
	PeriodTypeMonthly   PeriodType = "MONTHLY"
	PeriodTypeQuarterly PeriodType = "QUARTERLY"
	PeriodTypeAnnual    PeriodType = "ANNUAL"
)

// Valid reports whether t is a known period type.
func (t PeriodType) Valid() bool {
	switch t {
	case PeriodTypeMonthly, PeriodTypeQuarterly, PeriodTypeAnnual:
		return true
	}
	return false
}

// PeriodStatus enumerates valid period states.
type PeriodStatus string

const (
	PeriodStatusOpen   PeriodStatus = "OPEN"
	PeriodStatusClosed PeriodStatus = "CLOSED"
	PeriodStatusLocked PeriodStatus = "LOCKED"
)

// TransactionType enumerates business transaction categories.
type TransactionType string

const (
	TransactionTypeSales        TransactionType = "SALES"
	TransactionTypePurchases    TransactionType = "PURCHASES"
	TransactionTypePayments     TransactionType = "PAYMENTS"
	TransactionTypeReceipts     TransactionType = "RECEIPTS"
	TransactionTypeAdjustments  TransactionType = "ADJUSTMENTS"
	TransactionTypeDepreciation TransactionType = "DEPRECIATION"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeSales, TransactionTypePurchases, TransactionTypePayments,
		TransactionTypeReceipts, TransactionTypeAdjustments, TransactionTypeDepreciation:
		return true
	}
	return false
}

// Account models a chart of accounts node.
type Account struct {
	ID               int64            `json:"id"`
	AccountNumber    string           `json:"accountNumber"`
	Name             string           `json:"name"`
	Type             AccountType      `json:"type"`
	Status           AccountStatus    `json:"status"`
	ParentID         *int64           `json:"parentId,omitempty"`
	Description      string           `json:"description,omitempty"`
	IsSystem         bool             `json:"isSystem"`
	BalanceClass     BalanceClass     `json:"balanceClass,omitempty"`
	CashFlowActivity CashFlowActivity `json:"cashFlowActivity,omitempty"`
	Parent           *Account         `json:"parent,omitempty"`
	Children         []Account        `json:"children,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Period represents a fiscal period window.
type Period struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	Type      PeriodType          `json:"type"`
	Status    PeriodStatus        `json:"status"`
	StartDate time.Time           `json:"startDate"`
	EndDate   time.Time           `json:"endDate"`
	IsCurrent bool                `json:"isCurrent"`
	ClosedBy  string              `json:"closedBy,omitempty"`
	ClosedAt  *time.Time          `json:"closedAt,omitempty"`
	LockedBy  string              `json:"lockedBy,omitempty"`
	LockedAt  *time.Time          `json:"lockedAt,omitempty"`
	NetIncome decimal.NullDecimal `json:"netIncome"`
	Notes     string              `json:"notes,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// Contains reports whether d falls inside the period window, both ends inclusive.
func (p Period) Contains(d time.Time) bool {
	day := DateOnly(d)
	return !day.Before(DateOnly(p.StartDate)) && !day.After(DateOnly(p.EndDate))
}

// Transaction groups balanced journal entries under one business event.
type Transaction struct {
	ID          int64           `json:"id"`
	Type        TransactionType `json:"type"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	PeriodID    int64           `json:"periodId"`
	IsBalanced  bool            `json:"isBalanced"`
	Reference   string          `json:"reference,omitempty"`
	AssetID     *int64          `json:"assetId,omitempty"`
	LiabilityID *int64          `json:"liabilityId,omitempty"`
	EquityID    *int64          `json:"equityId,omitempty"`
	RevenueID   *int64          `json:"revenueId,omitempty"`
	ExpenseID   *int64          `json:"expenseId,omitempty"`
	Entries     []JournalEntry  `json:"journalEntries"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// JournalEntry stores a debit or credit amount for an account.
type JournalEntry struct {
	ID            int64               `json:"id"`
	TransactionID int64               `json:"transactionId"`
	AccountID     int64               `json:"accountId"`
	Debit         decimal.NullDecimal `json:"debit"`
	Credit        decimal.NullDecimal `json:"credit"`
	Description   string              `json:"description,omitempty"`
	AccountNumber string              `json:"accountNumber,omitempty"`
	AccountName   string              `json:"accountName,omitempty"`
	AccountType   AccountType         `json:"accountType,omitempty"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// LedgerLine is the flattened read model used by balances and reports.
type LedgerLine struct {
	TransactionID    int64
	PeriodID         int64
	Date             time.Time
	IsBalanced       bool
	AccountID        int64
	AccountNumber    string
	AccountName      string
	AccountType      AccountType
	BalanceClass     BalanceClass
	CashFlowActivity CashFlowActivity
	Debit            decimal.Decimal
	Credit           decimal.Decimal
}

// LineFilter narrows a ledger line query. Zero values disable a criterion;
// Start and End are inclusive calendar days.
type LineFilter struct {
	AccountID    int64
	PeriodID     int64
	Start        *time.Time
	End          *time.Time
	BalancedOnly bool
}

// Page carries the pagination window requested by callers.
type Page struct {
	Page  int
	Limit int
}

// Normalize applies defaults (page 1, limit 10) and caps the limit at 100.
func (p Page) Normalize() Page {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.Limit <= 0 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	return p
}

// Offset returns the row offset for the page.
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.Limit
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
