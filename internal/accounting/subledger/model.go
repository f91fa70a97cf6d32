package subledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/validation"
)

// Kind enumerates subledger record categories.
type Kind string

const (
	KindAsset     Kind = "ASSET"
	KindLiability Kind = "LIABILITY"
	KindEquity    Kind = "EQUITY"
	KindRevenue   Kind = "REVENUE"
	KindExpense   Kind = "EXPENSE"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindAsset, KindLiability, KindEquity, KindRevenue, KindExpense:
		return true
	}
	return false
}

// SoftDelete reports whether deleting a record of k only deactivates it.
func (k Kind) SoftDelete() bool {
	return k == KindAsset || k == KindLiability
}

// Record is a business-level asset, liability, equity, revenue or expense entry
// kept beside the journal.
type Record struct {
	ID                int64               `json:"id"`
	Kind              Kind                `json:"kind"`
	Name              string              `json:"name"`
	Amount            decimal.Decimal     `json:"amount"`
	Date              time.Time           `json:"date"`
	IsActive          bool                `json:"isActive"`
	SharesOutstanding *int64              `json:"sharesOutstanding,omitempty"`
	ParValue          decimal.NullDecimal `json:"parValue"`
	Description       string              `json:"description,omitempty"`
	CreatedAt         time.Time           `json:"createdAt"`
	UpdatedAt         time.Time           `json:"updatedAt"`
}

// CreateInput carries the fields of a new record.
type CreateInput struct {
	Kind              Kind
	Name              string
	Amount            decimal.Decimal
	Date              time.Time
	SharesOutstanding *int64
	ParValue          decimal.NullDecimal
	Description       string
	ActorID           string
}

// UpdateInput lists mutable fields. Nil means unchanged.
type UpdateInput struct {
	Name              *string
	Amount            *decimal.Decimal
	Date              *time.Time
	IsActive          *bool
	SharesOutstanding *int64
	ParValue          *decimal.NullDecimal
	Description       *string
	ActorID           string
}

// ListFilter narrows List.
type ListFilter struct {
	Kind       Kind
	ActiveOnly bool
	Page       int
	Limit      int
}

// Totals sums active records per kind.
type Totals struct {
	Assets      decimal.Decimal `json:"assets"`
	Liabilities decimal.Decimal `json:"liabilities"`
	Equity      decimal.Decimal `json:"equity"`
	Revenues    decimal.Decimal `json:"revenues"`
	Expenses    decimal.Decimal `json:"expenses"`
}

// RetainedEarnings is revenues minus expenses.
func (t Totals) RetainedEarnings() decimal.Decimal {
	return t.Revenues.Sub(t.Expenses)
}

// TotalEquity is recorded equity plus retained earnings.
func (t Totals) TotalEquity() decimal.Decimal {
	return t.Equity.Add(t.RetainedEarnings())
}

// ReconciliationLine compares one side of the equation across both books.
type ReconciliationLine struct {
	Kind            Kind            `json:"kind"`
	Subledger       decimal.Decimal `json:"subledger"`
	Ledger          decimal.Decimal `json:"ledger"`
	Difference      decimal.Decimal `json:"difference"`
	WithinTolerance bool            `json:"withinTolerance"`
}

// Reconciliation reports how far the subledger and the journal disagree.
type Reconciliation struct {
	AsOfDate          string               `json:"asOfDate"`
	Lines             []ReconciliationLine `json:"lines"`
	SubledgerEquation validation.Result    `json:"subledgerEquation"`
	LedgerEquation    validation.Result    `json:"ledgerEquation"`
	Reconciled        bool                 `json:"reconciled"`
}
