package periods

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// CreatePeriodInput carries the fields required to open a period.
type CreatePeriodInput struct {
	Name      string
	Type      accounting.PeriodType
	StartDate time.Time
	EndDate   time.Time
	Notes     string
	ActorID   string
}

// UpdatePeriodInput lists the fields editable while a period is OPEN. Nil means unchanged.
type UpdatePeriodInput struct {
	Name      *string
	StartDate *time.Time
	EndDate   *time.Time
	Notes     *string
	ActorID   string
}

// PeriodFilter narrows ListPeriods.
type PeriodFilter struct {
	Page   int
	Limit  int
	Status accounting.PeriodStatus
}

// ClosingResult describes a completed period close.
type ClosingResult struct {
	PeriodID                   int64              `json:"periodId"`
	ClosedAt                   time.Time          `json:"closedAt"`
	ClosedBy                   string             `json:"closedBy"`
	AdjustmentsCount           int                `json:"adjustmentsCount"`
	RetainedEarningsAdjustment decimal.Decimal    `json:"retainedEarningsAdjustment"`
	RetainedEarnings           decimal.Decimal    `json:"retainedEarnings"`
	NextPeriod                 *accounting.Period `json:"nextPeriod,omitempty"`
	Success                    bool               `json:"success"`
	Message                    string             `json:"message"`
}

// Equation holds ledger-derived accounting equation totals.
type Equation struct {
	TotalAssets      decimal.Decimal `json:"totalAssets"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	TotalEquity      decimal.Decimal `json:"totalEquity"`
	IsBalanced       bool            `json:"isBalanced"`
}

// Summary aggregates activity inside one period.
type Summary struct {
	Period               accounting.Period `json:"period"`
	TotalTransactions    int               `json:"totalTransactions"`
	BalancedTransactions int               `json:"balancedTransactions"`
	TotalDebits          decimal.Decimal   `json:"totalDebits"`
	TotalCredits         decimal.Decimal   `json:"totalCredits"`
	NetIncome            decimal.Decimal   `json:"netIncome"`
	AccountingEquation   Equation          `json:"accountingEquation"`
}
