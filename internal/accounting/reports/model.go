package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// PeriodInfo labels the window a statement covers.
type PeriodInfo struct {
	ID        int64  `json:"id,omitempty"`
	Name      string `json:"name"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// StatementLine is one account row on a statement.
type StatementLine struct {
	AccountID     int64           `json:"accountId,omitempty"`
	AccountNumber string          `json:"accountNumber,omitempty"`
	Account       string          `json:"account"`
	Amount        decimal.Decimal `json:"amount"`
}

// IncomeStatement reports revenue, expense and net income.
type IncomeStatement struct {
	Revenues      []StatementLine `json:"revenues"`
	Expenses      []StatementLine `json:"expenses"`
	TotalRevenues decimal.Decimal `json:"totalRevenues"`
	TotalExpenses decimal.Decimal `json:"totalExpenses"`
	NetIncome     decimal.Decimal `json:"netIncome"`
	Period        PeriodInfo      `json:"period"`
}

// AssetSection splits assets into current and fixed.
type AssetSection struct {
	Current []StatementLine `json:"current"`
	Fixed   []StatementLine `json:"fixed"`
}

// LiabilitySection splits liabilities into current and long term.
type LiabilitySection struct {
	Current  []StatementLine `json:"current"`
	LongTerm []StatementLine `json:"longTerm"`
}

// BalanceSheet reports the accounting equation as of a date.
type BalanceSheet struct {
	Assets                    AssetSection     `json:"assets"`
	Liabilities               LiabilitySection `json:"liabilities"`
	Equity                    []StatementLine  `json:"equity"`
	TotalAssets               decimal.Decimal  `json:"totalAssets"`
	TotalLiabilities          decimal.Decimal  `json:"totalLiabilities"`
	TotalEquity               decimal.Decimal  `json:"totalEquity"`
	TotalLiabilitiesAndEquity decimal.Decimal  `json:"totalLiabilitiesAndEquity"`
	CurrentAssets             decimal.Decimal  `json:"currentAssets"`
	CurrentLiabilities        decimal.Decimal  `json:"currentLiabilities"`
	IsBalanced                bool             `json:"isBalanced"`
	AsOfDate                  string           `json:"asOfDate"`
	Period                    string           `json:"period,omitempty"`
}

// CashFlowItem attributes part of the cash movement to a counter account.
type CashFlowItem struct {
	Activity      accounting.CashFlowActivity `json:"activity"`
	AccountNumber string                      `json:"accountNumber"`
	Account       string                      `json:"account"`
	Amount        decimal.Decimal             `json:"amount"`
}

// CashFlowStatement reports cash movement of a period by activity.
type CashFlowStatement struct {
	OperatingActivities decimal.Decimal `json:"operatingActivities"`
	InvestingActivities decimal.Decimal `json:"investingActivities"`
	FinancingActivities decimal.Decimal `json:"financingActivities"`
	NetCashFlow         decimal.Decimal `json:"netCashFlow"`
	BeginningCash       decimal.Decimal `json:"beginningCash"`
	EndingCash          decimal.Decimal `json:"endingCash"`
	Items               []CashFlowItem  `json:"items"`
	Period              PeriodInfo      `json:"period"`
}

// FinancialRatios are formatted with two decimals; a zero divisor yields "0.00".
type FinancialRatios struct {
	CurrentRatio      string `json:"currentRatio"`
	DebtToEquityRatio string `json:"debtToEquityRatio"`
	ProfitMargin      string `json:"profitMargin"`
	ReturnOnAssets    string `json:"returnOnAssets"`
	ReturnOnEquity    string `json:"returnOnEquity"`
}

// Kind selects the statement of a comparative report.
type Kind string

const (
	KindIncomeStatement Kind = "income-statement"
	KindBalanceSheet    Kind = "balance-sheet"
)

// ComparativeReport lines up one statement per requested period.
type ComparativeReport struct {
	ReportType Kind  `json:"reportType"`
	Periods    int   `json:"periods"`
	Reports    []any `json:"reports"`
}

// AdjustmentKind selects the posting pattern of a period-end adjustment.
type AdjustmentKind string

const (
	// Accrue debits the given expense account and credits accrued liabilities.
	Accrue AdjustmentKind = "accrue"
	// Defer debits deferred assets and credits the given revenue account.
	Defer AdjustmentKind = "defer"
)

// Adjustment is one period-end accrual or deferral request.
type Adjustment struct {
	Description string          `json:"description"`
	AccountID   int64           `json:"accountId"`
	Amount      decimal.Decimal `json:"amount"`
	Kind        AdjustmentKind  `json:"type"`
}

// AccrualResult lists the adjusting transactions created in one call.
type AccrualResult struct {
	Transactions []accounting.Transaction `json:"transactions"`
	Message      string                   `json:"message"`
}

// periodInfo labels p, or the whole ledger through lastDate when p is nil.
func periodInfo(p *accounting.Period, lastDate time.Time) PeriodInfo {
	if p == nil {
		end := "N/A"
		if !lastDate.IsZero() {
			end = lastDate.Format(time.DateOnly)
		}
		return PeriodInfo{Name: "All Periods", StartDate: "N/A", EndDate: end}
	}
	return PeriodInfo{
		ID:        p.ID,
		Name:      p.Name,
		StartDate: p.StartDate.Format(time.DateOnly),
		EndDate:   p.EndDate.Format(time.DateOnly),
	}
}
