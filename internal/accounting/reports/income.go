package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// BuildIncomeStatement aggregates balanced revenue and expense activity per
// account. A nil period covers the whole ledger. Accounts netting to zero or
// against their normal side are left out.
func BuildIncomeStatement(lines []accounting.LedgerLine, period *accounting.Period) IncomeStatement {
	scoped := make([]accounting.LedgerLine, 0, len(lines))
	var last time.Time
	for _, line := range lines {
		if !line.IsBalanced {
			continue
		}
		if period != nil && line.PeriodID != period.ID {
			continue
		}
		if line.Date.After(last) {
			last = line.Date
		}
		scoped = append(scoped, line)
	}

	out := IncomeStatement{
		Revenues:      []StatementLine{},
		Expenses:      []StatementLine{},
		TotalRevenues: decimal.Zero,
		TotalExpenses: decimal.Zero,
		Period:        periodInfo(period, last),
	}
	for _, acc := range Aggregate(scoped) {
		amount := acc.Balance()
		if !amount.IsPositive() {
			continue
		}
		row := StatementLine{AccountID: acc.AccountID, AccountNumber: acc.Code, Account: acc.Name, Amount: amount}
		switch acc.Type {
		case accounting.AccountTypeRevenue:
			out.Revenues = append(out.Revenues, row)
			out.TotalRevenues = out.TotalRevenues.Add(amount)
		case accounting.AccountTypeExpense:
			out.Expenses = append(out.Expenses, row)
			out.TotalExpenses = out.TotalExpenses.Add(amount)
		}
	}
	out.NetIncome = out.TotalRevenues.Sub(out.TotalExpenses)
	return out
}
