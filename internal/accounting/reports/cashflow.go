package reports

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

var (
	investingPrefixes = []string{"13"}
	financingPrefixes = []string{"21", "30", "31"}
)

// Classify assigns a counter account to a cash flow activity. An explicit
// activity wins; otherwise investing and financing prefixes are matched and
// everything else is operating.
func Classify(number string, explicit accounting.CashFlowActivity) accounting.CashFlowActivity {
	if explicit != accounting.CashFlowUnset {
		return explicit
	}
	if hasAnyPrefix(number, investingPrefixes) {
		return accounting.CashFlowInvesting
	}
	if hasAnyPrefix(number, financingPrefixes) {
		return accounting.CashFlowFinancing
	}
	return accounting.CashFlowOperating
}

// BuildCashFlowStatement reports the cash movement of period. lines must hold
// every entry dated up to the period end. Each balanced transaction that touches
// the cash account spreads its cash delta over its non-cash lines: a counter line
// contributes its credit minus debit, which sums to the cash delta for a balanced
// transaction. Beginning cash replays cash lines dated before the period start.
func BuildCashFlowStatement(lines []accounting.LedgerLine, period accounting.Period, cashNumber string) CashFlowStatement {
	out := CashFlowStatement{
		OperatingActivities: decimal.Zero,
		InvestingActivities: decimal.Zero,
		FinancingActivities: decimal.Zero,
		BeginningCash:       decimal.Zero,
		Items:               []CashFlowItem{},
		Period:              periodInfo(&period, period.EndDate),
	}
	start := accounting.DateOnly(period.StartDate)

	byTxn := make(map[int64][]accounting.LedgerLine)
	order := make([]int64, 0)
	for _, line := range lines {
		if !line.IsBalanced {
			continue
		}
		if accounting.DateOnly(line.Date).Before(start) {
			if line.AccountNumber == cashNumber {
				out.BeginningCash = out.BeginningCash.Add(line.Debit.Sub(line.Credit))
			}
			continue
		}
		if line.PeriodID != period.ID {
			continue
		}
		if _, ok := byTxn[line.TransactionID]; !ok {
			order = append(order, line.TransactionID)
		}
		byTxn[line.TransactionID] = append(byTxn[line.TransactionID], line)
	}

	type itemKey struct {
		activity accounting.CashFlowActivity
		number   string
	}
	items := make(map[itemKey]*CashFlowItem)
	for _, id := range order {
		txnLines := byTxn[id]
		if !touches(txnLines, cashNumber) {
			continue
		}
		for _, line := range txnLines {
			if line.AccountNumber == cashNumber {
				continue
			}
			amount := line.Credit.Sub(line.Debit)
			activity := Classify(line.AccountNumber, line.CashFlowActivity)
			switch activity {
			case accounting.CashFlowInvesting:
				out.InvestingActivities = out.InvestingActivities.Add(amount)
			case accounting.CashFlowFinancing:
				out.FinancingActivities = out.FinancingActivities.Add(amount)
			default:
				out.OperatingActivities = out.OperatingActivities.Add(amount)
			}
			key := itemKey{activity: activity, number: line.AccountNumber}
			item, ok := items[key]
			if !ok {
				item = &CashFlowItem{Activity: activity, AccountNumber: line.AccountNumber, Account: line.AccountName, Amount: decimal.Zero}
				items[key] = item
			}
			item.Amount = item.Amount.Add(amount)
		}
	}
	for _, item := range items {
		out.Items = append(out.Items, *item)
	}
	sort.Slice(out.Items, func(i, j int) bool {
		if out.Items[i].Activity != out.Items[j].Activity {
			return out.Items[i].Activity > out.Items[j].Activity
		}
		return out.Items[i].AccountNumber < out.Items[j].AccountNumber
	})

	out.NetCashFlow = out.OperatingActivities.Add(out.InvestingActivities).Add(out.FinancingActivities)
	out.EndingCash = out.BeginningCash.Add(out.NetCashFlow)
	return out
}

func touches(lines []accounting.LedgerLine, number string) bool {
	for _, line := range lines {
		if line.AccountNumber == number {
			return true
		}
	}
	return false
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
