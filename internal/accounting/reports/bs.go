package reports

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/validation"
)

// RetainedEarningsLabel names the derived equity line on the balance sheet.
const RetainedEarningsLabel = "Retained Earnings (derived)"

// BuildBalanceSheet replays balanced activity dated on or before asOf into
// assets, liabilities and equity. Cumulative revenue minus expense appears as a
// derived retained earnings line so the equation holds for balanced ledgers.
func BuildBalanceSheet(lines []accounting.LedgerLine, asOf time.Time) BalanceSheet {
	scoped := throughDate(lines, asOf)
	out := BalanceSheet{
		Assets:             AssetSection{Current: []StatementLine{}, Fixed: []StatementLine{}},
		Liabilities:        LiabilitySection{Current: []StatementLine{}, LongTerm: []StatementLine{}},
		Equity:             []StatementLine{},
		TotalAssets:        decimal.Zero,
		TotalLiabilities:   decimal.Zero,
		TotalEquity:        decimal.Zero,
		CurrentAssets:      decimal.Zero,
		CurrentLiabilities: decimal.Zero,
		AsOfDate:           asOf.Format(time.DateOnly),
	}

	for _, acc := range Aggregate(scoped) {
		balance := acc.Balance()
		if balance.IsZero() {
			continue
		}
		row := StatementLine{AccountID: acc.AccountID, AccountNumber: acc.Code, Account: acc.Name, Amount: balance}
		switch acc.Type {
		case accounting.AccountTypeAsset:
			if isCurrent(acc, "1") {
				out.Assets.Current = append(out.Assets.Current, row)
				out.CurrentAssets = out.CurrentAssets.Add(balance)
			} else {
				out.Assets.Fixed = append(out.Assets.Fixed, row)
			}
			out.TotalAssets = out.TotalAssets.Add(balance)
		case accounting.AccountTypeLiability:
			if isCurrent(acc, "2") {
				out.Liabilities.Current = append(out.Liabilities.Current, row)
				out.CurrentLiabilities = out.CurrentLiabilities.Add(balance)
			} else {
				out.Liabilities.LongTerm = append(out.Liabilities.LongTerm, row)
			}
			out.TotalLiabilities = out.TotalLiabilities.Add(balance)
		case accounting.AccountTypeEquity:
			out.Equity = append(out.Equity, row)
			out.TotalEquity = out.TotalEquity.Add(balance)
		}
	}

	if retained := accounting.NetIncome(scoped); !retained.IsZero() {
		out.Equity = append(out.Equity, StatementLine{Account: RetainedEarningsLabel, Amount: retained})
		out.TotalEquity = out.TotalEquity.Add(retained)
	}
	out.TotalLiabilitiesAndEquity = out.TotalLiabilities.Add(out.TotalEquity)
	out.IsBalanced = validation.AccountingEquation(out.TotalAssets, out.TotalLiabilities, out.TotalEquity).IsValid
	return out
}

// isCurrent honours an explicit balance class, falling back to the number prefix.
func isCurrent(acc AccountBalance, prefix string) bool {
	switch acc.BalanceClass {
	case accounting.BalanceClassCurrent:
		return true
	case accounting.BalanceClassNonCurrent:
		return false
	}
	return strings.HasPrefix(acc.Code, prefix)
}
