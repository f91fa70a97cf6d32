package reports

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// AccountBalance models a general ledger account with aggregated activity.
type AccountBalance struct {
	AccountID        int64
	Code             string
	Name             string
	Type             accounting.AccountType
	BalanceClass     accounting.BalanceClass
	CashFlowActivity accounting.CashFlowActivity
	Debit            decimal.Decimal
	Credit           decimal.Decimal
}

// Closing returns the debit-positive net of the account.
func (a AccountBalance) Closing() decimal.Decimal {
	return a.Debit.Sub(a.Credit)
}

// Balance returns the net on the account's normal side.
func (a AccountBalance) Balance() decimal.Decimal {
	return accounting.SignedAmount(a.Type, a.Debit, a.Credit)
}

// GroupKey returns a key used for grouping trial balance rows.
func (a AccountBalance) GroupKey() string {
	if idx := strings.Index(a.Code, "."); idx > 0 {
		return a.Code[:idx]
	}
	if len(a.Code) >= 2 {
		return a.Code[:2]
	}
	return a.Code
}

// Aggregate folds ledger lines into one balance per account ordered by code.
func Aggregate(lines []accounting.LedgerLine) []AccountBalance {
	byID := make(map[int64]*AccountBalance)
	for _, line := range lines {
		acc, ok := byID[line.AccountID]
		if !ok {
			acc = &AccountBalance{
				AccountID:        line.AccountID,
				Code:             line.AccountNumber,
				Name:             line.AccountName,
				Type:             line.AccountType,
				BalanceClass:     line.BalanceClass,
				CashFlowActivity: line.CashFlowActivity,
				Debit:            decimal.Zero,
				Credit:           decimal.Zero,
			}
			byID[line.AccountID] = acc
		}
		acc.Debit = acc.Debit.Add(line.Debit)
		acc.Credit = acc.Credit.Add(line.Credit)
	}
	out := make([]AccountBalance, 0, len(byID))
	for _, acc := range byID {
		out = append(out, *acc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// TrialBalanceAccount represents a row inside a trial balance group.
type TrialBalanceAccount struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Debit   decimal.Decimal `json:"debit"`
	Credit  decimal.Decimal `json:"credit"`
	Closing decimal.Decimal `json:"closing"`
}

// TrialBalanceGroup aggregates accounts sharing a two digit prefix.
type TrialBalanceGroup struct {
	Key      string                `json:"key"`
	Accounts []TrialBalanceAccount `json:"accounts"`
	Debit    decimal.Decimal       `json:"debit"`
	Credit   decimal.Decimal       `json:"credit"`
	Closing  decimal.Decimal       `json:"closing"`
}

// TrialBalance lists debit and credit totals per account as of a date.
type TrialBalance struct {
	Groups       []TrialBalanceGroup `json:"groups"`
	TotalDebit   decimal.Decimal     `json:"totalDebit"`
	TotalCredit  decimal.Decimal     `json:"totalCredit"`
	TotalClosing decimal.Decimal     `json:"totalClosing"`
	IsBalanced   bool                `json:"isBalanced"`
	AsOfDate     string              `json:"asOfDate"`
}

// BuildTrialBalance groups balanced activity dated on or before asOf by account
// prefix.
func BuildTrialBalance(lines []accounting.LedgerLine, asOf time.Time) TrialBalance {
	groups := make(map[string]*TrialBalanceGroup)
	keys := make([]string, 0)
	for _, acc := range Aggregate(throughDate(lines, asOf)) {
		key := acc.GroupKey()
		grp, ok := groups[key]
		if !ok {
			grp = &TrialBalanceGroup{Key: key, Debit: decimal.Zero, Credit: decimal.Zero, Closing: decimal.Zero}
			groups[key] = grp
			keys = append(keys, key)
		}
		row := TrialBalanceAccount{
			Code:    acc.Code,
			Name:    acc.Name,
			Type:    string(acc.Type),
			Debit:   acc.Debit,
			Credit:  acc.Credit,
			Closing: acc.Closing(),
		}
		grp.Accounts = append(grp.Accounts, row)
		grp.Debit = grp.Debit.Add(row.Debit)
		grp.Credit = grp.Credit.Add(row.Credit)
		grp.Closing = grp.Closing.Add(row.Closing)
	}

	sort.Strings(keys)
	result := TrialBalance{
		TotalDebit:   decimal.Zero,
		TotalCredit:  decimal.Zero,
		TotalClosing: decimal.Zero,
		AsOfDate:     asOf.Format(time.DateOnly),
	}
	for _, key := range keys {
		grp := groups[key]
		result.Groups = append(result.Groups, *grp)
		result.TotalDebit = result.TotalDebit.Add(grp.Debit)
		result.TotalCredit = result.TotalCredit.Add(grp.Credit)
		result.TotalClosing = result.TotalClosing.Add(grp.Closing)
	}
	result.IsBalanced = accounting.WithinTolerance(result.TotalDebit, result.TotalCredit)
	return result
}

// throughDate keeps balanced lines dated on or before asOf.
func throughDate(lines []accounting.LedgerLine, asOf time.Time) []accounting.LedgerLine {
	day := accounting.DateOnly(asOf)
	out := make([]accounting.LedgerLine, 0, len(lines))
	for _, line := range lines {
		if !line.IsBalanced || accounting.DateOnly(line.Date).After(day) {
			continue
		}
		out = append(out, line)
	}
	return out
}
