package accounting

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Tolerance absorbs rounding when comparing debit and credit totals.
var Tolerance = decimal.New(1, -2)

// AccountRange is the inclusive numbering window reserved for an account type.
type AccountRange struct {
	Min int
	Max int
}

// Contains reports whether n falls inside the range.
func (r AccountRange) Contains(n int) bool {
	return n >= r.Min && n <= r.Max
}

var accountRanges = map[AccountType]AccountRange{
	AccountTypeAsset:     {Min: 1000, Max: 1999},
	AccountTypeLiability: {Min: 2000, Max: 2999},
	AccountTypeEquity:    {Min: 3000, Max: 3999},
	AccountTypeRevenue:   {Min: 4000, Max: 4999},
	AccountTypeExpense:   {Min: 5000, Max: 5999},
}

// RangeFor returns the numbering range for t.
func RangeFor(t AccountType) (AccountRange, bool) {
	r, ok := accountRanges[t]
	return r, ok
}

// AccountNumberDigits is the fixed width of an account number.
const AccountNumberDigits = 4

// ParseAccountNumber returns the numeric value of number, which must be exactly
// four ASCII digits. Signs, spaces and extra leading zeros are rejected.
func ParseAccountNumber(number string) (int, bool) {
	if len(number) != AccountNumberDigits {
		return 0, false
	}
	for i := 0; i < len(number); i++ {
		if number[i] < '0' || number[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(number)
	return n, err == nil
}

// TypeForNumber infers the account type owning a numeric account number.
func TypeForNumber(number string) (AccountType, bool) {
	n, ok := ParseAccountNumber(number)
	if !ok {
		return "", false
	}
	for _, t := range AccountTypes {
		if accountRanges[t].Contains(n) {
			return t, true
		}
	}
	return "", false
}

type normalBalance struct {
	increasesOnDebit bool
}

var normalBalances = map[AccountType]normalBalance{
	AccountTypeAsset:     {increasesOnDebit: true},
	AccountTypeExpense:   {increasesOnDebit: true},
	AccountTypeLiability: {increasesOnDebit: false},
	AccountTypeEquity:    {increasesOnDebit: false},
	AccountTypeRevenue:   {increasesOnDebit: false},
}

// IncreasesOnDebit reports the normal balance side of t.
func (t AccountType) IncreasesOnDebit() bool {
	return normalBalances[t].increasesOnDebit
}

// SignedAmount nets a debit/credit pair on the normal side of t.
func SignedAmount(t AccountType, debit, credit decimal.Decimal) decimal.Decimal {
	if t.IncreasesOnDebit() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// Signed nets the line on its account's normal side.
func (l LedgerLine) Signed() decimal.Decimal {
	return SignedAmount(l.AccountType, l.Debit, l.Credit)
}

// NetIncome is revenue (credit − debit) minus expense (debit − credit) over lines.
func NetIncome(lines []LedgerLine) decimal.Decimal {
	revenue := decimal.Zero
	expense := decimal.Zero
	for _, line := range lines {
		switch line.AccountType {
		case AccountTypeRevenue:
			revenue = revenue.Add(line.Signed())
		case AccountTypeExpense:
			expense = expense.Add(line.Signed())
		}
	}
	return revenue.Sub(expense)
}

// WithinTolerance reports whether a and b differ by no more than Tolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// AmountOf returns the populated value of a nullable amount or zero.
func AmountOf(v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		return decimal.Zero
	}
	return v.Decimal
}

// EquationTotals sums both sides of the accounting equation over lines. Equity
// includes cumulative revenue minus expense so the sides agree for any balanced
// set of lines.
func EquationTotals(lines []LedgerLine) (assets, liabilities, equity decimal.Decimal) {
	assets, liabilities, equity = decimal.Zero, decimal.Zero, decimal.Zero
	for _, line := range lines {
		switch line.AccountType {
		case AccountTypeAsset:
			assets = assets.Add(line.Signed())
		case AccountTypeLiability:
			liabilities = liabilities.Add(line.Signed())
		case AccountTypeEquity:
			equity = equity.Add(line.Signed())
		}
	}
	equity = equity.Add(NetIncome(lines))
	return assets, liabilities, equity
}
