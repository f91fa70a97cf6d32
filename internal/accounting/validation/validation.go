// Package validation holds the pure amount, date and equation rules shared by
// the ledger services.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// Tolerance is the maximum rounding gap accepted by balance comparisons.
var Tolerance = accounting.Tolerance

// Result aggregates the outcome of one or more rules.
type Result struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func newResult(errs, warnings []string) Result {
	if errs == nil {
		errs = []string{}
	}
	if warnings == nil {
		warnings = []string{}
	}
	return Result{IsValid: len(errs) == 0, Errors: errs, Warnings: warnings}
}

// Merge folds other into r.
func (r Result) Merge(other Result) Result {
	errs := append(append([]string{}, r.Errors...), other.Errors...)
	warnings := append(append([]string{}, r.Warnings...), other.Warnings...)
	return newResult(errs, warnings)
}

// Err converts a failed result into a ValidationError for op.
func (r Result) Err(op string) error {
	if r.IsValid {
		return nil
	}
	return accounting.NewValidationError(op, r.Errors, r.Warnings)
}

// AssetValue rejects negative values and warns on zero.
func AssetValue(v decimal.Decimal) Result {
	var errs, warnings []string
	if v.IsNegative() {
		errs = append(errs, "Asset values must be positive")
	}
	if v.IsZero() {
		warnings = append(warnings, "Asset value is zero - consider if this is correct")
	}
	return newResult(errs, warnings)
}

// LiabilityAmount rejects negative values. Zero is accepted silently.
func LiabilityAmount(v decimal.Decimal) Result {
	var errs []string
	if v.IsNegative() {
		errs = append(errs, "Liability amounts must be positive")
	}
	return newResult(errs, nil)
}

// RevenueAmount rejects negative values and warns on zero.
func RevenueAmount(v decimal.Decimal) Result {
	var errs, warnings []string
	if v.IsNegative() {
		errs = append(errs, "Revenue amounts must be positive")
	}
	if v.IsZero() {
		warnings = append(warnings, "Revenue amount is zero")
	}
	return newResult(errs, warnings)
}

// ExpenseAmount rejects negative values and warns on zero.
func ExpenseAmount(v decimal.Decimal) Result {
	var errs, warnings []string
	if v.IsNegative() {
		errs = append(errs, "Expense amounts must be positive")
	}
	if v.IsZero() {
		warnings = append(warnings, "Expense amount is zero")
	}
	return newResult(errs, warnings)
}

// DateNotFuture rejects dates strictly after now.
func DateNotFuture(d, now time.Time) Result {
	var errs []string
	if d.After(now) {
		errs = append(errs, "Date cannot be in the future")
	}
	return newResult(errs, nil)
}

// AccountingEquation checks assets = liabilities + equity within Tolerance.
func AccountingEquation(assets, liabilities, equity decimal.Decimal) Result {
	var errs []string
	right := liabilities.Add(equity)
	if assets.Sub(right).Abs().GreaterThan(Tolerance) {
		errs = append(errs, fmt.Sprintf(
			"Accounting equation not balanced. Assets (%s) ≠ Liabilities + Equity (%s)",
			assets.StringFixed(2), right.StringFixed(2)))
	}
	return newResult(errs, nil)
}

// SharesOutstanding validates an optional share count.
func SharesOutstanding(shares *int64) Result {
	var errs, warnings []string
	if shares != nil {
		if *shares < 0 {
			errs = append(errs, "Shares outstanding cannot be negative")
		}
		if *shares == 0 {
			warnings = append(warnings, "Shares outstanding is zero")
		}
	}
	return newResult(errs, warnings)
}

// ParValue validates an optional par value.
func ParValue(v decimal.NullDecimal) Result {
	var errs []string
	if v.Valid && v.Decimal.IsNegative() {
		errs = append(errs, "Par value must be positive")
	}
	return newResult(errs, nil)
}

// Entry is a batch of amounts grouped by kind.
type Entry struct {
	Assets      []decimal.Decimal `json:"assets"`
	Liabilities []decimal.Decimal `json:"liabilities"`
	Revenues    []decimal.Decimal `json:"revenues"`
	Expenses    []decimal.Decimal `json:"expenses"`
}

// Batch runs every amount rule over entry, prefixing messages with the kind and
// 1-based position ("Asset 1: ...").
func Batch(entry Entry) Result {
	out := newResult(nil, nil)
	groups := []struct {
		label  string
		values []decimal.Decimal
		rule   func(decimal.Decimal) Result
	}{
		{"Asset", entry.Assets, AssetValue},
		{"Liability", entry.Liabilities, LiabilityAmount},
		{"Revenue", entry.Revenues, RevenueAmount},
		{"Expense", entry.Expenses, ExpenseAmount},
	}
	for _, g := range groups {
		for i, v := range g.values {
			out = out.Merge(prefixed(fmt.Sprintf("%s %d", g.label, i+1), g.rule(v)))
		}
	}
	return out
}

func prefixed(label string, r Result) Result {
	var errs, warnings []string
	if len(r.Errors) > 0 {
		errs = append(errs, label+": "+strings.Join(r.Errors, ", "))
	}
	for _, w := range r.Warnings {
		warnings = append(warnings, label+": "+w)
	}
	return newResult(errs, warnings)
}
