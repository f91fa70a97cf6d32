package reports

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// CalculateFinancialRatios derives ratios from ledger statements: current ratio
// as assets over liabilities, debt to equity, and profit margin, ROA and ROE in
// percent.
func CalculateFinancialRatios(bs BalanceSheet, is IncomeStatement) FinancialRatios {
	return FinancialRatios{
		CurrentRatio:      ratio(bs.TotalAssets, bs.TotalLiabilities, decimal.NewFromInt(1)),
		DebtToEquityRatio: ratio(bs.TotalLiabilities, bs.TotalEquity, decimal.NewFromInt(1)),
		ProfitMargin:      ratio(is.NetIncome, is.TotalRevenues, hundred),
		ReturnOnAssets:    ratio(is.NetIncome, bs.TotalAssets, hundred),
		ReturnOnEquity:    ratio(is.NetIncome, bs.TotalEquity, hundred),
	}
}

func ratio(num, den, scale decimal.Decimal) string {
	if den.IsZero() {
		return "0.00"
	}
	return num.Mul(scale).Div(den).StringFixed(2)
}
