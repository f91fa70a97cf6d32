package accounts

import "github.com/odyssey-erp/odyssey-ledger/internal/accounting"

// DefaultChart lists the system accounts seeded into a fresh ledger.
func DefaultChart() []CreateAccountInput {
	return []CreateAccountInput{
		{AccountNumber: "1000", Name: "Cash", Type: accounting.AccountTypeAsset, BalanceClass: accounting.BalanceClassCurrent},
		{AccountNumber: "1100", Name: "Accounts Receivable", Type: accounting.AccountTypeAsset, BalanceClass: accounting.BalanceClassCurrent, CashFlowActivity: accounting.CashFlowOperating},
		{AccountNumber: "1199", Name: "Deferred Assets", Type: accounting.AccountTypeAsset, BalanceClass: accounting.BalanceClassCurrent, Description: "Prepaid amounts recognised by deferral adjustments"},
		{AccountNumber: "1300", Name: "Equipment", Type: accounting.AccountTypeAsset, BalanceClass: accounting.BalanceClassNonCurrent, CashFlowActivity: accounting.CashFlowInvesting},
		{AccountNumber: "2000", Name: "Accounts Payable", Type: accounting.AccountTypeLiability, BalanceClass: accounting.BalanceClassCurrent, CashFlowActivity: accounting.CashFlowOperating},
		{AccountNumber: "2100", Name: "Loans Payable", Type: accounting.AccountTypeLiability, BalanceClass: accounting.BalanceClassNonCurrent, CashFlowActivity: accounting.CashFlowFinancing},
		{AccountNumber: "2200", Name: "Accrued Liabilities", Type: accounting.AccountTypeLiability, BalanceClass: accounting.BalanceClassCurrent},
		{AccountNumber: "3000", Name: "Owner's Capital", Type: accounting.AccountTypeEquity, CashFlowActivity: accounting.CashFlowFinancing},
		{AccountNumber: "3100", Name: "Retained Earnings", Type: accounting.AccountTypeEquity},
		{AccountNumber: "4000", Name: "Sales Revenue", Type: accounting.AccountTypeRevenue},
		{AccountNumber: "5000", Name: "Cost of Goods Sold", Type: accounting.AccountTypeExpense},
		{AccountNumber: "5100", Name: "Operating Expenses", Type: accounting.AccountTypeExpense},
	}
}
