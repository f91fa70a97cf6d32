package journals

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// ValidateJournalEntries checks entry structure and balance against the known
// accounts. IsValid and IsBalanced are independent: an unbalanced but well formed
// set is valid and only carries a warning.
func ValidateJournalEntries(entries []EntryInput, accounts map[int64]accounting.Account) ValidationResult {
	res := ValidationResult{
		TotalDebits:  decimal.Zero,
		TotalCredits: decimal.Zero,
		Errors:       []string{},
		Warnings:     []string{},
	}
	if len(entries) == 0 {
		res.Errors = append(res.Errors, "Transaction must have at least 1 journal entry")
	}
	seen := make(map[int64]bool, len(entries))
	for i, entry := range entries {
		label := fmt.Sprintf("Entry %d", i+1)
		debit, hasDebit := populated(entry.Debit)
		credit, hasCredit := populated(entry.Credit)
		switch {
		case hasDebit && hasCredit:
			res.Errors = append(res.Errors, label+": Entry cannot have both debit and credit amounts")
		case !hasDebit && !hasCredit:
			res.Errors = append(res.Errors, label+": Entry must have either debit or credit amount")
		case hasDebit && debit.IsNegative():
			res.Errors = append(res.Errors, label+": Debit amounts must be positive")
		case hasCredit && credit.IsNegative():
			res.Errors = append(res.Errors, label+": Credit amounts must be positive")
		case hasDebit:
			res.TotalDebits = res.TotalDebits.Add(debit)
		default:
			res.TotalCredits = res.TotalCredits.Add(credit)
		}

		account, ok := accounts[entry.AccountID]
		if !ok {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: Account %d not found", label, entry.AccountID))
			continue
		}
		if seen[entry.AccountID] {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Duplicate account %s in transaction", account.AccountNumber))
		}
		seen[entry.AccountID] = true
		if account.Status != accounting.AccountStatusActive {
			res.Warnings = append(res.Warnings, fmt.Sprintf("Account %s (%s) is %s", account.AccountNumber, account.Name, account.Status))
		}
	}
	res.IsValid = len(res.Errors) == 0
	res.IsBalanced = accounting.WithinTolerance(res.TotalDebits, res.TotalCredits)
	if !res.IsBalanced {
		res.Warnings = append(res.Warnings, fmt.Sprintf("Transaction does not balance. Debits: %s, Credits: %s",
			res.TotalDebits.StringFixed(2), res.TotalCredits.StringFixed(2)))
	}
	return res
}

// populated treats a null or zero amount as absent.
func populated(v decimal.NullDecimal) (decimal.Decimal, bool) {
	if !v.Valid || v.Decimal.IsZero() {
		return decimal.Zero, false
	}
	return v.Decimal, true
}

func accountIDs(entries []EntryInput) []int64 {
	seen := make(map[int64]bool, len(entries))
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		if seen[e.AccountID] {
			continue
		}
		seen[e.AccountID] = true
		ids = append(ids, e.AccountID)
	}
	return ids
}

// toEntries converts validated input into journal entries carrying the account
// projection used by reports.
func toEntries(entries []EntryInput, accounts map[int64]accounting.Account) []accounting.JournalEntry {
	out := make([]accounting.JournalEntry, 0, len(entries))
	for _, in := range entries {
		acc := accounts[in.AccountID]
		entry := accounting.JournalEntry{
			AccountID:     in.AccountID,
			Description:   in.Description,
			AccountNumber: acc.AccountNumber,
			AccountName:   acc.Name,
			AccountType:   acc.Type,
		}
		if v, ok := populated(in.Debit); ok {
			entry.Debit = decimal.NewNullDecimal(v)
		}
		if v, ok := populated(in.Credit); ok {
			entry.Credit = decimal.NewNullDecimal(v)
		}
		out = append(out, entry)
	}
	return out
}

// Debit builds a debit entry for accountID.
func Debit(accountID int64, amount decimal.Decimal, description string) EntryInput {
	return EntryInput{AccountID: accountID, Debit: decimal.NewNullDecimal(amount), Description: description}
}

// Credit builds a credit entry for accountID.
func Credit(accountID int64, amount decimal.Decimal, description string) EntryInput {
	return EntryInput{AccountID: accountID, Credit: decimal.NewNullDecimal(amount), Description: description}
}
