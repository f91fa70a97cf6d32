package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
)

func (t *Tx) InsertTransaction(ctx context.Context, txn accounting.Transaction) (accounting.Transaction, error) {
	if _, ok := t.st.periods[txn.PeriodID]; !ok {
		return accounting.Transaction{}, fmt.Errorf("%w: %d", accounting.ErrPeriodNotFound, txn.PeriodID)
	}
	txn.ID = t.st.next("transactions")
	txn.Entries = nil
	t.st.txns[txn.ID] = txn
	return txn, nil
}

func (t *Tx) InsertJournalEntries(ctx context.Context, transactionID int64, entries []accounting.JournalEntry) ([]accounting.JournalEntry, error) {
	if _, ok := t.st.txns[transactionID]; !ok {
		return nil, fmt.Errorf("%w: %d", accounting.ErrTransactionNotFound, transactionID)
	}
	out := make([]accounting.JournalEntry, 0, len(entries))
	for _, e := range entries {
		acc, ok := t.st.accounts[e.AccountID]
		if !ok {
			return nil, fmt.Errorf("%w: %d", accounting.ErrAccountNotFound, e.AccountID)
		}
		e.ID = t.st.next("journal_entries")
		e.TransactionID = transactionID
		e.AccountNumber, e.AccountName, e.AccountType = acc.AccountNumber, acc.Name, acc.Type
		out = append(out, e)
	}
	t.st.entries[transactionID] = append(t.st.entries[transactionID], out...)
	return out, nil
}

func (t *Tx) GetTransaction(ctx context.Context, id int64) (accounting.Transaction, error) {
	txn, ok := t.st.txns[id]
	if !ok {
		return accounting.Transaction{}, fmt.Errorf("%w: %d", accounting.ErrTransactionNotFound, id)
	}
	return t.withEntries(txn), nil
}

func (t *Tx) ListTransactions(ctx context.Context, filter journals.TransactionFilter) ([]accounting.Transaction, int, error) {
	all := t.sortedTransactions(func(txn accounting.Transaction) bool {
		if filter.Type != "" && txn.Type != filter.Type {
			return false
		}
		if filter.PeriodID != 0 && txn.PeriodID != filter.PeriodID {
			return false
		}
		if filter.IsBalanced != nil && txn.IsBalanced != *filter.IsBalanced {
			return false
		}
		return inWindow(txn.Date, filter.StartDate, filter.EndDate)
	})
	page := paginate(all, accounting.Page{Page: filter.Page, Limit: filter.Limit})
	for i := range page {
		page[i] = t.withEntries(page[i])
	}
	return page, len(all), nil
}

func (t *Tx) UpdateTransaction(ctx context.Context, txn accounting.Transaction) (accounting.Transaction, error) {
	if _, ok := t.st.txns[txn.ID]; !ok {
		return accounting.Transaction{}, fmt.Errorf("%w: %d", accounting.ErrTransactionNotFound, txn.ID)
	}
	txn.Entries = nil
	t.st.txns[txn.ID] = txn
	return txn, nil
}

func (t *Tx) DeleteTransaction(ctx context.Context, id int64) error {
	if _, ok := t.st.txns[id]; !ok {
		return fmt.Errorf("%w: %d", accounting.ErrTransactionNotFound, id)
	}
	delete(t.st.txns, id)
	delete(t.st.entries, id)
	return nil
}

func (t *Tx) ListUnbalancedTransactions(ctx context.Context) ([]accounting.Transaction, error) {
	out := t.sortedTransactions(func(txn accounting.Transaction) bool { return !txn.IsBalanced })
	for i := range out {
		out[i] = t.withEntries(out[i])
	}
	return out, nil
}

func (t *Tx) TransactionSummary(ctx context.Context, start, end *time.Time) ([]journals.TypeSummary, error) {
	byType := make(map[accounting.TransactionType]*journals.TypeSummary)
	for _, txn := range t.st.txns {
		if !inWindow(txn.Date, start, end) {
			continue
		}
		sum, ok := byType[txn.Type]
		if !ok {
			sum = &journals.TypeSummary{Type: txn.Type, TotalAmount: decimal.Zero}
			byType[txn.Type] = sum
		}
		sum.Count++
		sum.TotalAmount = sum.TotalAmount.Add(txn.Amount)
	}
	out := make([]journals.TypeSummary, 0, len(byType))
	for _, sum := range byType {
		out = append(out, *sum)
	}
	return out, nil
}

func (t *Tx) SetTransactionBalanced(ctx context.Context, id int64, balanced bool) error {
	txn, ok := t.st.txns[id]
	if !ok {
		return fmt.Errorf("%w: %d", accounting.ErrTransactionNotFound, id)
	}
	txn.IsBalanced = balanced
	t.st.txns[id] = txn
	return nil
}

// LedgerLines flattens entries into lines ordered by date, transaction and entry.
func (t *Tx) LedgerLines(ctx context.Context, filter accounting.LineFilter) ([]accounting.LedgerLine, error) {
	var out []accounting.LedgerLine
	for _, txn := range t.sortedTransactions(func(txn accounting.Transaction) bool {
		if filter.PeriodID != 0 && txn.PeriodID != filter.PeriodID {
			return false
		}
		if filter.BalancedOnly && !txn.IsBalanced {
			return false
		}
		return inWindow(txn.Date, filter.Start, filter.End)
	}) {
		for _, e := range t.st.entries[txn.ID] {
			if filter.AccountID != 0 && e.AccountID != filter.AccountID {
				continue
			}
			acc := t.st.accounts[e.AccountID]
			out = append(out, accounting.LedgerLine{
				TransactionID:    txn.ID,
				PeriodID:         txn.PeriodID,
				Date:             txn.Date,
				IsBalanced:       txn.IsBalanced,
				AccountID:        acc.ID,
				AccountNumber:    acc.AccountNumber,
				AccountName:      acc.Name,
				AccountType:      acc.Type,
				BalanceClass:     acc.BalanceClass,
				CashFlowActivity: acc.CashFlowActivity,
				Debit:            accounting.AmountOf(e.Debit),
				Credit:           accounting.AmountOf(e.Credit),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].TransactionID < out[j].TransactionID
	})
	return out, nil
}

// TransactionsInOpenPeriods returns every transaction of an OPEN period with its
// entries.
func (t *Tx) TransactionsInOpenPeriods(ctx context.Context) ([]accounting.Transaction, error) {
	out := t.sortedTransactions(func(txn accounting.Transaction) bool {
		return t.st.periods[txn.PeriodID].Status == accounting.PeriodStatusOpen
	})
	for i := range out {
		out[i] = t.withEntries(out[i])
	}
	return out, nil
}

func (t *Tx) withEntries(txn accounting.Transaction) accounting.Transaction {
	txn.Entries = append([]accounting.JournalEntry(nil), t.st.entries[txn.ID]...)
	return txn
}

// sortedTransactions orders by date descending, newest id first.
func (t *Tx) sortedTransactions(keep func(accounting.Transaction) bool) []accounting.Transaction {
	out := make([]accounting.Transaction, 0, len(t.st.txns))
	for _, txn := range t.st.txns {
		if keep(txn) {
			out = append(out, txn)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func inWindow(d time.Time, start, end *time.Time) bool {
	day := accounting.DateOnly(d)
	if start != nil && day.Before(accounting.DateOnly(*start)) {
		return false
	}
	if end != nil && day.After(accounting.DateOnly(*end)) {
		return false
	}
	return true
}
