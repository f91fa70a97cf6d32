package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
)

const foreignKeyViolation = "23503"

const transactionColumns = `id, type, description, amount, date, period_id, is_balanced, reference,
	asset_id, liability_id, equity_id, revenue_id, expense_id, created_at, updated_at`

const entryColumns = `e.id, e.transaction_id, e.account_id, e.debit, e.credit, e.description,
	a.account_number, a.name, a.type, e.created_at`

func scanTransaction(row pgx.Row) (accounting.Transaction, error) {
	var txn accounting.Transaction
	err := row.Scan(
		&txn.ID, &txn.Type, &txn.Description, &txn.Amount, &txn.Date, &txn.PeriodID,
		&txn.IsBalanced, &txn.Reference, &txn.AssetID, &txn.LiabilityID, &txn.EquityID,
		&txn.RevenueID, &txn.ExpenseID, &txn.CreatedAt, &txn.UpdatedAt,
	)
	return txn, err
}

func scanEntry(row pgx.Row) (accounting.JournalEntry, error) {
	var e accounting.JournalEntry
	err := row.Scan(
		&e.ID, &e.TransactionID, &e.AccountID, &e.Debit, &e.Credit, &e.Description,
		&e.AccountNumber, &e.AccountName, &e.AccountType, &e.CreatedAt,
	)
	return e, err
}

func (t *Tx) queryTransactions(ctx context.Context, sql string, args ...any) ([]accounting.Transaction, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]accounting.Transaction, 0)
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

func (t *Tx) InsertTransaction(ctx context.Context, txn accounting.Transaction) (accounting.Transaction, error) {
	row := t.tx.QueryRow(ctx, `
INSERT INTO transactions (type, description, amount, date, period_id, is_balanced, reference,
	asset_id, liability_id, equity_id, revenue_id, expense_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING `+transactionColumns,
		txn.Type, txn.Description, txn.Amount, accounting.DateOnly(txn.Date), txn.PeriodID, txn.IsBalanced,
		txn.Reference, txn.AssetID, txn.LiabilityID, txn.EquityID, txn.RevenueID, txn.ExpenseID,
		txn.CreatedAt, txn.UpdatedAt,
	)
	saved, err := scanTransaction(row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return accounting.Transaction{}, fmt.Errorf("%w: %d", accounting.ErrPeriodNotFound, txn.PeriodID)
		}
		return accounting.Transaction{}, err
	}
	return saved, nil
}

// InsertJournalEntries writes all entries in one batch and returns them with
// their account details.
func (t *Tx) InsertJournalEntries(ctx context.Context, transactionID int64, entries []accounting.JournalEntry) ([]accounting.JournalEntry, error) {
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
WITH e AS (
	INSERT INTO journal_entries (transaction_id, account_id, debit, credit, description)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, transaction_id, account_id, debit, credit, description, created_at
)
SELECT `+entryColumns+` FROM e JOIN accounts a ON a.id = e.account_id`,
			transactionID, e.AccountID, e.Debit, e.Credit, e.Description)
	}
	results := t.tx.SendBatch(ctx, batch)
	out := make([]accounting.JournalEntry, 0, len(entries))
	for _, e := range entries {
		saved, err := scanEntry(results.QueryRow())
		if err != nil {
			_ = results.Close()
			if isForeignKeyViolation(err) {
				return nil, fmt.Errorf("%w: %d", accounting.ErrAccountNotFound, e.AccountID)
			}
			return nil, err
		}
		out = append(out, saved)
	}
	if err := results.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Tx) GetTransaction(ctx context.Context, id int64) (accounting.Transaction, error) {
	txn, err := scanTransaction(t.tx.QueryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
	if err != nil {
		return accounting.Transaction{}, notFound(err, accounting.ErrTransactionNotFound, id)
	}
	list, err := t.attachEntries(ctx, []accounting.Transaction{txn})
	if err != nil {
		return accounting.Transaction{}, err
	}
	return list[0], nil
}

func (t *Tx) ListTransactions(ctx context.Context, filter journals.TransactionFilter) ([]accounting.Transaction, int, error) {
	var w where
	if filter.Type != "" {
		w.add("type = $%d", filter.Type)
	}
	if filter.PeriodID != 0 {
		w.add("period_id = $%d", filter.PeriodID)
	}
	if filter.IsBalanced != nil {
		w.add("is_balanced = $%d", *filter.IsBalanced)
	}
	if filter.StartDate != nil {
		w.add("date >= $%d", accounting.DateOnly(*filter.StartDate))
	}
	if filter.EndDate != nil {
		w.add("date <= $%d", accounting.DateOnly(*filter.EndDate))
	}
	var total int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := w.page(accounting.Page{Page: filter.Page, Limit: filter.Limit})
	list, err := t.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions`+w.String()+` ORDER BY date DESC, id DESC`+limit, w.args...)
	if err != nil {
		return nil, 0, err
	}
	list, err = t.attachEntries(ctx, list)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (t *Tx) UpdateTransaction(ctx context.Context, txn accounting.Transaction) (accounting.Transaction, error) {
	row := t.tx.QueryRow(ctx, `
UPDATE transactions SET
	type = $2, description = $3, amount = $4, date = $5, reference = $6, updated_at = $7
WHERE id = $1
RETURNING `+transactionColumns,
		txn.ID, txn.Type, txn.Description, txn.Amount, accounting.DateOnly(txn.Date), txn.Reference, txn.UpdatedAt,
	)
	saved, err := scanTransaction(row)
	if err != nil {
		return accounting.Transaction{}, notFound(err, accounting.ErrTransactionNotFound, txn.ID)
	}
	return saved, nil
}

func (t *Tx) DeleteTransaction(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(tag, accounting.ErrTransactionNotFound, id)
}

func (t *Tx) ListUnbalancedTransactions(ctx context.Context) ([]accounting.Transaction, error) {
	list, err := t.queryTransactions(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE NOT is_balanced ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return t.attachEntries(ctx, list)
}

func (t *Tx) TransactionSummary(ctx context.Context, start, end *time.Time) ([]journals.TypeSummary, error) {
	rows, err := t.tx.Query(ctx, `
SELECT type, COUNT(*), COALESCE(SUM(amount), 0)
FROM transactions
WHERE ($1::date IS NULL OR date >= $1::date)
  AND ($2::date IS NULL OR date <= $2::date)
GROUP BY type`, optionalDate(start), optionalDate(end))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]journals.TypeSummary, 0)
	for rows.Next() {
		var sum journals.TypeSummary
		if err := rows.Scan(&sum.Type, &sum.Count, &sum.TotalAmount); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

func (t *Tx) SetTransactionBalanced(ctx context.Context, id int64, balanced bool) error {
	tag, err := t.tx.Exec(ctx, `UPDATE transactions SET is_balanced = $2, updated_at = NOW() WHERE id = $1`, id, balanced)
	if err != nil {
		return err
	}
	return requireAffected(tag, accounting.ErrTransactionNotFound, id)
}

// LedgerLines flattens entries into lines ordered by date, transaction and entry.
func (t *Tx) LedgerLines(ctx context.Context, filter accounting.LineFilter) ([]accounting.LedgerLine, error) {
	var w where
	if filter.AccountID != 0 {
		w.add("e.account_id = $%d", filter.AccountID)
	}
	if filter.PeriodID != 0 {
		w.add("t.period_id = $%d", filter.PeriodID)
	}
	if filter.BalancedOnly {
		w.raw("t.is_balanced")
	}
	if filter.Start != nil {
		w.add("t.date >= $%d", accounting.DateOnly(*filter.Start))
	}
	if filter.End != nil {
		w.add("t.date <= $%d", accounting.DateOnly(*filter.End))
	}
	rows, err := t.tx.Query(ctx, `
SELECT t.id, t.period_id, t.date, t.is_balanced,
	a.id, a.account_number, a.name, a.type, a.balance_class, a.cash_flow_activity,
	COALESCE(e.debit, 0), COALESCE(e.credit, 0)
FROM journal_entries e
JOIN transactions t ON t.id = e.transaction_id
JOIN accounts a ON a.id = e.account_id`+w.String()+`
ORDER BY t.date, t.id, e.id`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]accounting.LedgerLine, 0)
	for rows.Next() {
		var l accounting.LedgerLine
		if err := rows.Scan(
			&l.TransactionID, &l.PeriodID, &l.Date, &l.IsBalanced,
			&l.AccountID, &l.AccountNumber, &l.AccountName, &l.AccountType, &l.BalanceClass, &l.CashFlowActivity,
			&l.Debit, &l.Credit,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// TransactionsInOpenPeriods returns every transaction of an OPEN period with its
// entries.
func (t *Tx) TransactionsInOpenPeriods(ctx context.Context) ([]accounting.Transaction, error) {
	list, err := t.queryTransactions(ctx, `
SELECT `+transactionColumns+` FROM transactions
WHERE period_id IN (SELECT id FROM periods WHERE status = 'OPEN')
ORDER BY date DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	return t.attachEntries(ctx, list)
}

// attachEntries loads entries for every transaction in one query, debits first.
func (t *Tx) attachEntries(ctx context.Context, list []accounting.Transaction) ([]accounting.Transaction, error) {
	if len(list) == 0 {
		return list, nil
	}
	ids := make([]int64, len(list))
	index := make(map[int64]int, len(list))
	for i, txn := range list {
		ids[i] = txn.ID
		index[txn.ID] = i
		list[i].Entries = []accounting.JournalEntry{}
	}
	rows, err := t.tx.Query(ctx, `
SELECT `+entryColumns+`
FROM journal_entries e
JOIN accounts a ON a.id = e.account_id
WHERE e.transaction_id = ANY($1)
ORDER BY e.transaction_id, (e.debit IS NULL), e.id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		i := index[e.TransactionID]
		list[i].Entries = append(list[i].Entries, e)
	}
	return list, rows.Err()
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation
}

func optionalDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := accounting.DateOnly(*t)
	return &d
}
