package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/subledger"
)

const recordColumns = `id, kind, name, amount, date, is_active, shares_outstanding, par_value,
	description, created_at, updated_at`

func scanRecord(row pgx.Row) (subledger.Record, error) {
	var rec subledger.Record
	err := row.Scan(
		&rec.ID, &rec.Kind, &rec.Name, &rec.Amount, &rec.Date, &rec.IsActive,
		&rec.SharesOutstanding, &rec.ParValue, &rec.Description, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}

func (t *Tx) InsertRecord(ctx context.Context, rec subledger.Record) (subledger.Record, error) {
	row := t.tx.QueryRow(ctx, `
INSERT INTO subledger_records (kind, name, amount, date, is_active, shares_outstanding, par_value,
	description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING `+recordColumns,
		rec.Kind, rec.Name, rec.Amount, accounting.DateOnly(rec.Date), rec.IsActive,
		rec.SharesOutstanding, rec.ParValue, rec.Description, rec.CreatedAt, rec.UpdatedAt,
	)
	return scanRecord(row)
}

func (t *Tx) GetRecord(ctx context.Context, id int64) (subledger.Record, error) {
	rec, err := scanRecord(t.tx.QueryRow(ctx, `SELECT `+recordColumns+` FROM subledger_records WHERE id = $1`, id))
	if err != nil {
		return subledger.Record{}, notFound(err, accounting.ErrRecordNotFound, id)
	}
	return rec, nil
}

func (t *Tx) ListRecords(ctx context.Context, filter subledger.ListFilter) ([]subledger.Record, int, error) {
	var w where
	if filter.Kind != "" {
		w.add("kind = $%d", filter.Kind)
	}
	if filter.ActiveOnly {
		w.raw("is_active")
	}
	var total int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM subledger_records`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := w.page(accounting.Page{Page: filter.Page, Limit: filter.Limit})
	rows, err := t.tx.Query(ctx, `SELECT `+recordColumns+` FROM subledger_records`+w.String()+` ORDER BY date DESC, id DESC`+limit, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := make([]subledger.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (t *Tx) UpdateRecord(ctx context.Context, rec subledger.Record) (subledger.Record, error) {
	row := t.tx.QueryRow(ctx, `
UPDATE subledger_records SET
	name = $2, amount = $3, date = $4, is_active = $5, shares_outstanding = $6,
	par_value = $7, description = $8, updated_at = $9
WHERE id = $1
RETURNING `+recordColumns,
		rec.ID, rec.Name, rec.Amount, accounting.DateOnly(rec.Date), rec.IsActive,
		rec.SharesOutstanding, rec.ParValue, rec.Description, rec.UpdatedAt,
	)
	saved, err := scanRecord(row)
	if err != nil {
		return subledger.Record{}, notFound(err, accounting.ErrRecordNotFound, rec.ID)
	}
	return saved, nil
}

func (t *Tx) DeleteRecord(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM subledger_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(tag, accounting.ErrRecordNotFound, id)
}

func (t *Tx) SubledgerTotals(ctx context.Context, asOf *time.Time) (subledger.Totals, error) {
	var out subledger.Totals
	err := t.tx.QueryRow(ctx, `
SELECT
	COALESCE(SUM(amount) FILTER (WHERE kind = 'ASSET'), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'LIABILITY'), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'EQUITY'), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'REVENUE'), 0),
	COALESCE(SUM(amount) FILTER (WHERE kind = 'EXPENSE'), 0)
FROM subledger_records
WHERE is_active AND ($1::date IS NULL OR date <= $1::date)`, optionalDate(asOf)).Scan(
		&out.Assets, &out.Liabilities, &out.Equity, &out.Revenues, &out.Expenses,
	)
	return out, err
}
