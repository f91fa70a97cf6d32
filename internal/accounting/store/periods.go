package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
)

const periodColumns = `id, name, type, status, start_date, end_date, is_current, closed_by, closed_at,
	locked_by, locked_at, net_income, notes, created_at, updated_at`

func scanPeriod(row pgx.Row) (accounting.Period, error) {
	var p accounting.Period
	err := row.Scan(
		&p.ID, &p.Name, &p.Type, &p.Status, &p.StartDate, &p.EndDate, &p.IsCurrent,
		&p.ClosedBy, &p.ClosedAt, &p.LockedBy, &p.LockedAt, &p.NetIncome, &p.Notes,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

func (t *Tx) queryPeriods(ctx context.Context, sql string, args ...any) ([]accounting.Period, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]accounting.Period, 0)
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (t *Tx) GetPeriod(ctx context.Context, id int64) (accounting.Period, error) {
	p, err := scanPeriod(t.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id = $1`, id))
	if err != nil {
		return accounting.Period{}, notFound(err, accounting.ErrPeriodNotFound, id)
	}
	return p, nil
}

func (t *Tx) GetPeriodForUpdate(ctx context.Context, id int64) (accounting.Period, error) {
	p, err := scanPeriod(t.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return accounting.Period{}, notFound(err, accounting.ErrPeriodNotFound, id)
	}
	return p, nil
}

func (t *Tx) GetCurrentPeriod(ctx context.Context) (accounting.Period, error) {
	p, err := scanPeriod(t.tx.QueryRow(ctx, `SELECT `+periodColumns+` FROM periods WHERE is_current LIMIT 1`))
	if err != nil {
		return accounting.Period{}, notFound(err, accounting.ErrPeriodNotFound, "no current period")
	}
	return p, nil
}

func (t *Tx) ListPeriods(ctx context.Context, filter periods.PeriodFilter) ([]accounting.Period, int, error) {
	var w where
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}
	var total int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM periods`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := w.page(accounting.Page{Page: filter.Page, Limit: filter.Limit})
	list, err := t.queryPeriods(ctx, `SELECT `+periodColumns+` FROM periods`+w.String()+` ORDER BY start_date DESC, id DESC`+limit, w.args...)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (t *Tx) FindOverlappingPeriods(ctx context.Context, start, end time.Time, excludeID int64) ([]accounting.Period, error) {
	return t.queryPeriods(ctx, `
SELECT `+periodColumns+` FROM periods
WHERE start_date <= $2 AND end_date >= $1 AND id <> $3
ORDER BY start_date DESC`, accounting.DateOnly(start), accounting.DateOnly(end), excludeID)
}

func (t *Tx) InsertPeriod(ctx context.Context, period accounting.Period) (accounting.Period, error) {
	row := t.tx.QueryRow(ctx, `
INSERT INTO periods (name, type, status, start_date, end_date, is_current, closed_by, closed_at,
	locked_by, locked_at, net_income, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING `+periodColumns,
		period.Name, period.Type, period.Status, accounting.DateOnly(period.StartDate), accounting.DateOnly(period.EndDate),
		period.IsCurrent, period.ClosedBy, period.ClosedAt, period.LockedBy, period.LockedAt,
		period.NetIncome, period.Notes, period.CreatedAt, period.UpdatedAt,
	)
	return scanPeriod(row)
}

func (t *Tx) UpdatePeriod(ctx context.Context, period accounting.Period) (accounting.Period, error) {
	row := t.tx.QueryRow(ctx, `
UPDATE periods SET
	name = $2, type = $3, status = $4, start_date = $5, end_date = $6, is_current = $7,
	closed_by = $8, closed_at = $9, locked_by = $10, locked_at = $11, net_income = $12,
	notes = $13, updated_at = $14
WHERE id = $1
RETURNING `+periodColumns,
		period.ID, period.Name, period.Type, period.Status, accounting.DateOnly(period.StartDate),
		accounting.DateOnly(period.EndDate), period.IsCurrent, period.ClosedBy, period.ClosedAt,
		period.LockedBy, period.LockedAt, period.NetIncome, period.Notes, period.UpdatedAt,
	)
	p, err := scanPeriod(row)
	if err != nil {
		return accounting.Period{}, notFound(err, accounting.ErrPeriodNotFound, period.ID)
	}
	return p, nil
}

func (t *Tx) ClearCurrentPeriod(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `UPDATE periods SET is_current = FALSE WHERE is_current`)
	return err
}

func (t *Tx) DeletePeriod(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM periods WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(tag, accounting.ErrPeriodNotFound, id)
}

func (t *Tx) CountTransactions(ctx context.Context, periodID int64) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE period_id = $1`, periodID).Scan(&count)
	return count, err
}

func (t *Tx) CountUnbalancedTransactions(ctx context.Context, periodID int64) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE period_id = $1 AND NOT is_balanced`, periodID).Scan(&count)
	return count, err
}

func (t *Tx) SumClosedNetIncome(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := t.tx.QueryRow(ctx, `SELECT COALESCE(SUM(net_income), 0) FROM periods WHERE status IN ('CLOSED', 'LOCKED')`).Scan(&total)
	return total, err
}
