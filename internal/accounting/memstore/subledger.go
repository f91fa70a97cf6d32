package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/subledger"
)

func (t *Tx) InsertRecord(ctx context.Context, rec subledger.Record) (subledger.Record, error) {
	rec.ID = t.st.next("subledger_records")
	t.st.records[rec.ID] = rec
	return rec, nil
}

func (t *Tx) GetRecord(ctx context.Context, id int64) (subledger.Record, error) {
	rec, ok := t.st.records[id]
	if !ok {
		return subledger.Record{}, fmt.Errorf("%w: %d", accounting.ErrRecordNotFound, id)
	}
	return rec, nil
}

func (t *Tx) ListRecords(ctx context.Context, filter subledger.ListFilter) ([]subledger.Record, int, error) {
	all := make([]subledger.Record, 0, len(t.st.records))
	for _, rec := range t.st.records {
		if filter.Kind != "" && rec.Kind != filter.Kind {
			continue
		}
		if filter.ActiveOnly && !rec.IsActive {
			continue
		}
		all = append(all, rec)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].Date.Equal(all[j].Date) {
			return all[i].Date.After(all[j].Date)
		}
		return all[i].ID > all[j].ID
	})
	return paginate(all, accounting.Page{Page: filter.Page, Limit: filter.Limit}), len(all), nil
}

func (t *Tx) UpdateRecord(ctx context.Context, rec subledger.Record) (subledger.Record, error) {
	if _, ok := t.st.records[rec.ID]; !ok {
		return subledger.Record{}, fmt.Errorf("%w: %d", accounting.ErrRecordNotFound, rec.ID)
	}
	t.st.records[rec.ID] = rec
	return rec, nil
}

func (t *Tx) DeleteRecord(ctx context.Context, id int64) error {
	if _, ok := t.st.records[id]; !ok {
		return fmt.Errorf("%w: %d", accounting.ErrRecordNotFound, id)
	}
	delete(t.st.records, id)
	return nil
}

func (t *Tx) SubledgerTotals(ctx context.Context, asOf *time.Time) (subledger.Totals, error) {
	out := subledger.Totals{
		Assets:      decimal.Zero,
		Liabilities: decimal.Zero,
		Equity:      decimal.Zero,
		Revenues:    decimal.Zero,
		Expenses:    decimal.Zero,
	}
	for _, rec := range t.st.records {
		if !rec.IsActive || !inWindow(rec.Date, nil, asOf) {
			continue
		}
		switch rec.Kind {
		case subledger.KindAsset:
			out.Assets = out.Assets.Add(rec.Amount)
		case subledger.KindLiability:
			out.Liabilities = out.Liabilities.Add(rec.Amount)
		case subledger.KindEquity:
			out.Equity = out.Equity.Add(rec.Amount)
		case subledger.KindRevenue:
			out.Revenues = out.Revenues.Add(rec.Amount)
		case subledger.KindExpense:
			out.Expenses = out.Expenses.Add(rec.Amount)
		}
	}
	return out, nil
}
