package memstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/periods"
)

func (t *Tx) GetPeriod(ctx context.Context, id int64) (accounting.Period, error) {
	p, ok := t.st.periods[id]
	if !ok {
		return accounting.Period{}, fmt.Errorf("%w: %d", accounting.ErrPeriodNotFound, id)
	}
	return p, nil
}

func (t *Tx) GetPeriodForUpdate(ctx context.Context, id int64) (accounting.Period, error) {
	return t.GetPeriod(ctx, id)
}

func (t *Tx) GetCurrentPeriod(ctx context.Context) (accounting.Period, error) {
	for _, p := range t.st.periods {
		if p.IsCurrent {
			return p, nil
		}
	}
	return accounting.Period{}, fmt.Errorf("%w: no current period", accounting.ErrPeriodNotFound)
}

func (t *Tx) ListPeriods(ctx context.Context, filter periods.PeriodFilter) ([]accounting.Period, int, error) {
	all := t.sortedPeriods(func(p accounting.Period) bool {
		return filter.Status == "" || p.Status == filter.Status
	})
	return paginate(all, accounting.Page{Page: filter.Page, Limit: filter.Limit}), len(all), nil
}

func (t *Tx) FindOverlappingPeriods(ctx context.Context, start, end time.Time, excludeID int64) ([]accounting.Period, error) {
	return t.sortedPeriods(func(p accounting.Period) bool {
		if p.ID == excludeID {
			return false
		}
		return !start.After(p.EndDate) && !end.Before(p.StartDate)
	}), nil
}

func (t *Tx) InsertPeriod(ctx context.Context, period accounting.Period) (accounting.Period, error) {
	period.ID = t.st.next("periods")
	t.st.periods[period.ID] = period
	return period, nil
}

func (t *Tx) UpdatePeriod(ctx context.Context, period accounting.Period) (accounting.Period, error) {
	if _, ok := t.st.periods[period.ID]; !ok {
		return accounting.Period{}, fmt.Errorf("%w: %d", accounting.ErrPeriodNotFound, period.ID)
	}
	t.st.periods[period.ID] = period
	return period, nil
}

func (t *Tx) ClearCurrentPeriod(ctx context.Context) error {
	for id, p := range t.st.periods {
		if p.IsCurrent {
			p.IsCurrent = false
			t.st.periods[id] = p
		}
	}
	return nil
}

func (t *Tx) DeletePeriod(ctx context.Context, id int64) error {
	if _, ok := t.st.periods[id]; !ok {
		return fmt.Errorf("%w: %d", accounting.ErrPeriodNotFound, id)
	}
	delete(t.st.periods, id)
	return nil
}

func (t *Tx) CountTransactions(ctx context.Context, periodID int64) (int, error) {
	count := 0
	for _, txn := range t.st.txns {
		if txn.PeriodID == periodID {
			count++
		}
	}
	return count, nil
}

func (t *Tx) CountUnbalancedTransactions(ctx context.Context, periodID int64) (int, error) {
	count := 0
	for _, txn := range t.st.txns {
		if txn.PeriodID == periodID && !txn.IsBalanced {
			count++
		}
	}
	return count, nil
}

func (t *Tx) SumClosedNetIncome(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range t.st.periods {
		if p.Status == accounting.PeriodStatusClosed || p.Status == accounting.PeriodStatusLocked {
			total = total.Add(accounting.AmountOf(p.NetIncome))
		}
	}
	return total, nil
}

// sortedPeriods orders by start date descending.
func (t *Tx) sortedPeriods(keep func(accounting.Period) bool) []accounting.Period {
	out := make([]accounting.Period, 0, len(t.st.periods))
	for _, p := range t.st.periods {
		if keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out
}
