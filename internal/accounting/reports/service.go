package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// AuditPort records period-end adjustments.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service derives statements from the journal and posts period-end adjustments.
type Service struct {
	repo     RepositoryPort
	registry *mappings.Registry
	audit    AuditPort
	cache    *Cache
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the reporting service.
func NewService(repo RepositoryPort, registry *mappings.Registry, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, registry: registry, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithCache enables caching of statements for closed and locked periods.
func (s *Service) WithCache(c *Cache) {
	s.cache = c
}

// InvalidateCache drops every cached statement.
func (s *Service) InvalidateCache(ctx context.Context) error {
	return s.cache.Bump(ctx)
}

// IncomeStatement reports one period, or every period when periodID is zero.
func (s *Service) IncomeStatement(ctx context.Context, periodID int64) (IncomeStatement, error) {
	var out IncomeStatement
	if periodID == 0 {
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			lines, err := tx.LedgerLines(ctx, accounting.LineFilter{BalancedOnly: true})
			if err != nil {
				return err
			}
			out = BuildIncomeStatement(lines, nil)
			return nil
		})
		return out, err
	}
	period, err := s.period(ctx, periodID)
	if err != nil {
		return IncomeStatement{}, err
	}
	err = s.cached(ctx, period, &out, "income", func(ctx context.Context) (any, error) {
		return s.buildIncomeStatement(ctx, period)
	})
	return out, err
}

func (s *Service) buildIncomeStatement(ctx context.Context, period accounting.Period) (IncomeStatement, error) {
	var out IncomeStatement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		lines, err := tx.LedgerLines(ctx, accounting.LineFilter{PeriodID: period.ID, BalancedOnly: true})
		if err != nil {
			return err
		}
		out = BuildIncomeStatement(lines, &period)
		return nil
	})
	return out, err
}

// BalanceSheet reports balances as of asOf, defaulting to today.
func (s *Service) BalanceSheet(ctx context.Context, asOf *time.Time) (BalanceSheet, error) {
	day := s.asOf(asOf)
	var out BalanceSheet
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		lines, err := tx.LedgerLines(ctx, accounting.LineFilter{End: &day, BalancedOnly: true})
		if err != nil {
			return err
		}
		out = BuildBalanceSheet(lines, day)
		return nil
	})
	return out, err
}

// CashFlowStatement reports cash movement of a period.
func (s *Service) CashFlowStatement(ctx context.Context, periodID int64) (CashFlowStatement, error) {
	period, err := s.period(ctx, periodID)
	if err != nil {
		return CashFlowStatement{}, err
	}
	var out CashFlowStatement
	err = s.cached(ctx, period, &out, "cashflow", func(ctx context.Context) (any, error) {
		return s.buildCashFlow(ctx, period)
	})
	return out, err
}

func (s *Service) buildCashFlow(ctx context.Context, period accounting.Period) (CashFlowStatement, error) {
	cash := s.registry.Number(mappings.RoleCash)
	var out CashFlowStatement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		end := period.EndDate
		lines, err := tx.LedgerLines(ctx, accounting.LineFilter{End: &end, BalancedOnly: true})
		if err != nil {
			return err
		}
		out = BuildCashFlowStatement(lines, period, cash)
		return nil
	})
	return out, err
}

// TrialBalance reports per-account debit and credit totals as of asOf.
func (s *Service) TrialBalance(ctx context.Context, asOf *time.Time) (TrialBalance, error) {
	day := s.asOf(asOf)
	var out TrialBalance
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		lines, err := tx.LedgerLines(ctx, accounting.LineFilter{End: &day, BalancedOnly: true})
		if err != nil {
			return err
		}
		out = BuildTrialBalance(lines, day)
		return nil
	})
	return out, err
}

// FinancialRatios derives ratios from the income statement of periodID (all
// periods when zero) and the balance sheet at that period's end, or today.
func (s *Service) FinancialRatios(ctx context.Context, periodID int64) (FinancialRatios, error) {
	var asOf *time.Time
	if periodID != 0 {
		period, err := s.period(ctx, periodID)
		if err != nil {
			return FinancialRatios{}, err
		}
		end := period.EndDate
		asOf = &end
	}
	var (
		bs BalanceSheet
		is IncomeStatement
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bs, err = s.BalanceSheet(gctx, asOf)
		return err
	})
	g.Go(func() error {
		var err error
		is, err = s.IncomeStatement(gctx, periodID)
		return err
	})
	if err := g.Wait(); err != nil {
		return FinancialRatios{}, err
	}
	return CalculateFinancialRatios(bs, is), nil
}

// ComparativeReport builds one statement of kind per period, in request order.
// Balance sheets are taken as of each period's end.
func (s *Service) ComparativeReport(ctx context.Context, periodIDs []int64, kind Kind) (ComparativeReport, error) {
	if kind != KindIncomeStatement && kind != KindBalanceSheet {
		return ComparativeReport{}, accounting.NewValidationError("report.comparative",
			[]string{fmt.Sprintf("Invalid report type %q", kind)}, nil)
	}
	if len(periodIDs) == 0 {
		return ComparativeReport{}, accounting.NewValidationError("report.comparative",
			[]string{"At least one period is required"}, nil)
	}
	out := ComparativeReport{ReportType: kind, Reports: make([]any, 0, len(periodIDs))}
	for _, id := range periodIDs {
		switch kind {
		case KindIncomeStatement:
			is, err := s.IncomeStatement(ctx, id)
			if err != nil {
				return ComparativeReport{}, err
			}
			out.Reports = append(out.Reports, is)
		case KindBalanceSheet:
			period, err := s.period(ctx, id)
			if err != nil {
				return ComparativeReport{}, err
			}
			end := period.EndDate
			bs, err := s.BalanceSheet(ctx, &end)
			if err != nil {
				return ComparativeReport{}, err
			}
			bs.Period = period.Name
			out.Reports = append(out.Reports, bs)
		}
	}
	out.Periods = len(out.Reports)
	return out, nil
}

func (s *Service) period(ctx context.Context, id int64) (accounting.Period, error) {
	var period accounting.Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		period, err = tx.GetPeriod(ctx, id)
		return err
	})
	return period, err
}

// cached serves statements of closed and locked periods from the cache; open
// periods are always rebuilt.
func (s *Service) cached(ctx context.Context, period accounting.Period, dest any, name string, build func(context.Context) (any, error)) error {
	if s.cache == nil || period.Status == accounting.PeriodStatusOpen {
		value, err := build(ctx)
		if err != nil {
			return err
		}
		return assign(value, dest)
	}
	key, err := s.cache.BuildKey(ctx, name, strconv.FormatInt(period.ID, 10))
	if err != nil {
		return err
	}
	return s.cache.FetchJSON(ctx, key, dest, build)
}

func assign(value, dest any) error {
	switch d := dest.(type) {
	case *IncomeStatement:
		v, ok := value.(IncomeStatement)
		if ok {
			*d = v
			return nil
		}
	case *CashFlowStatement:
		v, ok := value.(CashFlowStatement)
		if ok {
			*d = v
			return nil
		}
	}
	return roundTrip(value, dest)
}

func (s *Service) asOf(asOf *time.Time) time.Time {
	if asOf == nil {
		return accounting.DateOnly(s.now())
	}
	return accounting.DateOnly(*asOf)
}
