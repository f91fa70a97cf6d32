package periods

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/validation"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// AuditPort records period lifecycle events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Locker serializes period closes across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// Metrics receives close counters.
type Metrics interface {
	PeriodClosed()
	PeriodCloseFailed(reason string)
}

// StatementCache drops derived statements once a change has committed.
type StatementCache interface {
	Bump(ctx context.Context) error
}

// Service drives the OPEN → CLOSED → LOCKED period lifecycle.
type Service struct {
	repo       RepositoryPort
	audit      AuditPort
	locker     Locker
	metrics    Metrics
	statements StatementCache
	logger     *slog.Logger
	printer    *message.Printer
	now        func() time.Time
}

// NewService constructs the period service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:    repo,
		audit:   audit,
		logger:  logger,
		printer: message.NewPrinter(language.English),
		now:     time.Now,
	}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// WithLocker serializes ClosePeriod through a distributed lock.
func (s *Service) WithLocker(l Locker) {
	s.locker = l
}

// WithMetrics attaches close counters.
func (s *Service) WithMetrics(m Metrics) {
	s.metrics = m
}

// WithStatementCache invalidates cached statements after a close.
func (s *Service) WithStatementCache(c StatementCache) {
	s.statements = c
}

// CreatePeriod opens a new period. It becomes current when no period is current or
// when it is ANNUAL, demoting the previous current period.
func (s *Service) CreatePeriod(ctx context.Context, input CreatePeriodInput) (accounting.Period, error) {
	var errs []string
	if strings.TrimSpace(input.Name) == "" {
		errs = append(errs, "Period name is required")
	}
	if !input.Type.Valid() {
		errs = append(errs, fmt.Sprintf("Invalid period type %q", input.Type))
	}
	if len(errs) > 0 {
		return accounting.Period{}, accounting.NewValidationError("period.create", errs, nil)
	}
	start, end := accounting.DateOnly(input.StartDate), accounting.DateOnly(input.EndDate)
	if !start.Before(end) {
		return accounting.Period{}, accounting.ErrInvalidPeriodRange
	}
	var created accounting.Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := checkOverlap(ctx, tx, start, end, 0); err != nil {
			return err
		}
		makeCurrent := input.Type == accounting.PeriodTypeAnnual
		if !makeCurrent {
			if _, err := tx.GetCurrentPeriod(ctx); err != nil {
				if !isNotFound(err) {
					return err
				}
				makeCurrent = true
			}
		}
		if makeCurrent {
			if err := tx.ClearCurrentPeriod(ctx); err != nil {
				return err
			}
		}
		now := s.now()
		var err error
		created, err = tx.InsertPeriod(ctx, accounting.Period{
			Name:      strings.TrimSpace(input.Name),
			Type:      input.Type,
			Status:    accounting.PeriodStatusOpen,
			StartDate: start,
			EndDate:   end,
			IsCurrent: makeCurrent,
			Notes:     input.Notes,
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		return accounting.Period{}, err
	}
	s.record(ctx, input.ActorID, "period.create", created.ID, map[string]any{
		"name":       created.Name,
		"is_current": created.IsCurrent,
	})
	return created, nil
}

// GetPeriod returns a period by id.
func (s *Service) GetPeriod(ctx context.Context, id int64) (accounting.Period, error) {
	var period accounting.Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		period, err = tx.GetPeriod(ctx, id)
		return err
	})
	return period, err
}

// GetCurrentPeriod returns the period flagged current.
func (s *Service) GetCurrentPeriod(ctx context.Context) (accounting.Period, error) {
	var period accounting.Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		period, err = tx.GetCurrentPeriod(ctx)
		return err
	})
	return period, err
}

// ListPeriods returns one page ordered by start date descending and the total count.
func (s *Service) ListPeriods(ctx context.Context, filter PeriodFilter) ([]accounting.Period, int, error) {
	page := accounting.Page{Page: filter.Page, Limit: filter.Limit}.Normalize()
	filter.Page, filter.Limit = page.Page, page.Limit
	var (
		out   []accounting.Period
		total int
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, total, err = tx.ListPeriods(ctx, filter)
		return err
	})
	return out, total, err
}

// UpdatePeriod edits an OPEN period, re-checking the date window against every
// other period.
func (s *Service) UpdatePeriod(ctx context.Context, id int64, input UpdatePeriodInput) (accounting.Period, error) {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return accounting.Period{}, accounting.NewValidationError("period.update", []string{"Period name is required"}, nil)
	}
	var updated accounting.Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetPeriodForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if current.Status != accounting.PeriodStatusOpen {
			return fmt.Errorf("%w: %s is %s", accounting.ErrPeriodNotOpen, current.Name, current.Status)
		}
		if input.StartDate != nil {
			current.StartDate = accounting.DateOnly(*input.StartDate)
		}
		if input.EndDate != nil {
			current.EndDate = accounting.DateOnly(*input.EndDate)
		}
		if !current.StartDate.Before(current.EndDate) {
			return accounting.ErrInvalidPeriodRange
		}
		if input.StartDate != nil || input.EndDate != nil {
			if err := checkOverlap(ctx, tx, current.StartDate, current.EndDate, current.ID); err != nil {
				return err
			}
		}
		if input.Name != nil {
			current.Name = strings.TrimSpace(*input.Name)
		}
		if input.Notes != nil {
			current.Notes = *input.Notes
		}
		current.UpdatedAt = s.now()
		updated, err = tx.UpdatePeriod(ctx, current)
		return err
	})
	if err != nil {
		return accounting.Period{}, err
	}
	s.record(ctx, input.ActorID, "period.update", id, nil)
	return updated, nil
}

// ClosePeriod closes an OPEN period whose transactions are all balanced, records
// its net income, recomputes retained earnings and, when the period was current,
// opens and promotes the following period.
func (s *Service) ClosePeriod(ctx context.Context, id int64, closedBy string) (ClosingResult, error) {
	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, shared.PeriodCloseLockKey(id))
		if err != nil {
			s.closeFailed("lock")
			return ClosingResult{}, err
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("release period lock", slog.Int64("period_id", id), slog.Any("error", err))
			}
		}()
	}
	var result ClosingResult
	var periodName string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetPeriodForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transition(period.Status, accounting.PeriodStatusClosed); err != nil {
			return fmt.Errorf("%w: period %s is not open and cannot be closed", accounting.ErrPeriodNotOpen, period.Name)
		}
		unbalanced, err := tx.CountUnbalancedTransactions(ctx, id)
		if err != nil {
			return err
		}
		if unbalanced > 0 {
			return &accounting.UnbalancedError{PeriodID: id, Count: unbalanced}
		}
		count, err := tx.CountTransactions(ctx, id)
		if err != nil {
			return err
		}
		lines, err := tx.LedgerLines(ctx, accounting.LineFilter{PeriodID: id})
		if err != nil {
			return err
		}
		netIncome := accounting.NetIncome(lines)
		closedAt := s.now()
		wasCurrent := period.IsCurrent
		period.Status = accounting.PeriodStatusClosed
		period.ClosedBy = closedBy
		period.ClosedAt = &closedAt
		period.NetIncome = decimal.NewNullDecimal(netIncome)
		period.IsCurrent = false
		period.UpdatedAt = closedAt
		if _, err := tx.UpdatePeriod(ctx, period); err != nil {
			return err
		}
		retained, err := tx.SumClosedNetIncome(ctx)
		if err != nil {
			return err
		}
		var next *accounting.Period
		if wasCurrent {
			next, err = rollForward(ctx, tx, period, closedAt)
			if err != nil {
				return err
			}
		}
		periodName = period.Name
		result = ClosingResult{
			PeriodID:                   id,
			ClosedAt:                   closedAt,
			ClosedBy:                   closedBy,
			AdjustmentsCount:           count,
			RetainedEarningsAdjustment: netIncome,
			RetainedEarnings:           retained,
			NextPeriod:                 next,
			Success:                    true,
			Message:                    s.closeMessage(netIncome),
		}
		return nil
	})
	if err != nil {
		s.closeFailed(failureReason(err))
		return ClosingResult{}, err
	}
	s.invalidate(ctx)
	if s.metrics != nil {
		s.metrics.PeriodClosed()
	}
	s.logger.Info("period closed",
		slog.Int64("period_id", id),
		slog.String("period", periodName),
		slog.String("net_income", result.RetainedEarningsAdjustment.StringFixed(2)),
		slog.Int("transactions", result.AdjustmentsCount))
	meta := map[string]any{
		"net_income":        result.RetainedEarningsAdjustment.StringFixed(2),
		"retained_earnings": result.RetainedEarnings.StringFixed(2),
	}
	if result.NextPeriod != nil {
		meta["next_period_id"] = result.NextPeriod.ID
	}
	s.record(ctx, closedBy, "period.close", id, meta)
	return result, nil
}

// LockPeriod moves a CLOSED period to LOCKED.
func (s *Service) LockPeriod(ctx context.Context, id int64, actorID string) (accounting.Period, error) {
	var locked accounting.Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetPeriodForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := transition(period.Status, accounting.PeriodStatusLocked); err != nil {
			return fmt.Errorf("%w: %s → %s", accounting.ErrInvalidTransition, period.Status, accounting.PeriodStatusLocked)
		}
		now := s.now()
		period.Status = accounting.PeriodStatusLocked
		period.LockedBy = actorID
		period.LockedAt = &now
		period.UpdatedAt = now
		locked, err = tx.UpdatePeriod(ctx, period)
		return err
	})
	if err != nil {
		return accounting.Period{}, err
	}
	s.record(ctx, actorID, "period.lock", id, nil)
	return locked, nil
}

// DeletePeriod removes an OPEN period that holds no transactions.
func (s *Service) DeletePeriod(ctx context.Context, id int64, actorID string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetPeriodForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if period.Status != accounting.PeriodStatusOpen {
			return fmt.Errorf("%w: %s is %s", accounting.ErrPeriodNotOpen, period.Name, period.Status)
		}
		count, err := tx.CountTransactions(ctx, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: %d transactions", accounting.ErrPeriodHasTransactions, count)
		}
		return tx.DeletePeriod(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "period.delete", id, nil)
	return nil
}

// GetPeriodSummary reports activity of one period plus the ledger-wide
// accounting equation as of the period end.
func (s *Service) GetPeriodSummary(ctx context.Context, id int64) (Summary, error) {
	var out Summary
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetPeriod(ctx, id)
		if err != nil {
			return err
		}
		total, err := tx.CountTransactions(ctx, id)
		if err != nil {
			return err
		}
		unbalanced, err := tx.CountUnbalancedTransactions(ctx, id)
		if err != nil {
			return err
		}
		lines, err := tx.LedgerLines(ctx, accounting.LineFilter{PeriodID: id})
		if err != nil {
			return err
		}
		debits, credits := decimal.Zero, decimal.Zero
		for _, line := range lines {
			debits = debits.Add(line.Debit)
			credits = credits.Add(line.Credit)
		}
		end := period.EndDate
		cumulative, err := tx.LedgerLines(ctx, accounting.LineFilter{End: &end, BalancedOnly: true})
		if err != nil {
			return err
		}
		assets, liabilities, equity := accounting.EquationTotals(cumulative)
		out = Summary{
			Period:               period,
			TotalTransactions:    total,
			BalancedTransactions: total - unbalanced,
			TotalDebits:          debits,
			TotalCredits:         credits,
			NetIncome:            accounting.NetIncome(lines),
			AccountingEquation: Equation{
				TotalAssets:      assets,
				TotalLiabilities: liabilities,
				TotalEquity:      equity,
				IsBalanced:       validation.AccountingEquation(assets, liabilities, equity).IsValid,
			},
		}
		return nil
	})
	return out, err
}

// RetainedEarnings returns the sum of net income over closed and locked periods.
func (s *Service) RetainedEarnings(ctx context.Context) (decimal.Decimal, error) {
	total := decimal.Zero
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		total, err = tx.SumClosedNetIncome(ctx)
		return err
	})
	return total, err
}

// NextPeriod derives the OPEN, current period that follows p: it starts the day
// after p ends and spans one month, quarter or year of p's type.
func NextPeriod(p accounting.Period) accounting.Period {
	start := accounting.DateOnly(p.EndDate).AddDate(0, 0, 1)
	var end time.Time
	switch p.Type {
	case accounting.PeriodTypeMonthly:
		end = start.AddDate(0, 1, -1)
	case accounting.PeriodTypeQuarterly:
		end = start.AddDate(0, 3, -1)
	default:
		end = start.AddDate(1, 0, -1)
	}
	return accounting.Period{
		Name:      PeriodName(start, p.Type),
		Type:      p.Type,
		Status:    accounting.PeriodStatusOpen,
		StartDate: start,
		EndDate:   end,
		IsCurrent: true,
	}
}

// PeriodName formats "January 2025", "Q2 2025" or "FY 2025".
func PeriodName(start time.Time, typ accounting.PeriodType) string {
	switch typ {
	case accounting.PeriodTypeMonthly:
		return fmt.Sprintf("%s %d", start.Month(), start.Year())
	case accounting.PeriodTypeQuarterly:
		return fmt.Sprintf("Q%d %d", (int(start.Month())-1)/3+1, start.Year())
	default:
		return fmt.Sprintf("FY %d", start.Year())
	}
}

// rollForward makes the period following closed current. A period already
// covering the day after closed ends is promoted when OPEN and left alone
// otherwise; with none, NextPeriod is inserted.
func rollForward(ctx context.Context, tx TxRepository, closed accounting.Period, at time.Time) (*accounting.Period, error) {
	candidate := NextPeriod(closed)
	covering, err := tx.FindOverlappingPeriods(ctx, candidate.StartDate, candidate.StartDate, closed.ID)
	if err != nil {
		return nil, err
	}
	if len(covering) > 0 {
		existing := covering[0]
		if existing.Status != accounting.PeriodStatusOpen {
			return nil, nil
		}
		if err := tx.ClearCurrentPeriod(ctx); err != nil {
			return nil, err
		}
		existing.IsCurrent = true
		existing.UpdatedAt = at
		promoted, err := tx.UpdatePeriod(ctx, existing)
		if err != nil {
			return nil, err
		}
		return &promoted, nil
	}
	if err := checkOverlap(ctx, tx, candidate.StartDate, candidate.EndDate, closed.ID); err != nil {
		return nil, fmt.Errorf("next period %s: %w", candidate.Name, err)
	}
	if err := tx.ClearCurrentPeriod(ctx); err != nil {
		return nil, err
	}
	candidate.CreatedAt, candidate.UpdatedAt = at, at
	inserted, err := tx.InsertPeriod(ctx, candidate)
	if err != nil {
		return nil, err
	}
	return &inserted, nil
}

func checkOverlap(ctx context.Context, tx TxRepository, start, end time.Time, excludeID int64) error {
	overlapping, err := tx.FindOverlappingPeriods(ctx, start, end, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		return fmt.Errorf("%w: %s", accounting.ErrPeriodOverlap, overlapping[0].Name)
	}
	return nil
}

func transition(current, target accounting.PeriodStatus) error {
	return shared.ValidatePeriodTransition(string(current), string(target))
}

func (s *Service) closeMessage(netIncome decimal.Decimal) string {
	return "Period closed successfully. Retained earnings adjusted by $" + s.formatAmount(netIncome)
}

// formatAmount renders v with two decimals and grouped thousands without
// leaving decimal arithmetic.
func (s *Service) formatAmount(v decimal.Decimal) string {
	rounded := v.Round(2)
	_, frac, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")
	whole := s.printer.Sprintf("%d", rounded.Abs().IntPart())
	if rounded.IsNegative() {
		whole = "-" + whole
	}
	return whole + "." + frac
}

func (s *Service) closeFailed(reason string) {
	if s.metrics != nil {
		s.metrics.PeriodCloseFailed(reason)
	}
}

func failureReason(err error) string {
	switch {
	case isUnbalanced(err):
		return "unbalanced"
	case isNotFound(err):
		return "not_found"
	case isStateConflict(err):
		return "state"
	default:
		return "error"
	}
}

func (s *Service) record(ctx context.Context, actorID, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "period",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	})
}

// invalidate bumps the statement cache version. Failures leave the previous
// version in place until its TTL runs out.
func (s *Service) invalidate(ctx context.Context) {
	if s.statements == nil {
		return
	}
	if err := s.statements.Bump(ctx); err != nil {
		s.logger.Warn("invalidate statement cache", slog.Any("error", err))
	}
}
