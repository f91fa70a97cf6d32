package reports

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/oklog/ulid/v2"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/journals"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/mappings"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// CreateAccrualEntries posts one balanced ADJUSTMENTS transaction per adjustment,
// dated at the period end, all in a single unit. The period must be OPEN.
func (s *Service) CreateAccrualEntries(ctx context.Context, periodID int64, adjustments []Adjustment, actorID string) (AccrualResult, error) {
	if errs := checkAdjustments(adjustments); len(errs) > 0 {
		return AccrualResult{}, accounting.NewValidationError("report.accruals", errs, nil)
	}
	var created []accounting.Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetPeriodForUpdate(ctx, periodID)
		if err != nil {
			return err
		}
		if period.Status != accounting.PeriodStatusOpen {
			return fmt.Errorf("%w: period must be open for adjustments", accounting.ErrPeriodNotOpen)
		}
		now := s.now()
		var accrued, deferred accounting.Account
		for i, adj := range adjustments {
			target, err := tx.GetAccount(ctx, adj.AccountID)
			if err != nil {
				return fmt.Errorf("adjustment %d: %w", i+1, err)
			}
			var (
				prefix  string
				entries []journals.EntryInput
			)
			switch adj.Kind {
			case Accrue:
				if target.Type != accounting.AccountTypeExpense {
					return accounting.NewValidationError("report.accruals",
						[]string{fmt.Sprintf("Adjustment %d: accruals must debit an expense account", i+1)}, nil)
				}
				if accrued.ID == 0 {
					if accrued, err = s.registry.Resolve(ctx, tx, mappings.RoleAccruedLiabilities); err != nil {
						return err
					}
				}
				prefix = "Accrual"
				entries = []journals.EntryInput{
					journals.Debit(target.ID, adj.Amount, adj.Description),
					journals.Credit(accrued.ID, adj.Amount, adj.Description),
				}
			case Defer:
				if target.Type != accounting.AccountTypeRevenue {
					return accounting.NewValidationError("report.accruals",
						[]string{fmt.Sprintf("Adjustment %d: deferrals must credit a revenue account", i+1)}, nil)
				}
				if deferred.ID == 0 {
					number := s.registry.Number(mappings.RoleDeferredAssets)
					if deferred, err = accounts.EnsureAccount(ctx, tx, number, "Deferred Assets", accounting.AccountTypeAsset, now); err != nil {
						return err
					}
				}
				prefix = "Deferral"
				entries = []journals.EntryInput{
					journals.Debit(deferred.ID, adj.Amount, adj.Description),
					journals.Credit(target.ID, adj.Amount, adj.Description),
				}
			}
			txn := accounting.Transaction{
				Type:        accounting.TransactionTypeAdjustments,
				Description: prefix + ": " + adj.Description,
				Amount:      adj.Amount,
				Date:        period.EndDate,
				PeriodID:    period.ID,
				Reference:   "ADJ-" + ulid.Make().String(),
			}
			saved, _, err := journals.Record(ctx, tx, txn, entries, now)
			if err != nil {
				return fmt.Errorf("adjustment %d: %w", i+1, err)
			}
			created = append(created, saved)
		}
		return nil
	})
	if err != nil {
		return AccrualResult{}, err
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("invalidate statement cache", slog.Any("error", err))
	}
	s.logger.Info("period adjustments posted",
		slog.Int64("period_id", periodID),
		slog.Int("count", len(created)))
	if s.audit != nil {
		ids := make([]int64, 0, len(created))
		for _, txn := range created {
			ids = append(ids, txn.ID)
		}
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "period.adjustments",
			Entity:   "period",
			EntityID: strconv.FormatInt(periodID, 10),
			Meta:     map[string]any{"transaction_ids": ids},
			At:       s.now(),
		})
	}
	return AccrualResult{
		Transactions: created,
		Message:      fmt.Sprintf("Created %d accrual/deferral entries", len(created)),
	}, nil
}

func checkAdjustments(adjustments []Adjustment) []string {
	if len(adjustments) == 0 {
		return []string{"At least one adjustment is required"}
	}
	var errs []string
	for i, adj := range adjustments {
		label := fmt.Sprintf("Adjustment %d", i+1)
		if adj.Kind != Accrue && adj.Kind != Defer {
			errs = append(errs, fmt.Sprintf("%s: type must be accrue or defer", label))
		}
		if !adj.Amount.IsPositive() {
			errs = append(errs, label+": amount must be positive")
		}
		if adj.AccountID == 0 {
			errs = append(errs, label+": account is required")
		}
	}
	return errs
}
