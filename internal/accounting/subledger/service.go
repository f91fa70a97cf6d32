// Package subledger keeps business-level asset, liability, equity, revenue and
// expense records and reconciles their totals against the journal.
package subledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/validation"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// AuditPort records subledger changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service maintains subledger records.
type Service struct {
	repo   RepositoryPort
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService constructs the subledger service.
func NewService(repo RepositoryPort, audit AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create validates and stores an active record. Warnings are returned with the
// record and never block it.
func (s *Service) Create(ctx context.Context, input CreateInput) (Record, []string, error) {
	if !input.Kind.Valid() {
		return Record{}, nil, accounting.NewValidationError("subledger.create",
			[]string{fmt.Sprintf("Invalid kind %q", input.Kind)}, nil)
	}
	rec := Record{
		Kind:              input.Kind,
		Name:              strings.TrimSpace(input.Name),
		Amount:            input.Amount,
		Date:              accounting.DateOnly(input.Date),
		IsActive:          true,
		SharesOutstanding: input.SharesOutstanding,
		ParValue:          input.ParValue,
		Description:       input.Description,
	}
	check := s.check(rec)
	if err := check.Err("subledger.create"); err != nil {
		return Record{}, check.Warnings, err
	}
	var created Record
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		now := s.now()
		rec.CreatedAt, rec.UpdatedAt = now, now
		var err error
		created, err = tx.InsertRecord(ctx, rec)
		return err
	})
	if err != nil {
		return Record{}, check.Warnings, err
	}
	s.record(ctx, input.ActorID, "subledger.create", created.ID, map[string]any{"kind": string(created.Kind)})
	return created, check.Warnings, nil
}

// Get returns a record by id.
func (s *Service) Get(ctx context.Context, id int64) (Record, error) {
	var rec Record
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		rec, err = tx.GetRecord(ctx, id)
		return err
	})
	return rec, err
}

// List returns one page of records, newest first, and the total count.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Record, int, error) {
	if filter.Kind != "" && !filter.Kind.Valid() {
		return nil, 0, accounting.NewValidationError("subledger.list",
			[]string{fmt.Sprintf("Invalid kind %q", filter.Kind)}, nil)
	}
	page := accounting.Page{Page: filter.Page, Limit: filter.Limit}.Normalize()
	filter.Page, filter.Limit = page.Page, page.Limit
	var (
		out   []Record
		total int
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, total, err = tx.ListRecords(ctx, filter)
		return err
	})
	return out, total, err
}

// Update applies the given fields and re-runs the kind's rules.
func (s *Service) Update(ctx context.Context, id int64, input UpdateInput) (Record, []string, error) {
	var (
		updated  Record
		warnings []string
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		rec, err := tx.GetRecord(ctx, id)
		if err != nil {
			return err
		}
		if input.Name != nil {
			rec.Name = strings.TrimSpace(*input.Name)
		}
		if input.Amount != nil {
			rec.Amount = *input.Amount
		}
		if input.Date != nil {
			rec.Date = accounting.DateOnly(*input.Date)
		}
		if input.IsActive != nil {
			rec.IsActive = *input.IsActive
		}
		if input.SharesOutstanding != nil {
			rec.SharesOutstanding = input.SharesOutstanding
		}
		if input.ParValue != nil {
			rec.ParValue = *input.ParValue
		}
		if input.Description != nil {
			rec.Description = *input.Description
		}
		check := s.check(rec)
		warnings = check.Warnings
		if err := check.Err("subledger.update"); err != nil {
			return err
		}
		rec.UpdatedAt = s.now()
		updated, err = tx.UpdateRecord(ctx, rec)
		return err
	})
	if err != nil {
		return Record{}, warnings, err
	}
	s.record(ctx, input.ActorID, "subledger.update", id, nil)
	return updated, warnings, nil
}

// Delete deactivates asset and liability records and removes the others.
func (s *Service) Delete(ctx context.Context, id int64, actorID string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		rec, err := tx.GetRecord(ctx, id)
		if err != nil {
			return err
		}
		if !rec.Kind.SoftDelete() {
			return tx.DeleteRecord(ctx, id)
		}
		rec.IsActive = false
		rec.UpdatedAt = s.now()
		_, err = tx.UpdateRecord(ctx, rec)
		return err
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "subledger.delete", id, nil)
	return nil
}

// Totals sums every active record per kind.
func (s *Service) Totals(ctx context.Context) (Totals, error) {
	var out Totals
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, err = tx.SubledgerTotals(ctx, nil)
		return err
	})
	return out, err
}

// Reconcile compares subledger totals with the journal as of asOf. Subledger
// equity includes revenues minus expenses, mirroring the derived retained
// earnings on the ledger side. Gaps are reported, never adjusted.
func (s *Service) Reconcile(ctx context.Context, asOf *time.Time) (Reconciliation, error) {
	day := accounting.DateOnly(s.now())
	if asOf != nil {
		day = accounting.DateOnly(*asOf)
	}
	var out Reconciliation
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		totals, err := tx.SubledgerTotals(ctx, &day)
		if err != nil {
			return err
		}
		lines, err := tx.LedgerLines(ctx, accounting.LineFilter{End: &day, BalancedOnly: true})
		if err != nil {
			return err
		}
		assets, liabilities, equity := accounting.EquationTotals(lines)
		out = Reconciliation{
			AsOfDate: day.Format(time.DateOnly),
			Lines: []ReconciliationLine{
				compare(KindAsset, totals.Assets, assets),
				compare(KindLiability, totals.Liabilities, liabilities),
				compare(KindEquity, totals.TotalEquity(), equity),
			},
			SubledgerEquation: validation.AccountingEquation(totals.Assets, totals.Liabilities, totals.TotalEquity()),
			LedgerEquation:    validation.AccountingEquation(assets, liabilities, equity),
		}
		out.Reconciled = true
		for _, line := range out.Lines {
			out.Reconciled = out.Reconciled && line.WithinTolerance
		}
		return nil
	})
	if err != nil {
		return Reconciliation{}, err
	}
	if !out.Reconciled {
		s.logger.Warn("subledger does not reconcile with ledger", slog.String("as_of", out.AsOfDate))
	}
	return out, nil
}

// ValidateBatch runs the amount rules over a batch without storing anything.
func (s *Service) ValidateBatch(entry validation.Entry) validation.Result {
	return validation.Batch(entry)
}

func compare(kind Kind, sub, ledger decimal.Decimal) ReconciliationLine {
	return ReconciliationLine{
		Kind:            kind,
		Subledger:       sub,
		Ledger:          ledger,
		Difference:      sub.Sub(ledger),
		WithinTolerance: accounting.WithinTolerance(sub, ledger),
	}
}

func (s *Service) check(rec Record) validation.Result {
	var res validation.Result
	if rec.Name == "" {
		res = res.Merge(validation.Result{Errors: []string{"Name is required"}})
	}
	switch rec.Kind {
	case KindAsset:
		res = res.Merge(validation.AssetValue(rec.Amount))
	case KindLiability:
		res = res.Merge(validation.LiabilityAmount(rec.Amount))
	case KindRevenue:
		res = res.Merge(validation.RevenueAmount(rec.Amount))
	case KindExpense:
		res = res.Merge(validation.ExpenseAmount(rec.Amount))
	case KindEquity:
		if rec.Amount.IsNegative() {
			res = res.Merge(validation.Result{Errors: []string{"Equity amounts must be positive"}})
		}
		res = res.Merge(validation.SharesOutstanding(rec.SharesOutstanding))
		res = res.Merge(validation.ParValue(rec.ParValue))
	}
	if rec.Kind != KindEquity && (rec.SharesOutstanding != nil || rec.ParValue.Valid) {
		res = res.Merge(validation.Result{Errors: []string{"Shares and par value apply to equity only"}})
	}
	if rec.Date.IsZero() {
		res = res.Merge(validation.Result{Errors: []string{"Date is required"}})
	} else {
		res = res.Merge(validation.DateNotFuture(rec.Date, s.now()))
	}
	return res
}

func (s *Service) record(ctx context.Context, actorID, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "subledger",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
		At:       s.now(),
	})
}
