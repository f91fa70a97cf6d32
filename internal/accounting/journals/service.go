package journals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// AuditPort records ledger events for compliance.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Metrics receives transaction counters.
type Metrics interface {
	TransactionCreated(balanced bool)
}

// StatementCache drops derived statements once a change has committed.
type StatementCache interface {
	Bump(ctx context.Context) error
}

// Service records, edits and inspects transactions and their journal entries.
type Service struct {
	repo       RepositoryPort
	audit      AuditPort
	metrics    Metrics
	statements StatementCache
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs the journal service.
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

// WithMetrics attaches transaction counters.
func (s *Service) WithMetrics(m Metrics) {
	s.metrics = m
}

// WithStatementCache invalidates cached statements after every committed change.
func (s *Service) WithStatementCache(c StatementCache) {
	s.statements = c
}

// ValidateEntries runs ValidateJournalEntries against the stored accounts without
// writing anything.
func (s *Service) ValidateEntries(ctx context.Context, entries []EntryInput) (ValidationResult, error) {
	var res ValidationResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		accounts, err := tx.AccountsByIDs(ctx, accountIDs(entries))
		if err != nil {
			return err
		}
		res = ValidateJournalEntries(entries, accounts)
		return nil
	})
	return res, err
}

// CreateTransaction validates and persists a transaction with its entries in one
// unit. Unbalanced sets are stored with IsBalanced=false; structurally invalid sets
// are rejected with a *accounting.ValidationError and nothing is written.
func (s *Service) CreateTransaction(ctx context.Context, input CreateTransactionInput) (CreateResult, error) {
	if errs := checkHeader(input); len(errs) > 0 {
		return CreateResult{}, accounting.NewValidationError("transaction.create", errs, nil)
	}
	var result CreateResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := lockPostingPeriod(ctx, tx, input.PeriodID)
		if err != nil {
			return err
		}
		if period.Status != accounting.PeriodStatusOpen {
			return fmt.Errorf("%w: %s is %s", accounting.ErrPeriodNotOpen, period.Name, period.Status)
		}
		if !period.Contains(input.Date) {
			return fmt.Errorf("%w: %s not within %s", accounting.ErrDateOutOfRange, input.Date.Format(time.DateOnly), period.Name)
		}
		txn := accounting.Transaction{
			Type:        input.Type,
			Description: strings.TrimSpace(input.Description),
			Amount:      input.Amount,
			Date:        accounting.DateOnly(input.Date),
			PeriodID:    period.ID,
			Reference:   input.Reference,
			AssetID:     input.AssetID,
			LiabilityID: input.LiabilityID,
			EquityID:    input.EquityID,
			RevenueID:   input.RevenueID,
			ExpenseID:   input.ExpenseID,
		}
		saved, check, err := Record(ctx, tx, txn, input.Entries, s.now())
		if err != nil {
			return err
		}
		result = CreateResult{Transaction: saved, Warnings: check.Warnings}
		return nil
	})
	if err != nil {
		return CreateResult{}, err
	}
	txn := result.Transaction
	s.invalidate(ctx)
	if s.metrics != nil {
		s.metrics.TransactionCreated(txn.IsBalanced)
	}
	if !txn.IsBalanced {
		s.logger.Warn("unbalanced transaction recorded",
			slog.Int64("transaction_id", txn.ID),
			slog.Int64("period_id", txn.PeriodID))
	}
	s.record(ctx, input.ActorID, "transaction.create", txn.ID, map[string]any{
		"type":        string(txn.Type),
		"period_id":   txn.PeriodID,
		"is_balanced": txn.IsBalanced,
		"amount":      txn.Amount.StringFixed(2),
	})
	return result, nil
}

// Record validates entries, then writes txn and its entries through tx. The caller
// owns period checks. The returned result carries the validation warnings, plus a
// future-date warning relative to now.
func Record(ctx context.Context, tx Poster, txn accounting.Transaction, entries []EntryInput, now time.Time) (accounting.Transaction, ValidationResult, error) {
	accounts, err := tx.AccountsByIDs(ctx, accountIDs(entries))
	if err != nil {
		return accounting.Transaction{}, ValidationResult{}, err
	}
	check := ValidateJournalEntries(entries, accounts)
	if !check.IsValid {
		return accounting.Transaction{}, check, accounting.NewValidationError("transaction.entries", check.Errors, check.Warnings)
	}
	if accounting.DateOnly(txn.Date).After(accounting.DateOnly(now)) {
		check.Warnings = append(check.Warnings, "Transaction date is in the future")
	}
	if txn.Amount.IsZero() {
		txn.Amount = check.TotalDebits
	}
	txn.IsBalanced = check.IsBalanced
	txn.CreatedAt = now
	txn.UpdatedAt = now
	saved, err := tx.InsertTransaction(ctx, txn)
	if err != nil {
		return accounting.Transaction{}, check, err
	}
	stored, err := tx.InsertJournalEntries(ctx, saved.ID, toEntries(entries, accounts))
	if err != nil {
		return accounting.Transaction{}, check, err
	}
	saved.Entries = debitsFirst(stored)
	return saved, check, nil
}

// GetTransaction returns a transaction with its entries, debits first.
func (s *Service) GetTransaction(ctx context.Context, id int64) (accounting.Transaction, error) {
	var txn accounting.Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		txn, err = tx.GetTransaction(ctx, id)
		return err
	})
	if err != nil {
		return accounting.Transaction{}, err
	}
	txn.Entries = debitsFirst(txn.Entries)
	return txn, nil
}

// ListTransactions returns one page ordered by date descending and the total count.
func (s *Service) ListTransactions(ctx context.Context, filter TransactionFilter) ([]accounting.Transaction, int, error) {
	page := accounting.Page{Page: filter.Page, Limit: filter.Limit}.Normalize()
	filter.Page, filter.Limit = page.Page, page.Limit
	var (
		out   []accounting.Transaction
		total int
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, total, err = tx.ListTransactions(ctx, filter)
		return err
	})
	return out, total, err
}

// UpdateTransaction edits the header of an unbalanced transaction in an OPEN period.
func (s *Service) UpdateTransaction(ctx context.Context, id int64, input UpdateTransactionInput) (accounting.Transaction, error) {
	if input.Amount != nil && input.Amount.IsNegative() {
		return accounting.Transaction{}, accounting.NewValidationError("transaction.update", []string{"Amount must be positive"}, nil)
	}
	var updated accounting.Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, period, err := editable(ctx, tx, id)
		if err != nil {
			return err
		}
		if input.Date != nil {
			if !period.Contains(*input.Date) {
				return fmt.Errorf("%w: %s not within %s", accounting.ErrDateOutOfRange, input.Date.Format(time.DateOnly), period.Name)
			}
			current.Date = accounting.DateOnly(*input.Date)
		}
		if input.Description != nil {
			current.Description = strings.TrimSpace(*input.Description)
		}
		if input.Reference != nil {
			current.Reference = *input.Reference
		}
		if input.Amount != nil {
			current.Amount = *input.Amount
		}
		current.UpdatedAt = s.now()
		saved, err := tx.UpdateTransaction(ctx, current)
		if err != nil {
			return err
		}
		saved.Entries = debitsFirst(current.Entries)
		updated = saved
		return nil
	})
	if err != nil {
		return accounting.Transaction{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, input.ActorID, "transaction.update", id, nil)
	return updated, nil
}

// DeleteTransaction removes an unbalanced transaction in an OPEN period together
// with its entries.
func (s *Service) DeleteTransaction(ctx context.Context, id int64, actorID string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, _, err := editable(ctx, tx, id); err != nil {
			return err
		}
		return tx.DeleteTransaction(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	s.record(ctx, actorID, "transaction.delete", id, nil)
	return nil
}

// GetUnbalancedTransactions lists every transaction flagged unbalanced.
func (s *Service) GetUnbalancedTransactions(ctx context.Context) ([]accounting.Transaction, error) {
	var out []accounting.Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, err = tx.ListUnbalancedTransactions(ctx)
		return err
	})
	return out, err
}

// GetTransactionSummary groups transactions in the optional window by type,
// most frequent first.
func (s *Service) GetTransactionSummary(ctx context.Context, start, end *time.Time) ([]TypeSummary, error) {
	var out []TypeSummary
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, err = tx.TransactionSummary(ctx, start, end)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

// BalanceTransaction records a reviewer's assertion that the transaction is
// balanced. Amounts are not re-summed.
func (s *Service) BalanceTransaction(ctx context.Context, id int64, actorID string) (accounting.Transaction, error) {
	var txn accounting.Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		period, err := tx.GetPeriodForUpdate(ctx, current.PeriodID)
		if err != nil {
			return err
		}
		if period.Status != accounting.PeriodStatusOpen {
			return fmt.Errorf("%w: %s is %s", accounting.ErrPeriodNotOpen, period.Name, period.Status)
		}
		if !current.IsBalanced {
			if err := tx.SetTransactionBalanced(ctx, id, true); err != nil {
				return err
			}
			current.IsBalanced = true
		}
		current.Entries = debitsFirst(current.Entries)
		txn = current
		return nil
	})
	if err != nil {
		return accounting.Transaction{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, actorID, "transaction.balance", id, nil)
	return txn, nil
}

// GetAccountBalance nets the entries of balanced transactions for accountID in the
// optional window on the account's normal side.
func (s *Service) GetAccountBalance(ctx context.Context, accountID int64, start, end *time.Time) (AccountBalance, error) {
	var out AccountBalance
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccount(ctx, accountID)
		if err != nil {
			return err
		}
		lines, err := tx.LedgerLines(ctx, accounting.LineFilter{
			AccountID:    accountID,
			Start:        start,
			End:          end,
			BalancedOnly: true,
		})
		if err != nil {
			return err
		}
		debits, credits := decimal.Zero, decimal.Zero
		for _, line := range lines {
			debits = debits.Add(line.Debit)
			credits = credits.Add(line.Credit)
		}
		out = AccountBalance{
			AccountID:     account.ID,
			AccountNumber: account.AccountNumber,
			AccountName:   account.Name,
			AccountType:   account.Type,
			TotalDebits:   debits,
			TotalCredits:  credits,
			Balance:       accounting.SignedAmount(account.Type, debits, credits),
			StartDate:     start,
			EndDate:       end,
		}
		return nil
	})
	return out, err
}

func lockPostingPeriod(ctx context.Context, tx TxRepository, periodID int64) (accounting.Period, error) {
	if periodID == 0 {
		current, err := tx.GetCurrentPeriod(ctx)
		if err != nil {
			if errors.Is(err, accounting.ErrPeriodNotFound) {
				return accounting.Period{}, fmt.Errorf("%w: no period specified and no current period found", accounting.ErrPeriodNotFound)
			}
			return accounting.Period{}, err
		}
		periodID = current.ID
	}
	return tx.GetPeriodForUpdate(ctx, periodID)
}

// editable loads a transaction that may still be changed: unbalanced, in an OPEN period.
func editable(ctx context.Context, tx TxRepository, id int64) (accounting.Transaction, accounting.Period, error) {
	current, err := tx.GetTransaction(ctx, id)
	if err != nil {
		return accounting.Transaction{}, accounting.Period{}, err
	}
	if current.IsBalanced {
		return accounting.Transaction{}, accounting.Period{}, accounting.ErrTransactionBalanced
	}
	period, err := tx.GetPeriodForUpdate(ctx, current.PeriodID)
	if err != nil {
		return accounting.Transaction{}, accounting.Period{}, err
	}
	if period.Status != accounting.PeriodStatusOpen {
		return accounting.Transaction{}, accounting.Period{}, fmt.Errorf("%w: %s is %s", accounting.ErrPeriodNotOpen, period.Name, period.Status)
	}
	return current, period, nil
}

func checkHeader(input CreateTransactionInput) []string {
	var errs []string
	if !input.Type.Valid() {
		errs = append(errs, fmt.Sprintf("Invalid transaction type %q", input.Type))
	}
	if input.Date.IsZero() {
		errs = append(errs, "Transaction date is required")
	}
	if input.Amount.IsNegative() {
		errs = append(errs, "Amount must be positive")
	}
	if len(input.Entries) == 0 {
		errs = append(errs, "Transaction must have at least 1 journal entry")
	}
	return errs
}

func debitsFirst(entries []accounting.JournalEntry) []accounting.JournalEntry {
	out := append([]accounting.JournalEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Debit.Valid && !out[j].Debit.Valid
	})
	return out
}

func (s *Service) record(ctx context.Context, actorID, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "transaction",
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
