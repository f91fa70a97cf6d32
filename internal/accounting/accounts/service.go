package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/shared"
)

// AuditPort records chart of accounts changes.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// StatementCache drops derived statements once a change has committed.
type StatementCache interface {
	Bump(ctx context.Context) error
}

// Service maintains the chart of accounts.
type Service struct {
	repo       RepositoryPort
	audit      AuditPort
	statements StatementCache
	logger     *slog.Logger
	now        func() time.Time
}

// NewService constructs the chart of accounts service.
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

// WithStatementCache invalidates cached statements after an account update,
// since names and classifications appear in them.
func (s *Service) WithStatementCache(c StatementCache) {
	s.statements = c
}

// CreateAccount validates numbering and parentage then inserts the account as ACTIVE.
func (s *Service) CreateAccount(ctx context.Context, input CreateAccountInput) (accounting.Account, error) {
	number := strings.TrimSpace(input.AccountNumber)
	if err := checkNumber(number, input.Type); err != nil {
		return accounting.Account{}, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return accounting.Account{}, accounting.NewValidationError("account.create", []string{"Account name is required"}, nil)
	}
	if err := checkClassification(input.BalanceClass, input.CashFlowActivity); err != nil {
		return accounting.Account{}, err
	}
	var created accounting.Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if _, err := tx.GetAccountByNumber(ctx, number); err == nil {
			return fmt.Errorf("%w: account number %s already exists", accounting.ErrDuplicateAccountNumber, number)
		} else if !errors.Is(err, accounting.ErrAccountNotFound) {
			return err
		}
		if input.ParentID != nil {
			if err := checkAncestors(ctx, tx, *input.ParentID, func(a accounting.Account) bool {
				return a.AccountNumber == number
			}); err != nil {
				return err
			}
		}
		now := s.now()
		inserted, err := tx.InsertAccount(ctx, accounting.Account{
			AccountNumber:    number,
			Name:             strings.TrimSpace(input.Name),
			Type:             input.Type,
			Status:           accounting.AccountStatusActive,
			ParentID:         input.ParentID,
			Description:      input.Description,
			IsSystem:         input.IsSystem,
			BalanceClass:     input.BalanceClass,
			CashFlowActivity: input.CashFlowActivity,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
		if err != nil {
			return err
		}
		created, err = withRelations(ctx, tx, inserted)
		return err
	})
	if err != nil {
		return accounting.Account{}, err
	}
	s.record(ctx, input.ActorID, "account.create", created.ID, map[string]any{
		"account_number": created.AccountNumber,
		"type":           string(created.Type),
	})
	return created, nil
}

// GetAccount returns the account with its parent and children.
func (s *Service) GetAccount(ctx context.Context, id int64) (accounting.Account, error) {
	var account accounting.Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		found, err := tx.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		account, err = withRelations(ctx, tx, found)
		return err
	})
	return account, err
}

// GetAccountByNumber returns the account with its parent and children.
func (s *Service) GetAccountByNumber(ctx context.Context, number string) (accounting.Account, error) {
	var account accounting.Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		found, err := tx.GetAccountByNumber(ctx, strings.TrimSpace(number))
		if err != nil {
			return err
		}
		account, err = withRelations(ctx, tx, found)
		return err
	})
	return account, err
}

// ListAccounts returns one page of accounts ordered by number and the total count.
func (s *Service) ListAccounts(ctx context.Context, filter ListAccountsFilter) ([]accounting.Account, int, error) {
	page := accounting.Page{Page: filter.Page, Limit: filter.Limit}.Normalize()
	filter.Page, filter.Limit = page.Page, page.Limit
	var (
		out   []accounting.Account
		total int
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, total, err = tx.ListAccounts(ctx, filter)
		return err
	})
	return out, total, err
}

// GetNextAccountNumber suggests the next free number for typ.
func (s *Service) GetNextAccountNumber(ctx context.Context, typ accounting.AccountType) (string, error) {
	rng, ok := accounting.RangeFor(typ)
	if !ok {
		return "", accounting.ErrInvalidAccountType
	}
	var next string
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		existing, err := tx.AllAccounts(ctx, typ)
		if err != nil {
			return err
		}
		highest := 0
		for _, acc := range existing {
			n, ok := accounting.ParseAccountNumber(acc.AccountNumber)
			if !ok || !rng.Contains(n) {
				continue
			}
			if n > highest {
				highest = n
			}
		}
		candidate := rng.Min
		if highest > 0 {
			candidate = highest + 1
		}
		if candidate > rng.Max {
			return fmt.Errorf("%w: %s", accounting.ErrRangeExhausted, typ)
		}
		next = fmt.Sprintf("%04d", candidate)
		return nil
	})
	return next, err
}

// GetAccountHierarchy returns root accounts with children nested to any depth.
func (s *Service) GetAccountHierarchy(ctx context.Context, typ accounting.AccountType) ([]accounting.Account, error) {
	if typ != "" && !typ.Valid() {
		return nil, accounting.ErrInvalidAccountType
	}
	var all []accounting.Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		all, err = tx.AllAccounts(ctx, typ)
		return err
	})
	if err != nil {
		return nil, err
	}
	return BuildHierarchy(all), nil
}

// BuildHierarchy nests accounts under their parents. Accounts whose parent is not
// in the list become roots. Order follows the input order at every level.
func BuildHierarchy(all []accounting.Account) []accounting.Account {
	present := make(map[int64]bool, len(all))
	for _, acc := range all {
		present[acc.ID] = true
	}
	children := make(map[int64][]accounting.Account)
	var roots []accounting.Account
	for _, acc := range all {
		if acc.ParentID != nil && present[*acc.ParentID] && *acc.ParentID != acc.ID {
			children[*acc.ParentID] = append(children[*acc.ParentID], acc)
			continue
		}
		roots = append(roots, acc)
	}
	visited := make(map[int64]bool, len(all))
	var attach func(acc accounting.Account) accounting.Account
	attach = func(acc accounting.Account) accounting.Account {
		visited[acc.ID] = true
		kids := children[acc.ID]
		acc.Children = make([]accounting.Account, 0, len(kids))
		for _, kid := range kids {
			if visited[kid.ID] {
				continue
			}
			acc.Children = append(acc.Children, attach(kid))
		}
		return acc
	}
	out := make([]accounting.Account, 0, len(roots))
	for _, root := range roots {
		out = append(out, attach(root))
	}
	return out
}

// UpdateAccount applies the non-nil fields of input.
func (s *Service) UpdateAccount(ctx context.Context, id int64, input UpdateAccountInput) (accounting.Account, error) {
	if input.Status != nil && !input.Status.Valid() {
		return accounting.Account{}, accounting.NewValidationError("account.update", []string{"Invalid account status"}, nil)
	}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return accounting.Account{}, accounting.NewValidationError("account.update", []string{"Account name is required"}, nil)
	}
	var bc accounting.BalanceClass
	var cf accounting.CashFlowActivity
	if input.BalanceClass != nil {
		bc = *input.BalanceClass
	}
	if input.CashFlowActivity != nil {
		cf = *input.CashFlowActivity
	}
	if err := checkClassification(bc, cf); err != nil {
		return accounting.Account{}, err
	}
	var updated accounting.Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if current.IsSystem && input.Status != nil && *input.Status == accounting.AccountStatusArchived {
			return fmt.Errorf("%w: cannot archive system account %s", accounting.ErrSystemAccount, current.AccountNumber)
		}
		if input.ParentID != nil {
			if *input.ParentID == current.ID {
				return accounting.ErrCircularParentage
			}
			if err := checkAncestors(ctx, tx, *input.ParentID, func(a accounting.Account) bool {
				return a.ID == current.ID || a.AccountNumber == current.AccountNumber
			}); err != nil {
				return err
			}
			parentID := *input.ParentID
			current.ParentID = &parentID
		}
		if input.Name != nil {
			current.Name = strings.TrimSpace(*input.Name)
		}
		if input.Description != nil {
			current.Description = *input.Description
		}
		if input.Status != nil {
			current.Status = *input.Status
		}
		if input.BalanceClass != nil {
			current.BalanceClass = *input.BalanceClass
		}
		if input.CashFlowActivity != nil {
			current.CashFlowActivity = *input.CashFlowActivity
		}
		current.UpdatedAt = s.now()
		saved, err := tx.UpdateAccount(ctx, current)
		if err != nil {
			return err
		}
		updated, err = withRelations(ctx, tx, saved)
		return err
	})
	if err != nil {
		return accounting.Account{}, err
	}
	s.invalidate(ctx)
	s.record(ctx, input.ActorID, "account.update", updated.ID, map[string]any{
		"status": string(updated.Status),
	})
	return updated, nil
}

// DeleteAccount removes an account that is not system, has no children and no history.
func (s *Service) DeleteAccount(ctx context.Context, id int64, actorID string) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccount(ctx, id)
		if err != nil {
			return err
		}
		if account.IsSystem {
			return fmt.Errorf("%w: cannot delete system account %s", accounting.ErrSystemAccount, account.AccountNumber)
		}
		kids, err := tx.ListChildren(ctx, id)
		if err != nil {
			return err
		}
		if len(kids) > 0 {
			return accounting.ErrAccountHasChildren
		}
		entries, err := tx.CountAccountEntries(ctx, id)
		if err != nil {
			return err
		}
		if entries > 0 {
			return accounting.ErrAccountHasHistory
		}
		return tx.DeleteAccount(ctx, id)
	})
	if err != nil {
		return err
	}
	s.record(ctx, actorID, "account.delete", id, nil)
	return nil
}

// SearchAccounts matches query against name or number, ACTIVE accounts only.
func (s *Service) SearchAccounts(ctx context.Context, query string, typ accounting.AccountType) ([]accounting.Account, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []accounting.Account{}, nil
	}
	var out []accounting.Account
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		out, err = tx.SearchAccounts(ctx, query, typ, SearchLimit)
		return err
	})
	return out, err
}

// SeedDefaultChart inserts every DefaultChart account that does not exist yet and
// returns how many were created.
func (s *Service) SeedDefaultChart(ctx context.Context) (int, error) {
	created := 0
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		created = 0
		now := s.now()
		for _, in := range DefaultChart() {
			if _, err := tx.GetAccountByNumber(ctx, in.AccountNumber); err == nil {
				continue
			} else if !errors.Is(err, accounting.ErrAccountNotFound) {
				return err
			}
			if _, err := tx.InsertAccount(ctx, accounting.Account{
				AccountNumber:    in.AccountNumber,
				Name:             in.Name,
				Type:             in.Type,
				Status:           accounting.AccountStatusActive,
				Description:      in.Description,
				IsSystem:         true,
				BalanceClass:     in.BalanceClass,
				CashFlowActivity: in.CashFlowActivity,
				CreatedAt:        now,
				UpdatedAt:        now,
			}); err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("default chart seeded", slog.Int("created", created))
	return created, nil
}

// EnsureAccount returns the account numbered number, creating it as an ACTIVE
// system account inside tx when missing.
func EnsureAccount(ctx context.Context, tx AccountStore, number, name string, typ accounting.AccountType, now time.Time) (accounting.Account, error) {
	existing, err := tx.GetAccountByNumber(ctx, number)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, accounting.ErrAccountNotFound) {
		return accounting.Account{}, err
	}
	if err := checkNumber(number, typ); err != nil {
		return accounting.Account{}, err
	}
	return tx.InsertAccount(ctx, accounting.Account{
		AccountNumber: number,
		Name:          name,
		Type:          typ,
		Status:        accounting.AccountStatusActive,
		IsSystem:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func checkNumber(number string, typ accounting.AccountType) error {
	n, ok := accounting.ParseAccountNumber(number)
	if !ok {
		return fmt.Errorf("%w: %q must be exactly %d digits", accounting.ErrInvalidAccountNumber, number, accounting.AccountNumberDigits)
	}
	rng, ok := accounting.RangeFor(typ)
	if !ok {
		return fmt.Errorf("%w: %q", accounting.ErrInvalidAccountType, typ)
	}
	if !rng.Contains(n) {
		return fmt.Errorf("%w: account number %d is not valid for account type %s. Valid range: %d-%d",
			accounting.ErrInvalidAccountRange, n, typ, rng.Min, rng.Max)
	}
	return nil
}

func checkClassification(bc accounting.BalanceClass, cf accounting.CashFlowActivity) error {
	var errs []string
	switch bc {
	case accounting.BalanceClassUnset, accounting.BalanceClassCurrent, accounting.BalanceClassNonCurrent:
	default:
		errs = append(errs, "Invalid balance class")
	}
	switch cf {
	case accounting.CashFlowUnset, accounting.CashFlowOperating, accounting.CashFlowInvesting, accounting.CashFlowFinancing:
	default:
		errs = append(errs, "Invalid cash flow activity")
	}
	if len(errs) > 0 {
		return accounting.NewValidationError("account.classification", errs, nil)
	}
	return nil
}

// checkAncestors walks from parentID to the root and fails when conflicts matches
// any node on the way.
func checkAncestors(ctx context.Context, tx AccountReader, parentID int64, conflicts func(accounting.Account) bool) error {
	seen := make(map[int64]bool)
	id := parentID
	first := true
	for {
		if seen[id] {
			return accounting.ErrCircularParentage
		}
		seen[id] = true
		node, err := tx.GetAccount(ctx, id)
		if err != nil {
			if first && errors.Is(err, accounting.ErrAccountNotFound) {
				return accounting.ErrParentNotFound
			}
			return err
		}
		first = false
		if conflicts(node) {
			return accounting.ErrCircularParentage
		}
		if node.ParentID == nil {
			return nil
		}
		id = *node.ParentID
	}
}

func withRelations(ctx context.Context, tx TxRepository, account accounting.Account) (accounting.Account, error) {
	if account.ParentID != nil {
		parent, err := tx.GetAccount(ctx, *account.ParentID)
		if err != nil && !errors.Is(err, accounting.ErrAccountNotFound) {
			return accounting.Account{}, err
		}
		if err == nil {
			account.Parent = &parent
		}
	}
	kids, err := tx.ListChildren(ctx, account.ID)
	if err != nil {
		return accounting.Account{}, err
	}
	account.Children = kids
	return account, nil
}

func (s *Service) record(ctx context.Context, actorID, action string, id int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "account",
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
