package mappings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

// ErrMappingNotFound indicates a role without a configured account.
var ErrMappingNotFound = fmt.Errorf("%w: account mapping", accounting.ErrNotFound)

// AccountReader resolves accounts by number.
type AccountReader interface {
	GetAccountByNumber(ctx context.Context, number string) (accounting.Account, error)
}

// Registry maps roles to account numbers.
type Registry struct {
	mappings map[Role]AccountMapping
}

// Defaults returns the standard role assignments.
func Defaults() []AccountMapping {
	return []AccountMapping{
		{Role: RoleCash, AccountNumber: "1000", Name: "Cash"},
		{Role: RoleAccruedLiabilities, AccountNumber: "2200", Name: "Accrued Liabilities"},
		{Role: RoleDeferredAssets, AccountNumber: "1199", Name: "Deferred Assets"},
		{Role: RoleRetainedEarnings, AccountNumber: "3100", Name: "Retained Earnings"},
	}
}

// NewRegistry builds a registry from the defaults, replacing any role present in
// overrides. Blank override values are ignored.
func NewRegistry(overrides map[Role]string) (*Registry, error) {
	r := &Registry{mappings: make(map[Role]AccountMapping)}
	for _, m := range Defaults() {
		r.mappings[m.Role] = m
	}
	for role, number := range overrides {
		number = strings.TrimSpace(number)
		if number == "" {
			continue
		}
		if _, ok := accounting.ParseAccountNumber(number); !ok {
			return nil, fmt.Errorf("mappings: %s: %w", role, accounting.ErrInvalidAccountNumber)
		}
		m, ok := r.mappings[role]
		if !ok {
			m = AccountMapping{Role: role}
		}
		m.AccountNumber = number
		r.mappings[role] = m
	}
	return r, nil
}

// Number returns the account number configured for role.
func (r *Registry) Number(role Role) string {
	if r == nil {
		for _, m := range Defaults() {
			if m.Role == role {
				return m.AccountNumber
			}
		}
		return ""
	}
	return r.mappings[role].AccountNumber
}

// Get returns the mapping for role.
func (r *Registry) Get(role Role) (AccountMapping, error) {
	if r == nil {
		return AccountMapping{}, ErrMappingNotFound
	}
	m, ok := r.mappings[role]
	if !ok || m.AccountNumber == "" {
		return AccountMapping{}, fmt.Errorf("%w: %s", ErrMappingNotFound, role)
	}
	return m, nil
}

// Resolve loads the account mapped to role.
func (r *Registry) Resolve(ctx context.Context, reader AccountReader, role Role) (accounting.Account, error) {
	m, err := r.Get(role)
	if err != nil {
		return accounting.Account{}, err
	}
	account, err := reader.GetAccountByNumber(ctx, m.AccountNumber)
	if err != nil {
		if errors.Is(err, accounting.ErrAccountNotFound) {
			return accounting.Account{}, fmt.Errorf("%w: %s account %s", accounting.ErrAccountNotFound, role, m.AccountNumber)
		}
		return accounting.Account{}, err
	}
	return account, nil
}
