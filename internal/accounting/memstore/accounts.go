package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
)

func (t *Tx) GetAccount(ctx context.Context, id int64) (accounting.Account, error) {
	acc, ok := t.st.accounts[id]
	if !ok {
		return accounting.Account{}, fmt.Errorf("%w: %d", accounting.ErrAccountNotFound, id)
	}
	return acc, nil
}

func (t *Tx) GetAccountByNumber(ctx context.Context, number string) (accounting.Account, error) {
	for _, acc := range t.st.accounts {
		if acc.AccountNumber == number {
			return acc, nil
		}
	}
	return accounting.Account{}, fmt.Errorf("%w: %s", accounting.ErrAccountNotFound, number)
}

func (t *Tx) InsertAccount(ctx context.Context, account accounting.Account) (accounting.Account, error) {
	for _, acc := range t.st.accounts {
		if acc.AccountNumber == account.AccountNumber {
			return accounting.Account{}, fmt.Errorf("%w: %s", accounting.ErrDuplicateAccountNumber, account.AccountNumber)
		}
	}
	account.ID = t.st.next("accounts")
	account.Parent, account.Children = nil, nil
	t.st.accounts[account.ID] = account
	return account, nil
}

func (t *Tx) ListAccounts(ctx context.Context, filter accounts.ListAccountsFilter) ([]accounting.Account, int, error) {
	all := t.sortedAccounts(func(acc accounting.Account) bool {
		if filter.Type != "" && acc.Type != filter.Type {
			return false
		}
		if filter.Status != "" && acc.Status != filter.Status {
			return false
		}
		return !filter.ParentOnly || acc.ParentID == nil
	})
	return paginate(all, accounting.Page{Page: filter.Page, Limit: filter.Limit}), len(all), nil
}

func (t *Tx) AllAccounts(ctx context.Context, typ accounting.AccountType) ([]accounting.Account, error) {
	return t.sortedAccounts(func(acc accounting.Account) bool {
		return typ == "" || acc.Type == typ
	}), nil
}

func (t *Tx) ListChildren(ctx context.Context, parentID int64) ([]accounting.Account, error) {
	return t.sortedAccounts(func(acc accounting.Account) bool {
		return acc.ParentID != nil && *acc.ParentID == parentID
	}), nil
}

func (t *Tx) UpdateAccount(ctx context.Context, account accounting.Account) (accounting.Account, error) {
	if _, ok := t.st.accounts[account.ID]; !ok {
		return accounting.Account{}, fmt.Errorf("%w: %d", accounting.ErrAccountNotFound, account.ID)
	}
	account.Parent, account.Children = nil, nil
	t.st.accounts[account.ID] = account
	return account, nil
}

func (t *Tx) DeleteAccount(ctx context.Context, id int64) error {
	if _, ok := t.st.accounts[id]; !ok {
		return fmt.Errorf("%w: %d", accounting.ErrAccountNotFound, id)
	}
	delete(t.st.accounts, id)
	return nil
}

func (t *Tx) CountAccountEntries(ctx context.Context, accountID int64) (int, error) {
	count := 0
	for _, entries := range t.st.entries {
		for _, e := range entries {
			if e.AccountID == accountID {
				count++
			}
		}
	}
	return count, nil
}

func (t *Tx) SearchAccounts(ctx context.Context, query string, typ accounting.AccountType, limit int) ([]accounting.Account, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	out := t.sortedAccounts(func(acc accounting.Account) bool {
		if acc.Status != accounting.AccountStatusActive {
			return false
		}
		if typ != "" && acc.Type != typ {
			return false
		}
		return strings.Contains(strings.ToLower(acc.Name), q) || strings.Contains(acc.AccountNumber, q)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *Tx) AccountsByIDs(ctx context.Context, ids []int64) (map[int64]accounting.Account, error) {
	out := make(map[int64]accounting.Account, len(ids))
	for _, id := range ids {
		if acc, ok := t.st.accounts[id]; ok {
			out[id] = acc
		}
	}
	return out, nil
}

func (t *Tx) sortedAccounts(keep func(accounting.Account) bool) []accounting.Account {
	out := make([]accounting.Account, 0, len(t.st.accounts))
	for _, acc := range t.st.accounts {
		if keep(acc) {
			out = append(out, acc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AccountNumber < out[j].AccountNumber })
	return out
}

func paginate[T any](items []T, page accounting.Page) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
