package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/accounts"
)

const accountColumns = `id, account_number, name, type, status, parent_id, description, is_system,
	balance_class, cash_flow_activity, created_at, updated_at`

func scanAccount(row pgx.Row) (accounting.Account, error) {
	var acc accounting.Account
	err := row.Scan(
		&acc.ID, &acc.AccountNumber, &acc.Name, &acc.Type, &acc.Status, &acc.ParentID,
		&acc.Description, &acc.IsSystem, &acc.BalanceClass, &acc.CashFlowActivity,
		&acc.CreatedAt, &acc.UpdatedAt,
	)
	return acc, err
}

func (t *Tx) queryAccounts(ctx context.Context, sql string, args ...any) ([]accounting.Account, error) {
	rows, err := t.tx.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]accounting.Account, 0)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acc)
	}
	return out, rows.Err()
}

func (t *Tx) GetAccount(ctx context.Context, id int64) (accounting.Account, error) {
	acc, err := scanAccount(t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		return accounting.Account{}, notFound(err, accounting.ErrAccountNotFound, id)
	}
	return acc, nil
}

func (t *Tx) GetAccountByNumber(ctx context.Context, number string) (accounting.Account, error) {
	acc, err := scanAccount(t.tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE account_number = $1`, number))
	if err != nil {
		return accounting.Account{}, notFound(err, accounting.ErrAccountNotFound, number)
	}
	return acc, nil
}

func (t *Tx) InsertAccount(ctx context.Context, account accounting.Account) (accounting.Account, error) {
	row := t.tx.QueryRow(ctx, `
INSERT INTO accounts (account_number, name, type, status, parent_id, description, is_system,
	balance_class, cash_flow_activity, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING `+accountColumns,
		account.AccountNumber, account.Name, account.Type, account.Status, account.ParentID,
		account.Description, account.IsSystem, account.BalanceClass, account.CashFlowActivity,
		account.CreatedAt, account.UpdatedAt,
	)
	acc, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return accounting.Account{}, fmt.Errorf("%w: %s", accounting.ErrDuplicateAccountNumber, account.AccountNumber)
		}
		return accounting.Account{}, err
	}
	return acc, nil
}

func (t *Tx) ListAccounts(ctx context.Context, filter accounts.ListAccountsFilter) ([]accounting.Account, int, error) {
	var w where
	if filter.Type != "" {
		w.add("type = $%d", filter.Type)
	}
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}
	if filter.ParentOnly {
		w.raw("parent_id IS NULL")
	}
	var total int
	if err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM accounts`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	limit := w.page(accounting.Page{Page: filter.Page, Limit: filter.Limit})
	out, err := t.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts`+w.String()+` ORDER BY account_number`+limit, w.args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (t *Tx) AllAccounts(ctx context.Context, typ accounting.AccountType) ([]accounting.Account, error) {
	return t.queryAccounts(ctx, `
SELECT `+accountColumns+` FROM accounts
WHERE ($1 = '' OR type = $1)
ORDER BY account_number`, string(typ))
}

func (t *Tx) ListChildren(ctx context.Context, parentID int64) ([]accounting.Account, error) {
	return t.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE parent_id = $1 ORDER BY account_number`, parentID)
}

func (t *Tx) UpdateAccount(ctx context.Context, account accounting.Account) (accounting.Account, error) {
	row := t.tx.QueryRow(ctx, `
UPDATE accounts SET
	name = $2, status = $3, parent_id = $4, description = $5,
	balance_class = $6, cash_flow_activity = $7, updated_at = $8
WHERE id = $1
RETURNING `+accountColumns,
		account.ID, account.Name, account.Status, account.ParentID, account.Description,
		account.BalanceClass, account.CashFlowActivity, account.UpdatedAt,
	)
	acc, err := scanAccount(row)
	if err != nil {
		return accounting.Account{}, notFound(err, accounting.ErrAccountNotFound, account.ID)
	}
	return acc, nil
}

func (t *Tx) DeleteAccount(ctx context.Context, id int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireAffected(tag, accounting.ErrAccountNotFound, id)
}

func (t *Tx) CountAccountEntries(ctx context.Context, accountID int64) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, `SELECT COUNT(*) FROM journal_entries WHERE account_id = $1`, accountID).Scan(&count)
	return count, err
}

func (t *Tx) SearchAccounts(ctx context.Context, query string, typ accounting.AccountType, limit int) ([]accounting.Account, error) {
	if limit <= 0 {
		limit = accounts.SearchLimit
	}
	pattern := "%" + strings.TrimSpace(query) + "%"
	return t.queryAccounts(ctx, `
SELECT `+accountColumns+` FROM accounts
WHERE status = 'ACTIVE'
  AND ($2 = '' OR type = $2)
  AND (name ILIKE $1 OR account_number LIKE $1)
ORDER BY account_number
LIMIT $3`, pattern, string(typ), limit)
}

func (t *Tx) AccountsByIDs(ctx context.Context, ids []int64) (map[int64]accounting.Account, error) {
	out := make(map[int64]accounting.Account, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	list, err := t.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, acc := range list {
		out[acc.ID] = acc
	}
	return out, nil
}
