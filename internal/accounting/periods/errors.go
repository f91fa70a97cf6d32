package periods

import (
	"errors"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
)

func isNotFound(err error) bool {
	return errors.Is(err, accounting.ErrNotFound)
}

func isUnbalanced(err error) bool {
	return errors.Is(err, accounting.ErrUnbalancedTransactions)
}

func isStateConflict(err error) bool {
	return errors.Is(err, accounting.ErrStateConflict)
}
