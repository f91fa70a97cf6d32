package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting"
	"github.com/odyssey-erp/odyssey-ledger/internal/platform/lock"
)

// PeriodLocker adapts the Redis locker to the period close port, reporting a
// held lock as a state conflict.
type PeriodLocker struct {
	locker *lock.Redis
}

// NewPeriodLocker wraps locker. A nil locker yields nil so callers can skip
// WithLocker when Redis is disabled.
func NewPeriodLocker(locker *lock.Redis) *PeriodLocker {
	if locker == nil {
		return nil
	}
	return &PeriodLocker{locker: locker}
}

// Acquire obtains the close lock for key.
func (l *PeriodLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	release, err := l.locker.Acquire(ctx, key)
	if errors.Is(err, lock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", accounting.ErrCloseInProgress, key)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: close lock: %v", accounting.ErrIntegrity, err)
	}
	return release, nil
}
