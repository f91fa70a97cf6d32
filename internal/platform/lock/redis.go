// Package lock provides short-lived distributed locks backed by Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained reports that another holder owns the key.
var ErrNotObtained = errors.New("platform/lock: lock not obtained")

// Default timings used when Options leaves them zero.
const (
	DefaultTTL        = 30 * time.Second
	DefaultRetryEvery = 100 * time.Millisecond
	DefaultRetries    = 20
)

// Options tunes lock acquisition.
type Options struct {
	TTL        time.Duration
	RetryEvery time.Duration
	Retries    int
}

// Redis hands out locks through redislock.
type Redis struct {
	client *redislock.Client
	opts   Options
}

// NewRedis builds a locker on top of an existing go-redis client.
func NewRedis(rdb redis.UniversalClient, opts Options) *Redis {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.RetryEvery <= 0 {
		opts.RetryEvery = DefaultRetryEvery
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	} else if opts.Retries == 0 {
		opts.Retries = DefaultRetries
	}
	return &Redis{client: redislock.New(rdb), opts: opts}
}

// Acquire obtains key, retrying linearly until the budget runs out. The returned
// release func is safe to call once.
func (r *Redis) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	l, err := r.client.Obtain(ctx, key, r.opts.TTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(r.opts.RetryEvery), r.opts.Retries),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if err != nil {
		return nil, fmt.Errorf("platform/lock: obtain %s: %w", key, err)
	}
	return func(ctx context.Context) error {
		if err := l.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("platform/lock: release %s: %w", key, err)
		}
		return nil
	}, nil
}
