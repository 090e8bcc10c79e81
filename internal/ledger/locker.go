package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

// Locker provides mutual exclusion over wallets across service instances. The returned
// release func must be called on every exit path.
type Locker interface {
	Lock(ctx context.Context, walletIDs []string) (release func(context.Context) error, err error)
}

// RedisLockOptions tunes the RedLock mutexes.
type RedisLockOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultRedisLockOptions suits short ledger postings.
func DefaultRedisLockOptions() RedisLockOptions {
	return RedisLockOptions{
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 50 * time.Millisecond,
	}
}

// RedisLocker takes one redsync mutex per wallet, in id order.
type RedisLocker struct {
	rs   *redsync.Redsync
	opts RedisLockOptions
}

// NewRedisLocker builds a locker on the given client.
func NewRedisLocker(client *redis.Client, opts RedisLockOptions) *RedisLocker {
	defaults := DefaultRedisLockOptions()
	if opts.Expiry <= 0 {
		opts.Expiry = defaults.Expiry
	}
	if opts.Tries <= 0 {
		opts.Tries = defaults.Tries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaults.RetryDelay
	}
	return &RedisLocker{rs: redsync.New(goredis.NewPool(client)), opts: opts}
}

func lockKey(walletID string) string {
	return "lock:wallet:" + walletID
}

// Lock acquires every wallet mutex or none of them.
func (l *RedisLocker) Lock(ctx context.Context, walletIDs []string) (func(context.Context) error, error) {
	ids := lockOrder(walletIDs)
	held := make([]*redsync.Mutex, 0, len(ids))

	release := func(ctx context.Context) error {
		var errs []error
		for i := len(held) - 1; i >= 0; i-- {
			if ok, err := held[i].UnlockContext(ctx); err != nil {
				errs = append(errs, fmt.Errorf("unlock %s: %w", held[i].Name(), err))
			} else if !ok {
				errs = append(errs, fmt.Errorf("unlock %s: lock already expired", held[i].Name()))
			}
		}
		return errors.Join(errs...)
	}

	for _, id := range ids {
		mutex := l.rs.NewMutex(lockKey(id),
			redsync.WithExpiry(l.opts.Expiry),
			redsync.WithTries(l.opts.Tries),
			redsync.WithRetryDelay(l.opts.RetryDelay),
		)
		if err := mutex.LockContext(ctx); err != nil {
			_ = release(context.WithoutCancel(ctx))
			return nil, fmt.Errorf("%w: acquire %s: %w", ErrUnavailable, mutex.Name(), err)
		}
		held = append(held, mutex)
	}
	return release, nil
}
