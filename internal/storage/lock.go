package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"

	"github.com/peteski22/booksync/internal/sync"
)

// RedisLocker serializes sync runs across API server replicas.
// Held locks are refreshed every third of the TTL until released.
type RedisLocker struct {
	client     *redislock.Client
	renewEvery time.Duration
	ttl        time.Duration
}

// NewRedisLocker creates a locker whose locks expire after ttl unless renewed.
func NewRedisLocker(client redislock.RedisClient, ttl time.Duration) (*RedisLocker, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("lock TTL must be positive, got %v", ttl)
	}

	return &RedisLocker{
		client:     redislock.New(client),
		renewEvery: renewInterval(ttl),
		ttl:        ttl,
	}, nil
}

// TryLock obtains key without retrying.
func (l *RedisLocker) TryLock(ctx context.Context, key string) (sync.Lease, bool, error) {
	lock, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("obtaining redis lock: %w", err)
	}

	renew := func(ctx context.Context) error {
		err := lock.Refresh(ctx, l.ttl, nil)
		if errors.Is(err, redislock.ErrNotObtained) {
			return fmt.Errorf("lock %s expired before renewal", key)
		}
		if err != nil {
			return fmt.Errorf("refreshing redis lock: %w", err)
		}
		return nil
	}

	release := func(ctx context.Context) error {
		err := lock.Release(ctx)
		if errors.Is(err, redislock.ErrLockNotHeld) {
			return fmt.Errorf("lock %s expired before release", key)
		}
		if err != nil {
			return fmt.Errorf("releasing redis lock: %w", err)
		}
		return nil
	}

	return startLease(l.renewEvery, renew, release), true, nil
}

// NoopLocker always grants the lock.
// Used by the CLI, where a single process owns the database.
type NoopLocker struct{}

// TryLock always succeeds.
func (NoopLocker) TryLock(context.Context, string) (sync.Lease, bool, error) {
	return heldLease{}, true, nil
}
