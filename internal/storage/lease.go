package storage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// renewingLease keeps a held lock alive until it is released or a renewal fails.
type renewingLease struct {
	// done is closed when the renewal loop exits.
	done chan struct{}

	// err records the renewal failure that closed lost.
	err error

	// lost is closed when a renewal fails.
	lost chan struct{}

	// release frees the underlying lock.
	release func(context.Context) error

	// stop ends the renewal loop.
	stop context.CancelFunc
}

// renewInterval is how often a lock with the given TTL is extended.
func renewInterval(ttl time.Duration) time.Duration {
	return ttl / 3
}

// startLease begins calling renew every interval.
// Each renewal attempt is bounded by interval.
func startLease(
	interval time.Duration,
	renew func(context.Context) error,
	release func(context.Context) error,
) *renewingLease {
	ctx, stop := context.WithCancel(context.Background())
	l := &renewingLease{
		done:    make(chan struct{}),
		lost:    make(chan struct{}),
		release: release,
		stop:    stop,
	}
	go l.keepAlive(ctx, interval, renew)
	return l
}

func (l *renewingLease) keepAlive(ctx context.Context, interval time.Duration, renew func(context.Context) error) {
	defer close(l.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			renewCtx, cancel := context.WithTimeout(ctx, interval)
			err := renew(renewCtx)
			cancel()

			if err == nil {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			l.err = err
			close(l.lost)
			return
		}
	}
}

// Lost is closed when the lock could not be renewed.
func (l *renewingLease) Lost() <-chan struct{} {
	return l.lost
}

// Release stops renewal and frees the lock.
// A prior renewal failure is reported alongside any release error.
func (l *renewingLease) Release(ctx context.Context) error {
	l.stop()
	<-l.done

	var renewErr error
	if l.err != nil {
		renewErr = fmt.Errorf("renewing lock: %w", l.err)
	}
	return errors.Join(renewErr, l.release(ctx))
}

// heldLease is a lease that never expires.
type heldLease struct{}

// Lost returns a nil channel, which never fires.
func (heldLease) Lost() <-chan struct{} {
	return nil
}

func (heldLease) Release(context.Context) error {
	return nil
}
