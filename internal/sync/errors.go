package sync

import (
	"context"
	"errors"
)

var (
	// ErrForbidden is returned when the caller lacks the sync permission.
	ErrForbidden = errors.New("caller is not allowed to sync")

	// ErrInvalidSyncType is returned for sync types other than delta and full.
	ErrInvalidSyncType = errors.New("invalid sync type")

	// ErrLockLost is returned when the run's lock expired or was taken over mid-run.
	ErrLockLost = errors.New("sync lock lost")

	// ErrNoConnection is returned when the caller's organization has no active connection.
	ErrNoConnection = errors.New("no active QuickBooks connection")

	// ErrSyncInProgress is returned when another run holds the connection's lock.
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrUnauthenticated is returned when the request carries no caller.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// isCancellation reports whether err stems from the caller's context ending.
func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
