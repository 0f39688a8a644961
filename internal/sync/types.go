// Package sync provides orchestration for mirroring accounting records from
// QuickBooks Online into the local store.
package sync

import (
	"context"
	"time"

	"github.com/peteski22/booksync/internal/auth"
	"github.com/peteski22/booksync/internal/mirror"
	"github.com/peteski22/booksync/internal/quickbooks"
)

// Request describes one sync invocation.
type Request struct {
	// Caller is the authenticated principal starting the run. Nil means unauthenticated.
	Caller *auth.Principal

	// DryRun logs mirror writes instead of executing them and leaves no run log.
	DryRun bool

	// SyncType is the requested sync type. Empty means delta.
	SyncType mirror.SyncType
}

// EntityResult contains the outcome of syncing one entity kind.
type EntityResult struct {
	// Created is the number of records inserted.
	Created int `json:"created"`

	// Failed is the number of records that could not be mapped or reconciled.
	Failed int `json:"failed"`

	// FailedIDs lists the external IDs of failed records.
	FailedIDs []string `json:"failedIds"`

	// Fetched is the number of records returned by the remote.
	Fetched int `json:"fetched"`

	// Kind is the entity kind.
	Kind mirror.Kind `json:"-"`

	// Updated is the number of existing records overwritten.
	Updated int `json:"updated"`
}

// Result contains the outcome of a sync operation.
type Result struct {
	// DryRun indicates no mirror writes were executed.
	DryRun bool

	// Entities holds per-kind outcomes in sync order.
	Entities []EntityResult

	// RequestedSyncType is the sync type the caller asked for.
	RequestedSyncType mirror.SyncType

	// RunID is the sync log entry of the run. Zero for dry runs.
	RunID uint

	// SyncType is the sync type actually performed.
	SyncType mirror.SyncType

	// TotalFetched is the number of records fetched across all kinds.
	TotalFetched int

	// TotalRecords is the number of records created or updated across all kinds.
	TotalRecords int

	// TransactionID is the diagnostic id of the first successful remote response.
	TransactionID string
}

// TotalFailed returns the number of failed records across all kinds.
func (r *Result) TotalFailed() int {
	n := 0
	for _, e := range r.Entities {
		n += e.Failed
	}
	return n
}

// Querier fetches pages of remote entities.
type Querier interface {
	// Query fetches one page of entities.
	Query(ctx context.Context, q quickbooks.Query) (*quickbooks.QueryPage, error)
}

// ClientFactory builds a Querier authorized for a connection.
type ClientFactory func(ctx context.Context, conn *mirror.Connection) (Querier, error)

// MirrorStore reads and writes mirror records.
type MirrorStore interface {
	// Insert stores a new record, assigning its local ID.
	Insert(ctx context.Context, record mirror.Record) error

	// Lookup returns the local row matching the connection and external ID, or nil when none exists.
	Lookup(ctx context.Context, table string, connectionID uint, externalID string) (*mirror.Model, error)

	// Replace overwrites every column of an existing record identified by its local ID.
	Replace(ctx context.Context, record mirror.Record) error
}

// Store manages connections, the sync log and mirror records.
type Store interface {
	MirrorStore

	// ActiveConnection returns the organization's active connection, or nil when none exists.
	ActiveConnection(ctx context.Context, organizationID string) (*mirror.Connection, error)

	// CreateSyncRun inserts a run log entry, assigning its ID.
	CreateSyncRun(ctx context.Context, run *mirror.SyncRun) error

	// FinishSyncRun writes the terminal state of a run log entry.
	FinishSyncRun(ctx context.Context, run *mirror.SyncRun) error

	// RecordFailure stores the details of one failed record.
	RecordFailure(ctx context.Context, failure *mirror.SyncFailure) error

	// RecordSyncFailure marks the connection's last sync as failed without moving its watermark.
	RecordSyncFailure(ctx context.Context, connectionID uint, message string) error

	// RecordSyncSuccess advances the connection's watermark and clears its last error.
	RecordSyncSuccess(ctx context.Context, connectionID uint, completedAt time.Time) error
}

// Lease is a held run lock that stays valid until released or lost.
type Lease interface {
	// Lost is closed when the lock could not be renewed and another run may hold it.
	Lost() <-chan struct{}

	// Release stops renewal and frees the lock.
	Release(ctx context.Context) error
}

// Locker serializes runs per connection.
type Locker interface {
	// TryLock acquires key without waiting. acquired is false when another holder has it.
	TryLock(ctx context.Context, key string) (lease Lease, acquired bool, err error)
}

// Progress receives per-kind progress notifications.
type Progress interface {
	// KindStarted is called once a kind's records have been fetched.
	KindStarted(kind mirror.Kind, total int)

	// RecordProcessed is called after each record is reconciled or fails.
	RecordProcessed(kind mirror.Kind)

	// KindFinished is called when a kind's pipeline completes.
	KindFinished(result EntityResult)
}

// noopProgress discards progress notifications.
type noopProgress struct{}

func (noopProgress) KindStarted(mirror.Kind, int) {}

func (noopProgress) RecordProcessed(mirror.Kind) {}

func (noopProgress) KindFinished(EntityResult) {}
