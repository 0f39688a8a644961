package sync

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/peteski22/booksync/internal/mirror"
)

// dryRunStore wraps a MirrorStore and logs write operations instead of executing them.
type dryRunStore struct {
	store   MirrorStore
	logger  *slog.Logger
	counter uint64
}

// newDryRunStore creates a new dryRunStore that wraps the given MirrorStore.
func newDryRunStore(store MirrorStore, logger *slog.Logger) *dryRunStore {
	return &dryRunStore{
		store:  store,
		logger: logger,
	}
}

// Insert logs what would be created and assigns a fake ID.
func (d *dryRunStore) Insert(_ context.Context, record mirror.Record) error {
	base := record.Base()
	base.ID = d.nextFakeID()

	d.logger.Info("[DRY-RUN] would create record",
		"table", record.TableName(),
		"fake_id", base.ID,
		"connection_id", base.ConnectionID,
		"external_id", base.ExternalID)

	return nil
}

// Lookup delegates to the real store.
func (d *dryRunStore) Lookup(ctx context.Context, table string, connectionID uint, externalID string) (*mirror.Model, error) {
	return d.store.Lookup(ctx, table, connectionID, externalID)
}

// Replace logs what would be updated and returns nil.
func (d *dryRunStore) Replace(_ context.Context, record mirror.Record) error {
	base := record.Base()

	d.logger.Info("[DRY-RUN] would update record",
		"table", record.TableName(),
		"id", base.ID,
		"external_id", base.ExternalID,
		"sync_token", base.SyncToken)

	return nil
}

// nextFakeID generates a unique fake ID for dry-run inserts.
func (d *dryRunStore) nextFakeID() uint {
	return uint(atomic.AddUint64(&d.counter, 1))
}
