package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/peteski22/booksync/internal/mirror"
)

// pipeline carries the per-run state shared by every kind.
type pipeline struct {
	connectionID uint
	dryRun       bool
	fetcher      *fetcher
	logger       *slog.Logger
	mirrors      MirrorStore
	progress     Progress
	runID        uint
	store        Store
	where        string
}

// syncKind fetches, maps and reconciles every record of one kind.
// Record failures are counted and skipped; fetch failures and cancellation abort the kind.
func (p *pipeline) syncKind(ctx context.Context, d descriptor) (EntityResult, error) {
	result := EntityResult{Kind: d.kind()}

	raws, err := p.fetcher.fetchAll(ctx, d.remoteName(), p.where)
	if err != nil {
		return result, fmt.Errorf("fetching %s: %w", d.kind(), err)
	}
	result.Fetched = len(raws)
	p.progress.KindStarted(d.kind(), len(raws))

	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("syncing %s: %w", d.kind(), err)
		}

		created, err := p.apply(ctx, d, raw)
		switch {
		case err != nil:
			id := externalID(raw)
			p.recordFailure(ctx, d.kind(), id, raw, err)
			result.FailedIDs = append(result.FailedIDs, id)
			result.Failed++
		case created:
			result.Created++
		default:
			result.Updated++
		}
		p.progress.RecordProcessed(d.kind())
	}

	p.progress.KindFinished(result)
	return result, nil
}

// apply maps raw and reconciles the result, reporting whether a new row was created.
func (p *pipeline) apply(ctx context.Context, d descriptor, raw json.RawMessage) (bool, error) {
	rec, err := d.decode(raw, p.connectionID)
	if err != nil {
		return false, err
	}
	return reconcile(ctx, p.mirrors, rec)
}

// recordFailure logs a failed record and stores it for later inspection.
// Storage errors are logged and otherwise ignored.
func (p *pipeline) recordFailure(ctx context.Context, kind mirror.Kind, externalID string, raw json.RawMessage, cause error) {
	p.logger.Error("failed to sync record",
		"entity", kind,
		"external_id", externalID,
		"payload", string(raw),
		"error", cause)

	if p.dryRun || p.runID == 0 {
		return
	}

	failure := &mirror.SyncFailure{
		SyncRunID:    p.runID,
		ConnectionID: p.connectionID,
		EntityKind:   kind,
		ExternalID:   externalID,
		Message:      cause.Error(),
	}
	if json.Valid(raw) {
		failure.Payload = datatypes.JSON(raw)
	}

	if err := p.store.RecordFailure(ctx, failure); err != nil {
		p.logger.Warn("failed to store record failure",
			"entity", kind,
			"external_id", externalID,
			"error", err)
	}
}

// reconcile upserts rec by (connection, external ID), reporting whether it was inserted.
// An existing row keeps its local ID and creation time and has every other column overwritten.
func reconcile(ctx context.Context, store MirrorStore, rec mirror.Record) (bool, error) {
	base := rec.Base()

	existing, err := store.Lookup(ctx, rec.TableName(), base.ConnectionID, base.ExternalID)
	if err != nil {
		return false, fmt.Errorf("looking up %s %s: %w", rec.TableName(), base.ExternalID, err)
	}

	if existing == nil {
		if err := store.Insert(ctx, rec); err != nil {
			return false, fmt.Errorf("inserting %s %s: %w", rec.TableName(), base.ExternalID, err)
		}
		return true, nil
	}

	base.ID = existing.ID
	base.CreatedAt = existing.CreatedAt
	if err := store.Replace(ctx, rec); err != nil {
		return false, fmt.Errorf("updating %s %s: %w", rec.TableName(), base.ExternalID, err)
	}
	return false, nil
}
