package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/datatypes"

	"github.com/peteski22/booksync/internal/mirror"
)

// Config holds the required configuration for creating a Service.
type Config struct {
	// Clients builds the remote client for a connection.
	Clients ClientFactory

	// Locker serializes runs per connection.
	Locker Locker

	// Logger is the structured logger for the service.
	Logger *slog.Logger

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time

	// PageSize is the number of records requested per page. Default is 1000, the remote's cap.
	PageSize int

	// Progress receives per-kind progress. Optional.
	Progress Progress

	// Store persists connections, the sync log and mirror records.
	Store Store
}

// validate checks that all required Config fields are set.
func (c *Config) validate() error {
	var errs []error
	if c.Clients == nil {
		errs = append(errs, errors.New("client factory is required"))
	}
	if c.Locker == nil {
		errs = append(errs, errors.New("locker is required"))
	}
	if c.Store == nil {
		errs = append(errs, errors.New("store is required"))
	}
	if c.PageSize < 0 || c.PageSize > defaultPageSize {
		errs = append(errs, fmt.Errorf("page size must be between 1 and %d, got %d", defaultPageSize, c.PageSize))
	}
	return errors.Join(errs...)
}

// Service orchestrates syncing every entity kind for one connection.
type Service struct {
	clients  ClientFactory
	locker   Locker
	logger   *slog.Logger
	now      func() time.Time
	pageSize int
	progress Progress
	store    Store
}

// New creates a new sync orchestration service.
func New(cfg Config) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	pageSize := cfg.PageSize
	if pageSize == 0 {
		pageSize = defaultPageSize
	}

	progress := cfg.Progress
	if progress == nil {
		progress = noopProgress{}
	}

	return &Service{
		clients:  cfg.Clients,
		locker:   cfg.Locker,
		logger:   logger,
		now:      now,
		pageSize: pageSize,
		progress: progress,
		store:    cfg.Store,
	}, nil
}

// Run executes one sync of every entity kind for the caller's organization.
// No run log entry is written when the caller, connection or lock checks fail.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.Caller == nil {
		return nil, ErrUnauthenticated
	}
	if !req.Caller.CanSync() {
		return nil, ErrForbidden
	}

	requested := req.SyncType
	if requested == "" {
		requested = mirror.SyncTypeDelta
	}
	if requested != mirror.SyncTypeDelta && requested != mirror.SyncTypeFull {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSyncType, requested)
	}

	conn, err := s.store.ActiveConnection(ctx, req.Caller.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("loading connection: %w", err)
	}
	if conn == nil {
		return nil, ErrNoConnection
	}

	lease, acquired, err := s.locker.TryLock(ctx, lockKey(conn.ID))
	if err != nil {
		return nil, fmt.Errorf("acquiring sync lock: %w", err)
	}
	if !acquired {
		return nil, ErrSyncInProgress
	}
	defer func() {
		if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release sync lock", "connection_id", conn.ID, "error", err)
		}
	}()

	// A lost lock cancels the run.
	runCtx, cancelRun := context.WithCancelCause(ctx)
	defer cancelRun(nil)
	go func() {
		select {
		case <-lease.Lost():
			s.logger.Error("sync lock lost, cancelling run", "connection_id", conn.ID)
			cancelRun(ErrLockLost)
		case <-runCtx.Done():
		}
	}()

	effective, where := buildFilter(conn, requested)
	if effective != requested {
		s.logger.Info("no watermark, performing full sync", "connection_id", conn.ID)
	}

	run := &mirror.SyncRun{
		ConnectionID:      conn.ID,
		EffectiveSyncType: effective,
		StartedAt:         s.now(),
		Status:            mirror.SyncStatusStarted,
		SyncType:          requested,
		TriggeredBy:       req.Caller.UserID,
	}
	if !req.DryRun {
		if err := s.store.CreateSyncRun(ctx, run); err != nil {
			return nil, fmt.Errorf("logging sync start: %w", err)
		}
	}

	s.logger.Info("starting sync",
		"run_id", run.ID,
		"connection_id", conn.ID,
		"requested_sync_type", requested,
		"sync_type", effective,
		"dry_run", req.DryRun)

	result := &Result{
		DryRun:            req.DryRun,
		RequestedSyncType: requested,
		RunID:             run.ID,
		SyncType:          effective,
	}

	f, runErr := s.syncAll(runCtx, conn, run.ID, where, req.DryRun, result)
	if f != nil {
		result.TransactionID = f.transactionID
	}
	runErr = checkLease(runCtx, lease, runErr)

	if req.DryRun {
		if runErr != nil {
			return nil, runErr
		}
		s.logger.Info("dry run completed", "total_fetched", result.TotalFetched, "total_records", result.TotalRecords)
		return result, nil
	}

	// Finalization must reach a terminal state even when the caller has gone away.
	finalCtx := context.WithoutCancel(ctx)

	if runErr != nil {
		s.finishFailure(finalCtx, conn, run, result, runErr)
		return nil, runErr
	}

	if err := s.finishSuccess(finalCtx, conn, run, result); err != nil {
		return nil, err
	}
	return result, nil
}

// checkLease folds a lost lock into the run's outcome.
// A run that finished after its lock was lost still fails.
func checkLease(runCtx context.Context, lease Lease, runErr error) error {
	if cause := context.Cause(runCtx); runErr != nil && errors.Is(cause, ErrLockLost) {
		return fmt.Errorf("%w: %w", ErrLockLost, runErr)
	}
	if runErr != nil {
		return runErr
	}

	select {
	case <-lease.Lost():
		return ErrLockLost
	default:
		return nil
	}
}

// syncAll runs every kind's pipeline in order, accumulating into result.
// The returned fetcher carries the captured transaction ID even on failure.
func (s *Service) syncAll(
	ctx context.Context,
	conn *mirror.Connection,
	runID uint,
	where string,
	dryRun bool,
	result *Result,
) (*fetcher, error) {
	client, err := s.clients(ctx, conn)
	if err != nil {
		return nil, fmt.Errorf("creating QuickBooks client: %w", err)
	}

	var mirrors MirrorStore = s.store
	if dryRun {
		mirrors = newDryRunStore(s.store, s.logger)
	}

	f := &fetcher{client: client, pageSize: s.pageSize}
	p := &pipeline{
		connectionID: conn.ID,
		dryRun:       dryRun,
		fetcher:      f,
		logger:       s.logger,
		mirrors:      mirrors,
		progress:     s.progress,
		runID:        runID,
		store:        s.store,
		where:        where,
	}

	for _, d := range entities {
		er, err := p.syncKind(ctx, d)
		if err != nil {
			return f, err
		}

		result.Entities = append(result.Entities, er)
		result.TotalFetched += er.Fetched
		result.TotalRecords += er.Created + er.Updated

		s.logger.Info("synced entity",
			"run_id", runID,
			"entity", er.Kind,
			"fetched", er.Fetched,
			"created", er.Created,
			"updated", er.Updated,
			"failed", er.Failed)
	}

	return f, nil
}

// finishSuccess completes the run log entry and advances the connection watermark.
func (s *Service) finishSuccess(ctx context.Context, conn *mirror.Connection, run *mirror.SyncRun, result *Result) error {
	completedAt := s.now()

	run.Status = mirror.SyncStatusCompleted
	run.CompletedAt = &completedAt
	applyCounts(run, result)

	if err := s.store.FinishSyncRun(ctx, run); err != nil {
		return fmt.Errorf("logging sync completion: %w", err)
	}
	if err := s.store.RecordSyncSuccess(ctx, conn.ID, completedAt); err != nil {
		return fmt.Errorf("updating connection watermark: %w", err)
	}

	s.logger.Info("sync completed",
		"run_id", run.ID,
		"connection_id", conn.ID,
		"total_fetched", result.TotalFetched,
		"total_records", result.TotalRecords,
		"total_failed", result.TotalFailed(),
		"transaction_id", result.TransactionID)

	return nil
}

// finishFailure marks the run and connection failed, leaving the watermark untouched.
// Storage errors are logged; the run error is what the caller sees.
func (s *Service) finishFailure(ctx context.Context, conn *mirror.Connection, run *mirror.SyncRun, result *Result, runErr error) {
	msg := runErr.Error()
	if isCancellation(runErr) {
		msg = "cancelled: " + msg
	}

	completedAt := s.now()

	run.Status = mirror.SyncStatusFailed
	run.CompletedAt = &completedAt
	run.ErrorMessage = msg
	applyCounts(run, result)

	s.logger.Error("sync failed",
		"run_id", run.ID,
		"connection_id", conn.ID,
		"transaction_id", run.TransactionID,
		"error", runErr)

	if err := s.store.FinishSyncRun(ctx, run); err != nil {
		s.logger.Error("failed to log sync failure", "run_id", run.ID, "error", err)
	}
	if err := s.store.RecordSyncFailure(ctx, conn.ID, msg); err != nil {
		s.logger.Error("failed to record connection failure", "connection_id", conn.ID, "error", err)
	}
}

// applyCounts copies aggregate and per-kind counts onto the run log entry.
func applyCounts(run *mirror.SyncRun, result *Result) {
	run.RecordsFetched = result.TotalFetched
	run.TransactionID = result.TransactionID

	stats := make(map[mirror.Kind]EntityResult, len(result.Entities))
	for _, e := range result.Entities {
		run.RecordsCreated += e.Created
		run.RecordsUpdated += e.Updated
		run.RecordsFailed += e.Failed
		stats[e.Kind] = e
	}

	if b, err := json.Marshal(stats); err == nil {
		run.EntityStats = datatypes.JSON(b)
	}
}

// lockKey names the lock serializing runs for a connection.
func lockKey(connectionID uint) string {
	return fmt.Sprintf("booksync:sync:connection:%d", connectionID)
}
