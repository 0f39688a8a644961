// Package storage provides persistence implementations for the sync service.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/peteski22/booksync/internal/mirror"
)

// Supported database drivers.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// GormStore persists connections, the sync log and mirror records in a relational database.
type GormStore struct {
	db *gorm.DB
}

// GormOption configures Open.
type GormOption func(*gormOptions)

type gormOptions struct {
	logger       *slog.Logger
	maxIdleConns int
	maxOpenConns int
}

// WithLogger routes gorm warnings and slow queries to logger.
func WithLogger(logger *slog.Logger) GormOption {
	return func(o *gormOptions) {
		o.logger = logger
	}
}

// WithPool sets the connection pool limits. Non-positive values keep the driver defaults.
func WithPool(maxOpen, maxIdle int) GormOption {
	return func(o *gormOptions) {
		o.maxOpenConns = maxOpen
		o.maxIdleConns = maxIdle
	}
}

// dialector returns the gorm dialector for driver.
func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverMySQL:
		return mysql.Open(dsn), nil
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Open connects to the database and installs the tracing plugin.
func Open(driver, dsn string, opts ...GormOption) (*GormStore, error) {
	if dsn == "" {
		return nil, errors.New("database DSN is required")
	}

	o := gormOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	d, err := dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		Logger: logger.New(slog.NewLogLogger(o.logger.Handler(), slog.LevelWarn), logger.Config{
			IgnoreRecordNotFoundError: true,
			LogLevel:                  logger.Warn,
			SlowThreshold:             time.Second,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("accessing connection pool: %w", err)
	}
	if o.maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(o.maxOpenConns)
	}
	if o.maxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(o.maxIdleConns)
	}

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, fmt.Errorf("installing tracing plugin: %w", err)
	}

	return &GormStore{db: db}, nil
}

// NewGormStore wraps an existing gorm handle.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if db == nil {
		return nil, errors.New("gorm DB is required")
	}
	return &GormStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Migrate creates or alters every table the engine writes to.
func (s *GormStore) Migrate(ctx context.Context) error {
	models := []any{&mirror.Connection{}, &mirror.SyncRun{}, &mirror.SyncFailure{}}
	for _, rec := range mirror.Tables() {
		models = append(models, rec)
	}

	if err := s.db.WithContext(ctx).AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrating schema: %w", err)
	}
	return nil
}

// ActiveConnection returns the organization's most recent active connection, or nil when none exists.
func (s *GormStore) ActiveConnection(ctx context.Context, organizationID string) (*mirror.Connection, error) {
	var conn mirror.Connection
	res := s.db.WithContext(ctx).
		Where("organization_id = ? AND is_active = ?", organizationID, true).
		Order("id DESC").
		Limit(1).
		Find(&conn)
	if res.Error != nil {
		return nil, fmt.Errorf("loading connection for organization %s: %w", organizationID, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &conn, nil
}

// SaveConnection inserts or updates a connection.
func (s *GormStore) SaveConnection(ctx context.Context, conn *mirror.Connection) error {
	if err := s.db.WithContext(ctx).Save(conn).Error; err != nil {
		return fmt.Errorf("saving connection: %w", err)
	}
	return nil
}

// CreateSyncRun inserts a run log entry, assigning its ID.
func (s *GormStore) CreateSyncRun(ctx context.Context, run *mirror.SyncRun) error {
	if err := s.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("inserting sync run: %w", err)
	}
	return nil
}

// FinishSyncRun writes the terminal state of a run log entry.
func (s *GormStore) FinishSyncRun(ctx context.Context, run *mirror.SyncRun) error {
	if run.ID == 0 {
		return errors.New("sync run has no ID")
	}
	if err := s.db.WithContext(ctx).Save(run).Error; err != nil {
		return fmt.Errorf("updating sync run %d: %w", run.ID, err)
	}
	return nil
}

// RecordFailure stores the details of one failed record.
func (s *GormStore) RecordFailure(ctx context.Context, failure *mirror.SyncFailure) error {
	if err := s.db.WithContext(ctx).Create(failure).Error; err != nil {
		return fmt.Errorf("inserting sync failure: %w", err)
	}
	return nil
}

// RecordSyncSuccess advances the connection's watermark and clears its last error.
func (s *GormStore) RecordSyncSuccess(ctx context.Context, connectionID uint, completedAt time.Time) error {
	return s.updateConnection(ctx, connectionID, map[string]any{
		"last_sync_at":     completedAt,
		"last_sync_error":  "",
		"last_sync_status": mirror.SyncStatusSuccess,
	})
}

// RecordSyncFailure marks the connection's last sync as failed without moving its watermark.
func (s *GormStore) RecordSyncFailure(ctx context.Context, connectionID uint, message string) error {
	return s.updateConnection(ctx, connectionID, map[string]any{
		"last_sync_error":  message,
		"last_sync_status": mirror.SyncStatusFailed,
	})
}

// updateConnection applies fields with a map so zero values are written.
func (s *GormStore) updateConnection(ctx context.Context, connectionID uint, fields map[string]any) error {
	res := s.db.WithContext(ctx).
		Model(&mirror.Connection{}).
		Where("id = ?", connectionID).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("updating connection %d: %w", connectionID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("connection %d not found", connectionID)
	}
	return nil
}

// RecentRuns returns up to limit run log entries for a connection, newest first.
func (s *GormStore) RecentRuns(ctx context.Context, connectionID uint, limit int) ([]mirror.SyncRun, error) {
	var runs []mirror.SyncRun
	err := s.db.WithContext(ctx).
		Where("connection_id = ?", connectionID).
		Order("started_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("listing sync runs: %w", err)
	}
	return runs, nil
}

// RunFailures returns the failed records of one run belonging to a connection.
// An empty kind matches every entity kind.
func (s *GormStore) RunFailures(ctx context.Context, connectionID, runID uint, kind mirror.Kind) ([]mirror.SyncFailure, error) {
	query := s.db.WithContext(ctx).Where("connection_id = ? AND sync_run_id = ?", connectionID, runID)
	if kind != "" {
		query = query.Where("entity_kind = ?", kind)
	}

	var failures []mirror.SyncFailure
	err := query.Order("id").Find(&failures).Error
	if err != nil {
		return nil, fmt.Errorf("listing failures for run %d: %w", runID, err)
	}
	return failures, nil
}

// Insert stores a new mirror record, assigning its local ID.
func (s *GormStore) Insert(ctx context.Context, record mirror.Record) error {
	return s.db.WithContext(ctx).Create(record).Error
}

// Lookup returns the identity columns of the row matching the connection and external ID, or nil when none exists.
func (s *GormStore) Lookup(ctx context.Context, table string, connectionID uint, externalID string) (*mirror.Model, error) {
	var m mirror.Model
	res := s.db.WithContext(ctx).
		Table(table).
		Select("id", "created_at").
		Where("connection_id = ? AND external_id = ?", connectionID, externalID).
		Limit(1).
		Find(&m)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &m, nil
}

// Replace overwrites every column of an existing mirror record.
func (s *GormStore) Replace(ctx context.Context, record mirror.Record) error {
	if record.Base().ID == 0 {
		return errors.New("record has no local ID")
	}
	return s.db.WithContext(ctx).Select("*").Updates(record).Error
}
