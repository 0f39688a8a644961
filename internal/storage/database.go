package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/peteski22/booksync/internal/config"
)

// OpenDatabase opens the database described by db, reading the DSN from
// SSM Parameter Store when db names a parameter. params may be nil otherwise.
func OpenDatabase(ctx context.Context, db config.Database, params SSMAPI, logger *slog.Logger) (*GormStore, error) {
	dsn := db.DSN
	if db.DSNParameter != "" {
		ps, err := NewParameterStore(params)
		if err != nil {
			return nil, err
		}
		dsn, err = ps.Value(ctx, db.DSNParameter)
		if err != nil {
			return nil, fmt.Errorf("resolving database DSN: %w", err)
		}
	}

	store, err := Open(db.Driver, dsn,
		WithLogger(logger),
		WithPool(db.MaxOpenConns, db.MaxIdleConns),
	)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return store, nil
}
