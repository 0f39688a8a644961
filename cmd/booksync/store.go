package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peteski22/booksync/internal/config"
	"github.com/peteski22/booksync/internal/storage"
)

// openLocalStore opens the CLI database and brings its schema up to date.
func openLocalStore(ctx context.Context, db config.Database, logger *slog.Logger) (*storage.GormStore, error) {
	if db.Driver == storage.DriverSQLite && db.DSN != ":memory:" && !strings.HasPrefix(db.DSN, "file:") {
		if err := os.MkdirAll(filepath.Dir(db.DSN), 0o700); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	store, err := storage.Open(db.Driver, db.DSN, storage.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, errors.Join(err, store.Close())
	}

	return store, nil
}
