// Package api exposes the sync engine and its run history over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/peteski22/booksync/internal/auth"
	"github.com/peteski22/booksync/internal/mirror"
	"github.com/peteski22/booksync/internal/sync"
)

// Runner starts sync runs.
type Runner interface {
	// Run performs one sync for the request's caller.
	Run(ctx context.Context, req sync.Request) (*sync.Result, error)
}

// ConnectionStore reads connection state and run history.
type ConnectionStore interface {
	// ActiveConnection returns the organization's active connection, or nil when none exists.
	ActiveConnection(ctx context.Context, organizationID string) (*mirror.Connection, error)

	// RecentRuns returns up to limit run log entries for a connection, newest first.
	RecentRuns(ctx context.Context, connectionID uint, limit int) ([]mirror.SyncRun, error)

	// RunFailures returns the failed records of one run belonging to a connection.
	// An empty kind matches every entity kind.
	RunFailures(ctx context.Context, connectionID, runID uint, kind mirror.Kind) ([]mirror.SyncFailure, error)
}

// TokenValidator turns a bearer token into a caller.
type TokenValidator interface {
	// ValidateToken verifies the token and returns its principal.
	ValidateToken(token string) (*auth.Principal, error)
}

// Config holds the dependencies of the HTTP handler.
type Config struct {
	// AllowedOrigins lists the browser origins allowed to call the API. Empty disables CORS headers.
	AllowedOrigins []string

	// Logger is the structured logger. Defaults to slog.Default().
	Logger *slog.Logger

	// Runner starts sync runs.
	Runner Runner

	// Store reads connection state and run history.
	Store ConnectionStore

	// Tokens validates caller tokens.
	Tokens TokenValidator
}

func (c *Config) validate() error {
	var errs []error

	if c.Runner == nil {
		errs = append(errs, errors.New("runner is required"))
	}
	if c.Store == nil {
		errs = append(errs, errors.New("store is required"))
	}
	if c.Tokens == nil {
		errs = append(errs, errors.New("token validator is required"))
	}

	return errors.Join(errs...)
}

// server holds the handler dependencies.
type server struct {
	logger *slog.Logger
	runner Runner
	store  ConnectionStore
}

// NewHandler builds the gin engine serving the QuickBooks sync API.
func NewHandler(cfg Config) (http.Handler, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &server{
		logger: logger,
		runner: cfg.Runner,
		store:  cfg.Store,
	}

	r := gin.New()
	r.Use(correlationID())
	r.Use(requestLogger(logger))
	r.Use(gin.Recovery())

	if len(cfg.AllowedOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AddAllowHeaders("Authorization", correlationHeader)
		corsConfig.AddExposeHeaders(correlationHeader)
		corsConfig.AllowCredentials = true
		r.Use(cors.New(corsConfig))
	}

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	qb := r.Group("/api/quickbooks", authenticate(cfg.Tokens))
	qb.POST("/sync", s.triggerSync)
	qb.GET("/connection", s.connection)
	qb.GET("/sync-runs", s.syncRuns)
	qb.GET("/sync-runs/:id/failures", s.runFailures)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return r, nil
}
