// Package config provides configuration loading from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/peteski22/booksync/internal/quickbooks"
)

const (
	// EnvAuthJWTSecret is the HMAC secret used to verify caller tokens.
	EnvAuthJWTSecret = "AUTH_JWT_SECRET"

	// EnvDatabaseDriver is the database driver: postgres, mysql or sqlite (default: postgres).
	EnvDatabaseDriver = "DATABASE_DRIVER"

	// EnvDatabaseDSN is the database connection string.
	EnvDatabaseDSN = "DATABASE_DSN"

	// EnvDatabaseDSNParameter is the SSM parameter holding the database connection string.
	EnvDatabaseDSNParameter = "DATABASE_DSN_PARAMETER"

	// EnvDatabaseMaxIdleConns is the maximum number of idle database connections.
	EnvDatabaseMaxIdleConns = "DATABASE_MAX_IDLE_CONNS"

	// EnvDatabaseMaxOpenConns is the maximum number of open database connections.
	EnvDatabaseMaxOpenConns = "DATABASE_MAX_OPEN_CONNS"

	// EnvDynamoDBLockTable is the DynamoDB table holding scheduled sync locks.
	EnvDynamoDBLockTable = "DYNAMODB_LOCK_TABLE"

	// EnvHTTPCORSOrigins is a comma-separated list of origins allowed to call the API.
	EnvHTTPCORSOrigins = "HTTP_CORS_ORIGINS"

	// EnvHTTPPort is the port the API server listens on (default: 8080).
	EnvHTTPPort = "PORT"

	// EnvLogLevel is the minimum log level: debug, info, warn or error (default: info).
	EnvLogLevel = "LOG_LEVEL"

	// EnvQuickBooksBaseURL overrides the QuickBooks API base URL derived from the connection environment.
	EnvQuickBooksBaseURL = "QUICKBOOKS_BASE_URL"

	// EnvQuickBooksPageSize is the number of records requested per page (default: 1000).
	EnvQuickBooksPageSize = "QUICKBOOKS_PAGE_SIZE"

	// EnvQuickBooksTimeout is the per-request timeout for QuickBooks calls (default: 30s).
	EnvQuickBooksTimeout = "QUICKBOOKS_TIMEOUT"

	// EnvRedisAddress is the Redis address used for run locks by the API server.
	EnvRedisAddress = "REDIS_ADDRESS"

	// EnvSyncLockTTL bounds how long an abandoned run lock blocks later runs (default: 30m).
	EnvSyncLockTTL = "SYNC_LOCK_TTL"

	// EnvSyncOrganizationID is the organization synced by scheduled runs.
	EnvSyncOrganizationID = "SYNC_ORGANIZATION_ID"
)

const (
	defaultDatabaseDriver    = "postgres"
	defaultHTTPPort          = "8080"
	defaultPageSize          = 1000
	defaultQuickBooksTimeout = 30 * time.Second
	defaultSyncLockTTL       = 30 * time.Minute
	maxPageSize              = 1000
)

// Auth holds caller authentication configuration.
type Auth struct {
	// JWTSecret is the HMAC secret used to verify caller tokens.
	JWTSecret string
}

// Database holds relational store configuration.
type Database struct {
	// DSN is the connection string. Empty when DSNParameter is set.
	DSN string

	// DSNParameter is the SSM parameter holding the connection string.
	DSNParameter string

	// Driver is the database driver name.
	Driver string

	// MaxIdleConns is the idle pool size. Zero keeps the driver default.
	MaxIdleConns int

	// MaxOpenConns is the open pool size. Zero keeps the driver default.
	MaxOpenConns int
}

// DynamoDB holds AWS DynamoDB configuration.
type DynamoDB struct {
	// LockTable is the name of the DynamoDB table holding run locks.
	LockTable string
}

// HTTP holds API server configuration.
type HTTP struct {
	// CORSOrigins lists the origins allowed to call the API.
	CORSOrigins []string

	// Port is the port to listen on.
	Port string
}

// QuickBooks holds QuickBooks API configuration.
type QuickBooks struct {
	// BaseURL overrides the environment's base URL when set.
	BaseURL string

	// PageSize is the number of records requested per page.
	PageSize int

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// ClientOptions converts the settings into QuickBooks client options.
func (q QuickBooks) ClientOptions() []quickbooks.Option {
	opts := []quickbooks.Option{quickbooks.WithTimeout(q.Timeout)}
	if q.BaseURL != "" {
		opts = append(opts, quickbooks.WithBaseURL(q.BaseURL))
	}
	return opts
}

// Redis holds Redis configuration.
type Redis struct {
	// Address is the host:port of the Redis server. Empty disables Redis locking.
	Address string
}

// Sync holds sync run configuration.
type Sync struct {
	// LockTTL bounds how long an abandoned run lock blocks later runs.
	LockTTL time.Duration

	// OrganizationID is the organization synced by scheduled runs.
	OrganizationID string
}

// Settings holds all configuration for the application.
type Settings struct {
	// Auth contains caller authentication settings.
	Auth Auth

	// Database contains relational store settings.
	Database Database

	// DynamoDB contains AWS DynamoDB settings.
	DynamoDB DynamoDB

	// HTTP contains API server settings.
	HTTP HTTP

	// LogLevel is the minimum level logged.
	LogLevel slog.Level

	// QuickBooks contains QuickBooks API settings.
	QuickBooks QuickBooks

	// Redis contains Redis settings.
	Redis Redis

	// Sync contains sync run settings.
	Sync Sync
}

func (s *Settings) validate() error {
	var errs []error

	if s.Database.DSN == "" && s.Database.DSNParameter == "" {
		errs = append(errs, fmt.Errorf("%s or %s is required", EnvDatabaseDSN, EnvDatabaseDSNParameter))
	}
	switch s.Database.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("%s must be one of postgres, mysql, sqlite, got %q", EnvDatabaseDriver, s.Database.Driver))
	}
	if s.QuickBooks.PageSize < 1 || s.QuickBooks.PageSize > maxPageSize {
		errs = append(errs, fmt.Errorf("%s must be between 1 and %d, got %d", EnvQuickBooksPageSize, maxPageSize, s.QuickBooks.PageSize))
	}
	if s.QuickBooks.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvQuickBooksTimeout))
	}
	if s.Sync.LockTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", EnvSyncLockTTL))
	}

	return errors.Join(errs...)
}

// ValidateServer checks the settings the API server needs beyond the common ones.
func (s *Settings) ValidateServer() error {
	var errs []error

	if s.Auth.JWTSecret == "" {
		errs = append(errs, requiredError(EnvAuthJWTSecret))
	}

	return errors.Join(errs...)
}

// ValidateScheduled checks the settings scheduled runs need beyond the common ones.
func (s *Settings) ValidateScheduled() error {
	var errs []error

	if s.DynamoDB.LockTable == "" {
		errs = append(errs, requiredError(EnvDynamoDBLockTable))
	}
	if s.Sync.OrganizationID == "" {
		errs = append(errs, requiredError(EnvSyncOrganizationID))
	}

	return errors.Join(errs...)
}

// Load reads configuration from environment variables, after loading a .env file if one exists.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	maxIdle, err := envInt(EnvDatabaseMaxIdleConns, 0)
	collect(err)
	maxOpen, err := envInt(EnvDatabaseMaxOpenConns, 0)
	collect(err)
	pageSize, err := envInt(EnvQuickBooksPageSize, defaultPageSize)
	collect(err)
	timeout, err := envDuration(EnvQuickBooksTimeout, defaultQuickBooksTimeout)
	collect(err)
	lockTTL, err := envDuration(EnvSyncLockTTL, defaultSyncLockTTL)
	collect(err)

	var level slog.Level
	if err := level.UnmarshalText([]byte(envOrDefault(EnvLogLevel, "info"))); err != nil {
		collect(fmt.Errorf("%s: %w", EnvLogLevel, err))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	cfg := &Settings{
		Auth: Auth{
			JWTSecret: strings.TrimSpace(os.Getenv(EnvAuthJWTSecret)),
		},
		Database: Database{
			DSN:          strings.TrimSpace(os.Getenv(EnvDatabaseDSN)),
			DSNParameter: strings.TrimSpace(os.Getenv(EnvDatabaseDSNParameter)),
			Driver:       envOrDefault(EnvDatabaseDriver, defaultDatabaseDriver),
			MaxIdleConns: maxIdle,
			MaxOpenConns: maxOpen,
		},
		DynamoDB: DynamoDB{
			LockTable: strings.TrimSpace(os.Getenv(EnvDynamoDBLockTable)),
		},
		HTTP: HTTP{
			CORSOrigins: splitList(os.Getenv(EnvHTTPCORSOrigins)),
			Port:        envOrDefault(EnvHTTPPort, defaultHTTPPort),
		},
		LogLevel: level,
		QuickBooks: QuickBooks{
			BaseURL:  strings.TrimSpace(os.Getenv(EnvQuickBooksBaseURL)),
			PageSize: pageSize,
			Timeout:  timeout,
		},
		Redis: Redis{
			Address: strings.TrimSpace(os.Getenv(EnvRedisAddress)),
		},
		Sync: Sync{
			LockTTL:        lockTTL,
			OrganizationID: strings.TrimSpace(os.Getenv(EnvSyncOrganizationID)),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func envOrDefault(key string, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func envInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, value)
	}
	return n, nil
}

func envDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, value)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func requiredError(envVar string) error {
	return fmt.Errorf("%s is required", envVar)
}
