package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/peteski22/booksync/internal/api"
	"github.com/peteski22/booksync/internal/auth"
	"github.com/peteski22/booksync/internal/config"
	"github.com/peteski22/booksync/internal/storage"
	"github.com/peteski22/booksync/internal/sync"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the sync API over HTTP",
		Long: `Serve the QuickBooks sync API. Configuration is read from environment
variables (and a .env file when present); AUTH_JWT_SECRET and DATABASE_DSN or
DATABASE_DSN_PARAMETER are required. Runs are serialized through Redis when
REDIS_ADDRESS is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	sigCtx, stopSignals := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	awsCfg, err := awsconfig.LoadDefaultConfig(sigCtx)
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}

	store, err := storage.OpenDatabase(sigCtx, cfg.Database, ssm.NewFromConfig(awsCfg), logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	locker, closeLocker, err := newServerLocker(cfg, logger)
	if err != nil {
		return err
	}
	defer closeLocker()

	creds := storage.NewCredentialResolver(secretsmanager.NewFromConfig(awsCfg))

	svc, err := sync.New(sync.Config{
		Clients:  sync.QuickBooksClients(creds, cfg.QuickBooks.ClientOptions()...),
		Locker:   locker,
		Logger:   logger,
		PageSize: cfg.QuickBooks.PageSize,
		Store:    store,
	})
	if err != nil {
		return err
	}

	authn, err := auth.NewAuthenticator(cfg.Auth.JWTSecret)
	if err != nil {
		return err
	}

	gin.SetMode(gin.ReleaseMode)
	handler, err := api.NewHandler(api.Config{
		AllowedOrigins: cfg.HTTP.CORSOrigins,
		Logger:         logger,
		Runner:         svc,
		Store:          store,
		Tokens:         authn,
	})
	if err != nil {
		return err
	}

	srv := newHTTPServer(sigCtx, cfg.HTTP.Port, handler)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()
	logger.Info("server listening", "port", cfg.HTTP.Port)

	select {
	case <-sigCtx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-serverErrCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving HTTP: %w", err)
	}
}

// newHTTPServer returns a server whose request contexts derive from ctx,
// so in-flight runs are cancelled and finalized before Shutdown returns.
func newHTTPServer(ctx context.Context, port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		BaseContext:       func(net.Listener) context.Context { return ctx },
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// newServerLocker returns a Redis-backed locker when Redis is configured.
// Without Redis, runs are not serialized across server instances.
func newServerLocker(cfg *config.Settings, logger *slog.Logger) (sync.Locker, func(), error) {
	if cfg.Redis.Address == "" {
		logger.Warn("REDIS_ADDRESS not set; sync runs are not locked")
		return storage.NoopLocker{}, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	locker, err := storage.NewRedisLocker(client, cfg.Sync.LockTTL)
	if err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	return locker, func() { _ = client.Close() }, nil
}
