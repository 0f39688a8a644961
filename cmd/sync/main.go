// Package main provides the Lambda handler entry point for scheduled QuickBooks syncs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/peteski22/booksync/internal/auth"
	"github.com/peteski22/booksync/internal/config"
	"github.com/peteski22/booksync/internal/mirror"
	"github.com/peteski22/booksync/internal/storage"
	"github.com/peteski22/booksync/internal/sync"
)

// event is the optional payload of a scheduled invocation.
// Unknown fields, such as those of an EventBridge envelope, are ignored.
type event struct {
	DryRun   bool            `json:"dryRun"`
	SyncType mirror.SyncType `json:"syncType"`
}

// summary is returned to the invoker for a completed run.
type summary struct {
	DryRun        bool            `json:"dryRun"`
	RunID         uint            `json:"runId"`
	SyncType      mirror.SyncType `json:"syncType"`
	TotalFailed   int             `json:"totalFailed"`
	TotalFetched  int             `json:"totalFetched"`
	TotalRecords  int             `json:"totalRecords"`
	TransactionID string          `json:"transactionId"`
}

// runner starts sync runs.
type runner interface {
	Run(ctx context.Context, req sync.Request) (*sync.Result, error)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := cfg.ValidateScheduled(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	svc, err := newService(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("initializing sync", "error", err)
		os.Exit(1)
	}

	lambda.Start(newHandler(svc, cfg.Sync.OrganizationID, logger))
}

// newService wires the sync engine to AWS-backed storage and locking.
func newService(ctx context.Context, cfg *config.Settings, logger *slog.Logger) (*sync.Service, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	store, err := storage.OpenDatabase(ctx, cfg.Database, ssm.NewFromConfig(awsCfg), logger)
	if err != nil {
		return nil, err
	}

	locker, err := storage.NewDynamoLocker(dynamodb.NewFromConfig(awsCfg), cfg.DynamoDB.LockTable, cfg.Sync.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("creating lock: %w", err)
	}

	creds := storage.NewCredentialResolver(secretsmanager.NewFromConfig(awsCfg))

	return sync.New(sync.Config{
		Clients:  sync.QuickBooksClients(creds, cfg.QuickBooks.ClientOptions()...),
		Locker:   locker,
		Logger:   logger,
		PageSize: cfg.QuickBooks.PageSize,
		Store:    store,
	})
}

// newHandler returns the Lambda handler that runs one sync for organizationID.
func newHandler(r runner, organizationID string, logger *slog.Logger) func(context.Context, event) (*summary, error) {
	return func(ctx context.Context, ev event) (*summary, error) {
		logger.InfoContext(ctx, "starting sync",
			"organization_id", organizationID,
			"sync_type", ev.SyncType,
			"dry_run", ev.DryRun,
		)

		res, err := r.Run(ctx, sync.Request{
			Caller:   auth.SystemPrincipal(organizationID),
			DryRun:   ev.DryRun,
			SyncType: ev.SyncType,
		})
		if err != nil {
			logger.ErrorContext(ctx, "sync failed", "error", err)
			return nil, err
		}

		logger.InfoContext(ctx, "sync complete",
			"run_id", res.RunID,
			"total_records", res.TotalRecords,
			"total_failed", res.TotalFailed(),
		)

		return &summary{
			DryRun:        res.DryRun,
			RunID:         res.RunID,
			SyncType:      res.SyncType,
			TotalFailed:   res.TotalFailed(),
			TotalFetched:  res.TotalFetched,
			TotalRecords:  res.TotalRecords,
			TransactionID: res.TransactionID,
		}, nil
	}
}
