package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/peteski22/booksync/internal/auth"
	"github.com/peteski22/booksync/internal/config"
	"github.com/peteski22/booksync/internal/mirror"
	"github.com/peteski22/booksync/internal/storage"
	"github.com/peteski22/booksync/internal/sync"
)

// syncOptions holds flags for the sync command.
type syncOptions struct {
	dryRun         bool
	full           bool
	organizationID string
}

func newSyncCommand(root *rootOptions) *cobra.Command {
	opts := &syncOptions{}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Copy QuickBooks records changed since the last successful sync",
		Long: `Fetch every entity kind from the connected QuickBooks company and upsert it
into the local database. Only records modified since the last successful sync
are fetched unless --full is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadLocal()
			if err != nil {
				return err
			}

			logger := cliLogger(cmd.ErrOrStderr(), root.verbose)

			_, err = runSync(cmd.Context(), cfg, *opts, cmd.OutOrStdout(), logger)
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "fetch and map records without writing them")
	cmd.Flags().BoolVar(&opts.full, "full", false, "fetch every record instead of changes since the last sync")
	cmd.Flags().StringVar(&opts.organizationID, "org", "", "organization ID (default: organization.id from config)")

	return cmd
}

// runSync performs one sync against the local configuration and prints a summary to out.
func runSync(ctx context.Context, cfg *config.LocalConfig, opts syncOptions, out io.Writer, logger *slog.Logger) (*sync.Result, error) {
	store, err := openLocalStore(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	svc, err := sync.New(sync.Config{
		Clients:  sync.QuickBooksClients(storage.NewCredentialResolver(nil), cfg.QuickBooks.ClientOptions()...),
		Locker:   storage.NoopLocker{},
		Logger:   logger,
		PageSize: cfg.QuickBooks.PageSize,
		Progress: newProgressReporter(out),
		Store:    store,
	})
	if err != nil {
		return nil, err
	}

	organizationID := opts.organizationID
	if organizationID == "" {
		organizationID = cfg.OrganizationID
	}

	syncType := mirror.SyncTypeDelta
	if opts.full {
		syncType = mirror.SyncTypeFull
	}

	res, err := svc.Run(ctx, sync.Request{
		Caller:   auth.SystemPrincipal(organizationID),
		DryRun:   opts.dryRun,
		SyncType: syncType,
	})
	if errors.Is(err, sync.ErrNoConnection) {
		return nil, fmt.Errorf("%w (run 'booksync connect' first)", err)
	}
	if err != nil {
		return nil, err
	}

	printSummary(out, res)
	return res, nil
}

// printSummary writes the run totals and any failed record IDs.
func printSummary(out io.Writer, res *sync.Result) {
	fmt.Fprintln(out)
	if res.DryRun {
		fmt.Fprintln(out, "Dry run: no records were written")
	} else {
		fmt.Fprintf(out, "Run %d (%s) complete\n", res.RunID, res.SyncType)
	}
	fmt.Fprintf(out, "Fetched: %d  Written: %d  Failed: %d\n", res.TotalFetched, res.TotalRecords, res.TotalFailed())

	for _, e := range res.Entities {
		if len(e.FailedIDs) > 0 {
			fmt.Fprintf(out, "  %s failed IDs: %s\n", e.Kind, strings.Join(e.FailedIDs, ", "))
		}
	}
}
