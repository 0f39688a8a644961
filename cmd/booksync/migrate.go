package main

import (
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/spf13/cobra"

	"github.com/peteski22/booksync/internal/config"
	"github.com/peteski22/booksync/internal/storage"
)

// migrateOptions holds flags for the migrate command.
type migrateOptions struct {
	local bool
}

func newMigrateCommand(root *rootOptions) *cobra.Command {
	opts := &migrateOptions{}

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Create or update the connection, sync log, failure and mirror tables.
The database is taken from environment variables, or from the local config
file with --local.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := cliLogger(cmd.ErrOrStderr(), root.verbose)

			if opts.local {
				cfg, err := config.LoadLocal()
				if err != nil {
					return err
				}
				store, err := openLocalStore(ctx, cfg.Database, logger)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
				return store.Close()
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
			if err != nil {
				return fmt.Errorf("loading AWS config: %w", err)
			}
			store, err := storage.OpenDatabase(ctx, cfg.Database, ssm.NewFromConfig(awsCfg), logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.local, "local", false, "migrate the database named in the local config file")

	return cmd
}
