package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/peteski22/booksync/internal/config"
	"github.com/peteski22/booksync/internal/mirror"
	"github.com/peteski22/booksync/internal/storage"
)

// connectOptions holds flags for the connect command.
type connectOptions struct {
	environment    string
	organizationID string
	realmID        string
	token          string
}

// connectionStore reads and writes connections.
type connectionStore interface {
	ActiveConnection(ctx context.Context, organizationID string) (*mirror.Connection, error)
	SaveConnection(ctx context.Context, conn *mirror.Connection) error
}

// tokenStore persists an access token and names where it lives.
type tokenStore interface {
	Reference() string
	SaveToken(ctx context.Context, token string) error
}

func newConnectCommand(root *rootOptions) *cobra.Command {
	opts := &connectOptions{}

	cmd := &cobra.Command{
		Use:   "connect",
		Short: "Store a QuickBooks access token and activate the company connection",
		Long: `Store an access token obtained from the QuickBooks OAuth flow and bind it
to a company (realm). The token is read from --token, or from the first line
of standard input when the flag is omitted.

Connecting a different realm deactivates the previous connection.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadLocal()
			if err != nil {
				return err
			}
			if opts.organizationID == "" {
				opts.organizationID = cfg.OrganizationID
			}
			if opts.token == "" {
				if opts.token, err = readToken(cmd.InOrStdin()); err != nil {
					return err
				}
			}

			tokenPath, err := config.TokenFilePath()
			if err != nil {
				return err
			}
			tokens, err := storage.NewTokenFile(tokenPath)
			if err != nil {
				return err
			}

			logger := cliLogger(cmd.ErrOrStderr(), root.verbose)
			store, err := openLocalStore(cmd.Context(), cfg.Database, logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			conn, err := runConnect(cmd.Context(), store, tokens, *opts)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Connected realm %s (%s) as connection %d\n", conn.RealmID, conn.Environment, conn.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.realmID, "realm", "", "QuickBooks company (realm) ID (required)")
	cmd.Flags().StringVar(&opts.environment, "environment", mirror.EnvironmentSandbox, "sandbox or production")
	cmd.Flags().StringVar(&opts.organizationID, "org", "", "organization ID (default: organization.id from config)")
	cmd.Flags().StringVar(&opts.token, "token", "", "access token (default: read from stdin)")
	_ = cmd.MarkFlagRequired("realm")

	return cmd
}

// readToken returns the first non-empty line of r.
func readToken(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if token := strings.TrimSpace(scanner.Text()); token != "" {
			return token, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return "", errors.New("no access token provided")
}

// runConnect saves the token and points the organization's active connection at it.
func runConnect(ctx context.Context, store connectionStore, tokens tokenStore, opts connectOptions) (*mirror.Connection, error) {
	switch opts.environment {
	case mirror.EnvironmentProduction, mirror.EnvironmentSandbox:
	default:
		return nil, fmt.Errorf("environment must be sandbox or production, got %q", opts.environment)
	}
	if opts.organizationID == "" {
		return nil, errors.New("organization ID is required")
	}
	if opts.realmID == "" {
		return nil, errors.New("realm ID is required")
	}

	if err := tokens.SaveToken(ctx, strings.TrimSpace(opts.token)); err != nil {
		return nil, fmt.Errorf("saving token: %w", err)
	}

	conn, err := store.ActiveConnection(ctx, opts.organizationID)
	if err != nil {
		return nil, err
	}

	if conn != nil && conn.RealmID != opts.realmID {
		conn.IsActive = false
		if err := store.SaveConnection(ctx, conn); err != nil {
			return nil, fmt.Errorf("deactivating connection %d: %w", conn.ID, err)
		}
		conn = nil
	}
	if conn == nil {
		conn = &mirror.Connection{
			IsActive:       true,
			OrganizationID: opts.organizationID,
			RealmID:        opts.realmID,
		}
	}

	conn.AccessToken = tokens.Reference()
	conn.Environment = opts.environment

	if err := store.SaveConnection(ctx, conn); err != nil {
		return nil, err
	}
	return conn, nil
}
