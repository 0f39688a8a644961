package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/peteski22/booksync/internal/auth"
	"github.com/peteski22/booksync/internal/config"
)

// tokenOptions holds flags for the token command.
type tokenOptions struct {
	email          string
	organizationID string
	permissions    []string
	ttl            time.Duration
	userID         string
}

func newTokenCommand() *cobra.Command {
	opts := &tokenOptions{}

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the sync API",
		Long: `Sign a token for the API served by 'booksync serve' using AUTH_JWT_SECRET.
The token is printed to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return issueToken(cmd.OutOrStdout(), cfg.Auth.JWTSecret, *opts)
		},
	}

	cmd.Flags().StringVar(&opts.email, "email", "", "caller email")
	cmd.Flags().StringVar(&opts.organizationID, "org", "", "organization ID the caller belongs to (required)")
	cmd.Flags().StringSliceVar(&opts.permissions, "permission", []string{auth.PermissionSync}, "granted permissions")
	cmd.Flags().DurationVar(&opts.ttl, "ttl", time.Hour, "token lifetime")
	cmd.Flags().StringVar(&opts.userID, "user", "", "caller user ID (required)")

	return cmd
}

// issueToken signs a token for the principal described by opts and writes it to out.
func issueToken(out io.Writer, secret string, opts tokenOptions) error {
	if opts.organizationID == "" {
		return errors.New("--org is required")
	}
	if opts.ttl <= 0 {
		return fmt.Errorf("--ttl must be positive, got %v", opts.ttl)
	}

	authn, err := auth.NewAuthenticator(secret)
	if err != nil {
		return fmt.Errorf("%w (set %s)", err, config.EnvAuthJWTSecret)
	}

	token, err := authn.GenerateToken(&auth.Principal{
		Email:          opts.email,
		OrganizationID: opts.organizationID,
		Permissions:    opts.permissions,
		UserID:         opts.userID,
	}, opts.ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, token)
	return nil
}
