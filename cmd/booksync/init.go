package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/peteski22/booksync/internal/config"
)

const configTemplate = `# booksync configuration

organization:
  # Required: the organization whose QuickBooks connection is synced.
  id: ""

database:
  # One of sqlite, postgres, mysql (default: sqlite).
  driver: "sqlite"
  # Connection string. Defaults to ~/.booksync/booksync.db for sqlite.
  dsn: ""

quickbooks:
  # Optional: override the sandbox/production API host.
  base_url: ""
  # Records requested per page, at most 1000.
  page_size: 1000
  # Per-request timeout.
  timeout: "30s"
`

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a sample configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(cmd.OutOrStdout())
		},
	}
}

// runInit creates a sample configuration file.
func runInit(out io.Writer) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	configPath, err := config.ConfigFilePath()
	if err != nil {
		return fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(configTemplate), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	tokenPath, err := config.TokenFilePath()
	if err != nil {
		return fmt.Errorf("getting token path: %w", err)
	}

	fmt.Fprintln(out, "Created config file:", configPath)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Next steps:")
	fmt.Fprintln(out, "  1. Set organization.id in the config file")
	fmt.Fprintln(out, "  2. Run 'booksync connect --realm <company id>' to store an access token")
	fmt.Fprintln(out, "  3. Run 'booksync sync --dry-run' to test")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Token will be stored at: %s\n", tokenPath)

	return nil
}
