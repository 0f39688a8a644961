// Package main provides the booksync command-line interface.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootOptions holds flags shared by every command.
type rootOptions struct {
	verbose bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "booksync",
		Short: "Mirror QuickBooks Online accounting data into a local database",
		Long: `booksync incrementally copies customers, invoices, vendors, expenses, items,
payments, bills, sales receipts, credit memos, purchase orders, deposits and
bill payments from a QuickBooks Online company into a relational database.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log debug output to stderr")

	cmd.AddCommand(newConnectCommand(opts))
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newSyncCommand(opts))
	cmd.AddCommand(newTokenCommand())

	return cmd
}

// cliLogger returns the logger for interactive commands.
func cliLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
