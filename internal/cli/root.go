// Package cli implements the ledger's command line: maintenance tasks on
// the local store and manual sync operations.
package cli

import (
	"context"
	"fmt"

	"github.com/krarar/debt-manager/internal/app"
	"github.com/krarar/debt-manager/internal/config"
	"github.com/spf13/cobra"
)

// Opener builds the application for one command run and returns a func
// that releases it.
type Opener func(ctx context.Context) (*app.App, func(), error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvPath string
	Format  string // "json" | "text"

	open Opener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command backed by the configured stores.
func NewRootCommand() *cobra.Command {
	return NewRootCommandWith(nil)
}

// NewRootCommandWith creates the root command with a custom opener; a nil
// opener loads configuration from --env and opens the configured stores.
func NewRootCommandWith(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}
	if opts.open == nil {
		opts.open = opts.openConfigured
	}

	cmd := &cobra.Command{
		Use:   "debts",
		Short: "Local-first debt ledger",
		Long:  "Maintain the local debt ledger and move it to and from the remote store.",
		// main prints the returned error
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.EnvPath, "env", "", "path of a .env file to load")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewBackupCommand(opts))
	cmd.AddCommand(NewBackupsCommand(opts))
	cmd.AddCommand(NewRestoreCommand(opts))

	return cmd
}

func (o *RootOptions) openConfigured(ctx context.Context) (*app.App, func(), error) {
	if err := config.Load(o.EnvPath); err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, config.Get())
	if err != nil {
		return nil, nil, err
	}
	return a, a.Close, nil
}

// withApp opens the application, runs fn and releases it.
func (o *RootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, release, err := o.open(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx, a)
}

// withEngine is withApp for commands that talk to the remote store: the
// engine is initialized and connectivity is probed once first.
func (o *RootOptions) withEngine(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	return o.withApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.Engine.Init(ctx); err != nil {
			return err
		}
		a.Engine.Probe(ctx)
		return fn(ctx, a)
	})
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
