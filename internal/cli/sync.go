package cli

import (
	"context"
	"io"
	"time"

	"github.com/krarar/debt-manager/internal/app"
	"github.com/spf13/cobra"
)

// NewSyncCommand creates the sync command.
func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle against the remote store",
		Long: `Upload queued local changes, download remote records and merge them
with last-writer-wins. Exits non-zero if the cycle was declined or aborted.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Engine.PerformSync(ctx)
				if res != nil {
					if rerr := render(cmd, rootOpts, res, func(w io.Writer) {
						line(w, "%s", res.Message)
						line(w, "uploaded %d, failed %d, dropped %d, merged %d",
							res.Uploaded, res.Failed, res.Dropped, res.Merged)
					}); rerr != nil {
						return rerr
					}
				}
				return err
			})
		},
	}
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "status",
		Short:        "Show sync status",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(ctx context.Context, a *app.App) error {
				st, err := a.Engine.Status(ctx)
				if err != nil {
					return err
				}
				return render(cmd, rootOpts, st, func(w io.Writer) {
					last := "never"
					if st.LastSyncAt != nil {
						last = st.LastSyncAt.Format(time.RFC3339)
					}
					line(w, "user:      %s", st.UserID)
					line(w, "enabled:   %t", st.SyncEnabled)
					line(w, "online:    %t", st.IsOnline)
					line(w, "queued:    %d", st.QueueLength)
					line(w, "last sync: %s", last)
				})
			})
		},
	}
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "backup",
		Short:        "Store a full snapshot of the ledger remotely",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(ctx context.Context, a *app.App) error {
				id, err := a.Engine.BackupToRemote(ctx)
				if err != nil {
					return err
				}
				return render(cmd, rootOpts, map[string]string{"id": id}, func(w io.Writer) {
					line(w, "backup %s stored", id)
				})
			})
		},
	}
}

// NewBackupsCommand creates the backups command.
func NewBackupsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "backups",
		Short:        "List remote backups, newest first",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(ctx context.Context, a *app.App) error {
				list, err := a.Engine.ListBackups(ctx)
				if err != nil {
					return err
				}
				return render(cmd, rootOpts, list, func(w io.Writer) {
					if len(list) == 0 {
						line(w, "no backups")
						return
					}
					for _, b := range list {
						line(w, "%s  %s  %d debtors  %d transactions",
							b.ID, b.CreatedAt.Format(time.RFC3339), b.Debtors, b.Transactions)
					}
				})
			})
		},
	}
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "restore <backup-id>",
		Short:        "Replace the local ledger with a remote backup",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withEngine(cmd, func(ctx context.Context, a *app.App) error {
				summary, err := a.Engine.RestoreFromRemote(ctx, args[0])
				if err != nil {
					return err
				}
				return render(cmd, rootOpts, summary, func(w io.Writer) {
					line(w, "restored %d debtors, %d transactions, %d settings",
						summary.Debtors, summary.Transactions, summary.Settings)
				})
			})
		},
	}
}
