package cli

import (
	"context"
	"io"
	"os"

	"github.com/krarar/debt-manager/internal/app"
	"github.com/krarar/debt-manager/internal/exchange"
	"github.com/krarar/debt-manager/internal/model"
	"github.com/krarar/debt-manager/pkg/store"
	"github.com/spf13/cobra"
)

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "migrate",
		Short:        "Apply pending schema migrations to the local store",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// opening the application already migrates
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				version, err := store.SchemaVersion(ctx, a.DB)
				if err != nil {
					return err
				}
				return render(cmd, rootOpts, map[string]int64{"version": version}, func(w io.Writer) {
					line(w, "schema at version %d", version)
				})
			})
		},
	}
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "stats",
		Short:        "Show ledger totals",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				stats, err := a.Ledger.GetDebtorStats(ctx)
				if err != nil {
					return err
				}
				return render(cmd, rootOpts, stats, func(w io.Writer) {
					line(w, "debtors:  %d", stats.TotalDebtors)
					line(w, "debts:    %s", stats.TotalDebts)
					line(w, "payments: %s", stats.TotalPayments)
					line(w, "balance:  %s", stats.TotalBalance)
				})
			})
		},
	}
}

type exportOptions struct {
	out string
	csv bool
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the ledger as a JSON snapshot or a CSV sheet",
		Long: `Write the whole ledger to a file or stdout.

The default output is the JSON snapshot accepted by import. With --csv the
output is the flat transaction sheet with one row per transaction.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				w := cmd.OutOrStdout()
				if opts.out != "" {
					f, err := os.Create(opts.out)
					if err != nil {
						return err
					}
					defer f.Close()
					w = f
				}
				if opts.csv {
					return exportCSV(ctx, a, w)
				}
				snap, err := a.Ledger.ExportData(ctx)
				if err != nil {
					return err
				}
				return exchange.EncodeSnapshot(w, snap)
			})
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.csv, "csv", false, "write the CSV transaction sheet")

	return cmd
}

func exportCSV(ctx context.Context, a *app.App, w io.Writer) error {
	debtors, err := a.Ledger.GetAllDebtors(ctx)
	if err != nil {
		return err
	}
	txs, err := a.Ledger.GetAllTransactions(ctx)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(debtors))
	for _, d := range debtors {
		names[d.ID] = d.Name
	}
	return exchange.WriteTransactionsCSV(w, txs, names)
}

type importOptions struct {
	merge  bool
	debtor string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &importOptions{}

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load a JSON snapshot or a debtor's CSV sheet",
		Long: `Load a JSON snapshot produced by export.

Without --merge the local ledger is replaced. With --merge the snapshot's
records are added under fresh ids. With --debtor the file is read as a CSV
sheet and its rows are added as new transactions of that debtor.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return rootOpts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if opts.debtor != "" {
					n, err := a.Ledger.ImportTransactionsCSV(ctx, opts.debtor, f)
					if err != nil {
						return err
					}
					return render(cmd, rootOpts, map[string]int{"imported": n}, func(w io.Writer) {
						line(w, "imported %d transactions", n)
					})
				}

				snap, err := exchange.DecodeSnapshot(f)
				if err != nil {
					return err
				}
				summary, err := a.Ledger.ImportData(ctx, snap, model.ImportOptions{Merge: opts.merge})
				if err != nil {
					return err
				}
				return render(cmd, rootOpts, summary, func(w io.Writer) {
					line(w, "imported %d debtors, %d transactions, %d settings",
						summary.Debtors, summary.Transactions, summary.Settings)
				})
			})
		},
	}

	cmd.Flags().BoolVar(&opts.merge, "merge", false, "keep existing data and add the snapshot under fresh ids")
	cmd.Flags().StringVar(&opts.debtor, "debtor", "", "read the file as a CSV sheet for this debtor id")

	return cmd
}
