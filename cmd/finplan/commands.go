package main

import (
	"context"
	"fmt"
	"time"

	"finplan/internal/cli"

	"github.com/spf13/cobra"
)

// withApp opens the backend, builds the services and runs fn.
func withApp(ctx context.Context, e *env, fn func(context.Context, *cli.App) error) error {
	res, err := cli.OpenBackend(ctx, e.cfg, e.logger)
	if err != nil {
		return err
	}
	defer res.Cleanup()
	return fn(ctx, cli.NewApp(e.cfg, res.Store, res.Events))
}

func newIngestCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest FILE...",
		Short: "Load debt snapshot files into the primary store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), e, func(ctx context.Context, app *cli.App) error {
				for _, path := range args {
					snap, err := app.Migration.IngestFile(ctx, path)
					if err != nil {
						return fmt.Errorf("ingest %s: %w", path, err)
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\ttotal debt %.2f\taccounts %d\n",
						path, snap.SnapshotDate, snap.TotalDebt, snap.TotalAccounts)
				}
				return nil
			})
		},
	}
}

func newReloadCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Clear all debt data and reload every snapshot file in SNAPSHOT_DATA_DIR",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), e, func(ctx context.Context, app *cli.App) error {
				res, err := app.Migration.ClearAndReload(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), res.Message)
				return nil
			})
		},
	}
}

func newBackfillCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-credit-limits",
		Short: "Give credit cards without a limit the configured default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), e, func(ctx context.Context, app *cli.App) error {
				n, err := app.Migration.BackfillCreditLimits(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "updated %d credit card(s) to limit %.2f\n", n, e.cfg.DefaultCreditLimit)
				return nil
			})
		},
	}
}

func newProcessRecurringCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "process-recurring",
		Short: "Materialize recurring expenses that are due today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), e, func(ctx context.Context, app *cli.App) error {
				n, err := app.Processor.ProcessDueExpenses(ctx, time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %d expense(s)\n", n)
				return nil
			})
		},
	}
}
