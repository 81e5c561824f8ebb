package main

import (
	"context"
	"errors"
	"time"

	"finplan/internal/cache"
	"finplan/internal/cli"
	apphttp "finplan/internal/http"
	"finplan/internal/log"
	"finplan/internal/worker"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	noScheduler bool
}

func newServeCommand(e *env) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the recurring expense scheduler",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), e, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.noScheduler, "no-scheduler", false, "do not run the recurring job (use when recurring-worker runs separately)")
	return cmd
}

func runServe(ctx context.Context, e *env, opts *serveOptions) error {
	cfg, logger := e.cfg, e.logger
	ctx, stop := cli.ShutdownContext(ctx, logger)
	defer stop()

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to release backend", "error", err)
		}
	}()

	app := cli.NewApp(cfg, res.Store, res.Events)

	if cfg.BackfillCreditLimitsOnRun {
		n, err := app.Migration.BackfillCreditLimits(ctx)
		if err != nil {
			logger.WarnContext(ctx, "Credit limit backfill failed", "error", err)
		} else {
			logger.InfoContext(ctx, "Credit limit backfill complete", "updated", n)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, app.HTTPServices(), apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.InfoContext(gctx, "HTTP server listening",
			"addr", srv.Addr,
			"backend", cfg.DataBackend,
			"events", res.Events != nil)
		return srv.ListenAndServeContext(gctx, cfg.ShutdownTimeout)
	})

	if !opts.noScheduler {
		sched, err := worker.NewScheduler(app.Processor, cfg.RecurringCron, time.Local)
		if err != nil {
			return err
		}
		schedLogger := logger.WithComponent(log.ComponentScheduler)
		g.Go(func() error {
			schedLogger.InfoContext(gctx, "Starting recurring scheduler", "spec", cfg.RecurringCron)
			return ignoreCanceled(sched.Run(gctx))
		})
	}

	if app.SnapshotCache != nil {
		janitor := cache.NewJanitor(app.SnapshotCache)
		g.Go(func() error { return janitor.Run(gctx, cfg.CacheTTL) })
	}

	err = g.Wait()
	logger.Info("Server stopped", "mode", app.Availability.Mode())
	return err
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
