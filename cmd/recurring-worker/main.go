package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finplan/internal/cli"
	"finplan/internal/log"
	"finplan/internal/worker"
)

// recurring-worker runs only the recurring expense schedule, for deployments
// that start the API with `finplan serve --no-scheduler`.
func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentScheduler)
	logger.Info("Starting recurring-worker", "spec", cfg.RecurringCron, "backend", cfg.DataBackend)

	ctx, stop := cli.ShutdownContext(context.Background(), logger)
	defer stop()

	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to open backend", "error", err)
		os.Exit(1)
	}
	defer res.Cleanup()

	if res.Events == nil {
		logger.Info("AMQP disabled - materialized expenses will not reach the sheets mirror")
	}

	app := cli.NewApp(cfg, res.Store, res.Events)
	sched, err := worker.NewScheduler(app.Processor, cfg.RecurringCron, time.Local)
	if err != nil {
		logger.Error("Invalid recurring schedule", "error", err)
		os.Exit(1)
	}

	if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Scheduler stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Recurring-worker shutdown complete")
}
