package main

import (
	"context"
	"errors"
	"os"
	"time"

	"finplan/internal/amqp"
	"finplan/internal/cli"
	"finplan/internal/config"
	"finplan/internal/core"
	"finplan/internal/log"
	"finplan/internal/sheets/google"
	"finplan/internal/worker"

	"golang.org/x/sync/errgroup"
)

// sheets-worker mirrors materialized expenses into Google Sheets. It consumes
// expense events from AMQP and reconciles the current month on SYNC_INTERVAL
// to pick up anything a lost message missed.
func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err == nil {
		err = cfg.ValidateSheets()
	}
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, log.ComponentSheets)
	logger.Info("Starting sheets-worker", "spreadsheet_id", cfg.GoogleSpreadsheetID, "interval", cfg.SyncInterval)

	ctx, stop := cli.ShutdownContext(context.Background(), logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Sheets worker stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("Sheets-worker shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	res, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer res.Cleanup()
	app := cli.NewApp(cfg, res.Store, nil)

	client, err := google.New(ctx, google.Options{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return err
	}

	consumer, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer consumer.Close()

	sw := worker.NewSheetsWorker(app.Expenses, client)

	// Catch up before consuming so a restart does not leave gaps.
	if n, err := sw.ReconcileMonth(ctx, core.DateOf(time.Now())); err != nil {
		logger.Error("Startup reconciliation failed", "error", err)
	} else {
		logger.Info("Startup reconciliation complete", "appended", n)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return consumer.ConsumeExpenseMaterialized(gctx, sw.HandleExpenseMaterialized) })
	g.Go(func() error { return sw.Run(gctx, cfg.SyncInterval) })
	return g.Wait()
}
