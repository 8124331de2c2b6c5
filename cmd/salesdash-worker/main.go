package main

import (
	"context"
	"errors"
	"os"

	"salesdash/internal/amqp"
	"salesdash/internal/cli"
	applog "salesdash/internal/log"
	"salesdash/internal/sheets/google"
	"salesdash/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentWorker)
	logger.Info("Starting salesdash-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	if !cfg.HasGoogleCredentials() {
		logger.Error("The worker mirrors Google Sheets; set GOOGLE_SPREADSHEET_ID and service account credentials")
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required by the worker")
		os.Exit(1)
	}

	sqliteRepo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	sheetsClient, err := google.New(context.Background(), google.Options{
		SpreadsheetID: cfg.GoogleSpreadsheetID,
		SalesSheet:    cfg.GoogleSalesSheet,
		PairSheet:     cfg.GooglePairSheet,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, func(context.Context) {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close failed", "error", err)
		}
		if err := sqliteRepo.Close(); err != nil {
			logger.Warn("SQLite close failed", "error", err)
		}
	})

	syncWorker := worker.NewSyncWorker(sheetsClient, sqliteRepo, cfg.SyncConcurrency)

	logger.Info("Performing startup sync check...")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		// Keep running; the periodic sync retries.
		logger.Error("Failed startup sync check", "error", err)
	}

	go func() {
		if err := amqpClient.ConsumeRefresh(ctx, syncWorker.HandleRefreshMessage); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	go syncWorker.RunPeriodic(ctx, cfg.SyncInterval)

	logger.Info("Worker running",
		"queue", cfg.AMQPQueue,
		"sync_interval", cfg.SyncInterval,
		"concurrency", cfg.SyncConcurrency)

	cli.WaitForShutdown(ctx, done)
}
