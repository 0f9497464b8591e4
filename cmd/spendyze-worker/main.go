package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"spendyze/internal/amqp"
	"spendyze/internal/cli"
	"spendyze/internal/config"
	applog "spendyze/internal/log"
	gsheet "spendyze/internal/sheets/google"
	"spendyze/internal/worker"
)

func main() {
	cfg := cli.LoadConfig((*config.Config).ValidateWorker)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)
	logger.Info("Starting spendyze-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	exporter, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:          cfg.GoogleSpreadsheetID,
		SheetName:              cfg.GoogleSheetName,
		ServiceAccountJSON:     cfg.GoogleServiceAccountJSON,
		ServiceAccountFile:     cfg.GoogleServiceAccountFile,
		ApplicationCredentials: cfg.GoogleApplicationCredsFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets exporter", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exportWorker := worker.NewExportWorker(repo, exporter, cfg.ExportBatchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := amqpClient.ConsumeTransactionRecorded(gctx, exportWorker.HandleMessage); err != nil {
			return err
		}
		return errors.New("AMQP consumer stopped")
	})
	// The sweep also picks up rows saved while the worker was down, which
	// have no event waiting for them.
	g.Go(func() error {
		return exportWorker.RunPendingLoop(gctx, cfg.ExportInterval)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
