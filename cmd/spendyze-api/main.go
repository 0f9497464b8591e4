package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendyze/internal/amqp"
	"spendyze/internal/api"
	"spendyze/internal/cli"
	"spendyze/internal/config"
	applog "spendyze/internal/log"
	"spendyze/internal/services"
)

func main() {
	cfg := cli.LoadConfig((*config.Config).ValidateAPI)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentAPI)

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	logger.Info("SQLite repository initialized", "path", cfg.SQLiteDBPath)

	var publisher amqp.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		publisher = client
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP not configured, transaction events disabled")
	}

	ledger := services.NewLedgerService(repo, publisher)
	defer func() {
		if err := ledger.Close(); err != nil {
			logger.Error("Failed to close ledger", "error", err)
		}
	}()

	srv := api.NewServer(":"+cfg.APIPort, repo, ledger, logger, api.WithPinger(repo))
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting spendyze API", "port", cfg.APIPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := cli.ShutdownContext(30 * time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err, "port", cfg.APIPort)
		os.Exit(1)
	}
	logger.Info("API stopped gracefully")
}
