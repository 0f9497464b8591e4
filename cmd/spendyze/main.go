package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendyze/internal/cli"
	"spendyze/internal/config"
	apphttp "spendyze/internal/http"
	applog "spendyze/internal/log"
)

func main() {
	cfg := cli.LoadConfig((*config.Config).Validate)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	ctx, cancel := cli.SignalContext(logger)
	defer cancel()

	pipeline, err := cli.NewPipeline(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize client pipeline", "error", err)
		os.Exit(1)
	}
	defer pipeline.Close()

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:              pipeline.Store,
		Auth:               pipeline.Auth,
		Transactions:       pipeline.Transactions,
		Snapshot:           pipeline.Snapshot,
		Chat:               pipeline.Chat,
		Logger:             logger.WithComponent(applog.ComponentHTTP).Logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})
	if err != nil {
		logger.Error("Failed to initialize web server", "error", err)
		os.Exit(1)
	}

	// Chat submissions block until the model answers.
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = cfg.ChatTimeout + 10*time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting spendyze web client", "port", cfg.Port, "backend", cfg.Backend)
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
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
