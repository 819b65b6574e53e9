package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"exptrack/internal/config"
	apphttp "exptrack/internal/http"
	"exptrack/internal/kv"
	"exptrack/internal/log"
	"exptrack/internal/storage"
	"exptrack/internal/tracker"
	"exptrack/internal/validate"
)

func main() {
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", log.FieldError, err)
		os.Exit(1)
	}

	backend, err := kv.NewBackend(cfg.Storage, logger.WithComponent(log.ComponentKV))
	if err != nil {
		logger.Error("Failed to initialize storage backend", log.FieldError, err)
		os.Exit(1)
	}
	defer backend.Close()

	store := storage.New(backend, cfg.Storage, logger)
	if !store.Available() {
		// Surfaced once here; every persistence call from now on is a
		// best-effort no-op.
		logger.Warn("Running without persistence")
	}

	validator := validate.New(cfg)
	tr := tracker.New(cfg, store, validator, logger)
	tr.Load()

	srv := apphttp.NewServer(":"+cfg.Server.Port, cfg, tr, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server",
			"port", cfg.Server.Port,
			"backend", cfg.Storage.Backend,
			"app", cfg.App.Name,
			"version", cfg.App.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
