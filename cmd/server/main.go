package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/shoplens/backend/config"
	"github.com/shoplens/backend/internal/app"
	httpDelivery "github.com/shoplens/backend/internal/delivery/http"
	"github.com/shoplens/backend/internal/logging"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}

	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Msg("starting ShopLens backend v1.0.0")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure and usecase layers
	application, err := app.New(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to initialize application")
	}
	defer func() {
		if err := application.Close(); err != nil {
			logging.Warn().Err(err).Msg("error releasing resources")
		}
	}()

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(application.Service, cfg.Server.MaxUploadMB)

	recorder := application.Recorder
	if !cfg.Metrics.Enabled {
		recorder = nil
	}

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, recorder)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logging.Error().Err(err).Msg("server failed")
		}
	case <-ctx.Done():
		logging.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("graceful shutdown failed")
		return
	}
	logging.Info().Msg("server stopped gracefully")
}
