// Package main is the entry point for the forecast server.
// It calibrates geometric Brownian motion to a ticker's recent closes,
// simulates price paths and serves scenario reports over HTTP, optionally
// pairing them with an LLM credibility check of a news item.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aristath/forecast/internal/config"
	"github.com/aristath/forecast/internal/di"
	"github.com/aristath/forecast/internal/server"
	"github.com/aristath/forecast/pkg/logger"
)

// main orchestrates startup and shutdown:
// 1. Loads configuration (defaults, optional YAML file, .env, environment)
// 2. Initializes logging
// 3. Wires databases, clients, services and jobs via the DI container
// 4. Starts the HTTP server and the job scheduler
// 5. Waits for SIGINT/SIGTERM and shuts down gracefully
func main() {
	cfg, err := config.Load()
	if err != nil {
		// Fallback logger, the configured one needs cfg.
		log := logger.New(logger.Config{Level: "info", Pretty: true})
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("version", server.Version).
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Msg("Starting forecast")

	container, err := di.Wire(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	srv := server.New(server.Config{
		Log:       log,
		Port:      cfg.Port,
		DevMode:   cfg.DevMode,
		DataDir:   cfg.DataDir,
		Databases: container.MonitoredDatabases(),
		Modules:   container.Modules,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	container.Scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stops the scheduler before the databases close underneath running jobs.
	if err := container.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close databases")
	}

	log.Info().Msg("Shutdown complete")
}
