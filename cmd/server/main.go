// Package main is the entry point for the Folio portfolio tracker.
// It serves the holdings CRUD API, portfolio analytics and the
// market-data endpoints over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/foliolabs/folio/internal/config"
	"github.com/foliolabs/folio/internal/di"
	"github.com/foliolabs/folio/internal/scheduler"
	"github.com/foliolabs/folio/internal/server"
	"github.com/foliolabs/folio/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Str("data_dir", cfg.DataDir).Msg("Starting Folio")

	if cfg.FinnhubAPIKey == "" {
		log.Warn().Msg("FINNHUB_API_KEY not configured - quotes and fundamentals will be unavailable")
	}
	if cfg.AlphaVantageAPIKey == "" {
		log.Warn().Msg("ALPHAVANTAGE_API_KEY not configured - regional quotes and overviews will be unavailable")
	}

	container, err := di.Wire(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:      log,
		Port:     cfg.Port,
		DevMode:  cfg.DevMode,
		Handlers: container.Handlers,
		System:   container.SystemHandlers,
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	sched := scheduler.New(log)
	if err := sched.AddJob("@hourly", scheduler.NewCachePurgeJob(container.Cache, log)); err != nil {
		log.Error().Err(err).Msg("Failed to register cache purge job")
	}
	sched.Start()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
