package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wadjakorntonsri/go-hit-tracker/pkg/adapters/geo"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/adapters/repository/sqldb"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/config"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/core/services"
	"github.com/wadjakorntonsri/go-hit-tracker/pkg/logging"
)

func main() {
	cfg := config.Load()
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	// Initialize Repository
	repo, err := sqldb.NewRepository(cfg.DatabaseURL)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer repo.Close()

	geoProvider := geo.NewProvider(cfg.GeoEnabled, cfg.GeoBaseURL, cfg.GeoTimeout)

	// Initialize Services
	capture := services.NewCaptureService(repo, repo, geoProvider, cfg.FallbackRedirectURL)
	hits := services.NewHitService(repo)
	campaigns := services.NewCampaignService(repo, cfg.BaseURL)

	router := handler.NewRouter(cfg, capture, hits, campaigns)

	// WriteTimeout must outlast a geolocation lookup on the capture path
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.GeoTimeout + 10*time.Second,
	}

	go func() {
		logging.Info().
			Str("port", cfg.Port).
			Str("geo", geoProvider.Name()).
			Str("env", cfg.AppEnv).
			Msg("Server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("Server failed")
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	logging.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("Graceful shutdown failed")
	}
}
