package main

import (
	"context"
	"net/http"
	"os"
	sig "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/civicpulse/backend/internal/analytics"
	"github.com/civicpulse/backend/internal/config"
	"github.com/civicpulse/backend/internal/db"
	"github.com/civicpulse/backend/internal/geocode"
	httpapi "github.com/civicpulse/backend/internal/http"
	"github.com/civicpulse/backend/internal/signal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "civicpulse-backend").Logger()

	ctx := context.Background()
	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure schema")
	}

	var signals signal.Provider
	if cfg.SignalsURL == "" {
		signals = signal.MockProvider{ModelVersion: "mock-v1"}
		logger.Info().Msg("using mock signal provider")
	} else {
		signals = signal.HTTPProvider{BaseURL: cfg.SignalsURL}
	}

	geocoder := &geocode.NominatimGeocoder{
		BaseURL:   cfg.GeocoderURL,
		UserAgent: cfg.GeocoderAgent,
	}

	departments, err := cfg.DepartmentMap()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load department mapping")
	}
	engine := analytics.Engine{
		Policy:      cfg.SLAPolicy(),
		Departments: departments,
		Logger:      logger,
	}

	router := httpapi.Router(cfg, store, signals, geocoder, engine, logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	sig.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
