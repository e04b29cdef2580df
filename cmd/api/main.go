package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"designstudio/internal/bootstrap"
	"designstudio/internal/http/handlers"
	httpapi "designstudio/internal/http/httpapi"
	"designstudio/internal/infra"
	"designstudio/internal/infra/geoip"
	"designstudio/internal/middleware"
	"designstudio/internal/studio"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.Component(infra.NewLogger(cfg.AppEnv), "api")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := bootstrap.New(ctx, cfg, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: bootstrap failed")
	}
	defer rt.Close()

	var lookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("api: geoip disabled")
	} else if resolver != nil {
		lookup = resolver.CountryCode
		defer resolver.Close()
	}

	tracker := studio.NewTracker(rt.Orchestrator, &logger)
	app := handlers.NewApp(rt.Orchestrator, tracker, &logger)
	app.Ping = rt.Ping

	router := httpapi.NewRouter(app, httpapi.Options{
		Logger:          logger,
		JWTSecret:       cfg.JWTSecret,
		CORSOrigins:     cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		DefaultLocale:   "en",
		CountryLookup:   lookup,
		StaticDir:       rt.Files.BasePath(),
	})
	server := infra.NewHTTPServer(cfg, router)

	logger.Info().Str("addr", server.Addr()).Msg("api: listening")
	if err := server.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("api: http server failed")
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	// Interrupted 3D jobs stay pending and are resumed by the worker.
	if err := tracker.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Int("active", tracker.Active()).Msg("api: 3d tracker did not stop in time")
	}
	logger.Info().Msg("api: stopped")
}
