package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mcoot/leaguetracker/internal/api"
	"github.com/mcoot/leaguetracker/internal/config"
	"github.com/mcoot/leaguetracker/internal/factory"
	"github.com/mcoot/leaguetracker/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, "leaguetracker", cfg.OTelEndpoint)
	if err != nil {
		logger.Error("failed to set up telemetry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logger.Warn("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}()

	// Create application factory
	app, err := factory.New(factory.ConfigFromEnv(cfg, logger))
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = app.Storage.Close() }()

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:     logger,
		Storage:    app.Storage,
		Reconciler: app.Reconciler,
		Events:     app.Hub,
		Roster:     app.Roster,
		Gatherer:   app.Registry,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Port = cfg.HTTPPort
	server := api.NewServer(apiRouter, serverConfig, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)
	g.Go(func() error { return app.Hub.Run(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		return server.Shutdown(context.Background())
	})

	if cfg.PollingEnabled {
		if !cfg.IngestInline {
			g.Go(func() error { return app.Ingestor.Run(gctx) })
		}
		g.Go(func() error { return app.Orchestrator.Run(gctx) })
	} else {
		logger.Info("polling disabled; serving API only")
	}

	logger.Info("server started",
		slog.String("addr", server.Addr()),
		slog.String("storage", cfg.StorageType),
		slog.Bool("polling", cfg.PollingEnabled),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("server stopped")
}
