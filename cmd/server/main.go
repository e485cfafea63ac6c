// Package main is the entry point for the clubgate server. It loads
// configuration, establishes database connections, wires together all
// plugins, and runs the HTTP server with its maintenance job.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/arelclub/clubgate/internal/app"
	"github.com/arelclub/clubgate/internal/config"
	"github.com/arelclub/clubgate/internal/database"
)

func main() {
	if err := run(); err != nil {
		slog.Error("clubgate stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Configure structured logging based on environment.
	setupLogging(cfg)

	slog.Info("starting clubgate",
		slog.String("env", cfg.Env),
		slog.Int("port", cfg.Port),
	)

	// SIGINT/SIGTERM cancel ctx, which drains the server and stops the
	// maintenance job. Required for Railway/Docker restarts to be seamless.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Connect to MariaDB ---
	db, err := database.NewMariaDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.Info("connected to MariaDB")

	if err := database.RunMigrations(db); err != nil {
		return err
	}

	// --- Connect to Redis (optional) ---
	rdb, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		slog.Info("connected to Redis")
	} else {
		slog.Info("REDIS_URL not set, admin stats cache disabled")
	}

	// --- Create Application ---
	application, err := app.New(cfg, db, rdb)
	if err != nil {
		return err
	}
	application.RegisterRoutes()

	if err := application.Bootstrap(ctx); err != nil {
		return err
	}

	return application.Run(ctx)
}

// setupLogging configures the global slog logger based on the environment.
// Development uses text format for readability. Production uses JSON for
// structured log aggregation.
func setupLogging(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if cfg.IsDevelopment() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
