package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"thirdcoast.systems/channelscribe/internal/application"
	"thirdcoast.systems/channelscribe/internal/config"
	"thirdcoast.systems/channelscribe/internal/db"
)

func main() {
	slog.Info("Starting run history migrator")

	startupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	conf, err := config.LoadConfig(startupCtx)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if !conf.HistoryEnabled() {
		slog.Error("DATABASE_DSN is not set; nothing to migrate")
		os.Exit(1)
	}

	pool, err := application.OpenDBPoolWithRetry(startupCtx, *conf)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	databaseConnection, err := db.NewDatabaseConnection(startupCtx, pool)
	if err != nil {
		slog.Error("failed to create database connection", "error", err)
		os.Exit(1)
	}

	if err := databaseConnection.Migrate(startupCtx); err != nil {
		slog.Error("failed to run PostgreSQL migrations", "error", err)
		os.Exit(1)
	}

	slog.Info("Database migrations completed successfully")
}
