// Package main is the entry point for the DevRel dashboard API server.
//
// It only reads configuration, builds the logger and the database, and hands
// them to package server. All behaviour lives under internal/.
//
// Minimal local run:
//
//	JWT_SECRET=$(openssl rand -hex 32) ADMIN_EMAIL=me@example.com ADMIN_PASSWORD=changeme123 \
//	  go run ./cmd/server
package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/devrel-dashboard/internal/config"
	sqliteRepo "github.com/sakif/devrel-dashboard/internal/repository/sqlite"
	"github.com/sakif/devrel-dashboard/internal/server"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// The database directory is created on first run, like `mkdir -p`.
	if cfg.DBPath != ":memory:" {
		dbDir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dbDir, 0o755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open database", slog.String("path", cfg.DBPath), slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(context.Background(), cfg, logger, db)
	if err != nil {
		db.Close()
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until SIGINT/SIGTERM and closes the database on the way out.
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
