// Package main is the entry point for the auth service.
//
// main() stays minimal — its job is:
//  1. Load configuration from the environment
//  2. Create the logger
//  3. Hand both to internal/server and start
//
// All actual logic lives in the imported packages. That separation keeps the
// application testable: internal/server can be constructed in tests without
// running main at all.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/auth-service/internal/config"
	"github.com/sakif/auth-service/internal/server"
)

func main() {
	// Config first — if the environment is broken, fail before anything else.
	// Bootstrap errors go to a default logger; the real one needs cfg.LogLevel.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))

	// The development secret is fine for local hacking and nothing else.
	// Every token signed with it can be forged by anyone who reads our source.
	if cfg.UsingDefaultSecret() {
		logger.Warn("JWT_SECRET not set — using the INSECURE development default; " +
			"set JWT_SECRET=$(openssl rand -hex 32) in production")
	}

	// Ensure the database directory exists (like `mkdir -p`). ":memory:" has
	// no directory; filepath.Dir returns "." for it, which MkdirAll accepts.
	if dbDir := filepath.Dir(cfg.DBPath); dbDir != "" {
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			logger.Error("failed to create database directory",
				slog.String("dir", dbDir),
				slog.String("error", err.Error()),
			)
			os.Exit(1)
		}
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// logLevel maps the LOG_LEVEL string to a slog.Level, defaulting to Info for
// anything unrecognized.
func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
