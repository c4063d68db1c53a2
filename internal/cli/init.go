// Package cli provides common CLI initialization utilities.
// This package consolidates repeated initialization patterns across
// cmd/entrate, cmd/entrate-desktop, and cmd/entrate-worker.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"entrate/internal/backend"
	"entrate/internal/config"
	"entrate/internal/services"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *slog.Logger {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend builds the configured record store (plus the optional AMQP
// client) and exits the process on failure.
func InitBackend(logger *slog.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger)
	result, err := factory.CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", backendCfg.Type)
		os.Exit(1)
	}
	return result
}

// NewRecordService assembles the record service over a backend result.
// The AMQP publisher is attached only when the client exists; assigning a
// nil *amqp.Client directly would make the interface non-nil.
func NewRecordService(result *backend.BackendResult) *services.RecordService {
	var publisher services.RecordPublisher
	if result.AMQP != nil {
		publisher = result.AMQP
	}
	return services.NewRecordService(result.Backend, publisher)
}
