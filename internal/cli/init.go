// Package cli provides common initialization for the studiometrics
// command: logging, .env loading, config validation, and backend
// selection.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"studiometrics/internal/config"
	"studiometrics/internal/log"
	"studiometrics/internal/source"
	"studiometrics/internal/source/csvfile"
	"studiometrics/internal/source/google"
	"studiometrics/internal/source/memory"
)

// SetupLogger initializes structured logging and sets it as default.
func SetupLogger(level slog.Level) *log.Logger {
	logger := log.New(log.Config{
		Level:     level,
		Component: log.ComponentApp,
		Output:    os.Stderr,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// NewSource builds the record source selected by the config.
func NewSource(ctx context.Context, cfg *config.Config, logger *log.Logger) (source.RecordSource, error) {
	switch cfg.DataBackend {
	case "csv":
		return csvfile.New(cfg.CSVDir, logger), nil
	case "sheets":
		return google.New(ctx, google.Config{
			SpreadsheetID: cfg.GoogleSpreadsheetID,
			SessionsSheet: cfg.SessionsSheetName,
			PayrollSheet:  cfg.PayrollSheetName,
			ClientsSheet:  cfg.ClientsSheetName,
		}, logger)
	case "memory":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown data backend %q", cfg.DataBackend)
	}
}
