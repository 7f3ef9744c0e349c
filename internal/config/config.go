package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Backend selection
	DataBackend string

	// CSV backend
	CSVDir string

	// Google Sheets backend
	GoogleSpreadsheetID string
	SessionsSheetName   string
	PayrollSheetName    string
	ClientsSheetName    string

	// Report defaults
	MinSessions int
	TopN        int
	RetainLimit int

	// Record-set cache
	CacheTTL  time.Duration
	CacheSize int
}

func Load() *Config {
	cfg := &Config{
		DataBackend: getEnv("DATA_BACKEND", "memory"),

		CSVDir: getEnv("CSV_DIR", "./data"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		SessionsSheetName:   getEnv("SESSIONS_SHEET_NAME", "Sessions"),
		PayrollSheetName:    getEnv("PAYROLL_SHEET_NAME", "Payroll"),
		ClientsSheetName:    getEnv("CLIENTS_SHEET_NAME", "Clients"),

		MinSessions: getEnvInt("MIN_SESSIONS", 10),
		TopN:        getEnvInt("TOP_N", 0),
		RetainLimit: getEnvInt("RETAIN_LIMIT", 20),

		CacheTTL:  getEnvDuration("CACHE_TTL", 5*time.Minute),
		CacheSize: getEnvInt("CACHE_SIZE", 16),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	validBackends := []string{"memory", "csv", "sheets"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "csv" {
		if c.CSVDir == "" {
			errors = append(errors, "CSV directory cannot be empty when using csv backend")
		} else if _, err := os.Stat(c.CSVDir); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("CSV directory does not exist: %s", c.CSVDir))
		}
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.SessionsSheetName == "" {
			errors = append(errors, "sessions sheet name cannot be empty when using sheets backend")
		}
	}

	if c.MinSessions < 0 {
		errors = append(errors, fmt.Sprintf("invalid minimum sessions %d: must not be negative", c.MinSessions))
	}
	if c.TopN < 0 {
		errors = append(errors, fmt.Sprintf("invalid top n %d: must not be negative", c.TopN))
	}
	if c.RetainLimit < 1 {
		errors = append(errors, fmt.Sprintf("invalid retain limit %d: must be at least 1", c.RetainLimit))
	}

	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache ttl %v: must be at least 1 second", c.CacheTTL))
	}
	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
