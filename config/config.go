package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"tradeLedger/internal/adapters/logger" // Import the logger package for LogLevel
)

// Config holds all application configuration.
type Config struct {
	// Database
	DBPath string

	// Watcher
	WatchDir        string // Directory tree scanned for exports
	ScanSchedule    string // Cron schedule of the scan, e.g. "@every 10s"
	RemoveOnSuccess bool   // Delete an export once it is ingested

	// Parser
	FormatProfile string // Optional TOML export format profile; defaults when empty

	// HTTP
	HTTPAddr string

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogPretty bool            // Human-readable console output instead of JSON
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Database
	cfg.DBPath = getEnv("DB_PATH", "./data/accounts_history.db")

	// Watcher
	cfg.WatchDir = getEnv("WATCH_DIR", "/fidelity")
	cfg.ScanSchedule = getEnv("SCAN_SCHEDULE", "@every 10s")
	if strings.TrimSpace(cfg.ScanSchedule) == "" {
		errs = append(errs, "SCAN_SCHEDULE must not be blank")
	}
	cfg.RemoveOnSuccess, err = getEnvAsBoolRequired("REMOVE_ON_SUCCESS", true)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REMOVE_ON_SUCCESS: %v", err))
	}

	// Parser
	cfg.FormatProfile = getEnv("FORMAT_PROFILE", "")
	if cfg.FormatProfile != "" {
		if _, statErr := os.Stat(cfg.FormatProfile); statErr != nil {
			errs = append(errs, fmt.Sprintf("FORMAT_PROFILE %s: %v", cfg.FormatProfile, statErr))
		}
	}

	// HTTP; set but empty disables the API
	cfg.HTTPAddr = getEnvAllowEmpty("HTTP_ADDR", ":8080")

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.LogPretty = getEnvAsBool("LOG_PRETTY", false)

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAllowEmpty(key, defaultValue string) string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return defaultValue
	}
	return strings.TrimSpace(value)
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBoolRequired(key string, defaultValue bool) (bool, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return false, fmt.Errorf("invalid boolean value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}
