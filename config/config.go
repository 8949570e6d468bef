// Package config loads service configuration from the environment, with
// an optional .env file for local development.
package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/ChristianRM-dev/Grow-sub001/logger"
)

// Config holds everything the server needs to start.
type Config struct {
	// HTTP
	Addr string

	// Storage
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string
	LogOutput string
}

// Load reads configuration from the environment. A .env file in the
// working directory is merged in first if present; real environment
// variables win.
func Load() (*Config, error) {
	// Missing .env is not an error, it only exists in development.
	_ = godotenv.Load()

	return &Config{
		Addr:      getEnv("ADDR", ":8080"),
		DBPath:    getEnv("DB_PATH", "./data/billing.db"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		LogOutput: getEnv("LOG_OUTPUT", "stdout"),
	}, nil
}

// LoggerOptions maps the logging fields onto logger.Options.
func (c *Config) LoggerOptions() logger.Options {
	return logger.Options{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: c.LogOutput,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
