// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DataDir            string // Base directory for the holdings database, always absolute
	Port               int
	LogLevel           string
	DevMode            bool
	FinnhubAPIKey      string // Primary quote/fundamentals provider credential
	AlphaVantageAPIKey string // Secondary provider credential (regional quotes, overviews)
	BenchmarkSymbol    string // Reference index for the portfolio benchmark
}

// Load reads configuration from environment variables. A .env file in
// the working directory is loaded first if present.
//
// Missing provider credentials are not an error here: their absence
// surfaces at call time as an adapter-level failure, so the process
// still starts and serves everything that does not need the provider.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("FOLIO_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".folio")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Config{
		DataDir:            absDataDir,
		Port:               getEnvAsInt("PORT", 8080),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DevMode:            getEnvAsBool("DEV_MODE", false),
		FinnhubAPIKey:      getEnv("FINNHUB_API_KEY", ""),
		AlphaVantageAPIKey: getEnv("ALPHAVANTAGE_API_KEY", ""),
		BenchmarkSymbol:    getEnv("BENCHMARK_SYMBOL", "SPY"),
	}, nil
}

// HoldingsDBPath returns the path of the holdings database file.
func (c *Config) HoldingsDBPath() string {
	return filepath.Join(c.DataDir, "holdings.db")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
