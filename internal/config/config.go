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
	DataDir          string  // Base directory for the price cache database (always absolute)
	Port             int     // HTTP listen port
	LogLevel         string  // debug, info, warn, error
	DevMode          bool    // Pretty logs, permissive CORS
	RiskFreeRate     float64 // Annual risk-free rate used for Sharpe ratios
	LookbackYears    int     // Price history window in years
	NumPortfolios    int     // Default Monte Carlo sample count
	SampleWorkers    int     // Sampler parallelism (<=1 means sequential)
	CacheMaxAgeHours int     // Price cache freshness bound before a refetch
}

// Load reads configuration from environment variables, with a .env file as
// fallback when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("FRONTIER_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to determine home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".frontier")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:          absDataDir,
		Port:             getEnvAsInt("FRONTIER_PORT", 8001),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		RiskFreeRate:     getEnvAsFloat("FRONTIER_RISK_FREE_RATE", 0.03),
		LookbackYears:    getEnvAsInt("FRONTIER_LOOKBACK_YEARS", 5),
		NumPortfolios:    getEnvAsInt("FRONTIER_NUM_PORTFOLIOS", 10000),
		SampleWorkers:    getEnvAsInt("FRONTIER_SAMPLE_WORKERS", 1),
		CacheMaxAgeHours: getEnvAsInt("FRONTIER_CACHE_MAX_AGE_HOURS", 24),
	}

	if cfg.LookbackYears <= 0 {
		return nil, fmt.Errorf("FRONTIER_LOOKBACK_YEARS must be positive, got %d", cfg.LookbackYears)
	}
	if cfg.NumPortfolios < 0 {
		return nil, fmt.Errorf("FRONTIER_NUM_PORTFOLIOS must not be negative, got %d", cfg.NumPortfolios)
	}

	return cfg, nil
}

// PriceCachePath returns the price cache database location.
func (c *Config) PriceCachePath() string {
	return filepath.Join(c.DataDir, "prices.db")
}

// CalcCachePath returns the calculations cache database location.
func (c *Config) CalcCachePath() string {
	return filepath.Join(c.DataDir, "calculations.db")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
