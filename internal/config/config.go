// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/aristath/vitals/internal/domain"
)

// DefaultCycleSchedule runs an advisory cycle every five minutes
const DefaultCycleSchedule = "0 */5 * * * *"

// Config holds application configuration
type Config struct {
	DataDir              string // Base directory for the cache database, always absolute
	SnapshotPath         string // YAML snapshot; empty selects the static demo adapter
	LogLevel             string
	Port                 int
	DevMode              bool
	CycleSchedule        string // empty disables periodic cycles
	MinimumReserve       float64
	IncludeSuperiority   bool
	CounterfactualTrials int
	BrokerAPIKey         string
	BrokerAPISecret      string
	History              HistoryConfig
}

// HistoryConfig locates the candle archive used by replays
type HistoryConfig struct {
	Bucket          string
	Prefix          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	RateLimit       float64 // requests per second
	CacheTTL        time.Duration
}

// Enabled reports whether an archive bucket is configured
func (h HistoryConfig) Enabled() bool {
	return h.Bucket != ""
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	absDataDir, err := filepath.Abs(getEnv("DATA_DIR", "./data"))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:              absDataDir,
		SnapshotPath:         getEnv("SNAPSHOT_PATH", ""),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		Port:                 getEnvAsInt("GO_PORT", 8001),
		DevMode:              getEnvAsBool("DEV_MODE", false),
		CycleSchedule:        getEnvAllowEmpty("CYCLE_SCHEDULE", DefaultCycleSchedule),
		MinimumReserve:       getEnvAsFloat("MINIMUM_RESERVE", domain.DefaultMinimumReserve),
		IncludeSuperiority:   getEnvAsBool("INCLUDE_SUPERIORITY", true),
		CounterfactualTrials: getEnvAsInt("COUNTERFACTUAL_TRIALS", 0),
		BrokerAPIKey:         getEnv("BROKER_API_KEY", ""),
		BrokerAPISecret:      getEnv("BROKER_API_SECRET", ""),
		History: HistoryConfig{
			Bucket:          getEnv("HISTORY_S3_BUCKET", ""),
			Prefix:          getEnv("HISTORY_S3_PREFIX", ""),
			Region:          getEnv("HISTORY_S3_REGION", ""),
			Endpoint:        getEnv("HISTORY_S3_ENDPOINT", ""),
			AccessKeyID:     getEnv("HISTORY_S3_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("HISTORY_S3_SECRET_ACCESS_KEY", ""),
			RateLimit:       getEnvAsFloat("HISTORY_RATE_LIMIT", 5),
			CacheTTL:        getEnvAsDuration("HISTORY_CACHE_TTL", 24*time.Hour),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// HasBrokerCredentials reports whether both broker keys are present
func (c *Config) HasBrokerCredentials() bool {
	return c.BrokerAPIKey != "" && c.BrokerAPISecret != ""
}

// CacheDBPath is the location of the candle cache database
func (c *Config) CacheDBPath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid GO_PORT %d: must be between 1 and 65535", c.Port)
	}
	if c.MinimumReserve < 0 {
		return fmt.Errorf("invalid MINIMUM_RESERVE %.2f: must not be negative", c.MinimumReserve)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil || c.LogLevel == "" {
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if c.CounterfactualTrials < 0 {
		return fmt.Errorf("invalid COUNTERFACTUAL_TRIALS %d: must not be negative", c.CounterfactualTrials)
	}
	if c.History.RateLimit <= 0 {
		return fmt.Errorf("invalid HISTORY_RATE_LIMIT %.2f: must be positive", c.History.RateLimit)
	}
	if c.CycleSchedule != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.CycleSchedule); err != nil {
			return fmt.Errorf("invalid CYCLE_SCHEDULE %q: %w", c.CycleSchedule, err)
		}
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAllowEmpty treats an explicitly empty variable as a value
func getEnvAllowEmpty(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
