package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/learnhub/learning-progress-hub/internal/infrastructure/syncer"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// Remote progress store
	Remote RemoteConfig

	// Sync coordinator
	Sync SyncConfig

	// Local durable storage
	Storage StorageConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string
	Environment Environment
	Debug       bool

	// Log level: debug, info, warn, error
	LogLevel string

	// Graceful shutdown timeout; bounds the final sync at teardown
	ShutdownTimeout time.Duration
}

// RemoteConfig holds remote progress store settings.
type RemoteConfig struct {
	// Base URL of the progress API
	// Example: https://api.learnhub.example
	BaseURL string

	// Request timeout
	Timeout time.Duration

	// Fire-and-forget fallback request timeout
	BeaconTimeout time.Duration

	// Retry settings for the login fetch
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
}

// SyncConfig holds sync coordinator settings.
type SyncConfig struct {
	// Trailing-edge debounce window for background writes
	DebounceInterval time.Duration

	// Timeout of one background write
	WriteTimeout time.Duration
}

// StorageConfig holds local durable storage settings.
type StorageConfig struct {
	// Path of the sqlite database file
	Path string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "learning-progress-hub"),
			Environment:     Environment(getEnv("APP_ENV", string(EnvDevelopment))),
			Debug:           getEnvBool("APP_DEBUG", false),
			LogLevel:        getEnv("LOG_LEVEL", "info"),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Remote: RemoteConfig{
			BaseURL:          getEnv("PROGRESS_API_URL", ""),
			Timeout:          getEnvDuration("PROGRESS_API_TIMEOUT", 15*time.Second),
			BeaconTimeout:    getEnvDuration("PROGRESS_API_BEACON_TIMEOUT", 3*time.Second),
			RetryMaxAttempts: getEnvInt("PROGRESS_API_RETRY_ATTEMPTS", 3),
			RetryBaseDelay:   getEnvDuration("PROGRESS_API_RETRY_DELAY", 200*time.Millisecond),
		},
		Sync: SyncConfig{
			DebounceInterval: getEnvDuration("SYNC_DEBOUNCE_INTERVAL", syncer.DefaultDebounceInterval),
			WriteTimeout:     getEnvDuration("SYNC_WRITE_TIMEOUT", 15*time.Second),
		},
		Storage: StorageConfig{
			Path: getEnv("STORAGE_PATH", "progress.db"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Remote.BaseURL == "" {
		errs = append(errs, "PROGRESS_API_URL is required")
	} else if !strings.HasPrefix(c.Remote.BaseURL, "http://") && !strings.HasPrefix(c.Remote.BaseURL, "https://") {
		errs = append(errs, "PROGRESS_API_URL must start with http:// or https://")
	}

	switch c.App.Environment {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Sprintf("APP_ENV has unknown value: %s", c.App.Environment))
	}

	if c.Storage.Path == "" {
		errs = append(errs, "STORAGE_PATH must not be empty")
	}

	if c.Sync.DebounceInterval <= 0 {
		errs = append(errs, "SYNC_DEBOUNCE_INTERVAL must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// --- Helper functions for environment variable parsing ---

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvInt(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
