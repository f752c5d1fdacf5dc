package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/platinummonkey/auval/pkg/catalog"
	"github.com/platinummonkey/auval/pkg/observability"
	"github.com/platinummonkey/auval/pkg/validator"
	"github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Catalog configuration
	Catalog CatalogConfig

	// Validation run configuration
	Validation ValidationConfig

	// History database configuration
	History HistoryConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// CatalogConfig holds component discovery settings
type CatalogConfig struct {
	Dirs           []string
	ExceptionsFile string
}

// ValidationConfig holds settings for validation runs
type ValidationConfig struct {
	Repetitions int
	Seed        uint64
	SeedSet     bool
	HostIsCocoa bool
}

// HistoryConfig holds the run history database settings. An empty path
// disables history.
type HistoryConfig struct {
	Path string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel string

	// Metrics
	MetricsFile string

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
	OTelSampleRatio    float64

	ShutdownTimeout time.Duration
}

// OTel returns the tracing and metrics exporter settings
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
		SampleRatio:    o.OTelSampleRatio,
	}
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	validation, err := loadValidationConfig()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Catalog:       loadCatalogConfig(),
		Validation:    validation,
		History:       HistoryConfig{Path: getEnv("AUVAL_HISTORY_DB", "")},
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadCatalogConfig loads catalog configuration from environment
func loadCatalogConfig() CatalogConfig {
	cfg := CatalogConfig{
		Dirs:           catalog.DefaultDirs(),
		ExceptionsFile: getEnv("AUVAL_EXCEPTIONS_FILE", ""),
	}
	if dirs := getEnvList("AUVAL_CATALOG_DIRS"); len(dirs) > 0 {
		cfg.Dirs = dirs
	}
	return cfg
}

// loadValidationConfig loads validation configuration from environment
func loadValidationConfig() (ValidationConfig, error) {
	cfg := ValidationConfig{
		Repetitions: getEnvInt("AUVAL_REPETITIONS", validator.DefaultRepetitions),
		HostIsCocoa: getEnvBool("AUVAL_HOST_COCOA", true),
	}
	if seed := getEnv("AUVAL_SEED", ""); seed != "" {
		v, err := strconv.ParseUint(seed, 0, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid AUVAL_SEED %q: %w", seed, err)
		}
		cfg.Seed = v
		cfg.SeedSet = true
	}
	return cfg, nil
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           getEnv("AUVAL_LOG_LEVEL", "info"),
		MetricsFile:        getEnv("AUVAL_METRICS_FILE", ""),
		OTelEnabled:        getEnvBool("AUVAL_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("AUVAL_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("AUVAL_OTEL_SERVICE_NAME", "auval"),
		OTelServiceVersion: getEnv("AUVAL_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("AUVAL_OTEL_INSECURE", true),
		OTelSampleRatio:    getEnvFloat("AUVAL_OTEL_SAMPLE_RATIO", 1.0),
		ShutdownTimeout:    getEnvDuration("AUVAL_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if len(c.Catalog.Dirs) == 0 {
		return fmt.Errorf("at least one catalog directory is required")
	}
	if c.Validation.Repetitions < 1 {
		return fmt.Errorf("repetitions must be at least 1, got %d", c.Validation.Repetitions)
	}
	if _, err := logrus.ParseLevel(c.Observability.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %s", c.Observability.LogLevel)
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if r := c.Observability.OTelSampleRatio; r < 0 || r > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1, got %g", r)
		}
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvList splits a path-list environment variable, dropping empty entries
func getEnvList(key string) []string {
	var out []string
	for _, part := range filepath.SplitList(os.Getenv(key)) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
