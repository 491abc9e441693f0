// Package config loads static configuration from the environment and
// runtime-changeable limits from an optional watched file.
package config

import (
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"

	apperrors "docstore/pkg/errors"
)

// Config holds all static application configuration.
type Config struct {
	Environment string `validate:"oneof=development staging production"`

	// AWS configuration
	AWSRegion string `validate:"required"`
	TableName string `validate:"required"`

	// ActivityShards fixes the fan-out width of the per-day activity
	// index. It must never change once data exists.
	ActivityShards int `validate:"min=1,max=100"`

	// DefaultPageSize applies when a caller passes no limit.
	DefaultPageSize int32 `validate:"min=1,max=1000"`

	// Logging
	LogLevel string `validate:"oneof=debug info warn error"`

	// DynamicConfigPath points at the watched limits file; empty
	// disables hot reload.
	DynamicConfigPath string

	// Metrics
	EnableMetrics  bool
	MetricsAddress string
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:       getEnv("ENVIRONMENT", "development"),
		AWSRegion:         getEnv("AWS_REGION", "us-east-1"),
		TableName:         getEnv("TABLE_NAME", "docstore"),
		ActivityShards:    getEnvInt("ACTIVITY_SHARDS", 8),
		DefaultPageSize:   int32(getEnvInt("DEFAULT_PAGE_SIZE", 10)),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DynamicConfigPath: getEnv("DYNAMIC_CONFIG_PATH", ""),
		EnableMetrics:     getEnvBool("ENABLE_METRICS", false),
		MetricsAddress:    getEnv("METRICS_ADDRESS", ":9090"),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, apperrors.NewValidation("invalid configuration: " + err.Error())
	}
	return cfg, nil
}

// IsDevelopment checks if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
