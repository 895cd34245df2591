// Package config loads static configuration from the environment and
// dynamic routing configuration from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Config holds the static application configuration. It is read once at
// startup; routing knobs that change at runtime live in the routing file
// instead (see Watcher).
type Config struct {
	// Server configuration
	ServerAddress string `validate:"required"`
	Environment   string `validate:"required,oneof=development staging production"`

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	IndexName     string
	EventBusName  string

	// RoutingConfigPath points at the optional routing YAML. Empty means
	// built-in defaults with no hot reload.
	RoutingConfigPath string

	// Cache sizing
	CacheMaxItems    int `validate:"min=0"`
	CacheMaxMemoryMB int `validate:"min=0"`

	// Logging and features
	LogLevel      string `validate:"oneof=debug info warn error"`
	EnableMetrics bool
	EnableCORS    bool
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", "wayfinder"),
		IndexName:     getEnv("INDEX_NAME", "WorkspaceSlugIndex"),
		EventBusName:  getEnv("EVENT_BUS_NAME", "wayfinder-events"),

		RoutingConfigPath: getEnv("ROUTING_CONFIG_PATH", ""),

		CacheMaxItems:    getEnvInt("CACHE_MAX_ITEMS", 10000),
		CacheMaxMemoryMB: getEnvInt("CACHE_MAX_MEMORY_MB", 64),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		EnableMetrics: getEnvBool("ENABLE_METRICS", true),
		EnableCORS:    getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags plus the
// environment-dependent rules tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.IsProduction() {
		if c.DynamoDBTable == "" {
			return fmt.Errorf("TABLE_NAME is required in production")
		}
		if c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required in production")
		}
	}
	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}
