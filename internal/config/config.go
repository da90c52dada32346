package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the MillGuard service.
type Config struct {
	// Service addresses
	HTTPPort string
	GRPCPort string
	NatsURL  string

	// Persistence
	StoreDriver   string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Simulation and live updates
	UpdateInterval string // cron spec, e.g. "@every 30s"
	SimulationSeed int64
	HistoryDays    int
	ForceReseed    bool

	// Alerts
	AlertRetentionDays int

	// Health index calibration landmarks
	NominalPowerFactor      float64
	PressureMidpointPenalty float64

	// Optional YAML file replacing the built-in equipment registry
	EquipmentConfigPath string

	// Logging
	LogLevel  string
	LogFormat string
}

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverMemory   = "memory"
)

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	// Try multiple .env locations
	envPaths := []string{
		".env",
		"../.env",
		"/app/.env", // Docker
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("Loaded config from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Printf("No .env file found, using environment variables")
	}

	config := FromEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// FromEnv builds a Config from the current environment without touching .env files.
func FromEnv() *Config {
	return &Config{
		HTTPPort: getEnvOrDefault("HTTP_PORT", "8050"),
		GRPCPort: getEnvOrDefault("GRPC_PORT", "50051"),
		NatsURL:  os.Getenv("NATS_URL"),

		StoreDriver:   strings.ToLower(getEnvOrDefault("STORE_DRIVER", DriverSQLite)),
		DatabaseURL:   getEnvOrDefault("DATABASE_URL", "millguard.db"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       parseIntOrDefault("REDIS_DB", 0),

		UpdateInterval: getEnvOrDefault("UPDATE_INTERVAL", "@every 30s"),
		SimulationSeed: int64(parseIntOrDefault("SIMULATION_SEED", 42)),
		HistoryDays:    parseIntOrDefault("HISTORY_DAYS", 90),
		ForceReseed:    getEnvOrDefault("FORCE_RESEED", "false") == "true",

		AlertRetentionDays: parseIntOrDefault("ALERT_RETENTION_DAYS", 30),

		NominalPowerFactor:      parseFloatOrDefault("SCORING_NOMINAL_POWER_FACTOR", 1.05),
		PressureMidpointPenalty: parseFloatOrDefault("SCORING_PRESSURE_MIDPOINT_PENALTY", 10.0),

		EquipmentConfigPath: os.Getenv("EQUIPMENT_CONFIG"),

		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.HTTPPort == "" {
		return fmt.Errorf("HTTP_PORT is required")
	}

	if c.GRPCPort == "" {
		return fmt.Errorf("GRPC_PORT is required")
	}

	switch c.StoreDriver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for store driver %s", c.StoreDriver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of sqlite, postgres, mysql, memory (got %q)", c.StoreDriver)
	}

	if c.HistoryDays <= 0 {
		return fmt.Errorf("HISTORY_DAYS must be positive")
	}

	if c.AlertRetentionDays <= 0 {
		return fmt.Errorf("ALERT_RETENTION_DAYS must be positive")
	}

	if c.NominalPowerFactor < 1 {
		return fmt.Errorf("SCORING_NOMINAL_POWER_FACTOR must be at least 1")
	}

	if c.PressureMidpointPenalty < 0 || c.PressureMidpointPenalty > 100 {
		return fmt.Errorf("SCORING_PRESSURE_MIDPOINT_PENALTY must be between 0 and 100")
	}

	if _, err := cron.ParseStandard(c.UpdateInterval); err != nil {
		return fmt.Errorf("UPDATE_INTERVAL is not a valid schedule: %w", err)
	}

	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}

	return nil
}

// Helper functions
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var result float64
		if _, err := fmt.Sscanf(value, "%f", &result); err == nil {
			return result
		}
	}
	return defaultValue
}
