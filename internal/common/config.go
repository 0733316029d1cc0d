// Package common holds configuration and logging shared across the service.
package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from the environment.
type Config struct {
	Port       string
	GinMode    string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	LogLevel string

	SessionSecret string
	SessionTTL    time.Duration

	// StartingCash is the cash balance granted to every new account.
	StartingCash float64

	// QuoteProvider selects the quote backend: "yahoo" or "sim".
	QuoteProvider string
}

// LoadConfig reads configuration from environment variables, applying
// defaults where unset. Call godotenv.Load first if a .env file should
// be honored.
func LoadConfig() Config {
	return Config{
		Port:          getEnv("PORT", "8080"),
		GinMode:       getEnv("GIN_MODE", ""),
		DBHost:        getEnv("DB_HOST", "localhost"),
		DBPort:        getEnv("DB_PORT", "5432"),
		DBUser:        getEnv("DB_USER", "trader"),
		DBPassword:    getEnv("DB_PASSWORD", "trading123"),
		DBName:        getEnv("DB_NAME", "papertrade"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SessionSecret: getEnv("SESSION_SECRET", "papertrade-dev-secret"),
		SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
		StartingCash:  getEnvFloat("STARTING_CASH", 10000),
		QuoteProvider: getEnv("QUOTE_PROVIDER", "yahoo"),
	}
}

// Helper function to get environment variable with default
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
