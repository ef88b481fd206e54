package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// LoadEnv loads .env when present. A missing file is not an error.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file found, using process environment")
	}
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt parses an integer variable, falling back on absence or error.
func GetEnvInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		logrus.Warnf("Invalid integer for %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

// GetEnvFloat parses a float variable, falling back on absence or error.
func GetEnvFloat(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		logrus.Warnf("Invalid number for %s=%q, using %v", key, raw, defaultValue)
		return defaultValue
	}
	return f
}
