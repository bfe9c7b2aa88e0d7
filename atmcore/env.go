package atmcore

import (
	"os"
	"strconv"
	"time"
)

// GetenvOrDefault returns the value of the environment variable identified by
// key, or defaultValue when the variable is unset or empty.
func GetenvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// GetenvIntOrDefault returns the integer value of the environment variable
// identified by key, or defaultValue when the variable is unset, empty, or not
// a valid integer.
func GetenvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

// GetenvBoolOrDefault returns the boolean value of the environment variable
// identified by key, or defaultValue when the variable is unset, empty, or not
// a valid boolean.
func GetenvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}

// GetenvDurationOrDefault returns the duration value of the environment
// variable identified by key, or defaultValue when the variable is unset,
// empty, or not parseable by time.ParseDuration.
func GetenvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return parsed
}
