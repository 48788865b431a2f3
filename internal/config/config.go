// Package config loads application configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Strapi data service
	StrapiBaseURL  string
	StrapiAPIToken string
	StrapiTimeout  time.Duration

	// Session persistence. When RedisAddr is empty, sessions are held in memory.
	RedisAddr     string
	RedisPassword string
	RedisTLS      bool
	SessionTTL    time.Duration

	// Slot definitions outside this window are hidden from clients.
	BusinessHoursStart string
	BusinessHoursEnd   string

	// Pricing knobs not carried on the fetched service records.
	PropertyMultiplierHouse float64
	PropertyMultiplierFlat  float64
	CleaningSuppliesFee     float64

	CORSAllowedOrigins []string

	// Per-IP session creation rate limit and bucket eviction windows.
	SessionRatePerSec     float64
	SessionRateBurst      int
	SessionRateSweepEvery time.Duration
	SessionRateIdleAfter  time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		StrapiBaseURL:  strings.TrimRight(getEnv("STRAPI_BASE_URL", "http://localhost:1337"), "/"),
		StrapiAPIToken: getEnv("STRAPI_API_TOKEN", ""),
		StrapiTimeout:  getEnvAsDuration("STRAPI_TIMEOUT", 20*time.Second),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisTLS:      getEnvAsBool("REDIS_TLS", false),
		SessionTTL:    getEnvAsDuration("SESSION_TTL", 24*time.Hour),

		BusinessHoursStart: getEnv("BUSINESS_HOURS_START", "08:00"),
		BusinessHoursEnd:   getEnv("BUSINESS_HOURS_END", "20:00"),

		PropertyMultiplierHouse: getEnvAsFloat("PROPERTY_MULTIPLIER_HOUSE", 1.2),
		PropertyMultiplierFlat:  getEnvAsFloat("PROPERTY_MULTIPLIER_FLAT", 1.0),
		CleaningSuppliesFee:     getEnvAsFloat("CLEANING_SUPPLIES_FEE", 30),

		CORSAllowedOrigins: splitAndTrim(getEnv("CORS_ALLOWED_ORIGINS", "")),

		SessionRatePerSec:     getEnvAsFloat("SESSION_RATE_PER_SEC", 2),
		SessionRateBurst:      getEnvAsInt("SESSION_RATE_BURST", 10),
		SessionRateSweepEvery: getEnvAsDuration("SESSION_RATE_SWEEP_INTERVAL", 5*time.Minute),
		SessionRateIdleAfter:  getEnvAsDuration("SESSION_RATE_IDLE_TTL", 10*time.Minute),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
