package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Port               string
	DatabasePath       string
	LogLevel           string
	MaxUploadSizeBytes int64

	// Timezones offered as defaults when the import request omits them.
	DefaultSourceTimezone string
	DefaultTargetTimezone string

	// Base currency of the default account; drives the CAD risk conversion.
	BaseCurrency string

	DefaultAccountName string

	// How long a parsed-but-unconfirmed import preview stays available.
	PreviewExpiry        time.Duration
	CacheCleanupInterval time.Duration

	RateLimitInterval time.Duration
	RateLimitBurst    int
}

var Cfg *AppConfig

func LoadConfig() {
	errEnv := godotenv.Load()
	if errEnv != nil {
		log.Println("Info: No .env file found or error loading .env file. Relying on OS environment variables and defaults. Error (if any):", errEnv)
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxUploadSizeBytesStr := getEnv("MAX_UPLOAD_SIZE_BYTES", "10485760")
	maxUploadSizeBytes, err := strconv.ParseInt(maxUploadSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_UPLOAD_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxUploadSizeBytesStr, err)
		maxUploadSizeBytes = 10 * 1024 * 1024
	}

	previewExpiry := getEnvAsDuration("PREVIEW_EXPIRY", 15*time.Minute)
	cacheCleanup := getEnvAsDuration("CACHE_CLEANUP_INTERVAL", 30*time.Minute)
	rateLimitInterval := getEnvAsDuration("RATE_LIMIT_INTERVAL", 100*time.Millisecond)

	Cfg = &AppConfig{
		Port:               getEnv("PORT", "8080"),
		DatabasePath:       getEnv("DATABASE_PATH", "./tradevault.db"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		MaxUploadSizeBytes: maxUploadSizeBytes,

		DefaultSourceTimezone: getEnv("DEFAULT_SOURCE_TIMEZONE", "UTC"),
		DefaultTargetTimezone: getEnv("DEFAULT_TARGET_TIMEZONE", "America/New_York"),

		BaseCurrency:       getEnv("BASE_CURRENCY", "USD"),
		DefaultAccountName: getEnv("DEFAULT_ACCOUNT_NAME", "Main"),

		PreviewExpiry:        previewExpiry,
		CacheCleanupInterval: cacheCleanup,

		RateLimitInterval: rateLimitInterval,
		RateLimitBurst:    getEnvAsInt("RATE_LIMIT_BURST", 30),
	}

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, DBPath=%s, TargetTZ=%s",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabasePath, Cfg.DefaultTargetTimezone)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Environment variable %s not set, using default: %s", key, fallback)
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Integer value for %s not set or empty, using default: %d", key, fallback)
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		log.Printf("Duration value for %s not set or empty, using default: %s", key, fallback.String())
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}
