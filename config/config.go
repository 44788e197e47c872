// Package config loads process configuration from environment variables and
// an optional .env file. The resulting Config is built once at startup and
// passed by value; nothing reads the environment after that.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// RateTier is one fixed-window throttling tier. Every request must pass all
// configured tiers.
type RateTier struct {
	Name   string        // Tier name, used in counter keys
	Window time.Duration // Fixed window size
	Limit  int64         // Maximum requests per window
}

// Config holds all settings for the gatekeeper service.
type Config struct {
	Port        string // HTTP listen port
	Environment string // "production" disables the dev endpoints
	LogLevel    string // zerolog level name

	SecretKey string // JWT signing and password-HMAC secret, mandatory

	RedisURL    string // Nonce store and rate counters
	AdminDBPath string // SQLite file for admin credentials

	NonceTTL      time.Duration // Lifetime of issued nonces
	MessageMaxTTL time.Duration // Maximum accepted challenge TTL
	UserTokenTTL  time.Duration // Access token lifetime, role user
	AdminTokenTTL time.Duration // Access token lifetime, role admin

	ShortTier RateTier
	LongTier  RateTier

	SIWEDomain    string
	SIWEURI       string
	SIWEStatement string
	SIWEChainID   int
}

// Load reads configuration from the environment, with an optional .env file
// underneath. The signing secret is the one setting with no default: its
// absence is a startup error.
func Load() (Config, error) {
	// Environment variables take precedence over the .env file.
	_ = godotenv.Load()

	cfg := Config{
		Port:        getEnv("PORT", "8000"),
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		SecretKey: os.Getenv("JWT_SECRET_KEY"),

		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AdminDBPath: getEnv("ADMIN_DB_PATH", "gatekeeper.db"),

		NonceTTL:      getEnvAsDuration("NONCE_TTL", 24*time.Hour),
		MessageMaxTTL: getEnvAsDuration("MESSAGE_MAXIMUM_TTL", 24*time.Hour),
		UserTokenTTL:  getEnvAsDuration("USER_TOKEN_TTL", 24*time.Hour),
		AdminTokenTTL: getEnvAsDuration("ADMIN_TOKEN_TTL", 12*time.Hour),

		ShortTier: RateTier{
			Name:   "short",
			Window: getEnvAsDuration("SHORT_TTL", time.Second),
			Limit:  getEnvAsInt64("SHORT_LIMIT", 1),
		},
		LongTier: RateTier{
			Name:   "long",
			Window: getEnvAsDuration("LONG_TTL", time.Minute),
			Limit:  getEnvAsInt64("LONG_LIMIT", 20),
		},

		SIWEDomain:    getEnv("SIWE_DOMAIN", "localhost"),
		SIWEURI:       getEnv("SIWE_URI", "http://localhost/auth"),
		SIWEStatement: getEnv("SIWE_STATEMENT", "Welcome to TruthMemes"),
		SIWEChainID:   int(getEnvAsInt64("SIWE_CHAIN_ID", 1)),
	}

	if cfg.SecretKey == "" {
		return Config{}, errors.New("JWT_SECRET_KEY is required to start the server")
	}

	return cfg, nil
}

// IsProduction reports whether the dev-only endpoints must stay disabled.
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvAsInt64(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
