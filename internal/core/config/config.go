// Package config loads process configuration from the environment.
//
// A .env file in the working directory is read first when present; real
// environment variables always win over it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// Config is built once at startup and handed to constructors.
type Config struct {
	AppEnv   string
	HTTPPort string
	LogLevel string

	DatabaseURL string
	DBMaxConns  int32

	JWTSecret string

	KafkaBrokers []string
	KafkaTopic   string

	OutboxBatchSize int
	OutboxInterval  time.Duration
	OutboxRetention time.Duration

	// IdempotencyTTL is how long a till may replay a request key.
	IdempotencyTTL time.Duration

	// Location defines the day boundaries used by report ranges.
	Location *time.Location

	Ledger LedgerSettings
}

// LedgerSettings are the tunables of the ledger and allocation rules.
type LedgerSettings struct {
	// PaymentEpsilon is the outstanding amount at or below which a purchase counts as paid.
	PaymentEpsilon decimal.Decimal
}

// DefaultLedgerSettings returns the standard tolerances.
func DefaultLedgerSettings() LedgerSettings {
	return LedgerSettings{PaymentEpsilon: decimal.New(1, -2)}
}

// IsDevelopment reports whether pretty logging should be used.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// Load reads configuration. DATABASE_URL is the only required variable.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		HTTPPort:        getEnv("APP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DBMaxConns:      int32(getEnvInt("DB_MAX_CONNS", 25)),
		JWTSecret:       getEnv("JWT_SECRET", "change-me"),
		KafkaBrokers:    splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      getEnv("KAFKA_TOPIC", "ledger.entries"),
		OutboxBatchSize: getEnvInt("OUTBOX_BATCH_SIZE", 100),
		OutboxInterval:  getEnvDuration("OUTBOX_INTERVAL", 2*time.Second),
		OutboxRetention: getEnvDuration("OUTBOX_RETENTION", 7*24*time.Hour),
		IdempotencyTTL:  getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		Ledger:          DefaultLedgerSettings(),
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("required environment variable DATABASE_URL not set")
	}

	if raw := os.Getenv("PAYMENT_EPSILON"); raw != "" {
		eps, err := decimal.NewFromString(raw)
		if err != nil || eps.IsNegative() {
			return Config{}, fmt.Errorf("invalid PAYMENT_EPSILON %q", raw)
		}
		cfg.Ledger.PaymentEpsilon = eps
	}

	loc, err := time.LoadLocation(getEnv("APP_TIMEZONE", "Local"))
	if err != nil {
		return Config{}, fmt.Errorf("load APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
