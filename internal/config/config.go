package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/neurowallet/neurowallet/internal/rates"
	"github.com/neurowallet/neurowallet/internal/risk"
)

const (
	defaultAppName         = "NeuroWallet"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultLockExpiry      = 10 * time.Second
	defaultTxRateLimit     = 30
	defaultEventsStream    = "neurowallet:transactions"
	defaultCurrencies      = "MYR,SGD,USD"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	envFileEnvVar          = "ENV_FILE"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName             string
	AppEnv              string
	Port                string
	LogLevel            string
	LogFormat           string
	DatabaseURL         string
	RedisURL            string
	JWTSecret           string
	ShutdownPeriod      time.Duration
	IdempotencyTTL      time.Duration
	LockExpiry          time.Duration
	TxRateLimitPerMin   int
	EventsStream        string
	AutoMigrate         bool
	SupportedCurrencies []string
	RiskThresholds      risk.Thresholds
	ExchangeRates       map[rates.Pair]decimal.Decimal
}

// Load reads an optional .env file and then the environment into a Config.
// Variables already present in the environment win over the file.
func Load() (Config, error) {
	envFile := getEnv(envFileEnvVar, ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Config{
		AppName:             getEnv("APP_NAME", defaultAppName),
		AppEnv:              getEnv("APP_ENV", defaultAppEnv),
		Port:                getEnv("PORT", defaultPort),
		LogLevel:            strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		LogFormat:           strings.ToLower(getEnv("LOG_FORMAT", "json")),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		RedisURL:            os.Getenv("REDIS_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		ShutdownPeriod:      defaultShutdownDelay,
		IdempotencyTTL:      defaultIdempotencyTTL,
		LockExpiry:          defaultLockExpiry,
		TxRateLimitPerMin:   defaultTxRateLimit,
		EventsStream:        getEnv("EVENTS_STREAM", defaultEventsStream),
		SupportedCurrencies: splitList(getEnv("SUPPORTED_CURRENCIES", defaultCurrencies)),
		RiskThresholds:      risk.DefaultThresholds(),
		ExchangeRates:       rates.DefaultRates(),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.LockExpiry, err = durationEnv("", "LOCK_EXPIRY", cfg.LockExpiry); err != nil {
		return Config{}, err
	}

	if v := os.Getenv("TX_RATE_LIMIT_PER_MIN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid TX_RATE_LIMIT_PER_MIN: %q", v)
		}
		cfg.TxRateLimitPerMin = n
	}
	if v := os.Getenv("AUTO_MIGRATE"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid AUTO_MIGRATE: %w", err)
		}
		cfg.AutoMigrate = enabled
	}
	if v := os.Getenv("RISK_THRESHOLDS"); v != "" {
		thresholds, err := risk.ParseThresholds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RISK_THRESHOLDS: %w", err)
		}
		cfg.RiskThresholds = thresholds
	}
	if v := os.Getenv("EXCHANGE_RATES"); v != "" {
		pairs, err := rates.ParsePairs(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid EXCHANGE_RATES: %w", err)
		}
		cfg.ExchangeRates = pairs
	}

	if len(cfg.SupportedCurrencies) == 0 {
		return Config{}, fmt.Errorf("SUPPORTED_CURRENCIES must list at least one currency")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}
	if !cfg.IsDevelopment() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether in-memory fallbacks are allowed.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// durationEnv reads whole seconds from secondsKey, falling back to a Go duration in durationKey.
func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if secondsKey != "" {
		if v := os.Getenv(secondsKey); v != "" {
			seconds, err := strconv.Atoi(v)
			if err != nil {
				return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
			}
			return time.Duration(seconds) * time.Second, nil
		}
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
