package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName       = "RiddleDay"
	defaultAppEnv        = "development"
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultShutdownDelay = 10 * time.Second
	defaultGuestTokenTTL = 365 * 24 * time.Hour
	defaultSessionTTL    = 24 * time.Hour
	defaultIdemTTL       = 24 * time.Hour
	defaultGuessPerMin   = 20

	shutdownSecondsEnvVar = "SHUTDOWN_TIMEOUT_SECONDS"
	guestTTLEnvVar        = "GUEST_TOKEN_TTL"
	sessionTTLEnvVar      = "SESSION_TOKEN_TTL"
	idemTTLEnvVar         = "IDEMPOTENCY_TTL"
	guessRateEnvVar       = "GUESS_RATE_PER_MIN"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName         string
	AppEnv          string
	Port            string
	LogLevel        string
	DatabaseURL     string
	RedisURL        string
	IPHashSalt      string
	SessionSecret   string
	ShutdownPeriod  time.Duration
	GuestTokenTTL   time.Duration
	SessionTokenTTL time.Duration
	IdempotencyTTL  time.Duration
	GuessRatePerMin int
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          strings.ToLower(getEnv("APP_ENV", defaultAppEnv)),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		IPHashSalt:      os.Getenv("IP_HASH_SALT"),
		SessionSecret:   os.Getenv("SESSION_SECRET"),
		ShutdownPeriod:  defaultShutdownDelay,
		GuestTokenTTL:   defaultGuestTokenTTL,
		SessionTokenTTL: defaultSessionTTL,
		IdempotencyTTL:  defaultIdemTTL,
		GuessRatePerMin: defaultGuessPerMin,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	}

	for _, tt := range []struct {
		envVar string
		dst    *time.Duration
	}{
		{guestTTLEnvVar, &cfg.GuestTokenTTL},
		{sessionTTLEnvVar, &cfg.SessionTokenTTL},
		{idemTTLEnvVar, &cfg.IdempotencyTTL},
	} {
		if v := os.Getenv(tt.envVar); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return Config{}, fmt.Errorf("invalid %s: %w", tt.envVar, err)
			}
			*tt.dst = d
		}
	}

	if v := os.Getenv(guessRateEnvVar); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", guessRateEnvVar, err)
		}
		cfg.GuessRatePerMin = n
	}

	if cfg.SessionSecret == "" {
		if cfg.IsProduction() {
			return Config{}, fmt.Errorf("SESSION_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
		cfg.SessionSecret = "riddleday-dev-session-secret"
	}

	if cfg.IsProduction() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}

	return cfg, nil
}

// IsProduction reports whether the app runs in a production-like environment.
func (c Config) IsProduction() bool {
	switch c.AppEnv {
	case "dev", "development", "local", "test":
		return false
	default:
		return true
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
