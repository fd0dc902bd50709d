// Package config loads application configuration from environment
// variables, reading a .env file first when one exists.
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
)

// Config holds all runtime configuration values. Invalid or missing values
// fall back to defaults.
type Config struct {
	Port int

	DBDriver    string // sqlite or postgres
	DBPath      string
	DatabaseURL string

	JWTSecret string
	JWTTTL    time.Duration

	RabbitMQURL string
	// NotifyTimeout bounds each notification delivery after commit.
	NotifyTimeout time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	OTLPEndpoint string

	LogLevel  string
	LogFormat string

	// InitialVacationDays is the vacation budget of new memberships.
	InitialVacationDays int
}

// Load reads .env (if present) and the process environment. Variables
// already set in the environment win over the file.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromEnv(), nil
}

// FromEnv builds a Config from the process environment only.
func FromEnv() Config {
	cfg := Config{
		Port:                envInt("APP_PORT", 8080),
		DBDriver:            strings.ToLower(envStr("DB_DRIVER", "sqlite")),
		DBPath:              envStr("DB_PATH", "./data/circles.db"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		JWTTTL:              envDur("JWT_TTL", 24*time.Hour),
		RabbitMQURL:         os.Getenv("RABBITMQ_URL"),
		NotifyTimeout:       envDur("NOTIFY_TIMEOUT", 5*time.Second),
		RateLimitRPS:        envFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:      envInt("RATE_LIMIT_BURST", 40),
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		LogLevel:            envStr("LOG_LEVEL", "info"),
		LogFormat:           envStr("LOG_FORMAT", "text"),
		InitialVacationDays: envInt("INITIAL_VACATION_DAYS", 3),
	}
	if cfg.DBDriver != "postgres" {
		cfg.DBDriver = "sqlite"
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		cfg.Port = 8080
	}
	if cfg.RateLimitBurst < 1 {
		cfg.RateLimitBurst = 1
	}
	if cfg.InitialVacationDays < 0 {
		cfg.InitialVacationDays = 0
	}
	return cfg
}

// Validate reports configuration the server cannot start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.DBDriver == "postgres" && c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
	}
	return nil
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envFloat(k string, d float64) float64 {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
		return f
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil && dur > 0 {
		return dur
	}
	return d
}
