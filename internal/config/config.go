// Package config loads process-level configuration from the environment,
// with a .env loader for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ServerConfig holds the query-api's HTTP listener settings.
type ServerConfig struct {
	Addr string
}

// PostgresConfig holds the store's database/sql + lib/pq connection settings.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig holds the bus package's Redis Streams connection settings.
type RedisConfig struct {
	URL      string
	Password string
}

// OrchestratorConfig holds the per-sport polling and throttling settings
// the scheduler reads at startup.
type OrchestratorConfig struct {
	Sports              []string
	OddsRateLimitPerSec float64
	SimRateLimitPerSec  float64
	OverridesPath       string
}

// MetaConfig holds the process-identity fields every build exposes
// through its meta endpoint.
type MetaConfig struct {
	EngineBuildID string
	SimVersion    string
	DeployedAt    string
	Environment   string
}

// Config holds all application configuration, read once at process start.
type Config struct {
	Server       ServerConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Orchestrator OrchestratorConfig
	Meta         MetaConfig
}

// Load reads .env (if present) then environment variables, falling back to
// the LOCKED defaults for anything unset. A missing .env file is not an
// error: production deployments run from plain environment variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	maxOpen, err := getEnvInt("POSTGRES_MAX_OPEN_CONNS", 10)
	if err != nil {
		return Config{}, err
	}
	maxIdle, err := getEnvInt("POSTGRES_MAX_IDLE_CONNS", 5)
	if err != nil {
		return Config{}, err
	}
	lifetimeMin, err := getEnvInt("POSTGRES_CONN_MAX_LIFETIME_MINUTES", 30)
	if err != nil {
		return Config{}, err
	}
	oddsRate, err := getEnvFloat("ODDS_RATE_LIMIT_PER_SEC", 1.0)
	if err != nil {
		return Config{}, err
	}
	simRate, err := getEnvFloat("SIM_RATE_LIMIT_PER_SEC", 0.5)
	if err != nil {
		return Config{}, err
	}

	return Config{
		Server: ServerConfig{
			Addr: getEnv("SERVER_ADDR", ":8080"),
		},
		Postgres: PostgresConfig{
			DSN:             getEnv("POSTGRES_DSN", "postgres://localhost:5432/decision_core?sslmode=disable"),
			MaxOpenConns:    maxOpen,
			MaxIdleConns:    maxIdle,
			ConnMaxLifetime: time.Duration(lifetimeMin) * time.Minute,
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Orchestrator: OrchestratorConfig{
			Sports:              splitSports(getEnv("SPORTS", "NFL")),
			OddsRateLimitPerSec: oddsRate,
			SimRateLimitPerSec:  simRate,
			OverridesPath:       getEnv("CALIBRATION_OVERRIDES_PATH", "calibration_overrides.yaml"),
		},
		Meta: MetaConfig{
			EngineBuildID: getEnv("ENGINE_BUILD_ID", "dev"),
			SimVersion:    getEnv("CURRENT_SIM_VERSION", "dev"),
			DeployedAt:    getEnv("DEPLOYED_AT", ""),
			Environment:   getEnv("ENVIRONMENT", "development"),
		},
	}, nil
}

// splitSports parses a comma-separated SPORTS value, trimming whitespace
// and dropping empty entries.
func splitSports(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q as int: %w", key, v, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q as float: %w", key, v, err)
	}
	return f, nil
}
