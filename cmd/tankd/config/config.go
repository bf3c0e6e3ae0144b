// Package config parses tankd configuration from flags and environment variables.
// Flags take precedence over the environment, which takes precedence over defaults.
package config

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/HatiCode/tanklevels/pkg/tank"
)

// Config holds all tankd configuration.
type Config struct {
	Listen     string
	GRPCListen string

	// Engine answers requests that do not name one.
	Engine string
	// MinLevel and MaxLevel apply to requests that omit limits.
	MinLevel float64
	MaxLevel float64
	// Postconditions re-verifies every successful outcome.
	Postconditions bool

	Storage       string
	CacheTTL      time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PromURL  string
	PromStep time.Duration

	LogFormat string
	LogLevel  string
}

// ParseFlags parses command-line flags and environment variables into a Config.
// Exits with status 1 if the result is invalid.
func ParseFlags() *Config {
	cfg := &Config{}
	minLevel, maxLevel := tank.Unbounded()

	// Servers
	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8080"), "HTTP listen address")
	flag.StringVar(&cfg.GRPCListen, "grpc-listen", getEnv("GRPC_LISTEN", ":50051"), "gRPC listen address (empty disables gRPC)")

	// Engine
	flag.StringVar(&cfg.Engine, "engine", getEnv("ENGINE", tank.DefaultEngine), "Default engine")
	flag.Float64Var(&cfg.MinLevel, "min-level", getEnvFloat("MIN_LEVEL", minLevel), "Default minimum level")
	flag.Float64Var(&cfg.MaxLevel, "max-level", getEnvFloat("MAX_LEVEL", maxLevel), "Default maximum level")
	flag.BoolVar(&cfg.Postconditions, "postconditions", getEnvBool("POSTCONDITIONS", false), "Verify every successful outcome")

	// Outcome cache
	flag.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Outcome cache: memory, redis or none")
	flag.DurationVar(&cfg.CacheTTL, "cache-ttl", getEnvDuration("CACHE_TTL", 10*time.Minute), "Outcome cache TTL (0 keeps entries forever)")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database")

	// Prometheus
	flag.StringVar(&cfg.PromURL, "prom-url", getEnv("PROM_URL", "http://localhost:9090"), "Prometheus URL")
	flag.DurationVar(&cfg.PromStep, "prom-step", getEnvDuration("PROM_STEP", time.Minute), "Prometheus query step")

	// Logging
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	return cfg
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("-listen is required")
	}
	if !slices.Contains(tank.Names(), c.Engine) {
		return fmt.Errorf("-engine %q is not one of %v", c.Engine, tank.Names())
	}
	if math.IsNaN(c.MinLevel) || math.IsNaN(c.MaxLevel) || c.MinLevel > c.MaxLevel {
		return fmt.Errorf("-min-level %g must not exceed -max-level %g", c.MinLevel, c.MaxLevel)
	}
	switch c.Storage {
	case "memory", "none":
	case "redis":
		if c.RedisAddr == "" {
			return errors.New("-redis-addr is required with -storage=redis")
		}
	default:
		return fmt.Errorf("-storage %q must be memory, redis or none", c.Storage)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("-cache-ttl %s must not be negative", c.CacheTTL)
	}
	if c.PromStep <= 0 {
		return fmt.Errorf("-prom-step %s must be positive", c.PromStep)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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
