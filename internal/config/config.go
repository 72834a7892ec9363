// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // IANA zones for CALENDAR_TZ on hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port int    // HTTP port to listen on
	Env  string // development, staging, production

	// Cache
	DatabasePath string // Path to SQLite file

	// Authentication
	APIKey string // API key for authenticated endpoints

	// Logging
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text

	// Calendar
	CalendarTZ     string        // UTC+8, UTC-03:30 or an IANA name
	EphemerisDir   string        // directory with manifest.toml; empty uses the embedded data
	ConvertTimeout time.Duration // deadline for one uncached conversion

	// Background work
	CacheWarmSchedule string // cron spec; empty disables the warmer

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second per client
	RateLimitBurst int     // burst size per client
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{}

	// Server settings
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.Env = getEnv("ENV", EnvDevelopment)

	// Cache
	cfg.DatabasePath = getEnv("DATABASE_PATH", "./data/lunisolar.db")

	// Authentication
	cfg.APIKey = getEnv("API_KEY", "")

	// Logging
	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "text")

	// Calendar
	cfg.CalendarTZ = getEnv("CALENDAR_TZ", "UTC+8")
	cfg.EphemerisDir = getEnv("EPHEMERIS_DIR", "")
	cfg.ConvertTimeout = getEnvDuration("CONVERT_TIMEOUT", 10*time.Second)

	// Background work
	cfg.CacheWarmSchedule = getEnv("CACHE_WARM_SCHEDULE", "0 3 * * *")

	// Rate limiting
	cfg.RateLimitRPS = getEnvFloat("RATE_LIMIT_RPS", 20)
	cfg.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 40)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}

	// API key is required in production
	if c.Env == EnvProduction && c.APIKey == "" {
		errs = append(errs, errors.New("API_KEY is required in production"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if _, err := ParseZone(c.CalendarTZ); err != nil {
		errs = append(errs, fmt.Errorf("CALENDAR_TZ: %w", err))
	}

	if c.ConvertTimeout <= 0 {
		errs = append(errs, fmt.Errorf("CONVERT_TIMEOUT must be positive, got %s", c.ConvertTimeout))
	}

	if c.CacheWarmSchedule != "" {
		if _, err := cron.ParseStandard(c.CacheWarmSchedule); err != nil {
			errs = append(errs, fmt.Errorf("CACHE_WARM_SCHEDULE: %w", err))
		}
	}

	if c.RateLimitRPS <= 0 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_RPS must be positive, got %g", c.RateLimitRPS))
	}
	if c.RateLimitBurst < 1 {
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BURST must be at least 1, got %d", c.RateLimitBurst))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Location returns the calendar zone. It falls back to UTC+8 if
// CALENDAR_TZ does not parse, which Validate already rejects.
func (c *Config) Location() *time.Location {
	loc, err := ParseZone(c.CalendarTZ)
	if err != nil {
		return time.FixedZone("UTC+8", 8*3600)
	}
	return loc
}

// ParseZone accepts "UTC", a fixed offset such as "UTC+8" or "UTC-03:30",
// or an IANA zone name.
func ParseZone(s string) (*time.Location, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errors.New("zone is empty")
	}
	if strings.EqualFold(s, "UTC") {
		return time.UTC, nil
	}

	if rest, ok := strings.CutPrefix(strings.ToUpper(s), "UTC"); ok {
		sign := 1
		switch rest[0] {
		case '+':
		case '-':
			sign = -1
		default:
			return nil, fmt.Errorf("invalid offset %q", s)
		}

		hh, mm, _ := strings.Cut(rest[1:], ":")
		hours, err := strconv.Atoi(hh)
		if err != nil || hours > 14 {
			return nil, fmt.Errorf("invalid offset %q", s)
		}
		minutes := 0
		if mm != "" {
			if minutes, err = strconv.Atoi(mm); err != nil || minutes >= 60 {
				return nil, fmt.Errorf("invalid offset %q", s)
			}
		}
		return time.FixedZone(s, sign*(hours*3600+minutes*60)), nil
	}

	loc, err := time.LoadLocation(s)
	if err != nil {
		return nil, fmt.Errorf("unknown zone %q", s)
	}
	return loc, nil
}

// getEnv reads an environment variable with a default fallback.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt reads an environment variable as an integer with a default fallback.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
