package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with defaults failed: %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Env != EnvDevelopment {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvDevelopment)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.CalendarTZ != "UTC+8" {
		t.Errorf("CalendarTZ = %q, want %q", cfg.CalendarTZ, "UTC+8")
	}
	if cfg.ConvertTimeout != 10*time.Second {
		t.Errorf("ConvertTimeout = %s, want 10s", cfg.ConvertTimeout)
	}
	if cfg.CacheWarmSchedule != "0 3 * * *" {
		t.Errorf("CacheWarmSchedule = %q, want %q", cfg.CacheWarmSchedule, "0 3 * * *")
	}
	if cfg.RateLimitRPS != 20 || cfg.RateLimitBurst != 40 {
		t.Errorf("rate limit = %g/%d, want 20/40", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.EphemerisDir != "" {
		t.Errorf("EphemerisDir = %q, want empty (embedded)", cfg.EphemerisDir)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv()

	os.Setenv("PORT", "3000")
	os.Setenv("ENV", "production")
	os.Setenv("DATABASE_PATH", "/data/test.db")
	os.Setenv("API_KEY", "secret-key-123")
	os.Setenv("LOG_LEVEL", "debug")
	os.Setenv("LOG_FORMAT", "json")
	os.Setenv("CALENDAR_TZ", "Asia/Shanghai")
	os.Setenv("CONVERT_TIMEOUT", "2500ms")
	os.Setenv("CACHE_WARM_SCHEDULE", "@daily")
	os.Setenv("RATE_LIMIT_RPS", "2.5")
	os.Setenv("RATE_LIMIT_BURST", "5")
	defer clearEnv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.Env != EnvProduction {
		t.Errorf("Env = %q, want %q", cfg.Env, EnvProduction)
	}
	if cfg.DatabasePath != "/data/test.db" {
		t.Errorf("DatabasePath = %q, want %q", cfg.DatabasePath, "/data/test.db")
	}
	if cfg.APIKey != "secret-key-123" {
		t.Errorf("APIKey = %q, want %q", cfg.APIKey, "secret-key-123")
	}
	if cfg.ConvertTimeout != 2500*time.Millisecond {
		t.Errorf("ConvertTimeout = %s, want 2.5s", cfg.ConvertTimeout)
	}
	if cfg.RateLimitRPS != 2.5 || cfg.RateLimitBurst != 5 {
		t.Errorf("rate limit = %g/%d, want 2.5/5", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if got := cfg.Location().String(); got != "Asia/Shanghai" {
		t.Errorf("Location() = %q, want Asia/Shanghai", got)
	}
}

func validConfig() Config {
	return Config{
		Port:              8080,
		Env:               EnvDevelopment,
		DatabasePath:      "./data/test.db",
		LogLevel:          "info",
		LogFormat:         "text",
		CalendarTZ:        "UTC+8",
		ConvertTimeout:    time.Second,
		CacheWarmSchedule: "0 3 * * *",
		RateLimitRPS:      10,
		RateLimitBurst:    20,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid development config", func(*Config) {}, false},
		{"valid production config", func(c *Config) { c.Env = EnvProduction; c.APIKey = "k" }, false},
		{"production requires API key", func(c *Config) { c.Env = EnvProduction }, true},
		{"invalid port - too low", func(c *Config) { c.Port = 0 }, true},
		{"invalid port - too high", func(c *Config) { c.Port = 70000 }, true},
		{"invalid environment", func(c *Config) { c.Env = "invalid" }, true},
		{"invalid log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"invalid log format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"empty database path", func(c *Config) { c.DatabasePath = "" }, true},
		{"bad zone", func(c *Config) { c.CalendarTZ = "Mars/Olympus" }, true},
		{"zero timeout", func(c *Config) { c.ConvertTimeout = 0 }, true},
		{"bad cron spec", func(c *Config) { c.CacheWarmSchedule = "every day" }, true},
		{"warmer disabled", func(c *Config) { c.CacheWarmSchedule = "" }, false},
		{"zero rate", func(c *Config) { c.RateLimitRPS = 0 }, true},
		{"zero burst", func(c *Config) { c.RateLimitBurst = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseZone(t *testing.T) {
	tests := []struct {
		in      string
		offset  int
		wantErr bool
	}{
		{"UTC", 0, false},
		{"UTC+8", 8 * 3600, false},
		{"utc+8", 8 * 3600, false},
		{"UTC-03:30", -(3*3600 + 30*60), false},
		{"UTC+05:45", 5*3600 + 45*60, false},
		{"UTC+15", 0, true},
		{"UTC*8", 0, true},
		{"UTC+8:75", 0, true},
		{"", 0, true},
		{"Nowhere/Special", 0, true},
	}

	ref := time.Date(2025, time.August, 12, 0, 0, 0, 0, time.UTC)
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			loc, err := ParseZone(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseZone(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if _, off := ref.In(loc).Zone(); off != tt.offset {
				t.Errorf("ParseZone(%q) offset = %d, want %d", tt.in, off, tt.offset)
			}
		})
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: EnvDevelopment}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment() = false, want true")
	}

	cfg.Env = EnvProduction
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment() = true, want false")
	}
}

func TestConfig_IsProduction(t *testing.T) {
	cfg := &Config{Env: EnvProduction}
	if !cfg.IsProduction() {
		t.Error("IsProduction() = false, want true")
	}

	cfg.Env = EnvDevelopment
	if cfg.IsProduction() {
		t.Error("IsProduction() = true, want false")
	}
}

// clearEnv removes all config-related environment variables
func clearEnv() {
	vars := []string{
		"PORT", "ENV", "DATABASE_PATH", "API_KEY",
		"LOG_LEVEL", "LOG_FORMAT",
		"CALENDAR_TZ", "EPHEMERIS_DIR", "CONVERT_TIMEOUT",
		"CACHE_WARM_SCHEDULE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}
