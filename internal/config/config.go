// Package config loads service configuration from the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	NavUpdate NavUpdateConfig
	Cache     CacheConfig
	Log       LogConfig
	CORS      CORSConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port   string
	Host   string
	Addr   string // Combined host:port for convenience
	APIKey string // Required on mutating routes when set
}

// BackendConfig locates the ledger backend.
type BackendConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// NavUpdateConfig tunes NAV fetching during bulk updates.
type NavUpdateConfig struct {
	FetchTimeout time.Duration
	FetchRate    float64 // Quotes per second across all sessions, 0 for unlimited
}

// CacheConfig holds query cache configuration
type CacheConfig struct {
	TTL time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string
}

// CORSConfig holds CORS-specific configuration
type CORSConfig struct {
	AllowedOrigins []string
}

// SchedulerConfig drives the periodic NAV staleness check.
// The scheduler is disabled when Schedule is empty.
type SchedulerConfig struct {
	Schedule   string
	Ledgers    []string
	StaleAfter time.Duration
	AutoApply  bool
}

// Enabled reports whether a schedule and at least one ledger are configured.
func (s SchedulerConfig) Enabled() bool {
	return s.Schedule != "" && len(s.Ledgers) > 0
}

// Load reads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return FromEnv()
}

// FromEnv builds the configuration from the process environment only.
// Every malformed value is reported in the returned error.
func FromEnv() (*Config, error) {
	p := &parser{}

	config := &Config{
		Server: ServerConfig{
			Port:   getEnv("SERVER_PORT", "5001"),
			Host:   getEnv("SERVER_HOST", "localhost"),
			APIKey: getEnv("SERVICE_API_KEY", ""),
		},
		Backend: BackendConfig{
			URL:     p.url("BACKEND_URL", "http://localhost:8000"),
			Token:   getEnv("BACKEND_TOKEN", ""),
			Timeout: p.duration("BACKEND_TIMEOUT", 30*time.Second),
		},
		NavUpdate: NavUpdateConfig{
			FetchTimeout: p.duration("NAV_FETCH_TIMEOUT", 30*time.Second),
			FetchRate:    p.float("NAV_FETCH_RATE", 2),
		},
		Cache: CacheConfig{
			TTL: p.duration("CACHE_TTL", 5*time.Minute),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost")),
		},
		Scheduler: SchedulerConfig{
			Schedule:   p.schedule("NAV_CHECK_SCHEDULE"),
			Ledgers:    splitList(getEnv("NAV_CHECK_LEDGERS", "")),
			StaleAfter: p.duration("NAV_STALE_AFTER", 24*time.Hour),
			AutoApply:  p.bool("NAV_CHECK_APPLY", false),
		},
	}

	if config.NavUpdate.FetchRate < 0 {
		p.fail("NAV_FETCH_RATE", "must not be negative")
	}

	// Combine host and port
	config.Server.Addr = fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port)

	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}
	return config, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// splitList splits a comma separated value, dropping blanks.
func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// parser collects errors while reading typed values.
type parser struct {
	errs []error
}

func (p *parser) fail(key, msg string) {
	p.errs = append(p.errs, fmt.Errorf("%s: %s", key, msg))
}

func (p *parser) duration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, fmt.Sprintf("invalid duration %q", raw))
		return defaultValue
	}
	if d <= 0 {
		p.fail(key, "must be positive")
		return defaultValue
	}
	return d
}

func (p *parser) float(key string, defaultValue float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, fmt.Sprintf("invalid number %q", raw))
		return defaultValue
	}
	return f
}

func (p *parser) bool(key string, defaultValue bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		p.fail(key, fmt.Sprintf("invalid boolean %q", raw))
		return defaultValue
	}
	return b
}

func (p *parser) url(key, defaultValue string) string {
	raw := getEnv(key, defaultValue)
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		p.fail(key, fmt.Sprintf("invalid URL %q", raw))
		return defaultValue
	}
	return raw
}

// schedule validates a standard five-field cron expression.
func (p *parser) schedule(key string) string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return ""
	}
	if _, err := cron.ParseStandard(raw); err != nil {
		p.fail(key, fmt.Sprintf("invalid cron schedule %q: %v", raw, err))
		return ""
	}
	return raw
}
