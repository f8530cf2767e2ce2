package config

import (
	"strings"
	"testing"
	"time"
)

func TestFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv() returned unexpected error: %v", err)
		}

		if cfg.Server.Addr != "localhost:5001" {
			t.Errorf("Expected addr 'localhost:5001', got '%s'", cfg.Server.Addr)
		}
		if cfg.Backend.URL != "http://localhost:8000" {
			t.Errorf("Expected default backend URL, got '%s'", cfg.Backend.URL)
		}
		if cfg.NavUpdate.FetchTimeout != 30*time.Second {
			t.Errorf("Expected 30s fetch timeout, got %s", cfg.NavUpdate.FetchTimeout)
		}
		if cfg.Cache.TTL != 5*time.Minute {
			t.Errorf("Expected 5m cache TTL, got %s", cfg.Cache.TTL)
		}
		if len(cfg.CORS.AllowedOrigins) != 2 {
			t.Errorf("Expected 2 default origins, got %v", cfg.CORS.AllowedOrigins)
		}
		if cfg.Scheduler.Enabled() {
			t.Error("Expected scheduler to be disabled by default")
		}
	})

	t.Run("reads overrides", func(t *testing.T) {
		t.Setenv("SERVER_HOST", "0.0.0.0")
		t.Setenv("SERVER_PORT", "8080")
		t.Setenv("BACKEND_URL", "https://ledger.example.com/")
		t.Setenv("BACKEND_TOKEN", "tok")
		t.Setenv("NAV_FETCH_TIMEOUT", "10s")
		t.Setenv("NAV_FETCH_RATE", "0.5")
		t.Setenv("CORS_ORIGINS", "https://app.example.com, ,https://admin.example.com")
		t.Setenv("NAV_CHECK_SCHEDULE", "30 18 * * 1-5")
		t.Setenv("NAV_CHECK_LEDGERS", "a,b")
		t.Setenv("NAV_CHECK_APPLY", "true")

		cfg, err := FromEnv()
		if err != nil {
			t.Fatalf("FromEnv() returned unexpected error: %v", err)
		}

		if cfg.Server.Addr != "0.0.0.0:8080" {
			t.Errorf("Expected addr '0.0.0.0:8080', got '%s'", cfg.Server.Addr)
		}
		if cfg.NavUpdate.FetchTimeout != 10*time.Second {
			t.Errorf("Expected 10s fetch timeout, got %s", cfg.NavUpdate.FetchTimeout)
		}
		if cfg.NavUpdate.FetchRate != 0.5 {
			t.Errorf("Expected fetch rate 0.5, got %v", cfg.NavUpdate.FetchRate)
		}
		if len(cfg.CORS.AllowedOrigins) != 2 || cfg.CORS.AllowedOrigins[1] != "https://admin.example.com" {
			t.Errorf("Expected blank origins to be dropped, got %v", cfg.CORS.AllowedOrigins)
		}
		if !cfg.Scheduler.Enabled() || !cfg.Scheduler.AutoApply {
			t.Errorf("Expected scheduler enabled with auto apply, got %+v", cfg.Scheduler)
		}
	})

	t.Run("reports every invalid value", func(t *testing.T) {
		t.Setenv("NAV_FETCH_TIMEOUT", "soon")
		t.Setenv("CACHE_TTL", "-1m")
		t.Setenv("NAV_FETCH_RATE", "fast")
		t.Setenv("BACKEND_URL", "not a url")
		t.Setenv("NAV_CHECK_SCHEDULE", "every day")

		_, err := FromEnv()
		if err == nil {
			t.Fatal("Expected error for invalid configuration")
		}

		for _, key := range []string{"NAV_FETCH_TIMEOUT", "CACHE_TTL", "NAV_FETCH_RATE", "BACKEND_URL", "NAV_CHECK_SCHEDULE"} {
			if !strings.Contains(err.Error(), key) {
				t.Errorf("Expected error to mention %s, got %v", key, err)
			}
		}
	})
}
