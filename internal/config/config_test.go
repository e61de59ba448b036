package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.SearchHorizonDays != 30 {
		t.Errorf("SearchHorizonDays = %d, want 30", cfg.SearchHorizonDays)
	}
	if cfg.CapacityRangeMaxDays != 31 {
		t.Errorf("CapacityRangeMaxDays = %d, want 31", cfg.CapacityRangeMaxDays)
	}
	if cfg.CapacityCacheTTL != 30*time.Second {
		t.Errorf("CapacityCacheTTL = %s, want 30s", cfg.CapacityCacheTTL)
	}
	if cfg.RangeWorkerCount != 4 {
		t.Errorf("RangeWorkerCount = %d, want 4", cfg.RangeWorkerCount)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SEARCH_HORIZON_DAYS", "14")
	t.Setenv("CAPACITY_CACHE_TTL", "2m")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.SearchHorizonDays != 14 {
		t.Errorf("SearchHorizonDays = %d, want 14", cfg.SearchHorizonDays)
	}
	if cfg.CapacityCacheTTL != 2*time.Minute {
		t.Errorf("CapacityCacheTTL = %s, want 2m", cfg.CapacityCacheTTL)
	}
	if !cfg.RedisTLS {
		t.Error("RedisTLS = false, want true")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example.com" {
		t.Errorf("CORSAllowedOrigins = %v, want two trimmed origins", cfg.CORSAllowedOrigins)
	}
}

func TestGetEnvAsIntIgnoresGarbage(t *testing.T) {
	t.Setenv("RANGE_WORKER_COUNT", "not-a-number")

	cfg := Load()
	if cfg.RangeWorkerCount != 4 {
		t.Errorf("RangeWorkerCount = %d, want default 4", cfg.RangeWorkerCount)
	}
}
