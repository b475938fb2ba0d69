package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load with defaults: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080/api" {
		t.Fatalf("unexpected APIBaseURL: %q", cfg.APIBaseURL)
	}
	if cfg.Cache.SoftLimitBytes != 40<<20 {
		t.Fatalf("expected 40MB soft limit, got %d", cfg.Cache.SoftLimitBytes)
	}
	if cfg.Cache.HardLimitCount != 20 {
		t.Fatalf("expected hard limit 20, got %d", cfg.Cache.HardLimitCount)
	}
	if cfg.Telemetry.BatchSize != 100 || cfg.Telemetry.FlushDelay != 5*time.Second {
		t.Fatalf("unexpected telemetry defaults: %+v", cfg.Telemetry)
	}
	if cfg.Tracker.PollInterval != 2*time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.Tracker.PollInterval)
	}
}

func TestLoad_TrimsTrailingSlashOnBaseURL(t *testing.T) {
	t.Setenv("API_BASE_URL", "https://api.example.com/v1/")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBaseURL != "https://api.example.com/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
}

func TestLoad_NormalizesWarningLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARNING")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "warn" {
		t.Fatalf("expected warn, got %q", cfg.LogLevel)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"bad log level", "LOG_LEVEL", "verbose", "LOG_LEVEL"},
		{"relative base url", "API_BASE_URL", "/api", "API_BASE_URL"},
		{"zero timeout", "HTTP_TIMEOUT", "0s", "HTTP_TIMEOUT"},
		{"zero max maps", "CACHE_MAX_MAPS", "0", "CACHE_MAX_MAPS"},
		{"zero batch size", "TELEMETRY_BATCH_SIZE", "0", "TELEMETRY_BATCH_SIZE"},
		{"zero flush delay", "TELEMETRY_FLUSH_DELAY", "0s", "TELEMETRY_FLUSH_DELAY"},
		{"zero poll interval", "TRACKER_POLL_INTERVAL", "0s", "TRACKER_POLL_INTERVAL"},
		{"sampler out of range", "OTEL_TRACES_SAMPLER_ARG", "1.5", "OTEL_TRACES_SAMPLER_ARG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}

func TestLoad_SoftLimitConvertsMegabytes(t *testing.T) {
	t.Setenv("CACHE_SOFT_LIMIT_MB", "12")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Cache.SoftLimitBytes != 12<<20 {
		t.Fatalf("expected 12MB in bytes, got %d", cfg.Cache.SoftLimitBytes)
	}
}

func TestMustLoad_PanicsOnInvalid(t *testing.T) {
	t.Setenv("LOG_LEVEL", "nope")
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic from MustLoad")
		}
	}()
	_ = MustLoad()
}
