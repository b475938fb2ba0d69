// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes client settings such
// as the backend base URL, cache location and limits, telemetry batching
// knobs, logging, and observability.
package config

import (
	"errors"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-trip-client")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// CacheConfig bounds the offline map store.
type CacheConfig struct {
	DBPath         string // SQLite path for the offline store
	SoftLimitBytes int64  // byte usage above this produces a cleanup warning
	HardLimitCount int    // map count at/above this triggers LRU eviction
}

// TelemetryConfig tunes the event batching pipeline.
type TelemetryConfig struct {
	BatchSize  int           // queue length that forces an immediate flush
	FlushDelay time.Duration // delay before a scheduled flush fires
}

// TrackerConfig tunes operation polling.
type TrackerConfig struct {
	PollInterval time.Duration // spacing between consecutive status polls
}

// Config holds all configuration values for the client.
type Config struct {
	// Backend
	APIBaseURL  string        // base URL for all endpoint calls, read once at start
	HTTPTimeout time.Duration // per-request timeout for backend calls

	// Logging
	LogLevel  string // debug|info|warn|error|fatal|panic
	LogPretty bool   // pretty console logs in dev

	Cache     CacheConfig
	Telemetry TelemetryConfig
	Tracker   TrackerConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables (after merging an
// optional .env file), applies defaults, normalizes values, and validates
// the result.
func Load() (Config, error) {
	// .env is optional; real env vars always win.
	_ = godotenv.Load()

	cfg := Config{
		// Backend
		APIBaseURL:  getenv("API_BASE_URL", "http://localhost:8080/api"),
		HTTPTimeout: getdur("HTTP_TIMEOUT", 15*time.Second),

		// Logging
		LogLevel:  strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty: getbool("LOG_PRETTY", false),

		Cache: CacheConfig{
			DBPath:         getenv("CACHE_DB_PATH", "offline.db"),
			SoftLimitBytes: int64(getint("CACHE_SOFT_LIMIT_MB", 40)) << 20,
			HardLimitCount: getint("CACHE_MAX_MAPS", 20),
		},
		Telemetry: TelemetryConfig{
			BatchSize:  getint("TELEMETRY_BATCH_SIZE", 100),
			FlushDelay: getdur("TELEMETRY_FLUSH_DELAY", 5*time.Second),
		},
		Tracker: TrackerConfig{
			PollInterval: getdur("TRACKER_POLL_INTERVAL", 2*time.Second),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-trip-client"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return cfg, errors.New("API_BASE_URL must be an absolute URL")
	}
	if cfg.HTTPTimeout <= 0 {
		return cfg, errors.New("HTTP_TIMEOUT must be a positive duration")
	}
	if strings.TrimSpace(cfg.Cache.DBPath) == "" {
		return cfg, errors.New("CACHE_DB_PATH must not be empty")
	}
	if cfg.Cache.SoftLimitBytes <= 0 {
		return cfg, errors.New("CACHE_SOFT_LIMIT_MB must be > 0")
	}
	if cfg.Cache.HardLimitCount < 1 {
		return cfg, errors.New("CACHE_MAX_MAPS must be >= 1")
	}
	if cfg.Telemetry.BatchSize < 1 {
		return cfg, errors.New("TELEMETRY_BATCH_SIZE must be >= 1")
	}
	if cfg.Telemetry.FlushDelay <= 0 {
		return cfg, errors.New("TELEMETRY_FLUSH_DELAY must be > 0")
	}
	if cfg.Tracker.PollInterval <= 0 {
		return cfg, errors.New("TRACKER_POLL_INTERVAL must be > 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
