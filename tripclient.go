// Package tripclient wires the trip-planner client stack into one handle.
// It owns process-wide setup (logging, the offline SQLite store, optional
// OpenTelemetry tracing) and exposes the four collaborating components:
// the offline cache store, the storage quota manager, the operation
// tracker, and the telemetry batcher.
package tripclient

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tripatlas/go-trip-client/internal/client"
	"github.com/tripatlas/go-trip-client/internal/config"
	"github.com/tripatlas/go-trip-client/internal/domain"
	"github.com/tripatlas/go-trip-client/internal/observability"
	"github.com/tripatlas/go-trip-client/internal/repo"
	"github.com/tripatlas/go-trip-client/internal/services"
	"github.com/tripatlas/go-trip-client/internal/session"
	"github.com/tripatlas/go-trip-client/internal/sysutil"
)

// Version identifies this client build to the tracing backend.
const Version = "0.1.0"

// App is the assembled client. Construct it with New and release it with
// Close. All exported fields are ready for use after New returns.
type App struct {
	Config config.Config

	API       *client.Client
	Cache     *services.CacheStore
	Quota     *services.QuotaManager
	Tracker   *services.Tracker
	Telemetry *services.Batcher
	Sessions  *session.Manager

	db              *gorm.DB
	shutdownTracing func(context.Context) error
}

// discardSink drops every batch. Installed when TELEMETRY_DISABLED is set,
// so the rest of the pipeline keeps working without network traffic.
type discardSink struct{}

func (discardSink) SendEvents(context.Context, string, []domain.UserEvent) error { return nil }

// New builds the full client from cfg: logging, the offline store with its
// schema migrated, the backend API client, and the four services. Tracing
// is started only when cfg.OTEL.Enabled is set; its shutdown is folded
// into Close.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	setupLogging(cfg)

	db, err := repo.OpenSQLite(cfg.Cache.DBPath)
	if err != nil {
		return nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		return nil, err
	}

	api, err := client.New(cfg.APIBaseURL, cfg.HTTPTimeout)
	if err != nil {
		return nil, err
	}

	shutdown, err := observability.SetupTracing(ctx, cfg.OTEL, Version)
	if err != nil {
		return nil, err
	}

	quota := services.NewQuotaManager(db, cfg.Cache.SoftLimitBytes, cfg.Cache.HardLimitCount, nil)
	sessions := session.NewManager(session.NewMemoryStore())

	var sink services.EventSink = api
	if sysutil.IsTruthy(os.Getenv("TELEMETRY_DISABLED")) {
		log.Info().Msg("telemetry disabled, events will be dropped")
		sink = discardSink{}
	}

	return &App{
		Config:          cfg,
		API:             api,
		Cache:           services.NewCacheStore(db, quota),
		Quota:           quota,
		Tracker:         services.NewTracker(api, cfg.Tracker.PollInterval),
		Telemetry:       services.NewBatcher(sink, sessions, cfg.Telemetry.BatchSize, cfg.Telemetry.FlushDelay),
		Sessions:        sessions,
		db:              db,
		shutdownTracing: shutdown,
	}, nil
}

// Close releases the client: flushes and stops the telemetry batcher,
// shuts down tracing, and closes the offline store. The first error wins;
// later steps still run.
func (a *App) Close(ctx context.Context) error {
	var first error

	if err := a.Telemetry.Stop(ctx); err != nil {
		first = err
	}
	if a.shutdownTracing != nil {
		if err := a.shutdownTracing(ctx); err != nil && first == nil {
			first = err
		}
	}
	if sqlDB, err := a.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// setupLogging applies the configured zerolog level and, in pretty mode,
// a human-readable console writer.
func setupLogging(cfg config.Config) {
	sysutil.SetLogLevel(cfg.LogLevel)
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
