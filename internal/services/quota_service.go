// Package services – QuotaManager
//
// This file implements the storage quota policy for the offline cache. The
// policy runs after every cache write and applies, in order:
//
//  1. byte usage above the soft limit: non-fatal warning, no eviction
//     (cleanup is the user's call);
//  2. map count above the hard limit: evict exactly one entry, the
//     least-recently-cached, and warn about it;
//  3. otherwise: ok.
//
// Eviction is single-entry per pass: because the policy runs on every
// write, repeated single evictions hold the count at the limit over time,
// bounding per-write eviction cost to one metadata scan.
//
// Byte usage past the soft limit is deliberately never evicted here; with
// the count under the hard limit the store can therefore grow past the soft
// limit, warning on every write until the user cleans up.
package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tripatlas/go-trip-client/internal/observability"
	"github.com/tripatlas/go-trip-client/internal/repo"
)

// StorageHost is the host facility that can promote the cache's storage to
// durable ("persistent") mode, exempting it from host-initiated cleanup.
// Implementations wrap whatever the embedding platform offers.
type StorageHost interface {
	// RequestPersistence asks the host for a persistence guarantee and
	// reports whether it was granted.
	RequestPersistence(ctx context.Context) (bool, error)
}

// QuotaResult is the outcome of one quota pass. OK is true unless the pass
// itself could not run; Warning carries the user-facing message for the
// soft-limit and eviction cases, empty otherwise.
type QuotaResult struct {
	OK      bool
	Warning string
}

// QuotaManager evaluates cache usage against configured limits and evicts
// the least-recently-cached entry when the map count exceeds the hard limit.
type QuotaManager struct {
	// DB is the database handle shared with the cache store.
	DB *gorm.DB

	// SoftLimitBytes is the byte usage above which writes produce a
	// cleanup warning without evicting anything.
	SoftLimitBytes int64

	// HardLimitCount is the number of cached maps the policy holds the
	// store at; one entry is evicted per pass while the count exceeds it.
	HardLimitCount int

	// Host provides the optional persistence facility; nil means the
	// platform offers none.
	Host StorageHost

	logger *zerolog.Logger
}

// NewQuotaManager returns a QuotaManager over db with the given limits.
func NewQuotaManager(db *gorm.DB, softLimitBytes int64, hardLimitCount int, host StorageHost) *QuotaManager {
	lg := log.With().Str("component", "quota").Logger()
	return &QuotaManager{
		DB:             db,
		SoftLimitBytes: softLimitBytes,
		HardLimitCount: hardLimitCount,
		Host:           host,
		logger:         &lg,
	}
}

func (q *QuotaManager) log() *zerolog.Logger {
	if q.logger != nil {
		return q.logger
	}
	return &log.Logger
}

// Enforce runs one quota pass. It is invoked by the cache store after every
// write. Soft-limit and eviction outcomes are reported through
// QuotaResult.Warning; an error is returned only when the pass itself could
// not run (stat or delete failure), which callers treat as transient.
func (q *QuotaManager) Enforce(ctx context.Context) (QuotaResult, error) {
	count, totalBytes, err := repo.CacheStats(ctx, q.DB)
	if err != nil {
		return QuotaResult{}, fmt.Errorf("cache stats: %w", err)
	}
	observability.SetCacheUsage(count, totalBytes)

	if totalBytes > q.SoftLimitBytes {
		w := fmt.Sprintf("offline cache is using %d MB (limit %d MB); remove maps you no longer need",
			totalBytes>>20, q.SoftLimitBytes>>20)
		q.log().Warn().Int64("total_bytes", totalBytes).Msg("cache over soft byte limit")
		return QuotaResult{OK: true, Warning: w}, nil
	}

	if int(count) > q.HardLimitCount {
		oldest, err := repo.OldestMeta(ctx, q.DB)
		if err != nil {
			return QuotaResult{}, fmt.Errorf("find eviction candidate: %w", err)
		}
		if err := repo.DeleteMap(ctx, q.DB, oldest.ID); err != nil {
			return QuotaResult{}, fmt.Errorf("evict %s: %w", oldest.ID, err)
		}
		observability.ObserveEviction()
		observability.SetCacheUsage(count-1, totalBytes)
		q.log().Info().
			Str("map_id", oldest.ID).
			Time("cached_at", oldest.CachedAt).
			Msg("evicted least-recently-cached map")
		w := fmt.Sprintf("cache full: removed oldest map %q to %q to stay within %d maps",
			oldest.Origin, oldest.Destination, q.HardLimitCount)
		return QuotaResult{OK: true, Warning: w}, nil
	}

	return QuotaResult{OK: true}, nil
}

// RequestPersistence asks the host for durable storage. It is advisory: a
// denied or failed request does not block caching, it only leaves the store
// exposed to host-initiated eviction. Absent a host facility it reports
// false.
func (q *QuotaManager) RequestPersistence(ctx context.Context) bool {
	if q.Host == nil {
		return false
	}
	granted, err := q.Host.RequestPersistence(ctx)
	if err != nil {
		q.log().Warn().Err(err).Msg("persistence request failed")
		return false
	}
	q.log().Debug().Bool("granted", granted).Msg("persistence requested")
	return granted
}
