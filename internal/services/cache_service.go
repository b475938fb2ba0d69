// Package services – CacheStore
//
// This file implements the offline map cache: a durable local store that
// lets a previously computed route be reopened without network access. Every
// map is persisted twice, as a heavy payload row and a light metadata row,
// written and deleted together so listings stay cheap and the two tables can
// never drift apart.
//
// Quota enforcement runs after every successful write (see QuotaManager);
// quota outcomes are advisory and never fail the write itself.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tripatlas/go-trip-client/internal/domain"
	"github.com/tripatlas/go-trip-client/internal/observability"
	"github.com/tripatlas/go-trip-client/internal/repo"
	"github.com/tripatlas/go-trip-client/internal/utils"
)

// CacheStore provides the offline cache operations: Save, Get, Delete, the
// metadata listings, and Keys. It owns payload/meta derivation (size, schema version,
// cache timestamp) and delegates persistence to the repo layer.
type CacheStore struct {
	// DB is the database handle used for all cache operations.
	DB *gorm.DB

	// Quota, when non-nil, is consulted after every successful save. Its
	// failures are logged and absorbed; they never fail the write.
	Quota *QuotaManager

	// Now returns the current time; overridable in tests. Nil means
	// time.Now in UTC.
	Now func() time.Time

	logger *zerolog.Logger
}

// NewCacheStore returns a CacheStore over db with the given quota policy.
func NewCacheStore(db *gorm.DB, quota *QuotaManager) *CacheStore {
	lg := log.With().Str("component", "offline_cache").Logger()
	return &CacheStore{DB: db, Quota: quota, logger: &lg}
}

func (s *CacheStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *CacheStore) log() *zerolog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return &log.Logger
}

// Save persists a computed map for offline use. The caller provides the
// payload fields (id, endpoints, segments, POIs); Save stamps CachedAt,
// SchemaVersion, and SizeBytes, derives the metadata record, and writes both
// rows in one transaction. Re-saving an existing id refreshes the entry.
//
// The returned QuotaResult reports the post-write quota outcome: an eviction
// or soft-limit warning is carried in Warning, never as an error. A quota
// check that itself fails (e.g. transient DB error) is logged and reported
// as ok, because the write has already succeeded.
func (s *CacheStore) Save(ctx context.Context, m *domain.CachedMap) (QuotaResult, error) {
	if m == nil {
		return QuotaResult{}, ErrNilPayload
	}
	if strings.TrimSpace(m.ID) == "" {
		return QuotaResult{}, ErrEmptyMapID
	}

	m.CachedAt = s.now()
	m.SchemaVersion = domain.SchemaVersion
	m.SizeBytes = approxSize(m)

	meta := &domain.CachedMapMeta{
		ID:              m.ID,
		Origin:          m.Origin,
		Destination:     m.Destination,
		TotalDistanceKM: m.TotalDistanceKM,
		POICount:        poiCount(m.POIs),
		CreatedAt:       m.CreatedAt,
		CachedAt:        m.CachedAt,
	}

	if err := repo.SaveMap(ctx, s.DB, m, meta); err != nil {
		return QuotaResult{}, err
	}
	s.log().Debug().Str("map_id", m.ID).Int64("size_bytes", m.SizeBytes).Msg("map cached")

	if s.Quota == nil {
		return QuotaResult{OK: true}, nil
	}
	res, err := s.Quota.Enforce(ctx)
	if err != nil {
		// The write itself succeeded; a failed quota pass is retried on
		// the next write.
		s.log().Warn().Err(err).Msg("quota enforcement failed")
		return QuotaResult{OK: true}, nil
	}
	return res, nil
}

// Get returns the full cached payload for id, or ErrMapNotFound.
func (s *CacheStore) Get(ctx context.Context, id string) (*domain.CachedMap, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrEmptyMapID
	}
	m, err := repo.GetMap(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrMapNotFound
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes a cached map from both stores. Deleting an id that is not
// cached is a no-op.
func (s *CacheStore) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrEmptyMapID
	}
	if err := repo.DeleteMap(ctx, s.DB, id); err != nil {
		return err
	}
	s.log().Debug().Str("map_id", id).Msg("map removed from cache")
	s.refreshUsage(ctx)
	return nil
}

// ListMeta returns metadata for every cached map, most recently cached
// first, without loading any payloads.
func (s *CacheStore) ListMeta(ctx context.Context) ([]domain.CachedMapMeta, error) {
	return repo.ListMeta(ctx, s.DB)
}

// defaultPageSize is used when a caller asks for a page without a size.
const defaultPageSize = 20

// ListMetaPage returns one page of metadata, most recently cached first.
// page is 1-based; out-of-range page/size values are clamped.
func (s *CacheStore) ListMetaPage(ctx context.Context, page, size int) ([]domain.CachedMapMeta, error) {
	offset, limit := utils.PageWindow(page, size, defaultPageSize)
	return repo.ListMetaPage(ctx, s.DB, offset, limit)
}

// Keys returns the identifiers of all cached maps.
func (s *CacheStore) Keys(ctx context.Context) ([]string, error) {
	return repo.Keys(ctx, s.DB)
}

// refreshUsage updates the usage gauges; failures are ignored because the
// gauges are best-effort.
func (s *CacheStore) refreshUsage(ctx context.Context) {
	if count, bytes, err := repo.CacheStats(ctx, s.DB); err == nil {
		observability.SetCacheUsage(count, bytes)
	}
}

// approxSize computes the approximate serialized size of the payload in
// bytes, as stored alongside it.
func approxSize(m *domain.CachedMap) int64 {
	b, err := json.Marshal(m)
	if err != nil {
		return 0
	}
	return int64(len(b))
}

// poiCount counts entries in the serialized POI collection; malformed or
// empty JSON counts as zero.
func poiCount(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var pois []json.RawMessage
	if err := json.Unmarshal(raw, &pois); err != nil {
		return 0
	}
	return len(pois)
}
