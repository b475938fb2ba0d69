// Package repo implements the offline cache persistence layer, backed by
// GORM. This file provides repository functions for the dual map store:
// the heavy payload table ("maps") and the light metadata table
// ("maps_meta").
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Consistency:
//   - SaveMap and DeleteMap touch both tables inside a single transaction,
//     so a payload row is never visible without its meta row or vice versa.
//   - Listing functions read only the metadata table; payload rows are
//     loaded exclusively by GetMap.
//
// Error semantics:
//   - When a map is not found, GetMap returns gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - DeleteMap of a missing id is a no-op, not an error.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tripatlas/go-trip-client/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer.
var ErrNotFound = gorm.ErrRecordNotFound

// SaveMap writes the payload row and its derived meta row in one
// transaction. An existing entry with the same ID is replaced in both
// tables, so re-caching a map refreshes its CachedAt and payload together.
func SaveMap(ctx context.Context, db *gorm.DB, m *domain.CachedMap, meta *domain.CachedMapMeta) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(m).Error; err != nil {
			return err
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(meta).Error
	})
}

// GetMap fetches a payload row by id. If the record does not exist, it
// returns ErrNotFound. On other DB errors, the raw error is returned.
func GetMap(ctx context.Context, db *gorm.DB, id string) (*domain.CachedMap, error) {
	var m domain.CachedMap
	err := db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteMap removes both the payload and meta rows for id in one
// transaction. Deleting a non-existent id succeeds without effect.
func DeleteMap(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&domain.CachedMap{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&domain.CachedMapMeta{}).Error
	})
}

// ListMeta returns all metadata rows ordered by CachedAt descending
// (most recently cached first). It never touches the payload table.
func ListMeta(ctx context.Context, db *gorm.DB) ([]domain.CachedMapMeta, error) {
	var out []domain.CachedMapMeta
	err := db.WithContext(ctx).
		Order("cached_at desc").
		Find(&out).Error
	return out, err
}

// ListMetaPage returns a page of metadata rows ordered by CachedAt
// descending. Use CacheStats to obtain the total for pagination metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListMetaPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.CachedMapMeta, error) {
	var out []domain.CachedMapMeta
	err := db.WithContext(ctx).
		Order("cached_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// Keys returns the set of cached map identifiers. Order is unspecified.
func Keys(ctx context.Context, db *gorm.DB) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.CachedMapMeta{}).
		Pluck("id", &ids).Error
	return ids, err
}

// OldestMeta returns the meta row with the minimum CachedAt, i.e. the
// least-recently-cached entry, or ErrNotFound if the store is empty.
func OldestMeta(ctx context.Context, db *gorm.DB) (*domain.CachedMapMeta, error) {
	var m domain.CachedMapMeta
	err := db.WithContext(ctx).
		Order("cached_at asc").
		First(&m).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}
