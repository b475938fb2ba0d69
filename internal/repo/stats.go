// Package repo implements the offline cache persistence layer, backed by
// GORM. This file provides small aggregate queries used by the quota policy.
// Each function is context-aware and safe to call from services.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tripatlas/go-trip-client/internal/domain"
)

// CacheStats returns aggregate usage of the offline store: the number of
// cached maps and the sum of their serialized payload sizes in bytes.
//
// The count comes from the metadata table; total bytes are summed over the
// payload table's size_bytes column (COALESCE'd so an empty table yields 0).
//
// Return values:
//   - count:      total cached maps
//   - totalBytes: sum of CachedMap.SizeBytes over all rows
//   - err:        database error, if any
func CacheStats(ctx context.Context, db *gorm.DB) (count int64, totalBytes int64, err error) {
	if err = db.WithContext(ctx).Model(&domain.CachedMapMeta{}).Count(&count).Error; err != nil {
		return 0, 0, err
	}

	var row struct {
		Total int64
	}
	err = db.WithContext(ctx).
		Model(&domain.CachedMap{}).
		Select("COALESCE(SUM(size_bytes), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return 0, 0, err
	}
	return count, row.Total, nil
}
