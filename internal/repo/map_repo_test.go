package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tripatlas/go-trip-client/internal/domain"
)

func newMapRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("map_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func testMapPair(id string, cachedAt time.Time) (*domain.CachedMap, *domain.CachedMapMeta) {
	segs, _ := json.Marshal([]domain.RouteSegment{{FromName: "A", ToName: "B", DistanceKM: 120}})
	pois, _ := json.Marshal([]domain.PointOfInterest{{ID: "p1", Name: "Diner", Type: "food"}})
	m := &domain.CachedMap{
		ID:              id,
		Origin:          "A",
		Destination:     "B",
		TotalDistanceKM: 120,
		Segments:        segs,
		POIs:            pois,
		CreatedAt:       cachedAt.Add(-time.Hour),
		CachedAt:        cachedAt,
		SchemaVersion:   domain.SchemaVersion,
		SizeBytes:       int64(len(segs) + len(pois)),
	}
	meta := &domain.CachedMapMeta{
		ID:              id,
		Origin:          m.Origin,
		Destination:     m.Destination,
		TotalDistanceKM: m.TotalDistanceKM,
		POICount:        1,
		CreatedAt:       m.CreatedAt,
		CachedAt:        m.CachedAt,
	}
	return m, meta
}

func TestSaveMap_Error_NoTable(t *testing.T) {
	db := newMapRepoDB(t /* no migrations */)
	m, meta := testMapPair("m1", time.Now().UTC())
	if err := SaveMap(context.Background(), db, m, meta); err == nil {
		t.Fatalf("expected error saving without tables")
	}
}

func TestSaveMap_WritesBothTables(t *testing.T) {
	db := newMapRepoDB(t, &domain.CachedMap{}, &domain.CachedMapMeta{})
	m, meta := testMapPair("m1", time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	if err := SaveMap(context.Background(), db, m, meta); err != nil {
		t.Fatalf("SaveMap: %v", err)
	}

	got, err := GetMap(context.Background(), db, "m1")
	if err != nil {
		t.Fatalf("GetMap: %v", err)
	}
	if got.Origin != "A" || got.Destination != "B" || got.SchemaVersion != domain.SchemaVersion {
		t.Fatalf("round-trip mismatch: %+v", got)
	}

	var metas []domain.CachedMapMeta
	if err := db.Find(&metas).Error; err != nil {
		t.Fatalf("load metas: %v", err)
	}
	if len(metas) != 1 || metas[0].ID != "m1" || metas[0].POICount != 1 {
		t.Fatalf("expected exactly one meta row for m1, got %#v", metas)
	}
}

func TestSaveMap_MetaFailureRollsBackPayload(t *testing.T) {
	// Only the payload table exists, so the second write in the transaction
	// must fail and roll back the first.
	db := newMapRepoDB(t, &domain.CachedMap{})
	m, meta := testMapPair("m1", time.Now().UTC())

	if err := SaveMap(context.Background(), db, m, meta); err == nil {
		t.Fatalf("expected error when meta table missing")
	}
	if _, err := GetMap(context.Background(), db, "m1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected payload rolled back, got %v", err)
	}
}

func TestSaveMap_UpsertReplacesExisting(t *testing.T) {
	db := newMapRepoDB(t, &domain.CachedMap{}, &domain.CachedMapMeta{})
	t1 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	m, meta := testMapPair("m1", t1)
	if err := SaveMap(context.Background(), db, m, meta); err != nil {
		t.Fatalf("first SaveMap: %v", err)
	}

	m2, meta2 := testMapPair("m1", t1.Add(time.Hour))
	m2.Destination = "C"
	meta2.Destination = "C"
	if err := SaveMap(context.Background(), db, m2, meta2); err != nil {
		t.Fatalf("second SaveMap: %v", err)
	}

	got, err := GetMap(context.Background(), db, "m1")
	if err != nil {
		t.Fatalf("GetMap: %v", err)
	}
	if got.Destination != "C" || !got.CachedAt.Equal(t1.Add(time.Hour)) {
		t.Fatalf("expected refreshed entry, got %+v", got)
	}

	var count int64
	if err := db.Model(&domain.CachedMapMeta{}).Count(&count).Error; err != nil {
		t.Fatalf("count metas: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single meta row after upsert, got %d", count)
	}
}

func TestGetMap_NotFound(t *testing.T) {
	db := newMapRepoDB(t, &domain.CachedMap{}, &domain.CachedMapMeta{})
	if _, err := GetMap(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteMap_RemovesBoth_AndMissingIsNoop(t *testing.T) {
	db := newMapRepoDB(t, &domain.CachedMap{}, &domain.CachedMapMeta{})
	m, meta := testMapPair("m1", time.Now().UTC())
	if err := SaveMap(context.Background(), db, m, meta); err != nil {
		t.Fatalf("SaveMap: %v", err)
	}

	if err := DeleteMap(context.Background(), db, "m1"); err != nil {
		t.Fatalf("DeleteMap: %v", err)
	}
	if _, err := GetMap(context.Background(), db, "m1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected payload gone, got %v", err)
	}
	metas, err := ListMeta(context.Background(), db)
	if err != nil {
		t.Fatalf("ListMeta: %v", err)
	}
	if len(metas) != 0 {
		t.Fatalf("expected meta gone, got %#v", metas)
	}

	// Deleting again must be a no-op.
	if err := DeleteMap(context.Background(), db, "m1"); err != nil {
		t.Fatalf("second DeleteMap should be a no-op, got %v", err)
	}
}

func TestListMeta_OrderDescending(t *testing.T) {
	db := newMapRepoDB(t, &domain.CachedMap{}, &domain.CachedMapMeta{})

	t1 := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) // oldest
	t2 := t1.Add(1 * time.Hour)
	t3 := t2.Add(1 * time.Hour) // newest
	for i, ts := range []time.Time{t2, t3, t1} {
		m, meta := testMapPair(fmt.Sprintf("m%d", i+1), ts)
		if err := SaveMap(context.Background(), db, m, meta); err != nil {
			t.Fatalf("seed %s: %v", m.ID, err)
		}
	}

	list, err := ListMeta(context.Background(), db)
	if err != nil {
		t.Fatalf("ListMeta: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 metas, got %d", len(list))
	}
	// Must be descending by CachedAt: m2 (t3), m1 (t2), m3 (t1)
	if list[0].ID != "m2" || list[1].ID != "m1" || list[2].ID != "m3" {
		t.Fatalf("unexpected order: %#v", list)
	}
}

func TestListMetaPage_Window(t *testing.T) {
	db := newMapRepoDB(t, &domain.CachedMap{}, &domain.CachedMapMeta{})

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		m, meta := testMapPair(fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Hour))
		if err := SaveMap(context.Background(), db, m, meta); err != nil {
			t.Fatalf("seed m%d: %v", i, err)
		}
	}

	page, err := ListMetaPage(context.Background(), db, 1, 2)
	if err != nil {
		t.Fatalf("ListMetaPage: %v", err)
	}
	// Descending order is m4,m3,m2,m1,m0; offset 1 limit 2 -> m3,m2.
	if len(page) != 2 || page[0].ID != "m3" || page[1].ID != "m2" {
		t.Fatalf("unexpected page: %#v", page)
	}
}

func TestKeys_ReturnsAllIDs(t *testing.T) {
	db := newMapRepoDB(t, &domain.CachedMap{}, &domain.CachedMapMeta{})
	for _, id := range []string{"a", "b", "c"} {
		m, meta := testMapPair(id, time.Now().UTC())
		if err := SaveMap(context.Background(), db, m, meta); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	ids, err := Keys(context.Background(), db)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 keys, got %v", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	for _, want := range []string{"a", "b", "c"} {
		if !seen[want] {
			t.Fatalf("missing key %q in %v", want, ids)
		}
	}
}

func TestOldestMeta(t *testing.T) {
	db := newMapRepoDB(t, &domain.CachedMap{}, &domain.CachedMapMeta{})

	if _, err := OldestMeta(context.Background(), db); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on empty store, got %v", err)
	}

	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"newer", "oldest", "mid"} {
		offsets := []time.Duration{2 * time.Hour, 0, time.Hour}
		m, meta := testMapPair(id, base.Add(offsets[i]))
		if err := SaveMap(context.Background(), db, m, meta); err != nil {
			t.Fatalf("seed %s: %v", id, err)
		}
	}

	oldest, err := OldestMeta(context.Background(), db)
	if err != nil {
		t.Fatalf("OldestMeta: %v", err)
	}
	if oldest.ID != "oldest" {
		t.Fatalf("expected id 'oldest', got %q", oldest.ID)
	}
}
