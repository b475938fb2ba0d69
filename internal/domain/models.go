// Package domain defines the persistence and wire models for the trip-planner
// client: cached route maps, asynchronous server-side operations, and
// analytics events. The cache types are mapped with GORM and form the core
// data layer of the offline store.
package domain

import (
	"encoding/json"
	"time"
)

// SchemaVersion is the current on-disk layout version stamped onto every
// cached map. Readers that encounter a newer version should treat the entry
// as absent rather than attempt a partial decode.
const SchemaVersion = 1

// RouteSegment is one leg of a computed route between two consecutive stops.
type RouteSegment struct {
	FromName    string  `json:"from_name"`
	ToName      string  `json:"to_name"`
	DistanceKM  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min,omitempty"`
}

// PointOfInterest is a recognized stop along a route (fuel, food, lodging,
// scenic, rest area). The backend's "milestone" list is a superset of these;
// anything else is filtered out at the tracker boundary.
type PointOfInterest struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	DistanceKM float64 `json:"distance_km"` // distance from route origin
}

// CachedMap is the heavy payload half of a cached route: full segment
// geometry and points of interest. It is always written together with its
// CachedMapMeta twin in a single transaction.
//
// Fields:
//   - ID: map identifier shared with the meta record (char(36)).
//   - Origin / Destination: endpoint names as entered by the user.
//   - TotalDistanceKM: route length.
//   - Segments / POIs: ordered JSON-encoded collections.
//   - CreatedAt: server-side creation date of the map.
//   - CachedAt: when this entry was written locally; drives LRU eviction.
//   - SchemaVersion: on-disk layout version (see SchemaVersion).
//   - SizeBytes: approximate serialized size, computed at save time.
type CachedMap struct {
	ID              string          `json:"id"          gorm:"type:char(36);primaryKey"`
	Origin          string          `json:"origin"      gorm:"type:varchar(255);not null"`
	Destination     string          `json:"destination" gorm:"type:varchar(255);not null"`
	TotalDistanceKM float64         `json:"total_distance_km"`
	Segments        json.RawMessage `json:"segments"    gorm:"type:text"`
	POIs            json.RawMessage `json:"pois"        gorm:"type:text"`
	CreatedAt       time.Time       `json:"created_at"`
	CachedAt        time.Time       `json:"cached_at"   gorm:"index:idx_maps_cached_at"`
	SchemaVersion   int             `json:"schema_version"`
	SizeBytes       int64           `json:"size_bytes"`
}

// TableName returns the database table name for CachedMap.
func (CachedMap) TableName() string { return "maps" }

// CachedMapMeta is the light metadata half of a cached route, used for
// listings that must stay cheap regardless of payload size. Every meta row
// has exactly one corresponding CachedMap row with the same ID.
type CachedMapMeta struct {
	ID              string    `json:"id"          gorm:"type:char(36);primaryKey"`
	Origin          string    `json:"origin"      gorm:"type:varchar(255);not null"`
	Destination     string    `json:"destination" gorm:"type:varchar(255);not null"`
	TotalDistanceKM float64   `json:"total_distance_km"`
	POICount        int       `json:"poi_count"`
	CreatedAt       time.Time `json:"created_at"`
	CachedAt        time.Time `json:"cached_at"   gorm:"index:idx_maps_meta_cached_at"`
}

// TableName returns the database table name for CachedMapMeta.
func (CachedMapMeta) TableName() string { return "maps_meta" }
