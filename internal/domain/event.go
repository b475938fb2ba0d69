package domain

import (
	"encoding/json"
	"time"
)

// Event categories used by the UI layer. Free-form values are accepted; these
// constants cover the common cases.
const (
	CategoryNavigation  = "navigation"
	CategoryInteraction = "interaction"
	CategorySearch      = "search"
	CategoryMap         = "map"
)

// DeviceInfo describes the host the client runs on. It is computed once per
// process and attached to every outgoing event.
type DeviceInfo struct {
	Type       string `json:"type"`    // desktop | mobile | tablet
	OS         string `json:"os"`      // e.g. "linux", "darwin"
	Runtime    string `json:"runtime"` // client runtime name/version
	ScreenSize string `json:"screen_size,omitempty"`
}

// GeoPoint is an optional coordinate attached to location-aware events.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// UserEvent is one analytics event queued by the batcher.
//
// Invariant: SessionID is never empty for a queued event. Events without a
// session identifier are dropped at the enqueue boundary because there is
// nothing to correlate them with.
type UserEvent struct {
	ID         string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	Category   string          `json:"category"`
	SessionID  string          `json:"session_id"`
	UserID     string          `json:"user_id,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	EventData  json.RawMessage `json:"event_data,omitempty"`
	Device     DeviceInfo      `json:"device"`
	PagePath   string          `json:"page_path"`
	Referrer   string          `json:"referrer,omitempty"`
	DurationMs int64           `json:"duration_ms,omitempty"`
	Location   *GeoPoint       `json:"location,omitempty"`
}
