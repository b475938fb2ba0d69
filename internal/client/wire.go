// Wire documents for backend responses. These mirror what the server
// actually sends, including its naming inconsistencies; they are decoded
// here and normalized into domain types at the tracker boundary.
package client

import "time"

// OperationDoc is the GET /operations/{id} response.
type OperationDoc struct {
	ID                  string          `json:"id"`
	Status              string          `json:"status"` // in_progress | completed | failed
	JobType             string          `json:"job_type"`
	StartedAt           time.Time       `json:"started_at"`
	Progress            int             `json:"progress"`
	EstimatedCompletion *time.Time      `json:"estimated_completion,omitempty"`
	Result              *RouteResultDoc `json:"result,omitempty"` // present iff completed
	Error               string          `json:"error,omitempty"`  // present iff failed
}

// RouteResultDoc is the heterogeneous result payload of a completed route
// computation. Older backend versions emit camelCase variants of some
// fields, so both spellings are declared and the normalizer takes the first
// non-empty one.
type RouteResultDoc struct {
	MapID       string `json:"map_id,omitempty"`
	MapIDAlt    string `json:"mapId,omitempty"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`

	TotalDistanceKM    float64 `json:"total_distance_km,omitempty"`
	TotalDistanceKMAlt float64 `json:"totalDistance,omitempty"`

	Segments   []SegmentDoc   `json:"segments,omitempty"`
	Milestones []MilestoneDoc `json:"milestones,omitempty"`
}

// SegmentDoc is one route leg on the wire.
type SegmentDoc struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	DistanceKM  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min,omitempty"`
}

// MilestoneDoc is one waypoint on the wire. Milestones are a superset of
// points of interest: the Kind/Type field may carry values the client does
// not recognize (toll booths, state lines, debug markers), which are
// filtered out during normalization.
type MilestoneDoc struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Label  string  `json:"label,omitempty"` // older field name for Name
	Type   string  `json:"type,omitempty"`
	Kind   string  `json:"kind,omitempty"` // older field name for Type
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon,omitempty"`
	Lng    float64 `json:"lng,omitempty"` // older field name for Lon
	DistKM float64 `json:"distance_km,omitempty"`
}
