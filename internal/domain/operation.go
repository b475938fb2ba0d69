package domain

import "time"

// OperationStatus is the server-reported state of a long-running job.
type OperationStatus string

const (
	OperationInProgress OperationStatus = "in_progress"
	OperationCompleted  OperationStatus = "completed"
	OperationFailed     OperationStatus = "failed"
)

// IsTerminal reports whether no further status transition can occur.
// A terminal operation is never re-polled.
func (s OperationStatus) IsTerminal() bool {
	return s == OperationCompleted || s == OperationFailed
}

// RouteResult is the normalized outcome of a completed route-computation
// operation. It is produced by the tracker boundary from the backend's
// loosely-typed result document: unrecognized milestone types are filtered
// out, missing collections default to empty, missing numerics to zero.
type RouteResult struct {
	MapID           string            `json:"map_id"`
	Origin          string            `json:"origin"`
	Destination     string            `json:"destination"`
	TotalDistanceKM float64           `json:"total_distance_km"`
	Segments        []RouteSegment    `json:"segments"`
	POIs            []PointOfInterest `json:"pois"`
}

// OperationSnapshot is one observation of a server-side job, as delivered on
// the tracker's update stream.
//
// Invariants:
//   - Status is monotonic: once completed or failed, no further snapshots
//     are delivered for the operation.
//   - Result is non-nil iff Status == OperationCompleted.
//   - Err is non-empty iff Status == OperationFailed.
//   - Phase is derived from Progress for display only; it never affects
//     control flow.
type OperationSnapshot struct {
	ID                  string
	Status              OperationStatus
	JobType             string
	StartedAt           time.Time
	Progress            int // 0..100
	Phase               string
	EstimatedCompletion *time.Time
	Result              *RouteResult
	Err                 string
}

// Progress thresholds for the coarse display phase. Presentation only.
const (
	phaseStartingMax  = 10
	phaseQueryingMax  = 30
	phaseRoutingMax   = 60
	phaseSearchingMax = 90
)

// PhaseForProgress maps a percent-complete value to a human-readable
// processing phase.
func PhaseForProgress(pct int) string {
	switch {
	case pct <= phaseStartingMax:
		return "starting"
	case pct <= phaseQueryingMax:
		return "querying map data"
	case pct <= phaseRoutingMax:
		return "processing route"
	case pct <= phaseSearchingMax:
		return "searching points of interest"
	default:
		return "finishing"
	}
}
