// Wire-to-domain normalization for operation status documents. The backend's
// result shape is loosely typed (duplicate field spellings, a milestone list
// mixing recognized and unrecognized waypoint kinds, collections that may be
// absent); everything past this boundary is one well-defined type with every
// optional field given an explicit default.
package services

import (
	"github.com/tripatlas/go-trip-client/internal/client"
	"github.com/tripatlas/go-trip-client/internal/domain"
	"github.com/tripatlas/go-trip-client/internal/sysutil"
)

// fallbackFailureMessage is surfaced when a failed operation carries no
// server-provided error string.
const fallbackFailureMessage = "route computation failed"

// recognizedPOITypes is the set of milestone kinds the client renders as
// points of interest. Everything else on the milestone list (toll booths,
// state lines, debug markers) is dropped.
var recognizedPOITypes = map[string]bool{
	"fuel":      true,
	"food":      true,
	"lodging":   true,
	"scenic":    true,
	"rest_area": true,
}

// snapshotFromDoc converts one wire status document into a snapshot,
// attaching the derived display phase and, for terminal states, the
// normalized result or error message.
func snapshotFromDoc(doc *client.OperationDoc) domain.OperationSnapshot {
	snap := domain.OperationSnapshot{
		ID:                  doc.ID,
		Status:              domain.OperationStatus(doc.Status),
		JobType:             doc.JobType,
		StartedAt:           doc.StartedAt,
		Progress:            doc.Progress,
		Phase:               domain.PhaseForProgress(doc.Progress),
		EstimatedCompletion: doc.EstimatedCompletion,
	}

	switch snap.Status {
	case domain.OperationCompleted:
		snap.Result = resultFromDoc(doc.Result)
	case domain.OperationFailed:
		snap.Err = doc.Error
		if snap.Err == "" {
			snap.Err = fallbackFailureMessage
		}
	}
	return snap
}

// resultFromDoc normalizes the completed-result document: field spellings
// are unified, the milestone list is filtered down to recognized POI types,
// and missing collections become empty slices rather than nil.
func resultFromDoc(doc *client.RouteResultDoc) *domain.RouteResult {
	res := &domain.RouteResult{
		Segments: []domain.RouteSegment{},
		POIs:     []domain.PointOfInterest{},
	}
	if doc == nil {
		return res
	}

	res.MapID = sysutil.FirstNonEmpty(doc.MapID, doc.MapIDAlt)
	res.Origin = doc.Origin
	res.Destination = doc.Destination
	res.TotalDistanceKM = doc.TotalDistanceKM
	if res.TotalDistanceKM == 0 {
		res.TotalDistanceKM = doc.TotalDistanceKMAlt
	}

	for _, s := range doc.Segments {
		res.Segments = append(res.Segments, domain.RouteSegment{
			FromName:    s.From,
			ToName:      s.To,
			DistanceKM:  s.DistanceKM,
			DurationMin: s.DurationMin,
		})
	}

	for _, m := range doc.Milestones {
		kind := sysutil.FirstNonEmpty(m.Type, m.Kind)
		if !recognizedPOITypes[kind] {
			continue
		}
		lon := m.Lon
		if lon == 0 {
			lon = m.Lng
		}
		res.POIs = append(res.POIs, domain.PointOfInterest{
			ID:         m.ID,
			Name:       sysutil.FirstNonEmpty(m.Name, m.Label),
			Type:       kind,
			Lat:        m.Lat,
			Lon:        lon,
			DistanceKM: m.DistKM,
		})
	}
	return res
}
