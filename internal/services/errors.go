// Package services implements the client's resilience subsystems: the
// offline cache store, the storage quota policy, the operation tracker, and
// the telemetry batcher. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
package services

import "errors"

var (
	// ErrEmptyMapID is returned when a cache operation is attempted with an
	// empty map identifier.
	ErrEmptyMapID = errors.New("map id is empty")

	// ErrMapNotFound indicates that the requested map is not present in the
	// offline cache.
	ErrMapNotFound = errors.New("map not found in cache")

	// ErrNilPayload is returned when Save is called with a nil map payload.
	ErrNilPayload = errors.New("map payload is nil")

	// ErrBatcherStopped is returned by Flush after the batcher has been
	// stopped for process teardown.
	ErrBatcherStopped = errors.New("event batcher stopped")
)
