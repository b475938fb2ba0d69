// Package services – Tracker
//
// This file implements the operation tracker: it follows one long-running
// server-side job by polling its status document and delivers a stream of
// snapshots to the caller, ending with a terminal completed or failed
// snapshot.
//
// Polling discipline:
//   - The first poll is issued immediately; subsequent polls are paced by a
//     token-bucket limiter so they are strictly sequential and never
//     overlap, regardless of how long an individual request takes.
//   - An individual poll failure is logged and swallowed; only a terminal
//     status or caller cancellation stops the loop. A flaky single poll
//     must not abort a multi-minute job.
//   - Cancellation is the caller's context. Cancelling closes the stream
//     without further polls; cancelling twice is naturally a no-op.
package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/tripatlas/go-trip-client/internal/client"
	"github.com/tripatlas/go-trip-client/internal/domain"
	"github.com/tripatlas/go-trip-client/internal/observability"
)

// OperationAPI is the backend contract the tracker polls against.
type OperationAPI interface {
	GetOperation(ctx context.Context, id string) (*client.OperationDoc, error)
}

// Tracker polls server-side jobs to completion.
type Tracker struct {
	// API is the backend client used for status polls.
	API OperationAPI

	// Interval is the spacing between consecutive polls.
	Interval time.Duration

	logger *zerolog.Logger
	tracer trace.Tracer
}

// NewTracker returns a Tracker polling api every interval.
func NewTracker(api OperationAPI, interval time.Duration) *Tracker {
	lg := log.With().Str("component", "tracker").Logger()
	return &Tracker{
		API:      api,
		Interval: interval,
		logger:   &lg,
		tracer:   otel.Tracer("tracker"),
	}
}

func (t *Tracker) log() *zerolog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return &log.Logger
}

// Track follows operation id until it reaches a terminal state or ctx is
// cancelled. It returns a stream of snapshots; the final snapshot before
// the channel closes carries the normalized Result (completed) or the
// error message (failed). No snapshot is delivered after cancellation.
//
// The caller must drain the channel or cancel ctx; the polling goroutine
// blocks on delivery otherwise.
func (t *Tracker) Track(ctx context.Context, id string) <-chan domain.OperationSnapshot {
	out := make(chan domain.OperationSnapshot, 1)

	go func() {
		defer close(out)

		ctx, span := t.tracer.Start(ctx, "operation.track",
			trace.WithAttributes(attribute.String("operation.id", id)))
		defer span.End()

		// Burst 1 makes the first Wait return immediately; every later
		// Wait spaces polls one Interval apart.
		limiter := rate.NewLimiter(rate.Every(t.Interval), 1)

		for {
			if err := limiter.Wait(ctx); err != nil {
				t.log().Debug().Str("operation_id", id).Msg("tracking cancelled")
				observability.ObserveOperationFinished("cancelled")
				return
			}

			doc, err := t.API.GetOperation(ctx, id)
			observability.ObservePoll(err)
			if err != nil {
				if ctx.Err() != nil {
					observability.ObserveOperationFinished("cancelled")
					return
				}
				// Transient poll failure: keep going.
				t.log().Warn().Err(err).Str("operation_id", id).Msg("status poll failed")
				continue
			}

			snap := snapshotFromDoc(doc)
			select {
			case out <- snap:
			case <-ctx.Done():
				observability.ObserveOperationFinished("cancelled")
				return
			}

			if snap.Status.IsTerminal() {
				observability.ObserveOperationFinished(string(snap.Status))
				t.log().Info().
					Str("operation_id", id).
					Str("status", string(snap.Status)).
					Msg("operation finished")
				return
			}
		}
	}()

	return out
}
