// Package services – Batcher
//
// This file implements the telemetry batching pipeline. User-behavior
// events are accumulated in a single in-memory queue (one outgoing stream
// per process, not one per caller) and flushed as a batch when any of the
// following fires: the queue reaches the batch-size threshold, the delayed
// flush timer expires, the caller forces a flush, or the batcher is stopped
// for process teardown.
//
// Delivery discipline:
//   - The flush snapshots and clears the queue before the network call, so
//     events enqueued during delivery start a fresh batch and are neither
//     lost nor double-sent with the in-flight one.
//   - On delivery failure the snapshot is pushed back to the front of the
//     queue, preserving chronological order; the next flush retries it
//     first. Delivery is at-least-once, never deduplicated here.
//   - Events without a session identifier are dropped at the enqueue
//     boundary, silently.
//   - The queue is memory-only: a process restart loses unflushed events.
package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tripatlas/go-trip-client/internal/domain"
	"github.com/tripatlas/go-trip-client/internal/observability"
	"github.com/tripatlas/go-trip-client/internal/session"
)

// EventSink is the transport the batcher delivers through.
type EventSink interface {
	SendEvents(ctx context.Context, sessionID string, events []domain.UserEvent) error
}

// Batcher accumulates user events and flushes them in batches. All methods
// are safe for concurrent use; the queue and pending-timer handle are owned
// by the instance, and the process is expected to share one instance.
type Batcher struct {
	sink       EventSink
	sessions   *session.Manager
	batchSize  int
	flushDelay time.Duration

	logger *zerolog.Logger
	tracer trace.Tracer

	mu      sync.Mutex
	queue   []domain.UserEvent
	timer   *time.Timer // at most one pending delayed flush
	stopped bool
}

// NewBatcher returns a Batcher delivering through sink, stamping events
// with the session identifier from sessions. batchSize is the queue length
// that forces an immediate flush; flushDelay is how long a lone event waits
// before a scheduled flush fires.
func NewBatcher(sink EventSink, sessions *session.Manager, batchSize int, flushDelay time.Duration) *Batcher {
	lg := log.With().Str("component", "batcher").Logger()
	return &Batcher{
		sink:       sink,
		sessions:   sessions,
		batchSize:  batchSize,
		flushDelay: flushDelay,
		logger:     &lg,
		tracer:     otel.Tracer("telemetry"),
	}
}

func (b *Batcher) log() *zerolog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return &log.Logger
}

// Track enqueues one event, fire-and-forget. It stamps the event with an
// identifier, a timestamp, the process session identifier, and the cached
// device descriptors. Events that end up without a session identifier are
// dropped silently: there is nothing to correlate them with. Reaching the
// batch-size threshold triggers an immediate asynchronous flush; otherwise
// a single delayed flush is scheduled if none is pending.
func (b *Batcher) Track(ev domain.UserEvent) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if ev.SessionID == "" && b.sessions != nil {
		ev.SessionID = b.sessions.ID()
	}
	if ev.SessionID == "" {
		return
	}
	ev.Device = session.Device()

	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		b.log().Debug().Str("event_type", ev.EventType).Msg("event dropped after stop")
		return
	}
	b.queue = append(b.queue, ev)
	depth := len(b.queue)
	observability.SetQueueDepth(depth)

	if depth >= b.batchSize {
		// Threshold flush. Delivery happens off the caller's goroutine;
		// Track never blocks on the network.
		b.stopTimerLocked()
		b.mu.Unlock()
		go func() { _ = b.Flush(context.Background()) }()
		return
	}
	if b.timer == nil {
		// Scheduling is idempotent: while a timer is pending, further
		// enqueues reuse it.
		b.timer = time.AfterFunc(b.flushDelay, func() { _ = b.Flush(context.Background()) })
	}
	b.mu.Unlock()
}

// Flush delivers everything currently queued as one batch. The queue is
// snapshotted and cleared before the network call; on failure the snapshot
// is pushed back to the front of the queue and the error returned, so the
// next flush retries the same batch first. A flush with an empty queue is
// a no-op. After Stop, Flush returns ErrBatcherStopped.
func (b *Batcher) Flush(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return ErrBatcherStopped
	}
	err := b.flushLocked(ctx)
	b.mu.Unlock()
	return err
}

// Stop tears the batcher down: the pending timer is cleared, the remaining
// queue is delivered in one final flush, and every later Track or Flush is
// rejected. Stop is idempotent. Intended for process shutdown (the page
// unload and visibility-hidden moments of the hosting client).
func (b *Batcher) Stop(ctx context.Context) error {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil
	}
	err := b.flushLocked(ctx)
	b.stopped = true
	b.mu.Unlock()

	b.log().Info().Msg("batcher stopped")
	return err
}

// QueueDepth reports the number of currently queued events.
func (b *Batcher) QueueDepth() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queue)
}

// flushLocked performs one snapshot-deliver-requeue cycle. Callers hold
// b.mu; the lock is released around the network call and re-acquired before
// returning, so b.mu is held again when flushLocked exits.
func (b *Batcher) flushLocked(ctx context.Context) error {
	b.stopTimerLocked()
	if len(b.queue) == 0 {
		return nil
	}

	// Snapshot and clear BEFORE the suspension point: enqueues that land
	// during delivery must start a fresh batch.
	batch := b.queue
	b.queue = nil
	observability.SetQueueDepth(0)
	b.mu.Unlock()

	ctx, span := b.tracer.Start(ctx, "telemetry.flush",
		trace.WithAttributes(attribute.Int("batch.size", len(batch))))
	err := b.sink.SendEvents(ctx, batch[0].SessionID, batch)
	span.End()
	observability.ObserveFlush(len(batch), err)

	b.mu.Lock()
	if err != nil {
		// Re-prepend so retry order stays chronological.
		b.queue = append(batch, b.queue...)
		observability.SetQueueDepth(len(b.queue))
		b.log().Warn().Err(err).Int("batch_size", len(batch)).Msg("flush failed, batch requeued")
		return err
	}
	b.log().Debug().Int("batch_size", len(batch)).Msg("flushed events")
	return nil
}

// stopTimerLocked clears the pending delayed flush, if any.
func (b *Batcher) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
