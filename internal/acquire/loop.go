// Package acquire runs the acquisition worker: it pulls bytes from a Source,
// feeds the frame decoder and routes accepted samples to the display buffer,
// the recording sink and the optional session archive.
package acquire

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/roman-kulish/adc-capture/internal/adc"
	"github.com/roman-kulish/adc-capture/internal/record"
)

const (
	// DefaultRetryDelay is the backoff between transport reconnect attempts.
	DefaultRetryDelay = time.Second

	// DefaultReadChunk bounds a single transport read.
	DefaultReadChunk = 1024
)

// Archiver receives accepted samples for durable session storage. Archiving
// is best-effort: errors are logged by the loop and never stop acquisition.
type Archiver interface {
	StoreSamples(samples []adc.Sample) error
}

// WithLogger sets the logger for the loop.
func WithLogger(logger *slog.Logger) func(l *Loop) {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithRetryDelay sets the backoff between reconnect attempts.
func WithRetryDelay(delay time.Duration) func(l *Loop) {
	return func(l *Loop) {
		l.retryDelay = delay
	}
}

// WithReadChunk sets the transport read chunk size.
func WithReadChunk(size int) func(l *Loop) {
	return func(l *Loop) {
		l.chunkSize = size
	}
}

// WithArchiver sets the session archive sink.
func WithArchiver(archive Archiver) func(l *Loop) {
	return func(l *Loop) {
		l.archive = archive
	}
}

// Loop is the acquisition state machine: Opening → Streaming → Retrying and
// around again until the context is cancelled. All decoding, gating and sink
// publishing happen synchronously on the goroutine running Run.
type Loop struct {
	open     Opener
	settings *adc.Settings
	display  *adc.DisplayBuffer
	recorder *record.Recorder
	archive  Archiver

	retryDelay time.Duration
	chunkSize  int
	logger     *slog.Logger

	running  atomic.Bool
	accepted atomic.Uint64
	read     atomic.Uint64
}

// New creates a loop with a discard logger.
func New(open Opener, settings *adc.Settings, display *adc.DisplayBuffer, recorder *record.Recorder, options ...func(l *Loop)) *Loop {
	l := Loop{
		open:       open,
		settings:   settings,
		display:    display,
		recorder:   recorder,
		retryDelay: DefaultRetryDelay,
		chunkSize:  DefaultReadChunk,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)), // nil logger
	}

	for _, option := range options {
		option(&l)
	}

	return &l
}

// Run drives the loop until ctx is cancelled and returns the context error.
// Transport failures are recovered internally with a reconnect backoff and
// surface only as log events.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return errors.New("acquire: loop is already running")
	}
	defer l.running.Store(false)

	for {
		src, err := l.open()
		if err != nil {
			l.logger.Warn("opening byte source", slog.String("error", err.Error()))
			if err = l.backoff(ctx); err != nil {
				return err
			}
			continue
		}

		l.logger.Info("byte source open, streaming")

		err = l.stream(ctx, src)
		if closeErr := src.Close(); closeErr != nil {
			l.logger.Warn("closing byte source", slog.String("error", closeErr.Error()))
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		l.logger.Warn("byte source failed, reconnecting", slog.String("error", err.Error()))
		if err = l.backoff(ctx); err != nil {
			return err
		}
	}
}

// IsRunning reports whether the loop is active.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// SamplesAccepted returns the number of samples routed to the sinks.
func (l *Loop) SamplesAccepted() uint64 {
	return l.accepted.Load()
}

// BytesRead returns the number of raw bytes consumed from the transport.
func (l *Loop) BytesRead() uint64 {
	return l.read.Load()
}

// stream reads frames on a single connection until a transport failure or
// cancellation. The decoder and trigger gate are created fresh here: stale
// partial frames from a dead connection must never be stitched to a new
// connection's bytes, and the gate re-arms on reconnect.
func (l *Loop) stream(ctx context.Context, src Source) error {
	dec := adc.NewDecoder()

	var gate adc.TriggerState
	lastGen := l.settings.Snapshot().Generation

	buf := make([]byte, l.chunkSize)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		n, err := src.Read(buf)
		switch {
		case errors.Is(err, ErrTimeout):
			continue // no data yet
		case err != nil:
			return err
		case n == 0:
			continue
		}

		l.read.Add(uint64(n))
		dec.AddBytes(buf[:n])
		l.route(dec.Process(), &gate, &lastGen)
	}
}

// route runs decoded samples through the channel gate and trigger policy and
// publishes the survivors. One settings snapshot covers the whole pass.
func (l *Loop) route(samples []adc.Sample, gate *adc.TriggerState, lastGen *uint64) {
	if len(samples) == 0 {
		return
	}

	policy := l.settings.Snapshot()
	if policy.Generation != *lastGen {
		gate.Reset()
		*lastGen = policy.Generation
	}

	var accepted []adc.Sample
	for _, s := range samples {
		if !policy.ChannelActive(s.Channel) {
			continue
		}

		s, ok := gate.Evaluate(s, policy.Trigger)
		if !ok {
			continue
		}

		l.display.Publish(s.DisplayRecord())

		if err := l.recorder.Append(s); err != nil {
			l.logger.Warn("appending to recording", slog.String("error", err.Error()))
		}

		accepted = append(accepted, s)
	}

	if len(accepted) == 0 {
		return
	}

	l.accepted.Add(uint64(len(accepted)))

	if l.archive != nil {
		if err := l.archive.StoreSamples(accepted); err != nil {
			l.logger.Warn("archiving samples", slog.String("error", err.Error()))
		}
	}
}

func (l *Loop) backoff(ctx context.Context) error {
	t := time.NewTimer(l.retryDelay)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
