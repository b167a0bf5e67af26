// Package record implements the toggleable CSV recording sink. Recording is a
// best-effort side channel of the acquisition pipeline: its errors are
// returned to the caller but never stop decoding.
package record

import (
	"bufio"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/roman-kulish/adc-capture/internal/adc"
)

const header = "timestamp,channel,voltage,raw_value\n"

// Recorder appends accepted samples to an append-only CSV log. Start, Stop and
// Append may be called from different goroutines; while stopped, Append is a
// no-op. Each append is flushed before returning so a crash never leaves a
// partially-written record observable.
type Recorder struct {
	mu   sync.Mutex
	file *os.File
	w    *bufio.Writer
}

// New creates a recorder in the stopped state.
func New() *Recorder {
	return &Recorder{}
}

// Start opens a fresh log at path (truncating any existing file), writes the
// header and marks recording active. Starting while already active replaces
// the current log; the previous one is flushed and closed first.
func (r *Recorder) Start(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file != nil {
		if err := r.closeLocked(); err != nil {
			return fmt.Errorf("record: replacing log: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("record: creating log: %w", err)
	}

	w := bufio.NewWriter(f)
	if _, err = w.WriteString(header); err == nil {
		err = w.Flush()
	}
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("record: writing log header: %w", err)
	}

	r.file, r.w = f, w
	return nil
}

// Stop marks recording inactive and releases the log. Stopping an already
// stopped recorder is a no-op.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}
	if err := r.closeLocked(); err != nil {
		return fmt.Errorf("record: closing log: %w", err)
	}
	return nil
}

// Append writes one sample row and flushes it. While stopped it does nothing
// and returns nil, which lets the acquisition loop call it unconditionally.
func (r *Recorder) Append(s adc.Sample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		return nil
	}

	_, err := fmt.Fprintf(r.w, "%s,%d,%.4f,%d\n",
		s.Timestamp.UTC().Format(time.RFC3339Nano), s.Channel, s.Voltage, s.Raw)
	if err == nil {
		err = r.w.Flush()
	}
	if err != nil {
		return fmt.Errorf("record: appending sample: %w", err)
	}
	return nil
}

// Recording reports whether a log is currently open.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file != nil
}

func (r *Recorder) closeLocked() error {
	flushErr := r.w.Flush()
	closeErr := r.file.Close()
	r.file, r.w = nil, nil

	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
