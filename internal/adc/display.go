package adc

import (
	"fmt"
	"sync"
)

// DefaultDisplayCapacity is the display buffer size used when the
// configuration does not override it.
const DefaultDisplayCapacity = 1024

// DisplayBuffer is a bounded drop-oldest FIFO of rendered sample records,
// shared between the acquisition worker (producer) and a polling consumer.
// Publishing at capacity evicts the single oldest record. Draining copies out
// and clears under one critical section, so no record is ever delivered twice.
type DisplayBuffer struct {
	mu       sync.Mutex
	records  []string
	capacity int
}

// NewDisplayBuffer creates a buffer holding up to capacity records.
func NewDisplayBuffer(capacity int) (*DisplayBuffer, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("adc: invalid display buffer capacity: %d", capacity)
	}
	return &DisplayBuffer{
		records:  make([]string, 0, capacity),
		capacity: capacity,
	}, nil
}

// Publish appends one record, evicting the oldest when the buffer is full.
func (b *DisplayBuffer) Publish(record string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.records) >= b.capacity {
		n := copy(b.records, b.records[1:])
		b.records = b.records[:n]
	}
	b.records = append(b.records, record)
}

// Drain returns all buffered records in FIFO order and empties the buffer.
// Draining an empty buffer returns nil.
func (b *DisplayBuffer) Drain() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.records) == 0 {
		return nil
	}

	out := b.records
	b.records = make([]string, 0, b.capacity)
	return out
}

// Size returns the current number of buffered records.
func (b *DisplayBuffer) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}
