package adc

import (
	"bytes"
	"encoding/binary"
	"time"
)

const (
	shortFrameLen = 5 // START, channel, value-high, value-low, STOP
	longFrameLen  = 6 // short frame plus a TRIGGER marker before STOP
)

// Decoder recovers framed samples from an unaligned serial byte stream.
// Bytes are appended with AddBytes and parsed with Process; an incomplete
// trailing frame stays buffered between calls. Malformed input is expected
// noise on a live link and is discarded by resynchronization, never reported
// as an error.
//
// A Decoder is owned by a single goroutine and is not safe for concurrent use.
type Decoder struct {
	buf  []byte
	last time.Time

	now func() time.Time // test seam
}

// NewDecoder creates an empty decoder.
func NewDecoder() *Decoder {
	return &Decoder{now: time.Now}
}

// AddBytes appends raw input to the frame buffer. No parsing happens here.
func (d *Decoder) AddBytes(p []byte) {
	d.buf = append(d.buf, p...)
}

// Buffered returns the number of bytes awaiting a complete frame.
func (d *Decoder) Buffered() int {
	return len(d.buf)
}

// Process parses as many complete, valid frames as are currently buffered and
// returns the decoded samples in arrival order. Leading garbage is skipped
// until a START marker; a candidate frame whose terminal byte is not STOP
// loses only its START byte before scanning resumes, so a single corrupted
// byte costs at most one frame.
func (d *Decoder) Process() []Sample {
	var samples []Sample

	for {
		if i := bytes.IndexByte(d.buf, FrameStart); i < 0 {
			d.buf = d.buf[:0]
			break
		} else if i > 0 {
			d.buf = d.buf[i:]
		}

		if len(d.buf) < shortFrameLen {
			break // incomplete trailing frame, keep for the next call
		}

		// The frame length is disambiguated by peeking at offset 4: a TRIGGER
		// marker there means a long frame with STOP at offset 5.
		frameLen := shortFrameLen
		if d.buf[4] == FrameTrigger {
			frameLen = longFrameLen
			if len(d.buf) < longFrameLen {
				break
			}
		}

		if d.buf[frameLen-1] != FrameStop {
			d.buf = d.buf[1:] // drop the START byte only and rescan
			continue
		}

		if s, ok := d.decodeFrame(d.buf[:frameLen]); ok {
			samples = append(samples, s)
		}
		d.buf = d.buf[frameLen:]
	}

	// Re-slicing above keeps the backing array pinned; copy the tail out so
	// consumed bytes can be collected.
	if len(d.buf) > 0 {
		d.buf = append([]byte(nil), d.buf...)
	}

	return samples
}

// decodeFrame decodes one complete candidate frame. A frame with bad START or
// STOP markers yields no sample; it does not propagate an error.
func (d *Decoder) decodeFrame(frame []byte) (Sample, bool) {
	if frame[0] != FrameStart || frame[len(frame)-1] != FrameStop {
		return Sample{}, false
	}

	raw := binary.BigEndian.Uint16(frame[2:4])

	s := Sample{
		Channel:   int(frame[1] & 0x03),
		Raw:       raw,
		Voltage:   VoltageFromRaw(raw),
		Timestamp: d.timestamp(),
		Trigger:   len(frame) == longFrameLen,
	}
	return s, true
}

// timestamp returns the capture time, clamped so timestamps never decrease
// within a single decoder instance.
func (d *Decoder) timestamp() time.Time {
	ts := d.now()
	if ts.Before(d.last) {
		ts = d.last
	}
	d.last = ts
	return ts
}
