package adc

import (
	"fmt"
	"time"
)

const (
	// FrameStart and FrameStop delimit one wire frame. FrameTrigger is an
	// optional in-band marker carried immediately before FrameStop when the
	// firmware observed a trigger condition for that sample.
	FrameStart   = 0xAA
	FrameStop    = 0x55
	FrameTrigger = 0xF0

	// NumChannels is the number of analog inputs on the instrument.
	NumChannels = 4

	// MaxActiveChannels is the hardware streaming limit: at most two of the
	// four channels may be active at a time.
	MaxActiveChannels = 2

	fullScaleVolts = 10.0
)

// Sample is one decoded ADC measurement.
type Sample struct {
	Channel   int       // analog input, 0..3
	Raw       uint16    // 16-bit payload exactly as received
	Voltage   float64   // Raw reinterpreted as signed two's-complement, scaled to ±10 V
	Timestamp time.Time // capture time, read at decode
	Trigger   bool      // wire-level marker at decode; rewritten by trigger policy
}

// VoltageFromRaw converts a raw 16-bit reading to volts. The payload is a
// signed two's-complement value over a ±10 V full scale.
func VoltageFromRaw(raw uint16) float64 {
	return float64(int16(raw)) * (fullScaleVolts / 32768.0)
}

// DisplayRecord renders the sample as a human-readable line with a 1-based
// channel label, e.g. "CH1: 1.2500 V".
func (s Sample) DisplayRecord() string {
	return fmt.Sprintf("CH%d: %.4f V", s.Channel+1, s.Voltage)
}
