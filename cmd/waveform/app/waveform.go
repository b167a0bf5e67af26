package app

import (
	"fmt"
	"math"
	"time"

	"github.com/roman-kulish/adc-capture/internal/adc"
	"github.com/roman-kulish/adc-capture/internal/storage"
)

// WaveformData is the per-channel view of an archived session, ready for
// rendering: samples grouped by channel plus the time and voltage extents of
// the whole capture.
type WaveformData struct {
	Channels [adc.NumChannels][]storage.StoredSample

	TimestampStart time.Time
	TimestampEnd   time.Time
	VoltageMin     float64
	VoltageMax     float64

	NumSamples  int
	NumTriggers int
}

// NewWaveformData groups archived samples by channel and computes extents.
// The voltage range is padded and never collapses to a zero span, so a flat
// trace still renders mid-plot.
func NewWaveformData(samples []storage.StoredSample) (*WaveformData, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("session contains no samples")
	}

	w := WaveformData{
		TimestampStart: samples[0].Timestamp,
		TimestampEnd:   samples[len(samples)-1].Timestamp,
		VoltageMin:     math.Inf(1),
		VoltageMax:     math.Inf(-1),
		NumSamples:     len(samples),
	}

	for _, s := range samples {
		if s.Channel < 0 || s.Channel >= adc.NumChannels {
			continue
		}
		w.Channels[s.Channel] = append(w.Channels[s.Channel], s)

		w.VoltageMin = math.Min(w.VoltageMin, s.Voltage)
		w.VoltageMax = math.Max(w.VoltageMax, s.Voltage)
		if s.Trigger {
			w.NumTriggers++
		}
	}

	const pad = 0.5 // volts
	w.VoltageMin -= pad
	w.VoltageMax += pad

	return &w, nil
}

// Duration returns the time span of the capture.
func (w *WaveformData) Duration() time.Duration {
	return w.TimestampEnd.Sub(w.TimestampStart)
}
