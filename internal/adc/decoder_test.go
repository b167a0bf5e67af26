package adc

import (
	"math"
	"testing"
	"time"
)

// frame builds one wire frame for the given channel and raw value.
func frame(channel int, raw uint16, trigger bool) []byte {
	f := []byte{FrameStart, byte(channel), byte(raw >> 8), byte(raw)}
	if trigger {
		f = append(f, FrameTrigger)
	}
	return append(f, FrameStop)
}

func TestDecoder_GarbageInterleaved(t *testing.T) {
	var stream []byte
	stream = append(stream, 0x00, 0x13, 0x37)
	stream = append(stream, frame(0, 100, false)...)
	stream = append(stream, 0xDE, 0xAD, 0xBE, 0xEF)
	stream = append(stream, frame(1, 200, false)...)
	stream = append(stream, 0x42)
	stream = append(stream, frame(2, 300, true)...)
	stream = append(stream, 0x99, 0x98)

	dec := NewDecoder()
	dec.AddBytes(stream)
	samples := dec.Process()

	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}

	want := []struct {
		channel int
		raw     uint16
		trigger bool
	}{
		{0, 100, false},
		{1, 200, false},
		{2, 300, true},
	}
	for i, w := range want {
		if samples[i].Channel != w.channel || samples[i].Raw != w.raw || samples[i].Trigger != w.trigger {
			t.Errorf("sample %d: got (ch=%d raw=%d trig=%v), want (ch=%d raw=%d trig=%v)",
				i, samples[i].Channel, samples[i].Raw, samples[i].Trigger, w.channel, w.raw, w.trigger)
		}
	}
}

func TestDecoder_CorruptedByteRecovery(t *testing.T) {
	corrupt := frame(1, 0x3039, false)
	corrupt[4] = 0x00 // clobber the STOP marker

	var stream []byte
	stream = append(stream, frame(0, 10, false)...)
	stream = append(stream, corrupt...)
	stream = append(stream, frame(1, 20, false)...)

	dec := NewDecoder()
	dec.AddBytes(stream)
	samples := dec.Process()

	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Raw != 10 || samples[1].Raw != 20 {
		t.Errorf("expected raw values 10 and 20, got %d and %d", samples[0].Raw, samples[1].Raw)
	}
}

func TestDecoder_VoltageScaling(t *testing.T) {
	testCases := []struct {
		name string
		raw  uint16
		want float64
	}{
		{"zero", 0x0000, 0},
		{"positive full scale", 0x7FFF, 32767 * 10.0 / 32768.0},
		{"negative full scale", 0x8000, -10.0},
		{"quarter scale", 0x2000, 2.5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dec := NewDecoder()
			dec.AddBytes(frame(0, tc.raw, false))
			samples := dec.Process()
			if len(samples) != 1 {
				t.Fatalf("expected 1 sample, got %d", len(samples))
			}
			if math.Abs(samples[0].Voltage-tc.want) > 1e-12 {
				t.Errorf("raw 0x%04X: got %.6f V, want %.6f V", tc.raw, samples[0].Voltage, tc.want)
			}
		})
	}
}

func TestDecoder_IncompleteTrailingFrame(t *testing.T) {
	full := frame(3, 42, false)

	dec := NewDecoder()
	dec.AddBytes(full[:3])

	if samples := dec.Process(); len(samples) != 0 {
		t.Fatalf("expected no samples from a partial frame, got %d", len(samples))
	}
	if dec.Buffered() != 3 {
		t.Errorf("expected 3 bytes buffered, got %d", dec.Buffered())
	}

	dec.AddBytes(full[3:])
	samples := dec.Process()
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample after completing the frame, got %d", len(samples))
	}
	if samples[0].Channel != 3 || samples[0].Raw != 42 {
		t.Errorf("got (ch=%d raw=%d), want (ch=3 raw=42)", samples[0].Channel, samples[0].Raw)
	}
}

func TestDecoder_LongFrameNeedsSixBytes(t *testing.T) {
	long := frame(1, 7, true)

	dec := NewDecoder()
	dec.AddBytes(long[:5]) // START..TRIGGER, STOP still missing

	if samples := dec.Process(); len(samples) != 0 {
		t.Fatalf("expected no samples before STOP arrives, got %d", len(samples))
	}

	dec.AddBytes(long[5:])
	samples := dec.Process()
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if !samples[0].Trigger {
		t.Error("expected the wire trigger flag to be set")
	}
}

func TestDecoder_ChannelFieldMasked(t *testing.T) {
	f := frame(0, 5, false)
	f[1] = 0xFE // upper bits must be ignored, low 2 bits give channel 2

	dec := NewDecoder()
	dec.AddBytes(f)
	samples := dec.Process()
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	if samples[0].Channel != 2 {
		t.Errorf("expected channel 2, got %d", samples[0].Channel)
	}
}

func TestDecoder_TimestampsNeverDecrease(t *testing.T) {
	clock := []time.Time{
		time.Unix(100, 0),
		time.Unix(99, 0), // clock stepped backwards
		time.Unix(101, 0),
	}

	dec := NewDecoder()
	i := 0
	dec.now = func() time.Time {
		ts := clock[i]
		i++
		return ts
	}

	var stream []byte
	for ch := 0; ch < 3; ch++ {
		stream = append(stream, frame(ch, uint16(ch), false)...)
	}
	dec.AddBytes(stream)

	samples := dec.Process()
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp.Before(samples[i-1].Timestamp) {
			t.Errorf("timestamp %d decreased: %v < %v", i, samples[i].Timestamp, samples[i-1].Timestamp)
		}
	}
}

func TestDecoder_GarbageOnly(t *testing.T) {
	dec := NewDecoder()
	dec.AddBytes([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06})

	if samples := dec.Process(); len(samples) != 0 {
		t.Fatalf("expected no samples from garbage, got %d", len(samples))
	}
	if dec.Buffered() != 0 {
		t.Errorf("expected garbage to be discarded, %d bytes buffered", dec.Buffered())
	}
}
