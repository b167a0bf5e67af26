package adc

import "testing"

func sampleAt(channel int, voltage float64, wireTrigger bool) Sample {
	return Sample{Channel: channel, Voltage: voltage, Trigger: wireTrigger}
}

func TestTriggerState_DisabledPassesEverything(t *testing.T) {
	var gate TriggerState
	cfg := TriggerConfig{Enabled: false}

	in := sampleAt(1, -3.5, true)
	out, ok := gate.Evaluate(in, cfg)
	if !ok {
		t.Fatal("expected sample to pass with trigger disabled")
	}
	if out.Trigger != in.Trigger {
		t.Error("expected the wire trigger flag to stand with trigger disabled")
	}
	if gate.Open() {
		t.Error("disabled trigger must not latch the gate")
	}
}

func TestTriggerState_RisingEdgeLatches(t *testing.T) {
	var gate TriggerState
	cfg := TriggerConfig{Enabled: true, Channel: 2, Level: 1.0, RisingEdge: true}

	steps := []struct {
		name     string
		sample   Sample
		wantPass bool
		wantTrig bool
	}{
		{"below level on trigger channel", sampleAt(2, 0.5, false), false, false},
		{"other channel before crossing", sampleAt(0, 5.0, false), false, false},
		{"crossing on trigger channel", sampleAt(2, 1.5, false), true, true},
		{"other channel after crossing", sampleAt(0, -2.0, false), true, false},
		{"below level after crossing", sampleAt(2, 0.2, false), true, false},
	}

	for _, step := range steps {
		out, ok := gate.Evaluate(step.sample, cfg)
		if ok != step.wantPass {
			t.Errorf("%s: pass = %v, want %v", step.name, ok, step.wantPass)
		}
		if out.Trigger != step.wantTrig {
			t.Errorf("%s: trigger flag = %v, want %v", step.name, out.Trigger, step.wantTrig)
		}
	}
}

func TestTriggerState_FallingEdge(t *testing.T) {
	var gate TriggerState
	cfg := TriggerConfig{Enabled: true, Channel: 0, Level: -1.0, RisingEdge: false}

	if _, ok := gate.Evaluate(sampleAt(0, 0.0, false), cfg); ok {
		t.Fatal("sample above a falling level must not pass")
	}

	out, ok := gate.Evaluate(sampleAt(0, -2.0, false), cfg)
	if !ok || !out.Trigger {
		t.Fatalf("expected a falling crossing to fire: pass=%v trigger=%v", ok, out.Trigger)
	}
}

func TestTriggerState_ResetClosesGate(t *testing.T) {
	var gate TriggerState
	cfg := TriggerConfig{Enabled: true, Channel: 0, Level: 1.0, RisingEdge: true}

	if _, ok := gate.Evaluate(sampleAt(0, 2.0, false), cfg); !ok {
		t.Fatal("expected the crossing to open the gate")
	}

	gate.Reset()
	if gate.Open() {
		t.Fatal("expected Reset to close the gate")
	}
	if _, ok := gate.Evaluate(sampleAt(1, 0.0, false), cfg); ok {
		t.Error("expected samples to be discarded after reset until the next crossing")
	}
}
