package adc

import "testing"

func TestNormalizeChannels(t *testing.T) {
	testCases := []struct {
		name      string
		requested [NumChannels]bool
		want      [NumChannels]bool
	}{
		{"none", [NumChannels]bool{}, [NumChannels]bool{}},
		{"single", [NumChannels]bool{false, false, true, false}, [NumChannels]bool{false, false, true, false}},
		{"two", [NumChannels]bool{false, true, false, true}, [NumChannels]bool{false, true, false, true}},
		{"all four keeps lowest two", [NumChannels]bool{true, true, true, true}, [NumChannels]bool{true, true, false, false}},
		{"three keeps lowest two", [NumChannels]bool{true, false, true, true}, [NumChannels]bool{true, false, true, false}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizeChannels(tc.requested); got != tc.want {
				t.Errorf("NormalizeChannels(%v) = %v, want %v", tc.requested, got, tc.want)
			}
		})
	}
}

func TestSettings_SetActiveChannelsNormalizes(t *testing.T) {
	s := NewSettings()
	s.SetActiveChannels([NumChannels]bool{true, true, true, true})

	policy := s.Snapshot()
	want := [NumChannels]bool{true, true, false, false}
	if policy.Channels != want {
		t.Errorf("expected normalized channels %v, got %v", want, policy.Channels)
	}
	if !policy.ChannelActive(0) || policy.ChannelActive(2) {
		t.Error("ChannelActive disagrees with the normalized set")
	}
}

func TestSettings_ConfigureTriggerBumpsGeneration(t *testing.T) {
	s := NewSettings()
	before := s.Snapshot()

	cfg := TriggerConfig{Enabled: true, Channel: 2, Level: 1.0, RisingEdge: true}
	s.ConfigureTrigger(cfg)

	after := s.Snapshot()
	if after.Generation == before.Generation {
		t.Error("expected reconfiguring the trigger to bump the generation")
	}
	if after.Trigger != cfg {
		t.Errorf("expected trigger config %+v, got %+v", cfg, after.Trigger)
	}
}

func TestPolicy_ChannelActiveOutOfRange(t *testing.T) {
	policy := Policy{Channels: [NumChannels]bool{true, true, false, false}}
	if policy.ChannelActive(-1) || policy.ChannelActive(NumChannels) {
		t.Error("out-of-range channels must be inactive")
	}
}
