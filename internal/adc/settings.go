package adc

import "sync"

// TriggerConfig is the edge trigger policy. It is replaced wholesale by each
// configuration call and never partially updated.
type TriggerConfig struct {
	Enabled    bool
	Channel    int     // channel whose voltage participates in the comparison
	Level      float64 // threshold, volts
	RisingEdge bool    // true fires above Level, false below
}

// Policy is a consistent snapshot of the shared acquisition settings, taken
// once per decode pass.
type Policy struct {
	Channels   [NumChannels]bool
	Trigger    TriggerConfig
	Generation uint64
}

// ChannelActive reports whether samples on the given channel pass the gate.
// Out-of-range channels are inactive.
func (p Policy) ChannelActive(channel int) bool {
	if channel < 0 || channel >= NumChannels {
		return false
	}
	return p.Channels[channel]
}

// Settings holds the mutable acquisition policy shared between the worker and
// the configuration surface. Updates and snapshots hold the lock only long
// enough to copy the fields.
type Settings struct {
	mu       sync.Mutex
	channels [NumChannels]bool
	trigger  TriggerConfig
	gen      uint64
}

// NewSettings creates settings with channel 0 active and the trigger disabled.
func NewSettings() *Settings {
	var s Settings
	s.channels[0] = true
	return &s
}

// SetActiveChannels applies the requested channel set after normalization:
// only the MaxActiveChannels lowest-indexed requested channels are kept, the
// rest are silently dropped.
func (s *Settings) SetActiveChannels(requested [NumChannels]bool) {
	normalized := NormalizeChannels(requested)

	s.mu.Lock()
	s.channels = normalized
	s.gen++
	s.mu.Unlock()
}

// ConfigureTrigger replaces the trigger policy wholesale. Reconfiguring bumps
// the settings generation, which closes the trigger gate on the worker side.
func (s *Settings) ConfigureTrigger(cfg TriggerConfig) {
	s.mu.Lock()
	s.trigger = cfg
	s.gen++
	s.mu.Unlock()
}

// Snapshot returns a consistent copy of the current policy.
func (s *Settings) Snapshot() Policy {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Policy{
		Channels:   s.channels,
		Trigger:    s.trigger,
		Generation: s.gen,
	}
}

// NormalizeChannels keeps the MaxActiveChannels lowest-indexed requested
// channels. Requesting more than the limit is not an error.
func NormalizeChannels(requested [NumChannels]bool) [NumChannels]bool {
	var out [NumChannels]bool

	active := 0
	for i, on := range requested {
		if on && active < MaxActiveChannels {
			out[i] = true
			active++
		}
	}
	return out
}
