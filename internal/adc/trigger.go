package adc

// TriggerState is the capture gate: with the trigger enabled, nothing passes
// until the configured edge condition is observed once, after which the gate
// latches open for the remainder of the connection. The gate is owned by the
// acquisition worker and created fresh per connection; reconfiguring the
// trigger closes it again.
type TriggerState struct {
	open bool
}

// Open reports whether the gate has latched open.
func (t *TriggerState) Open() bool {
	return t.open
}

// Reset closes the gate.
func (t *TriggerState) Reset() {
	t.open = false
}

// Evaluate applies the trigger policy to one channel-gated sample. It returns
// the sample with its effective trigger flag and whether the sample passes.
//
// With the trigger disabled the wire-level flag stands and every sample
// passes. With it enabled, a sample on the trigger channel has its flag
// recomputed from the level comparison, and a firing sample latches the gate
// open for all subsequent samples regardless of channel.
func (t *TriggerState) Evaluate(s Sample, cfg TriggerConfig) (Sample, bool) {
	if !cfg.Enabled {
		return s, true
	}

	if s.Channel == cfg.Channel {
		if cfg.RisingEdge {
			s.Trigger = s.Voltage > cfg.Level
		} else {
			s.Trigger = s.Voltage < cfg.Level
		}
		if s.Trigger {
			t.open = true
		}
	}

	return s, t.open
}
