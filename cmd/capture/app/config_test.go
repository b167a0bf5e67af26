package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/roman-kulish/adc-capture/internal/adc"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
serial:
  device: /dev/ttyUSB0
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Serial.BaudRate != defaultBaudRate {
		t.Errorf("BaudRate = %d, want %d", config.Serial.BaudRate, defaultBaudRate)
	}
	if time.Duration(config.Serial.ReadTimeout) != defaultReadTimeout {
		t.Errorf("ReadTimeout = %s, want %s", time.Duration(config.Serial.ReadTimeout), defaultReadTimeout)
	}
	if config.Capture.DisplayCapacity != adc.DefaultDisplayCapacity {
		t.Errorf("DisplayCapacity = %d, want %d", config.Capture.DisplayCapacity, adc.DefaultDisplayCapacity)
	}
	if time.Duration(config.Capture.PollInterval) != defaultPollInterval {
		t.Errorf("PollInterval = %s, want %s", time.Duration(config.Capture.PollInterval), defaultPollInterval)
	}
	if len(config.Capture.Channels) != 1 || config.Capture.Channels[0] != 0 {
		t.Errorf("Channels = %v, want [0]", config.Capture.Channels)
	}
	if config.Capture.Trigger.Edge != EdgeRising {
		t.Errorf("Trigger.Edge = %s, want %s", config.Capture.Trigger.Edge, EdgeRising)
	}
	if config.Storage.MaxBatchSize != defaultMaxBatchSize {
		t.Errorf("MaxBatchSize = %d, want %d", config.Storage.MaxBatchSize, defaultMaxBatchSize)
	}
}

func TestLoadConfig_FullDocument(t *testing.T) {
	path := writeConfig(t, `
settings:
  logLevel: DEBUG
serial:
  device: /dev/ttyACM1
  baudRate: 460800
  readTimeout: 250ms
capture:
  channels: [1, 3]
  displayCapacity: 256
  pollInterval: 100ms
  trigger:
    enabled: true
    channel: 1
    level: 2.5
    edge: falling
recording:
  enabled: true
  path: /tmp/capture.csv
storage:
  enabled: true
  dataDirectory: data
  maxBatchSize: 50
`)

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.Settings.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q, want DEBUG", config.Settings.LogLevel)
	}
	if config.Serial.BaudRate != 460800 {
		t.Errorf("BaudRate = %d, want 460800", config.Serial.BaudRate)
	}
	if time.Duration(config.Serial.ReadTimeout) != 250*time.Millisecond {
		t.Errorf("ReadTimeout = %s, want 250ms", time.Duration(config.Serial.ReadTimeout))
	}

	want := [adc.NumChannels]bool{false, true, false, true}
	if got := config.Capture.channelSet(); got != want {
		t.Errorf("channelSet() = %v, want %v", got, want)
	}

	policy := config.Capture.Trigger.toPolicy()
	if !policy.Enabled || policy.Channel != 1 || policy.Level != 2.5 || policy.RisingEdge {
		t.Errorf("unexpected trigger policy: %+v", policy)
	}

	if !config.Recording.Enabled || config.Recording.Path != "/tmp/capture.csv" {
		t.Errorf("unexpected recording config: %+v", config.Recording)
	}
	if !config.Storage.Enabled || config.Storage.MaxBatchSize != 50 {
		t.Errorf("unexpected storage config: %+v", config.Storage)
	}
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{
			name:   "missing device",
			config: "capture:\n  channels: [0]\n",
		},
		{
			name:   "channel out of range",
			config: "serial:\n  device: /dev/ttyUSB0\ncapture:\n  channels: [4]\n",
		},
		{
			name:   "negative channel",
			config: "serial:\n  device: /dev/ttyUSB0\ncapture:\n  channels: [-1]\n",
		},
		{
			name:   "bad trigger edge",
			config: "serial:\n  device: /dev/ttyUSB0\ncapture:\n  trigger:\n    edge: sideways\n",
		},
		{
			name:   "trigger channel out of range",
			config: "serial:\n  device: /dev/ttyUSB0\ncapture:\n  trigger:\n    channel: 7\n",
		},
		{
			name:   "recording without path",
			config: "serial:\n  device: /dev/ttyUSB0\nrecording:\n  enabled: true\n",
		},
		{
			name:   "negative display capacity",
			config: "serial:\n  device: /dev/ttyUSB0\ncapture:\n  displayCapacity: -5\n",
		},
		{
			name:   "bad read timeout",
			config: "serial:\n  device: /dev/ttyUSB0\n  readTimeout: nope\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.config)
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}
}
