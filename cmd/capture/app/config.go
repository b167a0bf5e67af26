package app

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roman-kulish/adc-capture/internal/adc"
)

const (
	// EdgeRising is the default trigger edge
	EdgeRising  TriggerEdge = "rising"
	EdgeFalling TriggerEdge = "falling"

	defaultBaudRate     = 1_000_000
	defaultReadTimeout  = 100 * time.Millisecond
	defaultPollInterval = 250 * time.Millisecond
	defaultMaxBatchSize = 100
)

var validTriggerEdges = map[TriggerEdge]struct{}{
	EdgeRising:  {},
	EdgeFalling: {},
}

type TriggerEdge string

func (e TriggerEdge) String() string {
	return string(e)
}

type TimeDuration time.Duration

func (d *TimeDuration) UnmarshalYAML(value *yaml.Node) error {
	duration, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("app.TimeDuration: failed to parse: %s", err)
	}

	*d = TimeDuration(duration)
	return nil
}

func (d TimeDuration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d TimeDuration) Validate() error {
	if time.Duration(d) <= 0 {
		return fmt.Errorf("app.TimeDuration: must be positive: %s", time.Duration(d))
	}
	return nil
}

// Config represents the main application configuration
type Config struct {
	Settings  Settings        `yaml:"settings"`
	Serial    SerialConfig    `yaml:"serial"`
	Capture   CaptureConfig   `yaml:"capture"`
	Recording RecordingConfig `yaml:"recording"`
	Storage   StorageConfig   `yaml:"storage"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// SerialConfig describes the instrument transport
type SerialConfig struct {
	Device      string       `yaml:"device"`
	BaudRate    int          `yaml:"baudRate"`
	ReadTimeout TimeDuration `yaml:"readTimeout"`
}

// CaptureConfig holds channel selection, trigger policy and display settings
type CaptureConfig struct {
	Channels        []int         `yaml:"channels"` // 0-based channel indices
	DisplayCapacity int           `yaml:"displayCapacity"`
	PollInterval    TimeDuration  `yaml:"pollInterval"`
	Trigger         TriggerConfig `yaml:"trigger"`
}

// TriggerConfig is the edge trigger section
type TriggerConfig struct {
	Enabled bool        `yaml:"enabled"`
	Channel int         `yaml:"channel"`
	Level   float64     `yaml:"level"`
	Edge    TriggerEdge `yaml:"edge"`
}

// RecordingConfig controls the CSV recording sink
type RecordingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// StorageConfig represents the sqlite archive settings
type StorageConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DataDirectory string `yaml:"dataDirectory"`
	MaxBatchSize  int    `yaml:"maxBatchSize"`
}

// LoadConfig reads, validates and normalizes a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	config.applyDefaults()
	if err = config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = defaultBaudRate
	}
	if c.Serial.ReadTimeout == 0 {
		c.Serial.ReadTimeout = TimeDuration(defaultReadTimeout)
	}
	if c.Capture.DisplayCapacity == 0 {
		c.Capture.DisplayCapacity = adc.DefaultDisplayCapacity
	}
	if c.Capture.PollInterval == 0 {
		c.Capture.PollInterval = TimeDuration(defaultPollInterval)
	}
	if len(c.Capture.Channels) == 0 {
		c.Capture.Channels = []int{0}
	}
	if c.Capture.Trigger.Edge == "" {
		c.Capture.Trigger.Edge = EdgeRising
	}
	if c.Storage.MaxBatchSize == 0 {
		c.Storage.MaxBatchSize = defaultMaxBatchSize
	}
}

func (c *Config) Validate() error {
	if c.Serial.Device == "" {
		return fmt.Errorf("app.Config: serial device is required")
	}
	if err := c.Serial.ReadTimeout.Validate(); err != nil {
		return fmt.Errorf("app.Config: invalid read timeout: %w", err)
	}
	if err := c.Capture.PollInterval.Validate(); err != nil {
		return fmt.Errorf("app.Config: invalid poll interval: %w", err)
	}
	if c.Capture.DisplayCapacity < 0 {
		return fmt.Errorf("app.Config: display capacity must be positive: %d", c.Capture.DisplayCapacity)
	}

	for _, ch := range c.Capture.Channels {
		if ch < 0 || ch >= adc.NumChannels {
			return fmt.Errorf("app.Config: invalid channel index: %d, must be between 0 and %d", ch, adc.NumChannels-1)
		}
	}

	if _, ok := validTriggerEdges[c.Capture.Trigger.Edge]; !ok {
		return fmt.Errorf("app.Config: invalid trigger edge: %s", c.Capture.Trigger.Edge)
	}
	if ch := c.Capture.Trigger.Channel; ch < 0 || ch >= adc.NumChannels {
		return fmt.Errorf("app.Config: invalid trigger channel: %d, must be between 0 and %d", ch, adc.NumChannels-1)
	}

	if c.Recording.Enabled && c.Recording.Path == "" {
		return fmt.Errorf("app.Config: recording path is required when recording is enabled")
	}

	return nil
}

// channelSet converts the configured channel list to the four boolean flags
// the settings intake expects. Over-subscription is normalized downstream.
func (c *CaptureConfig) channelSet() [adc.NumChannels]bool {
	var set [adc.NumChannels]bool
	for _, ch := range c.Channels {
		set[ch] = true
	}
	return set
}

func (t *TriggerConfig) toPolicy() adc.TriggerConfig {
	return adc.TriggerConfig{
		Enabled:    t.Enabled,
		Channel:    t.Channel,
		Level:      t.Level,
		RisingEdge: t.Edge == EdgeRising,
	}
}
