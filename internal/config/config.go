// Package config loads the deployment configuration for the airlock
// controller. All fields are optional; unset fields take documented
// defaults, so a missing file is a valid (all-defaults) deployment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/hatchway/airlock/internal/linkmux"
	"github.com/hatchway/airlock/internal/sampler"
)

// Config is the on-disk deployment configuration. Pointer fields
// distinguish "unset" from zero values so defaults only apply where the
// file is silent.
type Config struct {
	// Control loop
	CyclePeriod *string `json:"cycle_period,omitempty"` // duration string like "100ms"
	StuckCycles *int    `json:"stuck_cycles,omitempty"`

	// Sensor normalization. Polarity maps channel names (front, middle,
	// back, safety_a, safety_b, moving_a, moving_b) to "active_high" or
	// "active_low". Whether the installed detectors are level-sensing or
	// edge-toggling is a property of the hardware, so both are deployment
	// parameters.
	Polarity        map[string]string `json:"polarity,omitempty"`
	EdgeToggle      *bool             `json:"edge_toggle,omitempty"`
	SensorStaleness *string           `json:"sensor_staleness,omitempty"` // duration string

	// Hardware link
	Serial *linkmux.PortOptions `json:"serial,omitempty"`

	// Diagnostics
	DatabasePath *string `json:"database_path,omitempty"`
	Listen       *string `json:"listen,omitempty"`
}

// Load reads and validates a configuration file. A missing file returns an
// empty (all-defaults) configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *Config) Validate() error {
	if c.CyclePeriod != nil && *c.CyclePeriod != "" {
		if _, err := time.ParseDuration(*c.CyclePeriod); err != nil {
			return fmt.Errorf("invalid cycle_period %q: %w", *c.CyclePeriod, err)
		}
	}

	if c.SensorStaleness != nil && *c.SensorStaleness != "" {
		if _, err := time.ParseDuration(*c.SensorStaleness); err != nil {
			return fmt.Errorf("invalid sensor_staleness %q: %w", *c.SensorStaleness, err)
		}
	}

	if c.StuckCycles != nil && *c.StuckCycles < 1 {
		return fmt.Errorf("stuck_cycles must be positive, got %d", *c.StuckCycles)
	}

	for name, pol := range c.Polarity {
		if _, ok := sampler.ChannelByName(name); !ok {
			return fmt.Errorf("unknown polarity channel %q", name)
		}
		if pol != "active_high" && pol != "active_low" {
			return fmt.Errorf("polarity for %q must be active_high or active_low, got %q", name, pol)
		}
	}

	if c.Serial != nil {
		if _, err := c.Serial.Normalize(); err != nil {
			return err
		}
	}

	return nil
}

// GetCyclePeriod returns the control cycle period or the default.
func (c *Config) GetCyclePeriod() time.Duration {
	if c.CyclePeriod == nil || *c.CyclePeriod == "" {
		return 100 * time.Millisecond // default
	}
	d, err := time.ParseDuration(*c.CyclePeriod)
	if err != nil {
		return 100 * time.Millisecond // default on parse error
	}
	return d
}

// GetStuckCycles returns the stuck-transition threshold or the default.
func (c *Config) GetStuckCycles() int {
	if c.StuckCycles == nil {
		return 50 // default, ~5s at the default cycle period
	}
	return *c.StuckCycles
}

// GetSensorStaleness returns the staleness window or the default.
func (c *Config) GetSensorStaleness() time.Duration {
	if c.SensorStaleness == nil || *c.SensorStaleness == "" {
		return 500 * time.Millisecond // default: five cycles without a frame
	}
	d, err := time.ParseDuration(*c.SensorStaleness)
	if err != nil {
		return 500 * time.Millisecond // default on parse error
	}
	return d
}

// GetEdgeToggle returns the edge-toggle setting; level sensing is the
// default.
func (c *Config) GetEdgeToggle() bool {
	if c.EdgeToggle == nil {
		return false
	}
	return *c.EdgeToggle
}

// GetSerial returns the serial port options, normalized.
func (c *Config) GetSerial() linkmux.PortOptions {
	if c.Serial == nil {
		opts, _ := linkmux.PortOptions{}.Normalize()
		return opts
	}
	opts, _ := c.Serial.Normalize()
	return opts
}

// GetDatabasePath returns the event log path or the default.
func (c *Config) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return "airlock_events.db"
	}
	return *c.DatabasePath
}

// GetListen returns the diagnostics listen address or the default.
func (c *Config) GetListen() string {
	if c.Listen == nil || *c.Listen == "" {
		return ":8080"
	}
	return *c.Listen
}

// SamplerPolicy builds the sampler policy from the configuration.
func (c *Config) SamplerPolicy() sampler.Policy {
	policy := sampler.Policy{
		EdgeToggle: c.GetEdgeToggle(),
		Staleness:  c.GetSensorStaleness(),
	}
	for name, pol := range c.Polarity {
		ch, ok := sampler.ChannelByName(name)
		if !ok {
			continue // Validate rejects these; tolerated here
		}
		if pol == "active_low" {
			policy.Polarity[ch] = sampler.ActiveLow
		}
	}
	return policy
}
