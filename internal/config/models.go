package config

import (
	"fmt"
	"time"

	"github.com/muurk/dohome/internal/control"
	"github.com/muurk/dohome/internal/discovery"
)

// CurrentVersion is the config file format version
const CurrentVersion = 1

// Config represents the entire configuration file
type Config struct {
	Version   int               `yaml:"version" json:"version"`
	Discovery DiscoveryConfig   `yaml:"discovery" json:"discovery"`
	Control   ControlConfig     `yaml:"control" json:"control"`
	Aliases   map[string]string `yaml:"aliases,omitempty" json:"aliases,omitempty"` // Device or relay name -> display name
	MQTT      MQTTConfig        `yaml:"mqtt" json:"mqtt"`
	HTTP      HTTPConfig        `yaml:"http" json:"http"`
	Logging   LoggingConfig     `yaml:"logging" json:"logging"`
}

// DiscoveryConfig controls broadcast discovery
type DiscoveryConfig struct {
	BroadcastAddress string        `yaml:"broadcast_address" json:"broadcast_address"` // Probe destination; the default is replaced by the local /24
	Retry            int           `yaml:"retry" json:"retry"`                         // Rounds per discovery run
	Window           time.Duration `yaml:"window" json:"window"`                       // Listen window per round at startup
	OnDemandWindow   time.Duration `yaml:"on_demand_window" json:"on_demand_window"`   // Default window for host-triggered discovery (1s-60s)
}

// ControlConfig controls device exchanges
type ControlConfig struct {
	Timeout      time.Duration `yaml:"timeout" json:"timeout"`             // Per-exchange reply timeout
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"` // Switch status polling period
}

// MQTTConfig configures the Home Assistant MQTT bridge
type MQTTConfig struct {
	Enabled         bool   `yaml:"enabled" json:"enabled"`
	Broker          string `yaml:"broker" json:"broker"`                         // e.g. "tcp://localhost:1883"
	Username        string `yaml:"username,omitempty" json:"username,omitempty"` // Optional broker credentials
	Password        string `yaml:"password,omitempty" json:"password,omitempty"`
	ClientID        string `yaml:"client_id,omitempty" json:"client_id,omitempty"` // Random suffix is appended when empty
	TopicPrefix     string `yaml:"topic_prefix" json:"topic_prefix"`               // State and command topics
	DiscoveryPrefix string `yaml:"discovery_prefix" json:"discovery_prefix"`       // Home Assistant discovery topics
}

// HTTPConfig configures the local HTTP API
type HTTPConfig struct {
	Listen    string `yaml:"listen" json:"listen"`       // e.g. ":8091"; empty disables the API
	Advertise bool   `yaml:"advertise" json:"advertise"` // Announce the API over mDNS
}

// LoggingConfig configures the daemon logger
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`                   // debug, info, warn, error
	File       string `yaml:"file,omitempty" json:"file,omitempty"` // Optional rotating JSON log file
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty" json:"max_backups,omitempty"`
	Compress   bool   `yaml:"compress,omitempty" json:"compress,omitempty"`
}

// Default returns a configuration with every default applied
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Discovery: DiscoveryConfig{
			BroadcastAddress: discovery.DefaultBroadcastAddress,
			Retry:            discovery.DefaultRounds,
			Window:           discovery.DefaultWindow,
			OnDemandWindow:   discovery.DefaultOnDemandWindow,
		},
		Control: ControlConfig{
			Timeout:      control.DefaultTimeout,
			PollInterval: 1 * time.Second,
		},
		Aliases: make(map[string]string),
		MQTT: MQTTConfig{
			Broker:          "tcp://localhost:1883",
			TopicPrefix:     "dohome",
			DiscoveryPrefix: "homeassistant",
		},
		HTTP: HTTPConfig{
			Listen:    ":8091",
			Advertise: true,
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// applyDefaults fills zero values left by a partial file
func (c *Config) applyDefaults() {
	d := Default()
	if c.Discovery.BroadcastAddress == "" {
		c.Discovery.BroadcastAddress = d.Discovery.BroadcastAddress
	}
	if c.Discovery.Retry == 0 {
		c.Discovery.Retry = d.Discovery.Retry
	}
	if c.Discovery.Window == 0 {
		c.Discovery.Window = d.Discovery.Window
	}
	if c.Discovery.OnDemandWindow == 0 {
		c.Discovery.OnDemandWindow = d.Discovery.OnDemandWindow
	}
	if c.Control.Timeout == 0 {
		c.Control.Timeout = d.Control.Timeout
	}
	if c.Control.PollInterval == 0 {
		c.Control.PollInterval = d.Control.PollInterval
	}
	if c.Aliases == nil {
		c.Aliases = make(map[string]string)
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = d.MQTT.TopicPrefix
	}
	if c.MQTT.DiscoveryPrefix == "" {
		c.MQTT.DiscoveryPrefix = d.MQTT.DiscoveryPrefix
	}
	if c.MQTT.Broker == "" {
		c.MQTT.Broker = d.MQTT.Broker
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return fmt.Errorf("unsupported config version: %d (expected %d)", c.Version, CurrentVersion)
	}
	if c.Discovery.Retry < 1 {
		return fmt.Errorf("discovery.retry must be at least 1, got %d", c.Discovery.Retry)
	}
	if c.Discovery.Window <= 0 {
		return fmt.Errorf("discovery.window must be positive, got %s", c.Discovery.Window)
	}
	if c.Control.Timeout <= 0 {
		return fmt.Errorf("control.timeout must be positive, got %s", c.Control.Timeout)
	}
	if c.Control.PollInterval <= 0 {
		return fmt.Errorf("control.poll_interval must be positive, got %s", c.Control.PollInterval)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
	}
	return nil
}

// SetAlias sets a display name for a device or relay name
func (c *Config) SetAlias(name, alias string) {
	if c.Aliases == nil {
		c.Aliases = make(map[string]string)
	}
	if alias == "" {
		delete(c.Aliases, name)
		return
	}
	c.Aliases[name] = alias
}
