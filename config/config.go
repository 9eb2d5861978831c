// Package config loads the peer and tracker's YAML configuration, mirroring
// the teacher's pattern of optional fields as pointers with documented
// defaults and a Print() that logs the resolved values at startup.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Location is the announcer's statically configured city/lat/lng, resolving
// §9's Open Question "the announcer's location fields are hard-coded ...
// move to configuration".
type Location struct {
	City string  `yaml:"city"`
	Lat  float64 `yaml:"lat"`
	Lng  float64 `yaml:"lng"`
}

// MQTTBridge configures the built-in Extension handler that republishes
// extension payloads to an MQTT broker (SPEC_FULL.md §B).
type MQTTBridge struct {
	Enabled     bool   `yaml:"enabled"`
	BrokerURL   string `yaml:"broker_url"`
	Topic       string `yaml:"topic"`
	ExtensionID uint64 `yaml:"extension_id"`
}

// Monitor configures the debug websocket feed (SPEC_FULL.md §B). It is
// observability tooling, not part of the peer-to-peer wire protocol.
type Monitor struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Config is a peer process's full configuration.
type Config struct {
	Name string `yaml:"name"`

	BindHost string `yaml:"bind_host"`
	BindPort int    `yaml:"bind_port"`

	TrackerHost string `yaml:"tracker_host"`
	TrackerPort int    `yaml:"tracker_port"`

	// MaxIncoming bounds advertised available-incoming capacity (default 2
	// per §6's CLI description).
	MaxIncoming *int `yaml:"max_incoming"`

	// AnnounceIntervalSeconds overrides the announcer's fixed-5s period
	// (§9: "a configurable period is an extension point"). Stored as plain
	// seconds, matching the teacher's RefreshMS convention of keeping
	// YAML-facing duration fields as integers and converting with
	// time.Duration(...) * time.Second at the call site.
	AnnounceIntervalSeconds *int `yaml:"announce_interval_seconds"`

	Location Location `yaml:"location"`

	MQTT    MQTTBridge `yaml:"mqtt_bridge"`
	Monitor Monitor    `yaml:"monitor"`
}

// TrackerConfig is the tracker service's configuration.
type TrackerConfig struct {
	BindHost string `yaml:"bind_host"`
	BindPort int    `yaml:"bind_port"`

	// SampleSize bounds how many entries the tracker returns to a new
	// joiner (§4.9's "N is a configured bound").
	SampleSize *int `yaml:"sample_size"`
}

const (
	defaultMaxIncoming             = 2
	defaultAnnounceIntervalSeconds = 5
	defaultTrackerSampleSize       = 10
)

// AnnounceInterval returns the configured announce period as a
// time.Duration.
func (c *Config) AnnounceInterval() time.Duration {
	return time.Duration(*c.AnnounceIntervalSeconds) * time.Second
}

// Load reads and parses a peer config file, filling in documented defaults
// for any field the file omits.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.MaxIncoming == nil {
		v := defaultMaxIncoming
		cfg.MaxIncoming = &v
	}
	if cfg.AnnounceIntervalSeconds == nil {
		v := defaultAnnounceIntervalSeconds
		cfg.AnnounceIntervalSeconds = &v
	}
	return &cfg, nil
}

// LoadTracker reads and parses a tracker config file.
func LoadTracker(path string) (*TrackerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg TrackerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.SampleSize == nil {
		v := defaultTrackerSampleSize
		cfg.SampleSize = &v
	}
	return &cfg, nil
}

// Print logs the resolved configuration, matching the teacher's practice
// of echoing startup configuration for operators.
func (c *Config) Print() {
	log.Printf("config: name=%s bind=%s:%d tracker=%s:%d max_incoming=%d announce_interval=%s location=%s(%.4f,%.4f)",
		c.Name, c.BindHost, c.BindPort, c.TrackerHost, c.TrackerPort,
		*c.MaxIncoming, c.AnnounceInterval().String(), c.Location.City, c.Location.Lat, c.Location.Lng)
	if c.MQTT.Enabled {
		log.Printf("config: mqtt extension bridge enabled broker=%s topic=%s extension_id=%d", c.MQTT.BrokerURL, c.MQTT.Topic, c.MQTT.ExtensionID)
	}
	if c.Monitor.Enabled {
		log.Printf("config: debug monitor enabled listen=%s", c.Monitor.ListenAddr)
	}
}

// Print logs the tracker's resolved configuration.
func (c *TrackerConfig) Print() {
	log.Printf("tracker config: bind=%s:%d sample_size=%d", c.BindHost, c.BindPort, *c.SampleSize)
}
