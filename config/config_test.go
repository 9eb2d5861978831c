package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "peer.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
name: A
bind_host: 127.0.0.1
bind_port: 4000
tracker_host: 127.0.0.1
tracker_port: 5000
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg.MaxIncoming != defaultMaxIncoming {
		t.Fatalf("got %d, want default %d", *cfg.MaxIncoming, defaultMaxIncoming)
	}
	if cfg.AnnounceInterval() != defaultAnnounceIntervalSeconds*time.Second {
		t.Fatalf("got %v, want default %ds", cfg.AnnounceInterval(), defaultAnnounceIntervalSeconds)
	}
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	path := writeConfig(t, `
name: A
bind_host: 127.0.0.1
bind_port: 4000
tracker_host: 127.0.0.1
tracker_port: 5000
max_incoming: 5
announce_interval_seconds: 10
location:
  city: Metropolis
  lat: 1.5
  lng: 2.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if *cfg.MaxIncoming != 5 {
		t.Fatalf("got %d, want 5", *cfg.MaxIncoming)
	}
	if cfg.AnnounceInterval() != 10*time.Second {
		t.Fatalf("got %v, want 10s", cfg.AnnounceInterval())
	}
	if cfg.Location.City != "Metropolis" {
		t.Fatalf("got %q, want Metropolis", cfg.Location.City)
	}
}

func TestLoadTrackerAppliesDefaultSampleSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracker.yaml")
	if err := os.WriteFile(path, []byte("bind_host: 0.0.0.0\nbind_port: 5000\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadTracker(path)
	if err != nil {
		t.Fatalf("LoadTracker: %v", err)
	}
	if *cfg.SampleSize != defaultTrackerSampleSize {
		t.Fatalf("got %d, want %d", *cfg.SampleSize, defaultTrackerSampleSize)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/path/peer.yaml"); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := writeConfig(t, "not: [valid yaml")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected a parse error")
	}
}

func TestMQTTBridgeFieldsParse(t *testing.T) {
	path := writeConfig(t, `
name: A
bind_host: 127.0.0.1
bind_port: 4000
tracker_host: 127.0.0.1
tracker_port: 5000
mqtt_bridge:
  enabled: true
  broker_url: tcp://localhost:1883
  topic: meshchat/extensions
  extension_id: 42
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.MQTT.Enabled || cfg.MQTT.Topic != "meshchat/extensions" || cfg.MQTT.ExtensionID != 42 {
		t.Fatalf("unexpected mqtt config: %+v", cfg.MQTT)
	}
}
