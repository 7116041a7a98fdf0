package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `sim:
  map_width: 1024
  map_height: 640
  fleet_size: 20
  tick_interval_ms: 500
  px_to_km: 0.1
  seed: 42
vehicle_types:
  - name: "Economy"
    base_fare: 2.0
    per_km_rate: 0.8
    speed_kmh: 40
    color: "#4caf50"
metrics:
  prometheus_enabled: true
  prometheus_addr: ":9100"
mqtt:
  enabled: false
api:
  enabled: true
  addr: ":8081"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"map_width", cfg.Sim.MapWidth, 1024.0},
		{"map_height", cfg.Sim.MapHeight, 640.0},
		{"fleet_size", cfg.Sim.FleetSize, 20},
		{"tick_interval_ms", cfg.Sim.TickIntervalMS, 500},
		{"px_to_km", cfg.Sim.PxToKm, 0.1},
		{"seed", cfg.Sim.Seed, int64(42)},
		{"margin_default", cfg.Sim.Margin, 20.0},
		{"types", len(cfg.Types), 1},
		{"type_name", cfg.Types[0].Name, "Economy"},
		{"prom_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"prom_addr", cfg.Metrics.PrometheusAddr, ":9100"},
		{"api_addr", cfg.API.Addr, ":8081"},
		{"mqtt_topic_default", cfg.MQTT.Topic, "ridesim/fleet/snapshot"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: got %v want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("sim:\n  fleet_size: 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("RS_SIM__FLEET_SIZE", "9")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Sim.FleetSize != 9 {
		t.Fatalf("env override ignored: got %d", cfg.Sim.FleetSize)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadInvalidTypes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `vehicle_types:
  - name: "Economy"
    speed_kmh: 0
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for zero speed")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if len(cfg.Types) != 3 {
		t.Fatalf("expected 3 default types got %d", len(cfg.Types))
	}
	if cfg.Sim.TickInterval().Milliseconds() != 1000 {
		t.Fatalf("unexpected default tick interval")
	}
}
