package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestDefaultMatchesSchedules(t *testing.T) {
	cfg := Default()
	tests := []struct {
		name string
		got  time.Duration
		want time.Duration
	}{
		{"debounce", cfg.Button.Debounce, 200 * time.Millisecond},
		{"slow blink", cfg.LEDs.SlowPeriod, time.Second},
		{"fast blink", cfg.LEDs.FastPeriod, 250 * time.Millisecond},
		{"toggle display", cfg.Display.TogglePeriod, 50 * time.Millisecond},
		{"counter", cfg.Counter.Period, 100 * time.Millisecond},
		{"climate", cfg.Climate.Period, 2 * time.Second},
		{"climate display", cfg.Climate.DisplayPeriod, 500 * time.Millisecond},
		{"broadcast", cfg.Climate.BroadcastPeriod, time.Second},
		{"rgb settle", cfg.RGB.Settle, 20 * time.Millisecond},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if cfg.RGB.QueueCapacity != 5 {
		t.Errorf("rgb queue capacity: got %d, want 5", cfg.RGB.QueueCapacity)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTP.Addr != ":80" {
		t.Errorf("expected defaults, got http addr %q", cfg.HTTP.Addr)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskcore.yaml")
	data := `
simulate: true
http:
  addr: ":8080"
mqtt:
  broker: tcp://broker:1883
  codec: cbor
button:
  debounce: 150ms
climate:
  source: sim
  sim_nan_every: 7
rgb:
  queue_capacity: 8
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.Simulate {
		t.Error("simulate should be true")
	}
	if cfg.HTTP.Addr != ":8080" {
		t.Errorf("http addr: got %q", cfg.HTTP.Addr)
	}
	if cfg.MQTT.Codec != "cbor" || cfg.MQTT.Broker != "tcp://broker:1883" {
		t.Errorf("mqtt: got %+v", cfg.MQTT)
	}
	if cfg.Button.Debounce != 150*time.Millisecond {
		t.Errorf("debounce: got %v", cfg.Button.Debounce)
	}
	if cfg.Climate.SimNaNEvery != 7 || cfg.Climate.Source != "sim" {
		t.Errorf("climate: got %+v", cfg.Climate)
	}
	if cfg.RGB.QueueCapacity != 8 {
		t.Errorf("rgb capacity: got %d", cfg.RGB.QueueCapacity)
	}
	// Untouched fields keep their defaults.
	if cfg.Counter.Period != 100*time.Millisecond {
		t.Errorf("counter period: got %v", cfg.Counter.Period)
	}
	if cfg.RGB.Settle != 20*time.Millisecond {
		t.Errorf("rgb settle: got %v", cfg.RGB.Settle)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("http: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidateReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.RGB.QueueCapacity = 0
	cfg.Counter.Period = 0
	cfg.MQTT.Codec = "xml"

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	for _, want := range []string{"rgb.queue_capacity", "counter.period", "mqtt.codec"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error should mention %s: %v", want, err)
		}
	}
}

func TestValidateServoPulseRange(t *testing.T) {
	cfg := Default()
	cfg.Servo.MinPulse = 2 * time.Millisecond
	cfg.Servo.MaxPulse = time.Millisecond
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for inverted pulse range")
	}
}
