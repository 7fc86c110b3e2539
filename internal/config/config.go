// Package config loads the daemon configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the complete daemon configuration.
type Config struct {
	// Simulate runs without hardware: a simulated sensor, log display and
	// recording actuators.
	Simulate bool `yaml:"simulate"`

	HTTP     HTTPConfig     `yaml:"http"`
	MDNS     MDNSConfig     `yaml:"mdns"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Button   ButtonConfig   `yaml:"button"`
	LEDs     LEDConfig      `yaml:"leds"`
	Counter  CounterConfig  `yaml:"counter"`
	Climate  ClimateConfig  `yaml:"climate"`
	RGB      RGBConfig      `yaml:"rgb"`
	Servo    ServoConfig    `yaml:"servo"`
	Display  DisplayConfig  `yaml:"display"`
	Drain    DrainConfig    `yaml:"drain"`
	Schedule ScheduleConfig `yaml:"schedule"`
}

// HTTPConfig configures the web server.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // empty disables
}

// MDNSConfig configures service advertisement.
type MDNSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Instance string `yaml:"instance"` // empty uses the hostname
	Service  string `yaml:"service"`
	Domain   string `yaml:"domain"`
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker    string        `yaml:"broker"` // empty disables
	ClientID  string        `yaml:"client_id"`
	Prefix    string        `yaml:"prefix"`
	Codec     string        `yaml:"codec"` // json or cbor
	Heartbeat time.Duration `yaml:"heartbeat"`
}

// ButtonConfig configures the toggle button.
type ButtonConfig struct {
	Chip     string        `yaml:"chip"`
	Pin      int           `yaml:"pin"`
	Debounce time.Duration `yaml:"debounce"`
	Poll     time.Duration `yaml:"poll"` // fallback period of the toggle follower
}

// LEDConfig configures the digital LEDs.
type LEDConfig struct {
	TogglePin  int           `yaml:"toggle_pin"`
	SlowPin    int           `yaml:"slow_pin"`
	FastPin    int           `yaml:"fast_pin"`
	SlowPeriod time.Duration `yaml:"slow_period"`
	FastPeriod time.Duration `yaml:"fast_period"`
}

// CounterConfig configures the start/stop counter.
type CounterConfig struct {
	Period        time.Duration `yaml:"period"`
	Modulus       uint32        `yaml:"modulus"`
	DisplayPeriod time.Duration `yaml:"display_period"`
}

// ClimateConfig configures the temperature/humidity sensor.
type ClimateConfig struct {
	Source          string        `yaml:"source"` // iio or sim
	Device          string        `yaml:"device"` // IIO device directory
	Period          time.Duration `yaml:"period"`
	FaultThreshold  int           `yaml:"fault_threshold"`
	Epsilon         float64       `yaml:"epsilon"`
	DisplayPeriod   time.Duration `yaml:"display_period"`
	BroadcastPeriod time.Duration `yaml:"broadcast_period"`
	SimNaNEvery     int           `yaml:"sim_nan_every"`
}

// RGBConfig configures the RGB LED and its command queue.
type RGBConfig struct {
	QueueCapacity int           `yaml:"queue_capacity"`
	Settle        time.Duration `yaml:"settle"`
	Red           string        `yaml:"red"`
	Green         string        `yaml:"green"`
	Blue          string        `yaml:"blue"`
	FrequencyHz   int           `yaml:"frequency_hz"`
}

// ServoConfig configures the servo and its command queue.
type ServoConfig struct {
	QueueCapacity int           `yaml:"queue_capacity"`
	Pin           string        `yaml:"pin"`
	MinPulse      time.Duration `yaml:"min_pulse"`
	MaxPulse      time.Duration `yaml:"max_pulse"`
}

// DisplayConfig configures the character display.
type DisplayConfig struct {
	Kind         string        `yaml:"kind"` // log or none
	Rows         int           `yaml:"rows"`
	Width        int           `yaml:"width"`
	TogglePeriod time.Duration `yaml:"toggle_period"`
}

// DrainConfig configures the command drain tasks.
type DrainConfig struct {
	// Timeout bounds each wait on a command queue; 0 waits forever.
	Timeout time.Duration `yaml:"timeout"`
}

// ScheduleConfig holds settings shared by every periodic task.
type ScheduleConfig struct {
	Jitter       time.Duration `yaml:"jitter"`
	Housekeeping time.Duration `yaml:"housekeeping"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{Addr: ":80"},
		MDNS: MDNSConfig{
			Service: "_http._tcp",
			Domain:  "local.",
		},
		MQTT: MQTTConfig{
			Prefix:    "taskcore",
			Codec:     "json",
			Heartbeat: 15 * time.Minute,
		},
		Button: ButtonConfig{
			Chip:     "gpiochip0",
			Pin:      17,
			Debounce: 200 * time.Millisecond,
			Poll:     50 * time.Millisecond,
		},
		LEDs: LEDConfig{
			TogglePin:  27,
			SlowPin:    22,
			FastPin:    23,
			SlowPeriod: 1000 * time.Millisecond,
			FastPeriod: 250 * time.Millisecond,
		},
		Counter: CounterConfig{
			Period:        100 * time.Millisecond,
			Modulus:       10000,
			DisplayPeriod: 100 * time.Millisecond,
		},
		Climate: ClimateConfig{
			Source:          "iio",
			Device:          "/sys/bus/iio/devices/iio:device0",
			Period:          2000 * time.Millisecond,
			FaultThreshold:  5,
			Epsilon:         0.1,
			DisplayPeriod:   500 * time.Millisecond,
			BroadcastPeriod: 1000 * time.Millisecond,
		},
		RGB: RGBConfig{
			QueueCapacity: 5,
			Settle:        20 * time.Millisecond,
			Red:           "GPIO12",
			Green:         "GPIO13",
			Blue:          "GPIO19",
			FrequencyHz:   5000,
		},
		Servo: ServoConfig{
			QueueCapacity: 5,
			Pin:           "GPIO18",
			MinPulse:      500 * time.Microsecond,
			MaxPulse:      2400 * time.Microsecond,
		},
		Display: DisplayConfig{
			Kind:         "log",
			Rows:         6,
			Width:        16,
			TogglePeriod: 50 * time.Millisecond,
		},
		Drain: DrainConfig{
			Timeout: 1 * time.Second,
		},
		Schedule: ScheduleConfig{
			Jitter:       10 * time.Millisecond,
			Housekeeping: 1 * time.Second,
		},
	}
}

// Load reads path over the defaults and validates the result.
// An empty path returns the validated defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := Parse(data, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML data over cfg. Fields absent from data keep their value.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	periods := map[string]time.Duration{
		"button.debounce":          c.Button.Debounce,
		"button.poll":              c.Button.Poll,
		"leds.slow_period":         c.LEDs.SlowPeriod,
		"leds.fast_period":         c.LEDs.FastPeriod,
		"counter.period":           c.Counter.Period,
		"counter.display_period":   c.Counter.DisplayPeriod,
		"climate.period":           c.Climate.Period,
		"climate.display_period":   c.Climate.DisplayPeriod,
		"climate.broadcast_period": c.Climate.BroadcastPeriod,
		"display.toggle_period":    c.Display.TogglePeriod,
		"schedule.housekeeping":    c.Schedule.Housekeeping,
	}
	for _, name := range sortedKeys(periods) {
		check(periods[name] > 0, "%s must be positive, got %v", name, periods[name])
	}

	check(c.Counter.Modulus >= 2, "counter.modulus must be at least 2, got %d", c.Counter.Modulus)
	check(c.Climate.Source == "iio" || c.Climate.Source == "sim", "climate.source must be iio or sim, got %q", c.Climate.Source)
	check(c.Climate.FaultThreshold > 0, "climate.fault_threshold must be positive, got %d", c.Climate.FaultThreshold)
	check(c.Climate.Epsilon >= 0, "climate.epsilon must not be negative, got %v", c.Climate.Epsilon)
	check(c.RGB.QueueCapacity >= 1, "rgb.queue_capacity must be at least 1, got %d", c.RGB.QueueCapacity)
	check(c.RGB.FrequencyHz > 0, "rgb.frequency_hz must be positive, got %d", c.RGB.FrequencyHz)
	check(c.Servo.QueueCapacity >= 1, "servo.queue_capacity must be at least 1, got %d", c.Servo.QueueCapacity)
	check(c.Servo.MinPulse > 0 && c.Servo.MinPulse < c.Servo.MaxPulse, "servo pulse range %v..%v is empty", c.Servo.MinPulse, c.Servo.MaxPulse)
	check(c.Display.Kind == "log" || c.Display.Kind == "none", "display.kind must be log or none, got %q", c.Display.Kind)
	check(c.Display.Rows >= 6, "display.rows must be at least 6, got %d", c.Display.Rows)
	check(c.Drain.Timeout >= 0, "drain.timeout must not be negative, got %v", c.Drain.Timeout)
	check(c.Schedule.Jitter >= 0, "schedule.jitter must not be negative, got %v", c.Schedule.Jitter)
	check(c.MQTT.Codec == "json" || c.MQTT.Codec == "cbor", "mqtt.codec must be json or cbor, got %q", c.MQTT.Codec)
	check(c.MQTT.Heartbeat >= 0, "mqtt.heartbeat must not be negative, got %v", c.MQTT.Heartbeat)

	return errors.Join(errs...)
}
