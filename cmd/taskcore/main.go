// Command taskcore runs the button, LED, counter, climate and actuator tasks
// and serves them over HTTP and MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/physic"

	"github.com/sweeney/taskcore/internal/app"
	"github.com/sweeney/taskcore/internal/config"
	"github.com/sweeney/taskcore/internal/discovery"
	"github.com/sweeney/taskcore/internal/display"
	"github.com/sweeney/taskcore/internal/gpio"
	"github.com/sweeney/taskcore/internal/logic"
	"github.com/sweeney/taskcore/internal/mqtt"
	"github.com/sweeney/taskcore/internal/pwm"
	"github.com/sweeney/taskcore/internal/sensor"
	"github.com/sweeney/taskcore/internal/status"
	"github.com/sweeney/taskcore/internal/web"
)

const shutdownTimeout = 5 * time.Second

func main() {
	configPath := flag.String("config", "", "YAML configuration file (empty for defaults)")
	httpAddr := flag.String("http", "", "HTTP address, overrides the config file")
	broker := flag.String("broker", "", "MQTT broker address, overrides the config file")
	simulate := flag.Bool("simulate", false, "Run without hardware")
	printState := flag.Bool("print-state", false, "Print one sensor reading and exit")

	flag.Parse()
	defer glog.Flush()

	cfg, err := loadConfig(*configPath, *httpAddr, *broker, *simulate)
	if err != nil {
		glog.Exitf("fatal: %v", err)
	}
	if err := run(cfg, *printState); err != nil {
		glog.Exitf("fatal: %v", err)
	}
}

// loadConfig reads the file and applies the command-line overrides.
func loadConfig(path, httpAddr, broker string, simulate bool) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	if httpAddr != "" {
		cfg.HTTP.Addr = httpAddr
	}
	if broker != "" {
		cfg.MQTT.Broker = broker
	}
	if simulate {
		cfg.Simulate = true
		cfg.Climate.Source = "sim"
	}
	return cfg, nil
}

func run(cfg config.Config, printState bool) error {
	// Print state mode
	if printState {
		s, err := newSampler(cfg)
		if err != nil {
			return fmt.Errorf("init sensor: %w", err)
		}
		r, err := s.Sample(context.Background())
		if err != nil {
			return fmt.Errorf("read sensor: %w", err)
		}
		fmt.Printf("Temp: %.1f C, Hum: %.1f %%, HI: %.1f C\n", r.Temperature, r.Humidity, r.HeatIndex())
		return nil
	}

	hw, err := newHardware(cfg)
	if err != nil {
		return fmt.Errorf("init hardware: %w", err)
	}
	a, err := app.New(cfg, hw)
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			glog.Warningf("close: %v", err)
		}
	}()

	tracker := a.Tracker()
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	publisher := a.Publisher()

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	publishSystem(publisher, mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	})

	// Start HTTP server
	if cfg.HTTP.Addr != "" {
		srv := web.New(cfg.HTTP.Addr, a.Handles())
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				glog.Errorf("http server error: %v", err)
			}
		}()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				glog.Warningf("http server shutdown: %v", err)
			}
		}()
		glog.Infof("http server listening on %s", cfg.HTTP.Addr)

		if cfg.MDNS.Enabled {
			adv, err := advertise(cfg, snap.BootID)
			if err != nil {
				glog.Warningf("mdns: %v", err)
			} else {
				defer adv.Stop()
			}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	glog.Infof("started: simulate=%v broker=%q codec=%s heartbeat=%v",
		cfg.Simulate, cfg.MQTT.Broker, cfg.MQTT.Codec, cfg.MQTT.Heartbeat)

	var heartbeat <-chan time.Time
	if cfg.MQTT.Heartbeat > 0 {
		ticker := time.NewTicker(cfg.MQTT.Heartbeat)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	loopErr := runLoop(publisher, tracker, a.Refresh, time.Now, heartbeat, sigCh, done)
	cancel()
	if loopErr != nil {
		return loopErr
	}
	return <-done
}

// runLoop waits for a signal, a heartbeat tick or the tasks stopping on their
// own. Only the first two are normal.
func runLoop(publisher mqtt.Publisher, tracker *status.Tracker, refresh func(), now func() time.Time, heartbeat <-chan time.Time, sig <-chan os.Signal, done <-chan error) error {
	for {
		select {
		case s := <-sig:
			glog.Infof("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				refresh()
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			publishSystem(publisher, event)
			return nil

		case <-heartbeat:
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "HEARTBEAT",
			}
			if tracker != nil {
				refresh()
				// Refresh network info for heartbeat
				if net := readNetworkInfo(); net != nil {
					tracker.SetNetwork(net)
				}
				snap := tracker.Snapshot()
				glog.Infof("heartbeat: uptime=%v mqtt=%v", snap.Uptime().Truncate(time.Second), snap.MQTTConnected)
				event.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
			}
			publishSystem(publisher, event)

		case err := <-done:
			if err == nil {
				err = errors.New("tasks stopped")
			}
			return fmt.Errorf("run: %w", err)
		}
	}
}

// publishSystem publishes event if MQTT is enabled. Failures are logged only.
func publishSystem(publisher mqtt.Publisher, event mqtt.SystemEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.PublishSystem(event); err != nil {
		glog.Warningf("failed to publish %s event: %v", event.Event, err)
		return
	}
	glog.Infof("published %s event", event.Event)
}

func advertise(cfg config.Config, bootID string) (*discovery.Advertiser, error) {
	port, err := discovery.PortOf(cfg.HTTP.Addr)
	if err != nil {
		return nil, err
	}
	adv := discovery.NewAdvertiser(discovery.Config{
		Instance: cfg.MDNS.Instance,
		Service:  cfg.MDNS.Service,
		Domain:   cfg.MDNS.Domain,
	})
	txt := map[string]string{
		"path":    "/",
		"boot_id": bootID,
	}
	if err := adv.Start(port, txt); err != nil {
		return nil, err
	}
	return adv, nil
}

func newSampler(cfg config.Config) (sensor.Sampler, error) {
	if cfg.Climate.Source == "sim" {
		return sensor.NewSim(sensor.SimConfig{
			Seed:     time.Now().UnixNano(),
			NaNEvery: cfg.Climate.SimNaNEvery,
		}), nil
	}
	return sensor.NewIIO(cfg.Climate.Device)
}

func newDisplay(cfg config.Config) display.Display {
	if cfg.Display.Kind == "none" {
		return nil
	}
	return display.Log{Name: "lcd"}
}

func newPublisher(cfg config.Config) func(*mqtt.CommandHandler) (mqtt.Publisher, error) {
	if cfg.MQTT.Broker == "" {
		return nil
	}
	return func(cmds *mqtt.CommandHandler) (mqtt.Publisher, error) {
		codec, err := mqtt.CodecByName(cfg.MQTT.Codec)
		if err != nil {
			return nil, err
		}
		c, err := mqtt.NewClient(mqtt.ClientConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Topics:   mqtt.Topics{Prefix: cfg.MQTT.Prefix},
			Codec:    codec,
		}, cmds)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// newHardware opens every device named in cfg, or stands in recording fakes
// when simulating. On error everything opened so far is closed.
func newHardware(cfg config.Config) (hw app.Hardware, err error) {
	hw.Display = newDisplay(cfg)
	hw.Publisher = newPublisher(cfg)
	if hw.Sampler, err = newSampler(cfg); err != nil {
		return app.Hardware{}, fmt.Errorf("sensor: %w", err)
	}

	if cfg.Simulate {
		toggle, slow, fast := &gpio.FakeSwitch{}, &gpio.FakeSwitch{}, &gpio.FakeSwitch{}
		rgb, servo := &pwm.FakeRGB{}, &pwm.FakeServo{}
		hw.ToggleLED, hw.BlinkSlow, hw.BlinkFast = toggle, slow, fast
		hw.RGB, hw.Servo = rgb, servo
		hw.Closers = []io.Closer{toggle, slow, fast, rgb, servo}
		return hw, nil
	}

	defer func() {
		if err != nil {
			for i := len(hw.Closers) - 1; i >= 0; i-- {
				hw.Closers[i].Close()
			}
			hw = app.Hardware{}
		}
	}()

	chip, err := gpio.OpenChip(cfg.Button.Chip)
	if err != nil {
		return hw, err
	}
	hw.Closers = append(hw.Closers, chip)

	pin := cfg.Button.Pin
	hw.Button = func(src *logic.EdgeSource) (io.Closer, error) {
		b, err := chip.Button(pin, src)
		if err != nil {
			return nil, err
		}
		return b, nil
	}

	lines := make([]*gpio.Line, 0, 3)
	for _, offset := range []int{cfg.LEDs.TogglePin, cfg.LEDs.SlowPin, cfg.LEDs.FastPin} {
		l, err := chip.Output(offset)
		if err != nil {
			return hw, err
		}
		hw.Closers = append(hw.Closers, l)
		lines = append(lines, l)
	}
	hw.ToggleLED, hw.BlinkSlow, hw.BlinkFast = lines[0], lines[1], lines[2]

	rgb, err := pwm.OpenRGB(cfg.RGB.Red, cfg.RGB.Green, cfg.RGB.Blue, physic.Frequency(cfg.RGB.FrequencyHz)*physic.Hertz)
	if err != nil {
		return hw, err
	}
	hw.Closers = append(hw.Closers, rgb)
	hw.RGB = rgb

	servo, err := pwm.OpenServo(cfg.Servo.Pin, pwm.ServoConfig{
		MinPulse: cfg.Servo.MinPulse,
		MaxPulse: cfg.Servo.MaxPulse,
	})
	if err != nil {
		return hw, err
	}
	hw.Closers = append(hw.Closers, servo)
	hw.Servo = servo

	return hw, nil
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
