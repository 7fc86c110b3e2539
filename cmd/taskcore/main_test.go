package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/sweeney/taskcore/internal/config"
	"github.com/sweeney/taskcore/internal/mqtt"
	"github.com/sweeney/taskcore/internal/status"
)

// TestEnvVarNames verifies the env var constants match what pi-helper writes
// to /run/pi-helper.env. If pi-helper changes its var names, this test fails
// and we update the constants, not the other way around.
func TestEnvVarNames(t *testing.T) {
	want := map[string]string{
		"NETWORK_TYPE":        envNetworkType,
		"NETWORK_IP":          envNetworkIP,
		"NETWORK_STATUS":      envNetworkStatus,
		"NETWORK_GATEWAY":     envNetworkGateway,
		"NETWORK_WIFI_STATUS": envNetworkWifiStatus,
		"NETWORK_WIFI_SSID":   envNetworkWifiSSID,
	}
	for canonical, got := range want {
		if got != canonical {
			t.Errorf("env var constant: got %q, want %q", got, canonical)
		}
	}
}

func TestReadNetworkInfoAllSet(t *testing.T) {
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.100")
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "connected")
	t.Setenv(envNetworkWifiSSID, "MyNetwork")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo")
	}
	want := status.NetworkInfo{
		Type:       "wifi",
		IP:         "192.168.1.100",
		Status:     "connected",
		Gateway:    "192.168.1.1",
		WifiStatus: "connected",
		SSID:       "MyNetwork",
	}
	if *info != want {
		t.Errorf("got %+v, want %+v", *info, want)
	}
}

func TestReadNetworkInfoNoneSet(t *testing.T) {
	t.Setenv(envNetworkStatus, "")
	if info := readNetworkInfo(); info != nil {
		t.Errorf("expected nil when NETWORK_STATUS is unset, got %+v", info)
	}
}

func TestReadNetworkInfoPartial(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkIP, "")

	info := readNetworkInfo()
	if info == nil {
		t.Fatal("expected non-nil NetworkInfo when NETWORK_STATUS is set")
	}
	if info.Status != "connected" {
		t.Errorf("Status: got %q, want %q", info.Status, "connected")
	}
	if info.IP != "" {
		t.Errorf("IP: got %q, want empty", info.IP)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taskcore.yaml")
	data := []byte("http:\n  addr: \":8080\"\nmqtt:\n  broker: tcp://file:1883\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path, "", "", false)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":8080" || cfg.MQTT.Broker != "tcp://file:1883" {
		t.Errorf("file values not applied: %+v %+v", cfg.HTTP, cfg.MQTT)
	}

	cfg, err = loadConfig(path, ":9090", "tcp://flag:1883", true)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.HTTP.Addr != ":9090" {
		t.Errorf("HTTP.Addr: got %q, want :9090", cfg.HTTP.Addr)
	}
	if cfg.MQTT.Broker != "tcp://flag:1883" {
		t.Errorf("MQTT.Broker: got %q", cfg.MQTT.Broker)
	}
	if !cfg.Simulate || cfg.Climate.Source != "sim" {
		t.Errorf("simulate flag not applied: simulate=%v source=%q", cfg.Simulate, cfg.Climate.Source)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), "", "", false); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestSimulatedHardware(t *testing.T) {
	cfg := config.Default()
	cfg.Simulate = true
	cfg.Climate.Source = "sim"

	hw, err := newHardware(cfg)
	if err != nil {
		t.Fatalf("newHardware: %v", err)
	}
	if hw.Button != nil {
		t.Error("simulation has no button")
	}
	if hw.ToggleLED == nil || hw.BlinkSlow == nil || hw.BlinkFast == nil {
		t.Error("expected LED switches")
	}
	if hw.Sampler == nil || hw.Display == nil || hw.RGB == nil || hw.Servo == nil {
		t.Error("expected sampler, display and actuators")
	}
	if hw.Publisher != nil {
		t.Error("no broker configured, expected no publisher")
	}
	if len(hw.Closers) != 5 {
		t.Errorf("Closers: got %d, want 5", len(hw.Closers))
	}
}

func TestDisplayNone(t *testing.T) {
	cfg := config.Default()
	cfg.Display.Kind = "none"
	if d := newDisplay(cfg); d != nil {
		t.Errorf("expected no display, got %T", d)
	}
}

// --- runLoop tests ---

// fakeClock returns a function that yields start, start+step, start+2*step, ...
// on successive calls. Not safe for concurrent use (only called from runLoop's goroutine).
func fakeClock(start time.Time, step time.Duration) func() time.Time {
	n := 0
	return func() time.Time {
		t := start.Add(time.Duration(n) * step)
		n++
		return t
	}
}

type loopEnv struct {
	pub       *mqtt.FakePublisher
	tracker   *status.Tracker
	refreshes int
	heartbeat chan time.Time
	sig       chan os.Signal
	done      chan error
}

func newLoopEnv() *loopEnv {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return &loopEnv{
		pub:       mqtt.NewFakePublisher(),
		tracker:   status.NewTracker(start, "boot-1", status.Config{Broker: "tcp://192.168.1.200:1883"}),
		heartbeat: make(chan time.Time, 4),
		sig:       make(chan os.Signal, 1),
		done:      make(chan error, 1),
	}
}

func (e *loopEnv) run(t *testing.T) error {
	t.Helper()
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Minute)
	result := make(chan error, 1)
	go func() {
		result <- runLoop(e.pub, e.tracker, func() { e.refreshes++ }, clock, e.heartbeat, e.sig, e.done)
	}()
	select {
	case err := <-result:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("runLoop did not return")
		return nil
	}
}

func decodeStatus(t *testing.T, payload []byte) status.StatusInner {
	t.Helper()
	var sj status.StatusJSON
	if err := json.Unmarshal(payload, &sj); err != nil {
		t.Fatalf("decode %s: %v", payload, err)
	}
	return sj.Status
}

func TestRunLoopShutdownSIGINT(t *testing.T) {
	env := newLoopEnv()
	env.sig <- syscall.SIGINT

	if err := env.run(t); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	events := env.pub.SystemEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 system event, got %d", len(events))
	}
	se := events[0]
	if se.Event != "SHUTDOWN" {
		t.Errorf("expected SHUTDOWN, got %q", se.Event)
	}
	if se.Reason != "SIGINT" {
		t.Errorf("expected reason SIGINT, got %q", se.Reason)
	}
	if !se.Retained {
		t.Error("expected Retained=true for SHUTDOWN")
	}
	st := decodeStatus(t, env.pub.SystemPayloads()[0])
	if st.Event != "SHUTDOWN" || st.Reason != "SIGINT" || st.BootID != "boot-1" {
		t.Errorf("payload: got event=%q reason=%q boot=%q", st.Event, st.Reason, st.BootID)
	}
	if env.refreshes != 1 {
		t.Errorf("refreshes: got %d, want 1", env.refreshes)
	}
}

func TestRunLoopShutdownSIGTERM(t *testing.T) {
	env := newLoopEnv()
	env.sig <- syscall.SIGTERM

	if err := env.run(t); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
	events := env.pub.SystemEvents()
	if len(events) != 1 || events[0].Reason != "SIGTERM" {
		t.Fatalf("expected one SHUTDOWN/SIGTERM event, got %+v", events)
	}
}

func TestRunLoopHeartbeatIncludesNetworkInfo(t *testing.T) {
	t.Setenv(envNetworkStatus, "connected")
	t.Setenv(envNetworkType, "wifi")
	t.Setenv(envNetworkIP, "192.168.1.42")
	t.Setenv(envNetworkGateway, "192.168.1.1")
	t.Setenv(envNetworkWifiStatus, "associated")
	t.Setenv(envNetworkWifiSSID, "HomeNet")

	env := newLoopEnv()
	env.heartbeat <- time.Time{}
	env.heartbeat <- time.Time{}
	go func() {
		// Let both heartbeats through before stopping.
		for len(env.heartbeat) > 0 {
			time.Sleep(time.Millisecond)
		}
		time.Sleep(10 * time.Millisecond)
		env.sig <- syscall.SIGTERM
	}()

	if err := env.run(t); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}

	events := env.pub.SystemEvents()
	payloads := env.pub.SystemPayloads()
	var beats int
	for i, se := range events {
		if se.Event != "HEARTBEAT" {
			continue
		}
		beats++
		if se.Retained {
			t.Error("HEARTBEAT should not be retained")
		}
		st := decodeStatus(t, payloads[i])
		if st.Network == nil {
			t.Fatal("HEARTBEAT payload missing network info")
		}
		if st.Network.IP != "192.168.1.42" || st.Network.SSID != "HomeNet" {
			t.Errorf("network: got %+v", st.Network)
		}
	}
	if beats != 2 {
		t.Errorf("heartbeats: got %d, want 2", beats)
	}
	if last := events[len(events)-1]; last.Event != "SHUTDOWN" {
		t.Errorf("last event: got %q, want SHUTDOWN", last.Event)
	}
}

func TestRunLoopPublishError(t *testing.T) {
	env := newLoopEnv()
	env.pub.PublishSystemError = errors.New("broker down")
	env.heartbeat <- time.Time{}
	go func() {
		for len(env.heartbeat) > 0 {
			time.Sleep(time.Millisecond)
		}
		time.Sleep(10 * time.Millisecond)
		env.sig <- syscall.SIGINT
	}()

	// Publish failures are logged, never fatal.
	if err := env.run(t); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}

func TestRunLoopTasksStopped(t *testing.T) {
	env := newLoopEnv()
	env.done <- errors.New("rgb: actuator gone")

	err := env.run(t)
	if err == nil {
		t.Fatal("expected error when the tasks stop on their own")
	}
	if len(env.pub.SystemEvents()) != 0 {
		t.Error("no SHUTDOWN event expected when the tasks fail")
	}
}

func TestRunLoopWithoutPublisher(t *testing.T) {
	sig := make(chan os.Signal, 1)
	sig <- syscall.SIGINT
	clock := fakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Second)

	if err := runLoop(nil, nil, func() {}, clock, nil, sig, nil); err != nil {
		t.Fatalf("runLoop returned error: %v", err)
	}
}
