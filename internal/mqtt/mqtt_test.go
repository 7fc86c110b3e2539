package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/taskcore/internal/logic"
)

func TestTopics(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Topics{}.System(), "taskcore/system"},
		{Topics{Prefix: "lab/bench"}.State("climate"), "lab/bench/state/climate"},
		{Topics{Prefix: "lab"}.CmdRGB(), "lab/cmd/rgb"},
		{Topics{Prefix: "lab"}.CmdServo(), "lab/cmd/servo"},
		{Topics{Prefix: "lab"}.CmdResult(), "lab/cmd/result"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestFormatSystemPayload(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed SystemPayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.System.Timestamp != "2026-02-03T10:30:45Z" {
		t.Errorf("unexpected timestamp: %s", parsed.System.Timestamp)
	}
	if parsed.System.Event != "SHUTDOWN" {
		t.Errorf("unexpected event: %s", parsed.System.Event)
	}
	if parsed.System.Reason != "SIGTERM" {
		t.Errorf("unexpected reason: %s", parsed.System.Reason)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.FixedZone("CET", 3600)),
		Event:     "OFFLINE",
		Reason:    "LWT",
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"system":{"timestamp":"2026-02-03T09:30:45Z","event":"OFFLINE","reason":"LWT"}}`
	if string(payload) != want {
		t.Errorf("got %s, want %s", payload, want)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"STARTUP"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "STARTUP", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload should pass through, got %s", payload)
	}
}

func TestFormatStatePayloadJSON(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	payload, err := FormatStatePayload(JSON, "climate", Climate(logic.Reading{Temperature: 24, Humidity: 40}), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed struct {
		Kind      string         `json:"kind"`
		Timestamp string         `json:"timestamp"`
		Value     ClimatePayload `json:"value"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Kind != "climate" || parsed.Timestamp != "2026-05-01T12:00:00Z" {
		t.Errorf("unexpected envelope: %+v", parsed)
	}
	if parsed.Value.Temperature != 24 || parsed.Value.Humidity != 40 {
		t.Errorf("unexpected value: %+v", parsed.Value)
	}
	if parsed.Value.HeatIndex < 23.4 || parsed.Value.HeatIndex > 23.6 {
		t.Errorf("unexpected heat index: %v", parsed.Value.HeatIndex)
	}
}

func TestCBORCodecRoundTrip(t *testing.T) {
	in := CounterPayload{Value: 42, Running: true}
	data, err := CBOR.Marshal(in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var out CounterPayload
	if err := CBOR.Unmarshal(data, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestCBORIsDeterministic(t *testing.T) {
	a, _ := CBOR.Marshal(map[string]int{"b": 2, "a": 1, "c": 3})
	b, _ := CBOR.Marshal(map[string]int{"c": 3, "a": 1, "b": 2})
	if string(a) != string(b) {
		t.Error("map encoding should not depend on iteration order")
	}
}

func TestCodecByName(t *testing.T) {
	for _, name := range []string{"", "json", "cbor"} {
		c, err := CodecByName(name)
		if err != nil {
			t.Fatalf("CodecByName(%q): %v", name, err)
		}
		if name != "" && c.Name() != name {
			t.Errorf("CodecByName(%q).Name() = %q", name, c.Name())
		}
	}
	if _, err := CodecByName("xml"); err == nil {
		t.Error("expected error for unknown codec")
	}
}

func TestStateOutput(t *testing.T) {
	pub := NewFakePublisher()
	out := NewStateOutput(pub, "toggle", Toggle)

	if err := out.Render(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	states := pub.States("toggle")
	if len(states) != 1 {
		t.Fatalf("expected 1 state, got %d", len(states))
	}
	if states[0].Value != (TogglePayload{State: "ON"}) {
		t.Errorf("unexpected value: %+v", states[0].Value)
	}
}

func TestStateOutputPassThrough(t *testing.T) {
	pub := NewFakePublisher()
	out := NewStateOutput[int](pub, "raw", nil)
	_ = out.Render(context.Background(), 5)
	if got := pub.States("raw"); len(got) != 1 || got[0].Value != 5 {
		t.Errorf("unexpected states: %+v", got)
	}
}

func TestStateOutputError(t *testing.T) {
	pub := NewFakePublisher()
	pub.PublishError = errors.New("broker down")
	out := NewStateOutput(pub, "counter", Counter)

	if err := out.Render(context.Background(), logic.CounterState{Value: 1}); err == nil {
		t.Error("expected error to be returned")
	}
}

func TestFakePublisherPublishSystem(t *testing.T) {
	f := NewFakePublisher()
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGINT",
		Retained:  true,
	}

	if err := f.PublishSystem(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	events := f.SystemEvents()
	if len(events) != 1 || !events[0].Retained {
		t.Fatalf("expected one retained event, got %+v", events)
	}
	if !strings.Contains(string(f.SystemPayloads()[0]), `"reason":"SIGINT"`) {
		t.Errorf("unexpected payload: %s", f.SystemPayloads()[0])
	}
}

func TestFakePublisherPublishSystemError(t *testing.T) {
	f := NewFakePublisher()
	f.PublishSystemError = errors.New("simulated error")

	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected error to be returned")
	}
	if len(f.SystemEvents()) != 0 {
		t.Error("failed publish must not be recorded")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	_ = f.PublishState("toggle", Toggle(false))
	_ = f.PublishSystem(SystemEvent{Event: "HEARTBEAT"})
	_ = f.Close()
	f.SetConnected(true)

	f.Reset()

	if len(f.States("")) != 0 || len(f.SystemEvents()) != 0 {
		t.Error("events should be cleared")
	}
	if f.Closed() || f.IsConnected() {
		t.Error("flags should be cleared")
	}
}
