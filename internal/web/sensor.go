package web

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"github.com/sweeney/taskcore/internal/logic"
)

// SensorEvent is the SSE event name for climate updates.
const SensorEvent = "sensor_data"

// ErrHubBusy is returned when a broadcast could not be queued.
var ErrHubBusy = errors.New("web: hub busy")

// SensorJSON is the JSON form of a reading, one decimal place.
// Fields are null until the first valid sample.
type SensorJSON struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	HeatIndex   *float64 `json:"heatindex"`
	Timestamp   int64    `json:"timestamp"` // ms since start
}

func round1(v float64) *float64 {
	r := math.Round(v*10) / 10
	return &r
}

// FormatSensor encodes r with its uptime timestamp.
func FormatSensor(r logic.Reading, uptime time.Duration) []byte {
	sj := SensorJSON{Timestamp: uptime.Milliseconds()}
	if r.Valid() {
		sj.Temperature = round1(r.Temperature)
		sj.Humidity = round1(r.Humidity)
		sj.HeatIndex = round1(r.HeatIndex())
	}
	data, _ := json.Marshal(sj)
	return data
}

// BroadcastOutput sends every rendered reading to the hub's live clients.
type BroadcastOutput struct {
	hub   *Hub
	start time.Time
	now   func() time.Time
}

// NewBroadcastOutput creates an output broadcasting on hub. Event ids and
// timestamps count milliseconds from start.
func NewBroadcastOutput(hub *Hub, start time.Time) *BroadcastOutput {
	return &BroadcastOutput{hub: hub, start: start, now: time.Now}
}

// Render broadcasts r.
func (o *BroadcastOutput) Render(ctx context.Context, r logic.Reading) error {
	up := o.now().Sub(o.start)
	if !o.hub.Broadcast(Message{Event: SensorEvent, ID: up.Milliseconds(), Data: FormatSensor(r, up)}) {
		return ErrHubBusy
	}
	return nil
}
