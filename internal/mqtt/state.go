package mqtt

import (
	"context"

	"github.com/sweeney/taskcore/internal/logic"
)

// StateOutput publishes every rendered value of one kind of state.
type StateOutput[T any] struct {
	pub     Publisher
	kind    string
	payload func(T) any
}

// NewStateOutput creates an output publishing payload(v) as kind.
// A nil payload publishes the value as is.
func NewStateOutput[T any](pub Publisher, kind string, payload func(T) any) *StateOutput[T] {
	return &StateOutput[T]{pub: pub, kind: kind, payload: payload}
}

// Render publishes v.
func (o *StateOutput[T]) Render(ctx context.Context, v T) error {
	var value any = v
	if o.payload != nil {
		value = o.payload(v)
	}
	return o.pub.PublishState(o.kind, value)
}

// ClimatePayload is the published form of a reading.
type ClimatePayload struct {
	Temperature float64 `json:"temperature" cbor:"temperature"`
	Humidity    float64 `json:"humidity" cbor:"humidity"`
	HeatIndex   float64 `json:"heat_index" cbor:"heat_index"`
}

// Climate converts a reading for publishing.
func Climate(r logic.Reading) any {
	return ClimatePayload{
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		HeatIndex:   r.HeatIndex(),
	}
}

// TogglePayload is the published form of the toggle state.
type TogglePayload struct {
	State string `json:"state" cbor:"state"`
}

// Toggle converts the toggle state for publishing.
func Toggle(on bool) any {
	if on {
		return TogglePayload{State: "ON"}
	}
	return TogglePayload{State: "OFF"}
}

// CounterPayload is the published form of the counter.
type CounterPayload struct {
	Value   uint32 `json:"value" cbor:"value"`
	Running bool   `json:"running" cbor:"running"`
}

// Counter converts the counter state for publishing.
func Counter(s logic.CounterState) any {
	return CounterPayload{Value: s.Value, Running: s.Running}
}
