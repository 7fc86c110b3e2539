package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/taskcore/internal/logic"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	BootID        string       `json:"boot_id"`
	Ready         bool         `json:"ready"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	Toggle        string       `json:"toggle"`
	Counter       CounterJSON  `json:"counter"`
	Climate       ClimateJSON  `json:"climate"`
	Servo         int          `json:"servo"`
	Button        ButtonJSON   `json:"button"`
	Tasks         []TaskJSON   `json:"tasks"`
	Queues        []QueueJSON  `json:"queues"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// CounterJSON is the JSON representation of the counter.
type CounterJSON struct {
	Value   uint32 `json:"value"`
	Running bool   `json:"running"`
}

// ClimateJSON is the JSON representation of a reading.
// Values are null until the first valid sample.
type ClimateJSON struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	HeatIndex   *float64 `json:"heat_index"`
	Degraded    bool     `json:"degraded"`
}

// NewClimateJSON converts a reading, mapping an invalid one to nulls.
func NewClimateJSON(r logic.Reading) ClimateJSON {
	if !r.Valid() {
		return ClimateJSON{}
	}
	t, h, hi := r.Temperature, r.Humidity, r.HeatIndex()
	return ClimateJSON{Temperature: &t, Humidity: &h, HeatIndex: &hi}
}

// ButtonJSON reports debounced edge counts.
type ButtonJSON struct {
	Accepted uint64 `json:"accepted"`
	Rejected uint64 `json:"rejected"`
}

// TaskJSON is the JSON representation of task counters.
type TaskJSON struct {
	Name        string `json:"name"`
	Cycles      uint64 `json:"cycles"`
	Skipped     uint64 `json:"skipped"`
	Faults      uint64 `json:"faults"`
	Errors      uint64 `json:"errors"`
	Overruns    uint64 `json:"overruns"`
	Consecutive uint64 `json:"consecutive_faults"`
}

// QueueJSON is the JSON representation of queue counters.
type QueueJSON struct {
	Name      string `json:"name"`
	Pending   int    `json:"pending"`
	Capacity  int    `json:"capacity"`
	Submitted uint64 `json:"submitted"`
	Dropped   uint64 `json:"dropped"`
	Delivered uint64 `json:"delivered"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	DebounceMs      int64  `json:"debounce_ms"`
	CounterPeriodMs int64  `json:"counter_period_ms"`
	ClimatePeriodMs int64  `json:"climate_period_ms"`
	QueueCapacity   int    `json:"queue_capacity"`
	Broker          string `json:"broker"`
	HTTPPort        string `json:"http_port"`
	Codec           string `json:"codec"`
	MDNS            string `json:"mdns,omitempty"`
}

// OnOff renders a boolean as "ON" or "OFF".
func OnOff(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	climate := NewClimateJSON(snap.State.Climate)
	climate.Degraded = snap.State.ClimateDegraded

	inner := StatusInner{
		BootID:        snap.BootID,
		Ready:         snap.Ready,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		Toggle:        OnOff(snap.State.Toggle),
		Counter:       CounterJSON{Value: snap.State.Counter.Value, Running: snap.State.Counter.Running},
		Climate:       climate,
		Servo:         int(snap.State.Servo),
		Button:        ButtonJSON{Accepted: snap.Edges.Accepted, Rejected: snap.Edges.Rejected},
		Tasks:         make([]TaskJSON, 0, len(snap.Tasks)),
		Queues:        make([]QueueJSON, 0, len(snap.Queues)),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			DebounceMs:      snap.Config.DebounceMs,
			CounterPeriodMs: snap.Config.CounterPeriodMs,
			ClimatePeriodMs: snap.Config.ClimatePeriodMs,
			QueueCapacity:   snap.Config.QueueCapacity,
			Broker:          snap.Config.Broker,
			HTTPPort:        snap.Config.HTTPPort,
			Codec:           snap.Config.Codec,
			MDNS:            snap.Config.MDNS,
		},
	}
	for _, ts := range snap.Tasks {
		inner.Tasks = append(inner.Tasks, TaskJSON{
			Name:        ts.Name,
			Cycles:      ts.Cycles,
			Skipped:     ts.Skipped,
			Faults:      ts.Faults,
			Errors:      ts.Errors,
			Overruns:    ts.Overruns,
			Consecutive: ts.Consecutive,
		})
	}
	for _, qs := range snap.Queues {
		inner.Queues = append(inner.Queues, QueueJSON{
			Name:      qs.Name,
			Pending:   qs.Pending,
			Capacity:  qs.Capacity,
			Submitted: qs.Submitted,
			Dropped:   qs.Dropped,
			Delivered: qs.Delivered,
		})
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
