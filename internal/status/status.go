// Package status provides a thread-safe status tracker for the taskcore daemon.
// It is read by the HTTP handlers and the MQTT heartbeat.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/taskcore/internal/logic"
	"github.com/sweeney/taskcore/internal/queue"
	"github.com/sweeney/taskcore/internal/task"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	DebounceMs      int64
	CounterPeriodMs int64
	ClimatePeriodMs int64
	QueueCapacity   int
	Broker          string
	HTTPPort        string
	Codec           string
	MDNS            string // advertised instance name (empty = disabled)
}

// State is the current value of every shared cell.
type State struct {
	Toggle          bool
	Counter         logic.CounterState
	Climate         logic.Reading
	ClimateDegraded bool
	Servo           logic.Angle
}

// QueueStats names a queue's counters.
type QueueStats struct {
	Name string
	queue.Stats
}

// Snapshot is a copy of the tracked state taken under the read lock.
// Being a value type, it stays valid after the lock is released.
type Snapshot struct {
	BootID        string
	State         State
	Ready         bool
	Tasks         []task.Stats
	Queues        []QueueStats
	Edges         logic.EdgeStats
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds the diagnostics view of every task, queue and edge source.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time, boot id and config.
func NewTracker(startTime time.Time, bootID string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			BootID:    bootID,
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetState records the current cell values.
func (t *Tracker) SetState(s State) {
	t.mu.Lock()
	t.snap.State = s
	t.mu.Unlock()
}

// SetStats records task, queue and edge counters.
func (t *Tracker) SetStats(tasks []task.Stats, queues []QueueStats, edges logic.EdgeStats) {
	tasks = append([]task.Stats(nil), tasks...)
	queues = append([]QueueStats(nil), queues...)
	t.mu.Lock()
	t.snap.Tasks = tasks
	t.snap.Queues = queues
	t.snap.Edges = edges
	t.mu.Unlock()
}

// SetReady marks every task as started.
func (t *Tracker) SetReady(ready bool) {
	t.mu.Lock()
	t.snap.Ready = ready
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	// Setters replace the slices rather than mutating them, so sharing
	// the backing arrays with the copy is safe.
	s.Now = t.now()
	return s
}
