// Package app wires the shared cells, command queues and edge source to every
// periodic task, drain and request handler. Everything is built once in New;
// no task exists until construction has succeeded.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/sweeney/taskcore/internal/cell"
	"github.com/sweeney/taskcore/internal/config"
	"github.com/sweeney/taskcore/internal/display"
	"github.com/sweeney/taskcore/internal/logic"
	"github.com/sweeney/taskcore/internal/mqtt"
	"github.com/sweeney/taskcore/internal/queue"
	"github.com/sweeney/taskcore/internal/sensor"
	"github.com/sweeney/taskcore/internal/status"
	"github.com/sweeney/taskcore/internal/task"
	"github.com/sweeney/taskcore/internal/web"
)

// Hardware bundles the collaborators the tasks drive. Nil fields disable the
// tasks that need them.
type Hardware struct {
	// Button attaches the physical button to the edge source.
	Button func(src *logic.EdgeSource) (io.Closer, error)

	ToggleLED task.Switch
	BlinkSlow task.Switch
	BlinkFast task.Switch

	Sampler sensor.Sampler
	Display display.Display

	RGB   task.Actuator[logic.RGB]
	Servo task.Actuator[logic.Angle]

	// Publisher connects to the broker once the command queues exist, so
	// commands received over MQTT can be handed to them.
	Publisher func(cmds *mqtt.CommandHandler) (mqtt.Publisher, error)

	// Closers are released by Close in reverse order.
	Closers []io.Closer
}

// App is the explicit context shared by every task and handler.
type App struct {
	cfg config.Config
	hw  Hardware

	start   time.Time
	tracker *status.Tracker

	edges   *logic.EdgeSource
	toggle  *cell.Cell[bool]
	counter *cell.Cell[logic.CounterState]
	climate *cell.Cell[logic.Reading]
	servo   *cell.Cell[logic.Angle]

	rgbQueue   *queue.Queue[logic.RGB]
	servoQueue *queue.Queue[logic.Angle]

	hub      *web.Hub
	button   io.Closer
	pub      mqtt.Publisher
	producer *task.Producer[logic.Reading]

	runnables []task.Runnable
	reporters []task.StatsReporter
}

// New builds every cell, queue and task. Any failure is returned before a
// single task has started, and everything in hw is released.
func New(cfg config.Config, hw Hardware) (*App, error) {
	if err := cfg.Validate(); err != nil {
		closeAll(hw.Closers)
		return nil, err
	}
	a := &App{
		cfg:     cfg,
		hw:      hw,
		start:   time.Now(),
		edges:   logic.NewEdgeSource(cfg.Button.Debounce),
		toggle:  cell.New(false),
		counter: cell.New(logic.CounterState{Running: true}),
		// NaN until the first valid sample.
		climate: cell.New(logic.Reading{Temperature: math.NaN(), Humidity: math.NaN()}),
		servo:   cell.New(logic.MinAngle),
		hub:     web.NewHub(),
	}
	if err := a.init(); err != nil {
		a.Close()
		return nil, err
	}

	a.build()
	glog.Infof("app: %d tasks configured", len(a.runnables))
	return a, nil
}

func (a *App) init() error {
	var err error
	if a.rgbQueue, err = queue.New[logic.RGB](a.cfg.RGB.QueueCapacity); err != nil {
		return fmt.Errorf("rgb queue: %w", err)
	}
	if a.servoQueue, err = queue.New[logic.Angle](a.cfg.Servo.QueueCapacity); err != nil {
		return fmt.Errorf("servo queue: %w", err)
	}

	a.tracker = status.NewTracker(a.start, uuid.NewString(), a.statusConfig())

	if a.hw.Publisher != nil {
		codec, err := mqtt.CodecByName(a.cfg.MQTT.Codec)
		if err != nil {
			return err
		}
		cmds := mqtt.NewCommandHandler(mqtt.Topics{Prefix: a.cfg.MQTT.Prefix}, codec, a.rgbQueue, a.servoQueue)
		if a.pub, err = a.hw.Publisher(cmds); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if a.hw.Button != nil {
		if a.button, err = a.hw.Button(a.edges); err != nil {
			return fmt.Errorf("button: %w", err)
		}
	}
	return nil
}

func (a *App) statusConfig() status.Config {
	mdns := ""
	if a.cfg.MDNS.Enabled {
		mdns = a.cfg.MDNS.Instance
	}
	return status.Config{
		DebounceMs:      a.cfg.Button.Debounce.Milliseconds(),
		CounterPeriodMs: a.cfg.Counter.Period.Milliseconds(),
		ClimatePeriodMs: a.cfg.Climate.Period.Milliseconds(),
		QueueCapacity:   a.cfg.RGB.QueueCapacity,
		Broker:          a.cfg.MQTT.Broker,
		HTTPPort:        a.cfg.HTTP.Addr,
		Codec:           a.cfg.MQTT.Codec,
		MDNS:            mdns,
	}
}

// Tracker returns the status tracker.
func (a *App) Tracker() *status.Tracker { return a.tracker }

// Publisher returns the MQTT publisher, nil when MQTT is disabled.
func (a *App) Publisher() mqtt.Publisher { return a.pub }

// Edges returns the debounced edge source fed by the button.
func (a *App) Edges() *logic.EdgeSource { return a.edges }

// Runnables returns every task in start order.
func (a *App) Runnables() []task.Runnable {
	return append([]task.Runnable(nil), a.runnables...)
}

// Handles returns the shared values the web server needs.
func (a *App) Handles() web.Handles {
	return web.Handles{
		Tracker: a.tracker,
		Toggle:  a.toggle,
		Counter: a.counter,
		Climate: a.climate,
		RGB:     a.rgbQueue,
		Servo:   a.servoQueue,
		Hub:     a.hub,
		Start:   a.start,
	}
}

// Run starts every task and blocks until ctx is done and all have returned.
func (a *App) Run(ctx context.Context) error {
	r := task.NewRunner(ctx).Go(a.runnables...)
	a.Refresh()
	a.tracker.SetReady(true)
	glog.Infof("app: started %d tasks", len(a.runnables))
	err := r.Wait()
	a.tracker.SetReady(false)
	return err
}

// Refresh copies the current cell values and task, queue and edge counters
// into the status tracker.
func (a *App) Refresh() {
	a.tracker.SetState(status.State{
		Toggle:          a.toggle.Read(),
		Counter:         a.counter.Read(),
		Climate:         a.climate.Read(),
		ClimateDegraded: a.producer != nil && a.producer.Degraded(),
		Servo:           a.servo.Read(),
	})

	stats := make([]task.Stats, 0, len(a.reporters))
	for _, r := range a.reporters {
		stats = append(stats, r.Stats())
	}
	a.tracker.SetStats(stats, []status.QueueStats{
		{Name: "rgb", Stats: a.rgbQueue.Stats()},
		{Name: "servo", Stats: a.servoQueue.Stats()},
	}, a.edges.Stats())

	if cs, ok := a.pub.(mqtt.ConnectionStatus); ok {
		a.tracker.SetMQTTConnected(cs.IsConnected())
	}
}

// Close closes the command queues and releases the button, the publisher and
// the hardware, joining their errors.
func (a *App) Close() error {
	if a.rgbQueue != nil {
		a.rgbQueue.Close()
	}
	if a.servoQueue != nil {
		a.servoQueue.Close()
	}

	var errs []error
	if a.button != nil {
		errs = append(errs, a.button.Close())
	}
	if a.pub != nil {
		errs = append(errs, a.pub.Close())
	}
	errs = append(errs, closeAll(a.hw.Closers))
	return errors.Join(errs...)
}

// closeAll closes cs in reverse order.
func closeAll(cs []io.Closer) error {
	var errs []error
	for i := len(cs) - 1; i >= 0; i-- {
		errs = append(errs, cs[i].Close())
	}
	return errors.Join(errs...)
}
