package app

import (
	"context"
	"time"

	"github.com/sweeney/taskcore/internal/cell"
	"github.com/sweeney/taskcore/internal/display"
	"github.com/sweeney/taskcore/internal/logic"
	"github.com/sweeney/taskcore/internal/mqtt"
	"github.com/sweeney/taskcore/internal/task"
	"github.com/sweeney/taskcore/internal/web"
)

// Display rows.
const (
	rowToggle  = 0 // two rows
	rowCounter = 2
	rowClimate = 3 // two rows
	rowServo   = 5
)

// State kinds published over MQTT.
const (
	kindToggle  = "toggle"
	kindCounter = "counter"
	kindClimate = "climate"
)

func (a *App) every(period time.Duration) task.Schedule {
	return task.Schedule{Period: period, Jitter: a.cfg.Schedule.Jitter}
}

func (a *App) add(r task.Runnable) {
	a.runnables = append(a.runnables, r)
	if sr, ok := r.(task.StatsReporter); ok {
		a.reporters = append(a.reporters, sr)
	}
}

// outputs drops the nil entries of outs.
func outputs[T any](outs ...task.Output[T]) task.Output[T] {
	var kept task.Outputs[T]
	for _, o := range outs {
		if o != nil {
			kept = append(kept, o)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

func switchOutput(s task.Switch) task.Output[bool] {
	if s == nil {
		return nil
	}
	return task.OutputFunc[bool](func(ctx context.Context, on bool) error {
		return s.Set(on)
	})
}

// validOnly skips readings that have no finite value to publish.
func validOnly(out task.Output[logic.Reading]) task.Output[logic.Reading] {
	return task.OutputFunc[logic.Reading](func(ctx context.Context, r logic.Reading) error {
		if !r.Valid() {
			return nil
		}
		return out.Render(ctx, r)
	})
}

func panelOf[T any](lines *display.LineRenderer, first int, format func(T) []string) task.Output[T] {
	if lines == nil {
		return nil
	}
	return display.NewPanel(lines, first, format)
}

func stateOutput[T any](pub mqtt.Publisher, kind string, payload func(T) any) task.Output[T] {
	if pub == nil {
		return nil
	}
	return mqtt.NewStateOutput(pub, kind, payload)
}

// addRenderer adds a renderer of c unless there is nothing to render to.
func addRenderer[T any](a *App, name string, period time.Duration, c *cell.Cell[T], out task.Output[T], equal func(x, y T) bool) {
	if out == nil {
		return
	}
	a.add(task.NewRenderer(name, a.every(period), c, out, equal))
}

func (a *App) build() {
	cfg := a.cfg
	hw := a.hw

	var lines *display.LineRenderer
	if hw.Display != nil {
		lines = display.NewLineRenderer(hw.Display, cfg.Display.Rows, cfg.Display.Width)
	}

	a.add(a.hub)

	// Button and LEDs.
	a.add(task.NewFollower("toggle-follower", a.every(cfg.Button.Poll), a.edges, a.toggle))
	addRenderer(a, "toggle", cfg.Display.TogglePeriod, a.toggle,
		outputs[bool](switchOutput(hw.ToggleLED), panelOf(lines, rowToggle, display.ToggleLines)),
		task.Equal[bool]())
	if hw.BlinkSlow != nil {
		a.add(task.NewBlinker("blink-slow", a.every(cfg.LEDs.SlowPeriod), hw.BlinkSlow))
	}
	if hw.BlinkFast != nil {
		a.add(task.NewBlinker("blink-fast", a.every(cfg.LEDs.FastPeriod), hw.BlinkFast))
	}

	// Counter.
	modulus := cfg.Counter.Modulus
	a.add(task.NewUpdater("counter", a.every(cfg.Counter.Period), a.counter, func(s *logic.CounterState) {
		logic.Step(s, modulus)
	}))
	addRenderer(a, "counter-display", cfg.Counter.DisplayPeriod, a.counter,
		panelOf(lines, rowCounter, display.CounterLines), task.Equal[logic.CounterState]())

	// Climate.
	if hw.Sampler != nil {
		a.producer = task.NewProducer[logic.Reading](task.ProducerConfig[logic.Reading]{
			Name:           "climate",
			Schedule:       a.every(cfg.Climate.Period),
			Valid:          logic.Reading.Valid,
			FaultThreshold: cfg.Climate.FaultThreshold,
		}, hw.Sampler, a.climate)
		a.add(a.producer)
	}
	same := logic.ReadingEqual(cfg.Climate.Epsilon)
	addRenderer(a, "climate-display", cfg.Climate.DisplayPeriod, a.climate,
		panelOf(lines, rowClimate, display.ClimateLines), same)
	var climatePub task.Output[logic.Reading]
	if out := stateOutput(a.pub, kindClimate, mqtt.Climate); out != nil {
		climatePub = validOnly(out)
	}
	addRenderer(a, "climate-broadcast", cfg.Climate.BroadcastPeriod, a.climate,
		outputs[logic.Reading](web.NewBroadcastOutput(a.hub, a.start), climatePub), same)

	// Retained state for MQTT subscribers.
	addRenderer(a, "toggle-publish", cfg.Schedule.Housekeeping, a.toggle,
		stateOutput(a.pub, kindToggle, mqtt.Toggle), task.Equal[bool]())
	addRenderer(a, "counter-publish", cfg.Schedule.Housekeeping, a.counter,
		stateOutput(a.pub, kindCounter, mqtt.Counter), task.Equal[logic.CounterState]())

	// Command drains.
	if hw.RGB != nil {
		a.add(task.NewDrain[logic.RGB](task.DrainConfig{
			Name:    "rgb",
			Timeout: cfg.Drain.Timeout,
			Settle:  cfg.RGB.Settle,
		}, a.rgbQueue, hw.RGB))
	}
	if hw.Servo != nil {
		servo := hw.Servo
		a.add(task.NewDrain[logic.Angle](task.DrainConfig{
			Name:    "servo",
			Timeout: cfg.Drain.Timeout,
		}, a.servoQueue, task.ActuatorFunc[logic.Angle](func(ctx context.Context, ang logic.Angle) error {
			if err := servo.Actuate(ctx, ang); err != nil {
				return err
			}
			a.servo.Write(ang)
			return nil
		})))
	}
	addRenderer(a, "servo-display", cfg.Counter.DisplayPeriod, a.servo,
		panelOf(lines, rowServo, display.ServoLines), task.Equal[logic.Angle]())

	a.add(task.NamedRun("housekeeping", task.RunFunc(a.housekeep)))
}

func (a *App) housekeep(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Schedule.Housekeeping)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.Refresh()
		}
	}
}
