package task

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"

	"github.com/sweeney/taskcore/internal/queue"
)

// Actuator applies one command message to hardware.
type Actuator[T any] interface {
	Actuate(ctx context.Context, msg T) error
}

// ActuatorFunc adapts a function into an Actuator.
type ActuatorFunc[T any] func(ctx context.Context, msg T) error

// Actuate implements Actuator.
func (f ActuatorFunc[T]) Actuate(ctx context.Context, msg T) error {
	return f(ctx, msg)
}

// DrainConfig configures a Drain.
type DrainConfig struct {
	Name string

	// Timeout bounds each wait on the queue so Idle can run with no
	// commands pending. queue.Forever waits indefinitely.
	Timeout time.Duration

	// Settle is a pause after each actuation, letting the hardware settle
	// before the next command is applied.
	Settle time.Duration

	// Idle runs after a receive timed out. Optional.
	Idle func(ctx context.Context)
}

// Drain consumes a command queue and applies every message to an actuator.
type Drain[T any] struct {
	cfg DrainConfig
	q   *queue.Queue[T]
	act Actuator[T]
	counters
}

// NewDrain creates a drain of q into act.
func NewDrain[T any](cfg DrainConfig, q *queue.Queue[T], act Actuator[T]) *Drain[T] {
	if cfg.Timeout == 0 {
		cfg.Timeout = queue.Forever
	}
	return &Drain[T]{cfg: cfg, q: q, act: act}
}

// Name implements Named.
func (d *Drain[T]) Name() string { return d.cfg.Name }

// Stats implements StatsReporter.
func (d *Drain[T]) Stats() Stats { return d.snapshot(d.cfg.Name) }

// Cycle waits for one message and applies it.
// A failed actuation is logged and counted, not returned: the drain carries
// on with the next message. Only a cancelled context or a closed queue ends
// the drain.
func (d *Drain[T]) Cycle(ctx context.Context) error {
	msg, ok, err := d.q.Receive(ctx, d.cfg.Timeout)
	if err != nil {
		return err
	}
	if !ok {
		d.skipped.Add(1)
		if d.cfg.Idle != nil {
			d.cfg.Idle(ctx)
		}
		return nil
	}

	d.cycles.Add(1)
	if err := d.act.Actuate(ctx, msg); err != nil {
		d.errors.Add(1)
		glog.Errorf("%s: actuate %+v: %v", d.cfg.Name, msg, err)
	}
	return nil
}

// Run implements Runnable. It returns nil once the queue is closed and drained.
func (d *Drain[T]) Run(ctx context.Context) error {
	var settle *time.Timer
	if d.cfg.Settle > 0 {
		settle = time.NewTimer(d.cfg.Settle)
		stopTimer(settle)
		defer settle.Stop()
	}
	for {
		if err := d.Cycle(ctx); err != nil {
			if errors.Is(err, queue.ErrClosed) {
				return nil
			}
			return err
		}
		if settle == nil {
			continue
		}
		settle.Reset(d.cfg.Settle)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-settle.C:
		}
	}
}

// stopTimer stops t and drains a pending fire so Reset starts clean.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
