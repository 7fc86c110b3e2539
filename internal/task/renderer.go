package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/sweeney/taskcore/internal/cell"
)

// Output performs the slow side effect of a renderer (display write,
// network broadcast). It is always called outside the cell lock.
type Output[T any] interface {
	Render(ctx context.Context, v T) error
}

// OutputFunc adapts a function into an Output.
type OutputFunc[T any] func(ctx context.Context, v T) error

// Render implements Output.
func (f OutputFunc[T]) Render(ctx context.Context, v T) error {
	return f(ctx, v)
}

// Outputs renders to every output in order, continuing past failures.
type Outputs[T any] []Output[T]

// Render implements Output.
func (o Outputs[T]) Render(ctx context.Context, v T) error {
	var errs []error
	for _, out := range o {
		if err := out.Render(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Equal returns the == comparison for a comparable type.
func Equal[T comparable]() func(a, b T) bool {
	return func(a, b T) bool { return a == b }
}

// Renderer reads a cell on a fixed period and renders the value only when it
// differs from the last rendered snapshot.
//
// An Outputs fan-out keeps one snapshot per output: an output that failed is
// retried alone, the ones that succeeded are not driven again.
type Renderer[T any] struct {
	name  string
	sched Schedule
	cell  *cell.Cell[T]
	sinks []*sink[T]
	equal func(a, b T) bool

	counters
}

// sink is the task-local snapshot of what one output currently shows.
type sink[T any] struct {
	out      Output[T]
	last     T
	lastGen  uint64
	rendered bool
}

// NewRenderer creates a renderer of c into out. equal decides whether two
// values look the same on the output.
func NewRenderer[T any](name string, sched Schedule, c *cell.Cell[T], out Output[T], equal func(a, b T) bool) *Renderer[T] {
	r := &Renderer[T]{name: name, sched: sched, cell: c, equal: equal}
	if outs, ok := out.(Outputs[T]); ok {
		for _, o := range outs {
			r.sinks = append(r.sinks, &sink[T]{out: o})
		}
	} else if out != nil {
		r.sinks = []*sink[T]{{out: out}}
	}
	return r
}

// Name implements Named.
func (r *Renderer[T]) Name() string { return r.name }

// Stats implements StatsReporter.
func (r *Renderer[T]) Stats() Stats { return r.snapshot(r.name) }

// Cycle copies the current value out of the cell and renders it to every
// output whose snapshot differs. A failed render leaves that output's
// snapshot untouched so the next cycle retries it.
func (r *Renderer[T]) Cycle(ctx context.Context) error {
	cur := r.cell.Load()

	var (
		errs   []error
		wrote  bool
		failed bool
	)
	for _, s := range r.sinks {
		if s.rendered && (cur.Generation == s.lastGen || r.equal(s.last, cur.Value)) {
			s.lastGen = cur.Generation
			continue
		}
		if err := s.out.Render(ctx, cur.Value); err != nil {
			r.errors.Add(1)
			glog.Errorf("%s: render: %v", r.name, err)
			errs = append(errs, err)
			failed = true
			continue
		}
		s.last = cur.Value
		s.lastGen = cur.Generation
		s.rendered = true
		wrote = true
	}

	switch {
	case wrote:
		r.cycles.Add(1)
	case !failed:
		r.skipped.Add(1)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: render: %w", r.name, err)
	}
	return nil
}

// RunTicks runs one cycle per tick until ctx is done.
func (r *Renderer[T]) RunTicks(ctx context.Context, tick <-chan time.Time) error {
	return runTicks(ctx, r.name, r.sched, tick, &r.counters, r.Cycle)
}

// Run implements Runnable.
func (r *Renderer[T]) Run(ctx context.Context) error {
	return runEvery(ctx, r.name, r.sched, &r.counters, r.Cycle)
}
