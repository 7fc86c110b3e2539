// Package task implements the periodic producer, renderer and drain tasks
// that share state through cells and queues.
//
// Every task exposes Cycle (exactly one iteration, used by tests and by the
// loops), RunTicks (iterate on an injected tick channel) and Run (iterate on
// a real ticker). Faults stay inside the task that hit them: a failing cycle
// is logged and counted, and the next tick runs as usual.
package task

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/golang/glog"
)

// Runnable is a long-running task.
type Runnable interface {
	Run(ctx context.Context) error
}

// Named is implemented by tasks that report a name.
type Named interface {
	Name() string
}

// StatsReporter is implemented by tasks that expose counters.
type StatsReporter interface {
	Stats() Stats
}

// Schedule fixes how often a periodic task runs.
// A cycle starting more than Period+Jitter after the previous one counts as
// an overrun.
type Schedule struct {
	Period time.Duration
	Jitter time.Duration
}

func (s Schedule) late(elapsed time.Duration) bool {
	return elapsed > s.Period+s.Jitter
}

// Stats is a snapshot of a task's counters.
type Stats struct {
	Name        string
	Cycles      uint64 // completed cycles; delivered messages for a drain
	Skipped     uint64 // renders skipped as unchanged; idle receives for a drain
	Faults      uint64 // rejected samples
	Errors      uint64 // failed outputs or actuations
	Overruns    uint64 // cycles that started late
	Consecutive uint64 // current run of consecutive faults
}

// counters backs Stats. Written by the task goroutine, read by anyone.
type counters struct {
	cycles      atomic.Uint64
	skipped     atomic.Uint64
	faults      atomic.Uint64
	errors      atomic.Uint64
	overruns    atomic.Uint64
	consecutive atomic.Uint64
}

func (c *counters) snapshot(name string) Stats {
	return Stats{
		Name:        name,
		Cycles:      c.cycles.Load(),
		Skipped:     c.skipped.Load(),
		Faults:      c.faults.Load(),
		Errors:      c.errors.Load(),
		Overruns:    c.overruns.Load(),
		Consecutive: c.consecutive.Load(),
	}
}

// runTicks calls cycle once per tick until ctx is done.
func runTicks(ctx context.Context, name string, sched Schedule, tick <-chan time.Time, c *counters, cycle func(context.Context) error) error {
	var last time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-tick:
			if !last.IsZero() && sched.late(now.Sub(last)) {
				c.overruns.Add(1)
				glog.V(1).Infof("%s: cycle started %v late", name, now.Sub(last)-sched.Period)
			}
			last = now
			// Cycle has already logged and counted its own failure.
			_ = cycle(ctx)
		}
	}
}

// runEvery runs cycle immediately and then on every period until ctx is done.
func runEvery(ctx context.Context, name string, sched Schedule, c *counters, cycle func(context.Context) error) error {
	if sched.Period <= 0 {
		return errNoPeriod(name)
	}
	_ = cycle(ctx)
	ticker := time.NewTicker(sched.Period)
	defer ticker.Stop()
	return runTicks(ctx, name, sched, ticker.C, c, cycle)
}
