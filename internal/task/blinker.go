package task

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"
)

// Switch is a binary output such as an LED line.
type Switch interface {
	Set(on bool) error
}

// Blinker alternates a switch every period: on for one period, off for the next.
type Blinker struct {
	name  string
	sched Schedule
	out   Switch
	on    bool
	counters
}

// NewBlinker creates a blinker driving out.
func NewBlinker(name string, sched Schedule, out Switch) *Blinker {
	return &Blinker{name: name, sched: sched, out: out}
}

// Name implements Named.
func (b *Blinker) Name() string { return b.name }

// Stats implements StatsReporter.
func (b *Blinker) Stats() Stats { return b.snapshot(b.name) }

// Cycle flips the output. On failure the logical state is kept so the next
// cycle retries the same level.
func (b *Blinker) Cycle(ctx context.Context) error {
	next := !b.on
	if err := b.out.Set(next); err != nil {
		b.errors.Add(1)
		glog.Errorf("%s: set %v: %v", b.name, next, err)
		return fmt.Errorf("%s: set: %w", b.name, err)
	}
	b.on = next
	b.cycles.Add(1)
	return nil
}

// RunTicks runs one cycle per tick until ctx is done.
func (b *Blinker) RunTicks(ctx context.Context, tick <-chan time.Time) error {
	return runTicks(ctx, b.name, b.sched, tick, &b.counters, b.Cycle)
}

// Run implements Runnable.
func (b *Blinker) Run(ctx context.Context) error {
	return runEvery(ctx, b.name, b.sched, &b.counters, b.Cycle)
}
