package task

import (
	"context"
	"time"

	"github.com/sweeney/taskcore/internal/cell"
	"github.com/sweeney/taskcore/internal/logic"
)

// Follower copies the debounced toggle state into a cell.
// It wakes on the edge notification and also polls on its period, so a
// missed or collapsed notification is picked up within one period.
type Follower struct {
	name  string
	sched Schedule
	src   *logic.EdgeSource
	cell  *cell.Cell[bool]
	counters
}

// NewFollower creates a follower of src writing into c.
func NewFollower(name string, sched Schedule, src *logic.EdgeSource, c *cell.Cell[bool]) *Follower {
	return &Follower{name: name, sched: sched, src: src, cell: c}
}

// Name implements Named.
func (f *Follower) Name() string { return f.name }

// Stats implements StatsReporter.
func (f *Follower) Stats() Stats { return f.snapshot(f.name) }

// Cycle publishes the current toggle state if it changed.
func (f *Follower) Cycle(ctx context.Context) error {
	f.cycles.Add(1)
	on := f.src.State()
	// Sole writer of the cell, so read-then-write cannot race another writer.
	if f.cell.Read() == on {
		f.skipped.Add(1)
		return nil
	}
	f.cell.Write(on)
	return nil
}

// RunSignals runs a cycle on every notification or tick until ctx is done.
func (f *Follower) RunSignals(ctx context.Context, notify <-chan struct{}, tick <-chan time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-notify:
			_ = f.Cycle(ctx)
		case <-tick:
			_ = f.Cycle(ctx)
		}
	}
}

// Run implements Runnable.
func (f *Follower) Run(ctx context.Context) error {
	if f.sched.Period <= 0 {
		return errNoPeriod(f.name)
	}
	_ = f.Cycle(ctx)
	ticker := time.NewTicker(f.sched.Period)
	defer ticker.Stop()
	return f.RunSignals(ctx, f.src.Notify(), ticker.C)
}
