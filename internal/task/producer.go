package task

import (
	"context"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/sweeney/taskcore/internal/cell"
)

// DefaultFaultThreshold is the number of consecutive faults tolerated before
// a producer reports that it is serving a stale value.
const DefaultFaultThreshold = 5

// Sampler acquires one input value. It may block or take variable time, so
// producers always call it outside any lock.
type Sampler[T any] interface {
	Sample(ctx context.Context) (T, error)
}

// SamplerFunc adapts a function into a Sampler.
type SamplerFunc[T any] func(ctx context.Context) (T, error)

// Sample implements Sampler.
func (f SamplerFunc[T]) Sample(ctx context.Context) (T, error) {
	return f(ctx)
}

// ProducerConfig configures a Producer.
type ProducerConfig[T any] struct {
	Name     string
	Schedule Schedule

	// Valid rejects samples that must not reach the cell (NaN readings).
	// Nil accepts every sample.
	Valid func(T) bool

	// FaultThreshold is the number of consecutive faults tolerated silently.
	// Zero means DefaultFaultThreshold.
	FaultThreshold int
}

// Producer samples a source on a fixed period and publishes valid samples
// into a cell. Faulty samples leave the previous value in place.
type Producer[T any] struct {
	cfg     ProducerConfig[T]
	sampler Sampler[T]
	cell    *cell.Cell[T]

	streak int // consecutive faults, task-local
	counters
}

// NewProducer creates a producer writing samples from s into c.
func NewProducer[T any](cfg ProducerConfig[T], s Sampler[T], c *cell.Cell[T]) *Producer[T] {
	if cfg.FaultThreshold <= 0 {
		cfg.FaultThreshold = DefaultFaultThreshold
	}
	return &Producer[T]{cfg: cfg, sampler: s, cell: c}
}

// Name implements Named.
func (p *Producer[T]) Name() string { return p.cfg.Name }

// Stats implements StatsReporter.
func (p *Producer[T]) Stats() Stats { return p.snapshot(p.cfg.Name) }

// Degraded reports whether the producer is past its fault threshold.
func (p *Producer[T]) Degraded() bool {
	return p.counters.consecutive.Load() > uint64(p.cfg.FaultThreshold)
}

// Cycle takes one sample and publishes it if valid.
func (p *Producer[T]) Cycle(ctx context.Context) error {
	p.cycles.Add(1)

	v, err := p.sampler.Sample(ctx)
	if err == nil && p.cfg.Valid != nil && !p.cfg.Valid(v) {
		err = ErrInvalidSample
	}
	if err != nil {
		p.fault(err)
		return fmt.Errorf("%s: sample: %w", p.cfg.Name, err)
	}

	if p.streak > p.cfg.FaultThreshold {
		glog.Infof("%s: recovered after %d consecutive faults", p.cfg.Name, p.streak)
	}
	p.streak = 0
	p.counters.consecutive.Store(0)

	p.cell.Write(v)
	return nil
}

func (p *Producer[T]) fault(err error) {
	p.faults.Add(1)
	p.streak++
	p.counters.consecutive.Store(uint64(p.streak))

	if p.streak > p.cfg.FaultThreshold {
		glog.Warningf("%s: %d consecutive faults, keeping last good value: %v", p.cfg.Name, p.streak, err)
		return
	}
	glog.V(1).Infof("%s: sample fault %d: %v", p.cfg.Name, p.streak, err)
}

// RunTicks runs one cycle per tick until ctx is done.
func (p *Producer[T]) RunTicks(ctx context.Context, tick <-chan time.Time) error {
	return runTicks(ctx, p.cfg.Name, p.cfg.Schedule, tick, &p.counters, p.Cycle)
}

// Run implements Runnable.
func (p *Producer[T]) Run(ctx context.Context) error {
	return runEvery(ctx, p.cfg.Name, p.cfg.Schedule, &p.counters, p.Cycle)
}

// Updater applies a read-modify-write step to a cell on a fixed period.
// The step runs under the cell lock, so it must be pure arithmetic.
type Updater[T any] struct {
	name  string
	sched Schedule
	cell  *cell.Cell[T]
	step  func(*T)
	counters
}

// NewUpdater creates an updater applying step to c every sched.Period.
func NewUpdater[T any](name string, sched Schedule, c *cell.Cell[T], step func(*T)) *Updater[T] {
	return &Updater[T]{name: name, sched: sched, cell: c, step: step}
}

// Name implements Named.
func (u *Updater[T]) Name() string { return u.name }

// Stats implements StatsReporter.
func (u *Updater[T]) Stats() Stats { return u.snapshot(u.name) }

// Cycle applies the step once.
func (u *Updater[T]) Cycle(ctx context.Context) error {
	u.cycles.Add(1)
	u.cell.Update(u.step)
	return nil
}

// RunTicks runs one cycle per tick until ctx is done.
func (u *Updater[T]) RunTicks(ctx context.Context, tick <-chan time.Time) error {
	return runTicks(ctx, u.name, u.sched, tick, &u.counters, u.Cycle)
}

// Run implements Runnable.
func (u *Updater[T]) Run(ctx context.Context) error {
	return runEvery(ctx, u.name, u.sched, &u.counters, u.Cycle)
}
