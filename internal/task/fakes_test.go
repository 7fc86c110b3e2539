package task

import (
	"context"
	"sync"
)

// recordingOutput records every rendered value.
type recordingOutput[T any] struct {
	mu     sync.Mutex
	values []T
	err    error
}

func (o *recordingOutput[T]) Render(ctx context.Context, v T) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.err != nil {
		return o.err
	}
	o.values = append(o.values, v)
	return nil
}

func (o *recordingOutput[T]) calls() []T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]T(nil), o.values...)
}

func (o *recordingOutput[T]) setErr(err error) {
	o.mu.Lock()
	o.err = err
	o.mu.Unlock()
}

// recordingActuator records every actuated message, failing on demand.
type recordingActuator[T any] struct {
	mu     sync.Mutex
	msgs   []T
	failOn func(T) error
	got    chan T
}

func newRecordingActuator[T any]() *recordingActuator[T] {
	return &recordingActuator[T]{got: make(chan T, 64)}
}

func (a *recordingActuator[T]) Actuate(ctx context.Context, msg T) error {
	a.mu.Lock()
	a.msgs = append(a.msgs, msg)
	fail := a.failOn
	a.mu.Unlock()
	a.got <- msg
	if fail != nil {
		return fail(msg)
	}
	return nil
}

func (a *recordingActuator[T]) messages() []T {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]T(nil), a.msgs...)
}

// scriptedSampler returns scripted results, repeating the last one.
type scriptedSampler[T any] struct {
	results []sampleResult[T]
	index   int
}

type sampleResult[T any] struct {
	value T
	err   error
}

func (s *scriptedSampler[T]) Sample(ctx context.Context) (T, error) {
	r := s.results[s.index]
	if s.index < len(s.results)-1 {
		s.index++
	}
	return r.value, r.err
}

// fakeSwitch records levels.
type fakeSwitch struct {
	levels []bool
	err    error
}

func (s *fakeSwitch) Set(on bool) error {
	if s.err != nil {
		return s.err
	}
	s.levels = append(s.levels, on)
	return nil
}
