package sensor

import (
	"context"
	"errors"
	"sync"

	"github.com/sweeney/taskcore/internal/logic"
)

// Result is one scripted sample.
type Result struct {
	Reading logic.Reading
	Err     error
}

// Fake is a test double that replays scripted results.
// Once exhausted it repeats the last result.
type Fake struct {
	mu      sync.Mutex
	results []Result
	index   int
	calls   int
}

// NewFake creates a fake sensor with the given results.
func NewFake(results ...Result) *Fake {
	return &Fake{results: results}
}

// Sample implements Sampler.
func (f *Fake) Sample(ctx context.Context) (logic.Reading, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if len(f.results) == 0 {
		return logic.Reading{}, errors.New("no results configured")
	}
	r := f.results[f.index]
	if f.index < len(f.results)-1 {
		f.index++
	}
	return r.Reading, r.Err
}

// Calls returns how many samples were taken.
func (f *Fake) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
