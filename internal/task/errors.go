package task

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSample marks a sample rejected by a producer's validity check.
	ErrInvalidSample = errors.New("task: invalid sample")

	// ErrNoPeriod is returned by Run for a periodic task without a period.
	ErrNoPeriod = errors.New("task: period must be positive")
)

func errNoPeriod(name string) error {
	return fmt.Errorf("%s: %w", name, ErrNoPeriod)
}
