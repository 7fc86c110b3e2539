//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/taskcore/internal/logic"
)

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// Chip is not available on non-Linux platforms.
type Chip struct{}

// OpenChip returns an error on non-Linux platforms.
func OpenChip(name string) (*Chip, error) {
	return nil, errUnsupported
}

// Close is a no-op on non-Linux platforms.
func (c *Chip) Close() error { return nil }

// Button is not available on non-Linux platforms.
type Button struct{}

// Button returns an error on non-Linux platforms.
func (c *Chip) Button(offset int, src *logic.EdgeSource) (*Button, error) {
	return nil, errUnsupported
}

// Close is a no-op on non-Linux platforms.
func (b *Button) Close() error { return nil }

// Line is not available on non-Linux platforms.
type Line struct{}

// Output returns an error on non-Linux platforms.
func (c *Chip) Output(offset int) (*Line, error) {
	return nil, errUnsupported
}

// Set is not implemented on non-Linux platforms.
func (l *Line) Set(on bool) error { return errUnsupported }

// Close is a no-op on non-Linux platforms.
func (l *Line) Close() error { return nil }
