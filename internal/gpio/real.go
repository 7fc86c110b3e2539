//go:build linux

package gpio

import (
	"errors"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/taskcore/internal/logic"
)

// Chip is an open GPIO character device.
type Chip struct {
	chip *gpiocdev.Chip
}

// OpenChip opens the named GPIO chip, e.g. "gpiochip0".
func OpenChip(name string) (*Chip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}
	return &Chip{chip: chip}, nil
}

// Close releases the chip. Lines requested from it stay valid until closed.
func (c *Chip) Close() error {
	return c.chip.Close()
}

// Button is a push button wired to ground, reporting falling edges to an
// edge source.
type Button struct {
	line *gpiocdev.Line
}

// Button requests offset as an input with pull-up and falling-edge events.
// Events are delivered by the gpiocdev watcher goroutine, the single caller
// of src.OnEdge. The kernel event timestamp is folded onto the wrapping
// millisecond clock.
func (c *Chip) Button(offset int, src *logic.EdgeSource) (*Button, error) {
	handler := func(evt gpiocdev.LineEvent) {
		src.OnEdge(logic.MillisFromDuration(evt.Timestamp))
	}
	line, err := c.chip.RequestLine(offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(handler))
	if err != nil {
		return nil, fmt.Errorf("request button pin %d: %w", offset, err)
	}
	return &Button{line: line}, nil
}

// Close stops edge delivery and restores the pin to input with pull-down.
func (b *Button) Close() error {
	return release(b.line, "button")
}

// Line is a digital output such as an LED.
type Line struct {
	offset int
	line   *gpiocdev.Line
}

// Output requests offset as an output, initially low.
func (c *Chip) Output(offset int) (*Line, error) {
	line, err := c.chip.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request output pin %d: %w", offset, err)
	}
	return &Line{offset: offset, line: line}, nil
}

// Set implements Output.
func (l *Line) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	if err := l.line.SetValue(v); err != nil {
		return fmt.Errorf("set pin %d: %w", l.offset, err)
	}
	return nil
}

// Close implements Output.
func (l *Line) Close() error {
	return release(l.line, fmt.Sprintf("pin %d", l.offset))
}

// release reconfigures a line to the Pi boot default (input with pull-down)
// before closing it, so attached hardware sees a known state after shutdown.
func release(line *gpiocdev.Line, what string) error {
	if line == nil {
		return nil
	}
	var errs []error
	if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
		errs = append(errs, fmt.Errorf("reconfigure %s: %w", what, err))
	}
	if err := line.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close %s: %w", what, err))
	}
	return errors.Join(errs...)
}
