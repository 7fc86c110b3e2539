// Package gpio provides the button input and LED outputs over the Linux GPIO
// character device. The fake implementations allow testing without hardware.
package gpio

// Output drives a single digital line.
type Output interface {
	// Set drives the line high (true) or low (false).
	Set(on bool) error

	// Close releases the line.
	Close() error
}

// DefaultChip is the GPIO chip on a Raspberry Pi header.
const DefaultChip = "gpiochip0"

// Pin definitions (BCM numbering)
const (
	PinButton    = 17 // toggle push button, active low
	PinToggleLED = 27 // follows the button toggle
	PinBlinkSlow = 22 // 1000 ms blink
	PinBlinkFast = 23 // 250 ms blink
)
