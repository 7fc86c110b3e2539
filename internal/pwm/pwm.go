// Package pwm drives the RGB LED and the hobby servo through periph.io
// hardware PWM.
package pwm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"github.com/sweeney/taskcore/internal/logic"
)

// Pin is the part of gpio.PinIO used for PWM output.
type Pin interface {
	PWM(duty gpio.Duty, f physic.Frequency) error
	Halt() error
}

// Defaults for the actuators.
const (
	DefaultRGBFrequency   = 5 * physic.KiloHertz
	DefaultServoFrequency = 50 * physic.Hertz
	DefaultMinPulse       = 500 * time.Microsecond
	DefaultMaxPulse       = 2400 * time.Microsecond
)

// ColorDuty maps a colour channel value onto the full duty range.
func ColorDuty(v uint8) gpio.Duty {
	return gpio.Duty(int64(v) * int64(gpio.DutyMax) / 255)
}

// PulseDuty returns the duty cycle producing pulse at frequency f.
func PulseDuty(pulse time.Duration, f physic.Frequency) gpio.Duty {
	period := f.Period()
	if period <= 0 {
		return 0
	}
	if pulse >= period {
		return gpio.DutyMax
	}
	return gpio.Duty(int64(pulse) * int64(gpio.DutyMax) / int64(period))
}

// RGB drives a three-channel LED, one PWM pin per channel.
type RGB struct {
	pins [3]Pin
	freq physic.Frequency
}

// NewRGB creates an RGB actuator over the red, green and blue pins.
func NewRGB(r, g, b Pin, freq physic.Frequency) *RGB {
	if freq == 0 {
		freq = DefaultRGBFrequency
	}
	return &RGB{pins: [3]Pin{r, g, b}, freq: freq}
}

// Actuate sets all three channels. A failing channel does not stop the
// others from being written.
func (l *RGB) Actuate(ctx context.Context, c logic.RGB) error {
	var errs []error
	for i, v := range [3]uint8{c.R, c.G, c.B} {
		if err := l.pins[i].PWM(ColorDuty(v), l.freq); err != nil {
			errs = append(errs, fmt.Errorf("pwm: channel %c: %w", "rgb"[i], err))
		}
	}
	return errors.Join(errs...)
}

// Close stops the PWM output on every channel.
func (l *RGB) Close() error {
	var errs []error
	for _, p := range l.pins {
		if err := p.Halt(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ServoConfig describes the pulse range of a servo.
type ServoConfig struct {
	Frequency physic.Frequency
	MinPulse  time.Duration // pulse at logic.MinAngle
	MaxPulse  time.Duration // pulse at logic.MaxAngle
}

func (c *ServoConfig) defaults() {
	if c.Frequency == 0 {
		c.Frequency = DefaultServoFrequency
	}
	if c.MinPulse == 0 {
		c.MinPulse = DefaultMinPulse
	}
	if c.MaxPulse == 0 {
		c.MaxPulse = DefaultMaxPulse
	}
}

// Pulse returns the pulse width for angle a, clamped to the servo travel.
func (c ServoConfig) Pulse(a logic.Angle) time.Duration {
	a = logic.ClampAngle(int(a))
	span := c.MaxPulse - c.MinPulse
	return c.MinPulse + span*time.Duration(a)/time.Duration(logic.MaxAngle)
}

// Servo positions a hobby servo.
type Servo struct {
	pin Pin
	cfg ServoConfig
}

// NewServo creates a servo actuator on pin.
func NewServo(pin Pin, cfg ServoConfig) *Servo {
	cfg.defaults()
	return &Servo{pin: pin, cfg: cfg}
}

// Actuate moves the servo to angle a.
func (s *Servo) Actuate(ctx context.Context, a logic.Angle) error {
	duty := PulseDuty(s.cfg.Pulse(a), s.cfg.Frequency)
	if err := s.pin.PWM(duty, s.cfg.Frequency); err != nil {
		return fmt.Errorf("pwm: servo %d deg: %w", a, err)
	}
	return nil
}

// Close stops the servo pulse train.
func (s *Servo) Close() error {
	return s.pin.Halt()
}
