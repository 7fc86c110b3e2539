// Package logic contains the pure domain logic shared by every task.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable: the edge source takes millisecond timestamps.
package logic

import "math"

// Reading is a single temperature/humidity sample.
type Reading struct {
	Temperature float64 // degrees Celsius
	Humidity    float64 // percent relative humidity
}

// Valid reports whether both fields hold real numbers.
// Sensors signal a failed bus transaction with NaN.
func (r Reading) Valid() bool {
	return isFinite(r.Temperature) && isFinite(r.Humidity)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// RGB is a colour command for a three-channel LED.
type RGB struct {
	R uint8
	G uint8
	B uint8
}

// Angle is a servo position in degrees.
type Angle int

// Servo travel limits.
const (
	MinAngle Angle = 0
	MaxAngle Angle = 180
)

// ClampAngle constrains v to the servo travel.
func ClampAngle(v int) Angle {
	if v < int(MinAngle) {
		return MinAngle
	}
	if v > int(MaxAngle) {
		return MaxAngle
	}
	return Angle(v)
}

// CounterState is the value behind the start/stop counter.
type CounterState struct {
	Value   uint32
	Running bool
}

// DefaultModulus is the counter wrap point; four display digits hold 0..9999.
const DefaultModulus = 10000
