package pwm

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// openPin initialises the periph host and resolves a pin by name,
// e.g. "GPIO12". host.Init is safe to call more than once.
func openPin(name string) (gpio.PinIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("pwm: init host: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("pwm: unknown pin %q", name)
	}
	return p, nil
}

// OpenRGB resolves the red, green and blue pins by name.
func OpenRGB(red, green, blue string, freq physic.Frequency) (*RGB, error) {
	var pins [3]gpio.PinIO
	for i, name := range [3]string{red, green, blue} {
		p, err := openPin(name)
		if err != nil {
			return nil, err
		}
		pins[i] = p
	}
	return NewRGB(pins[0], pins[1], pins[2], freq), nil
}

// OpenServo resolves the servo pin by name.
func OpenServo(name string, cfg ServoConfig) (*Servo, error) {
	p, err := openPin(name)
	if err != nil {
		return nil, err
	}
	return NewServo(p, cfg), nil
}
