package display

import (
	"fmt"

	"github.com/sweeney/taskcore/internal/logic"
)

// ToggleLines shows the toggle LED state.
func ToggleLines(on bool) []string {
	state := "OFF"
	if on {
		state = "ON "
	}
	return []string{"LED3 Status:", state}
}

// CounterLines shows the counter as four digits.
func CounterLines(s logic.CounterState) []string {
	d := logic.Digits(s.Value)
	return []string{fmt.Sprintf("%d%d%d%d", d[0], d[1], d[2], d[3])}
}

// ClimateLines shows temperature, humidity and heat index.
// An invalid reading shows dashes instead of NaN.
func ClimateLines(r logic.Reading) []string {
	if !r.Valid() {
		return []string{"Temp: --.- C", "Hum:  --.- %"}
	}
	return []string{
		fmt.Sprintf("Temp: %.1f C", r.Temperature),
		fmt.Sprintf("Hum:  %.1f %% HI %.1f", r.Humidity, r.HeatIndex()),
	}
}

// ServoLines shows the servo angle.
func ServoLines(a logic.Angle) []string {
	return []string{fmt.Sprintf("Servo: %d deg", a)}
}
