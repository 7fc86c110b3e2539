package logic

import (
	"math"
	"testing"
)

func TestNearlyEqual(t *testing.T) {
	nan := math.NaN()
	tests := []struct {
		name string
		a, b float64
		want bool
	}{
		{"identical", 21.5, 21.5, true},
		{"below epsilon", 21.5, 21.55, true},
		{"at epsilon", 21.5, 21.6000001, false},
		{"above epsilon", 21.5, 22.0, false},
		{"both NaN", nan, nan, true},
		{"one NaN", nan, 21.5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NearlyEqual(tt.a, tt.b, DefaultEpsilon); got != tt.want {
				t.Errorf("NearlyEqual(%v, %v): got %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestReadingChanged(t *testing.T) {
	last := Reading{Temperature: 22.0, Humidity: 40.0}

	if ReadingChanged(last, Reading{Temperature: 22.04, Humidity: 40.05}, DefaultEpsilon) {
		t.Error("representational noise should not count as a change")
	}
	if !ReadingChanged(last, Reading{Temperature: 22.2, Humidity: 40.0}, DefaultEpsilon) {
		t.Error("temperature change should be detected")
	}
	if !ReadingChanged(last, Reading{Temperature: 22.0, Humidity: 41.0}, DefaultEpsilon) {
		t.Error("humidity change should be detected")
	}

	eq := ReadingEqual(DefaultEpsilon)
	if !eq(last, last) {
		t.Error("ReadingEqual should hold for identical readings")
	}
}

func TestReadingValid(t *testing.T) {
	if !(Reading{Temperature: 20, Humidity: 50}).Valid() {
		t.Error("expected valid reading")
	}
	if (Reading{Temperature: math.NaN(), Humidity: 50}).Valid() {
		t.Error("NaN temperature should be invalid")
	}
	if (Reading{Temperature: 20, Humidity: math.Inf(1)}).Valid() {
		t.Error("infinite humidity should be invalid")
	}
}

func TestHeatIndex(t *testing.T) {
	tests := []struct {
		temp, hum float64
		want      float64
	}{
		{20, 50, 19.36},
		{24, 40, 23.50},
		{30, 70, 35.04},
		{28, 90, 34.00},
		{40, 10, 36.70},
	}
	for _, tt := range tests {
		got := Reading{Temperature: tt.temp, Humidity: tt.hum}.HeatIndex()
		if math.Abs(got-tt.want) > 0.01 {
			t.Errorf("HeatIndex(%v, %v): got %.3f, want %.2f", tt.temp, tt.hum, got, tt.want)
		}
	}
}
