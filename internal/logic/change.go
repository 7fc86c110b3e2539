package logic

import "math"

// DefaultEpsilon is the smallest change in a reading worth re-rendering.
const DefaultEpsilon = 0.1

// NearlyEqual reports whether a and b differ by less than eps.
// Two NaNs are equal; a NaN and a number are not.
func NearlyEqual(a, b, eps float64) bool {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	if aNaN || bNaN {
		return aNaN && bNaN
	}
	return math.Abs(a-b) < eps
}

// ReadingChanged reports whether cur differs from last enough to re-render.
func ReadingChanged(last, cur Reading, eps float64) bool {
	return !NearlyEqual(last.Temperature, cur.Temperature, eps) ||
		!NearlyEqual(last.Humidity, cur.Humidity, eps)
}

// ReadingEqual returns an equality func for readings with the given epsilon.
func ReadingEqual(eps float64) func(a, b Reading) bool {
	return func(a, b Reading) bool {
		return !ReadingChanged(a, b, eps)
	}
}
