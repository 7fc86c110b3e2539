package logic

// Increment advances v by one, wrapping to zero at modulus.
// The wrap is an explicit check: the result never reaches modulus and never
// relies on integer overflow. A modulus of zero is treated as DefaultModulus.
func Increment(v, modulus uint32) uint32 {
	if modulus == 0 {
		modulus = DefaultModulus
	}
	if v >= modulus-1 {
		return 0
	}
	return v + 1
}

// Step applies one counter tick: a stopped counter keeps its value.
func Step(s *CounterState, modulus uint32) {
	if !s.Running {
		return
	}
	s.Value = Increment(s.Value, modulus)
}

// Digits splits v into the four decimal digits shown on a 4-digit display,
// most significant first. Values above 9999 show their low four digits.
func Digits(v uint32) [4]uint8 {
	return [4]uint8{
		uint8((v / 1000) % 10),
		uint8((v / 100) % 10),
		uint8((v / 10) % 10),
		uint8(v % 10),
	}
}
