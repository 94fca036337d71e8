package emath

import "math"

func Clamp(v, lo, hi float64) float64 {
	if v < lo { return lo }
	if v > hi { return hi }
	return v
}

// Cents quantizes a [0,1] fraction to 2 decimal places, as an int.
func Cents(f float64) int {
	return int(math.Round(f * 100.0))
}
