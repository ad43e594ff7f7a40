package core

import (
	"math"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// Round2 rounds `f` half away from zero to 2 decimal places.
func Round2(f float64) float64 {
	// 1.005*100 gives 100.49999999999999: snap the scaled value before rounding.
	scaled := math.Round(f*100*1e6) / 1e6
	return math.Round(scaled) / 100
}
