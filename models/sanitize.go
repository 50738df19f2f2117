package models

import "math"

// SanitizeFloat replaces NaN and ±Inf with 0 so that defaulted market data
// never poisons downstream arithmetic.
func SanitizeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SanitizeFloatDefault replaces NaN and ±Inf with the given fallback.
func SanitizeFloatDefault(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
