package utils

import "math"

// Min returns the minimum of two integers.
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PriceBucket floors a price to its €10 bucket. Used by the listing
// fingerprint so micro-adjustments do not produce new alerts.
func PriceBucket(price float64) int {
	return int(math.Floor(price/10) * 10)
}
