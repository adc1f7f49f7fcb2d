package utils

import "math"

// Round rounds a float64 value to 2 decimal places
// Used for success rates and elapsed-time summaries to avoid unnecessary precision
func Round(val float64) float64 {
	// Use proper rounding that works for both positive and negative numbers
	return math.Round(val*100) / 100
}

// Percent returns part of whole as a percentage rounded to 2 decimal
// places. A zero whole yields 0 rather than NaN.
func Percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return Round(float64(part) / float64(whole) * 100)
}
