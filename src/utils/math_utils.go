package utils

import "math"

// RoundFloat rounds a float64 to a specified number of decimal places.
// Display-level rounding only; RR values stored on trades go through the
// importer's string-padded rounding instead.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
