// FILE: trend.go
// Package main – Oscillator-driven weighting selection.
//
// Two pure threshold lookups over the latest RSI reading:
//   • ClassifyTrend – picks the ladder weighting scheme: buy aggressively
//     near the current price when momentum is strong, spread evenly when
//     range-bound, concentrate near the lower bound when momentum is weak
//   • RangeBound    – gates re-laddering: grid-style dip nets only make
//     sense while price action stays inside the 30/70 band
//
// The thresholds are deliberately fixed, not configuration.

package main

// ClassifyTrend maps an oscillator reading to a weighting scheme.
func ClassifyTrend(oscillator float64) WeightScheme {
	switch {
	case oscillator > 80:
		return SchemeQuadraticUp
	case oscillator > 60:
		return SchemeLinearUp
	case oscillator > 30:
		return SchemeFlat
	default:
		return SchemeLinearDown
	}
}

// RangeBound reports whether the reading sits inside the 30–70 band.
func RangeBound(oscillator float64) bool {
	return oscillator > 30 && oscillator < 70
}
