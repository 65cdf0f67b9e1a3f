// FILE: indicators.go
// Package main – Local technical-indicator math.
//
// Candle is the normalized OHLCV row used across the bot, and RSI is the
// n-period Relative Strength Index with Wilder's smoothing. This is the
// fallback oscillator source when no external indicator service is
// configured (see indicator.go).
//
// Notes
//   - Output is aligned to input length; indices before the first full
//     window are zero (0).
//   - Keep this fast and allocation-light; it runs on every refresh round.

package main

import "time"

// Candle is the normalized OHLCV row.
type Candle struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// RSI returns the n-period Relative Strength Index using Wilder's smoothing.
func RSI(c []Candle, n int) []float64 {
	out := make([]float64, len(c))
	if n <= 0 || len(c) == 0 {
		return out
	}
	var gain, loss float64
	for i := 1; i < len(c); i++ {
		d := c[i].Close - c[i-1].Close
		if i <= n {
			if d > 0 {
				gain += d
			} else {
				loss -= d
			}
			if i == n {
				avgGain := gain / float64(n)
				avgLoss := loss / float64(n)
				rs := 0.0
				if avgLoss != 0 {
					rs = avgGain / avgLoss
				}
				out[i] = 100.0 - (100.0 / (1.0 + rs))
			}
		} else {
			// Wilder smoothing
			if d > 0 {
				gain = (gain*float64(n-1) + d) / float64(n)
				loss = (loss * float64(n-1)) / float64(n)
			} else {
				gain = (gain * float64(n-1)) / float64(n)
				loss = (loss*float64(n-1) - d) / float64(n)
			}
			rs := 0.0
			if loss != 0 {
				rs = gain / loss
			}
			out[i] = 100.0 - (100.0 / (1.0 + rs))
		}
	}
	return out
}
