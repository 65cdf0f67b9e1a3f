// FILE: indicators_test.go
package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candlesFromCloses(closes []float64) []Candle {
	base := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	out := make([]Candle, len(closes))
	for i, c := range closes {
		out[i] = Candle{Time: base.Add(time.Duration(i) * time.Hour), Close: c}
	}
	return out
}

func TestRSIWarmupAndAlignment(t *testing.T) {
	closes := []float64{100, 101, 100, 102, 101, 103, 102, 104, 103, 105}
	out := RSI(candlesFromCloses(closes), 5)
	require.Len(t, out, len(closes))
	for i := 0; i < 5; i++ {
		assert.Zero(t, out[i], "index %d is before the first full window", i)
	}
	for i := 5; i < len(out); i++ {
		assert.Greater(t, out[i], 0.0)
		assert.Less(t, out[i], 100.0)
	}
}

func TestRSITrendDirection(t *testing.T) {
	// net-up with pullbacks vs the mirrored net-down series
	up := []float64{100, 102, 101, 104, 103, 106, 105, 108, 107, 110, 109, 112}
	down := make([]float64, len(up))
	for i, c := range up {
		down[i] = 200 - c
	}

	rsiUp := RSI(candlesFromCloses(up), 5)
	rsiDown := RSI(candlesFromCloses(down), 5)
	last := len(up) - 1
	assert.Greater(t, rsiUp[last], 50.0)
	assert.Less(t, rsiDown[last], 50.0)
}

func TestRSIDegenerateInputs(t *testing.T) {
	assert.Empty(t, RSI(nil, 14))
	out := RSI(candlesFromCloses([]float64{100, 101, 102}), 0)
	for _, v := range out {
		assert.Zero(t, v)
	}
	out = RSI(candlesFromCloses([]float64{100, 101}), 14)
	for _, v := range out {
		assert.Zero(t, v, "fewer candles than the window")
	}
}
