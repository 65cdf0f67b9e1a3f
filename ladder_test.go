// FILE: ladder_test.go
package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInstrument() InstrumentInfo {
	return InstrumentInfo{
		Symbol:          "BTC/GBP",
		AmountPrecision: 6,
		PricePrecision:  2,
		MinAmount:       0.0001,
		MinNotional:     5,
		MakerFee:        0.0016,
		TakerFee:        0.0026,
	}
}

func TestBuildLadderFlat(t *testing.T) {
	band := PriceBand{Start: 100, End: 90}
	intents, rejects := BuildLadder(band, 5, testInstrument(), 1000, SchemeFlat)

	require.Len(t, intents, 5)
	require.Empty(t, rejects)

	wantPrices := []float64{98, 96, 94, 92, 90}
	for i, intent := range intents {
		assert.Equal(t, IntentLimitBuy, intent.Kind)
		assert.Equal(t, "BTC/GBP", intent.Symbol)
		assert.Equal(t, wantPrices[i], intent.Price)
		assert.Greater(t, intent.Size, 0.0)
	}
	// flat sizes against the band midpoint: every bin holds the same quantity
	for _, intent := range intents[1:] {
		assert.Equal(t, intents[0].Size, intent.Size)
	}
}

func TestBuildLadderPricesStrictlyDescending(t *testing.T) {
	for _, scheme := range []WeightScheme{SchemeFlat, SchemeLinearUp, SchemeLinearDown, SchemeQuadraticUp} {
		intents, _ := BuildLadder(PriceBand{Start: 250.37, End: 201.12}, 7, testInstrument(), 5000, scheme)
		require.NotEmpty(t, intents, "scheme %s", scheme)
		for i := 1; i < len(intents); i++ {
			assert.Less(t, intents[i].Price, intents[i-1].Price, "scheme %s", scheme)
		}
	}
}

func TestBuildLadderDirectionalSizes(t *testing.T) {
	// linear_up puts more budget on lower bins; with descending prices the
	// base sizes must strictly increase down the ladder
	intents, rejects := BuildLadder(PriceBand{Start: 100, End: 90}, 5, testInstrument(), 1000, SchemeLinearUp)
	require.Len(t, intents, 5)
	require.Empty(t, rejects)
	for i := 1; i < len(intents); i++ {
		assert.Greater(t, intents[i].Size, intents[i-1].Size)
	}

	// linear_down is the mirror image
	intents, _ = BuildLadder(PriceBand{Start: 100, End: 90}, 5, testInstrument(), 1000, SchemeLinearDown)
	require.Len(t, intents, 5)
	for i := 1; i < len(intents); i++ {
		assert.Less(t, intents[i].Size, intents[i-1].Size)
	}
}

func TestBuildLadderHonorsMinimums(t *testing.T) {
	info := testInstrument()
	intents, rejects := BuildLadder(PriceBand{Start: 100, End: 90}, 5, info, 1000, SchemeQuadraticUp)
	require.NotEmpty(t, intents)
	for _, intent := range intents {
		assert.GreaterOrEqual(t, intent.Size, info.MinAmount)
		assert.GreaterOrEqual(t, intent.Size*intent.Price, info.MinNotional)
	}
	for _, r := range rejects {
		assert.Contains(t, []string{"min_amount", "min_notional"}, r.Code)
	}
}

func TestBuildLadderRejectsThinBins(t *testing.T) {
	info := testInstrument()
	info.MinAmount = 10 // nothing can clear this
	intents, rejects := BuildLadder(PriceBand{Start: 100, End: 90}, 3, info, 100, SchemeFlat)
	assert.Empty(t, intents)
	require.Len(t, rejects, 3)
	for _, r := range rejects {
		assert.Equal(t, "min_amount", r.Code)
	}

	// sizes clear the amount floor but the notional stays under 10
	info = testInstrument()
	info.MinNotional = 10
	intents, rejects = BuildLadder(PriceBand{Start: 100, End: 90}, 2, info, 10, SchemeFlat)
	assert.Empty(t, intents)
	require.Len(t, rejects, 2)
	for _, r := range rejects {
		assert.Equal(t, "min_notional", r.Code)
	}
}

func TestBuildLadderDegenerateInputs(t *testing.T) {
	info := testInstrument()
	cases := []struct {
		name   string
		band   PriceBand
		bins   int
		budget float64
	}{
		{"inverted band", PriceBand{Start: 90, End: 100}, 5, 1000},
		{"zero end", PriceBand{Start: 100, End: 0}, 5, 1000},
		{"equal bounds", PriceBand{Start: 100, End: 100}, 5, 1000},
		{"zero bins", PriceBand{Start: 100, End: 90}, 0, 1000},
		{"zero budget", PriceBand{Start: 100, End: 90}, 5, 0},
		{"negative budget", PriceBand{Start: 100, End: 90}, 5, -10},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			intents, rejects := BuildLadder(tc.band, tc.bins, info, tc.budget, SchemeFlat)
			assert.Empty(t, intents)
			assert.Empty(t, rejects)
		})
	}
}

func TestBinWeightSumsToOne(t *testing.T) {
	for _, scheme := range []WeightScheme{SchemeFlat, SchemeLinearUp, SchemeLinearDown, SchemeQuadraticUp} {
		for _, n := range []int{1, 4, 7, 20} {
			var sum float64
			for i := 1; i <= n; i++ {
				sum += binWeight(scheme, i, n)
			}
			assert.InDelta(t, 1.0, sum, 1e-9, "scheme %s n=%d", scheme, n)
		}
	}
}

func TestSizeMarketBuy(t *testing.T) {
	info := testInstrument()
	info.MinAmount = 0.001
	info.MinNotional = 10

	// budget below the notional floor yields no order at any price
	for _, price := range []float64{0.5, 100, 50000} {
		intent, reason := SizeMarketBuy(info, 5, price)
		assert.Nil(t, intent, "price %v", price)
		assert.NotEmpty(t, reason)
	}

	intent, reason := SizeMarketBuy(info, 20, 100)
	require.NotNil(t, intent, reason)
	assert.Equal(t, IntentMarketBuy, intent.Kind)
	assert.Equal(t, 20.0, intent.QuoteSpend)
	// base size for venues that take volume: 20 / 1.0026 / 100, ceiled
	assert.InDelta(t, 0.199482, intent.Size, 1e-9)
}

func TestFloorCeilTo(t *testing.T) {
	assert.Equal(t, 1.23, floorTo(1.239, 2))
	assert.Equal(t, 1.24, ceilTo(1.231, 2))
	assert.Equal(t, 1.0, floorTo(1.9999, 0))
	assert.Equal(t, 0.0001, floorTo(0.00019, 4))
}
