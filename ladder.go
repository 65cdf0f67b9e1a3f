// FILE: ladder.go
// Package main – Order-ladder engine (pure computation, no I/O).
//
// This file turns (price band, bin count, instrument constraints, budget,
// weighting scheme) into a validated list of limit-buy intents:
//   • PriceBand          – start/end bounds, start > end > 0
//   • WeightScheme       – flat / linear_up / linear_down / quadratic_up
//   • BuildLadder        – the ladder builder itself
//   • SizeMarketBuy      – cost-specified market entry sizer
//   • floorTo / ceilTo   – decimal-places rounding helpers
//
// Bins that fall below the venue minimum size or notional are dropped and
// reported back as rejections; the ladder may come out shorter than the
// requested bin count. Degenerate inputs yield an empty ladder, never an
// error — the schedule is the retry mechanism.

package main

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PriceBand is the target buy range. Start is the current best bid (or ask
// for market entries), End the derived lower bound.
type PriceBand struct {
	Start float64
	End   float64
}

// Valid reports whether the band can host a ladder.
func (b PriceBand) Valid() bool { return b.Start > b.End && b.End > 0 }

// WeightScheme distributes budget across ladder bins.
type WeightScheme string

const (
	SchemeFlat        WeightScheme = "flat"
	SchemeLinearUp    WeightScheme = "linear_up"
	SchemeLinearDown  WeightScheme = "linear_down"
	SchemeQuadraticUp WeightScheme = "quadratic_up"
)

// BinRejection explains why one bin was dropped during validation.
type BinRejection struct {
	Bin    int
	Code   string // min_amount | min_notional
	Reason string
}

// floorTo truncates x to the given number of decimal places.
func floorTo(x float64, places int) float64 {
	return decimal.NewFromFloat(x).RoundFloor(int32(places)).InexactFloat64()
}

// ceilTo rounds x up at the given number of decimal places.
func ceilTo(x float64, places int) float64 {
	return decimal.NewFromFloat(x).RoundCeil(int32(places)).InexactFloat64()
}

// binWeight returns the fractional budget share of bin i (1-indexed) under
// the scheme. Shares sum to 1 across i=1..n for every scheme.
func binWeight(scheme WeightScheme, i, n int) float64 {
	switch scheme {
	case SchemeLinearUp:
		return float64(i) / (float64(n) * float64(n+1) / 2)
	case SchemeLinearDown:
		return float64(n-i+1) / (float64(n) * float64(n+1) / 2)
	case SchemeQuadraticUp:
		return float64(i*i) / (float64(n) * float64(n+1) * float64(2*n+1) / 6)
	default: // flat
		return 1 / float64(n)
	}
}

// BuildLadder computes up to binCount limit-buy intents spread across the
// band, priced high to low. Bin 1 sits one step below band.Start.
//
// The flat scheme sizes every bin against the band midpoint (fixed quantity
// at mean price, matching the long-running production behavior); the
// directional schemes size each bin at its own price. Limit orders rest, so
// the maker fee applies.
func BuildLadder(band PriceBand, binCount int, info InstrumentInfo, budget float64, scheme WeightScheme) ([]OrderIntent, []BinRejection) {
	if binCount < 1 || budget <= 0 || !band.Valid() {
		return nil, nil
	}

	step := (band.Start - band.End) / float64(binCount)
	mean := (band.Start + band.End) / 2

	var intents []OrderIntent
	var rejects []BinRejection
	for i := 1; i <= binCount; i++ {
		price := floorTo(band.Start-step*float64(i), info.PricePrecision)

		ref := price
		if scheme == SchemeFlat {
			ref = mean
		}
		share := binWeight(scheme, i, binCount) * budget
		size := floorTo(share/(ref*(1+info.MakerFee)), info.AmountPrecision)

		if size < info.MinAmount {
			rejects = append(rejects, BinRejection{Bin: i, Code: "min_amount",
				Reason: fmt.Sprintf("base size %v is below the minimum %v for %v limit order", size, info.MinAmount, price)})
			continue
		}
		if notional := size * price; notional < info.MinNotional {
			rejects = append(rejects, BinRejection{Bin: i, Code: "min_notional",
				Reason: fmt.Sprintf("quote size %v (%v * %v) is below the minimum %v", notional, size, price, info.MinNotional)})
			continue
		}
		intents = append(intents, OrderIntent{
			Kind:   IntentLimitBuy,
			Symbol: info.Symbol,
			Price:  price,
			Size:   size,
		})
	}
	return intents, rejects
}

// SizeMarketBuy sizes a market buy from a quote budget. The returned intent
// carries both the quote spend (for venues that take cost-specified orders)
// and the base size derived at the reference price (for venues that only
// take base volume). A nil intent with a non-empty reason means the budget
// cannot clear the venue minimums. Market orders take liquidity, so the
// taker fee applies.
func SizeMarketBuy(info InstrumentInfo, quoteBudget, referencePrice float64) (*OrderIntent, string) {
	if quoteBudget <= 0 || referencePrice <= 0 {
		return nil, "non-positive budget or price"
	}
	quote := ceilTo(quoteBudget, info.PricePrecision)
	size := ceilTo(quote/(1+info.TakerFee)/referencePrice, info.AmountPrecision)

	if size < info.MinAmount {
		return nil, fmt.Sprintf("base size %v is below the minimum %v for %v market order", size, info.MinAmount, referencePrice)
	}
	if quote < info.MinNotional {
		return nil, fmt.Sprintf("quote size %v (%v * %v) is below the minimum %v", quote, size, referencePrice, info.MinNotional)
	}
	return &OrderIntent{
		Kind:       IntentMarketBuy,
		Symbol:     info.Symbol,
		Size:       size,
		QuoteSpend: quote,
	}, ""
}
