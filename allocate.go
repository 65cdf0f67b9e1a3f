// FILE: allocate.go
// Package main – Per-instrument budget allocation.
//
// Two policies coexist, matching the two production flows:
//   • AllocateResidual    – subtract the fixed DCA reserve, split the rest
//     across instruments in proportion to their configured weights
//   • AllocateEqualCapped – split the whole balance evenly, clamp each
//     share to an optional per-instrument maximum
//
// Budgets are floored at each instrument's price precision so repeated
// cycles cannot accumulate sub-cent drift.

package main

// AllocateResidual distributes (total - reserve) across instruments in
// proportion to weight/weightSum. It returns nil when the reserve exceeds
// the balance or no positive weights exist; the caller must then skip order
// submission for the cycle.
func AllocateResidual(total, reserve float64, weights map[string]float64, infos map[string]InstrumentInfo) map[string]float64 {
	if reserve > total {
		return nil
	}
	var weightSum float64
	for _, w := range weights {
		if w > 0 {
			weightSum += w
		}
	}
	if weightSum <= 0 {
		return nil
	}

	out := make(map[string]float64, len(weights))
	residual := total - reserve
	for sym, w := range weights {
		if w <= 0 {
			continue
		}
		out[sym] = floorTo(residual*w/weightSum, infos[sym].PricePrecision)
	}
	return out
}

// AllocateEqualCapped splits total evenly across the given instruments and
// clamps each share to caps[sym] when a positive cap is configured.
func AllocateEqualCapped(total float64, symbols []string, caps map[string]float64, infos map[string]InstrumentInfo) map[string]float64 {
	if total <= 0 || len(symbols) == 0 {
		return nil
	}
	share := total / float64(len(symbols))
	out := make(map[string]float64, len(symbols))
	for _, sym := range symbols {
		b := share
		if cap, ok := caps[sym]; ok && cap > 0 && b > cap {
			b = cap
		}
		out[sym] = floorTo(b, infos[sym].PricePrecision)
	}
	return out
}
