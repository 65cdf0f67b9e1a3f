// FILE: reconcile.go
// Package main – Stale-order reconciliation ahead of re-laddering.
//
// Reconcile inspects the currently resting orders and emits the cancel
// intents that must complete before the allocator reads the balance:
// resting buy limits lock quote funds and would understate the budget.
//
// Only side=buy, type=limit orders qualify. Sell orders and market orders
// are left alone — they may be protective take-profit orders placed by a
// companion flow and must survive a ladder reset.

package main

// Reconcile turns the qualifying subset of open orders into cancel intents.
// With bulkCancel set (venue supports cancel-all-for-symbol) it emits a
// single grouped cancel per symbol, in first-seen order; otherwise one
// cancel per order id.
func Reconcile(open []OpenOrder, bulkCancel bool) []OrderIntent {
	var intents []OrderIntent
	seen := make(map[string]bool)

	for _, o := range open {
		if o.Side != SideBuy || o.Type != TypeLimit {
			continue
		}
		if bulkCancel {
			if seen[o.Symbol] {
				continue
			}
			seen[o.Symbol] = true
			intents = append(intents, OrderIntent{Kind: IntentCancel, Symbol: o.Symbol})
			continue
		}
		intents = append(intents, OrderIntent{
			Kind:    IntentCancel,
			Symbol:  o.Symbol,
			OrderID: o.ID,
		})
	}
	return intents
}
