// FILE: metrics.go
// Package main – Prometheus metrics for observability.
//
// Exposes the metrics the bot updates during operation:
//   • dca_cycles_total{kind,result}       – Pipeline cycles (ladder|dca, ok|error|skipped)
//   • dca_orders_total{mode,kind}         – Submitted intents (mode: live|sandbox)
//   • dca_cancels_total{mode}             – Cancel intents sent
//   • dca_bins_rejected_total{reason}     – Ladder bins dropped in validation
//   • dca_budget_quote{symbol}            – Last allocated ladder budget (gauge)
//   • dca_indicator_refreshes_total       – RSI refresh rounds completed
//   • dca_oscillator{symbol}              – Last RSI reading (gauge)
//   • dca_portfolio_value_quote           – Last reported portfolio value (gauge)
//
// Registered in init() and served at /metrics by the HTTP handler started
// in main.go (Prometheus text exposition format).

package main

import "github.com/prometheus/client_golang/prometheus"

var (
	mtxCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dca_cycles_total",
			Help: "Pipeline cycles by kind and result",
		},
		[]string{"kind", "result"}, // kind: ladder|dca; result: ok|error|skipped
	)

	mtxOrders = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dca_orders_total",
			Help: "Order intents submitted",
		},
		[]string{"mode", "kind"}, // mode: live|sandbox; kind: limit_buy|market_buy
	)

	mtxCancels = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dca_cancels_total",
			Help: "Cancel intents sent",
		},
		[]string{"mode"},
	)

	mtxBinRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dca_bins_rejected_total",
			Help: "Ladder bins dropped by validation",
		},
		[]string{"reason"}, // min_amount|min_notional
	)

	mtxBudget = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dca_budget_quote",
			Help: "Last allocated ladder budget per instrument (quote currency)",
		},
		[]string{"symbol"},
	)

	mtxIndicatorRefreshes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dca_indicator_refreshes_total",
			Help: "Completed RSI refresh rounds",
		},
	)

	mtxOscillator = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dca_oscillator",
			Help: "Last oscillator reading per instrument",
		},
		[]string{"symbol"},
	)

	mtxPortfolioValue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dca_portfolio_value_quote",
			Help: "Last reported portfolio value (quote currency)",
		},
	)
)

func init() {
	prometheus.MustRegister(mtxCycles, mtxOrders, mtxCancels, mtxBinRejects)
	prometheus.MustRegister(mtxBudget, mtxIndicatorRefreshes, mtxOscillator, mtxPortfolioValue)
}
