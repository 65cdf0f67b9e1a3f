// FILE: exchange.go
// Package main – Exchange adapter abstractions shared by all venues.
//
// This file defines the narrow surface the DCA engine needs from a spot
// exchange (real or sandbox):
//   • ExchangeAdapter interface: markets, ticker, balance, open orders,
//     order placement/cancellation, plus two capability flags
//   • Common types: InstrumentInfo, Ticker, BalanceEntry, OpenOrder
//   • OrderIntent: tagged union produced by the ladder/reconciler and
//     consumed exactly once at submission time
//
// Concrete implementations live in separate files:
//   • exchange_kraken.go   – signed Kraken spot REST
//   • exchange_binance.go  – signed Binance spot REST
//   • exchange_paper.go    – in-memory sandbox (no external calls)
package main

import (
	"context"
	"time"
)

// OrderSide is the side of a trade.
type OrderSide string

const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// OrderType distinguishes resting from immediate orders.
type OrderType string

const (
	TypeLimit  OrderType = "limit"
	TypeMarket OrderType = "market"
)

// InstrumentInfo carries per-pair precision and minimum constraints as
// reported by the venue. Loaded once per cycle and never mutated here.
type InstrumentInfo struct {
	Symbol          string
	AmountPrecision int     // decimal places for base size rounding
	PricePrecision  int     // decimal places for price rounding
	MinAmount       float64 // smallest accepted base size
	MinNotional     float64 // smallest accepted price*size (quote)
	MakerFee        float64 // fractional, e.g. 0.0016
	TakerFee        float64 // fractional, e.g. 0.0026
}

// Ticker is the best bid/ask snapshot for one symbol.
type Ticker struct {
	Symbol string
	Bid    float64
	Ask    float64
}

// BalanceEntry reports one currency's balance. Free is zero on venues that
// do not split free/total (see ReportsFreeBalance).
type BalanceEntry struct {
	Free  float64
	Total float64
}

// OpenOrder is a normalized view of a resting order on the venue.
type OpenOrder struct {
	ID        string
	Symbol    string
	Side      OrderSide
	Type      OrderType
	Price     float64
	Amount    float64
	CreatedAt time.Time
}

// OrderRecord is the venue acknowledgement for a placed order.
type OrderRecord struct {
	ID        string
	Symbol    string
	Side      OrderSide
	Type      OrderType
	Price     float64
	Amount    float64
	CreatedAt time.Time
}

// IntentKind tags the OrderIntent union.
type IntentKind int

const (
	IntentLimitBuy IntentKind = iota
	IntentMarketBuy
	IntentCancel
)

// String implements fmt.Stringer for pretty logging.
func (k IntentKind) String() string {
	switch k {
	case IntentLimitBuy:
		return "limit_buy"
	case IntentMarketBuy:
		return "market_buy"
	case IntentCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// OrderIntent is the single work unit flowing from the engine to the
// submission path. Exactly one variant is populated per Kind:
//   • IntentLimitBuy:  Symbol, Price, Size, optional ExtraParams
//   • IntentMarketBuy: Symbol, QuoteSpend, Size (venues pick whichever
//     their market-order API takes)
//   • IntentCancel:    Symbol, optional OrderID (empty means cancel-all
//     for the symbol, valid only when the venue supports it)
type OrderIntent struct {
	Kind       IntentKind
	Symbol     string
	Price      float64
	Size       float64
	QuoteSpend float64
	OrderID    string
	// ExtraParams passes venue-specific order options verbatim, e.g. an
	// attached take-profit close order on Kraken.
	ExtraParams map[string]string
}

// ExchangeAdapter is the minimal surface the bot needs from a venue.
type ExchangeAdapter interface {
	Name() string
	LoadMarkets(ctx context.Context) (map[string]InstrumentInfo, error)
	FetchTicker(ctx context.Context, symbol string) (Ticker, error)
	FetchBalance(ctx context.Context) (map[string]BalanceEntry, error)
	FetchOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error)
	CreateOrder(ctx context.Context, intent OrderIntent) (*OrderRecord, error)
	CancelOrder(ctx context.Context, id, symbol string) error
	CancelAllOrders(ctx context.Context, symbol string) error
	FetchCandles(ctx context.Context, symbol string, interval time.Duration, limit int) ([]Candle, error)
	// FetchTransfers reports the net external movement (deposits minus
	// withdrawals) of one currency since the given time, in currency units.
	FetchTransfers(ctx context.Context, currency string, since time.Time) (float64, error)

	// HasCancelAll reports whether CancelAllOrders is supported natively;
	// when false the reconciler emits one cancel per order id.
	HasCancelAll() bool
	// ReportsFreeBalance reports whether FetchBalance distinguishes free
	// from total. When false callers must derive free from Total minus the
	// notional held by resting buy orders.
	ReportsFreeBalance() bool
}
