// FILE: exchange_paper.go
// Package main – In-memory sandbox adapter (no external calls).
//
// Simulates just enough venue behavior for dry runs: seeded balances,
// a mutable mark price per symbol, resting limit orders that the
// reconciler can find and cancel, and synthetic candles for the local
// RSI source. Orders here never touch an exchange.

package main

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PaperAdapter keeps all venue state in memory behind one mutex.
type PaperAdapter struct {
	mu       sync.Mutex
	symbols  []string
	quote    string
	prices   map[string]float64
	balances map[string]BalanceEntry
	open     []OpenOrder
}

func NewPaperAdapter(symbols []string, quoteCurrency string) *PaperAdapter {
	p := &PaperAdapter{
		symbols:  append([]string(nil), symbols...),
		quote:    quoteCurrency,
		prices:   make(map[string]float64),
		balances: make(map[string]BalanceEntry),
	}
	seed := getEnvFloat("PAPER_QUOTE_BALANCE", 10000)
	p.balances[quoteCurrency] = BalanceEntry{Free: seed, Total: seed}
	for _, sym := range symbols {
		p.prices[sym] = getEnvFloat("PAPER_PRICE", 100)
	}
	return p
}

func (p *PaperAdapter) Name() string             { return "paper" }
func (p *PaperAdapter) HasCancelAll() bool       { return true }
func (p *PaperAdapter) ReportsFreeBalance() bool { return true }

// SetPrice moves the mark price for a symbol (tests and simulations).
func (p *PaperAdapter) SetPrice(symbol string, price float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prices[symbol] = price
}

func (p *PaperAdapter) LoadMarkets(ctx context.Context) (map[string]InstrumentInfo, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]InstrumentInfo, len(p.symbols))
	for _, sym := range p.symbols {
		out[sym] = InstrumentInfo{
			Symbol:          sym,
			AmountPrecision: 8,
			PricePrecision:  2,
			MinAmount:       getEnvFloat("PAPER_MIN_AMOUNT", 0.0001),
			MinNotional:     getEnvFloat("PAPER_MIN_NOTIONAL", 5),
			MakerFee:        0.0016,
			TakerFee:        0.0026,
		}
	}
	return out, nil
}

func (p *PaperAdapter) FetchTicker(ctx context.Context, symbol string) (Ticker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	price, ok := p.prices[symbol]
	if !ok {
		return Ticker{}, errors.New("paper: unknown symbol " + symbol)
	}
	spread := price * 0.0005
	return Ticker{Symbol: symbol, Bid: price - spread, Ask: price + spread}, nil
}

// FetchBalance reports free as total minus the notional locked in resting
// buy limits, mirroring how a real venue holds funds against open orders.
func (p *PaperAdapter) FetchBalance(ctx context.Context) (map[string]BalanceEntry, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]BalanceEntry, len(p.balances))
	for cur, entry := range p.balances {
		out[cur] = entry
	}
	var locked float64
	for _, o := range p.open {
		if o.Side == SideBuy && o.Type == TypeLimit {
			locked += o.Price * o.Amount
		}
	}
	q := out[p.quote]
	q.Free = q.Total - locked
	if q.Free < 0 {
		q.Free = 0
	}
	out[p.quote] = q
	return out, nil
}

func (p *PaperAdapter) FetchOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []OpenOrder
	for _, o := range p.open {
		if symbol == "" || o.Symbol == symbol {
			out = append(out, o)
		}
	}
	return out, nil
}

func (p *PaperAdapter) CreateOrder(ctx context.Context, intent OrderIntent) (*OrderRecord, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	rec := &OrderRecord{
		ID:        uuid.New().String(),
		Symbol:    intent.Symbol,
		Side:      SideBuy,
		CreatedAt: time.Now().UTC(),
	}
	switch intent.Kind {
	case IntentLimitBuy:
		rec.Type = TypeLimit
		rec.Price = intent.Price
		rec.Amount = intent.Size
		p.open = append(p.open, OpenOrder{
			ID: rec.ID, Symbol: rec.Symbol, Side: SideBuy, Type: TypeLimit,
			Price: rec.Price, Amount: rec.Amount, CreatedAt: rec.CreatedAt,
		})
	case IntentMarketBuy:
		rec.Type = TypeMarket
		price := p.prices[intent.Symbol]
		if price <= 0 {
			return nil, errors.New("paper: no price for " + intent.Symbol)
		}
		rec.Price = price
		rec.Amount = intent.QuoteSpend / price
		q := p.balances[p.quote]
		if q.Total < intent.QuoteSpend {
			return nil, errors.New("paper: insufficient balance")
		}
		q.Total -= intent.QuoteSpend
		q.Free = q.Total
		p.balances[p.quote] = q
	default:
		return nil, errors.New("paper: cannot create intent kind " + intent.Kind.String())
	}
	return rec, nil
}

func (p *PaperAdapter) CancelOrder(ctx context.Context, id, symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, o := range p.open {
		if o.ID == id {
			p.open = append(p.open[:i], p.open[i+1:]...)
			return nil
		}
	}
	return errors.New("paper: unknown order " + id)
}

func (p *PaperAdapter) CancelAllOrders(ctx context.Context, symbol string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.open[:0]
	for _, o := range p.open {
		if o.Symbol != symbol {
			kept = append(kept, o)
		}
	}
	p.open = kept
	return nil
}

// FetchTransfers reports zero: nothing moves in or out of the sandbox.
func (p *PaperAdapter) FetchTransfers(ctx context.Context, currency string, since time.Time) (float64, error) {
	return 0, nil
}

// FetchCandles synthesizes a gentle random walk around the mark price so
// the local RSI source has something to chew on.
func (p *PaperAdapter) FetchCandles(ctx context.Context, symbol string, interval time.Duration, limit int) ([]Candle, error) {
	p.mu.Lock()
	price, ok := p.prices[symbol]
	p.mu.Unlock()
	if !ok {
		return nil, errors.New("paper: unknown symbol " + symbol)
	}
	if limit <= 0 {
		limit = 100
	}
	// oldest-first, walking backwards from the current mark
	now := time.Now().UTC().Truncate(interval)
	out := make([]Candle, limit)
	walk := price
	for i := limit - 1; i >= 0; i-- {
		out[i] = Candle{
			Time: now.Add(-time.Duration(limit-1-i) * interval),
			Open: walk, High: walk, Low: walk, Close: walk,
		}
		walk *= 1 + rand.NormFloat64()*0.002
	}
	return out, nil
}
