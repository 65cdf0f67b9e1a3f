// FILE: exchange_paper_test.go
package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaperFreeBalanceExcludesRestingBuys(t *testing.T) {
	t.Setenv("PAPER_QUOTE_BALANCE", "1000")
	p := NewPaperAdapter([]string{"BTC/GBP"}, "GBP")
	ctx := context.Background()

	_, err := p.CreateOrder(ctx, OrderIntent{Kind: IntentLimitBuy, Symbol: "BTC/GBP", Price: 90, Size: 2})
	require.NoError(t, err)

	balances, err := p.FetchBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, balances["GBP"].Total)
	assert.Equal(t, 820.0, balances["GBP"].Free, "180 locked by the resting limit")
}

func TestPaperMarketBuyDeductsQuote(t *testing.T) {
	t.Setenv("PAPER_QUOTE_BALANCE", "1000")
	p := NewPaperAdapter([]string{"BTC/GBP"}, "GBP")
	ctx := context.Background()

	rec, err := p.CreateOrder(ctx, OrderIntent{Kind: IntentMarketBuy, Symbol: "BTC/GBP", QuoteSpend: 250})
	require.NoError(t, err)
	assert.Equal(t, TypeMarket, rec.Type)

	balances, err := p.FetchBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, 750.0, balances["GBP"].Total)

	_, err = p.CreateOrder(ctx, OrderIntent{Kind: IntentMarketBuy, Symbol: "BTC/GBP", QuoteSpend: 900})
	assert.Error(t, err, "overspend rejected")
}

func TestPaperCancelAllScopesToSymbol(t *testing.T) {
	p := NewPaperAdapter([]string{"BTC/GBP", "ETH/GBP"}, "GBP")
	ctx := context.Background()

	for _, sym := range []string{"BTC/GBP", "BTC/GBP", "ETH/GBP"} {
		_, err := p.CreateOrder(ctx, OrderIntent{Kind: IntentLimitBuy, Symbol: sym, Price: 90, Size: 0.1})
		require.NoError(t, err)
	}

	require.NoError(t, p.CancelAllOrders(ctx, "BTC/GBP"))
	open, err := p.FetchOpenOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "ETH/GBP", open[0].Symbol)
}

func TestPaperCancelOrderByID(t *testing.T) {
	p := NewPaperAdapter([]string{"BTC/GBP"}, "GBP")
	ctx := context.Background()

	rec, err := p.CreateOrder(ctx, OrderIntent{Kind: IntentLimitBuy, Symbol: "BTC/GBP", Price: 90, Size: 0.1})
	require.NoError(t, err)
	require.NoError(t, p.CancelOrder(ctx, rec.ID, "BTC/GBP"))
	assert.Error(t, p.CancelOrder(ctx, rec.ID, "BTC/GBP"), "second cancel fails")

	open, err := p.FetchOpenOrders(ctx, "BTC/GBP")
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestPaperCandlesOldestFirst(t *testing.T) {
	p := NewPaperAdapter([]string{"BTC/GBP"}, "GBP")
	candles, err := p.FetchCandles(context.Background(), "BTC/GBP", time.Hour, 50)
	require.NoError(t, err)
	require.Len(t, candles, 50)
	for i := 1; i < len(candles); i++ {
		assert.Equal(t, time.Hour, candles[i].Time.Sub(candles[i-1].Time))
	}
	for _, c := range candles {
		assert.Greater(t, c.Close, 0.0)
	}
}
