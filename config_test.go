// FILE: config_test.go
package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
exchange: kraken
quote_currency: GBP
bin_count: 5
price_lowerb_pc1: 5
price_lowerb_pc2: 10
sell_margin_pc: 1
allocation: residual
pace_ms: 100
instruments:
  - symbol: BTC/GBP
    budget_abs: 300
  - symbol: ETH/GBP
    budget_abs: 200
    max_budget: 400
triggers:
  ladder_every_min: 5
  dca_daily: "17:00"
  indicator_minutes: [13, 43]
  report_daily: "22:08"
  notify_daily: "05:30"
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dca.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := loadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, "kraken", cfg.Exchange)
	assert.Equal(t, []string{"BTC/GBP", "ETH/GBP"}, cfg.Symbols())

	budgets, reserve := cfg.BudgetsAbs()
	assert.Equal(t, 500.0, reserve)
	assert.Equal(t, 300.0, budgets["BTC/GBP"])
	assert.Equal(t, 400.0, cfg.Caps()["ETH/GBP"])
	assert.Equal(t, 0.0, cfg.Caps()["BTC/GBP"])
}

func TestLoadConfigRejections(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown exchange", `
exchange: mtgox
quote_currency: GBP
price_lowerb_pc2: 10
instruments: [{symbol: BTC/GBP}]
triggers: {ladder_every_min: 5}
`},
		{"quote mismatch", `
exchange: kraken
quote_currency: GBP
price_lowerb_pc2: 10
instruments: [{symbol: BTC/USD}]
triggers: {ladder_every_min: 5}
`},
		{"duplicate symbol", `
exchange: kraken
quote_currency: GBP
price_lowerb_pc2: 10
instruments: [{symbol: BTC/GBP}, {symbol: BTC/GBP}]
triggers: {ladder_every_min: 5}
`},
		{"malformed symbol", `
exchange: kraken
quote_currency: GBP
price_lowerb_pc2: 10
instruments: [{symbol: BTCGBP}]
triggers: {ladder_every_min: 5}
`},
		{"inverted band", `
exchange: kraken
quote_currency: GBP
price_lowerb_pc1: 10
price_lowerb_pc2: 5
instruments: [{symbol: BTC/GBP}]
triggers: {ladder_every_min: 5}
`},
		{"no instruments", `
exchange: kraken
quote_currency: GBP
price_lowerb_pc2: 10
instruments: []
triggers: {ladder_every_min: 5}
`},
		{"no ladder trigger", `
exchange: kraken
quote_currency: GBP
price_lowerb_pc2: 10
instruments: [{symbol: BTC/GBP}]
triggers: {}
`},
		{"bad clock time", `
exchange: kraken
quote_currency: GBP
price_lowerb_pc2: 10
instruments: [{symbol: BTC/GBP}]
triggers: {ladder_every_min: 5, dca_daily: "25:00"}
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadConfig(writeConfig(t, tc.body))
			assert.Error(t, err)
		})
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := parseClock("17:05")
	require.NoError(t, err)
	assert.Equal(t, 17, h)
	assert.Equal(t, 5, m)

	for _, bad := range []string{"", "17", "17:60", "24:00", "ab:cd"} {
		_, _, err := parseClock(bad)
		assert.Error(t, err, bad)
	}
}

func TestSplitSymbol(t *testing.T) {
	base, quote, ok := splitSymbol("BTC/GBP")
	assert.True(t, ok)
	assert.Equal(t, "BTC", base)
	assert.Equal(t, "GBP", quote)

	_, _, ok = splitSymbol("BTCGBP")
	assert.False(t, ok)
}
