// FILE: report_test.go
package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTakeSnapshotValuesAtBid(t *testing.T) {
	t.Setenv("PAPER_QUOTE_BALANCE", "1000")
	cfg := testTraderConfig()
	cfg.LogsDir = t.TempDir()
	adapter := NewPaperAdapter(cfg.Symbols(), cfg.QuoteCurrency)
	r := NewReporter(cfg, adapter, LogNotifier{})

	snap, err := r.takeSnapshot(context.Background(), time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", snap.Date)
	assert.Equal(t, 1000.0, snap.Balances["GBP"])
	assert.Equal(t, 0.0, snap.Balances["BTC"], "no base holdings yet")
	assert.Equal(t, 1000.0, snap.PortfolioValue)
	assert.InDelta(t, 99.95, snap.Prices["BTC/GBP"], 0.001, "valued at bid")
}

func TestDiffSnapshots(t *testing.T) {
	prev := &Snapshot{
		Date:           "2024-03-14",
		PortfolioValue: 1000,
		Balances:       map[string]float64{"GBP": 800, "BTC": 0.002},
	}
	cur := &Snapshot{
		Date:           "2024-03-15",
		PortfolioValue: 1050,
		Balances:       map[string]float64{"GBP": 700, "BTC": 0.0035},
	}

	report := diffSnapshots(prev, cur, 25)
	assert.Equal(t, "2024-03-15", report.Date)
	assert.Equal(t, 50.0, report.ValueDeltaAbs)
	assert.Equal(t, 5.0, report.ValueDeltaPct)
	assert.Equal(t, -100.0, report.PerAssetDelta["GBP"])
	assert.InDelta(t, 0.0015, report.PerAssetDelta["BTC"], 1e-9)
	assert.Equal(t, 25.0, report.Transfers, "deposits reported alongside the raw delta")
}

func TestDiffSnapshotsZeroBaseline(t *testing.T) {
	report := diffSnapshots(&Snapshot{Balances: map[string]float64{}}, &Snapshot{
		Date:           "2024-03-15",
		PortfolioValue: 100,
		Balances:       map[string]float64{"GBP": 100},
	}, 0)
	assert.Equal(t, 100.0, report.ValueDeltaAbs)
	assert.Zero(t, report.ValueDeltaPct, "no percentage against an empty baseline")
}

func TestRunDailyPersistsAndDiffs(t *testing.T) {
	t.Setenv("PAPER_QUOTE_BALANCE", "1000")
	cfg := testTraderConfig()
	cfg.LogsDir = t.TempDir()
	adapter := NewPaperAdapter(cfg.Symbols(), cfg.QuoteCurrency)
	r := NewReporter(cfg, adapter, LogNotifier{})
	ctx := context.Background()

	day1 := time.Date(2024, 3, 15, 22, 0, 0, 0, time.UTC)
	require.NoError(t, r.RunDaily(ctx, day1))
	assert.FileExists(t, filepath.Join(cfg.LogsDir, "snapshot_2024-03-15.json"))
	assert.Contains(t, r.lastSummary, "2024-03-15")
	assert.NotContains(t, r.lastSummary, "vs", "first run has no baseline")

	require.NoError(t, r.RunDaily(ctx, day1.AddDate(0, 0, 1)))
	assert.FileExists(t, filepath.Join(cfg.LogsDir, "snapshot_2024-03-16.json"))
	assert.Contains(t, r.lastSummary, "vs 2024-03-15")

	require.NoError(t, r.NotifyDaily(ctx, day1))
}

func TestRenderHTML(t *testing.T) {
	dir := t.TempDir()
	tmpl := filepath.Join(dir, "template.html")
	require.NoError(t, os.WriteFile(tmpl, []byte("<h1>{{date}}</h1><script>load({{data}})</script>"), 0o644))
	t.Setenv("REPORT_TEMPLATE", tmpl)

	cfg := testTraderConfig()
	cfg.LogsDir = dir
	r := NewReporter(cfg, NewPaperAdapter(cfg.Symbols(), "GBP"), LogNotifier{})

	report := &DailyReport{Date: "2024-03-15", PortfolioValue: 1050}
	require.NoError(t, r.renderHTML(report))

	out, err := os.ReadFile(filepath.Join(dir, "report_2024-03-15.html"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1>2024-03-15</h1>")
	assert.Contains(t, string(out), `"portfolio_value":1050`)
}
