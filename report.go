// FILE: report.go
// Package main – Daily portfolio snapshot and report rendering.
//
// Once a day the reporter values the portfolio at current bids, persists
// the snapshot to the logs directory, and diffs it against yesterday's
// file to produce a day-over-day summary. Rendering is plain placeholder
// substitution into template.html when one exists next to the binary; the
// delivery channel (email etc.) stays behind the Notifier port.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Snapshot is the persisted end-of-day state.
type Snapshot struct {
	Date           string             `json:"date"`
	PortfolioValue float64            `json:"portfolio_value"`
	Balances       map[string]float64 `json:"balances"` // per asset, totals
	Prices         map[string]float64 `json:"prices"`   // per symbol, bid
}

// DailyReport is the day-over-day summary derived from two snapshots.
// Transfers carries the net external movement of the quote currency over
// the same window, so a deposit does not read as a trading gain.
type DailyReport struct {
	Date           string             `json:"date"`
	PortfolioValue float64            `json:"portfolio_value"`
	PerAssetDelta  map[string]float64 `json:"per_asset_delta"`
	ValueDeltaAbs  float64            `json:"value_delta_abs"`
	ValueDeltaPct  float64            `json:"value_delta_pct"`
	Transfers      float64            `json:"transfers"`
}

// Notifier delivers a rendered report summary. Connectivity lives outside
// this repository; the default implementation just logs.
type Notifier interface {
	Notify(ctx context.Context, subject, body string) error
}

// LogNotifier writes notifications to the log stream.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, subject, body string) error {
	log.Infof("[NOTIFY] %s: %s", subject, body)
	return nil
}

// Reporter values the portfolio and maintains daily snapshot files.
type Reporter struct {
	cfg      *Config
	adapter  ExchangeAdapter
	notifier Notifier

	lastSummary string
}

func NewReporter(cfg *Config, adapter ExchangeAdapter, notifier Notifier) *Reporter {
	return &Reporter{cfg: cfg, adapter: adapter, notifier: notifier}
}

// RunDaily takes today's snapshot, diffs against yesterday when a file
// exists, and renders the report.
func (r *Reporter) RunDaily(ctx context.Context, now time.Time) error {
	snap, err := r.takeSnapshot(ctx, now)
	if err != nil {
		return err
	}
	if err := r.writeSnapshot(snap); err != nil {
		return err
	}
	mtxPortfolioValue.Set(snap.PortfolioValue)

	yesterday := now.AddDate(0, 0, -1).Format("2006-01-02")
	prev, err := r.readSnapshot(yesterday)
	if err != nil {
		log.Infof("[REPORT] no snapshot for %s yet, skipping delta", yesterday)
		r.lastSummary = fmt.Sprintf("%s portfolio value %.2f %s", snap.Date, snap.PortfolioValue, r.cfg.QuoteCurrency)
		return nil
	}

	transfers, err := r.adapter.FetchTransfers(ctx, r.cfg.QuoteCurrency, now.AddDate(0, 0, -1))
	if err != nil {
		log.Warnf("[REPORT] transfers lookup failed: %v", err)
		transfers = 0
	}

	report := diffSnapshots(prev, snap, transfers)
	r.lastSummary = fmt.Sprintf("%s portfolio value %.2f %s (%+.2f / %+.2f%% vs %s)",
		report.Date, report.PortfolioValue, r.cfg.QuoteCurrency,
		report.ValueDeltaAbs, report.ValueDeltaPct, prev.Date)
	log.Infof("[REPORT] %s", r.lastSummary)

	if err := r.renderHTML(report); err != nil {
		log.Warnf("[REPORT] html render failed: %v", err)
	}
	return nil
}

// NotifyDaily sends the most recent summary through the notifier.
func (r *Reporter) NotifyDaily(ctx context.Context, now time.Time) error {
	body := r.lastSummary
	if body == "" {
		body = "no report generated yet"
	}
	return r.notifier.Notify(ctx, "DCA bot daily summary", body)
}

func (r *Reporter) takeSnapshot(ctx context.Context, now time.Time) (*Snapshot, error) {
	balances, err := r.adapter.FetchBalance(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "fetch balance")
	}
	snap := &Snapshot{
		Date:     now.Format("2006-01-02"),
		Balances: make(map[string]float64),
		Prices:   make(map[string]float64),
	}
	quote := balances[r.cfg.QuoteCurrency]
	snap.Balances[r.cfg.QuoteCurrency] = quote.Total
	snap.PortfolioValue = quote.Total

	for _, sym := range r.cfg.Symbols() {
		base, _, _ := splitSymbol(sym)
		ticker, err := r.adapter.FetchTicker(ctx, sym)
		if err != nil {
			return nil, errors.Wrapf(err, "fetch ticker %s", sym)
		}
		held := balances[base].Total
		snap.Balances[base] = held
		snap.Prices[sym] = ticker.Bid
		snap.PortfolioValue += held * ticker.Bid
	}
	return snap, nil
}

func diffSnapshots(prev, cur *Snapshot, transfers float64) *DailyReport {
	report := &DailyReport{
		Date:           cur.Date,
		PortfolioValue: cur.PortfolioValue,
		PerAssetDelta:  make(map[string]float64),
		ValueDeltaAbs:  cur.PortfolioValue - prev.PortfolioValue,
		Transfers:      transfers,
	}
	if prev.PortfolioValue > 0 {
		report.ValueDeltaPct = report.ValueDeltaAbs / prev.PortfolioValue * 100
	}
	for asset, held := range cur.Balances {
		report.PerAssetDelta[asset] = held - prev.Balances[asset]
	}
	return report
}

// ---- persistence & rendering ----

func (r *Reporter) snapshotPath(date string) string {
	return filepath.Join(r.cfg.LogsDir, "snapshot_"+date+".json")
}

func (r *Reporter) writeSnapshot(snap *Snapshot) error {
	if err := os.MkdirAll(r.cfg.LogsDir, 0o755); err != nil {
		return errors.Wrap(err, "create logs dir")
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(r.snapshotPath(snap.Date), data, 0o644), "write snapshot")
}

func (r *Reporter) readSnapshot(date string) (*Snapshot, error) {
	data, err := os.ReadFile(r.snapshotPath(date))
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.Wrapf(err, "decode snapshot %s", date)
	}
	return &snap, nil
}

// renderHTML substitutes the report into template.html, writing the result
// under the logs directory. Missing template means rendering is off.
func (r *Reporter) renderHTML(report *DailyReport) error {
	tmplPath := getEnv("REPORT_TEMPLATE", "template.html")
	tmpl, err := os.ReadFile(tmplPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	html := strings.ReplaceAll(string(tmpl), "{{data}}", string(payload))
	html = strings.ReplaceAll(html, "{{date}}", report.Date)
	out := filepath.Join(r.cfg.LogsDir, "report_"+report.Date+".html")
	return errors.Wrap(os.WriteFile(out, []byte(html), 0o644), "write html report")
}
