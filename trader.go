// FILE: trader.go
// Package main – The DCA pipeline: reconcile → allocate → classify → build → submit.
//
// What's here:
//   • Trader: holds config, the venue adapter, the oscillator source, and
//     the per-instrument trend cache
//   • LadderCycle(): cancel stale buy limits, size per-instrument budgets,
//     pick a weighting scheme, lay fresh ladders ("dip nets")
//   • DCACycle(): fixed-budget daily market entries
//   • RefreshIndicators(): updates the trend cache between cycles
//
// Concurrency design:
//   - Everything runs on the scheduler's single timeline; stages within a
//     cycle are sequential because later stages depend on the side effects
//     (cancellations, freed balance) of earlier ones.
//   - Instruments are processed one at a time in configured order so that
//     budget consumption is tracked correctly, with a pacing delay between
//     venue write calls to respect external rate limits.
//
// Failure model:
//   - Venue/indicator errors abort the cycle; the process and scheduler
//     keep running and the next boundary retries from scratch.
//   - Validation rejections (thin bins, reserve over balance) are logged
//     and skipped, never fatal.

package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Trader orchestrates one venue's DCA pipeline.
type Trader struct {
	cfg     *Config
	adapter ExchangeAdapter
	osc     IndicatorSource

	// Trend cache, written only by RefreshIndicators and read by
	// LadderCycle on the same scheduler timeline.
	rangeBound map[string]bool
	scheme     map[string]WeightScheme
}

func NewTrader(cfg *Config, adapter ExchangeAdapter, osc IndicatorSource) *Trader {
	return &Trader{
		cfg:        cfg,
		adapter:    adapter,
		osc:        osc,
		rangeBound: make(map[string]bool),
		scheme:     make(map[string]WeightScheme),
	}
}

// RefreshIndicators pulls a fresh oscillator reading per instrument and
// updates the range-bound/scheme cache. A failed read leaves the previous
// cached entry in place.
func (t *Trader) RefreshIndicators(ctx context.Context) {
	paceSec := getEnvInt("INDICATOR_PACE_SEC", 61)
	for i, sym := range t.cfg.Symbols() {
		if i > 0 && paceSec > 0 {
			if !sleepCtx(ctx, time.Duration(paceSec)*time.Second) {
				return
			}
		}
		value, err := t.osc.Oscillator(ctx, sym)
		if err != nil {
			log.Warnf("[TREND] %s oscillator read failed: %v", sym, err)
			continue
		}
		t.rangeBound[sym] = RangeBound(value)
		t.scheme[sym] = ClassifyTrend(value)
		mtxOscillator.WithLabelValues(sym).Set(value)
		log.Infof("[TREND] %s rsi=%.2f range_bound=%v scheme=%s", sym, value, t.rangeBound[sym], t.scheme[sym])
	}
	mtxIndicatorRefreshes.Inc()
}

// LadderCycle resets the dip nets: cancel resting buy limits, re-allocate
// the freed balance, and lay a fresh ladder per range-bound instrument.
func (t *Trader) LadderCycle(ctx context.Context) error {
	// 1) Reconcile: stale buy limits lock quote funds and must be gone
	// before the balance read below.
	for _, sym := range t.cfg.Symbols() {
		if !t.rangeBound[sym] {
			log.Infof("[LADDER] %s is not range bound, leaving orders in place", sym)
			continue
		}
		open, err := t.adapter.FetchOpenOrders(ctx, sym)
		if err != nil {
			return errors.Wrapf(err, "fetch open orders %s", sym)
		}
		cancels := Reconcile(open, t.adapter.HasCancelAll())
		log.Infof("[LADDER] %s: %d open orders, %d cancel intents", sym, len(open), len(cancels))
		if err := t.submit(ctx, cancels); err != nil {
			return err
		}
	}

	// 2) Allocate from the venue's view of the quote balance.
	markets, err := t.adapter.LoadMarkets(ctx)
	if err != nil {
		return errors.Wrap(err, "load markets")
	}
	available, err := t.availableQuote(ctx)
	if err != nil {
		return err
	}
	budgetsAbs, reserve := t.cfg.BudgetsAbs()

	var budgets map[string]float64
	switch t.cfg.Allocation {
	case "equal_capped":
		budgets = AllocateEqualCapped(available, t.cfg.Symbols(), t.cfg.Caps(), markets)
	default:
		budgets = AllocateResidual(available, reserve, budgetsAbs, markets)
	}
	if budgets == nil {
		log.Warnf("[LADDER] insufficient free %s to ladder: balance=%.2f reserve=%.2f",
			t.cfg.QuoteCurrency, available, reserve)
		mtxCycles.WithLabelValues("ladder", "skipped").Inc()
		return nil
	}

	// 3) Per instrument: classify, band, build, submit.
	for _, inst := range t.cfg.Instruments {
		sym := inst.Symbol
		if !t.rangeBound[sym] {
			continue
		}
		info, ok := markets[sym]
		if !ok {
			log.Warnf("[LADDER] %s not in venue markets, skipping", sym)
			continue
		}
		budget := budgets[sym]
		if t.cfg.Allocation != "equal_capped" && inst.MaxBudget > 0 && budget > inst.MaxBudget {
			budget = inst.MaxBudget
		}
		mtxBudget.WithLabelValues(sym).Set(budget)

		ticker, err := t.adapter.FetchTicker(ctx, sym)
		if err != nil {
			return errors.Wrapf(err, "fetch ticker %s", sym)
		}
		band := PriceBand{
			Start: ticker.Bid * (1 - t.cfg.LowerBandPct1/100),
			End:   ticker.Bid * (1 - t.cfg.LowerBandPct2/100),
		}
		scheme, ok := t.scheme[sym]
		if !ok {
			scheme = SchemeFlat
		}

		intents, rejects := BuildLadder(band, t.cfg.BinCount, info, budget, scheme)
		for _, r := range rejects {
			log.Warnf("[LADDER] %s bin %d rejected: %s", sym, r.Bin, r.Reason)
			mtxBinRejects.WithLabelValues(r.Code).Inc()
		}
		t.attachCloseOrders(intents, info)

		log.Infof("[LADDER] %s: budget=%.2f scheme=%s band=[%.8g..%.8g] orders=%d",
			sym, budget, scheme, band.Start, band.End, len(intents))
		if err := t.submit(ctx, intents); err != nil {
			return err
		}
	}
	mtxCycles.WithLabelValues("ladder", "ok").Inc()
	return nil
}

// DCACycle places the fixed-budget market entries. The whole cycle is
// skipped when the combined reserve exceeds the available balance.
func (t *Trader) DCACycle(ctx context.Context) error {
	markets, err := t.adapter.LoadMarkets(ctx)
	if err != nil {
		return errors.Wrap(err, "load markets")
	}
	available, err := t.availableQuote(ctx)
	if err != nil {
		return err
	}
	_, reserve := t.cfg.BudgetsAbs()
	if reserve > available {
		log.Warnf("[DCA] insufficient free %s to DCA: balance=%.2f reserve=%.2f",
			t.cfg.QuoteCurrency, available, reserve)
		mtxCycles.WithLabelValues("dca", "skipped").Inc()
		return nil
	}

	for _, inst := range t.cfg.Instruments {
		if inst.BudgetAbs <= 0 {
			continue
		}
		info, ok := markets[inst.Symbol]
		if !ok {
			log.Warnf("[DCA] %s not in venue markets, skipping", inst.Symbol)
			continue
		}
		ticker, err := t.adapter.FetchTicker(ctx, inst.Symbol)
		if err != nil {
			return errors.Wrapf(err, "fetch ticker %s", inst.Symbol)
		}
		intent, reject := SizeMarketBuy(info, inst.BudgetAbs, ticker.Ask)
		if intent == nil {
			log.Warnf("[DCA] %s: %s", inst.Symbol, reject)
			continue
		}
		if err := t.submit(ctx, []OrderIntent{*intent}); err != nil {
			return err
		}
	}
	mtxCycles.WithLabelValues("dca", "ok").Inc()
	return nil
}

// submit sends intents to the venue one at a time with a pacing delay
// between write calls. In sandbox mode nothing is sent; every intent is
// logged as "would submit".
func (t *Trader) submit(ctx context.Context, intents []OrderIntent) error {
	mode := "live"
	if t.cfg.Sandbox {
		mode = "sandbox"
	}
	for i, intent := range intents {
		if i > 0 && t.cfg.PaceMs > 0 {
			if !sleepCtx(ctx, time.Duration(t.cfg.PaceMs)*time.Millisecond) {
				return ctx.Err()
			}
		}
		if t.cfg.Sandbox {
			log.Infof("[SANDBOX] would submit %s %s", intent.Kind, describeIntent(intent))
			t.countIntent(mode, intent)
			continue
		}
		switch intent.Kind {
		case IntentLimitBuy, IntentMarketBuy:
			rec, err := t.adapter.CreateOrder(ctx, intent)
			if err != nil {
				return errors.Wrapf(err, "create order %s", intent.Symbol)
			}
			log.Infof("[ORDER] %s %s id=%s", intent.Kind, describeIntent(intent), rec.ID)
		case IntentCancel:
			if intent.OrderID == "" {
				if err := t.adapter.CancelAllOrders(ctx, intent.Symbol); err != nil {
					return errors.Wrapf(err, "cancel all %s", intent.Symbol)
				}
			} else if err := t.adapter.CancelOrder(ctx, intent.OrderID, intent.Symbol); err != nil {
				return errors.Wrapf(err, "cancel %s %s", intent.Symbol, intent.OrderID)
			}
			log.Infof("[ORDER] cancel %s", describeIntent(intent))
		default:
			return fmt.Errorf("unknown intent kind %d", intent.Kind)
		}
		t.countIntent(mode, intent)
	}
	return nil
}

func (t *Trader) countIntent(mode string, intent OrderIntent) {
	if intent.Kind == IntentCancel {
		mtxCancels.WithLabelValues(mode).Inc()
		return
	}
	mtxOrders.WithLabelValues(mode, intent.Kind.String()).Inc()
}

// availableQuote reads the quote-currency balance, preferring the free
// figure when the venue reports one. On totals-only venues the notional
// still locked in resting buy limits is subtracted, so the figure is safe
// for both the ladder cycle (which cancels first anyway) and the market
// cycle (which cancels nothing).
func (t *Trader) availableQuote(ctx context.Context) (float64, error) {
	balances, err := t.adapter.FetchBalance(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "fetch balance")
	}
	entry := balances[t.cfg.QuoteCurrency]
	if t.adapter.ReportsFreeBalance() {
		return entry.Free, nil
	}
	open, err := t.adapter.FetchOpenOrders(ctx, "")
	if err != nil {
		return 0, errors.Wrap(err, "fetch open orders")
	}
	var locked float64
	for _, o := range open {
		if o.Side == SideBuy && o.Type == TypeLimit {
			locked += o.Price * o.Amount
		}
	}
	free := entry.Total - locked
	if free < 0 {
		free = 0
	}
	return free, nil
}

// attachCloseOrders decorates limit buys with an attached take-profit
// close order, on venues that accept one inline (Kraken's close[...]
// params). A no-op when sell_margin_pc is unset.
func (t *Trader) attachCloseOrders(intents []OrderIntent, info InstrumentInfo) {
	if t.cfg.SellMarginPct <= 0 || t.adapter.Name() != "kraken" {
		return
	}
	for i := range intents {
		if intents[i].Kind != IntentLimitBuy {
			continue
		}
		closePrice := floorTo(intents[i].Price*(1+t.cfg.SellMarginPct/100), info.PricePrecision)
		intents[i].ExtraParams = map[string]string{
			"close[ordertype]": "limit",
			"close[price]":     strconv.FormatFloat(closePrice, 'f', -1, 64),
		}
	}
}

func describeIntent(intent OrderIntent) string {
	switch intent.Kind {
	case IntentLimitBuy:
		return fmt.Sprintf("%s size=%v price=%v", intent.Symbol, intent.Size, intent.Price)
	case IntentMarketBuy:
		return fmt.Sprintf("%s spend=%v", intent.Symbol, intent.QuoteSpend)
	default:
		if intent.OrderID == "" {
			return fmt.Sprintf("%s (all)", intent.Symbol)
		}
		return fmt.Sprintf("%s id=%s", intent.Symbol, intent.OrderID)
	}
}

// sleepCtx sleeps for d unless ctx is cancelled first; returns false on
// cancellation.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
