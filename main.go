// FILE: main.go
// Package main – Program entrypoint and HTTP/metrics server.
//
// Boot sequence:
//   1) loadBotEnv()            – read .env (no shell exports required)
//   2) initLogging()           – logrus level/rotation from env
//   3) cfg := loadConfig(path) – instrument scope + schedule from YAML
//   4) wire adapter/oscillator/trader/reporter
//   5) start Prometheus /healthz server on cfg.Port
//   6) prime the trend cache, then hand control to the scheduler
//
// Flags:
//   -config <path>   YAML config (default dca.yaml)
//   -sandbox         Suppress venue writes, log "would submit" instead
//   -dca             Run one market-entry cycle immediately at boot
//   -dip             Run one ladder-reset cycle immediately at boot
//
// Example:
//   go run . -config dca.yaml -sandbox -dip

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

func main() {
	// ---- Flags ----
	var configPath string
	var sandbox, manualDCA, manualDip bool
	flag.StringVar(&configPath, "config", "dca.yaml", "Path to YAML config")
	flag.BoolVar(&sandbox, "sandbox", false, "Suppress all venue write calls")
	flag.BoolVar(&manualDCA, "dca", false, "Run one market-entry cycle at boot")
	flag.BoolVar(&manualDip, "dip", false, "Run one ladder-reset cycle at boot")
	flag.Parse()

	// ---- Environment & Config ----
	loadBotEnv()
	initLogging()
	cfg, err := loadConfig(configPath)
	if err != nil {
		log.Fatalf("[BOOT] config: %v", err)
	}
	if sandbox {
		cfg.Sandbox = true
	}

	// ---- Adapter wiring ----
	var adapter ExchangeAdapter
	switch strings.ToLower(cfg.Exchange) {
	case "kraken":
		adapter, err = NewKrakenAdapterFromEnv()
	case "binance":
		adapter, err = NewBinanceAdapterFromEnv()
	default:
		adapter = NewPaperAdapter(cfg.Symbols(), cfg.QuoteCurrency)
	}
	if err != nil {
		log.Fatalf("[BOOT] %s adapter init: %v", cfg.Exchange, err)
	}

	// ---- Oscillator wiring ----
	var osc IndicatorSource
	if taapi := NewTaapiClientFromEnv(); taapi.Configured() {
		osc = taapi
		log.Info("[BOOT] oscillator source: taapi.io")
	} else {
		osc = NewLocalRSISource(adapter)
		log.Infof("[BOOT] oscillator source: local RSI from %s candles", adapter.Name())
	}

	trader := NewTrader(cfg, adapter, osc)
	reporter := NewReporter(cfg, adapter, LogNotifier{})

	log.Infof("[BOOT] venue=%s quote=%s instruments=%v bins=%d band=[-%.1f%%..-%.1f%%] sandbox=%v",
		adapter.Name(), cfg.QuoteCurrency, cfg.Symbols(), cfg.BinCount,
		cfg.LowerBandPct1, cfg.LowerBandPct2, cfg.Sandbox)

	// ---- HTTP metrics/health ----
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: mux}
	go func() {
		log.Infof("[BOOT] serving metrics on :%d/metrics", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[BOOT] server: %v", err)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// ---- Warmup: prime the trend cache before the first boundary ----
	trader.RefreshIndicators(ctx)

	// ---- Manual one-shot modes ----
	if manualDCA {
		runCycle("dca", trader.DCACycle)(ctx, time.Now())
	}
	if manualDip {
		runCycle("ladder", trader.LadderCycle)(ctx, time.Now())
	}

	// ---- Schedule ----
	sched := NewScheduler()

	if n := cfg.Triggers.LadderEveryMin; n > 0 {
		sched.Add("ladder_reset", EveryNMinutes(n), runCycle("ladder", trader.LadderCycle))
	} else {
		sched.Add("ladder_reset", EveryNHours(cfg.Triggers.LadderEveryHours), runCycle("ladder", trader.LadderCycle))
	}
	if cfg.Triggers.DCADaily != "" {
		h, m, _ := parseClock(cfg.Triggers.DCADaily)
		sched.Add("daily_dca", DailyAt(h, m), runCycle("dca", trader.DCACycle))
	}
	minutes := cfg.Triggers.IndicatorMinutes
	if len(minutes) == 0 {
		minutes = []int{13, 43}
	}
	sched.Add("indicator_refresh", AtMinutes(minutes...), func(ctx context.Context, _ time.Time) {
		trader.RefreshIndicators(ctx)
	})
	if cfg.Triggers.ReportDaily != "" {
		h, m, _ := parseClock(cfg.Triggers.ReportDaily)
		sched.Add("daily_report", DailyAt(h, m), func(ctx context.Context, now time.Time) {
			if err := reporter.RunDaily(ctx, now); err != nil {
				log.Errorf("[REPORT] daily snapshot failed: %v", err)
			}
		})
	}
	if cfg.Triggers.NotifyDaily != "" {
		h, m, _ := parseClock(cfg.Triggers.NotifyDaily)
		sched.Add("daily_notify", DailyAt(h, m), func(ctx context.Context, now time.Time) {
			if err := reporter.NotifyDaily(ctx, now); err != nil {
				log.Errorf("[NOTIFY] daily notification failed: %v", err)
			}
		})
	}

	sched.Run(ctx)

	// ---- Graceful shutdown for HTTP server ----
	shutdownCtx, c := context.WithTimeout(context.Background(), 2*time.Second)
	defer c()
	_ = srv.Shutdown(shutdownCtx)
}

// runCycle adapts a pipeline cycle into a trigger action: the cycle aborts
// on collaborator failure, the scheduler keeps running, and the next
// boundary retries from scratch.
func runCycle(kind string, fn func(context.Context) error) TriggerAction {
	return func(ctx context.Context, _ time.Time) {
		if err := fn(ctx); err != nil {
			log.Errorf("[CYCLE] %s aborted: %v", kind, err)
			mtxCycles.WithLabelValues(kind, "error").Inc()
		}
	}
}
