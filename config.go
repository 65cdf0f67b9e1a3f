// FILE: config.go
// Package main – Runtime configuration model and loader.
//
// The instrument scope and schedule live in a YAML file (default dca.yaml);
// credentials and ops knobs come from the environment (see env.go). The
// file is read once at startup — edit and restart to change behavior.
//
// Typical flow (see main.go):
//   loadBotEnv()
//   cfg, err := loadConfig(*configPath)
//
// Validation here is deliberately strict: a malformed scope (unknown quote,
// duplicate symbol, inverted band offsets) is a startup-fatal error rather
// than a silently-undefined budget at 3am.

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// InstrumentConfig scopes one traded pair.
type InstrumentConfig struct {
	Symbol    string  `yaml:"symbol"`     // e.g. "BTC/GBP"
	BudgetAbs float64 `yaml:"budget_abs"` // fixed quote reserve for daily market DCA
	MaxBudget float64 `yaml:"max_budget"` // optional per-instrument ladder cap (0 = none)
}

// TriggerConfig holds the wall-clock schedule.
type TriggerConfig struct {
	LadderEveryMin   int    `yaml:"ladder_every_min"`   // re-ladder every N minutes (0 = use hours)
	LadderEveryHours int    `yaml:"ladder_every_hours"` // re-ladder at the top of every N-th hour
	DCADaily         string `yaml:"dca_daily"`          // "HH:MM" daily market-entry time ("" = off)
	IndicatorMinutes []int  `yaml:"indicator_minutes"`  // minutes-of-hour to refresh RSI
	ReportDaily      string `yaml:"report_daily"`       // "HH:MM" daily snapshot ("" = off)
	NotifyDaily      string `yaml:"notify_daily"`       // "HH:MM" daily notification ("" = off)
}

// Config holds all runtime knobs.
type Config struct {
	Exchange      string             `yaml:"exchange"`       // kraken | binance | paper
	QuoteCurrency string             `yaml:"quote_currency"` // e.g. "GBP"
	Instruments   []InstrumentConfig `yaml:"instruments"`    // processed in listed order
	BinCount      int                `yaml:"bin_count"`
	LowerBandPct1 float64            `yaml:"price_lowerb_pc1"` // band start offset below bid (%)
	LowerBandPct2 float64            `yaml:"price_lowerb_pc2"` // band end offset below bid (%)
	SellMarginPct float64            `yaml:"sell_margin_pc"`   // attached take-profit margin (%; 0 = off)
	Allocation    string             `yaml:"allocation"`       // residual | equal_capped
	Triggers      TriggerConfig      `yaml:"triggers"`
	PaceMs        int                `yaml:"pace_ms"` // delay between venue write calls

	// Ops (env-only)
	Sandbox bool
	Port    int
	LogsDir string
}

// loadConfig reads and validates the YAML config, then applies env-only
// overrides. All errors here are startup-fatal by design.
func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := &Config{
		BinCount:   5,
		Allocation: "residual",
		PaceMs:     500,
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Sandbox = getEnvBool("SANDBOX", false)
	cfg.Port = getEnvInt("PORT", 8080)
	cfg.LogsDir = getEnv("LOGS_DIR", "logs")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Exchange) {
	case "kraken", "binance", "paper":
	default:
		return fmt.Errorf("unsupported exchange %q", c.Exchange)
	}
	if c.QuoteCurrency == "" {
		return fmt.Errorf("quote_currency is required")
	}
	if len(c.Instruments) == 0 {
		return fmt.Errorf("at least one instrument is required")
	}
	seen := make(map[string]bool)
	for _, inst := range c.Instruments {
		base, quote, ok := splitSymbol(inst.Symbol)
		if !ok || base == "" {
			return fmt.Errorf("malformed symbol %q (want BASE/QUOTE)", inst.Symbol)
		}
		if quote != c.QuoteCurrency {
			return fmt.Errorf("symbol %q does not trade against quote currency %s", inst.Symbol, c.QuoteCurrency)
		}
		if seen[inst.Symbol] {
			return fmt.Errorf("duplicate symbol %q", inst.Symbol)
		}
		seen[inst.Symbol] = true
		if inst.BudgetAbs < 0 || inst.MaxBudget < 0 {
			return fmt.Errorf("negative budget for %q", inst.Symbol)
		}
	}
	if c.BinCount < 1 {
		return fmt.Errorf("bin_count must be >= 1")
	}
	if c.LowerBandPct1 < 0 || c.LowerBandPct2 <= c.LowerBandPct1 {
		return fmt.Errorf("band offsets must satisfy 0 <= price_lowerb_pc1 < price_lowerb_pc2")
	}
	switch c.Allocation {
	case "residual", "equal_capped":
	default:
		return fmt.Errorf("unknown allocation policy %q", c.Allocation)
	}
	if c.Triggers.LadderEveryMin <= 0 && c.Triggers.LadderEveryHours <= 0 {
		return fmt.Errorf("one of triggers.ladder_every_min or triggers.ladder_every_hours is required")
	}
	for _, t := range []string{c.Triggers.DCADaily, c.Triggers.ReportDaily, c.Triggers.NotifyDaily} {
		if t == "" {
			continue
		}
		if _, _, err := parseClock(t); err != nil {
			return err
		}
	}
	return nil
}

// Symbols returns the configured instrument ids in listed order.
func (c *Config) Symbols() []string {
	out := make([]string, 0, len(c.Instruments))
	for _, inst := range c.Instruments {
		out = append(out, inst.Symbol)
	}
	return out
}

// BudgetsAbs returns the per-instrument fixed DCA reserves and their sum.
func (c *Config) BudgetsAbs() (map[string]float64, float64) {
	out := make(map[string]float64, len(c.Instruments))
	var sum float64
	for _, inst := range c.Instruments {
		out[inst.Symbol] = inst.BudgetAbs
		sum += inst.BudgetAbs
	}
	return out, sum
}

// Caps returns the per-instrument ladder caps (zero = uncapped).
func (c *Config) Caps() map[string]float64 {
	out := make(map[string]float64, len(c.Instruments))
	for _, inst := range c.Instruments {
		out[inst.Symbol] = inst.MaxBudget
	}
	return out
}

// parseClock parses "HH:MM" into hour and minute.
func parseClock(s string) (int, int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed clock time %q (want HH:MM)", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, fmt.Errorf("malformed clock time %q (want HH:MM)", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("malformed clock time %q (want HH:MM)", s)
	}
	return h, m, nil
}

// splitSymbol splits "BTC/GBP" into ("BTC", "GBP").
func splitSymbol(symbol string) (base, quote string, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(symbol), "/", 2)
	if len(parts) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), true
}
