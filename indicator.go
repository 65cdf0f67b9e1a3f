// FILE: indicator.go
// Package main – Oscillator sources (external taapi.io or local).
//
// IndicatorSource is the port the scheduler's refresh trigger consumes.
// Two implementations:
//   • TaapiClient    – taapi.io REST client (resty, retries on 429)
//   • LocalRSISource – Wilder RSI over the venue's own candles, used when
//     no TAAPI_SECRET is configured
package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// IndicatorSource produces the latest oscillator reading for a symbol.
type IndicatorSource interface {
	Oscillator(ctx context.Context, symbol string) (float64, error)
}

// ---- taapi.io ----

// TaapiClient queries taapi.io for RSI values. taapi free-tier rate limits
// are aggressive, so the client honors Retry-After on 429 and the caller
// additionally paces requests between symbols.
type TaapiClient struct {
	client    *resty.Client
	secret    string
	venue     string
	timeframe string
	period    int
}

func NewTaapiClientFromEnv() *TaapiClient {
	c := resty.New().
		SetBaseURL(getEnv("TAAPI_BASE", "https://api.taapi.io")).
		SetTimeout(30 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(2 * time.Second).
		SetRetryMaxWaitTime(30 * time.Second).
		SetRetryAfter(func(client *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp.StatusCode() == 429 {
				if ra := resp.Header().Get("Retry-After"); ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						return time.Duration(secs) * time.Second, nil
					}
				}
				return 10 * time.Second, nil
			}
			return 0, nil
		})
	return &TaapiClient{
		client:    c,
		secret:    getEnv("TAAPI_SECRET", ""),
		venue:     getEnv("TAAPI_VENUE", "binance"),
		timeframe: getEnv("TAAPI_TIMEFRAME", "1h"),
		period:    getEnvInt("TAAPI_PERIOD", 14),
	}
}

// Configured reports whether a taapi secret is present.
func (t *TaapiClient) Configured() bool { return t.secret != "" }

func (t *TaapiClient) Oscillator(ctx context.Context, symbol string) (float64, error) {
	var payload struct {
		Value float64 `json:"value"`
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"secret":          t.secret,
			"exchange":        t.venue,
			"symbol":          symbol,
			"interval":        t.timeframe,
			"optInTimePeriod": strconv.Itoa(t.period),
		}).
		SetResult(&payload).
		Get("/rsi")
	if err != nil {
		return 0, errors.Wrapf(err, "taapi rsi %s", symbol)
	}
	if resp.IsError() {
		return 0, errors.Errorf("taapi rsi %s: %d %s", symbol, resp.StatusCode(), resp.String())
	}
	return payload.Value, nil
}

// ---- local fallback ----

// LocalRSISource computes RSI from the venue's own candles.
type LocalRSISource struct {
	adapter  ExchangeAdapter
	interval time.Duration
	period   int
}

func NewLocalRSISource(adapter ExchangeAdapter) *LocalRSISource {
	return &LocalRSISource{
		adapter:  adapter,
		interval: time.Duration(getEnvInt("RSI_CANDLE_MINUTES", 60)) * time.Minute,
		period:   getEnvInt("RSI_PERIOD", 14),
	}
}

func (l *LocalRSISource) Oscillator(ctx context.Context, symbol string) (float64, error) {
	limit := l.period*3 + 1
	candles, err := l.adapter.FetchCandles(ctx, symbol, l.interval, limit)
	if err != nil {
		return 0, errors.Wrapf(err, "fetch candles %s", symbol)
	}
	if len(candles) <= l.period {
		return 0, fmt.Errorf("not enough candles for %s: got %d, need > %d", symbol, len(candles), l.period)
	}
	values := RSI(candles, l.period)
	return values[len(values)-1], nil
}
