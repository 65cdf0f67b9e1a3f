// FILE: exchange_binance.go
// Package main – Binance spot REST adapter.
//
// Auth: X-MBX-APIKEY header plus an HMAC-SHA256 signature over the query
// string (timestamp included) appended as &signature=... on every signed
// call. Symbols: config uses "BTC/GBP"; the wire format is "BTCGBP".
//
// Unlike Kraken, Binance reports a free/locked balance split and supports
// bulk cancellation of all open orders on a symbol, so the reconciler can
// emit one grouped cancel per symbol here.

package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type BinanceAdapter struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	apiSecret string
	makerFee  float64
	takerFee  float64
}

func NewBinanceAdapterFromEnv() (*BinanceAdapter, error) {
	apiKey := getEnv("BINANCE_API_KEY", "")
	apiSecret := getEnv("BINANCE_API_SECRET", "")
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("BINANCE_API_KEY and BINANCE_API_SECRET must be set")
	}
	return &BinanceAdapter{
		client:    &http.Client{Timeout: 15 * time.Second},
		baseURL:   strings.TrimRight(getEnv("BINANCE_API_BASE", "https://api.binance.com"), "/"),
		apiKey:    apiKey,
		apiSecret: apiSecret,
		// exchangeInfo does not expose fee rates; default to the standard
		// spot tier, overridable per account
		makerFee: getEnvFloat("BINANCE_MAKER_FEE", 0.001),
		takerFee: getEnvFloat("BINANCE_TAKER_FEE", 0.001),
	}, nil
}

func (b *BinanceAdapter) Name() string             { return "binance" }
func (b *BinanceAdapter) HasCancelAll() bool       { return true }
func (b *BinanceAdapter) ReportsFreeBalance() bool { return true }

// ---- interface methods ----

func (b *BinanceAdapter) LoadMarkets(ctx context.Context) (map[string]InstrumentInfo, error) {
	var payload struct {
		Symbols []struct {
			Symbol     string `json:"symbol"`
			Status     string `json:"status"`
			BaseAsset  string `json:"baseAsset"`
			QuoteAsset string `json:"quoteAsset"`
			Filters    []struct {
				FilterType  string `json:"filterType"`
				TickSize    string `json:"tickSize"`
				StepSize    string `json:"stepSize"`
				MinQty      string `json:"minQty"`
				MinNotional string `json:"minNotional"`
			} `json:"filters"`
		} `json:"symbols"`
	}
	if err := b.get(ctx, "/api/v3/exchangeInfo", nil, false, &payload); err != nil {
		return nil, err
	}
	out := make(map[string]InstrumentInfo, len(payload.Symbols))
	for _, s := range payload.Symbols {
		if s.Status != "TRADING" {
			continue
		}
		info := InstrumentInfo{
			Symbol:   s.BaseAsset + "/" + s.QuoteAsset,
			MakerFee: b.makerFee,
			TakerFee: b.takerFee,
		}
		for _, f := range s.Filters {
			switch f.FilterType {
			case "PRICE_FILTER":
				info.PricePrecision = decimalsFromStep(f.TickSize)
			case "LOT_SIZE":
				info.AmountPrecision = decimalsFromStep(f.StepSize)
				info.MinAmount = parseFloatDefault(f.MinQty, 0)
			case "NOTIONAL", "MIN_NOTIONAL":
				info.MinNotional = parseFloatDefault(f.MinNotional, 0)
			}
		}
		out[info.Symbol] = info
	}
	return out, nil
}

func (b *BinanceAdapter) FetchTicker(ctx context.Context, symbol string) (Ticker, error) {
	var payload struct {
		BidPrice string `json:"bidPrice"`
		AskPrice string `json:"askPrice"`
	}
	q := url.Values{"symbol": {binanceWireSymbol(symbol)}}
	if err := b.get(ctx, "/api/v3/ticker/bookTicker", q, false, &payload); err != nil {
		return Ticker{}, err
	}
	return Ticker{
		Symbol: symbol,
		Bid:    parseFloatDefault(payload.BidPrice, 0),
		Ask:    parseFloatDefault(payload.AskPrice, 0),
	}, nil
}

func (b *BinanceAdapter) FetchBalance(ctx context.Context) (map[string]BalanceEntry, error) {
	var payload struct {
		Balances []struct {
			Asset  string `json:"asset"`
			Free   string `json:"free"`
			Locked string `json:"locked"`
		} `json:"balances"`
	}
	if err := b.get(ctx, "/api/v3/account", url.Values{}, true, &payload); err != nil {
		return nil, err
	}
	out := make(map[string]BalanceEntry, len(payload.Balances))
	for _, bal := range payload.Balances {
		free := parseFloatDefault(bal.Free, 0)
		locked := parseFloatDefault(bal.Locked, 0)
		out[strings.ToUpper(bal.Asset)] = BalanceEntry{Free: free, Total: free + locked}
	}
	return out, nil
}

func (b *BinanceAdapter) FetchOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	var payload []struct {
		OrderID int64  `json:"orderId"`
		Symbol  string `json:"symbol"`
		Side    string `json:"side"`
		Type    string `json:"type"`
		Price   string `json:"price"`
		OrigQty string `json:"origQty"`
		Time    int64  `json:"time"`
	}
	q := url.Values{}
	if symbol != "" {
		q.Set("symbol", binanceWireSymbol(symbol))
	}
	if err := b.get(ctx, "/api/v3/openOrders", q, true, &payload); err != nil {
		return nil, err
	}
	out := make([]OpenOrder, 0, len(payload))
	for _, o := range payload {
		sym := symbol
		if sym == "" {
			sym = o.Symbol // wire format; callers passing "" get raw symbols
		}
		out = append(out, OpenOrder{
			ID:        strconv.FormatInt(o.OrderID, 10),
			Symbol:    sym,
			Side:      OrderSide(strings.ToLower(o.Side)),
			Type:      OrderType(strings.ToLower(o.Type)),
			Price:     parseFloatDefault(o.Price, 0),
			Amount:    parseFloatDefault(o.OrigQty, 0),
			CreatedAt: time.UnixMilli(o.Time).UTC(),
		})
	}
	return out, nil
}

func (b *BinanceAdapter) CreateOrder(ctx context.Context, intent OrderIntent) (*OrderRecord, error) {
	form := url.Values{
		"symbol": {binanceWireSymbol(intent.Symbol)},
		"side":   {"BUY"},
	}
	switch intent.Kind {
	case IntentLimitBuy:
		form.Set("type", "LIMIT")
		form.Set("timeInForce", "GTC")
		form.Set("price", strconv.FormatFloat(intent.Price, 'f', -1, 64))
		form.Set("quantity", strconv.FormatFloat(intent.Size, 'f', -1, 64))
	case IntentMarketBuy:
		form.Set("type", "MARKET")
		form.Set("quoteOrderQty", strconv.FormatFloat(intent.QuoteSpend, 'f', -1, 64))
	default:
		return nil, errors.Errorf("binance: cannot create intent kind %s", intent.Kind)
	}

	var payload struct {
		OrderID      int64  `json:"orderId"`
		TransactTime int64  `json:"transactTime"`
		Status       string `json:"status"`
	}
	if err := b.signedForm(ctx, http.MethodPost, "/api/v3/order", form, &payload); err != nil {
		return nil, err
	}
	rec := &OrderRecord{
		ID:        strconv.FormatInt(payload.OrderID, 10),
		Symbol:    intent.Symbol,
		Side:      SideBuy,
		Price:     intent.Price,
		Amount:    intent.Size,
		CreatedAt: time.UnixMilli(payload.TransactTime).UTC(),
	}
	if intent.Kind == IntentMarketBuy {
		rec.Type = TypeMarket
	} else {
		rec.Type = TypeLimit
	}
	return rec, nil
}

func (b *BinanceAdapter) CancelOrder(ctx context.Context, id, symbol string) error {
	form := url.Values{
		"symbol":  {binanceWireSymbol(symbol)},
		"orderId": {id},
	}
	return b.signedForm(ctx, http.MethodDelete, "/api/v3/order", form, nil)
}

func (b *BinanceAdapter) CancelAllOrders(ctx context.Context, symbol string) error {
	form := url.Values{"symbol": {binanceWireSymbol(symbol)}}
	return b.signedForm(ctx, http.MethodDelete, "/api/v3/openOrders", form, nil)
}

func (b *BinanceAdapter) FetchCandles(ctx context.Context, symbol string, interval time.Duration, limit int) ([]Candle, error) {
	if limit <= 0 {
		limit = 100
	}
	q := url.Values{
		"symbol":   {binanceWireSymbol(symbol)},
		"interval": {binanceInterval(interval)},
		"limit":    {strconv.Itoa(limit)},
	}
	var rows [][]any
	if err := b.get(ctx, "/api/v3/klines", q, false, &rows); err != nil {
		return nil, err
	}
	out := make([]Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 6 {
			continue
		}
		out = append(out, Candle{
			Time:   time.UnixMilli(int64(anyFloat(row[0]))).UTC(),
			Open:   anyFloat(row[1]),
			High:   anyFloat(row[2]),
			Low:    anyFloat(row[3]),
			Close:  anyFloat(row[4]),
			Volume: anyFloat(row[5]),
		})
	}
	return out, nil
}

// FetchTransfers nets completed deposits against completed withdrawals for
// one coin since the given time (deposit status 1, withdrawal status 6 per
// the capital endpoints).
func (b *BinanceAdapter) FetchTransfers(ctx context.Context, currency string, since time.Time) (float64, error) {
	start := strconv.FormatInt(since.UnixMilli(), 10)

	var deposits []struct {
		Amount string `json:"amount"`
		Coin   string `json:"coin"`
		Status int    `json:"status"`
	}
	if err := b.get(ctx, "/sapi/v1/capital/deposit/hisrec", url.Values{"startTime": {start}}, true, &deposits); err != nil {
		return 0, err
	}
	var net float64
	for _, d := range deposits {
		if strings.EqualFold(d.Coin, currency) && d.Status == 1 {
			net += parseFloatDefault(d.Amount, 0)
		}
	}

	var withdrawals []struct {
		Amount string `json:"amount"`
		Coin   string `json:"coin"`
		Status int    `json:"status"`
	}
	if err := b.get(ctx, "/sapi/v1/capital/withdraw/history", url.Values{"startTime": {start}}, true, &withdrawals); err != nil {
		return 0, err
	}
	for _, wd := range withdrawals {
		if strings.EqualFold(wd.Coin, currency) && wd.Status == 6 {
			net -= parseFloatDefault(wd.Amount, 0)
		}
	}
	return net, nil
}

// ---- internal HTTP helpers ----

func (b *BinanceAdapter) get(ctx context.Context, path string, query url.Values, signed bool, out any) error {
	if query == nil {
		query = url.Values{}
	}
	if signed {
		b.sign(query)
	}
	u := b.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	if signed {
		req.Header.Set("X-MBX-APIKEY", b.apiKey)
	}
	return b.do(req, path, out)
}

// signedForm sends a signed request with parameters in the query string,
// which Binance accepts for POST and DELETE alike.
func (b *BinanceAdapter) signedForm(ctx context.Context, method, path string, form url.Values, out any) error {
	b.sign(form)
	u := b.baseURL + path + "?" + form.Encode()
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("X-MBX-APIKEY", b.apiKey)
	return b.do(req, path, out)
}

func (b *BinanceAdapter) sign(params url.Values) {
	params.Set("timestamp", strconv.FormatInt(time.Now().UnixMilli(), 10))
	params.Set("recvWindow", "5000")
	mac := hmac.New(sha256.New, []byte(b.apiSecret))
	mac.Write([]byte(params.Encode()))
	params.Set("signature", hex.EncodeToString(mac.Sum(nil)))
}

func (b *BinanceAdapter) do(req *http.Request, path string, out any) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "binance %s", path)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "binance %s", path)
	}
	if resp.StatusCode >= 400 {
		return errors.Errorf("binance %s: http %d: %s", path, resp.StatusCode, string(data))
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Wrapf(err, "binance %s: decode", path)
		}
	}
	return nil
}

// ---- symbol/format helpers ----

func binanceWireSymbol(symbol string) string {
	base, quote, ok := splitSymbol(symbol)
	if !ok {
		return strings.ToUpper(symbol)
	}
	return strings.ToUpper(base + quote)
}

func binanceInterval(d time.Duration) string {
	switch {
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	default:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	}
}

// decimalsFromStep converts a step string like "0.00100000" to the number
// of meaningful decimal places (3 in that example).
func decimalsFromStep(step string) int {
	step = strings.TrimRight(strings.TrimSpace(step), "0")
	dot := strings.Index(step, ".")
	if dot < 0 {
		return 0
	}
	return len(step) - dot - 1
}
