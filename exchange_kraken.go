// FILE: exchange_kraken.go
// Package main – Kraken spot REST adapter.
//
// Auth: API-Key header plus API-Sign = HMAC-SHA512(path + SHA256(nonce +
// POST body), base64-decoded secret), per Kraken's private-endpoint scheme.
// Symbols: config uses "BTC/GBP"; Kraken pairs are resolved through the
// AssetPairs wsname field (BTC is XBT on the wire).
//
// Venue quirks this adapter encodes:
//   • Balance reports totals only — ReportsFreeBalance() is false, callers
//     must subtract the notional held by resting buy orders themselves.
//   • No bulk cancel-all per symbol — the reconciler emits per-id cancels.
//   • Limit orders accept an attached close order via close[...] params.
//   • OpenOrders reports descr.pair in altname format ("XBTGBP"), resolved
//     back to display symbols through the AssetPairs altname index.

package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type KrakenAdapter struct {
	client    *http.Client
	baseURL   string
	apiKey    string
	apiSecret string

	// both filled by LoadMarkets:
	// display symbol ("BTC/GBP") → pair id ("XXBTZGBP")
	pairByAlt map[string]string
	// altname ("XBTGBP") and pair id → display symbol ("BTC/GBP")
	symbolByAlt map[string]string
}

func NewKrakenAdapterFromEnv() (*KrakenAdapter, error) {
	apiKey := getEnv("KRAKEN_API_KEY", "")
	apiSecret := getEnv("KRAKEN_API_SECRET", "")
	if apiKey == "" || apiSecret == "" {
		return nil, errors.New("KRAKEN_API_KEY and KRAKEN_API_SECRET must be set")
	}
	return &KrakenAdapter{
		client:      &http.Client{Timeout: 15 * time.Second},
		baseURL:     strings.TrimRight(getEnv("KRAKEN_API_BASE", "https://api.kraken.com"), "/"),
		apiKey:      apiKey,
		apiSecret:   apiSecret,
		pairByAlt:   make(map[string]string),
		symbolByAlt: make(map[string]string),
	}, nil
}

func (k *KrakenAdapter) Name() string             { return "kraken" }
func (k *KrakenAdapter) HasCancelAll() bool       { return false }
func (k *KrakenAdapter) ReportsFreeBalance() bool { return false }

// ---- interface methods ----

func (k *KrakenAdapter) LoadMarkets(ctx context.Context) (map[string]InstrumentInfo, error) {
	var result map[string]struct {
		WSName        string          `json:"wsname"`
		Altname       string          `json:"altname"`
		PairDecimals  int             `json:"pair_decimals"`
		LotDecimals   int             `json:"lot_decimals"`
		OrderMin      string          `json:"ordermin"`
		CostMin       string          `json:"costmin"`
		Fees          [][]json.Number `json:"fees"`
		FeesMaker     [][]json.Number `json:"fees_maker"`
		QuoteCurrency string          `json:"quote"`
	}
	if err := k.public(ctx, "/0/public/AssetPairs", nil, &result); err != nil {
		return nil, err
	}

	out := make(map[string]InstrumentInfo, len(result))
	for pair, meta := range result {
		if meta.WSName == "" {
			continue
		}
		symbol := krakenDisplaySymbol(meta.WSName)
		k.pairByAlt[symbol] = pair
		k.symbolByAlt[meta.Altname] = symbol
		k.symbolByAlt[pair] = symbol
		info := InstrumentInfo{
			Symbol:          symbol,
			AmountPrecision: meta.LotDecimals,
			PricePrecision:  meta.PairDecimals,
			MinAmount:       parseFloatDefault(meta.OrderMin, 0),
			MinNotional:     parseFloatDefault(meta.CostMin, 0),
		}
		// fee schedules are [volume, pct] tiers; tier 0 is the base rate
		if len(meta.Fees) > 0 && len(meta.Fees[0]) == 2 {
			if f, err := meta.Fees[0][1].Float64(); err == nil {
				info.TakerFee = f / 100
			}
		}
		if len(meta.FeesMaker) > 0 && len(meta.FeesMaker[0]) == 2 {
			if f, err := meta.FeesMaker[0][1].Float64(); err == nil {
				info.MakerFee = f / 100
			}
		}
		out[symbol] = info
	}
	return out, nil
}

func (k *KrakenAdapter) FetchTicker(ctx context.Context, symbol string) (Ticker, error) {
	pair, err := k.resolvePair(ctx, symbol)
	if err != nil {
		return Ticker{}, err
	}
	var result map[string]struct {
		A []string `json:"a"` // ask [price, wholeLotVolume, lotVolume]
		B []string `json:"b"` // bid
	}
	if err := k.public(ctx, "/0/public/Ticker", url.Values{"pair": {pair}}, &result); err != nil {
		return Ticker{}, err
	}
	for _, t := range result {
		if len(t.A) == 0 || len(t.B) == 0 {
			break
		}
		return Ticker{
			Symbol: symbol,
			Bid:    parseFloatDefault(t.B[0], 0),
			Ask:    parseFloatDefault(t.A[0], 0),
		}, nil
	}
	return Ticker{}, errors.Errorf("kraken: no ticker for %s", symbol)
}

func (k *KrakenAdapter) FetchBalance(ctx context.Context) (map[string]BalanceEntry, error) {
	var result map[string]string
	if err := k.private(ctx, "/0/private/Balance", url.Values{}, &result); err != nil {
		return nil, err
	}
	out := make(map[string]BalanceEntry, len(result))
	for asset, amount := range result {
		total := parseFloatDefault(amount, 0)
		// totals only; Free stays zero (see ReportsFreeBalance)
		out[krakenDisplayAsset(asset)] = BalanceEntry{Total: total}
	}
	return out, nil
}

func (k *KrakenAdapter) FetchOpenOrders(ctx context.Context, symbol string) ([]OpenOrder, error) {
	var result struct {
		Open map[string]struct {
			OpenTM float64 `json:"opentm"`
			Vol    string  `json:"vol"`
			Descr  struct {
				Pair      string `json:"pair"`
				Type      string `json:"type"`
				OrderType string `json:"ordertype"`
				Price     string `json:"price"`
			} `json:"descr"`
		} `json:"open"`
	}
	if err := k.private(ctx, "/0/private/OpenOrders", url.Values{}, &result); err != nil {
		return nil, err
	}
	// descr.pair comes back as an altname, resolvable only through the
	// AssetPairs index
	if len(k.symbolByAlt) == 0 && len(result.Open) > 0 {
		if _, err := k.LoadMarkets(ctx); err != nil {
			return nil, err
		}
	}
	var out []OpenOrder
	for id, o := range result.Open {
		sym, ok := k.symbolByAlt[o.Descr.Pair]
		if !ok {
			sym = krakenDisplaySymbol(o.Descr.Pair)
		}
		if symbol != "" && sym != symbol {
			continue
		}
		out = append(out, OpenOrder{
			ID:        id,
			Symbol:    sym,
			Side:      OrderSide(o.Descr.Type),
			Type:      OrderType(o.Descr.OrderType),
			Price:     parseFloatDefault(o.Descr.Price, 0),
			Amount:    parseFloatDefault(o.Vol, 0),
			CreatedAt: time.Unix(int64(o.OpenTM), 0).UTC(),
		})
	}
	return out, nil
}

func (k *KrakenAdapter) CreateOrder(ctx context.Context, intent OrderIntent) (*OrderRecord, error) {
	pair, err := k.resolvePair(ctx, intent.Symbol)
	if err != nil {
		return nil, err
	}
	form := url.Values{
		"pair": {pair},
		"type": {"buy"},
	}
	switch intent.Kind {
	case IntentLimitBuy:
		form.Set("ordertype", "limit")
		form.Set("price", strconv.FormatFloat(intent.Price, 'f', -1, 64))
		form.Set("volume", strconv.FormatFloat(intent.Size, 'f', -1, 64))
	case IntentMarketBuy:
		// spot AddOrder has no cost-specified flag; volume is the base size
		// the sizer derived from the quote budget at the ask
		form.Set("ordertype", "market")
		form.Set("volume", strconv.FormatFloat(intent.Size, 'f', -1, 64))
	default:
		return nil, errors.Errorf("kraken: cannot create intent kind %s", intent.Kind)
	}
	for key, val := range intent.ExtraParams {
		form.Set(key, val)
	}

	var result struct {
		TxID []string `json:"txid"`
	}
	if err := k.private(ctx, "/0/private/AddOrder", form, &result); err != nil {
		return nil, err
	}
	rec := &OrderRecord{
		Symbol:    intent.Symbol,
		Side:      SideBuy,
		Price:     intent.Price,
		Amount:    intent.Size,
		CreatedAt: time.Now().UTC(),
	}
	if intent.Kind == IntentMarketBuy {
		rec.Type = TypeMarket
	} else {
		rec.Type = TypeLimit
	}
	if len(result.TxID) > 0 {
		rec.ID = result.TxID[0]
	}
	return rec, nil
}

func (k *KrakenAdapter) CancelOrder(ctx context.Context, id, symbol string) error {
	var result struct {
		Count int `json:"count"`
	}
	return k.private(ctx, "/0/private/CancelOrder", url.Values{"txid": {id}}, &result)
}

func (k *KrakenAdapter) CancelAllOrders(ctx context.Context, symbol string) error {
	return errors.New("kraken: cancel-all per symbol not supported, cancel by id")
}

func (k *KrakenAdapter) FetchCandles(ctx context.Context, symbol string, interval time.Duration, limit int) ([]Candle, error) {
	pair, err := k.resolvePair(ctx, symbol)
	if err != nil {
		return nil, err
	}
	minutes := int(interval / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	var raw map[string]json.RawMessage
	if err := k.public(ctx, "/0/public/OHLC", url.Values{
		"pair":     {pair},
		"interval": {strconv.Itoa(minutes)},
	}, &raw); err != nil {
		return nil, err
	}
	// rows mix a numeric timestamp with string-encoded prices
	var rows [][]any
	for key, msg := range raw {
		if key == "last" {
			continue
		}
		if err := json.Unmarshal(msg, &rows); err != nil {
			return nil, errors.Wrap(err, "kraken: decode ohlc")
		}
		break
	}
	out := make([]Candle, 0, len(rows))
	for _, row := range rows {
		if len(row) < 7 {
			continue
		}
		out = append(out, Candle{
			Time:   time.Unix(int64(anyFloat(row[0])), 0).UTC(),
			Open:   anyFloat(row[1]),
			High:   anyFloat(row[2]),
			Low:    anyFloat(row[3]),
			Close:  anyFloat(row[4]),
			Volume: anyFloat(row[6]),
		})
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// FetchTransfers nets the deposit and withdrawal ledger entries for one
// currency since the given time. Withdrawal amounts are already negative in
// Kraken's ledger, so a plain sum yields the net movement.
func (k *KrakenAdapter) FetchTransfers(ctx context.Context, currency string, since time.Time) (float64, error) {
	var result struct {
		Ledger map[string]struct {
			Time   float64 `json:"time"`
			Type   string  `json:"type"`
			Asset  string  `json:"asset"`
			Amount string  `json:"amount"`
		} `json:"ledger"`
	}
	form := url.Values{"start": {strconv.FormatInt(since.Unix(), 10)}}
	if err := k.private(ctx, "/0/private/Ledgers", form, &result); err != nil {
		return 0, err
	}
	var net float64
	for _, entry := range result.Ledger {
		if entry.Type != "deposit" && entry.Type != "withdrawal" {
			continue
		}
		if krakenDisplayAsset(entry.Asset) != currency {
			continue
		}
		net += parseFloatDefault(entry.Amount, 0)
	}
	return net, nil
}

// ---- internal HTTP helpers ----

type krakenEnvelope struct {
	Error  []string        `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (k *KrakenAdapter) public(ctx context.Context, path string, query url.Values, out any) error {
	u := k.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	return k.do(req, path, out)
}

func (k *KrakenAdapter) private(ctx context.Context, path string, form url.Values, out any) error {
	nonce := strconv.FormatInt(time.Now().UnixNano()/int64(time.Millisecond), 10)
	form.Set("nonce", nonce)
	body := form.Encode()

	sign, err := krakenSign(path, nonce, body, k.apiSecret)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.baseURL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("API-Key", k.apiKey)
	req.Header.Set("API-Sign", sign)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return k.do(req, path, out)
}

func (k *KrakenAdapter) do(req *http.Request, path string, out any) error {
	resp, err := k.client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "kraken %s", path)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(err, "kraken %s", path)
	}
	if resp.StatusCode >= 400 {
		return errors.Errorf("kraken %s: http %d: %s", path, resp.StatusCode, string(data))
	}
	var env krakenEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return errors.Wrapf(err, "kraken %s: decode envelope", path)
	}
	if len(env.Error) > 0 {
		return errors.Errorf("kraken %s: %s", path, strings.Join(env.Error, ", "))
	}
	if out != nil {
		if err := json.Unmarshal(env.Result, out); err != nil {
			return errors.Wrapf(err, "kraken %s: decode result", path)
		}
	}
	return nil
}

// krakenSign computes API-Sign: HMAC-SHA512 over path + SHA256(nonce+body).
func krakenSign(path, nonce, body, secret string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return "", errors.Wrap(err, "kraken: decode api secret")
	}
	digest := sha256.Sum256([]byte(nonce + body))
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(path))
	mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (k *KrakenAdapter) resolvePair(ctx context.Context, symbol string) (string, error) {
	if pair, ok := k.pairByAlt[symbol]; ok {
		return pair, nil
	}
	if _, err := k.LoadMarkets(ctx); err != nil {
		return "", err
	}
	if pair, ok := k.pairByAlt[symbol]; ok {
		return pair, nil
	}
	return "", errors.Errorf("kraken: unknown symbol %s", symbol)
}

// ---- symbol/asset normalization ----

// krakenDisplaySymbol maps wire names ("XBT/GBP") to display ("BTC/GBP").
func krakenDisplaySymbol(wsname string) string {
	base, quote, ok := splitSymbol(wsname)
	if !ok {
		return wsname
	}
	return krakenDisplayAsset(base) + "/" + krakenDisplayAsset(quote)
}

func krakenDisplayAsset(asset string) string {
	asset = strings.ToUpper(asset)
	// classic assets carry X/Z class prefixes in balance keys
	if len(asset) == 4 && (asset[0] == 'X' || asset[0] == 'Z') {
		asset = asset[1:]
	}
	switch asset {
	case "XBT":
		return "BTC"
	case "XDG":
		return "DOGE"
	default:
		return asset
	}
}

func parseFloatDefault(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}

func anyFloat(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		return parseFloatDefault(x, 0)
	case json.Number:
		f, _ := x.Float64()
		return f
	default:
		return 0
	}
}
