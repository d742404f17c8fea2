package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	xhttp "signalforge/pkg/http"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantage is the last resort: keyed, slow, and effectively closes-only
// for this engine (intraday OHLC exists but the free tier is too lossy to
// trust highs/lows). It also lacks 3-minute bars, so 3m maps to 5min.
type AlphaVantage struct {
	client  *xhttp.Client
	apiKey  string
	baseURL string
}

// NewAlphaVantage creates the AlphaVantage provider.
func NewAlphaVantage(client *xhttp.Client, apiKey string) *AlphaVantage {
	return &AlphaVantage{client: client, apiKey: apiKey, baseURL: alphaVantageBaseURL}
}

func (a *AlphaVantage) Name() string   { return "alphavantage" }
func (a *AlphaVantage) FullOHLC() bool { return false }

var alphaVantageIntervals = map[repository.Timeframe]string{
	repository.TF1m: "1min",
	repository.TF3m: "5min",
	repository.TF5m: "5min",
}

func (a *AlphaVantage) FetchCandles(ctx context.Context, pair string, tf repository.Timeframe, limit int) ([]models.Candle, error) {
	if a.apiKey == "" {
		return nil, ErrProviderSkipped
	}
	interval, ok := alphaVantageIntervals[tf]
	if !ok {
		return nil, ErrProviderSkipped
	}

	params, seriesKey, ok := a.buildQuery(pair, interval)
	if !ok {
		return nil, ErrProviderSkipped
	}
	params["apikey"] = a.apiKey

	query := make(map[string][]string, len(params))
	for k, v := range params {
		query[k] = []string{v}
	}

	var payload map[string]json.RawMessage
	err := a.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         a.baseURL,
		QueryParams: query,
	}, &payload)
	if err != nil {
		return nil, &ProviderError{Provider: a.Name(), Err: err}
	}

	raw, ok := payload[seriesKey]
	if !ok {
		return nil, &ProviderError{Provider: a.Name(), Err: ErrNoData}
	}

	var series map[string]map[string]string
	if err := json.Unmarshal(raw, &series); err != nil {
		return nil, &ProviderError{Provider: a.Name(), Err: err}
	}
	if len(series) == 0 {
		return nil, &ProviderError{Provider: a.Name(), Err: ErrNoData}
	}

	// Keyed by timestamp string, newest first; sort oldest first.
	stamps := make([]string, 0, len(series))
	for s := range series {
		stamps = append(stamps, s)
	}
	sort.Strings(stamps)

	tfSec := tf.Seconds()
	candles := make([]models.Candle, 0, len(stamps))
	for _, s := range stamps {
		fields := series[s]
		closeStr := fields["4. close"]
		if closeStr == "" {
			closeStr = fields["close"]
		}
		closeVal, err := strconv.ParseFloat(closeStr, 64)
		if err != nil {
			continue
		}
		ts, err := time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			continue
		}
		openTime := ts.UTC().UnixMilli()
		// Closes-only: OHLC collapse to the close so downstream length
		// math still works; FullOHLC()=false keeps ADX/ATR off.
		candles = append(candles, models.Candle{
			OpenTime:  openTime,
			Open:      closeVal,
			High:      closeVal,
			Low:       closeVal,
			Close:     closeVal,
			CloseTime: openTime + tfSec*1000,
		})
	}
	if len(candles) == 0 {
		return nil, &ProviderError{Provider: a.Name(), Err: ErrNoData}
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func (a *AlphaVantage) buildQuery(pair, interval string) (params map[string]string, seriesKey string, ok bool) {
	switch Classify(pair) {
	case ClassCrypto:
		base, quote := splitPair(pair)
		if quote == "USDT" {
			quote = "USD"
		}
		return map[string]string{
			"function": "CRYPTO_INTRADAY",
			"symbol":   base,
			"market":   quote,
			"interval": interval,
		}, fmt.Sprintf("Time Series Crypto (%s)", interval), true
	case ClassForex, ClassGold:
		base, quote := splitPair(pair)
		return map[string]string{
			"function":    "FX_INTRADAY",
			"from_symbol": base,
			"to_symbol":   quote,
			"interval":    interval,
		}, fmt.Sprintf("Time Series FX (%s)", interval), true
	case ClassIndex:
		return map[string]string{
			"function": "TIME_SERIES_INTRADAY",
			"symbol":   "QQQ",
			"interval": interval,
		}, fmt.Sprintf("Time Series (%s)", interval), true
	default:
		return nil, "", false
	}
}
