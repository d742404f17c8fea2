package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	xhttp "signalforge/pkg/http"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// Finnhub covers crypto, forex, gold and an index proxy, but has no native
// 3-minute resolution: 3m requests fetch 1-minute candles and resample.
type Finnhub struct {
	client  *xhttp.Client
	apiKey  string
	baseURL string
	now     func() time.Time
}

// NewFinnhub creates the Finnhub candle provider.
func NewFinnhub(client *xhttp.Client, apiKey string) *Finnhub {
	return &Finnhub{client: client, apiKey: apiKey, baseURL: finnhubBaseURL, now: time.Now}
}

func (f *Finnhub) Name() string   { return "finnhub" }
func (f *Finnhub) FullOHLC() bool { return true }

type finnhubCandles struct {
	Status string    `json:"s"`
	Open   []float64 `json:"o"`
	High   []float64 `json:"h"`
	Low    []float64 `json:"l"`
	Close  []float64 `json:"c"`
	Volume []float64 `json:"v"`
	Time   []int64   `json:"t"` // unix seconds
}

func (f *Finnhub) FetchCandles(ctx context.Context, pair string, tf repository.Timeframe, limit int) ([]models.Candle, error) {
	if f.apiKey == "" {
		return nil, ErrProviderSkipped
	}

	endpoint, symbol, ok := f.mapSymbol(pair)
	if !ok {
		return nil, ErrProviderSkipped
	}

	// 3m has no native resolution upstream: fetch 1m and resample.
	fetchTF := tf
	if tf == repository.TF3m {
		fetchTF = repository.TF1m
	}
	resolution := strings.TrimSuffix(string(fetchTF), "m")
	fetchLimit := limit * tf.BaseMultiple() / fetchTF.BaseMultiple()

	now := f.now().Unix()
	from := now - fetchTF.Seconds()*int64(fetchLimit+10)

	var payload finnhubCandles
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/%s/candle", f.baseURL, endpoint),
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"resolution": {resolution},
			"from":       {strconv.FormatInt(from, 10)},
			"to":         {strconv.FormatInt(now, 10)},
			"token":      {f.apiKey},
		},
	}, &payload)
	if err != nil {
		return nil, &ProviderError{Provider: f.Name(), Err: err}
	}
	if payload.Status != "ok" || len(payload.Close) == 0 {
		return nil, &ProviderError{Provider: f.Name(), Err: ErrNoData}
	}

	candles := make([]models.Candle, 0, len(payload.Close))
	for i := range payload.Close {
		openTime := payload.Time[i] * 1000
		candles = append(candles, models.Candle{
			OpenTime:  openTime,
			Open:      payload.Open[i],
			High:      payload.High[i],
			Low:       payload.Low[i],
			Close:     payload.Close[i],
			Volume:    payload.Volume[i],
			CloseTime: openTime + fetchTF.Seconds()*1000,
		})
	}

	if tf == repository.TF3m {
		candles = Resample(candles, 3)
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func (f *Finnhub) mapSymbol(pair string) (endpoint, symbol string, ok bool) {
	up := strings.ToUpper(pair)
	switch Classify(pair) {
	case ClassCrypto:
		return "crypto", "BINANCE:" + strings.ReplaceAll(up, "/", ""), true
	case ClassForex:
		base, quote := splitPair(pair)
		return "forex", fmt.Sprintf("OANDA:%s_%s", base, quote), true
	case ClassGold:
		return "forex", "OANDA:XAU_USD", true
	case ClassIndex:
		return "stock", "QQQ", true
	default:
		return "", "", false
	}
}
