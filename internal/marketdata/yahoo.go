package marketdata

import (
	"context"
	"strings"

	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	xhttp "signalforge/pkg/http"
)

const yahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// Yahoo needs no key and serves as the FX fallback via the chart endpoint.
type Yahoo struct {
	client  *xhttp.Client
	baseURL string
}

// NewYahoo creates the Yahoo Finance chart provider.
func NewYahoo(client *xhttp.Client) *Yahoo {
	return &Yahoo{client: client, baseURL: yahooBaseURL}
}

func (y *Yahoo) Name() string   { return "yahoo" }
func (y *Yahoo) FullOHLC() bool { return true }

type yahooChart struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

func (y *Yahoo) FetchCandles(ctx context.Context, pair string, tf repository.Timeframe, limit int) ([]models.Candle, error) {
	symbol, ok := y.mapSymbol(pair)
	if !ok {
		return nil, ErrProviderSkipped
	}
	// Yahoo only offers 1m and 5m intraday intervals; 3m comes from
	// resampled 1m data.
	fetchTF := tf
	if tf == repository.TF3m {
		fetchTF = repository.TF1m
	}

	var payload yahooChart
	err := y.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    y.baseURL + "/" + symbol,
		QueryParams: map[string][]string{
			"interval": {string(fetchTF)},
			"range":    {"1d"},
		},
		Headers: map[string]string{
			"User-Agent": "Mozilla/5.0",
		},
	}, &payload)
	if err != nil {
		return nil, &ProviderError{Provider: y.Name(), Err: err}
	}

	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, &ProviderError{Provider: y.Name(), Err: ErrNoData}
	}
	result := payload.Chart.Result[0]
	quote := result.Indicators.Quote[0]

	candles := make([]models.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		// Null entries mark halted or not-yet-closed bars.
		if i >= len(quote.Close) || quote.Close[i] == nil ||
			quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil {
			continue
		}
		c := models.Candle{
			OpenTime:  ts * 1000,
			Open:      *quote.Open[i],
			High:      *quote.High[i],
			Low:       *quote.Low[i],
			Close:     *quote.Close[i],
			CloseTime: ts*1000 + fetchTF.Seconds()*1000,
		}
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			c.Volume = *quote.Volume[i]
		}
		candles = append(candles, c)
	}
	if len(candles) == 0 {
		return nil, &ProviderError{Provider: y.Name(), Err: ErrNoData}
	}

	if tf == repository.TF3m {
		candles = Resample(candles, 3)
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}
	return candles, nil
}

func (y *Yahoo) mapSymbol(pair string) (string, bool) {
	up := strings.ToUpper(pair)
	switch Classify(pair) {
	case ClassCrypto:
		base, quote := splitPair(up)
		if quote == "USDT" {
			quote = "USD"
		}
		return base + "-" + quote, true
	case ClassForex:
		base, quote := splitPair(up)
		return base + quote + "=X", true
	case ClassGold:
		return "XAUUSD=X", true
	case ClassIndex:
		return "QQQ", true
	default:
		return "", false
	}
}
