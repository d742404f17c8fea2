package marketdata

import (
	"context"
	"strconv"
	"time"

	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	xhttp "signalforge/pkg/http"
)

const twelveDataBaseURL = "https://api.twelvedata.com"

// TwelveData has native 1/3/5 minute series for crypto, forex and the
// index proxy.
type TwelveData struct {
	client  *xhttp.Client
	apiKey  string
	baseURL string
}

// NewTwelveData creates the TwelveData candle provider.
func NewTwelveData(client *xhttp.Client, apiKey string) *TwelveData {
	return &TwelveData{client: client, apiKey: apiKey, baseURL: twelveDataBaseURL}
}

func (t *TwelveData) Name() string   { return "twelvedata" }
func (t *TwelveData) FullOHLC() bool { return true }

var twelveDataIntervals = map[repository.Timeframe]string{
	repository.TF1m: "1min",
	repository.TF3m: "3min",
	repository.TF5m: "5min",
}

type twelveDataValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

type twelveDataSeries struct {
	Values []twelveDataValue `json:"values"`
	Status string            `json:"status"`
}

func (t *TwelveData) FetchCandles(ctx context.Context, pair string, tf repository.Timeframe, limit int) ([]models.Candle, error) {
	if t.apiKey == "" {
		return nil, ErrProviderSkipped
	}
	interval, ok := twelveDataIntervals[tf]
	if !ok {
		return nil, ErrProviderSkipped
	}

	symbol := t.mapSymbol(pair)

	var payload twelveDataSeries
	err := t.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    t.baseURL + "/time_series",
		QueryParams: map[string][]string{
			"symbol":     {symbol},
			"interval":   {interval},
			"outputsize": {strconv.Itoa(limit)},
			"apikey":     {t.apiKey},
			"format":     {"JSON"},
			"dp":         {"6"},
		},
	}, &payload)
	if err != nil {
		return nil, &ProviderError{Provider: t.Name(), Err: err}
	}
	if len(payload.Values) == 0 {
		return nil, &ProviderError{Provider: t.Name(), Err: ErrNoData}
	}

	// Values arrive newest first.
	candles := make([]models.Candle, 0, len(payload.Values))
	for i := len(payload.Values) - 1; i >= 0; i-- {
		v := payload.Values[i]
		c, err := parseTwelveDataValue(v, tf)
		if err != nil {
			return nil, &ProviderError{Provider: t.Name(), Err: err}
		}
		candles = append(candles, c)
	}
	return candles, nil
}

func parseTwelveDataValue(v twelveDataValue, tf repository.Timeframe) (models.Candle, error) {
	var c models.Candle

	ts, err := time.Parse("2006-01-02 15:04:05", v.Datetime)
	if err != nil {
		return c, err
	}
	c.OpenTime = ts.UTC().UnixMilli()
	c.CloseTime = c.OpenTime + tf.Seconds()*1000

	fields := []struct {
		raw string
		dst *float64
	}{
		{v.Open, &c.Open}, {v.High, &c.High}, {v.Low, &c.Low}, {v.Close, &c.Close},
	}
	for _, f := range fields {
		val, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return c, err
		}
		*f.dst = val
	}
	if v.Volume != "" {
		c.Volume, _ = strconv.ParseFloat(v.Volume, 64)
	}
	return c, nil
}

func (t *TwelveData) mapSymbol(pair string) string {
	switch Classify(pair) {
	case ClassGold:
		return "XAU/USD"
	case ClassIndex:
		return "QQQ"
	default:
		return pair
	}
}
