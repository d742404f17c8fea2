package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	xhttp "signalforge/pkg/http"
)

const binanceBaseURL = "https://api.binance.com/api/v3"

// Binance serves crypto pairs only and needs no API key, which puts it
// first in the chain.
type Binance struct {
	client  *xhttp.Client
	baseURL string
}

// NewBinance creates the Binance kline provider.
func NewBinance(client *xhttp.Client) *Binance {
	return &Binance{client: client, baseURL: binanceBaseURL}
}

func (b *Binance) Name() string   { return "binance" }
func (b *Binance) FullOHLC() bool { return true }

func (b *Binance) FetchCandles(ctx context.Context, pair string, tf repository.Timeframe, limit int) ([]models.Candle, error) {
	if Classify(pair) != ClassCrypto {
		return nil, ErrProviderSkipped
	}

	symbol := strings.ReplaceAll(strings.ToUpper(pair), "/", "")

	var raw [][]json.RawMessage
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    b.baseURL + "/klines",
		QueryParams: map[string][]string{
			"symbol":   {symbol},
			"interval": {string(tf)},
			"limit":    {strconv.Itoa(limit)},
		},
	}, &raw)
	if err != nil {
		return nil, &ProviderError{Provider: b.Name(), Err: err}
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, k := range raw {
		// Kline array layout: openTime, open, high, low, close, volume,
		// closeTime, ... (numeric fields arrive as strings).
		if len(k) < 7 {
			continue
		}
		c, err := parseBinanceKline(k)
		if err != nil {
			return nil, &ProviderError{Provider: b.Name(), Err: err}
		}
		candles = append(candles, c)
	}
	if len(candles) == 0 {
		return nil, &ProviderError{Provider: b.Name(), Err: ErrNoData}
	}
	return candles, nil
}

func parseBinanceKline(k []json.RawMessage) (models.Candle, error) {
	var c models.Candle
	if err := json.Unmarshal(k[0], &c.OpenTime); err != nil {
		return c, fmt.Errorf("open time: %w", err)
	}
	if err := json.Unmarshal(k[6], &c.CloseTime); err != nil {
		return c, fmt.Errorf("close time: %w", err)
	}
	fields := []struct {
		idx int
		dst *float64
	}{
		{1, &c.Open}, {2, &c.High}, {3, &c.Low}, {4, &c.Close}, {5, &c.Volume},
	}
	for _, f := range fields {
		var s string
		if err := json.Unmarshal(k[f.idx], &s); err != nil {
			return c, fmt.Errorf("field %d: %w", f.idx, err)
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return c, fmt.Errorf("field %d: %w", f.idx, err)
		}
		*f.dst = v
	}
	return c, nil
}
