package models

import "time"

// Candle represents one OHLCV bar. Times are epoch milliseconds, matching
// what the kline providers return on the wire.
type Candle struct {
	OpenTime  int64   `json:"open_time"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
	CloseTime int64   `json:"close_time"`
}

// OpenedAt returns the bar open time as time.Time (UTC).
func (c Candle) OpenedAt() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}

// ClosedAt returns the bar close time as time.Time (UTC).
func (c Candle) ClosedAt() time.Time {
	return time.UnixMilli(c.CloseTime).UTC()
}

// Covers reports whether t falls inside this bar's [open, close) window.
func (c Candle) Covers(t time.Time) bool {
	ms := t.UnixMilli()
	return ms >= c.OpenTime && ms < c.CloseTime
}

// Closes extracts the close series from a candle slice.
func Closes(candles []Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}
