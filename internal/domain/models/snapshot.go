package models

// IndicatorSnapshot holds the indicator values computed for one
// (pair, timeframe) at call time. It is recomputed on every request and
// never persisted.
//
// ADX and ATRPct are nil when the series lacks full OHLC data or has fewer
// than the bars Wilder smoothing needs; the other fields fall back to
// neutral defaults instead.
type IndicatorSnapshot struct {
	RSI             float64  `json:"rsi"`
	MACDHist        float64  `json:"macd_hist"`
	EMAFastOverSlow bool     `json:"ema_fast_over_slow"`
	// EMADelta is EMA20 minus EMA50. The scorer uses the sign so that
	// exactly equal EMAs contribute nothing instead of counting bearish.
	EMADelta float64  `json:"ema_delta"`
	BBPos    float64  `json:"bb_pos"`
	Stoch    float64  `json:"stoch"`
	ADX      *float64 `json:"adx,omitempty"`
	ATRPct   *float64 `json:"atr_pct,omitempty"`
}

// NeutralSnapshot is what Compute returns for series too short to score.
func NeutralSnapshot() IndicatorSnapshot {
	return IndicatorSnapshot{RSI: 50, MACDHist: 0, EMAFastOverSlow: false, BBPos: 0, Stoch: 50}
}
