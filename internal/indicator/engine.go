package indicator

import "signalforge/internal/domain/models"

const (
	rsiPeriod        = 14
	macdFast         = 12
	macdSlow         = 26
	macdSignalPeriod = 9
	emaFastPeriod    = 20
	emaSlowPeriod    = 50
	bollingerPeriod  = 20
	stochPeriod      = 14
	adxPeriod        = 14

	// MinCandles is the shortest series the oscillators accept; anything
	// less degrades to a neutral snapshot.
	MinCandles = 60
)

// Compute derives an IndicatorSnapshot from a candle series. Series shorter
// than MinCandles yield neutral defaults instead of an error.
func Compute(candles []models.Candle) models.IndicatorSnapshot {
	snap := ComputeCloses(models.Closes(candles))
	if len(candles) >= MinCandles {
		snap.ADX, snap.ATRPct = adxATR(candles, adxPeriod)
	}
	return snap
}

// ComputeCloses is the closes-only variant used when a provider returns no
// OHLC data. ADX and ATR% stay nil since they need highs and lows.
func ComputeCloses(closes []float64) models.IndicatorSnapshot {
	if len(closes) < MinCandles {
		return models.NeutralSnapshot()
	}

	emaFast := ema(tail(closes, 200), emaFastPeriod)
	emaSlow := ema(tail(closes, 200), emaSlowPeriod)

	return models.IndicatorSnapshot{
		RSI:             rsi(closes, rsiPeriod),
		MACDHist:        macdHist(tail(closes, 150), macdFast, macdSlow, macdSignalPeriod),
		EMAFastOverSlow: emaFast > emaSlow,
		EMADelta:        emaFast - emaSlow,
		BBPos:           bollingerPos(closes, bollingerPeriod),
		Stoch:           stochastic(closes, stochPeriod),
	}
}
