package confluence

import "signalforge/internal/domain/models"

// Per-timeframe additive point system. RSI and EMA carry full points, the
// band/oscillator extremes half points against the trend.
const (
	rsiUpper = 55.0
	rsiLower = 45.0

	bbUpperLim = 1.0
	bbLowerLim = -1.0

	stochUpper = 60.0
	stochLower = 40.0
)

// Score turns one timeframe's indicator snapshot into a signed score.
// Reasons are kept for the winning side only; a flat score carries none.
func (e *Engine) Score(tf string, snap models.IndicatorSnapshot) models.TimeframeScore {
	var score float64
	var up, down []string

	switch {
	case snap.RSI >= rsiUpper:
		score += 1
		up = append(up, "RSI(14) above 55")
	case snap.RSI <= rsiLower:
		score -= 1
		down = append(down, "RSI(14) below 45")
	}

	switch {
	case snap.MACDHist > 0:
		score += 1
		up = append(up, "MACD histogram positive")
	case snap.MACDHist < 0:
		score -= 1
		down = append(down, "MACD histogram negative")
	}

	switch {
	case snap.EMADelta > 0:
		score += 1
		up = append(up, "EMA20 above EMA50")
	case snap.EMADelta < 0:
		score -= 1
		down = append(down, "EMA20 below EMA50")
	}

	switch {
	case snap.BBPos > bbUpperLim:
		score -= 0.5
		down = append(down, "Price near upper Bollinger Band")
	case snap.BBPos < bbLowerLim:
		score += 0.5
		up = append(up, "Price near lower Bollinger Band")
	}

	switch {
	case snap.Stoch >= stochUpper:
		score -= 0.5
		down = append(down, "Stochastic overbought")
	case snap.Stoch <= stochLower:
		score += 0.5
		up = append(up, "Stochastic oversold")
	}

	dir := directionOf(score)
	var reasons []string
	switch dir {
	case models.DirUp:
		reasons = up
	case models.DirDown:
		reasons = down
	}

	return models.TimeframeScore{
		Timeframe: tf,
		Score:     score,
		Dir:       dir,
		Reasons:   reasons,
		Snapshot:  snap,
	}
}

func directionOf(score float64) models.Direction {
	switch {
	case score > 0:
		return models.DirUp
	case score < 0:
		return models.DirDown
	default:
		return models.DirFlat
	}
}
