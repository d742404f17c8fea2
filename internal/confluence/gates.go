package confluence

import "signalforge/internal/domain/models"

// Bollinger position beyond which a timeframe counts as chasing an extreme.
// The comparison is strict on both sides: bb > +lim blocks UP, bb < -lim
// blocks DOWN.
const extremeBBLim = 1.5

// passGates applies the strength and volatility gates to an accepted
// direction. A direction that passed the vote/average thresholds is still
// rejected when momentum breadth, trend alignment, band extremes, or the
// ADX/ATR regime disagree.
func (e *Engine) passGates(dir models.Direction, scores []models.TimeframeScore) bool {
	p := paramsFor(e.cfg.Mode)

	var rsiCount, emaCount, extremeCount int
	for _, s := range scores {
		snap := s.Snapshot
		switch dir {
		case models.DirUp:
			if snap.RSI >= rsiUpper {
				rsiCount++
			}
			if snap.EMAFastOverSlow {
				emaCount++
			}
			if snap.BBPos > extremeBBLim {
				extremeCount++
			}
		case models.DirDown:
			if snap.RSI <= rsiLower {
				rsiCount++
			}
			if !snap.EMAFastOverSlow {
				emaCount++
			}
			if snap.BBPos < -extremeBBLim {
				extremeCount++
			}
		}
	}

	if rsiCount < p.minRSICount || emaCount < p.minEMACount {
		return false
	}
	if extremeCount > p.maxExtremeBB {
		return false
	}
	return e.volatilityGate(scores, p.minADXCount)
}

// volatilityGate requires enough timeframes in a tradeable regime: ADX at
// or above the floor and ATR% inside the configured band. Timeframes
// without ADX/ATR (closes-only data, short history) do not count either
// way; when none carry them the gate is skipped.
func (e *Engine) volatilityGate(scores []models.TimeframeScore, minCount int) bool {
	available, passing := 0, 0
	for _, s := range scores {
		snap := s.Snapshot
		if snap.ADX == nil || snap.ATRPct == nil {
			continue
		}
		available++
		if e.regimeOK(*snap.ADX, *snap.ATRPct) {
			passing++
		}
	}
	if available == 0 {
		return true
	}
	required := minCount
	if available < required {
		required = available
	}
	return passing >= required
}

// regimeOK is the single-snapshot ADX/ATR check shared with the forced
// fallback path.
func (e *Engine) regimeOK(adx, atrPct float64) bool {
	return adx >= e.cfg.MinADX && atrPct >= e.cfg.MinATRPct && atrPct <= e.cfg.MaxATRPct
}

// snapshotRegimeOK applies the volatility check to one snapshot, passing
// when ADX/ATR are unavailable.
func (e *Engine) snapshotRegimeOK(snap models.IndicatorSnapshot) bool {
	if snap.ADX == nil || snap.ATRPct == nil {
		return true
	}
	return e.regimeOK(*snap.ADX, *snap.ATRPct)
}
