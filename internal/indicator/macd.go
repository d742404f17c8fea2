package indicator

// macdHist computes the MACD(fast, slow, signal) histogram in one pass.
// EMA(fast) and EMA(slow) are carried incrementally across the series, the
// signal line is an EMA of the MACD line updated alongside them, so the
// whole thing is O(n).
func macdHist(closes []float64, fast, slow, signalPeriod int) float64 {
	if len(closes) == 0 {
		return 0
	}

	emaFast := closes[0]
	emaSlow := closes[0]
	signal := 0.0 // seeded with the first MACD value below

	for i, c := range closes {
		if i > 0 {
			emaFast = emaStep(emaFast, c, fast)
			emaSlow = emaStep(emaSlow, c, slow)
		}
		macd := emaFast - emaSlow
		if i == 0 {
			signal = macd
			continue
		}
		signal = emaStep(signal, macd, signalPeriod)
	}

	return (emaFast - emaSlow) - signal
}
