package indicator

// ema folds an exponential moving average over the series, seeded with the
// first value. Returns 0 for an empty series.
func ema(series []float64, period int) float64 {
	if len(series) == 0 {
		return 0
	}
	k := 2.0 / float64(period+1)
	val := series[0]
	for _, x := range series[1:] {
		val = x*k + val*(1-k)
	}
	return val
}

// emaStep advances one EMA update.
func emaStep(prev, x float64, period int) float64 {
	k := 2.0 / float64(period+1)
	return x*k + prev*(1-k)
}

// tail returns the last n elements, or the whole series if shorter.
func tail(series []float64, n int) []float64 {
	if len(series) <= n {
		return series
	}
	return series[len(series)-n:]
}
