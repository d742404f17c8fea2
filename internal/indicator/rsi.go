package indicator

// rsi computes Wilder's Relative Strength Index over the close series.
// The first period deltas seed the averages with a simple mean; every
// later delta is folded in with Wilder smoothing. A zero average loss
// pins RS at 999 instead of dividing by zero.
func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		ch := closes[i] - closes[i-1]
		if ch > 0 {
			gains = append(gains, ch)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -ch)
		}
	}

	var avgGain, avgLoss float64
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	p := float64(period)
	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*(p-1) + gains[i]) / p
		avgLoss = (avgLoss*(p-1) + losses[i]) / p
	}

	rs := 999.0
	if avgLoss != 0 {
		rs = avgGain / avgLoss
	}
	return 100 - 100/(1+rs)
}
