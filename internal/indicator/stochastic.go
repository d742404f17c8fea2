package indicator

// stochastic places the last close within its period-length close range,
// scaled 0..100. Returns 50 when the range is zero.
func stochastic(closes []float64, period int) float64 {
	if len(closes) < period {
		return 50
	}

	win := closes[len(closes)-period:]
	lo, hi := win[0], win[0]
	for _, x := range win[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if hi == lo {
		return 50
	}

	return (closes[len(closes)-1] - lo) / (hi - lo) * 100
}
