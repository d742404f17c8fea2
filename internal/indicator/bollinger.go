package indicator

import "math"

// bollingerPos returns the z-like position of the last close against a
// period-length SMA, in units of two standard deviations. Zero when the
// window has no spread.
func bollingerPos(closes []float64, period int) float64 {
	if len(closes) < period {
		return 0
	}

	win := closes[len(closes)-period:]
	var sum float64
	for _, x := range win {
		sum += x
	}
	sma := sum / float64(period)

	var variance float64
	for _, x := range win {
		d := x - sma
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))
	if std == 0 {
		return 0
	}

	return (closes[len(closes)-1] - sma) / (2 * std)
}
