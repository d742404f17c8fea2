package indicator

import (
	"math"

	"signalforge/internal/domain/models"
)

// adxATR computes Wilder's ADX and the average true range as a percent of
// the last close. Both come back nil when the series is too short to seed
// the smoothed sums (fewer than period+2 bars for ATR, fewer than
// 2*period+1 for ADX).
func adxATR(candles []models.Candle, period int) (adx, atrPct *float64) {
	if len(candles) < period+2 {
		return nil, nil
	}

	n := len(candles)
	p := float64(period)

	// Per-bar +DM, -DM, TR starting from the second candle.
	plusDM := make([]float64, 0, n-1)
	minusDM := make([]float64, 0, n-1)
	tr := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		cur, prev := candles[i], candles[i-1]

		upMove := cur.High - prev.High
		downMove := prev.Low - cur.Low
		pdm, mdm := 0.0, 0.0
		if upMove > downMove && upMove > 0 {
			pdm = upMove
		}
		if downMove > upMove && downMove > 0 {
			mdm = downMove
		}
		plusDM = append(plusDM, pdm)
		minusDM = append(minusDM, mdm)

		r := cur.High - cur.Low
		if d := math.Abs(cur.High - prev.Close); d > r {
			r = d
		}
		if d := math.Abs(cur.Low - prev.Close); d > r {
			r = d
		}
		tr = append(tr, r)
	}

	// Seed the Wilder sums with the first period values, then update
	// incrementally: sum = sum - sum/period + new.
	var pdm14, mdm14, tr14 float64
	for i := 0; i < period; i++ {
		pdm14 += plusDM[i]
		mdm14 += minusDM[i]
		tr14 += tr[i]
	}

	dxs := make([]float64, 0, len(tr)-period+1)
	record := func() {
		if tr14 == 0 {
			return
		}
		plusDI := 100 * (pdm14 / tr14)
		minusDI := 100 * (mdm14 / tr14)
		if sum := plusDI + minusDI; sum != 0 {
			dxs = append(dxs, 100*math.Abs(plusDI-minusDI)/sum)
		}
	}
	record()

	for i := period; i < len(tr); i++ {
		pdm14 = pdm14 - pdm14/p + plusDM[i]
		mdm14 = mdm14 - mdm14/p + minusDM[i]
		tr14 = tr14 - tr14/p + tr[i]
		record()
	}

	lastClose := candles[n-1].Close
	if lastClose != 0 {
		v := (tr14 / p) / lastClose * 100
		atrPct = &v
	}

	// ADX seeds with a simple average of the first period DX values, then
	// smooths the rest.
	if len(dxs) < period {
		return nil, atrPct
	}
	var adxVal float64
	for i := 0; i < period; i++ {
		adxVal += dxs[i]
	}
	adxVal /= p
	for i := period; i < len(dxs); i++ {
		adxVal = (adxVal*(p-1) + dxs[i]) / p
	}
	return &adxVal, atrPct
}
