package marketdata

import "signalforge/internal/domain/models"

// Resample groups every k consecutive base candles into one higher
// timeframe candle: open from the first of the group, close from the last,
// high and low from the group extremes, volume summed. A partial trailing
// group is dropped rather than emitted as an unfinished bar.
func Resample(base []models.Candle, k int) []models.Candle {
	if k <= 1 {
		return base
	}

	out := make([]models.Candle, 0, len(base)/k)
	for i := 0; i+k <= len(base); i += k {
		group := base[i : i+k]
		c := models.Candle{
			OpenTime:  group[0].OpenTime,
			Open:      group[0].Open,
			High:      group[0].High,
			Low:       group[0].Low,
			Close:     group[k-1].Close,
			CloseTime: group[k-1].CloseTime,
		}
		for _, g := range group {
			if g.High > c.High {
				c.High = g.High
			}
			if g.Low < c.Low {
				c.Low = g.Low
			}
			c.Volume += g.Volume
		}
		out = append(out, c)
	}
	return out
}
