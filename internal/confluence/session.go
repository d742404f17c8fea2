package confluence

import (
	"errors"
	"time"

	"signalforge/internal/marketdata"
)

// ErrMarketClosed is returned by the signal path when the strict session
// filter blocks a pair outside its trading hours.
var ErrMarketClosed = errors.New("market closed")

var newYork = mustLoadLocation("America/New_York")

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MarketOpen reports whether the pair's market is open at t, per the
// simplified open-hours model: crypto trades around the clock, forex runs
// Sunday 21:00 UTC through Friday 21:00 UTC, gold follows the metals
// session with its daily 22:00 UTC break, and index pairs track NY cash
// hours.
func MarketOpen(pair string, t time.Time) bool {
	u := t.UTC()
	switch marketdata.Classify(pair) {
	case marketdata.ClassCrypto:
		return true
	case marketdata.ClassForex:
		switch wd, hr := u.Weekday(), u.Hour(); wd {
		case time.Monday, time.Tuesday, time.Wednesday, time.Thursday:
			return true
		case time.Friday:
			return hr < 21
		case time.Sunday:
			return hr >= 21
		default:
			return false
		}
	case marketdata.ClassGold:
		wd, hr := u.Weekday(), u.Hour()
		if hr == 22 {
			return false
		}
		switch wd {
		case time.Sunday:
			return hr >= 23
		case time.Monday, time.Tuesday, time.Wednesday, time.Thursday:
			return true
		case time.Friday:
			return hr < 22
		default:
			return false
		}
	case marketdata.ClassIndex:
		ny := u.In(newYork)
		if ny.Weekday() == time.Saturday || ny.Weekday() == time.Sunday {
			return false
		}
		mins := ny.Hour()*60 + ny.Minute()
		return mins >= 9*60+30 && mins < 16*60
	default:
		return true
	}
}

// CheckSession gates a pair on its session model when the strict filter is
// enabled. Returns ErrMarketClosed for a closed market, nil otherwise.
func (e *Engine) CheckSession(pair string) error {
	if !e.cfg.StrictSession {
		return nil
	}
	if !MarketOpen(pair, e.now()) {
		return ErrMarketClosed
	}
	return nil
}

// MarketStatus is one row of the market-hours report.
type MarketStatus struct {
	Pair      string     `json:"pair"`
	Class     string     `json:"class"`
	Open      bool       `json:"open"`
	NextOpen  *time.Time `json:"next_open,omitempty"`
	NextClose *time.Time `json:"next_close,omitempty"`
}

// reportPairs are the instruments the hours report covers, matching the
// assets the engine serves signals for.
var reportPairs = []string{"BTC/USDT", "ETH/USDT", "EUR/USD", "GBP/JPY", "GOLD", "NASDAQ"}

// MarketReport builds OPEN/CLOSED status for the key instruments with the
// next session transition, localized to the given display timezone.
func (e *Engine) MarketReport(tz *time.Location) []MarketStatus {
	if tz == nil {
		tz = time.UTC
	}
	now := e.now().UTC()

	out := make([]MarketStatus, 0, len(reportPairs))
	for _, pair := range reportPairs {
		open := MarketOpen(pair, now)
		st := MarketStatus{
			Pair:  pair,
			Class: string(marketdata.Classify(pair)),
			Open:  open,
		}
		if next, ok := nextTransition(pair, now, !open); ok {
			local := next.In(tz)
			if open {
				st.NextClose = &local
			} else {
				st.NextOpen = &local
			}
		}
		out = append(out, st)
	}
	return out
}

// nextTransition scans forward in 15-minute steps (every session boundary
// in the model falls on a half hour) for the first instant whose open
// state equals want. Crypto never transitions.
func nextTransition(pair string, from time.Time, want bool) (time.Time, bool) {
	const step = 15 * time.Minute
	t := from.Truncate(step).Add(step)
	limit := from.Add(8 * 24 * time.Hour)
	for ; t.Before(limit); t = t.Add(step) {
		if MarketOpen(pair, t) == want {
			return t, true
		}
	}
	return time.Time{}, false
}
