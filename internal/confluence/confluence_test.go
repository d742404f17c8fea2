package confluence

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"signalforge/internal/domain/models"
)

func snap(rsi, macd, emaDelta, bb, stoch float64) models.IndicatorSnapshot {
	return models.IndicatorSnapshot{
		RSI:             rsi,
		MACDHist:        macd,
		EMAFastOverSlow: emaDelta > 0,
		EMADelta:        emaDelta,
		BBPos:           bb,
		Stoch:           stoch,
	}
}

func withVol(s models.IndicatorSnapshot, adx, atrPct float64) models.IndicatorSnapshot {
	s.ADX = &adx
	s.ATRPct = &atrPct
	return s
}

func fixedEngine(cfg Config) *Engine {
	at := time.Date(2026, 3, 4, 12, 15, 0, 0, time.UTC) // Wednesday, outside news window
	return NewEngine(cfg, WithClock(func() time.Time { return at }))
}

func TestScore_Additive(t *testing.T) {
	e := fixedEngine(DefaultConfig())

	cases := []struct {
		name  string
		snap  models.IndicatorSnapshot
		score float64
		dir   models.Direction
	}{
		{"strong bull", snap(60, 1, 1, 0, 50), 3, models.DirUp},
		{"strong bear", snap(40, -1, -1, 0, 50), -3, models.DirDown},
		{"neutral", snap(50, 0, 0, 0, 50), 0, models.DirFlat},
		{"bull with stretched band", snap(60, 1, 1, 1.2, 50), 2.5, models.DirUp},
		{"bull with hot stochastic", snap(60, 1, 1, 0, 70), 2.5, models.DirUp},
		{"oversold bounce", snap(40, -1, -1, -1.2, 30), -2, models.DirDown},
		{"rsi at threshold", snap(55, 0, 0, 0, 50), 1, models.DirUp},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := e.Score("5m", tc.snap)
			if got.Score != tc.score {
				t.Errorf("score = %v, want %v", got.Score, tc.score)
			}
			if got.Dir != tc.dir {
				t.Errorf("dir = %v, want %v", got.Dir, tc.dir)
			}
		})
	}
}

func TestScore_ReasonsMatchDirection(t *testing.T) {
	e := fixedEngine(DefaultConfig())

	// Bullish overall but with a bearish stochastic: the contrary reason
	// must not surface on an UP score.
	got := e.Score("5m", snap(60, 1, 1, 0, 70))
	if got.Dir != models.DirUp {
		t.Fatalf("dir = %v, want UP", got.Dir)
	}
	for _, r := range got.Reasons {
		if strings.Contains(r, "overbought") {
			t.Errorf("bearish reason %q on an UP score", r)
		}
	}

	if flat := e.Score("5m", snap(50, 0, 0, 0, 50)); len(flat.Reasons) != 0 {
		t.Errorf("flat score carries reasons: %v", flat.Reasons)
	}
}

func scoresFor(e *Engine, snaps ...models.IndicatorSnapshot) []models.TimeframeScore {
	tfs := []string{"1m", "3m", "5m"}
	out := make([]models.TimeframeScore, len(snaps))
	for i, s := range snaps {
		out[i] = e.Score(tfs[i], s)
	}
	return out
}

func TestAggregate_Deterministic(t *testing.T) {
	e := fixedEngine(DefaultConfig())
	s := withVol(snap(62, 0.8, 1, 0.3, 55), 25, 0.8)
	scores := scoresFor(e, s, s, s)

	first := e.Aggregate(scores)
	for i := 0; i < 5; i++ {
		if got := e.Aggregate(scores); !reflect.DeepEqual(got, first) {
			t.Fatalf("aggregate not deterministic: %+v vs %+v", got, first)
		}
	}
	if !first.OK || first.Dir != models.DirUp {
		t.Errorf("decision = %+v, want accepted UP", first)
	}
	if first.Confidence < 2 || first.Confidence > 5 {
		t.Errorf("confidence %d out of [2,5]", first.Confidence)
	}
}

func TestAggregate_ADXGateRejectsDespiteVotes(t *testing.T) {
	// All three timeframes vote UP with a passing average, but ADX sits
	// below the floor everywhere: pro mode must reject.
	e := fixedEngine(Config{Mode: ModePro, StrictSession: true, StrictNews: true})
	s := withVol(snap(60, 1, 1, 0, 50), 10, 1.0)
	scores := scoresFor(e, s, s, s)

	got := e.Aggregate(scores)
	if got.OK {
		t.Fatalf("decision accepted despite ADX below floor: %+v", got)
	}
}

func TestAggregate_ADXGatePassesAboveFloor(t *testing.T) {
	e := fixedEngine(Config{Mode: ModePro})
	s := withVol(snap(60, 1, 1, 0, 50), 25, 1.0)
	scores := scoresFor(e, s, s, s)

	got := e.Aggregate(scores)
	if !got.OK || got.Dir != models.DirUp {
		t.Fatalf("decision = %+v, want accepted UP", got)
	}
	if got.Confidence != 5 {
		t.Errorf("confidence = %d, want 5 for avg score 3.0", got.Confidence)
	}
}

func TestAggregate_ATRBandRejectsDeadAndWildMarkets(t *testing.T) {
	e := fixedEngine(Config{Mode: ModePro})
	for _, atr := range []float64{0.001, 5.0} {
		s := withVol(snap(60, 1, 1, 0, 50), 25, atr)
		if got := e.Aggregate(scoresFor(e, s, s, s)); got.OK {
			t.Errorf("atr %.3f%%: accepted, want rejected", atr)
		}
	}
}

func TestAggregate_ProNeedsAllThreeVotes(t *testing.T) {
	e := fixedEngine(Config{Mode: ModePro})
	up := withVol(snap(60, 1, 1, 0, 50), 25, 1.0)
	flat := withVol(snap(50, 0, 0, 0, 50), 25, 1.0)

	if got := e.Aggregate(scoresFor(e, up, up, flat)); got.OK {
		t.Errorf("pro accepted with 2/3 votes: %+v", got)
	}

	bal := fixedEngine(Config{Mode: ModeBalanced})
	if got := bal.Aggregate(scoresFor(bal, up, up, flat)); !got.OK {
		t.Errorf("balanced rejected 2/3 votes with avg 2.0: %+v", got)
	}
}

func TestAggregate_ExtremeBollingerCap(t *testing.T) {
	// Two timeframes stretched far above the band: pro mode allows one.
	e := fixedEngine(Config{Mode: ModePro})
	stretched := withVol(snap(60, 1, 1, 1.8, 50), 25, 1.0)
	calm := withVol(snap(60, 1, 1, 0.2, 50), 25, 1.0)

	if got := e.Aggregate(scoresFor(e, stretched, stretched, calm)); got.OK {
		t.Errorf("accepted with two extreme-band timeframes: %+v", got)
	}
	if got := e.Aggregate(scoresFor(e, stretched, calm, calm)); !got.OK {
		t.Errorf("rejected with a single extreme-band timeframe: %+v", got)
	}
}

func TestAggregate_ReasonsDedupedAndCapped(t *testing.T) {
	e := fixedEngine(Config{Mode: ModePro})
	s := withVol(snap(60, 1, 1, -1.2, 30), 25, 1.0)
	scores := scoresFor(e, s, s, s)

	got := e.Aggregate(scores)
	if !got.OK {
		t.Fatalf("decision rejected: %+v", got)
	}
	if len(got.Reasons) > 3 {
		t.Fatalf("reasons = %d, want at most 3", len(got.Reasons))
	}
	seen := map[string]bool{}
	for _, r := range got.Reasons {
		if seen[r] {
			t.Errorf("duplicate reason %q", r)
		}
		seen[r] = true
	}
	if got.Reasons[0] != "RSI(14) above 55" {
		t.Errorf("first-seen order lost: %v", got.Reasons)
	}
}

func TestFlatSnapshotsFallThroughToForced(t *testing.T) {
	// Exactly neutral indicators score zero on every timeframe: the
	// ensemble must reject and the forced path must decline a FLAT
	// timeframe, leaving only the static default.
	e := fixedEngine(DefaultConfig())
	flat := snap(50, 0, 0, 0, 50)
	scores := scoresFor(e, flat, flat, flat)

	for _, s := range scores {
		if s.Dir != models.DirFlat || s.Score != 0 {
			t.Fatalf("neutral snapshot scored %+v, want flat 0", s)
		}
	}

	agg := e.Aggregate(scores)
	if agg.OK {
		t.Fatalf("ensemble accepted flat scores: %+v", agg)
	}
	for _, s := range scores {
		if _, ok := e.Forced(s); ok {
			t.Fatalf("forced decision from a FLAT timeframe")
		}
	}

	def := e.StaticDefault("EUR/USD", "5m")
	if !def.OK || !def.Forced || def.Confidence != 2 {
		t.Errorf("static default = %+v, want forced low-confidence", def)
	}
	if def.Dir != e.StaticDefault("EUR/USD", "5m").Dir {
		t.Errorf("static default not stable within the minute")
	}
}

func TestForced_AppliesRegimeGate(t *testing.T) {
	e := fixedEngine(DefaultConfig())

	weak := e.Score("5m", withVol(snap(60, 1, 1, 0, 50), 10, 1.0))
	if _, ok := e.Forced(weak); ok {
		t.Error("forced accepted ADX below floor")
	}

	strong := e.Score("5m", withVol(snap(60, 1, 1, 0, 50), 25, 1.0))
	dec, ok := e.Forced(strong)
	if !ok {
		t.Fatal("forced rejected a tradeable regime")
	}
	if !dec.Forced || dec.Dir != models.DirUp || dec.Confidence != 2 {
		t.Errorf("forced decision = %+v", dec)
	}

	noVol := e.Score("5m", snap(60, 1, 1, 0, 50))
	if _, ok := e.Forced(noVol); !ok {
		t.Error("forced rejected a snapshot without ADX/ATR")
	}
}

func TestMarketOpen_Sessions(t *testing.T) {
	cases := []struct {
		name string
		pair string
		at   time.Time
		want bool
	}{
		{"crypto weekend", "BTC/USDT", time.Date(2026, 3, 7, 3, 0, 0, 0, time.UTC), true}, // Saturday
		{"forex midweek", "EUR/USD", time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), true},
		{"forex friday evening", "EUR/USD", time.Date(2026, 3, 6, 21, 30, 0, 0, time.UTC), false},
		{"forex sunday reopen", "EUR/USD", time.Date(2026, 3, 8, 21, 5, 0, 0, time.UTC), true},
		{"forex saturday", "EUR/USD", time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC), false},
		{"gold daily break", "GOLD", time.Date(2026, 3, 4, 22, 30, 0, 0, time.UTC), false},
		{"gold midweek", "XAU/USD", time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC), true},
		{"gold sunday before open", "GOLD", time.Date(2026, 3, 8, 22, 30, 0, 0, time.UTC), false},
		{"gold sunday open", "GOLD", time.Date(2026, 3, 8, 23, 30, 0, 0, time.UTC), true},
		{"index cash hours", "NASDAQ", time.Date(2026, 3, 4, 15, 0, 0, 0, time.UTC), true},   // 10:00 NY
		{"index pre-market", "NASDAQ", time.Date(2026, 3, 4, 13, 0, 0, 0, time.UTC), false},  // 08:00 NY
		{"index weekend", "NASDAQ", time.Date(2026, 3, 7, 15, 0, 0, 0, time.UTC), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := MarketOpen(tc.pair, tc.at); got != tc.want {
				t.Errorf("MarketOpen(%s, %s) = %v, want %v", tc.pair, tc.at, got, tc.want)
			}
		})
	}
}

func TestCheckSession_StrictToggle(t *testing.T) {
	closed := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC) // Saturday
	strict := NewEngine(Config{StrictSession: true}, WithClock(func() time.Time { return closed }))
	if err := strict.CheckSession("EUR/USD"); !errors.Is(err, ErrMarketClosed) {
		t.Errorf("strict filter: err = %v, want ErrMarketClosed", err)
	}
	if err := strict.CheckSession("BTC/USDT"); err != nil {
		t.Errorf("crypto must always pass: %v", err)
	}

	lax := NewEngine(Config{StrictSession: false}, WithClock(func() time.Time { return closed }))
	if err := lax.CheckSession("EUR/USD"); err != nil {
		t.Errorf("disabled filter: err = %v", err)
	}
}

func TestNewsWindow(t *testing.T) {
	base := time.Date(2026, 3, 4, 14, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		minute int
		want   bool
	}{
		{0, true}, {2, true}, {3, false}, {29, false}, {30, true}, {32, true}, {33, false}, {59, false},
	} {
		at := base.Add(time.Duration(tc.minute) * time.Minute)
		if got := InNewsWindow(at); got != tc.want {
			t.Errorf("minute %d: InNewsWindow = %v, want %v", tc.minute, got, tc.want)
		}
	}

	inWindow := time.Date(2026, 3, 4, 14, 31, 0, 0, time.UTC)
	strict := NewEngine(Config{StrictNews: true}, WithClock(func() time.Time { return inWindow }))
	if err := strict.CheckNews(); !errors.Is(err, ErrNewsWindow) {
		t.Errorf("err = %v, want ErrNewsWindow", err)
	}
}

func TestMarketReport(t *testing.T) {
	friday := time.Date(2026, 3, 6, 22, 0, 0, 0, time.UTC) // forex just closed
	e := NewEngine(DefaultConfig(), WithClock(func() time.Time { return friday }))

	statuses := e.MarketReport(time.UTC)
	byPair := map[string]MarketStatus{}
	for _, s := range statuses {
		byPair[s.Pair] = s
	}

	if !byPair["BTC/USDT"].Open {
		t.Error("crypto must report open")
	}
	fx := byPair["EUR/USD"]
	if fx.Open {
		t.Error("forex must report closed on Friday 22:00 UTC")
	}
	if fx.NextOpen == nil {
		t.Fatal("closed market must report next open")
	}
	wantReopen := time.Date(2026, 3, 8, 21, 0, 0, 0, time.UTC)
	if !fx.NextOpen.Equal(wantReopen) {
		t.Errorf("forex next open = %v, want %v", fx.NextOpen, wantReopen)
	}
}

func TestFormatSignal(t *testing.T) {
	msg := FormatSignal("EUR/USD", models.DirUp, 4, []string{"RSI(14) above 55", "EMA20 above EMA50"})
	want := "EUR/USD\n📈 Direction: UP\n💡 Confidence: 4/5\nReason: RSI(14) above 55, EMA20 above EMA50.\n⚠️ This is not financial advice."
	if msg != want {
		t.Errorf("message:\n%q\nwant:\n%q", msg, want)
	}

	down := FormatSignal("GBP/JPY", models.DirDown, 2, nil)
	if !strings.Contains(down, "📉 Direction: DOWN") {
		t.Errorf("down message missing bearish emoji: %q", down)
	}
	if !strings.Contains(down, "Reason: Mixed momentum.") {
		t.Errorf("empty reasons must fall back: %q", down)
	}

	nt := FormatNoTrade("EUR/USD", "market closed")
	if !strings.Contains(nt, "NO-TRADE") || !strings.Contains(nt, "market closed") {
		t.Errorf("no-trade message: %q", nt)
	}
}
