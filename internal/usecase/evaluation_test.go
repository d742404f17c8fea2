package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	"signalforge/internal/marketdata"
	applogger "signalforge/pkg/logger"
)

// bars builds one candle of tfSec seconds per close, starting at start.
func bars(start time.Time, tfSec int64, closes []float64) []models.Candle {
	out := make([]models.Candle, len(closes))
	for i, c := range closes {
		open := start.Add(time.Duration(int64(i)*tfSec) * time.Second).UnixMilli()
		out[i] = models.Candle{
			OpenTime:  open,
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			CloseTime: open + tfSec*1000,
		}
	}
	return out
}

func TestEvaluateAgainst_Horizon(t *testing.T) {
	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	series := bars(start, 300, []float64{100, 101, 102, 103, 104, 105, 106, 107})
	entry := start.Add(2*5*time.Minute + 30*time.Second) // inside bar 2 (close 102)

	ev, err := EvaluateAgainst(series, entry, models.DirUp, 0)
	if err != nil {
		t.Fatalf("EvaluateAgainst: %v", err)
	}
	if ev.ExitPrice != 106 { // bar 2 + 4 bars
		t.Errorf("exit price = %v, want 106", ev.ExitPrice)
	}
	if ev.EntryPrice != 102 {
		t.Errorf("entry price = %v, want entry bar close 102", ev.EntryPrice)
	}
	wantPnl := (106.0 - 102.0) / 102.0 * 100
	if diff := ev.PnlPct - wantPnl; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("pnl = %v, want %v", ev.PnlPct, wantPnl)
	}
	if ev.Outcome != models.OutcomeWin {
		t.Errorf("outcome = %v, want WIN", ev.Outcome)
	}
	if want := series[6].ClosedAt(); !ev.ExitTime.Equal(want) {
		t.Errorf("exit time = %v, want %v", ev.ExitTime, want)
	}
}

func TestEvaluateAgainst_DownDirectionSignsPnl(t *testing.T) {
	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	series := bars(start, 300, []float64{100, 99, 98, 97, 96, 95, 94, 93})
	entry := start.Add(30 * time.Second) // bar 0

	ev, err := EvaluateAgainst(series, entry, models.DirDown, 100)
	if err != nil {
		t.Fatalf("EvaluateAgainst: %v", err)
	}
	if ev.PnlPct <= 0 {
		t.Errorf("price fell on a DOWN call, pnl = %v, want positive", ev.PnlPct)
	}
	if ev.Outcome != models.OutcomeWin {
		t.Errorf("outcome = %v, want WIN", ev.Outcome)
	}
}

func TestEvaluateAgainst_IncompleteHorizonIsPending(t *testing.T) {
	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	series := bars(start, 60, []float64{100, 101, 102, 103, 104, 105})

	// Entry at bar 2 leaves only 3 subsequent bars.
	entry := start.Add(2 * time.Minute)
	if _, err := EvaluateAgainst(series, entry, models.DirUp, 0); !errors.Is(err, ErrNotEvaluable) {
		t.Errorf("want ErrNotEvaluable with 3 bars after entry, got %v", err)
	}

	// Entry after the series ends.
	late := start.Add(time.Hour)
	if _, err := EvaluateAgainst(series, late, models.DirUp, 0); !errors.Is(err, ErrNotEvaluable) {
		t.Errorf("want ErrNotEvaluable past series end, got %v", err)
	}
}

type fakeArchive struct {
	candles  []models.Candle
	reads    int
	lastFrom time.Time
	lastTo   time.Time
}

func (f *fakeArchive) Append(context.Context, string, repository.Timeframe, []models.Candle) error {
	return nil
}

func (f *fakeArchive) Read(_ context.Context, _ string, _ repository.Timeframe, from, to time.Time) ([]models.Candle, error) {
	f.reads++
	f.lastFrom, f.lastTo = from, to
	var out []models.Candle
	for _, c := range f.candles {
		if c.OpenTime >= from.UnixMilli() && c.OpenTime < to.UnixMilli() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeArchive) Health(context.Context) error { return nil }
func (f *fakeArchive) Close() error                 { return nil }

func newEvaluator(fetcher CandleFetcher, archive repository.CandleArchive, store repository.SignalStore) *Evaluator {
	return NewEvaluator(fetcher, archive, store, nopMetrics{}, applogger.Nop(), EvaluatorConfig{})
}

func TestEvaluateAndStore_PersistsOutcome(t *testing.T) {
	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	series := &marketdata.Series{Candles: bars(start, 60, []float64{100, 101, 102, 103, 104, 105, 106})}
	fetcher := &fakeFetcher{series: map[repository.Timeframe]*marketdata.Series{repository.TF1m: series}}
	store := newFakeStore()
	ev := newEvaluator(fetcher, nil, store)

	id, _ := store.InsertSignalLog(context.Background(), &models.SignalLog{
		Pair:       "BTC/USDT",
		Timeframe:  "1m",
		Direction:  models.DirUp,
		EntryPrice: 100,
		EntryTime:  start.Add(30 * time.Second),
	})

	res, err := ev.EvaluateAndStore(context.Background(), id)
	if err != nil {
		t.Fatalf("EvaluateAndStore: %v", err)
	}
	if res.Outcome != models.OutcomeWin {
		t.Errorf("outcome = %v, want WIN", res.Outcome)
	}
	if store.updates[id] == nil {
		t.Fatal("evaluation not persisted")
	}

	// A second call must return the stored outcome without re-evaluating.
	again, err := ev.EvaluateAndStore(context.Background(), id)
	if err != nil {
		t.Fatalf("second EvaluateAndStore: %v", err)
	}
	if again.Outcome != models.OutcomeWin {
		t.Errorf("stored outcome = %v, want WIN", again.Outcome)
	}
}

func TestEvaluate_ArchiveFallbackWhenLookbackRolledPast(t *testing.T) {
	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

	// The live fetch only reaches back an hour past the entry; the archive
	// holds the older bars.
	recent := &marketdata.Series{Candles: bars(start.Add(2*time.Hour), 60, []float64{200, 201, 202})}
	fetcher := &fakeFetcher{series: map[repository.Timeframe]*marketdata.Series{repository.TF1m: recent}}
	archive := &fakeArchive{candles: bars(start, 60, []float64{100, 101, 102, 103, 104, 105, 106})}
	ev := newEvaluator(fetcher, archive, newFakeStore())

	res, err := ev.Evaluate(context.Background(), &models.SignalLog{
		Pair:       "BTC/USDT",
		Timeframe:  "1m",
		Direction:  models.DirUp,
		EntryPrice: 100,
		EntryTime:  start.Add(30 * time.Second),
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if archive.reads != 1 {
		t.Errorf("archive reads = %d, want 1", archive.reads)
	}
	if res.Outcome != models.OutcomeWin || res.ExitPrice != 104 {
		t.Errorf("evaluation = %+v, want WIN exiting at 104", res)
	}
}

func TestEvaluate_ArchiveWindowAlignedToTimeframe(t *testing.T) {
	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	fetcher := &fakeFetcher{err: marketdata.ErrNoData}
	archive := &fakeArchive{candles: bars(start, 60, closes)}
	ev := newEvaluator(fetcher, archive, newFakeStore())

	// Entry mid-bar on a 3m signal: the read window must snap to 3-minute
	// boundaries so the resampled groups line up with real 3m bars.
	entry := start.Add(7*time.Minute + 30*time.Second)
	res, err := ev.Evaluate(context.Background(), &models.SignalLog{
		Pair:      "BTC/USDT",
		Timeframe: "3m",
		Direction: models.DirUp,
		EntryTime: entry,
	})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}

	if want := start.Add(3 * time.Minute); !archive.lastFrom.Equal(want) {
		t.Errorf("read from = %v, want aligned %v", archive.lastFrom, want)
	}
	if want := start.Add(24 * time.Minute); !archive.lastTo.Equal(want) {
		t.Errorf("read to = %v, want aligned %v", archive.lastTo, want)
	}

	// Entry bar is the aligned 12:06 group (close 108); exit four 3m bars
	// later is the 12:18 group (close 120).
	if res.EntryPrice != 108 || res.ExitPrice != 120 {
		t.Errorf("entry/exit = %v/%v, want 108/120", res.EntryPrice, res.ExitPrice)
	}
	if res.Outcome != models.OutcomeWin {
		t.Errorf("outcome = %v, want WIN", res.Outcome)
	}
}

func TestSweepOnce_SkipsPendingHorizons(t *testing.T) {
	start := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	// Only 3 bars after the entry bar: still pending.
	series := &marketdata.Series{Candles: bars(start, 60, []float64{100, 101, 102, 103})}
	fetcher := &fakeFetcher{series: map[repository.Timeframe]*marketdata.Series{repository.TF1m: series}}
	store := newFakeStore()
	ev := newEvaluator(fetcher, nil, store)

	id, _ := store.InsertSignalLog(context.Background(), &models.SignalLog{
		Pair:      "BTC/USDT",
		Timeframe: "1m",
		Direction: models.DirUp,
		EntryTime: start.Add(30 * time.Second),
	})

	ev.sweepOnce(context.Background())
	if store.updates[id] != nil {
		t.Fatal("pending horizon must not be recorded")
	}
}
