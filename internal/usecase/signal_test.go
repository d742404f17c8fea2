package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"signalforge/internal/confluence"
	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	"signalforge/internal/marketdata"
	applogger "signalforge/pkg/logger"
)

type fakeFetcher struct {
	series map[repository.Timeframe]*marketdata.Series
	err    error
	calls  int
}

func (f *fakeFetcher) Fetch(_ context.Context, pair string, tf repository.Timeframe) (*marketdata.Series, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.series[tf]
	if !ok {
		return nil, marketdata.ErrNoData
	}
	out := *s
	out.Pair = pair
	out.Timeframe = tf
	return &out, nil
}

type fakeStore struct {
	inserted []*models.SignalLog
	rows     map[int64]*models.SignalLog
	updates  map[int64]*models.Evaluation
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:    make(map[int64]*models.SignalLog),
		updates: make(map[int64]*models.Evaluation),
		nextID:  1,
	}
}

func (f *fakeStore) InsertSignalLog(_ context.Context, row *models.SignalLog) (int64, error) {
	id := f.nextID
	f.nextID++
	cp := *row
	cp.ID = id
	f.inserted = append(f.inserted, &cp)
	f.rows[id] = &cp
	return id, nil
}

func (f *fakeStore) GetSignalLog(_ context.Context, id int64) (*models.SignalLog, error) {
	return f.rows[id], nil
}

func (f *fakeStore) ListSignalLogsSince(_ context.Context, _ time.Time, _ int) ([]models.SignalLog, error) {
	out := make([]models.SignalLog, 0, len(f.inserted))
	for _, r := range f.inserted {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeStore) ListPendingEvaluations(_ context.Context, limit int) ([]models.SignalLog, error) {
	var out []models.SignalLog
	for _, r := range f.rows {
		if !r.Evaluated() && len(out) < limit {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateSignalEvaluation(_ context.Context, id int64, ev *models.Evaluation) error {
	f.updates[id] = ev
	if row, ok := f.rows[id]; ok {
		row.Outcome = &ev.Outcome
	}
	return nil
}

func (f *fakeStore) Health(context.Context) error { return nil }
func (f *fakeStore) Close() error                 { return nil }

type fakePublisher struct{ published []*models.SignalLog }

func (f *fakePublisher) PublishServed(_ context.Context, row *models.SignalLog) error {
	f.published = append(f.published, row)
	return nil
}
func (f *fakePublisher) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordFetch(string, string, float64) {}
func (nopMetrics) RecordProviderError(string)          {}
func (nopMetrics) RecordCacheHit(bool)                 {}
func (nopMetrics) RecordSignalServed(string, string)   {}
func (nopMetrics) RecordEvaluation(string)             {}

// trendingSeries builds n rising 1-minute candles with full OHLC.
func trendingSeries(n int) *marketdata.Series {
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		c := 100.0 + float64(i)
		candles[i] = models.Candle{
			OpenTime:  int64(i) * 60_000,
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    10,
			CloseTime: int64(i+1) * 60_000,
		}
	}
	return &marketdata.Series{Candles: candles, Provider: "test"}
}

func quietTime() time.Time {
	return time.Date(2026, 3, 4, 12, 15, 0, 0, time.UTC) // Wednesday, no news window
}

func newService(fetcher CandleFetcher, engine *confluence.Engine, store repository.SignalStore, pub repository.SignalPublisher) *SignalService {
	return NewSignalService(fetcher, engine, store, pub, nopMetrics{}, applogger.Nop())
}

func TestGetSignal_EnsembleHappyPath(t *testing.T) {
	fetcher := &fakeFetcher{series: map[repository.Timeframe]*marketdata.Series{
		repository.TF1m: trendingSeries(120),
		repository.TF3m: trendingSeries(120),
		repository.TF5m: trendingSeries(120),
	}}
	engine := confluence.NewEngine(confluence.DefaultConfig(), confluence.WithClock(quietTime))
	store := newFakeStore()
	pub := &fakePublisher{}
	svc := newService(fetcher, engine, store, pub)

	res, err := svc.GetSignal(context.Background(), "BTC/USDT", "5m")
	if err != nil {
		t.Fatalf("GetSignal: %v", err)
	}
	if !res.OK || res.NoTrade {
		t.Fatalf("result = %+v, want tradeable", res)
	}
	if res.Direction != models.DirUp {
		t.Errorf("direction = %v, want UP for a rising series", res.Direction)
	}
	if res.Confidence < 2 || res.Confidence > 5 {
		t.Errorf("confidence %d out of [2,5]", res.Confidence)
	}
	if res.Price != 219 { // last close of 120 rising candles from 100
		t.Errorf("price = %v, want 219", res.Price)
	}
	if !strings.Contains(res.Message, "Direction: UP") || !strings.Contains(res.Message, "not financial advice") {
		t.Errorf("message template broken: %q", res.Message)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("signal log inserts = %d, want 1", len(store.inserted))
	}
	row := store.inserted[0]
	if row.Direction != res.Direction || row.EntryPrice != res.Price || row.RawText != res.Message {
		t.Errorf("stored row does not match result: %+v", row)
	}
	if len(pub.published) != 1 {
		t.Errorf("published = %d, want 1", len(pub.published))
	}
}

func TestGetSignal_MarketClosedIsNoTrade(t *testing.T) {
	saturday := time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC)
	engine := confluence.NewEngine(confluence.DefaultConfig(), confluence.WithClock(func() time.Time { return saturday }))
	fetcher := &fakeFetcher{}
	store := newFakeStore()
	svc := newService(fetcher, engine, store, nil)

	res, err := svc.GetSignal(context.Background(), "EUR/USD", "5m")
	if err != nil {
		t.Fatalf("GetSignal: %v", err)
	}
	if !res.NoTrade || res.Direction != models.DirFlat {
		t.Fatalf("result = %+v, want no-trade", res)
	}
	if !strings.Contains(res.Message, "NO-TRADE") {
		t.Errorf("message = %q", res.Message)
	}
	if fetcher.calls != 0 {
		t.Errorf("closed market must not fetch candles, got %d calls", fetcher.calls)
	}
	if len(store.inserted) != 0 {
		t.Errorf("no-trade must not be logged as a served signal")
	}
}

func TestGetSignal_NewsWindowIsNoTrade(t *testing.T) {
	atNews := time.Date(2026, 3, 4, 12, 31, 0, 0, time.UTC)
	engine := confluence.NewEngine(confluence.DefaultConfig(), confluence.WithClock(func() time.Time { return atNews }))
	svc := newService(&fakeFetcher{}, engine, nil, nil)

	res, err := svc.GetSignal(context.Background(), "BTC/USDT", "1m")
	if err != nil {
		t.Fatalf("GetSignal: %v", err)
	}
	if !res.NoTrade {
		t.Fatalf("result = %+v, want no-trade during news window", res)
	}
}

func TestGetSignal_NoDataFallsBackToStaticDefault(t *testing.T) {
	engine := confluence.NewEngine(confluence.DefaultConfig(), confluence.WithClock(quietTime))
	fetcher := &fakeFetcher{err: marketdata.ErrNoData}
	store := newFakeStore()
	svc := newService(fetcher, engine, store, nil)

	res, err := svc.GetSignal(context.Background(), "BTC/USDT", "5m")
	if err != nil {
		t.Fatalf("GetSignal: %v", err)
	}
	if !res.OK || res.NoTrade {
		t.Fatalf("result = %+v, want a static fallback signal", res)
	}
	if res.Confidence != 2 {
		t.Errorf("static default confidence = %d, want floor 2", res.Confidence)
	}
	if res.Direction != models.DirUp && res.Direction != models.DirDown {
		t.Errorf("static default direction = %v", res.Direction)
	}
	if len(store.inserted) != 1 {
		t.Errorf("fallback signal must still be logged")
	}
}

func TestGetSignal_ShortHistoryGoesThroughFallback(t *testing.T) {
	// 30 candles per timeframe: neutral snapshots, flat scores, ensemble
	// rejects, forced declines FLAT, static default serves.
	fetcher := &fakeFetcher{series: map[repository.Timeframe]*marketdata.Series{
		repository.TF1m: trendingSeries(30),
		repository.TF3m: trendingSeries(30),
		repository.TF5m: trendingSeries(30),
	}}
	engine := confluence.NewEngine(confluence.DefaultConfig(), confluence.WithClock(quietTime))
	svc := newService(fetcher, engine, newFakeStore(), nil)

	res, err := svc.GetSignal(context.Background(), "BTC/USDT", "5m")
	if err != nil {
		t.Fatalf("GetSignal: %v", err)
	}
	if res.Confidence != 2 {
		t.Errorf("short history must land on the low-confidence fallback, got %d", res.Confidence)
	}
}
