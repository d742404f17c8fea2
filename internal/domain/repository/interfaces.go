package repository

import (
	"context"
	"time"

	"signalforge/internal/domain/models"
)

// CandleProvider fetches a candle series for one (pair, timeframe) from a
// single upstream source. Implementations return typed errors; the adapter
// chain advances to the next provider on any error.
type CandleProvider interface {
	Name() string
	FetchCandles(ctx context.Context, pair string, tf Timeframe, limit int) ([]models.Candle, error)
	// FullOHLC reports whether the provider returns real highs and lows.
	// Closes-only providers force the indicator layer to skip ADX/ATR.
	FullOHLC() bool
}

// SignalStore persists served-signal rows and their later evaluation.
// Writes are best-effort from the engine's point of view: a store failure
// must never block signal delivery.
type SignalStore interface {
	InsertSignalLog(ctx context.Context, row *models.SignalLog) (int64, error)
	GetSignalLog(ctx context.Context, id int64) (*models.SignalLog, error)
	ListSignalLogsSince(ctx context.Context, since time.Time, limit int) ([]models.SignalLog, error)
	ListPendingEvaluations(ctx context.Context, limit int) ([]models.SignalLog, error)
	UpdateSignalEvaluation(ctx context.Context, id int64, ev *models.Evaluation) error
	Health(ctx context.Context) error
	Close() error
}

// CandleArchive keeps an append-only copy of fetched base series so the
// evaluator can re-read candles after the providers' lookback window has
// rolled past the entry time.
type CandleArchive interface {
	Append(ctx context.Context, pair string, tf Timeframe, candles []models.Candle) error
	Read(ctx context.Context, pair string, tf Timeframe, from, to time.Time) ([]models.Candle, error)
	Health(ctx context.Context) error
	Close() error
}

// SignalPublisher emits served-signal events for downstream consumers
// (the bot layer). Fire-and-forget: errors are logged, never propagated.
type SignalPublisher interface {
	PublishServed(ctx context.Context, row *models.SignalLog) error
	Close() error
}

// Metrics records operational counters for the engine.
type Metrics interface {
	RecordFetch(provider, pair string, seconds float64)
	RecordProviderError(provider string)
	RecordCacheHit(hit bool)
	RecordSignalServed(pair, direction string)
	RecordEvaluation(outcome string)
}
