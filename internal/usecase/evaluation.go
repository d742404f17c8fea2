package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	"signalforge/internal/marketdata"
	applogger "signalforge/pkg/logger"
	xutil "signalforge/pkg/util"
)

// ErrNotEvaluable means the +4-bar exit candle does not exist yet. The
// caller retries later; it must never be recorded as a win or a loss.
var ErrNotEvaluable = errors.New("evaluation horizon not reached")

// horizonBars is the fixed exit horizon: four bars past the entry bar.
const horizonBars = 4

// EvaluatorConfig tunes the background sweep.
type EvaluatorConfig struct {
	Interval  time.Duration
	BatchSize int
}

// Evaluator re-scores served signals at the fixed horizon. Candles come
// from the live adapter first, then from the archive when the providers'
// lookback window has rolled past the entry time.
type Evaluator struct {
	fetcher CandleFetcher
	archive repository.CandleArchive
	store   repository.SignalStore
	metrics repository.Metrics
	logger  *applogger.Logger
	cfg     EvaluatorConfig
}

// NewEvaluator wires the evaluation path. The archive may be nil; the
// evaluator then relies on the adapter's lookback alone.
func NewEvaluator(
	fetcher CandleFetcher,
	archive repository.CandleArchive,
	store repository.SignalStore,
	metrics repository.Metrics,
	logger *applogger.Logger,
	cfg EvaluatorConfig,
) *Evaluator {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	return &Evaluator{
		fetcher: fetcher,
		archive: archive,
		store:   store,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Evaluate locates the bar covering (or immediately following) the
// signal's entry time, advances four bars, and computes the percentage
// move signed by direction. Returns ErrNotEvaluable while the horizon is
// incomplete.
func (e *Evaluator) Evaluate(ctx context.Context, row *models.SignalLog) (*models.Evaluation, error) {
	tf := repository.NormalizeTimeframe(row.Timeframe)

	candles, err := e.candlesFor(ctx, row.Pair, tf, row.EntryTime)
	if err != nil {
		return nil, err
	}

	ev, err := EvaluateAgainst(candles, row.EntryTime, row.Direction, row.EntryPrice)
	if err != nil {
		return nil, err
	}
	return ev, nil
}

// EvaluateAgainst is the pure horizon computation over a candle series.
func EvaluateAgainst(candles []models.Candle, entryTime time.Time, dir models.Direction, entryPrice float64) (*models.Evaluation, error) {
	idx := entryIndex(candles, entryTime)
	if idx < 0 {
		return nil, ErrNotEvaluable
	}
	exitIdx := idx + horizonBars
	if exitIdx >= len(candles) {
		return nil, ErrNotEvaluable
	}

	if entryPrice <= 0 {
		entryPrice = candles[idx].Close
	}
	exit := candles[exitIdx]

	pnl := (exit.Close - entryPrice) / entryPrice * 100
	if dir == models.DirDown {
		pnl = -pnl
	}
	outcome := models.OutcomeLoss
	if pnl > 0 {
		outcome = models.OutcomeWin
	}
	return &models.Evaluation{
		EntryPrice: entryPrice,
		ExitPrice:  exit.Close,
		PnlPct:     pnl,
		ExitTime:   exit.ClosedAt(),
		Outcome:    outcome,
	}, nil
}

// entryIndex finds the bar covering entryTime, or the first bar opening
// after it. Returns -1 when the series ends before the entry.
func entryIndex(candles []models.Candle, entryTime time.Time) int {
	ms := entryTime.UnixMilli()
	for i, c := range candles {
		if c.Covers(entryTime) || c.OpenTime >= ms {
			return i
		}
	}
	return -1
}

// candlesFor reads candles covering the entry window: the adapter first,
// the archive when the adapter's lookback no longer reaches the entry.
func (e *Evaluator) candlesFor(ctx context.Context, pair string, tf repository.Timeframe, entryTime time.Time) ([]models.Candle, error) {
	if series, err := e.fetcher.Fetch(ctx, pair, tf); err == nil {
		if covers(series.Candles, entryTime) {
			return series.Candles, nil
		}
	}

	if e.archive == nil {
		return nil, ErrNotEvaluable
	}
	tfDur := time.Duration(tf.Seconds()) * time.Second
	// Align the window to timeframe boundaries so the resample groups
	// below start on a bar boundary instead of wherever the entry fell.
	from, to := xutil.AlignFromTo(entryTime.Add(-tfDur), entryTime.Add(time.Duration(horizonBars+2)*tfDur), string(tf))
	base, err := e.archive.Read(ctx, pair, repository.TF1m, from, to)
	if err != nil {
		return nil, fmt.Errorf("archive read: %w", err)
	}
	if k := tf.BaseMultiple(); k > 1 {
		base = marketdata.Resample(base, k)
	}
	if len(base) == 0 {
		return nil, ErrNotEvaluable
	}
	return base, nil
}

// covers reports whether the series reaches back to the entry time.
func covers(candles []models.Candle, entryTime time.Time) bool {
	if len(candles) == 0 {
		return false
	}
	return candles[0].OpenTime <= entryTime.UnixMilli()
}

// EvaluateAndStore evaluates one stored row by id and persists the result.
// A pending horizon returns (nil, ErrNotEvaluable) without a write.
func (e *Evaluator) EvaluateAndStore(ctx context.Context, id int64) (*models.Evaluation, error) {
	row, err := e.store.GetSignalLog(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Evaluated() {
		return &models.Evaluation{
			EntryPrice: row.EntryPrice,
			ExitPrice:  deref(row.ExitPrice),
			PnlPct:     deref(row.PnlPct),
			ExitTime:   derefTime(row.ExitTime),
			Outcome:    *row.Outcome,
		}, nil
	}

	ev, err := e.Evaluate(ctx, row)
	if err != nil {
		return nil, err
	}
	if err := e.store.UpdateSignalEvaluation(ctx, id, ev); err != nil {
		return nil, fmt.Errorf("update evaluation: %w", err)
	}
	e.metrics.RecordEvaluation(ev.Outcome)
	return ev, nil
}

// RunSweep periodically evaluates pending rows until the context ends.
func (e *Evaluator) RunSweep(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepOnce(ctx)
		}
	}
}

func (e *Evaluator) sweepOnce(ctx context.Context) {
	rows, err := e.store.ListPendingEvaluations(ctx, e.cfg.BatchSize)
	if err != nil {
		e.logger.Warn("pending evaluation list failed", applogger.Error(err))
		return
	}
	for _, row := range rows {
		if _, err := e.EvaluateAndStore(ctx, row.ID); err != nil {
			if errors.Is(err, ErrNotEvaluable) {
				continue // horizon incomplete, retry next sweep
			}
			e.logger.Warn("evaluation failed",
				applogger.Int64("id", row.ID),
				applogger.String("pair", row.Pair),
				applogger.Error(err),
			)
		}
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func derefTime(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}
