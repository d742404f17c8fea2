package usecase

import (
	"context"
	"errors"
	"time"

	"signalforge/internal/confluence"
	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	"signalforge/internal/indicator"
	"signalforge/internal/marketdata"
	applogger "signalforge/pkg/logger"
)

// CandleFetcher is the slice of the market-data adapter the signal and
// evaluation paths need.
type CandleFetcher interface {
	Fetch(ctx context.Context, pair string, tf repository.Timeframe) (*marketdata.Series, error)
}

// SignalService runs the full pipeline for one request: session/news
// pre-checks, multi-timeframe fetch, indicator computation, ensemble
// aggregation with forced and static fallbacks, formatting, and
// best-effort persistence of the served signal.
type SignalService struct {
	fetcher   CandleFetcher
	engine    *confluence.Engine
	store     repository.SignalStore
	publisher repository.SignalPublisher
	metrics   repository.Metrics
	logger    *applogger.Logger
	now       func() time.Time
}

// NewSignalService wires the signal pipeline. Store and publisher may be
// nil; persistence is best-effort and never blocks signal delivery.
func NewSignalService(
	fetcher CandleFetcher,
	engine *confluence.Engine,
	store repository.SignalStore,
	publisher repository.SignalPublisher,
	metrics repository.Metrics,
	logger *applogger.Logger,
) *SignalService {
	return &SignalService{
		fetcher:   fetcher,
		engine:    engine,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// ensembleTimeframes in scoring order; forcedOrder is the fallback
// preference when the ensemble rejects.
var (
	ensembleTimeframes = []repository.Timeframe{repository.TF1m, repository.TF3m, repository.TF5m}
	forcedOrder        = []repository.Timeframe{repository.TF5m, repository.TF3m, repository.TF1m}
)

// GetSignal produces a signal for (pair, tf). It never returns an error
// for data problems: every failure mode degrades to a fallback or a
// no-trade block, so the caller always has text to forward.
func (s *SignalService) GetSignal(ctx context.Context, pair, tf string) (*models.SignalResult, error) {
	timeframe := repository.NormalizeTimeframe(tf)
	generated := s.now().UTC()

	if err := s.engine.CheckSession(pair); err != nil {
		return s.noTrade(pair, timeframe, "market closed", generated), nil
	}
	if err := s.engine.CheckNews(); err != nil {
		return s.noTrade(pair, timeframe, "news risk window", generated), nil
	}

	scores := make(map[repository.Timeframe]models.TimeframeScore)
	var lastPrice float64
	for _, etf := range ensembleTimeframes {
		series, err := s.fetcher.Fetch(ctx, pair, etf)
		if err != nil {
			if !errors.Is(err, marketdata.ErrNoData) {
				s.logger.Warn("timeframe fetch failed",
					applogger.String("pair", pair),
					applogger.String("tf", string(etf)),
					applogger.Error(err),
				)
			}
			continue
		}

		var snap models.IndicatorSnapshot
		if series.ClosesOnly {
			snap = indicator.ComputeCloses(models.Closes(series.Candles))
		} else {
			snap = indicator.Compute(series.Candles)
		}
		scores[etf] = s.engine.Score(string(etf), snap)

		if etf == timeframe && len(series.Candles) > 0 {
			lastPrice = series.Candles[len(series.Candles)-1].Close
		}
	}

	decision := s.decide(pair, timeframe, scores)
	result := &models.SignalResult{
		OK:          true,
		Pair:        pair,
		Timeframe:   string(timeframe),
		Direction:   decision.Dir,
		Confidence:  decision.Confidence,
		Reasons:     decision.Reasons,
		Message:     confluence.FormatSignal(pair, decision.Dir, decision.Confidence, decision.Reasons),
		Price:       lastPrice,
		GeneratedAt: generated,
	}

	s.recordServed(ctx, result)
	return result, nil
}

// decide runs the ensemble when all three timeframes scored, then the
// forced single-timeframe fallback, then the static default.
func (s *SignalService) decide(pair string, tf repository.Timeframe, scores map[repository.Timeframe]models.TimeframeScore) models.AggregateDecision {
	if len(scores) == len(ensembleTimeframes) {
		ordered := make([]models.TimeframeScore, 0, len(ensembleTimeframes))
		for _, etf := range ensembleTimeframes {
			ordered = append(ordered, scores[etf])
		}
		if dec := s.engine.Aggregate(ordered); dec.OK {
			return dec
		}
	}

	for _, ftf := range forcedOrder {
		score, ok := scores[ftf]
		if !ok {
			continue
		}
		if dec, ok := s.engine.Forced(score); ok {
			return dec
		}
	}

	return s.engine.StaticDefault(pair, string(tf))
}

func (s *SignalService) noTrade(pair string, tf repository.Timeframe, reason string, at time.Time) *models.SignalResult {
	return &models.SignalResult{
		OK:          true,
		Pair:        pair,
		Timeframe:   string(tf),
		Direction:   models.DirFlat,
		NoTrade:     true,
		Reasons:     []string{reason},
		Message:     confluence.FormatNoTrade(pair, reason),
		GeneratedAt: at,
	}
}

// recordServed persists and publishes the served signal. Fire-and-forget:
// failures are logged and never surfaced.
func (s *SignalService) recordServed(ctx context.Context, res *models.SignalResult) {
	s.metrics.RecordSignalServed(res.Pair, string(res.Direction))
	if res.NoTrade {
		return
	}

	row := &models.SignalLog{
		Pair:       res.Pair,
		Timeframe:  res.Timeframe,
		Direction:  res.Direction,
		EntryPrice: res.Price,
		EntryTime:  res.GeneratedAt,
		Source:     "engine",
		RawText:    res.Message,
		CreatedAt:  res.GeneratedAt,
	}

	if s.store != nil {
		id, err := s.store.InsertSignalLog(ctx, row)
		if err != nil {
			s.logger.Warn("signal log insert failed", applogger.Error(err))
		} else {
			row.ID = id
		}
	}
	if s.publisher != nil {
		if err := s.publisher.PublishServed(ctx, row); err != nil {
			s.logger.Warn("signal publish failed", applogger.Error(err))
		}
	}
}

// Markets returns the market-hours report in the given display timezone.
func (s *SignalService) Markets(tz *time.Location) []confluence.MarketStatus {
	return s.engine.MarketReport(tz)
}

// SignalsSince lists served-signal rows from the store.
func (s *SignalService) SignalsSince(ctx context.Context, since time.Time, limit int) ([]models.SignalLog, error) {
	if s.store == nil {
		return nil, nil
	}
	return s.store.ListSignalLogsSince(ctx, since, limit)
}
