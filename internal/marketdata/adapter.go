package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"signalforge/internal/domain/models"
	"signalforge/internal/domain/repository"
	"signalforge/internal/service/ratelimit"
	"signalforge/pkg/cache"
	applogger "signalforge/pkg/logger"
)

// Series is a fetched candle series plus its provenance. ClosesOnly
// propagates to the indicator layer so ADX/ATR are skipped for providers
// without real highs and lows.
type Series struct {
	Pair       string               `json:"pair"`
	Timeframe  repository.Timeframe `json:"timeframe"`
	Candles    []models.Candle      `json:"candles"`
	Provider   string               `json:"provider"`
	ClosesOnly bool                 `json:"closes_only"`
}

// Config tunes the adapter.
type Config struct {
	CandleLimit int
	CacheTTL    time.Duration
	// Outbound per-provider rate limit (token bucket).
	ProviderBurst  float64
	ProviderPerSec float64
}

// Adapter walks the provider chain in priority order and caches the base
// 1-minute series so 1m/3m/5m all derive from a single upstream call.
type Adapter struct {
	providers []repository.CandleProvider
	store     cache.Store
	limiter   *ratelimit.Limiter
	logger    *applogger.Logger
	metrics   repository.Metrics
	cfg       Config
}

// NewAdapter creates an adapter over the given provider chain. Order
// matters: the first provider that returns candles wins.
func NewAdapter(
	providers []repository.CandleProvider,
	store cache.Store,
	limiter *ratelimit.Limiter,
	logger *applogger.Logger,
	metrics repository.Metrics,
	cfg Config,
) *Adapter {
	if cfg.CandleLimit <= 0 {
		cfg.CandleLimit = 200
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 4 * time.Second
	}
	if cfg.ProviderBurst <= 0 {
		cfg.ProviderBurst = 5
	}
	if cfg.ProviderPerSec <= 0 {
		cfg.ProviderPerSec = 1
	}
	return &Adapter{
		providers: providers,
		store:     store,
		limiter:   limiter,
		logger:    logger,
		metrics:   metrics,
		cfg:       cfg,
	}
}

// Fetch returns candles for (pair, tf). The base 1-minute series is cached
// briefly and resampled for 3m/5m; when the base path yields nothing the
// requested timeframe is fetched natively as a fallback.
func (a *Adapter) Fetch(ctx context.Context, pair string, tf repository.Timeframe) (*Series, error) {
	base, err := a.fetchBase(ctx, pair)
	if err == nil {
		candles := base.Candles
		if k := tf.BaseMultiple(); k > 1 {
			candles = Resample(candles, k)
		}
		return &Series{
			Pair:       pair,
			Timeframe:  tf,
			Candles:    candles,
			Provider:   base.Provider,
			ClosesOnly: base.ClosesOnly,
		}, nil
	}

	// Base path dry: fetch the requested timeframe natively.
	series, nerr := a.fetchChain(ctx, pair, tf, a.cfg.CandleLimit)
	if nerr != nil {
		return nil, ErrNoData
	}
	return series, nil
}

func (a *Adapter) fetchBase(ctx context.Context, pair string) (*Series, error) {
	key := cache.Key("candles", pair, string(repository.TF1m))

	if data, err := a.store.Get(ctx, key); err == nil {
		var s Series
		if jerr := json.Unmarshal(data, &s); jerr == nil && len(s.Candles) > 0 {
			a.metrics.RecordCacheHit(true)
			return &s, nil
		}
	}
	a.metrics.RecordCacheHit(false)

	// Over-fetch the base series so the coarsest resample still covers the
	// indicator lookback.
	baseLimit := a.cfg.CandleLimit * repository.TF5m.BaseMultiple()
	series, err := a.fetchChain(ctx, pair, repository.TF1m, baseLimit)
	if err != nil {
		return nil, err
	}

	if data, jerr := json.Marshal(series); jerr == nil {
		if serr := a.store.Set(ctx, key, data, a.cfg.CacheTTL); serr != nil {
			a.logger.Warn("candle cache set failed",
				applogger.String("pair", pair),
				applogger.Error(serr),
			)
		}
	}
	return series, nil
}

func (a *Adapter) fetchChain(ctx context.Context, pair string, tf repository.Timeframe, limit int) (*Series, error) {
	for _, p := range a.providers {
		if a.limiter != nil && !a.limiter.Allow(p.Name(), a.cfg.ProviderBurst, a.cfg.ProviderPerSec) {
			a.logger.Debug("provider rate limited", applogger.String("provider", p.Name()))
			continue
		}

		start := time.Now()
		candles, err := p.FetchCandles(ctx, pair, tf, limit)
		if err != nil {
			if errors.Is(err, ErrProviderSkipped) {
				continue
			}
			a.metrics.RecordProviderError(p.Name())
			a.logger.Warn("provider fetch failed",
				applogger.String("provider", p.Name()),
				applogger.String("pair", pair),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
			continue
		}
		a.metrics.RecordFetch(p.Name(), pair, time.Since(start).Seconds())

		return &Series{
			Pair:       pair,
			Timeframe:  tf,
			Candles:    candles,
			Provider:   p.Name(),
			ClosesOnly: !p.FullOHLC(),
		}, nil
	}
	return nil, ErrNoData
}
