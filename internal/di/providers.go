package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"signalforge/internal/confluence"
	"signalforge/internal/domain/repository"
	"signalforge/internal/handler/api"
	"signalforge/internal/marketdata"
	"signalforge/internal/marketdata/stream"
	internalrepo "signalforge/internal/repository"
	"signalforge/internal/service/ratelimit"
	"signalforge/internal/usecase"
	"signalforge/pkg/cache"
	pkgch "signalforge/pkg/clickhouse"
	"signalforge/pkg/config"
	xhttp "signalforge/pkg/http"
	pkgkafka "signalforge/pkg/kafka"
	applogger "signalforge/pkg/logger"
	"signalforge/pkg/metrics"
	"signalforge/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache selects the candle cache backend.
func ProvideCache(cfg *config.Config) (cache.Store, error) {
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedis(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
		)
	}
	return cache.NewMemory(), nil
}

// ProvideHTTPClient creates the shared outbound client used by every
// market-data provider.
func ProvideHTTPClient(cfg *config.Config) *xhttp.Client {
	return xhttp.NewClient(xhttp.WithTimeout(cfg.Providers.Timeout))
}

// ProvideProviders builds the candle provider chain in priority order.
// Providers whose API key is empty still get constructed; they decline
// pairs they cannot serve at fetch time.
func ProvideProviders(cfg *config.Config, client *xhttp.Client) []repository.CandleProvider {
	return []repository.CandleProvider{
		marketdata.NewBinance(client),
		marketdata.NewFinnhub(client, cfg.Providers.FinnhubAPIKey),
		marketdata.NewTwelveData(client, cfg.Providers.TwelveDataAPIKey),
		marketdata.NewYahoo(client),
		marketdata.NewAlphaVantage(client, cfg.Providers.AlphaVantageAPIKey),
	}
}

// ProvideAdapter creates the market-data adapter with its cache and
// per-provider rate limiter.
func ProvideAdapter(
	cfg *config.Config,
	providers []repository.CandleProvider,
	store cache.Store,
	logger *applogger.Logger,
	m repository.Metrics,
) *marketdata.Adapter {
	return marketdata.NewAdapter(providers, store, ratelimit.New(), logger, m, marketdata.Config{
		CandleLimit: cfg.Providers.CandleLimit,
		CacheTTL:    cfg.Cache.TTL,
	})
}

// ProvideEngine creates the confluence engine from the ensemble and
// filter settings.
func ProvideEngine(cfg *config.Config) *confluence.Engine {
	return confluence.NewEngine(confluence.Config{
		Mode:          confluence.NormalizeMode(cfg.Ensemble.Mode),
		MinADX:        cfg.Ensemble.MinADX,
		MinATRPct:     cfg.Ensemble.MinATRPct,
		MaxATRPct:     cfg.Ensemble.MaxATRPct,
		StrictSession: *cfg.Filters.StrictSession,
		StrictNews:    *cfg.Filters.StrictNews,
	})
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when the
// archive is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(true, false),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideCandleArchive creates the 1m candle archive over ClickHouse.
// Nil when ClickHouse is disabled; the evaluator then relies on the
// providers' live lookback alone.
func ProvideCandleArchive(client *pkgch.Client, logger *applogger.Logger) (repository.CandleArchive, error) {
	if client == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return internalrepo.NewCHCandleArchive(ctx, client, logger)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideSignalPublisher wraps the producer, or nil when Kafka is off.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSignalStore connects to Postgres, or nil when no DSN is set;
// signals are then served without persistence.
func ProvideSignalStore(cfg *config.Config, logger *applogger.Logger) (repository.SignalStore, error) {
	if cfg.Postgres.DSN == "" {
		return nil, nil
	}
	return internalrepo.NewPostgresSignalStore(cfg.Postgres.DSN, logger)
}

// ProvideSignalService wires the signal pipeline use case.
func ProvideSignalService(
	adapter *marketdata.Adapter,
	engine *confluence.Engine,
	store repository.SignalStore,
	publisher repository.SignalPublisher,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.SignalService {
	return usecase.NewSignalService(adapter, engine, store, publisher, m, logger)
}

// ProvideEvaluator wires the outcome evaluation use case. Nil without a
// signal store since there is nothing to sweep.
func ProvideEvaluator(
	cfg *config.Config,
	adapter *marketdata.Adapter,
	archive repository.CandleArchive,
	store repository.SignalStore,
	m repository.Metrics,
	logger *applogger.Logger,
) *usecase.Evaluator {
	if store == nil {
		return nil
	}
	return usecase.NewEvaluator(adapter, archive, store, m, logger, usecase.EvaluatorConfig{
		Interval:  cfg.Evaluator.Interval,
		BatchSize: cfg.Evaluator.BatchSize,
	})
}

// ProvideWarmer creates the Binance kline warmer when both the stream
// and the archive it feeds are enabled.
func ProvideWarmer(cfg *config.Config, archive repository.CandleArchive, logger *applogger.Logger) *stream.Warmer {
	if !cfg.Stream.Enabled || archive == nil {
		return nil
	}
	url := cfg.Stream.URL
	if url == "" {
		url = stream.DefaultURL
	}
	return stream.New(url, cfg.Stream.Pairs, cfg.Stream.ReconnectDelay, cfg.Stream.PingInterval, archive, logger)
}

// ProvideHandler builds the Echo handler, registering health checks for
// whichever backing stores are configured.
func ProvideHandler(
	cfg *config.Config,
	logger *applogger.Logger,
	signals *usecase.SignalService,
	evaluator *usecase.Evaluator,
	store repository.SignalStore,
	archive repository.CandleArchive,
) (xhttp.Handler, error) {
	tz, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	var checks []api.HealthChecker
	if store != nil {
		checks = append(checks, store)
	}
	if archive != nil {
		checks = append(checks, archive)
	}
	return api.NewSignalsHandler(logger, signals, evaluator, tz, checks...), nil
}

// ProvideApp assembles the application. Closers run in reverse order on
// shutdown so the producer drains before its transports go away.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	warmer *stream.Warmer,
	evaluator *usecase.Evaluator,
	store repository.SignalStore,
	archive repository.CandleArchive,
	publisher repository.SignalPublisher,
	cacheStore cache.Store,
) *server.App {
	closers := make([]io.Closer, 0, 4)
	closers = append(closers, cacheStore)
	if store != nil {
		closers = append(closers, store)
	}
	if archive != nil {
		closers = append(closers, archive)
	}
	if publisher != nil {
		closers = append(closers, publisher)
	}
	return server.New(cfg, logger, handler, warmer, evaluator, closers...)
}
