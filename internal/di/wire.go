//go:build wireinject
// +build wireinject

package di

import (
	"signalforge/pkg/config"
	"signalforge/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideHTTPClient,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideCandleArchive,
		ProvideSignalPublisher,
		ProvideSignalStore,

		// Market data and scoring
		ProvideProviders,
		ProvideAdapter,
		ProvideEngine,

		// Use cases
		ProvideSignalService,
		ProvideEvaluator,
		ProvideWarmer,

		// Transport and application
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
