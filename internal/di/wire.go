//go:build wireinject
// +build wireinject

package di

import (
	"FinCast/pkg/config"
	"FinCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideMarketData,
		ProvideInferenceEngine,
		ProvideNormalizer,
		ProvideBytesCache,
		ProvideInfoCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvideRoster,
		ProvideHistory,
		ProvidePredictionPublisher,
		ProvideSnapshotStore,

		// Use cases
		ProvidePredictor,
		ProvideRefresher,
		ProvideScheduler,
		ProvideCompaniesUseCase,
		ProvideRefreshTriggerHandler,
		ProvideKafkaConsumer,

		// Transport
		ProvideCompaniesHandler,
		ProvideStreamHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
