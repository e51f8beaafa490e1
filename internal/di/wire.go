//go:build wireinject
// +build wireinject

package di

import (
	"RateCast/pkg/config"
	"RateCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Logging and metrics
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideObservationStore,
		ProvideArtifactStore,
		ProvideObservationPublisher,
		ProvideRateStream,

		// Analytics engines
		ProvideImportanceAnalyzer,
		ProvideElasticityEstimator,
		ProvideDemandFitter,
		ProvideDemandPredictor,

		// Use cases
		ProvideArtifactHolder,
		ProvideFitErrorLog,
		ProvideRateWindow,
		ProvideRateCollector,
		ProvideObservationProcessor,
		ProvideKafkaBookingsHandler,
		ProvideRefitUseCase,
		ProvideQuoteUseCase,
		ProvideRefitQueue,

		// HTTP surface
		ProvideQuoteCache,
		ProvideQuoteHandler,
		ProvideAnalysisHandler,
		ProvideIngestHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
