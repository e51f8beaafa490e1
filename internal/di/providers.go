package di

import (
	"context"
	"fmt"
	"time"

	"RateCast/internal/analytics"
	"RateCast/internal/domain/repository"
	domsvc "RateCast/internal/domain/service"
	"RateCast/internal/handler/api"
	mid "RateCast/internal/middleware"
	internalrepo "RateCast/internal/repository"
	icache "RateCast/internal/service/cache"
	"RateCast/internal/service/rateshop"
	"RateCast/internal/usecase"
	pkgch "RateCast/pkg/clickhouse"
	"RateCast/pkg/config"
	pkgkafka "RateCast/pkg/kafka"
	applogger "RateCast/pkg/logger"
	"RateCast/pkg/metrics"
	"RateCast/pkg/queue"
	"RateCast/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger() (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, []string{
		"CREATE DATABASE IF NOT EXISTS ratecast",
		`CREATE TABLE IF NOT EXISTS ratecast.observations (
            property_id String,
            stay_date Date,
            price Float64,
            occupancy_rate Float64,
            bookings Int32,
            capacity Int32,
            temperature Nullable(Float64),
            precipitation Nullable(Float64),
            weather_quality Nullable(Float64),
            is_holiday UInt8
        ) ENGINE=ReplacingMergeTree ORDER BY (property_id, stay_date)`,
		`CREATE TABLE IF NOT EXISTS ratecast.artifacts (
            property_id String,
            refitted_at DateTime,
            payload String
        ) ENGINE=MergeTree ORDER BY (property_id, refitted_at)`,
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideObservationStore creates the ClickHouse observation store.
func ProvideObservationStore(chClient *pkgch.Client) repository.ObservationStore {
	return internalrepo.NewCHObservationStore(chClient)
}

// ProvideArtifactStore creates the ClickHouse artifact store.
func ProvideArtifactStore(chClient *pkgch.Client) repository.ArtifactStore {
	return internalrepo.NewCHArtifactStore(chClient)
}

// ProvideObservationPublisher creates the Kafka publisher for bookings.
func ProvideObservationPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideKafkaBookingsHandler registers the handler for the bookings topic.
func ProvideKafkaBookingsHandler(store repository.ObservationStore, m repository.Metrics, cfg *config.Config) *usecase.KafkaBookingsHandler {
	return usecase.NewKafkaBookingsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideRateStream creates the rate-shopper WebSocket stream.
func ProvideRateStream(cfg *config.Config) repository.RateStream {
	return rateshop.New(
		cfg.RateShop.APIKey,
		cfg.RateShop.WebSocketURL,
		cfg.RateShop.Properties,
		cfg.RateShop.ReconnectDelay,
		cfg.RateShop.PingInterval,
	)
}

// ProvideRateWindow creates the rolling competitor-rate window.
func ProvideRateWindow(cfg *config.Config) *usecase.RateWindow {
	return usecase.NewRateWindow(cfg.RateShop.WindowSize, cfg.RateShop.MaxPointAge)
}

// ProvideRateCollector creates the rate collector with its pipeline.
func ProvideRateCollector(
	stream repository.RateStream,
	window *usecase.RateWindow,
	m repository.Metrics,
) *usecase.RateCollector {
	// validate/throttle/buffer between WebSocket and the window
	pipe := mid.NewRealtimePipeline(window, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewRateCollector(stream, window, m, pipe)
}

// ProvideObservationProcessor creates the ingestion processor.
func ProvideObservationProcessor(
	pub repository.Publisher,
	store repository.ObservationStore,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.ObservationProcessor {
	return usecase.NewObservationProcessor(
		pub,
		store,
		m,
		cfg.Ingest.Backend,
		cfg.Ingest.BatchSize,
		cfg.Ingest.BatchTimeout,
	)
}

// ProvideArtifactHolder creates the atomic artifact snapshot holder.
func ProvideArtifactHolder() *usecase.ArtifactHolder {
	return usecase.NewArtifactHolder()
}

// ProvideImportanceAnalyzer creates the correlation/importance analyzer.
func ProvideImportanceAnalyzer(cfg *config.Config) domsvc.ImportanceAnalyzer {
	return analytics.NewAnalyzer(
		analytics.WithMinObservations(cfg.Analysis.MinObservations),
		analytics.WithMethodWeights(analytics.MethodWeights{
			Pearson:    cfg.Analysis.MethodWeights.Pearson,
			Spearman:   cfg.Analysis.MethodWeights.Spearman,
			MutualInfo: cfg.Analysis.MethodWeights.MutualInfo,
			Anova:      cfg.Analysis.MethodWeights.Anova,
		}),
	)
}

// ProvideElasticityEstimator creates the log-log elasticity estimator.
func ProvideElasticityEstimator(cfg *config.Config) domsvc.ElasticityEstimator {
	return analytics.NewEstimator(
		analytics.WithMinUsable(cfg.Analysis.MinElasticityN),
	)
}

// ProvideDemandFitter creates the count-regression demand model.
func ProvideDemandFitter(cfg *config.Config) domsvc.DemandFitter {
	return analytics.NewDemandModel(
		analytics.WithDemandMinObservations(cfg.Analysis.MinObservations),
		analytics.WithMaxIterations(cfg.Analysis.MaxFitIterations),
		analytics.WithDispersionCutoff(cfg.Analysis.DispersionCutoff),
	)
}

// ProvideDemandPredictor creates the pure scoring-time predictor.
func ProvideDemandPredictor() domsvc.DemandPredictor {
	return analytics.NewPredictor()
}

// ProvideFitErrorLog creates the bounded fit-error ring.
func ProvideFitErrorLog() *usecase.FitErrorLog {
	return usecase.NewFitErrorLog(500)
}

// ProvideRefitUseCase wires the offline fitting pipeline.
func ProvideRefitUseCase(
	store repository.ObservationStore,
	artifacts repository.ArtifactStore,
	holder *usecase.ArtifactHolder,
	analyzer domsvc.ImportanceAnalyzer,
	estimator domsvc.ElasticityEstimator,
	fitter domsvc.DemandFitter,
	m repository.Metrics,
	lgr *applogger.Logger,
	errlog *usecase.FitErrorLog,
	cfg *config.Config,
) *usecase.RefitUseCase {
	return usecase.NewRefitUseCase(
		store, artifacts, holder,
		analyzer, estimator, fitter,
		m, lgr, errlog,
		cfg.Analysis.WindowDays, cfg.Analysis.FitTimeout,
	)
}

// ProvideQuoteUseCase wires the live scoring path.
func ProvideQuoteUseCase(
	holder *usecase.ArtifactHolder,
	predictor domsvc.DemandPredictor,
	window *usecase.RateWindow,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.QuoteUseCase {
	return usecase.NewQuoteUseCase(holder, cfg.Pricing, predictor, window, m)
}

// ProvideQuoteCache picks the quote cache backend: Redis when enabled,
// in-process TTL map otherwise.
func ProvideQuoteCache(cfg *config.Config) icache.BytesCache {
	if cfg.Redis.Enabled && cfg.Redis.Addr != "" {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideQuoteHandler creates the live pricing HTTP handler.
func ProvideQuoteHandler(
	lgr *applogger.Logger,
	quotes *usecase.QuoteUseCase,
	qcache icache.BytesCache,
	cfg *config.Config,
) *api.QuoteEchoHandler {
	return api.NewQuoteEchoHandler(lgr, quotes, qcache, cfg.Quote.CacheTTL)
}

// ProvideAnalysisHandler creates the offline analysis HTTP handler.
func ProvideAnalysisHandler(
	lgr *applogger.Logger,
	holder *usecase.ArtifactHolder,
	errlog *usecase.FitErrorLog,
	store repository.ObservationStore,
	collector *usecase.RateCollector,
	refitQueue *queue.RedisQueue,
	refit *usecase.RefitUseCase,
	cfg *config.Config,
) *api.AnalysisEchoHandler {
	// a nil *RedisQueue must stay a nil interface for the handler's
	// queue-present check
	var enqueuer api.RefitEnqueuer
	if refitQueue != nil {
		enqueuer = refitQueue
	}
	return api.NewAnalysisEchoHandler(lgr, holder, errlog, store, collector, enqueuer, refit, cfg.Analysis.StalenessWindow)
}

// ProvideIngestHandler creates the observation ingest HTTP handler.
func ProvideIngestHandler(
	lgr *applogger.Logger,
	processor *usecase.ObservationProcessor,
) *api.IngestEchoHandler {
	return api.NewIngestEchoHandler(lgr, processor)
}

// ProvideRefitQueue creates the Redis-backed refit job consumer when
// Redis is enabled; refits then also run on demand, not only on the
// schedule.
func ProvideRefitQueue(lgr *applogger.Logger, refit *usecase.RefitUseCase, cfg *config.Config) *queue.RedisQueue {
	if !cfg.Redis.Enabled || cfg.Redis.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return queue.NewRedisConsumer(
		lgr,
		&queue.QueueConfig{Workers: 1, RetryLimit: 2, RetryDelay: time.Minute},
		client,
		[]queue.Job{usecase.NewRefitJob(refit)},
		queue.WithKeyPrefix("ratecast:queue"),
	)
}

// logPublisher adapts the Kafka producer to the log collector's
// publisher interface.
type logPublisher struct {
	producer *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *applogger.Logger,
	producer *pkgkafka.Producer,
	collector *usecase.RateCollector,
	processor *usecase.ObservationProcessor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaBookingsHandler,
	chClient *pkgch.Client,
	refit *usecase.RefitUseCase,
	refitQueue *queue.RedisQueue,
	holder *usecase.ArtifactHolder,
	window *usecase.RateWindow,
	m repository.Metrics,
	quoteHandler *api.QuoteEchoHandler,
	analysisHandler *api.AnalysisEchoHandler,
	ingestHandler *api.IngestEchoHandler,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	if cfg.Ingest.Backend == "kafka" && producer != nil {
		// aggregated error logs ride the same broker as the bookings feed
		lgr.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.Topic + ".error-logs",
			Publisher:      logPublisher{producer: producer},
		})
	}
	return server.New(cfg, lgr, collector, processor, consumer, kh, chClient,
		refit, refitQueue, holder, window, m,
		quoteHandler, analysisHandler, ingestHandler)
}
