package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"FinCast/internal/domain/repository"
	"FinCast/internal/handler/api"
	internalrepo "FinCast/internal/repository"
	"FinCast/internal/scheduler"
	"FinCast/internal/service/cache"
	qmetrics "FinCast/internal/service/metrics"
	"FinCast/internal/service/ratelimit"
	"FinCast/internal/service/snapshot"
	"FinCast/internal/service/yahoo"
	"FinCast/internal/services/features"
	"FinCast/internal/services/inference"
	"FinCast/internal/usecase"
	pkgch "FinCast/pkg/clickhouse"
	"FinCast/pkg/config"
	xhttp "FinCast/pkg/http"
	pkgkafka "FinCast/pkg/kafka"
	applogger "FinCast/pkg/logger"
	"FinCast/pkg/metrics"
	"FinCast/pkg/server"
)

const serviceName = "fincast"

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Output:  "stdout",
		Service: serviceName,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	qmetrics.Register()
	return metrics.New()
}

func ProvideMarketData(cfg *config.Config) repository.MarketData {
	return yahoo.New(yahoo.Config{
		ChartURL:   cfg.Market.ChartURL,
		SummaryURL: cfg.Market.SummaryURL,
		UserAgent:  cfg.Market.UserAgent,
		Timeout:    cfg.Market.FetchTimeout,
	})
}

// ProvideInferenceEngine connects to the model server. A model that is not
// loadable at startup is fatal.
func ProvideInferenceEngine(cfg *config.Config, l *applogger.Logger) (*inference.ModelServerEngine, error) {
	engine := inference.NewModelServerEngine(
		inference.NewHTTPServiceBase(cfg.Model.ServerURL, cfg.Model.Timeout),
		inference.Config{
			BaseURL:  cfg.Model.ServerURL,
			Model:    cfg.Model.Name,
			Window:   cfg.Model.Window,
			Attempts: cfg.Model.RetryAttempts,
		},
	)

	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Model.Timeout)
		err = engine.Ready(ctx)
		cancel()
		if err == nil {
			l.Info("model ready", applogger.String("model", cfg.Model.Name), applogger.String("url", cfg.Model.ServerURL))
			return engine, nil
		}
		l.Warn("model not ready", applogger.Int("attempt", attempt), applogger.Error(err))
		time.Sleep(time.Duration(attempt) * time.Second)
	}
	return nil, fmt.Errorf("model server: %w", err)
}

// ProvideNormalizer builds the window normalizer, replaying training-time
// statistics when a scaler file is configured.
func ProvideNormalizer(cfg *config.Config) (*features.Normalizer, error) {
	var fixed *features.Scaler
	if cfg.Model.ScalerPath != "" {
		s, err := features.LoadScaler(cfg.Model.ScalerPath)
		if err != nil {
			return nil, fmt.Errorf("scaler: %w", err)
		}
		fixed = s
	}
	return features.NewNormalizer(cfg.Model.Window, fixed), nil
}

// ProvideBytesCache picks the metadata cache backend.
func ProvideBytesCache(cfg *config.Config) (cache.BytesCache, error) {
	if cfg.Cache.Backend != "redis" {
		return cache.NewTTLCache(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return cache.NewRedisCache(ctx, cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   serviceName + ":",
	})
}

func ProvideInfoCache(store cache.BytesCache, cfg *config.Config) *cache.InfoCache {
	return cache.NewInfoCache(store, cfg.Cache.InfoTTL)
}

// ProvideClickHouseClient creates a ClickHouse client when it backs history.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.History.Backend != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideHistory selects and initializes the prediction history backend.
func ProvideHistory(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.HistoryRecorder, error) {
	var h repository.HistoryRecorder
	switch cfg.History.Backend {
	case "clickhouse":
		h = internalrepo.NewCHHistory(ch, l)
	case "sqlite":
		s, err := internalrepo.NewSQLiteHistory(cfg.History.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("sqlite history: %w", err)
		}
		h = s
	default:
		return internalrepo.NoopHistory{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.Init(ctx); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("history schema: %w", err)
	}
	l.Info("history recorder ready", applogger.String("backend", cfg.History.Backend))
	return h, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
// With a log topic configured the producer also ships warn/error digests.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	if cfg.Kafka.LogTopic != "" {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   time.Minute,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogTopic,
			Service:        serviceName,
			Publisher:      producer,
		})
	}
	return producer, nil
}

// ProvidePredictionPublisher returns nil when Kafka is disabled.
func ProvidePredictionPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.PredictionPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.PredictionsTopic)
}

func ProvideRoster(cfg *config.Config, l *applogger.Logger) (repository.Roster, error) {
	r, err := internalrepo.LoadCSVRoster(cfg.Roster.Path)
	if err != nil {
		return nil, err
	}
	l.Info("roster loaded", applogger.String("path", cfg.Roster.Path), applogger.Int("companies", r.Len()))
	return r, nil
}

func ProvideSnapshotStore() *snapshot.Store {
	return snapshot.New()
}

func ProvidePredictor(market repository.MarketData, engine *inference.ModelServerEngine, norm *features.Normalizer, m repository.Metrics, cfg *config.Config) *usecase.Predictor {
	return usecase.NewPredictor(market, engine, norm, m, usecase.PredictorConfig{
		Period:       cfg.Market.LookbackPeriod,
		Interval:     cfg.Market.LookbackInterval,
		Suffix:       cfg.Market.Suffix,
		FetchTimeout: cfg.Market.FetchTimeout,
	})
}

func ProvideRefresher(
	roster repository.Roster,
	predictor *usecase.Predictor,
	store *snapshot.Store,
	history repository.HistoryRecorder,
	publisher repository.PredictionPublisher,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Refresher {
	return usecase.NewRefresher(roster, predictor, store, usecase.RefresherDeps{
		History:   history,
		Publisher: publisher,
	}, m, l, cfg.Refresh.Workers)
}

func ProvideScheduler(r *usecase.Refresher, cfg *config.Config, l *applogger.Logger) *scheduler.Scheduler {
	return scheduler.New(r, scheduler.Config{
		Interval:   cfg.Refresh.Interval,
		RunOnStart: cfg.Refresh.RunOnStart,
	}, l)
}

func ProvideCompaniesUseCase(
	roster repository.Roster,
	predictor *usecase.Predictor,
	market repository.MarketData,
	info *cache.InfoCache,
	store *snapshot.Store,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.CompaniesUseCase {
	return usecase.NewCompaniesUseCase(roster, predictor, market, info, store, l, usecase.DetailConfig{
		Mode:        cfg.Detail.Mode,
		HistoryDays: cfg.Detail.HistoryDays,
	})
}

func ProvideRefreshTriggerHandler(s *scheduler.Scheduler, cfg *config.Config, l *applogger.Logger) *usecase.RefreshTriggerHandler {
	return usecase.NewRefreshTriggerHandler(cfg.Kafka.RefreshTopic, s, l)
}

// ProvideKafkaConsumer creates the refresh trigger consumer, or nil when Kafka is disabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, h *usecase.RefreshTriggerHandler) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || cfg.Kafka.RefreshTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
		pkgkafka.WithConsumerLogger(l),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(h)
	return consumer, nil
}

func ProvideCompaniesHandler(l *applogger.Logger, uc *usecase.CompaniesUseCase, store *snapshot.Store, cfg *config.Config) *api.CompaniesEchoHandler {
	return api.NewCompaniesEchoHandler(l, uc, store, ratelimit.New(), api.RateLimit{
		Capacity:     cfg.Detail.RateLimit.Capacity,
		RefillPerSec: cfg.Detail.RateLimit.RefillPerSec,
	})
}

func ProvideStreamHandler(l *applogger.Logger, store *snapshot.Store) *api.SnapshotStreamHandler {
	return api.NewSnapshotStreamHandler(l, store)
}

func ProvideHTTPServer(l *applogger.Logger, cfg *config.Config, companies *api.CompaniesEchoHandler, stream *api.SnapshotStreamHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(l, []xhttp.Handler{companies, stream},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(true, cfg.Server.CORSOrigins...),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application server. Resources are closed in reverse
// dependency order after the scheduler has stopped.
func ProvideApp(
	l *applogger.Logger,
	srv *xhttp.Server,
	sched *scheduler.Scheduler,
	consumer *pkgkafka.Consumer,
	producer *pkgkafka.Producer,
	history repository.HistoryRecorder,
	infoStore cache.BytesCache,
) *server.App {
	var closers []server.Closer
	closers = append(closers, server.Closer{Name: "history", Close: history.Close})
	if producer != nil {
		closers = append(closers, server.Closer{Name: "kafka producer", Close: func() error {
			// flush pending log digests before the writer goes away
			l.RemoveCollector()
			return producer.Close()
		}})
	}
	if c, ok := infoStore.(io.Closer); ok {
		closers = append(closers, server.Closer{Name: "info cache", Close: c.Close})
	}

	var cons server.Component
	if consumer != nil {
		cons = consumer
	}
	return server.New(l, srv, sched, cons, closers...)
}
