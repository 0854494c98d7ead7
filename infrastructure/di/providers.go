package di

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"papergraph/application/ports"
	querybus "papergraph/application/queries/bus"
	"papergraph/application/queries/engine"
	"papergraph/application/queries/handlers"
	"papergraph/application/services"
	domainservices "papergraph/domain/services"
	"papergraph/infrastructure/ai"
	"papergraph/infrastructure/cache"
	"papergraph/infrastructure/config"
	"papergraph/infrastructure/source"
	"papergraph/interfaces/http/rest"
	"papergraph/pkg/observability"
)

const serviceName = "papergraph"

// Caches holds the two keyed stores the services own
type Caches struct {
	Concepts   ports.Cache
	Embeddings ports.Cache
}

// Providers holds the external capabilities. Nil fields select the local
// fallbacks: heuristic concepts, keyword search and template insights.
type Providers struct {
	Concepts   ports.ConceptProvider
	Embeddings ports.EmbeddingProvider
	Insights   ports.InsightProvider
}

// ProvideLogLevel parses the configured level into an adjustable level
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return level, nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}
	zapConfig.Level = level

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName)), nil
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(serviceName)
}

// ProvideTracer exports spans over OTLP when tracing is enabled and returns
// a no-op tracer otherwise
func ProvideTracer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.Tracer, func(), error) {
	if !cfg.EnableTracing {
		return observability.NewTracer(serviceName), func() {}, nil
	}

	tracer, err := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     true,
		ServiceName: serviceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.TracingEndpoint,
		SampleRate:  cfg.TracingSampleRate,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise tracing: %w", err)
	}

	cleanup := func() {
		if err := tracer.Shutdown(context.Background()); err != nil {
			logger.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}
	return tracer, cleanup, nil
}

// ProvideCaches creates the concept and embedding caches on the configured backend
func ProvideCaches(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Caches, func(), error) {
	if cfg.Cache.Backend != "redis" {
		concepts := cache.NewInMemoryCache()
		embeddings := cache.NewInMemoryCache()
		cleanup := func() {
			_ = concepts.Close()
			_ = embeddings.Close()
		}
		return &Caches{Concepts: concepts, Embeddings: embeddings}, cleanup, nil
	}

	redisConfig := func(namespace string) cache.RedisConfig {
		return cache.RedisConfig{
			Addr:      cfg.Cache.RedisAddr,
			Password:  cfg.Cache.RedisPassword,
			DB:        cfg.Cache.RedisDB,
			KeyPrefix: cfg.Cache.KeyPrefix + namespace + ":",
		}
	}

	concepts, err := cache.NewRedisCache(ctx, redisConfig("concepts"), logger)
	if err != nil {
		return nil, nil, err
	}
	embeddings, err := cache.NewRedisCache(ctx, redisConfig("embeddings"), logger)
	if err != nil {
		_ = concepts.Close()
		return nil, nil, err
	}

	cleanup := func() {
		_ = concepts.Close()
		_ = embeddings.Close()
	}
	return &Caches{Concepts: concepts, Embeddings: embeddings}, cleanup, nil
}

// ProvideProviders creates the OpenAI-compatible provider when an API key is set
func ProvideProviders(cfg *config.Config, logger *zap.Logger) (*Providers, error) {
	if !cfg.ProviderEnabled() {
		logger.Info("No provider API key configured, using heuristic analysis and keyword search")
		return &Providers{}, nil
	}

	provider, err := ai.NewOpenAIProvider(cfg.Provider, logger)
	if err != nil {
		return nil, err
	}
	return &Providers{
		Concepts:   provider,
		Embeddings: provider,
		Insights:   provider,
	}, nil
}

// ProvidePaperSource creates the file source, or nil when no path is configured
func ProvidePaperSource(cfg *config.Config, logger *zap.Logger) ports.PaperSource {
	if cfg.PapersPath == "" {
		return nil
	}
	return source.NewFileSource(cfg.PapersPath, logger)
}

// ProvideAnalysisService creates the concept extraction service
func ProvideAnalysisService(
	cfg *config.Config,
	providers *Providers,
	caches *Caches,
	metrics *observability.Collector,
	logger *zap.Logger,
) *services.AnalysisService {
	heuristic := domainservices.NewHeuristicExtractor(nil)
	return services.NewAnalysisService(
		providers.Concepts,
		heuristic,
		caches.Concepts,
		services.AnalysisConfigFrom(cfg.Domain),
		metrics,
		logger,
	)
}

// ProvideQueryEngine creates the research query engine
func ProvideQueryEngine(
	cfg *config.Config,
	providers *Providers,
	caches *Caches,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *engine.Engine {
	return engine.NewEngine(
		providers.Embeddings,
		providers.Insights,
		caches.Embeddings,
		engine.ConfigFrom(cfg.Domain),
		metrics,
		tracer,
		logger,
	)
}

// ProvideConnectionFinder creates the pairwise connection finder
func ProvideConnectionFinder(cfg *config.Config) domainservices.ConnectionFinder {
	calculator := domainservices.NewDefaultSimilarityCalculator(
		domainservices.SimilarityConfigFrom(cfg.Domain),
		domainservices.NewDefaultTextAnalyzer(),
	)
	return domainservices.NewDefaultConnectionFinder(
		domainservices.ConnectionFinderConfigFrom(cfg.Domain),
		calculator,
	)
}

// ProvideGraphBuilder creates the graph builder with the configured centrality
func ProvideGraphBuilder(cfg *config.Config, logger *zap.Logger) *domainservices.GraphBuilder {
	return domainservices.NewGraphBuilder(
		domainservices.NewComponentDetector(),
		domainservices.NewCentralityScorer(cfg.Domain.CentralityAlgorithm),
		logger,
	)
}

// ProvidePathFinder creates the path finder
func ProvidePathFinder(cfg *config.Config) *domainservices.PathFinder {
	return domainservices.NewPathFinder(domainservices.PathFinderConfigFrom(cfg.Domain))
}

// ProvideKnowledgeService creates the service owning the graph snapshot
func ProvideKnowledgeService(
	paperSource ports.PaperSource,
	analysis *services.AnalysisService,
	finder domainservices.ConnectionFinder,
	builder *domainservices.GraphBuilder,
	paths *domainservices.PathFinder,
	queryEngine *engine.Engine,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *services.KnowledgeService {
	return services.NewKnowledgeService(paperSource, analysis, finder, builder, paths, queryEngine, metrics, tracer, logger)
}

// ProvideQueryBus creates the query bus and registers every query handler
func ProvideQueryBus(
	knowledge *services.KnowledgeService,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) (*querybus.QueryBus, error) {
	b := querybus.NewQueryBus(
		querybus.NewMetricsMiddleware(metrics),
		querybus.NewTracingMiddleware(tracer),
	)
	if err := handlers.Register(b, knowledge, logger); err != nil {
		return nil, fmt.Errorf("failed to register query handlers: %w", err)
	}
	return b, nil
}

// ProvideRouter creates the HTTP handler
func ProvideRouter(
	cfg *config.Config,
	queryBus *querybus.QueryBus,
	knowledge *services.KnowledgeService,
	metrics *observability.Collector,
	logger *zap.Logger,
) http.Handler {
	return rest.NewRouter(queryBus, knowledge, metrics, rest.Options{
		EnableCORS:     cfg.EnableCORS,
		CORSOrigins:    cfg.CORSOrigins,
		EnableMetrics:  cfg.EnableMetrics,
		QueryRateLimit: cfg.QueryRateLimit,
		RebuildTimeout: cfg.RebuildTimeout,
		Debug:          cfg.IsDevelopment(),
	}, logger).Setup()
}
