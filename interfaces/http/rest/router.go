package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	querybus "papergraph/application/queries/bus"
	"papergraph/interfaces/http/rest/handlers"
	"papergraph/interfaces/http/rest/middleware"
	"papergraph/pkg/common"
	"papergraph/pkg/errors"
	"papergraph/pkg/observability"
)

// KnowledgeService is what the router needs beyond the query bus
type KnowledgeService interface {
	handlers.Rebuilder
	Ready() bool
}

// Options toggles optional router features
type Options struct {
	EnableCORS     bool
	CORSOrigins    []string
	EnableMetrics  bool
	QueryRateLimit int           // requests per minute per client; 0 disables
	RebuildTimeout time.Duration // 0 uses the handler default
	Debug          bool
}

// Router creates and configures the HTTP router
type Router struct {
	queryBus  *querybus.QueryBus
	knowledge KnowledgeService
	metrics   *observability.Collector
	options   Options
	logger    *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	queryBus *querybus.QueryBus,
	knowledge KnowledgeService,
	metrics *observability.Collector,
	options Options,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		queryBus:  queryBus,
		knowledge: knowledge,
		metrics:   metrics,
		options:   options,
		logger:    logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	errorHandler := errors.NewErrorHandler(rt.logger, rt.options.Debug)

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(errorHandler.Middleware)
	router.Use(middleware.Logger(rt.logger, rt.metrics))

	if rt.options.EnableCORS {
		origins := rt.options.CORSOrigins
		if len(origins) == 0 {
			origins = []string{"*"}
		}
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins: origins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)
	if rt.options.EnableMetrics && rt.metrics != nil {
		router.Handle("/metrics", rt.metrics.Handler())
	}

	limiter := middleware.NewClientRateLimiter(rt.options.QueryRateLimit, errorHandler, rt.logger)
	queryHandler := handlers.NewQueryHandler(rt.queryBus, errorHandler, rt.logger)
	graphHandler := handlers.NewGraphHandler(rt.queryBus, errorHandler, rt.logger)
	pathHandler := handlers.NewPathHandler(rt.queryBus, errorHandler, rt.logger)
	rebuildHandler := handlers.NewRebuildHandler(rt.knowledge, rt.options.RebuildTimeout, errorHandler, rt.logger)

	router.Route("/api/v1", func(r chi.Router) {
		// Endpoints that may call the external provider are rate limited
		r.With(limiter.Middleware).Post("/query", queryHandler.Query)
		r.With(limiter.Middleware).Post("/rebuild", rebuildHandler.Rebuild)

		r.Get("/graph", graphHandler.GetGraph)
		r.Get("/clusters", graphHandler.GetClusters)
		r.Get("/paths", pathHandler.FindPaths)

		r.Route("/papers/{paperID}", func(r chi.Router) {
			r.Get("/", graphHandler.GetPaper)
			r.Get("/indirect", pathHandler.FindIndirect)
		})
	})

	return router
}

// healthCheck reports that the process is serving
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// readinessCheck reports ready once a graph snapshot exists
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	if rt.knowledge == nil || !rt.knowledge.Ready() {
		common.RespondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "building"})
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
