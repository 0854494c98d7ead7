package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"papergraph/application/ports"
	"papergraph/domain/config"
	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
	"papergraph/domain/core/valueobjects"
	"papergraph/domain/services"
	pkgerrors "papergraph/pkg/errors"
	"papergraph/pkg/observability"
)

// Config holds the query pipeline thresholds
type Config struct {
	DefaultMaxResults     int
	SemanticFloor         float64
	ExpansionThreshold    float64
	MaxConnections        int
	InsightPapers         int
	MatureDegreeThreshold float64
	NicheDegreeThreshold  float64
	EmbeddingConcurrency  int
	ProviderTimeout       time.Duration
}

// ConfigFrom extracts query settings from the domain config
func ConfigFrom(cfg *config.DomainConfig) Config {
	return Config{
		DefaultMaxResults:     cfg.DefaultMaxResults,
		SemanticFloor:         cfg.SemanticFloor,
		ExpansionThreshold:    cfg.ExpansionThreshold,
		MaxConnections:        cfg.MaxQueryConnections,
		InsightPapers:         cfg.InsightPapers,
		MatureDegreeThreshold: cfg.MatureDegreeThreshold,
		NicheDegreeThreshold:  cfg.NicheDegreeThreshold,
		EmbeddingConcurrency:  cfg.EmbeddingConcurrency,
		ProviderTimeout:       cfg.ProviderTimeout,
	}
}

// Engine runs research queries against a graph snapshot.
// It owns the embedding cache; Reset clears it when the graph is rebuilt.
type Engine struct {
	embeddings ports.EmbeddingProvider
	insights   ports.InsightProvider
	cache      ports.Cache
	analyzer   services.TextAnalyzer
	config     Config
	validate   *validator.Validate
	metrics    *observability.Collector
	tracer     *observability.Tracer
	logger     *zap.Logger
}

// NewEngine creates a query engine. Nil providers select keyword search and
// local insight synthesis.
func NewEngine(
	embeddings ports.EmbeddingProvider,
	insights ports.InsightProvider,
	cache ports.Cache,
	cfg Config,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *Engine {
	if cfg.DefaultMaxResults <= 0 {
		cfg.DefaultMaxResults = defaultMaxResults
	}
	if cfg.EmbeddingConcurrency <= 0 {
		cfg.EmbeddingConcurrency = 4
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 30 * time.Second
	}
	if cfg.InsightPapers <= 0 {
		cfg.InsightPapers = 5
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 10
	}
	if tracer == nil {
		tracer = observability.NewTracer("papergraph")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Engine{
		embeddings: embeddings,
		insights:   insights,
		cache:      cache,
		analyzer:   services.NewDefaultTextAnalyzer(),
		config:     cfg,
		validate:   validator.New(),
		metrics:    metrics,
		tracer:     tracer,
		logger:     logger,
	}
}

// Query runs search, graph expansion, insight synthesis, connection
// extraction and subgraph assembly. Provider failures never abort the query;
// they switch the affected step to its local fallback and are reported in
// the metadata.
func (e *Engine) Query(ctx context.Context, graph *aggregates.Graph, text string, opts QueryOptions) (*QueryResult, error) {
	started := time.Now()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, pkgerrors.NewValidationError("query text cannot be empty")
	}
	if err := e.validate.Struct(opts); err != nil {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid query options: %v", err))
	}
	if opts.MaxResults == 0 {
		opts.MaxResults = e.config.DefaultMaxResults
	}
	if graph == nil {
		graph = aggregates.EmptyGraph()
	}

	queryID := valueobjects.NewQueryID()
	ctx, span := e.tracer.StartSpan(ctx, "query",
		attribute.String("query.id", queryID.String()),
		attribute.Int("graph.nodes", graph.NodeCount()),
	)
	defer span.End()

	meta := Metadata{
		QueryID:           queryID.String(),
		SemanticThreshold: opts.SemanticThreshold,
	}

	// 1. Search
	direct := e.search(ctx, graph, text, opts, &meta)
	meta.DirectResults = len(direct)
	meta.ThresholdMiss = len(direct) == 0

	// 2. Graph expansion
	results := direct
	if opts.UseGraphStructure {
		results = e.expand(graph, direct)
	}
	if len(results) > opts.MaxResults {
		results = results[:opts.MaxResults]
	}
	for _, r := range results {
		if r.Source == SourceExpanded {
			meta.ExpandedResults++
		}
	}
	meta.TotalResults = len(results)

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	subgraph := graph.Subgraph(ids)

	// 3. Insights
	insights := e.synthesize(ctx, text, results, &meta)
	meta.AIGenerated = insights.AIGenerated

	// 4. Connections
	connections := make([]entities.Edge, 0)
	if opts.IncludeConnections {
		connections = services.RankEdges(subgraph.Edges)
		if len(connections) > e.config.MaxConnections {
			connections = connections[:e.config.MaxConnections]
		}
	}

	meta.FallbackMode = meta.SearchMode == SearchModeKeyword || !meta.AIGenerated
	meta.Duration = time.Since(started)

	span.SetAttributes(
		attribute.String("query.search_mode", string(meta.SearchMode)),
		attribute.Int("query.results", meta.TotalResults),
		attribute.Bool("query.fallback", meta.FallbackMode),
	)
	e.metrics.RecordQuery(string(meta.SearchMode), meta.FallbackMode, meta.Duration)

	e.logger.Debug("Query completed",
		zap.String("query_id", meta.QueryID),
		zap.String("search_mode", string(meta.SearchMode)),
		zap.Int("direct", meta.DirectResults),
		zap.Int("expanded", meta.ExpandedResults),
		zap.Bool("fallback", meta.FallbackMode),
		zap.Duration("duration", meta.Duration),
	)

	return &QueryResult{
		Query:       text,
		Results:     results,
		Connections: connections,
		Subgraph:    subgraph,
		Insights:    insights,
		Metadata:    meta,
	}, nil
}

// Reset drops cached embeddings
func (e *Engine) Reset(ctx context.Context) error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Clear(ctx)
}

// expand adds neighbours of direct results over strong edges. Direct results
// are visited in relevance order and a paper already among the candidates is
// never rescored, so the first result to reach a neighbour names its reason.
func (e *Engine) expand(graph *aggregates.Graph, direct []ScoredPaper) []ScoredPaper {
	results := make([]ScoredPaper, len(direct))
	copy(results, direct)

	position := make(map[string]int, len(results))
	for i, r := range results {
		position[r.ID] = i
	}

	for _, source := range direct {
		for _, edge := range graph.IncidentEdges(source.ID) {
			if edge.Strength <= e.config.ExpansionThreshold {
				continue
			}
			neighbourID := edge.Other(source.ID)
			relevance := source.RelevanceScore * edge.Strength

			if _, ok := position[neighbourID]; ok {
				continue
			}

			node, _ := graph.Node(neighbourID)
			position[neighbourID] = len(results)
			results = append(results, ScoredPaper{
				Node:             node,
				RelevanceScore:   relevance,
				ConnectionReason: connectionReason(source.Title, edge.Strength),
				Source:           SourceExpanded,
			})
		}
	}

	sortByRelevance(results)
	return results
}

func connectionReason(title string, strength float64) string {
	return fmt.Sprintf("Connected to %q (%.0f%% similarity)", title, strength*100)
}

func sortByRelevance(results []ScoredPaper) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
}
