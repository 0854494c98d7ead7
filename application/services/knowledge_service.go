package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"papergraph/application/ports"
	"papergraph/application/queries/engine"
	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
	domainservices "papergraph/domain/services"
	pkgerrors "papergraph/pkg/errors"
	"papergraph/pkg/observability"
)

// Snapshot is an immutable built graph together with the papers it came from
type Snapshot struct {
	Papers   []entities.Paper
	Graph    *aggregates.Graph
	Clusters []aggregates.Cluster
	Report   AnalysisReport
	Dropped  int
	Version  int64
	BuiltAt  time.Time
	Source   string
}

// Resetter is implemented by components holding caches tied to a snapshot
type Resetter interface {
	Reset(ctx context.Context) error
}

// KnowledgeService owns the current graph snapshot.
// Readers load the snapshot without locking; rebuilds are serialised and
// publish a new snapshot only when they succeed.
type KnowledgeService struct {
	source   ports.PaperSource
	analysis *AnalysisService
	finder   domainservices.ConnectionFinder
	builder  *domainservices.GraphBuilder
	paths    *domainservices.PathFinder
	engine   *engine.Engine
	resets   []Resetter

	current atomic.Pointer[Snapshot]
	mu      sync.Mutex
	version int64

	metrics *observability.Collector
	tracer  *observability.Tracer
	logger  *zap.Logger
}

// NewKnowledgeService creates a new knowledge service. The analysis service
// and query engine are reset before every rebuild.
func NewKnowledgeService(
	source ports.PaperSource,
	analysis *AnalysisService,
	finder domainservices.ConnectionFinder,
	builder *domainservices.GraphBuilder,
	paths *domainservices.PathFinder,
	queryEngine *engine.Engine,
	metrics *observability.Collector,
	tracer *observability.Tracer,
	logger *zap.Logger,
) *KnowledgeService {
	if finder == nil {
		finder = domainservices.NewDefaultConnectionFinder(nil, nil)
	}
	if builder == nil {
		builder = domainservices.NewGraphBuilder(nil, nil, logger)
	}
	if paths == nil {
		paths = domainservices.NewPathFinder(nil)
	}
	if tracer == nil {
		tracer = observability.NewTracer("papergraph")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &KnowledgeService{
		source:   source,
		analysis: analysis,
		finder:   finder,
		builder:  builder,
		paths:    paths,
		engine:   queryEngine,
		metrics:  metrics,
		tracer:   tracer,
		logger:   logger,
	}
	if analysis != nil {
		s.resets = append(s.resets, analysis)
	}
	if queryEngine != nil {
		s.resets = append(s.resets, queryEngine)
	}
	return s
}

// Rebuild reloads papers from the configured source and rebuilds the graph
func (s *KnowledgeService) Rebuild(ctx context.Context) (*Snapshot, error) {
	if s.source == nil {
		return nil, pkgerrors.NewUnavailableError("no paper source configured")
	}

	papers, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load papers from %s: %w", s.source.Describe(), err)
	}
	return s.build(ctx, papers, s.source.Describe())
}

// RebuildFrom builds a graph from the given papers
func (s *KnowledgeService) RebuildFrom(ctx context.Context, papers []entities.Paper) (*Snapshot, error) {
	return s.build(ctx, papers, "inline")
}

func (s *KnowledgeService) build(ctx context.Context, papers []entities.Paper, source string) (snapshot *Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	ctx, span := s.tracer.StartSpan(ctx, "rebuild",
		attribute.String("source", source),
		attribute.Int("papers", len(papers)),
	)
	defer func() {
		if err != nil {
			observability.RecordError(span, err)
		}
		span.End()
	}()

	for _, r := range s.resets {
		if rerr := r.Reset(ctx); rerr != nil {
			s.logger.Warn("Failed to reset cache before rebuild", zap.Error(rerr))
		}
	}

	analysed := papers
	var report AnalysisReport
	if s.analysis != nil {
		analysed, report, err = s.analysis.AnalyzePapers(ctx, papers)
		if err != nil {
			s.metrics.RecordGraphBuild(err, time.Since(started), 0, 0, 0)
			return nil, fmt.Errorf("concept extraction failed: %w", err)
		}
	}

	connections := s.finder.FindConnections(analysed)
	result, err := s.builder.Build(analysed, connections)
	if err != nil {
		s.metrics.RecordGraphBuild(err, time.Since(started), 0, 0, 0)
		return nil, fmt.Errorf("graph build failed: %w", err)
	}

	s.version++
	snapshot = &Snapshot{
		Papers:   analysed,
		Graph:    result.Graph,
		Clusters: result.Clusters,
		Report:   report,
		Dropped:  result.Dropped,
		Version:  s.version,
		BuiltAt:  time.Now(),
		Source:   source,
	}
	s.current.Store(snapshot)

	stats := result.Graph.Stats()
	s.metrics.RecordGraphBuild(nil, time.Since(started), stats.TotalNodes, stats.TotalLinks, stats.Clusters)
	span.SetAttributes(
		attribute.Int("graph.nodes", stats.TotalNodes),
		attribute.Int("graph.edges", stats.TotalLinks),
		attribute.Int64("graph.version", snapshot.Version),
	)

	s.logger.Info("Knowledge graph rebuilt",
		zap.String("source", source),
		zap.Int64("version", snapshot.Version),
		zap.Int("nodes", stats.TotalNodes),
		zap.Int("edges", stats.TotalLinks),
		zap.Int("clusters", stats.Clusters),
		zap.Int("dropped_connections", result.Dropped),
		zap.Bool("degraded", report.Degraded),
		zap.Duration("duration", time.Since(started)),
	)

	return snapshot, nil
}

// Snapshot returns the current snapshot, or nil before the first build
func (s *KnowledgeService) Snapshot() *Snapshot {
	return s.current.Load()
}

// Ready reports whether a graph has been built
func (s *KnowledgeService) Ready() bool {
	return s.current.Load() != nil
}

// Graph returns the current graph, or an empty graph before the first build
func (s *KnowledgeService) Graph() *aggregates.Graph {
	if snap := s.current.Load(); snap != nil {
		return snap.Graph
	}
	return aggregates.EmptyGraph()
}

// Query runs a research query against the current graph
func (s *KnowledgeService) Query(ctx context.Context, text string, opts engine.QueryOptions) (*engine.QueryResult, error) {
	if s.engine == nil {
		return nil, pkgerrors.NewUnavailableError("query engine not configured")
	}
	return s.engine.Query(ctx, s.Graph(), text, opts)
}

// FindPaths returns the strongest simple paths between two papers
func (s *KnowledgeService) FindPaths(from, to string, maxHops int) []domainservices.ResearchPath {
	return s.paths.FindPaths(s.Graph(), from, to, maxHops)
}

// FindIndirect returns papers reachable from id through intermediate papers
func (s *KnowledgeService) FindIndirect(id string, maxHops int) []domainservices.IndirectConnection {
	return s.paths.FindIndirect(s.Graph(), id, maxHops)
}

// ClusterAnalysis summarises the clusters of the current graph
func (s *KnowledgeService) ClusterAnalysis() []aggregates.ClusterSummary {
	return domainservices.ClusterAnalysis(s.Graph())
}
