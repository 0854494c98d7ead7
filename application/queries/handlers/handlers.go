package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"papergraph/application/queries"
	"papergraph/application/queries/bus"
	"papergraph/application/queries/engine"
	"papergraph/application/services"
	"papergraph/domain/core/aggregates"
	domainservices "papergraph/domain/services"
	"papergraph/pkg/errors"
)

// KnowledgeReader is the read side of the knowledge service
type KnowledgeReader interface {
	Snapshot() *services.Snapshot
	Graph() *aggregates.Graph
	Query(ctx context.Context, text string, opts engine.QueryOptions) (*engine.QueryResult, error)
	FindPaths(from, to string, maxHops int) []domainservices.ResearchPath
	FindIndirect(id string, maxHops int) []domainservices.IndirectConnection
	ClusterAnalysis() []aggregates.ClusterSummary
}

// Register wires every papergraph query to its handler
func Register(b *bus.QueryBus, knowledge KnowledgeReader, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	registrations := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.ResearchQuery{}, NewResearchHandler(knowledge, logger)},
		{queries.FindPathsQuery{}, NewFindPathsHandler(knowledge)},
		{queries.FindIndirectQuery{}, NewFindIndirectHandler(knowledge)},
		{queries.ClusterAnalysisQuery{}, NewClusterAnalysisHandler(knowledge)},
		{queries.GetGraphQuery{}, NewGetGraphHandler(knowledge)},
		{queries.GetPaperQuery{}, NewGetPaperHandler(knowledge)},
	}
	for _, r := range registrations {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}

func unexpected(query bus.Query) error {
	return fmt.Errorf("unexpected query type %T", query)
}

// ResearchHandler handles research queries
type ResearchHandler struct {
	knowledge KnowledgeReader
	logger    *zap.Logger
}

// NewResearchHandler creates a new research handler
func NewResearchHandler(knowledge KnowledgeReader, logger *zap.Logger) *ResearchHandler {
	return &ResearchHandler{knowledge: knowledge, logger: logger}
}

// Handle runs the query engine. Zero options select the defaults.
func (h *ResearchHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.ResearchQuery)
	if !ok {
		return nil, unexpected(query)
	}

	opts := q.Options
	if opts == (engine.QueryOptions{}) {
		opts = engine.DefaultQueryOptions()
	}

	result, err := h.knowledge.Query(ctx, q.Text, opts)
	if err != nil {
		return nil, err
	}
	if len(result.Metadata.Degraded) > 0 {
		h.logger.Info("Research query served in degraded mode",
			zap.String("query_id", result.Metadata.QueryID),
			zap.Strings("degraded", result.Metadata.Degraded),
		)
	}
	return result, nil
}

// FindPathsHandler handles path queries
type FindPathsHandler struct {
	knowledge KnowledgeReader
}

// NewFindPathsHandler creates a new path handler
func NewFindPathsHandler(knowledge KnowledgeReader) *FindPathsHandler {
	return &FindPathsHandler{knowledge: knowledge}
}

// Handle returns research paths; unknown ids yield an empty list
func (h *FindPathsHandler) Handle(_ context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.FindPathsQuery)
	if !ok {
		return nil, unexpected(query)
	}
	return h.knowledge.FindPaths(q.From, q.To, q.MaxHops), nil
}

// FindIndirectHandler handles indirect neighbour queries
type FindIndirectHandler struct {
	knowledge KnowledgeReader
}

// NewFindIndirectHandler creates a new indirect neighbour handler
func NewFindIndirectHandler(knowledge KnowledgeReader) *FindIndirectHandler {
	return &FindIndirectHandler{knowledge: knowledge}
}

// Handle returns indirect connections for a paper
func (h *FindIndirectHandler) Handle(_ context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.FindIndirectQuery)
	if !ok {
		return nil, unexpected(query)
	}
	return h.knowledge.FindIndirect(q.PaperID, q.MaxHops), nil
}

// ClusterAnalysisHandler handles cluster summaries
type ClusterAnalysisHandler struct {
	knowledge KnowledgeReader
}

// NewClusterAnalysisHandler creates a new cluster analysis handler
func NewClusterAnalysisHandler(knowledge KnowledgeReader) *ClusterAnalysisHandler {
	return &ClusterAnalysisHandler{knowledge: knowledge}
}

// Handle summarises the clusters of the current graph
func (h *ClusterAnalysisHandler) Handle(_ context.Context, query bus.Query) (interface{}, error) {
	if _, ok := query.(queries.ClusterAnalysisQuery); !ok {
		return nil, unexpected(query)
	}
	return h.knowledge.ClusterAnalysis(), nil
}

// GetGraphHandler handles graph data queries
type GetGraphHandler struct {
	knowledge KnowledgeReader
}

// NewGetGraphHandler creates a new graph data handler
func NewGetGraphHandler(knowledge KnowledgeReader) *GetGraphHandler {
	return &GetGraphHandler{knowledge: knowledge}
}

// Handle returns the full graph. Before the first build the graph is empty.
func (h *GetGraphHandler) Handle(_ context.Context, query bus.Query) (interface{}, error) {
	if _, ok := query.(queries.GetGraphQuery); !ok {
		return nil, unexpected(query)
	}

	graph := h.knowledge.Graph()
	result := &queries.GetGraphResult{
		Nodes:    graph.Nodes(),
		Edges:    graph.Edges(),
		Clusters: []aggregates.Cluster{},
		Stats:    graph.Stats(),
	}
	if snap := h.knowledge.Snapshot(); snap != nil {
		builtAt := snap.BuiltAt
		result.Clusters = snap.Clusters
		result.Version = snap.Version
		result.BuiltAt = &builtAt
	}
	return result, nil
}

// GetPaperHandler handles single paper lookups
type GetPaperHandler struct {
	knowledge KnowledgeReader
}

// NewGetPaperHandler creates a new paper handler
func NewGetPaperHandler(knowledge KnowledgeReader) *GetPaperHandler {
	return &GetPaperHandler{knowledge: knowledge}
}

// Handle returns the paper node and its incident edges
func (h *GetPaperHandler) Handle(_ context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetPaperQuery)
	if !ok {
		return nil, unexpected(query)
	}

	graph := h.knowledge.Graph()
	node, found := graph.Node(q.PaperID)
	if !found {
		return nil, errors.NewNotFoundError("paper")
	}
	return &queries.GetPaperResult{
		Paper:       node,
		Connections: domainservices.RankEdges(graph.IncidentEdges(q.PaperID)),
	}, nil
}
