package services

import (
	"go.uber.org/zap"

	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
)

// GraphBuilder assembles papers and connections into a Graph
type GraphBuilder struct {
	communityDetector CommunityDetector
	centralityScorer  CentralityScorer
	logger            *zap.Logger
}

// BuildResult carries the graph plus the clusters found while building it
type BuildResult struct {
	Graph    *aggregates.Graph
	Clusters []aggregates.Cluster
	Dropped  int // connections discarded for citing unknown papers or self-loops
}

// NewGraphBuilder creates a new graph builder
func NewGraphBuilder(
	communityDetector CommunityDetector,
	centralityScorer CentralityScorer,
	logger *zap.Logger,
) *GraphBuilder {
	if communityDetector == nil {
		communityDetector = NewComponentDetector()
	}
	if centralityScorer == nil {
		centralityScorer = NewDegreeCentrality()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &GraphBuilder{
		communityDetector: communityDetector,
		centralityScorer:  centralityScorer,
		logger:            logger,
	}
}

// Build runs nodes, edges, degree, clusters, centrality and stats in that order.
// Duplicate paper ids keep their first occurrence.
func (b *GraphBuilder) Build(papers []entities.Paper, connections []entities.Edge) (*BuildResult, error) {
	// 1. Nodes
	nodes := make([]entities.Node, 0, len(papers))
	known := make(map[string]bool, len(papers))
	for _, p := range papers {
		if known[p.ID] {
			b.logger.Warn("Duplicate paper id ignored", zap.String("paper_id", p.ID))
			continue
		}
		known[p.ID] = true
		nodes = append(nodes, entities.NodeFromPaper(p))
	}

	// 2. Edges, with type derived from strength
	edges := make([]entities.Edge, 0, len(connections))
	seen := make(map[[2]string]bool, len(connections))
	dropped := 0
	for _, c := range connections {
		if c.Source == c.Target || !known[c.Source] || !known[c.Target] {
			b.logger.Warn("Dropping connection with invalid endpoints",
				zap.String("source", c.Source),
				zap.String("target", c.Target),
			)
			dropped++
			continue
		}
		key := pairKey(c.Source, c.Target)
		if seen[key] {
			dropped++
			continue
		}
		seen[key] = true
		edges = append(edges, c.WithType())
	}

	// 3. Degree
	degrees := CountDegrees(nodes, edges)
	for i := range nodes {
		nodes[i] = nodes[i].WithDegree(degrees[nodes[i].ID])
	}

	// 4. Clusters
	nodes, clusters := b.communityDetector.Detect(nodes, edges)

	// 5. Centrality
	scores := b.centralityScorer.Score(nodes, edges)
	for i := range nodes {
		nodes[i] = nodes[i].WithCentrality(scores[nodes[i].ID])
	}

	// 6. Stats are computed by the aggregate
	graph, err := aggregates.NewGraph(nodes, edges)
	if err != nil {
		return nil, err
	}

	b.logger.Debug("Graph built",
		zap.Int("nodes", graph.NodeCount()),
		zap.Int("edges", graph.EdgeCount()),
		zap.Int("clusters", len(clusters)),
		zap.Int("dropped", dropped),
	)

	return &BuildResult{Graph: graph, Clusters: clusters, Dropped: dropped}, nil
}

// pairKey orders endpoints so undirected pairs compare equal
func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
