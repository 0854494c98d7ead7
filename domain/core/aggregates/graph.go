package aggregates

import (
	"fmt"

	"papergraph/domain/core/entities"
	pkgerrors "papergraph/pkg/errors"
)

// Graph is the aggregate root for the paper knowledge graph.
// A Graph is immutable once constructed; rebuilding produces a new Graph.
type Graph struct {
	nodes     []entities.Node
	index     map[string]int
	edges     []entities.Edge
	adjacency map[string][]int // node id -> indexes into edges
	stats     GraphStats
}

// GraphStats contains graph summary statistics
type GraphStats struct {
	TotalNodes    int     `json:"totalNodes"`
	TotalLinks    int     `json:"totalLinks"`
	AverageDegree float64 `json:"averageDegree"`
	Clusters      int     `json:"clusters"`
	Density       float64 `json:"density"`
}

// Subgraph is a view of the graph restricted to a set of nodes
type Subgraph struct {
	Nodes   []entities.Node `json:"nodes"`
	Edges   []entities.Edge `json:"edges"`
	Density float64         `json:"density"`
}

// NewGraph assembles a graph and verifies referential integrity.
// Every edge endpoint must reference a node; node ids must be unique.
func NewGraph(nodes []entities.Node, edges []entities.Edge) (*Graph, error) {
	g := &Graph{
		nodes:     make([]entities.Node, len(nodes)),
		index:     make(map[string]int, len(nodes)),
		edges:     make([]entities.Edge, len(edges)),
		adjacency: make(map[string][]int, len(nodes)),
	}
	copy(g.nodes, nodes)
	copy(g.edges, edges)

	for i, n := range g.nodes {
		if _, exists := g.index[n.ID]; exists {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("duplicate node id %q", n.ID))
		}
		g.index[n.ID] = i
	}

	for i, e := range g.edges {
		if e.Source == e.Target {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("self-loop on node %q", e.Source))
		}
		if _, ok := g.index[e.Source]; !ok {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("edge source %q is not a node", e.Source))
		}
		if _, ok := g.index[e.Target]; !ok {
			return nil, pkgerrors.NewValidationError(fmt.Sprintf("edge target %q is not a node", e.Target))
		}
		g.adjacency[e.Source] = append(g.adjacency[e.Source], i)
		g.adjacency[e.Target] = append(g.adjacency[e.Target], i)
	}

	g.stats = computeStats(g.nodes, g.edges)
	return g, nil
}

// EmptyGraph returns a graph with no nodes
func EmptyGraph() *Graph {
	g, _ := NewGraph(nil, nil)
	return g
}

// Nodes returns all nodes in insertion order
func (g *Graph) Nodes() []entities.Node {
	nodes := make([]entities.Node, len(g.nodes))
	copy(nodes, g.nodes)
	return nodes
}

// Edges returns all edges
func (g *Graph) Edges() []entities.Edge {
	edges := make([]entities.Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Node looks up a node by id
func (g *Graph) Node(id string) (entities.Node, bool) {
	i, ok := g.index[id]
	if !ok {
		return entities.Node{}, false
	}
	return g.nodes[i], true
}

// HasNode checks if a node exists
func (g *Graph) HasNode(id string) bool {
	_, ok := g.index[id]
	return ok
}

// IncidentEdges returns the edges touching a node
func (g *Graph) IncidentEdges(id string) []entities.Edge {
	idx := g.adjacency[id]
	edges := make([]entities.Edge, 0, len(idx))
	for _, i := range idx {
		edges = append(edges, g.edges[i])
	}
	return edges
}

// NodeCount returns the number of nodes
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Stats returns the summary statistics
func (g *Graph) Stats() GraphStats {
	return g.stats
}

// Subgraph restricts nodes and edges to the given ids.
// Node order follows ids; unknown ids are skipped.
func (g *Graph) Subgraph(ids []string) Subgraph {
	members := make(map[string]bool, len(ids))
	nodes := make([]entities.Node, 0, len(ids))
	for _, id := range ids {
		if members[id] {
			continue
		}
		if n, ok := g.Node(id); ok {
			members[id] = true
			nodes = append(nodes, n)
		}
	}

	edges := make([]entities.Edge, 0)
	for _, e := range g.edges {
		if members[e.Source] && members[e.Target] {
			edges = append(edges, e)
		}
	}

	return Subgraph{
		Nodes:   nodes,
		Edges:   edges,
		Density: Density(len(nodes), len(edges)),
	}
}

// Density is edges / (n(n-1)/2), defined as 0 when n <= 1
func Density(nodeCount, edgeCount int) float64 {
	if nodeCount <= 1 {
		return 0
	}
	possible := float64(nodeCount) * float64(nodeCount-1) / 2
	return float64(edgeCount) / possible
}

func computeStats(nodes []entities.Node, edges []entities.Edge) GraphStats {
	stats := GraphStats{
		TotalNodes: len(nodes),
		TotalLinks: len(edges),
		Density:    Density(len(nodes), len(edges)),
	}
	if len(nodes) == 0 {
		return stats
	}

	clusters := make(map[string]bool)
	totalDegree := 0
	for _, n := range nodes {
		totalDegree += n.Degree
		if n.Cluster != "" {
			clusters[n.Cluster] = true
		}
	}
	stats.AverageDegree = float64(totalDegree) / float64(len(nodes))
	stats.Clusters = len(clusters)
	return stats
}
