package services

import (
	"sort"

	"papergraph/domain/config"
	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
)

// PathStep is one node on a research path. Edge is the edge used to reach
// the node and is nil for the first step.
type PathStep struct {
	NodeID string         `json:"nodeId"`
	Title  string         `json:"title"`
	Edge   *entities.Edge `json:"edge,omitempty"`
}

// ResearchPath is a simple path between two papers
type ResearchPath struct {
	Steps         []PathStep `json:"steps"`
	TotalStrength float64    `json:"totalStrength"`
	Hops          int        `json:"hops"`
}

// NodeIDs returns the ids along the path
func (p ResearchPath) NodeIDs() []string {
	ids := make([]string, len(p.Steps))
	for i, s := range p.Steps {
		ids[i] = s.NodeID
	}
	return ids
}

// IndirectConnection is a node reached through intermediate papers
type IndirectConnection struct {
	Node     entities.Node `json:"node"`
	Strength float64       `json:"strength"`
	Hops     int           `json:"hops"`
	Via      []string      `json:"via"`
}

// PathFinderConfig configures path search
type PathFinderConfig struct {
	DefaultMaxHops  int
	IndirectMaxHops int
	MaxResults      int
	Decay           float64
}

// DefaultPathFinderConfig returns default configuration
func DefaultPathFinderConfig() *PathFinderConfig {
	return &PathFinderConfig{
		DefaultMaxHops:  3,
		IndirectMaxHops: 2,
		MaxResults:      5,
		Decay:           0.7,
	}
}

// PathFinderConfigFrom extracts path settings from the domain config
func PathFinderConfigFrom(cfg *config.DomainConfig) *PathFinderConfig {
	if cfg == nil {
		return DefaultPathFinderConfig()
	}
	return &PathFinderConfig{
		DefaultMaxHops:  cfg.DefaultMaxHops,
		IndirectMaxHops: cfg.IndirectMaxHops,
		MaxResults:      cfg.MaxPathResults,
		Decay:           cfg.PathDecay,
	}
}

// PathFinder searches a built graph for multi-hop relationships
type PathFinder struct {
	config *PathFinderConfig
}

// NewPathFinder creates a new path finder
func NewPathFinder(config *PathFinderConfig) *PathFinder {
	if config == nil {
		config = DefaultPathFinderConfig()
	}
	return &PathFinder{config: config}
}

// FindPaths returns up to MaxResults simple paths from startID to endID with
// at most maxHops edges, strongest total first. A node may appear on several
// paths but never twice on the same one. Unknown ids yield no paths.
func (pf *PathFinder) FindPaths(graph *aggregates.Graph, startID, endID string, maxHops int) []ResearchPath {
	paths := make([]ResearchPath, 0)
	if graph == nil || startID == endID || !graph.HasNode(startID) || !graph.HasNode(endID) {
		return paths
	}
	if maxHops <= 0 {
		maxHops = pf.config.DefaultMaxHops
	}
	// A simple path cannot have more edges than nodes minus one
	if limit := graph.NodeCount() - 1; maxHops > limit {
		maxHops = limit
	}

	start, _ := graph.Node(startID)
	search := &pathSearch{
		graph:   graph,
		endID:   endID,
		maxHops: maxHops,
		visited: map[string]bool{startID: true},
		steps:   []PathStep{{NodeID: start.ID, Title: start.Title}},
	}
	search.walk(startID, 0)

	paths = search.found
	sort.SliceStable(paths, func(i, j int) bool {
		return paths[i].TotalStrength > paths[j].TotalStrength
	})
	if len(paths) > pf.config.MaxResults {
		paths = paths[:pf.config.MaxResults]
	}
	return paths
}

type pathSearch struct {
	graph    *aggregates.Graph
	endID    string
	maxHops  int
	visited  map[string]bool
	steps    []PathStep
	strength float64
	found    []ResearchPath
}

// walk extends the current branch; visited is unwound on backtrack
func (s *pathSearch) walk(current string, hops int) {
	if current == s.endID {
		steps := make([]PathStep, len(s.steps))
		copy(steps, s.steps)
		s.found = append(s.found, ResearchPath{
			Steps:         steps,
			TotalStrength: s.strength,
			Hops:          hops,
		})
		return
	}
	if hops >= s.maxHops {
		return
	}

	for _, edge := range s.graph.IncidentEdges(current) {
		next := edge.Other(current)
		if s.visited[next] {
			continue
		}
		node, _ := s.graph.Node(next)
		e := edge

		s.visited[next] = true
		s.steps = append(s.steps, PathStep{NodeID: next, Title: node.Title, Edge: &e})
		s.strength += edge.Strength

		s.walk(next, hops+1)

		s.strength -= edge.Strength
		s.steps = s.steps[:len(s.steps)-1]
		delete(s.visited, next)
	}
}

// FindIndirect expands breadth-first from startID. Every hop multiplies the
// accumulated strength by the edge strength and the decay factor. Nodes first
// reached at exactly maxHops edges are returned, strongest first; each node
// is visited at most once.
func (pf *PathFinder) FindIndirect(graph *aggregates.Graph, startID string, maxHops int) []IndirectConnection {
	results := make([]IndirectConnection, 0)
	if graph == nil || !graph.HasNode(startID) {
		return results
	}
	if maxHops <= 0 {
		maxHops = pf.config.IndirectMaxHops
	}

	type frontier struct {
		id       string
		strength float64
		hops     int
		via      []string
	}

	visited := map[string]bool{startID: true}
	queue := []frontier{{id: startID, strength: 1.0}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, edge := range graph.IncidentEdges(current.id) {
			next := edge.Other(current.id)
			if visited[next] {
				continue
			}
			visited[next] = true

			strength := current.strength * edge.Strength * pf.config.Decay
			hops := current.hops + 1

			if hops == maxHops {
				node, _ := graph.Node(next)
				via := make([]string, len(current.via))
				copy(via, current.via)
				results = append(results, IndirectConnection{
					Node:     node,
					Strength: strength,
					Hops:     hops,
					Via:      via,
				})
				continue
			}

			via := append(append([]string{}, current.via...), next)
			queue = append(queue, frontier{id: next, strength: strength, hops: hops, via: via})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Strength > results[j].Strength
	})
	return results
}
