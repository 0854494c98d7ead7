package services

import (
	"papergraph/domain/config"
	"papergraph/domain/core/entities"
)

// CentralityScorer assigns each node a normalised importance in [0,1]
type CentralityScorer interface {
	Score(nodes []entities.Node, edges []entities.Edge) map[string]float64
}

// NewCentralityScorer selects the scorer for the configured algorithm
func NewCentralityScorer(algorithm config.CentralityAlgorithm) CentralityScorer {
	if algorithm == config.CentralityBetweenness {
		return NewBetweennessCentrality()
	}
	return NewDegreeCentrality()
}

// DegreeCentrality scores degree / max degree
type DegreeCentrality struct{}

// NewDegreeCentrality creates a degree centrality scorer
func NewDegreeCentrality() *DegreeCentrality {
	return &DegreeCentrality{}
}

// Score returns degree / max degree; every node scores 0 when no node has edges
func (s *DegreeCentrality) Score(nodes []entities.Node, edges []entities.Edge) map[string]float64 {
	degrees := CountDegrees(nodes, edges)

	maxDegree := 0
	for _, d := range degrees {
		if d > maxDegree {
			maxDegree = d
		}
	}

	scores := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		if maxDegree == 0 {
			scores[n.ID] = 0
			continue
		}
		scores[n.ID] = float64(degrees[n.ID]) / float64(maxDegree)
	}
	return scores
}

// BetweennessCentrality scores the share of shortest paths between other
// nodes that pass through each node (Brandes), normalised by the maximum.
// When several shortest paths join a pair, each gets an equal fraction.
type BetweennessCentrality struct{}

// NewBetweennessCentrality creates a betweenness centrality scorer
func NewBetweennessCentrality() *BetweennessCentrality {
	return &BetweennessCentrality{}
}

// Score runs one BFS per source and accumulates pair dependencies back
// along the shortest-path predecessors. Edges are unweighted.
func (s *BetweennessCentrality) Score(nodes []entities.Node, edges []entities.Edge) map[string]float64 {
	adjacency := buildAdjacency(nodes, edges)

	scores := make(map[string]float64, len(nodes))
	for _, n := range nodes {
		scores[n.ID] = 0.0
	}

	for _, source := range nodes {
		order := make([]string, 0, len(nodes))
		predecessors := make(map[string][]string)
		paths := map[string]float64{source.ID: 1}
		distance := map[string]int{source.ID: 0}

		queue := []string{source.ID}
		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			order = append(order, v)

			for _, w := range adjacency[v] {
				if _, seen := distance[w]; !seen {
					distance[w] = distance[v] + 1
					queue = append(queue, w)
				}
				if distance[w] == distance[v]+1 {
					paths[w] += paths[v]
					predecessors[w] = append(predecessors[w], v)
				}
			}
		}

		// Farthest nodes first
		dependency := make(map[string]float64, len(order))
		for i := len(order) - 1; i >= 0; i-- {
			w := order[i]
			for _, v := range predecessors[w] {
				dependency[v] += paths[v] / paths[w] * (1 + dependency[w])
			}
			if w != source.ID {
				scores[w] += dependency[w]
			}
		}
	}

	maxCentrality := 0.0
	for _, value := range scores {
		if value > maxCentrality {
			maxCentrality = value
		}
	}
	if maxCentrality > 0 {
		for id := range scores {
			scores[id] /= maxCentrality
		}
	}

	return scores
}

// CountDegrees counts incident edges per node, both endpoints per edge
func CountDegrees(nodes []entities.Node, edges []entities.Edge) map[string]int {
	degrees := make(map[string]int, len(nodes))
	for _, n := range nodes {
		degrees[n.ID] = 0
	}
	for _, e := range edges {
		if _, ok := degrees[e.Source]; ok {
			degrees[e.Source]++
		}
		if _, ok := degrees[e.Target]; ok {
			degrees[e.Target]++
		}
	}
	return degrees
}
