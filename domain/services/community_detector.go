package services

import (
	"fmt"

	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
)

// CommunityDetector partitions a graph into clusters
type CommunityDetector interface {
	// Detect returns the nodes with cluster labels assigned, plus the clusters
	Detect(nodes []entities.Node, edges []entities.Edge) ([]entities.Node, []aggregates.Cluster)
}

// ComponentDetector labels every connected component with its dominant domain.
// Labels are "<domain>-<seq>" with seq counted from 1 in node order; domain
// ties go to the lexicographically smallest label.
type ComponentDetector struct{}

// NewComponentDetector creates a new connected-component detector
func NewComponentDetector() *ComponentDetector {
	return &ComponentDetector{}
}

// Detect finds connected components with an explicit stack
func (d *ComponentDetector) Detect(nodes []entities.Node, edges []entities.Edge) ([]entities.Node, []aggregates.Cluster) {
	adjacency := buildAdjacency(nodes, edges)
	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		index[n.ID] = i
	}

	visited := make(map[string]bool, len(nodes))
	labelled := make([]entities.Node, len(nodes))
	copy(labelled, nodes)
	clusters := make([]aggregates.Cluster, 0)

	for _, start := range nodes {
		if visited[start.ID] {
			continue
		}

		members := d.component(start.ID, adjacency, visited)
		domains := make([]string, 0, len(members))
		for _, id := range members {
			domains = append(domains, nodes[index[id]].Domain)
		}

		seq := len(clusters) + 1
		dominant := DominantDomain(domains)
		cluster := aggregates.Cluster{
			Label:          fmt.Sprintf("%s-%d", dominant, seq),
			DominantDomain: dominant,
			Sequence:       seq,
			NodeIDs:        members,
		}
		for _, id := range members {
			i := index[id]
			labelled[i] = labelled[i].WithCluster(cluster.Label)
		}
		clusters = append(clusters, cluster)
	}

	return labelled, clusters
}

// component collects every node reachable from start. The stack never holds
// more than one entry per edge endpoint, so iteration is bounded by the graph size.
func (d *ComponentDetector) component(start string, adjacency map[string][]string, visited map[string]bool) []string {
	members := make([]string, 0)
	stack := []string{start}
	visited[start] = true

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		members = append(members, current)

		for _, next := range adjacency[current] {
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}

	return members
}

// DominantDomain returns the most frequent domain, smallest label on ties
func DominantDomain(domains []string) string {
	if len(domains) == 0 {
		return entities.UnknownDomain
	}

	counts := make(map[string]int)
	for _, d := range domains {
		counts[entities.NormalizeDomain(d)]++
	}

	best, bestCount := "", 0
	for domain, count := range counts {
		if count > bestCount || (count == bestCount && domain < best) {
			best, bestCount = domain, count
		}
	}
	return best
}

// buildAdjacency maps node ids to neighbour ids in edge order.
// Edges with an endpoint outside nodes are ignored.
func buildAdjacency(nodes []entities.Node, edges []entities.Edge) map[string][]string {
	known := make(map[string]bool, len(nodes))
	adjacency := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		known[n.ID] = true
		adjacency[n.ID] = nil
	}

	for _, e := range edges {
		if !known[e.Source] || !known[e.Target] || e.Source == e.Target {
			continue
		}
		adjacency[e.Source] = append(adjacency[e.Source], e.Target)
		adjacency[e.Target] = append(adjacency[e.Target], e.Source)
	}
	return adjacency
}
