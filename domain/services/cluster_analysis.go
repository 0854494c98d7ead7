package services

import (
	"sort"
	"strings"

	"papergraph/domain/core/aggregates"
)

// clusterConceptLimit caps the concepts reported per cluster
const clusterConceptLimit = 5

// ClusterAnalysis summarises every cluster of a built graph: member count,
// most frequent concepts and mean centrality. Largest clusters come first.
func ClusterAnalysis(graph *aggregates.Graph) []aggregates.ClusterSummary {
	summaries := make([]aggregates.ClusterSummary, 0)
	if graph == nil {
		return summaries
	}

	type accumulator struct {
		size       int
		centrality float64
		concepts   map[string]int
	}

	groups := make(map[string]*accumulator)
	for _, node := range graph.Nodes() {
		if node.Cluster == "" {
			continue
		}
		acc, ok := groups[node.Cluster]
		if !ok {
			acc = &accumulator{concepts: make(map[string]int)}
			groups[node.Cluster] = acc
		}
		acc.size++
		acc.centrality += node.Centrality
		for _, c := range node.Concepts {
			acc.concepts[strings.ToLower(c)]++
		}
	}

	for name, acc := range groups {
		summaries = append(summaries, aggregates.ClusterSummary{
			Name:          name,
			Size:          acc.size,
			Concepts:      TopTerms(acc.concepts, clusterConceptLimit),
			AvgCentrality: acc.centrality / float64(acc.size),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Size != summaries[j].Size {
			return summaries[i].Size > summaries[j].Size
		}
		return summaries[i].Name < summaries[j].Name
	})
	return summaries
}

// TermCount is a term with its frequency
type TermCount struct {
	Term  string `json:"term"`
	Count int    `json:"count"`
}

// RankTerms orders terms by frequency, then alphabetically
func RankTerms(counts map[string]int) []TermCount {
	ranked := make([]TermCount, 0, len(counts))
	for term, count := range counts {
		ranked = append(ranked, TermCount{Term: term, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Term < ranked[j].Term
	})
	return ranked
}

// TopTerms returns up to limit of the most frequent terms
func TopTerms(counts map[string]int, limit int) []string {
	ranked := RankTerms(counts)
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	terms := make([]string, len(ranked))
	for i, tc := range ranked {
		terms[i] = tc.Term
	}
	return terms
}
