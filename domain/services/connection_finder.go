package services

import (
	"sort"

	"papergraph/domain/config"
	"papergraph/domain/core/entities"
)

// ConnectionFinder discovers scored edges between papers
type ConnectionFinder interface {
	FindConnections(papers []entities.Paper) []entities.Edge
}

// ConnectionFinderConfig configures connection discovery behavior
type ConnectionFinderConfig struct {
	Threshold      float64 // Similarity must exceed this to create an edge
	MaxConnections int     // Upper bound on returned edges
}

// DefaultConnectionFinderConfig returns default configuration
func DefaultConnectionFinderConfig() *ConnectionFinderConfig {
	return &ConnectionFinderConfig{
		Threshold:      0.3,
		MaxConnections: 400,
	}
}

// ConnectionFinderConfigFrom extracts connection settings from the domain config
func ConnectionFinderConfigFrom(cfg *config.DomainConfig) *ConnectionFinderConfig {
	if cfg == nil {
		return DefaultConnectionFinderConfig()
	}
	return &ConnectionFinderConfig{
		Threshold:      cfg.SimilarityThreshold,
		MaxConnections: cfg.MaxConnections,
	}
}

// DefaultConnectionFinder compares every unordered pair of papers.
// Cost is O(n²) in the number of papers.
type DefaultConnectionFinder struct {
	config               *ConnectionFinderConfig
	similarityCalculator SimilarityCalculator
}

// NewDefaultConnectionFinder creates a new connection finder
func NewDefaultConnectionFinder(
	config *ConnectionFinderConfig,
	similarityCalculator SimilarityCalculator,
) *DefaultConnectionFinder {
	if config == nil {
		config = DefaultConnectionFinderConfig()
	}
	if similarityCalculator == nil {
		similarityCalculator = NewDefaultSimilarityCalculator(nil, nil)
	}

	return &DefaultConnectionFinder{
		config:               config,
		similarityCalculator: similarityCalculator,
	}
}

// FindConnections scores all i<j pairs, keeps those above the threshold and
// returns them strongest first, truncated to MaxConnections.
func (cf *DefaultConnectionFinder) FindConnections(papers []entities.Paper) []entities.Edge {
	edges := make([]entities.Edge, 0)

	for i := 0; i < len(papers); i++ {
		for j := i + 1; j < len(papers); j++ {
			a, b := papers[i], papers[j]
			if a.ID == b.ID {
				continue
			}

			strength := cf.similarityCalculator.Calculate(a, b)
			if strength <= cf.config.Threshold {
				continue
			}

			edges = append(edges, entities.Edge{
				Source:         a.ID,
				Target:         b.ID,
				Strength:       strength,
				SharedConcepts: cf.similarityCalculator.SharedConcepts(a, b),
				Type:           entities.ClassifyStrength(strength),
			})
		}
	}

	ranked := RankEdges(edges)
	if cf.config.MaxConnections > 0 && len(ranked) > cf.config.MaxConnections {
		ranked = ranked[:cf.config.MaxConnections]
	}
	return ranked
}

// RankEdges sorts edges by strength, highest first. Ties are ordered by
// endpoint ids so the result is stable across runs.
func RankEdges(edges []entities.Edge) []entities.Edge {
	ranked := make([]entities.Edge, len(edges))
	copy(ranked, edges)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Strength != ranked[j].Strength {
			return ranked[i].Strength > ranked[j].Strength
		}
		if ranked[i].Source != ranked[j].Source {
			return ranked[i].Source < ranked[j].Source
		}
		return ranked[i].Target < ranked[j].Target
	})

	return ranked
}
