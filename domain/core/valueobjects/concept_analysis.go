package valueobjects

import (
	"strings"

	"papergraph/domain/core/entities"
)

// AnalysisSource records which extractor produced an analysis
type AnalysisSource string

const (
	SourceProvider  AnalysisSource = "provider"
	SourceHeuristic AnalysisSource = "heuristic"
)

// ConceptAnalysis is the concept, domain and methodology derived for one title
type ConceptAnalysis struct {
	Concepts    []string       `json:"concepts"`
	Domain      string         `json:"domain"`
	Methodology string         `json:"methodology,omitempty"`
	Source      AnalysisSource `json:"source"`
}

// NewConceptAnalysis normalises concepts and defaults the domain
func NewConceptAnalysis(concepts []string, domain, methodology string, source AnalysisSource) ConceptAnalysis {
	return ConceptAnalysis{
		Concepts:    entities.NormalizeConcepts(concepts),
		Domain:      entities.NormalizeDomain(domain),
		Methodology: strings.TrimSpace(methodology),
		Source:      source,
	}
}

// IsEmpty reports whether no concepts were derived
func (a ConceptAnalysis) IsEmpty() bool {
	return len(a.Concepts) == 0
}

// ApplyTo returns a copy of the paper carrying this analysis
func (a ConceptAnalysis) ApplyTo(p entities.Paper) entities.Paper {
	return p.WithAnalysis(a.Concepts, a.Domain, a.Methodology)
}
