package services

import (
	"math"
	"sort"

	"papergraph/domain/config"
	"papergraph/domain/core/entities"
)

// SimilarityCalculator calculates similarity between papers
// This is a domain service that encapsulates similarity algorithms
type SimilarityCalculator interface {
	// Calculate returns the similarity of two papers. Symmetric and deterministic.
	Calculate(a, b entities.Paper) float64

	// SharedConcepts returns the case-insensitive concept intersection
	SharedConcepts(a, b entities.Paper) []string
}

// SimilarityConfig configures the similarity calculation
type SimilarityConfig struct {
	DomainBonus float64 // Added when domain labels are equal
	TitleWeight float64 // Weight of the title cosine component
	Clamp       bool    // Clamp the sum to at most 1.0
}

// DefaultSimilarityConfig returns a balanced default configuration
func DefaultSimilarityConfig() *SimilarityConfig {
	return &SimilarityConfig{
		DomainBonus: 0.3,
		TitleWeight: 0.3,
		Clamp:       true,
	}
}

// SimilarityConfigFrom extracts similarity settings from the domain config
func SimilarityConfigFrom(cfg *config.DomainConfig) *SimilarityConfig {
	if cfg == nil {
		return DefaultSimilarityConfig()
	}
	return &SimilarityConfig{
		DomainBonus: cfg.DomainBonus,
		TitleWeight: cfg.TitleWeight,
		Clamp:       cfg.ClampScores,
	}
}

// DefaultSimilarityCalculator combines concept Jaccard, a domain bonus and
// title cosine similarity
type DefaultSimilarityCalculator struct {
	config       *SimilarityConfig
	textAnalyzer TextAnalyzer
}

// NewDefaultSimilarityCalculator creates a new similarity calculator
func NewDefaultSimilarityCalculator(config *SimilarityConfig, textAnalyzer TextAnalyzer) *DefaultSimilarityCalculator {
	if config == nil {
		config = DefaultSimilarityConfig()
	}
	if textAnalyzer == nil {
		textAnalyzer = NewDefaultTextAnalyzer()
	}

	return &DefaultSimilarityCalculator{
		config:       config,
		textAnalyzer: textAnalyzer,
	}
}

// Calculate calculates similarity between two papers
func (sc *DefaultSimilarityCalculator) Calculate(a, b entities.Paper) float64 {
	score := JaccardSimilarity(a.ConceptSet(), b.ConceptSet())

	if a.Domain == b.Domain {
		score += sc.config.DomainBonus
	}

	titleSim := CosineSimilarity(sc.textAnalyzer.TermCounts(a.Title), sc.textAnalyzer.TermCounts(b.Title))
	score += titleSim * sc.config.TitleWeight

	if sc.config.Clamp {
		score = math.Min(score, 1.0)
	}
	return score
}

// SharedConcepts returns the sorted lower-cased intersection of both concept sets
func (sc *DefaultSimilarityCalculator) SharedConcepts(a, b entities.Paper) []string {
	setB := b.ConceptSet()
	shared := make([]string, 0)
	for concept := range a.ConceptSet() {
		if setB[concept] {
			shared = append(shared, concept)
		}
	}
	sort.Strings(shared)
	return shared
}

// JaccardSimilarity is |A∩B| / |A∪B|, 0 when the union is empty
func JaccardSimilarity(set1, set2 map[string]bool) float64 {
	if len(set1) == 0 && len(set2) == 0 {
		return 0.0
	}

	intersection := 0
	for item := range set1 {
		if set2[item] {
			intersection++
		}
	}

	union := len(set1) + len(set2) - intersection
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// CosineSimilarity computes the cosine between two sparse count vectors
func CosineSimilarity(v1, v2 map[string]int) float64 {
	if len(v1) == 0 || len(v2) == 0 {
		return 0.0
	}

	// Iterate keys in sorted order so floating point sums are reproducible
	keys := make([]string, 0, len(v1))
	for k := range v1 {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var dot, norm1, norm2 float64
	for _, k := range keys {
		c := float64(v1[k])
		norm1 += c * c
		dot += c * float64(v2[k])
	}
	for _, c := range v2 {
		norm2 += float64(c) * float64(c)
	}

	if norm1 == 0 || norm2 == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(norm1) * math.Sqrt(norm2))
}

// CosineVectors computes the cosine between two dense embedding vectors.
// Vectors of different length are compared on their common prefix.
func CosineVectors(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0.0
	}

	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
