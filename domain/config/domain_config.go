package config

import (
	"fmt"
	"time"
)

// CentralityAlgorithm selects how node importance is scored
type CentralityAlgorithm string

const (
	CentralityDegree      CentralityAlgorithm = "degree"
	CentralityBetweenness CentralityAlgorithm = "betweenness"
)

// DomainConfig holds all configurable business rules and constraints
type DomainConfig struct {
	// Similarity
	DomainBonus float64 `yaml:"domain_bonus" validate:"gte=0,lte=1"`
	TitleWeight float64 `yaml:"title_weight" validate:"gte=0,lte=1"`
	ClampScores bool    `yaml:"clamp_scores"`

	// Connection discovery
	SimilarityThreshold float64 `yaml:"similarity_threshold" validate:"gte=0,lte=1"`
	MaxConnections      int     `yaml:"max_connections" validate:"gt=0"`

	// Graph analytics
	CentralityAlgorithm CentralityAlgorithm `yaml:"centrality_algorithm" validate:"oneof=degree betweenness"`
	DefaultMaxHops      int                 `yaml:"default_max_hops" validate:"gt=0,lte=10"`
	IndirectMaxHops     int                 `yaml:"indirect_max_hops" validate:"gt=0,lte=10"`
	MaxPathResults      int                 `yaml:"max_path_results" validate:"gt=0"`
	PathDecay           float64             `yaml:"path_decay" validate:"gt=0,lte=1"`

	// Query pipeline
	DefaultMaxResults     int     `yaml:"default_max_results" validate:"gt=0,lte=100"`
	SemanticFloor         float64 `yaml:"semantic_floor" validate:"gte=0,lte=1"`
	ExpansionThreshold    float64 `yaml:"expansion_threshold" validate:"gte=0,lte=1"`
	MaxQueryConnections   int     `yaml:"max_query_connections" validate:"gt=0"`
	InsightPapers         int     `yaml:"insight_papers" validate:"gt=0"`
	MatureDegreeThreshold float64 `yaml:"mature_degree_threshold"`
	NicheDegreeThreshold  float64 `yaml:"niche_degree_threshold"`
	EmbeddingConcurrency  int     `yaml:"embedding_concurrency" validate:"gt=0"`

	// Concept extraction
	AnalysisBatchSize  int           `yaml:"analysis_batch_size" validate:"gt=0"`
	AnalysisBatchDelay time.Duration `yaml:"analysis_batch_delay"`
	ProviderTimeout    time.Duration `yaml:"provider_timeout" validate:"gt=0"`
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		DomainBonus: 0.3,
		TitleWeight: 0.3,
		ClampScores: true,

		SimilarityThreshold: 0.3,
		MaxConnections:      400,

		CentralityAlgorithm: CentralityDegree,
		DefaultMaxHops:      3,
		IndirectMaxHops:     2,
		MaxPathResults:      5,
		PathDecay:           0.7,

		DefaultMaxResults:     10,
		SemanticFloor:         0.5,
		ExpansionThreshold:    0.6,
		MaxQueryConnections:   10,
		InsightPapers:         5,
		MatureDegreeThreshold: 5,
		NicheDegreeThreshold:  2,
		EmbeddingConcurrency:  4,

		AnalysisBatchSize:  5,
		AnalysisBatchDelay: 1 * time.Second,
		ProviderTimeout:    30 * time.Second,
	}
}

// ProductionDomainConfig returns production-specific configuration
func ProductionDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	// Respect provider rate limits more strictly
	config.AnalysisBatchDelay = 2 * time.Second
	config.MaxConnections = 300

	return config
}

// DevelopmentDomainConfig returns development-specific configuration
func DevelopmentDomainConfig() *DomainConfig {
	config := DefaultDomainConfig()

	config.MaxConnections = 500
	config.AnalysisBatchDelay = 200 * time.Millisecond

	return config
}

// LoadDomainConfig loads domain configuration based on environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "production":
		return ProductionDomainConfig()
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Validate checks cross-field rules the struct tags cannot express
func (c *DomainConfig) Validate() error {
	if c.NicheDegreeThreshold > c.MatureDegreeThreshold {
		return fmt.Errorf("niche degree threshold %.2f exceeds mature threshold %.2f",
			c.NicheDegreeThreshold, c.MatureDegreeThreshold)
	}
	return nil
}
