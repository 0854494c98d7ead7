package engine

import (
	"time"

	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
)

// SearchMode names the search strategy that produced the direct results
type SearchMode string

const (
	SearchModeSemantic SearchMode = "semantic"
	SearchModeKeyword  SearchMode = "keyword"
)

// ResultSource tells whether a result was found directly or via graph expansion
type ResultSource string

const (
	SourceDirect   ResultSource = "direct"
	SourceExpanded ResultSource = "expanded"
)

// QueryOptions tunes a single query
type QueryOptions struct {
	MaxResults         int     `json:"maxResults" validate:"gte=0,lte=100"`
	IncludeConnections bool    `json:"includeConnections"`
	SemanticThreshold  float64 `json:"semanticThreshold" validate:"gte=0,lte=1"`
	UseGraphStructure  bool    `json:"useGraphStructure"`
}

const defaultMaxResults = 10

// DefaultQueryOptions returns the options used when a caller sets none.
// MaxResults is left at zero so the engine applies its configured default.
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{
		IncludeConnections: true,
		SemanticThreshold:  0.7,
		UseGraphStructure:  true,
	}
}

// ScoredPaper is a graph node ranked for a query
type ScoredPaper struct {
	entities.Node
	RelevanceScore   float64      `json:"relevanceScore"`
	ConnectionReason string       `json:"connectionReason,omitempty"`
	Source           ResultSource `json:"source"`
}

// Theme is a recurring concept across the result set
type Theme struct {
	Topic     string `json:"topic"`
	Frequency int    `json:"frequency"`
	Relevance string `json:"relevance"`
}

// DomainCount is the number of results in one domain
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// Insights is the synthesised context for a result set
type Insights struct {
	Narrative     string        `json:"narrative"`
	Themes        []Theme       `json:"themes"`
	Domains       []DomainCount `json:"domains"`
	AverageDegree float64       `json:"averageDegree"`
	Maturity      string        `json:"maturity"`
	AIGenerated   bool          `json:"aiGenerated"`
}

// Metadata describes how a result was produced
type Metadata struct {
	QueryID           string        `json:"queryId"`
	SearchMode        SearchMode    `json:"searchMode"`
	DirectResults     int           `json:"directResults"`
	ExpandedResults   int           `json:"expandedResults"`
	TotalResults      int           `json:"totalResults"`
	SemanticThreshold float64       `json:"semanticThreshold"`
	StrongMatches     int           `json:"strongMatches"`
	ThresholdMiss     bool          `json:"thresholdMiss"`
	FallbackMode      bool          `json:"fallbackMode"`
	AIGenerated       bool          `json:"aiGenerated"`
	Degraded          []string      `json:"degraded,omitempty"`
	Duration          time.Duration `json:"duration"`
}

// QueryResult is the full answer to a research query
type QueryResult struct {
	Query       string              `json:"query"`
	Results     []ScoredPaper       `json:"results"`
	Connections []entities.Edge     `json:"connections"`
	Subgraph    aggregates.Subgraph `json:"subgraph"`
	Insights    Insights            `json:"insights"`
	Metadata    Metadata            `json:"metadata"`
}
