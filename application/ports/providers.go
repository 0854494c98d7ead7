package ports

import (
	"context"

	"papergraph/domain/core/valueobjects"
)

// ConceptProvider derives concepts, domain and methodology for paper titles.
// This is a port in hexagonal architecture. The service selects one
// implementation at construction: provider-backed or local heuristic.
type ConceptProvider interface {
	// Name identifies the provider in logs and metrics
	Name() string

	// AnalyzeBatch returns one analysis per title, in title order
	AnalyzeBatch(ctx context.Context, titles []string) ([]valueobjects.ConceptAnalysis, error)
}

// EmbeddingProvider maps text to a fixed-length vector
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// InsightProvider writes a narrative about a query's top papers
type InsightProvider interface {
	Synthesize(ctx context.Context, query string, papers []PaperSummary) (string, error)
}

// PaperSummary is the compact paper view handed to an InsightProvider
type PaperSummary struct {
	Title    string   `json:"title"`
	Domain   string   `json:"domain"`
	Concepts []string `json:"concepts"`
}
