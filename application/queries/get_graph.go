package queries

import (
	"time"

	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
	"papergraph/pkg/errors"
)

// GetGraphQuery represents a query for the full graph of the current snapshot
type GetGraphQuery struct{}

// Validate validates the query
func (q GetGraphQuery) Validate() error {
	return nil
}

// GetGraphResult represents the complete graph data for visualization
type GetGraphResult struct {
	Nodes    []entities.Node       `json:"nodes"`
	Edges    []entities.Edge       `json:"edges"`
	Clusters []aggregates.Cluster  `json:"clusters"`
	Stats    aggregates.GraphStats `json:"stats"`
	Version  int64                 `json:"version"`
	BuiltAt  *time.Time            `json:"builtAt,omitempty"`
}

// GetPaperQuery represents a query to get a single paper node
type GetPaperQuery struct {
	PaperID string `json:"paperId"`
}

// Validate validates the GetPaperQuery
func (q GetPaperQuery) Validate() error {
	if q.PaperID == "" {
		return errors.NewValidationError("paper ID is required")
	}
	return nil
}

// GetPaperResult is a node plus its direct connections
type GetPaperResult struct {
	Paper       entities.Node   `json:"paper"`
	Connections []entities.Edge `json:"connections"`
}
