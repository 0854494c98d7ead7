package queries

import (
	"fmt"

	"papergraph/pkg/errors"
	"papergraph/pkg/utils"
)

// FindPathsQuery asks for the strongest simple paths between two papers
type FindPathsQuery struct {
	From    string `json:"from" validate:"required"`
	To      string `json:"to" validate:"required"`
	MaxHops int    `json:"maxHops" validate:"gte=0,lte=10"`
}

// Validate validates the FindPathsQuery
func (q FindPathsQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return errors.NewValidationError(fmt.Sprintf("invalid path query: %v", err))
	}
	return nil
}

// FindIndirectQuery asks for papers reached through intermediate papers
type FindIndirectQuery struct {
	PaperID string `json:"paperId" validate:"required"`
	MaxHops int    `json:"maxHops" validate:"gte=0,lte=10"`
}

// Validate validates the FindIndirectQuery
func (q FindIndirectQuery) Validate() error {
	if err := utils.ValidateStruct(q); err != nil {
		return errors.NewValidationError(fmt.Sprintf("invalid indirect query: %v", err))
	}
	return nil
}

// ClusterAnalysisQuery asks for per-cluster summaries
type ClusterAnalysisQuery struct{}

// Validate validates the query
func (q ClusterAnalysisQuery) Validate() error {
	return nil
}
