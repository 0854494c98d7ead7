package queries

import (
	"fmt"
	"strings"

	"papergraph/application/queries/engine"
	"papergraph/pkg/errors"
	"papergraph/pkg/utils"
)

// ResearchQuery asks the query engine a free-text research question
type ResearchQuery struct {
	Text    string              `json:"query" validate:"required,max=1000"`
	Options engine.QueryOptions `json:"options"`
}

// Validate validates the ResearchQuery
func (q ResearchQuery) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return errors.NewValidationError("query text is required")
	}
	if err := utils.ValidateStruct(q); err != nil {
		return errors.NewValidationError(fmt.Sprintf("invalid research query: %v", err))
	}
	return nil
}
