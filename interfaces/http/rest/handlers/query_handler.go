package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"papergraph/application/queries"
	querybus "papergraph/application/queries/bus"
	"papergraph/application/queries/engine"
	"papergraph/pkg/common"
	"papergraph/pkg/errors"
)

const maxQueryBody = 1 << 20

// QueryRequest is the body of POST /query. Omitted options take their defaults.
type QueryRequest struct {
	Query              string   `json:"query"`
	MaxResults         *int     `json:"maxResults,omitempty"`
	IncludeConnections *bool    `json:"includeConnections,omitempty"`
	SemanticThreshold  *float64 `json:"semanticThreshold,omitempty"`
	UseGraphStructure  *bool    `json:"useGraphStructure,omitempty"`
}

// Options merges the request over the default query options
func (req QueryRequest) Options() engine.QueryOptions {
	opts := engine.DefaultQueryOptions()
	if req.MaxResults != nil {
		opts.MaxResults = *req.MaxResults
	}
	if req.IncludeConnections != nil {
		opts.IncludeConnections = *req.IncludeConnections
	}
	if req.SemanticThreshold != nil {
		opts.SemanticThreshold = *req.SemanticThreshold
	}
	if req.UseGraphStructure != nil {
		opts.UseGraphStructure = *req.UseGraphStructure
	}
	return opts
}

// QueryHandler handles research queries
type QueryHandler struct {
	queryBus *querybus.QueryBus
	errors   *errors.ErrorHandler
	logger   *zap.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(queryBus *querybus.QueryBus, errorHandler *errors.ErrorHandler, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		queryBus: queryBus,
		errors:   errorHandler,
		logger:   logger,
	}
}

// Query handles POST /query
func (h *QueryHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := common.ParseJSONBody(r, &req, maxQueryBody); err != nil {
		h.errors.Handle(w, r, errors.NewValidationError("invalid request body: "+err.Error()))
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ResearchQuery{
		Text:    req.Query,
		Options: req.Options(),
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	common.RespondWithMeta(w, http.StatusOK, result, &common.MetaInfo{
		RequestID: middleware.GetReqID(r.Context()),
		Version:   "v1",
	})
}
