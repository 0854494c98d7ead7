package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"papergraph/application/queries"
	querybus "papergraph/application/queries/bus"
	"papergraph/pkg/common"
	"papergraph/pkg/errors"
)

// GraphHandler handles graph-related HTTP requests
type GraphHandler struct {
	queryBus *querybus.QueryBus
	errors   *errors.ErrorHandler
	logger   *zap.Logger
}

// NewGraphHandler creates a new graph handler
func NewGraphHandler(queryBus *querybus.QueryBus, errorHandler *errors.ErrorHandler, logger *zap.Logger) *GraphHandler {
	return &GraphHandler{
		queryBus: queryBus,
		errors:   errorHandler,
		logger:   logger,
	}
}

// GetGraph handles GET /graph
func (h *GraphHandler) GetGraph(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetGraphQuery{})
}

// GetPaper handles GET /papers/{paperID}
func (h *GraphHandler) GetPaper(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.GetPaperQuery{PaperID: chi.URLParam(r, "paperID")})
}

// GetClusters handles GET /clusters
func (h *GraphHandler) GetClusters(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ClusterAnalysisQuery{})
}

func (h *GraphHandler) ask(w http.ResponseWriter, r *http.Request, query querybus.Query) {
	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
