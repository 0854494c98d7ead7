package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"papergraph/application/queries"
	querybus "papergraph/application/queries/bus"
	"papergraph/pkg/common"
	"papergraph/pkg/errors"
)

// PathHandler handles multi-hop relationship queries
type PathHandler struct {
	queryBus *querybus.QueryBus
	errors   *errors.ErrorHandler
	logger   *zap.Logger
}

// NewPathHandler creates a new path handler
func NewPathHandler(queryBus *querybus.QueryBus, errorHandler *errors.ErrorHandler, logger *zap.Logger) *PathHandler {
	return &PathHandler{
		queryBus: queryBus,
		errors:   errorHandler,
		logger:   logger,
	}
}

// FindPaths handles GET /paths?from=&to=&max_hops=
func (h *PathHandler) FindPaths(w http.ResponseWriter, r *http.Request) {
	maxHops, err := parseMaxHops(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.FindPathsQuery{
		From:    r.URL.Query().Get("from"),
		To:      r.URL.Query().Get("to"),
		MaxHops: maxHops,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// FindIndirect handles GET /papers/{paperID}/indirect?max_hops=
func (h *PathHandler) FindIndirect(w http.ResponseWriter, r *http.Request) {
	maxHops, err := parseMaxHops(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.FindIndirectQuery{
		PaperID: chi.URLParam(r, "paperID"),
		MaxHops: maxHops,
	})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// parseMaxHops reads max_hops; absent means 0, which selects the default
func parseMaxHops(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("max_hops")
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewValidationError("max_hops must be an integer")
	}
	return n, nil
}
