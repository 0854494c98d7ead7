package handlers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"papergraph/application/services"
	"papergraph/domain/core/entities"
	"papergraph/infrastructure/source"
	"papergraph/pkg/common"
	"papergraph/pkg/errors"
)

const (
	maxRebuildBody        = 10 << 20
	defaultRebuildTimeout = 10 * time.Minute

	// room left after the rebuild to encode and write the response
	rebuildWriteSlack = 15 * time.Second
)

// Rebuilder is the write side of the knowledge service
type Rebuilder interface {
	Rebuild(ctx context.Context) (*services.Snapshot, error)
	RebuildFrom(ctx context.Context, papers []entities.Paper) (*services.Snapshot, error)
}

// RebuildResponse summarises a freshly published snapshot
type RebuildResponse struct {
	Version  int64                   `json:"version"`
	Source   string                  `json:"source"`
	Papers   int                     `json:"papers"`
	Nodes    int                     `json:"nodes"`
	Edges    int                     `json:"edges"`
	Clusters int                     `json:"clusters"`
	Dropped  int                     `json:"dropped"`
	Analysis services.AnalysisReport `json:"analysis"`
	BuiltAt  time.Time               `json:"builtAt"`
}

// NewRebuildResponse builds the response for a snapshot
func NewRebuildResponse(snap *services.Snapshot) RebuildResponse {
	stats := snap.Graph.Stats()
	return RebuildResponse{
		Version:  snap.Version,
		Source:   snap.Source,
		Papers:   len(snap.Papers),
		Nodes:    stats.TotalNodes,
		Edges:    stats.TotalLinks,
		Clusters: len(snap.Clusters),
		Dropped:  snap.Dropped,
		Analysis: snap.Report,
		BuiltAt:  snap.BuiltAt,
	}
}

// RebuildHandler rebuilds the knowledge graph on request
type RebuildHandler struct {
	knowledge Rebuilder
	timeout   time.Duration
	errors    *errors.ErrorHandler
	logger    *zap.Logger
}

// NewRebuildHandler creates a new rebuild handler. A rebuild may run for up
// to timeout; zero selects ten minutes.
func NewRebuildHandler(knowledge Rebuilder, timeout time.Duration, errorHandler *errors.ErrorHandler, logger *zap.Logger) *RebuildHandler {
	if timeout <= 0 {
		timeout = defaultRebuildTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RebuildHandler{
		knowledge: knowledge,
		timeout:   timeout,
		errors:    errorHandler,
		logger:    logger,
	}
}

// Rebuild handles POST /rebuild. An empty body reloads the configured paper
// source; a body with a paper list ({"papers": [...]} or a bare list)
// rebuilds from those papers instead.
func (h *RebuildHandler) Rebuild(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRebuildBody))
	if err != nil {
		h.errors.Handle(w, r, errors.NewValidationError("failed to read request body: "+err.Error()))
		return
	}

	// A disconnecting client must not discard batches already analysed, so
	// the build runs on its own deadline and the server write timeout is
	// pushed past it for this response.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.timeout)
	defer cancel()
	if err := http.NewResponseController(w).SetWriteDeadline(time.Now().Add(h.timeout + rebuildWriteSlack)); err != nil {
		h.logger.Debug("Write deadline not extended", zap.Error(err))
	}

	var snap *services.Snapshot
	if len(bytes.TrimSpace(body)) == 0 {
		snap, err = h.knowledge.Rebuild(ctx)
	} else {
		papers, parseErr := source.ParsePapers(body, "json")
		if parseErr != nil {
			h.errors.Handle(w, r, parseErr)
			return
		}
		snap, err = h.knowledge.RebuildFrom(ctx, papers)
	}
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.logger.Info("Graph rebuilt on request",
		zap.Int64("version", snap.Version),
		zap.String("source", snap.Source),
	)
	common.RespondJSON(w, http.StatusOK, NewRebuildResponse(snap))
}
