package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papergraph/application/queries"
	"papergraph/application/queries/bus"
	"papergraph/application/queries/engine"
	"papergraph/application/services"
	"papergraph/domain/config"
	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
	domainservices "papergraph/domain/services"
	"papergraph/pkg/errors"
	"papergraph/pkg/observability"
)

func newTestBus(t *testing.T, build bool) (*bus.QueryBus, *observability.Collector) {
	t.Helper()
	cfg := config.DefaultDomainConfig()
	knowledge := services.NewKnowledgeService(nil, nil, nil, nil, nil,
		engine.NewEngine(nil, nil, nil, engine.ConfigFrom(cfg), nil, nil, nil), nil, nil, nil)

	if build {
		papers := make([]entities.Paper, 0, 4)
		for _, r := range []struct {
			id, title, domain string
			concepts          []string
		}{
			{"1", "Microgravity effects on bone density", "Bone Research", []string{"microgravity", "bone", "density"}},
			{"2", "Space radiation effects on bone cells", "Bone Research", []string{"radiation", "bone", "cells"}},
			{"3", "Plant growth under microgravity conditions", "Plant Biology", []string{"microgravity", "plant growth"}},
			{"4", "Cardiac output in long duration missions", "Human Physiology", []string{"cardiac"}},
		} {
			p, err := entities.NewPaper(r.id, r.title, "", r.concepts, r.domain, "")
			require.NoError(t, err)
			papers = append(papers, p)
		}
		_, err := knowledge.RebuildFrom(context.Background(), papers)
		require.NoError(t, err)
	}

	metrics := observability.NewCollector("test")
	b := bus.NewQueryBus(bus.NewMetricsMiddleware(metrics), bus.NewTracingMiddleware(observability.NewTracer("test")))
	require.NoError(t, Register(b, knowledge, nil))
	return b, metrics
}

func TestRegisterTwiceFails(t *testing.T) {
	b, _ := newTestBus(t, false)
	err := b.Register(queries.GetGraphQuery{}, NewGetGraphHandler(nil))
	assert.Error(t, err)
}

func TestResearchQuery(t *testing.T) {
	b, _ := newTestBus(t, true)

	res, err := b.Ask(context.Background(), queries.ResearchQuery{Text: "microgravity plant"})
	require.NoError(t, err)

	result, ok := res.(*engine.QueryResult)
	require.True(t, ok)
	require.NotEmpty(t, result.Results)
	assert.Equal(t, "3", result.Results[0].ID)
	assert.Equal(t, engine.SearchModeKeyword, result.Metadata.SearchMode)
}

func TestQueryValidationErrors(t *testing.T) {
	b, _ := newTestBus(t, true)

	tests := []struct {
		name  string
		query bus.Query
	}{
		{"empty research text", queries.ResearchQuery{Text: "  "}},
		{"research options out of range", queries.ResearchQuery{Text: "bone", Options: engine.QueryOptions{MaxResults: 1000}}},
		{"missing path endpoint", queries.FindPathsQuery{From: "1"}},
		{"path hops out of range", queries.FindPathsQuery{From: "1", To: "2", MaxHops: 50}},
		{"missing indirect paper", queries.FindIndirectQuery{}},
		{"missing paper id", queries.GetPaperQuery{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Ask(context.Background(), tt.query)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
		})
	}
}

func TestGraphQueries(t *testing.T) {
	b, _ := newTestBus(t, true)

	res, err := b.Ask(context.Background(), queries.GetGraphQuery{})
	require.NoError(t, err)
	graph := res.(*queries.GetGraphResult)
	assert.Len(t, graph.Nodes, 4)
	assert.Equal(t, int64(1), graph.Version)
	assert.NotNil(t, graph.BuiltAt)
	assert.NotEmpty(t, graph.Clusters)

	res, err = b.Ask(context.Background(), queries.GetPaperQuery{PaperID: "1"})
	require.NoError(t, err)
	paper := res.(*queries.GetPaperResult)
	assert.Equal(t, "1", paper.Paper.ID)
	for _, e := range paper.Connections {
		assert.True(t, e.HasNode("1"))
	}

	_, err = b.Ask(context.Background(), queries.GetPaperQuery{PaperID: "missing"})
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	res, err = b.Ask(context.Background(), queries.ClusterAnalysisQuery{})
	require.NoError(t, err)
	assert.NotEmpty(t, res.([]aggregates.ClusterSummary))
}

func TestPathQueries(t *testing.T) {
	b, _ := newTestBus(t, true)

	res, err := b.Ask(context.Background(), queries.FindPathsQuery{From: "1", To: "missing"})
	require.NoError(t, err)
	assert.Empty(t, res.([]domainservices.ResearchPath))

	res, err = b.Ask(context.Background(), queries.FindIndirectQuery{PaperID: "missing"})
	require.NoError(t, err)
	assert.Empty(t, res.([]domainservices.IndirectConnection))
}

func TestGraphBeforeBuild(t *testing.T) {
	b, _ := newTestBus(t, false)

	res, err := b.Ask(context.Background(), queries.GetGraphQuery{})
	require.NoError(t, err)
	graph := res.(*queries.GetGraphResult)
	assert.Empty(t, graph.Nodes)
	assert.Nil(t, graph.BuiltAt)
	assert.Equal(t, int64(0), graph.Version)
}

func TestBusMetrics(t *testing.T) {
	b, metrics := newTestBus(t, true)

	_, err := b.Ask(context.Background(), queries.ClusterAnalysisQuery{})
	require.NoError(t, err)
	_, err = b.Ask(context.Background(), queries.GetPaperQuery{PaperID: "missing"})
	require.Error(t, err)

	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "test_query_bus_requests_total" {
			found = true
			assert.Len(t, mf.GetMetric(), 2)
		}
	}
	assert.True(t, found)
}
