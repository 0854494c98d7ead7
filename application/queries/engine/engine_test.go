package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papergraph/application/ports"
	"papergraph/domain/config"
	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
	"papergraph/domain/services"
	"papergraph/infrastructure/cache"
	pkgerrors "papergraph/pkg/errors"
)

// keywordEmbedder maps text onto a 3-dim vector: plant, bone, cardiac
type keywordEmbedder struct {
	calls atomic.Int32
	err   error
}

func (k *keywordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	k.calls.Add(1)
	if k.err != nil {
		return nil, k.err
	}
	text = strings.ToLower(text)
	v := make([]float32, 3)
	for i, word := range []string{"plant", "bone", "cardiac"} {
		if strings.Contains(text, word) {
			v[i] = 1
		}
	}
	return v, nil
}

type fakeInsights struct {
	mu        sync.Mutex
	narrative string
	err       error
	received  []ports.PaperSummary
}

func (f *fakeInsights) Synthesize(_ context.Context, _ string, papers []ports.PaperSummary) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.received = papers
	return f.narrative, f.err
}

func testPapers(t *testing.T) []entities.Paper {
	t.Helper()
	raw := []struct {
		id, title, domain string
		concepts          []string
	}{
		{"1", "Microgravity effects on bone density", "Bone Research", []string{"microgravity", "bone", "density"}},
		{"2", "Space radiation effects on bone cells", "Bone Research", []string{"radiation", "bone", "cells"}},
		{"3", "Plant growth under microgravity conditions", "Plant Biology", []string{"microgravity", "plant growth"}},
		{"4", "Arabidopsis root gravitropism in spaceflight", "Plant Biology", []string{"arabidopsis", "root", "gravitropism", "plant growth"}},
		{"5", "Cardiac output in long duration missions", "Human Physiology", []string{"cardiac", "cardiovascular"}},
	}
	papers := make([]entities.Paper, 0, len(raw))
	for _, r := range raw {
		p, err := entities.NewPaper(r.id, r.title, "", r.concepts, r.domain, "")
		require.NoError(t, err)
		papers = append(papers, p)
	}
	return papers
}

func buildTestGraph(t *testing.T) *aggregates.Graph {
	t.Helper()
	papers := testPapers(t)
	finder := services.NewDefaultConnectionFinder(
		services.DefaultConnectionFinderConfig(),
		services.NewDefaultSimilarityCalculator(services.DefaultSimilarityConfig(), services.NewDefaultTextAnalyzer()),
	)
	result, err := services.NewGraphBuilder(nil, nil, nil).Build(papers, finder.FindConnections(papers))
	require.NoError(t, err)
	return result.Graph
}

// starGraph links hub H to X (0.9), Y (0.65) and Z (0.4)
func starGraph(t *testing.T) *aggregates.Graph {
	t.Helper()
	nodes := []entities.Node{
		{ID: "H", Title: "Hub paper on microgravity", Concepts: []string{"microgravity"}, Domain: "Space Biology", Degree: 3},
		{ID: "X", Title: "Bone loss in orbit", Concepts: []string{"bone"}, Domain: "Bone Research", Degree: 1},
		{ID: "Y", Title: "Seed germination aboard stations", Concepts: []string{"seeds"}, Domain: "Plant Biology", Degree: 1},
		{ID: "Z", Title: "Crew sleep patterns", Concepts: []string{"sleep"}, Domain: "Human Physiology", Degree: 1},
	}
	edges := []entities.Edge{
		{Source: "H", Target: "X", Strength: 0.9},
		{Source: "H", Target: "Y", Strength: 0.65},
		{Source: "H", Target: "Z", Strength: 0.4},
	}
	for i := range edges {
		edges[i] = edges[i].WithType()
	}
	g, err := aggregates.NewGraph(nodes, edges)
	require.NoError(t, err)
	return g
}

func newTestEngine(t *testing.T, embeddings ports.EmbeddingProvider, insights ports.InsightProvider) *Engine {
	t.Helper()
	c := cache.NewInMemoryCache()
	t.Cleanup(func() { _ = c.Close() })
	return NewEngine(embeddings, insights, c, ConfigFrom(config.DefaultDomainConfig()), nil, nil, nil)
}

func resultIDs(results []ScoredPaper) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func TestQueryKeywordFallback(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	opts := DefaultQueryOptions()
	opts.UseGraphStructure = false

	result, err := e.Query(context.Background(), buildTestGraph(t), "microgravity plant", opts)
	require.NoError(t, err)

	require.NotEmpty(t, result.Results)
	assert.Equal(t, "3", result.Results[0].ID)
	assert.Equal(t, []string{"3", "1", "4"}, resultIDs(result.Results))
	assert.Equal(t, 8.0, result.Results[0].RelevanceScore)

	assert.Equal(t, SearchModeKeyword, result.Metadata.SearchMode)
	assert.True(t, result.Metadata.FallbackMode)
	assert.False(t, result.Metadata.AIGenerated)
	assert.False(t, result.Metadata.ThresholdMiss)
	assert.Equal(t, 3, result.Metadata.DirectResults)
	assert.NotEmpty(t, result.Metadata.QueryID)
	assert.NotEmpty(t, result.Insights.Narrative)
}

func TestQueryEmptyGraph(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	result, err := e.Query(context.Background(), aggregates.EmptyGraph(), "microgravity", DefaultQueryOptions())
	require.NoError(t, err)

	assert.Empty(t, result.Results)
	assert.Empty(t, result.Connections)
	assert.Empty(t, result.Subgraph.Nodes)
	assert.True(t, result.Metadata.ThresholdMiss)
	assert.Contains(t, result.Insights.Narrative, "No papers matched")
}

func TestQueryNilGraph(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	result, err := e.Query(context.Background(), nil, "bone", DefaultQueryOptions())
	require.NoError(t, err)
	assert.Empty(t, result.Results)
}

func TestQueryValidation(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	graph := starGraph(t)

	tests := []struct {
		name string
		text string
		opts QueryOptions
	}{
		{"empty text", "", DefaultQueryOptions()},
		{"blank text", "   ", DefaultQueryOptions()},
		{"too many results", "bone", QueryOptions{MaxResults: 500, SemanticThreshold: 0.7}},
		{"negative results", "bone", QueryOptions{MaxResults: -1, SemanticThreshold: 0.7}},
		{"threshold above one", "bone", QueryOptions{MaxResults: 5, SemanticThreshold: 1.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Query(context.Background(), graph, tt.text, tt.opts)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func TestQueryGraphExpansion(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	result, err := e.Query(context.Background(), starGraph(t), "microgravity", DefaultQueryOptions())
	require.NoError(t, err)

	// Z sits behind an edge below the expansion threshold
	assert.Equal(t, []string{"H", "X", "Y"}, resultIDs(result.Results))
	assert.Equal(t, 1, result.Metadata.DirectResults)
	assert.Equal(t, 2, result.Metadata.ExpandedResults)
	assert.Equal(t, 3, result.Metadata.TotalResults)

	hub := result.Results[0]
	for _, r := range result.Results[1:] {
		assert.Equal(t, SourceExpanded, r.Source)
		assert.Contains(t, r.ConnectionReason, "Hub paper on microgravity")
	}
	assert.InDelta(t, hub.RelevanceScore*0.9, result.Results[1].RelevanceScore, 1e-9)
	assert.InDelta(t, hub.RelevanceScore*0.65, result.Results[2].RelevanceScore, 1e-9)

	assert.Len(t, result.Connections, 2)
	assert.Equal(t, 0.9, result.Connections[0].Strength)
	assert.Len(t, result.Subgraph.Nodes, 3)
	assert.InDelta(t, 2.0/3.0, result.Subgraph.Density, 1e-9)
}

func TestQueryExpansionKeepsFirstSource(t *testing.T) {
	nodes := []entities.Node{
		{ID: "A", Title: "Orbit", Concepts: []string{"orbit"}, Domain: "Space Biology", Degree: 1},
		{ID: "B", Title: "Orbit crew", Domain: "Human Physiology", Degree: 1},
		{ID: "N", Title: "Plant seeds", Concepts: []string{"seeds"}, Domain: "Plant Biology", Degree: 2},
	}
	edges := []entities.Edge{
		{Source: "A", Target: "N", Strength: 0.61},
		{Source: "B", Target: "N", Strength: 0.95},
	}
	for i := range edges {
		edges[i] = edges[i].WithType()
	}
	g, err := aggregates.NewGraph(nodes, edges)
	require.NoError(t, err)

	e := newTestEngine(t, nil, nil)
	result, err := e.Query(context.Background(), g, "orbit crew", DefaultQueryOptions())
	require.NoError(t, err)

	// A scores 6 and B scores 5, so A reaches N first even though B's edge is stronger
	require.Equal(t, []string{"A", "B", "N"}, resultIDs(result.Results))
	n := result.Results[2]
	assert.Equal(t, SourceExpanded, n.Source)
	assert.InDelta(t, 6*0.61, n.RelevanceScore, 1e-9)
	assert.Equal(t, `Connected to "Orbit" (61% similarity)`, n.ConnectionReason)
}

func TestQueryExpansionDisabled(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	opts := DefaultQueryOptions()
	opts.UseGraphStructure = false
	opts.IncludeConnections = false

	result, err := e.Query(context.Background(), starGraph(t), "microgravity", opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"H"}, resultIDs(result.Results))
	assert.Empty(t, result.Connections)
}

func TestQueryConnectionCap(t *testing.T) {
	cfg := ConfigFrom(config.DefaultDomainConfig())
	cfg.MaxConnections = 1
	e := NewEngine(nil, nil, nil, cfg, nil, nil, nil)

	result, err := e.Query(context.Background(), starGraph(t), "microgravity", DefaultQueryOptions())
	require.NoError(t, err)

	require.Len(t, result.Connections, 1)
	assert.Equal(t, "X", result.Connections[0].Other("H"))
}

func TestQueryMaxResults(t *testing.T) {
	e := newTestEngine(t, nil, nil)
	opts := DefaultQueryOptions()
	opts.MaxResults = 2

	result, err := e.Query(context.Background(), starGraph(t), "microgravity", opts)
	require.NoError(t, err)
	assert.Len(t, result.Results, 2)
}

func TestQueryConfiguredMaxResults(t *testing.T) {
	domainCfg := config.DefaultDomainConfig()
	domainCfg.DefaultMaxResults = 1
	cfg := ConfigFrom(domainCfg)
	require.Equal(t, 1, cfg.DefaultMaxResults)
	e := NewEngine(nil, nil, nil, cfg, nil, nil, nil)

	tests := []struct {
		name       string
		maxResults int
		want       int
	}{
		{name: "zero uses configured default", maxResults: 0, want: 1},
		{name: "explicit value wins", maxResults: 3, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultQueryOptions()
			opts.MaxResults = tt.maxResults

			result, err := e.Query(context.Background(), starGraph(t), "microgravity", opts)
			require.NoError(t, err)
			assert.Len(t, result.Results, tt.want)
		})
	}

	// an unset default falls back to ten
	e = NewEngine(nil, nil, nil, Config{}, nil, nil, nil)
	assert.Equal(t, defaultMaxResults, e.config.DefaultMaxResults)
}

func TestQuerySemanticSearch(t *testing.T) {
	embedder := &keywordEmbedder{}
	e := newTestEngine(t, embedder, nil)
	opts := DefaultQueryOptions()
	opts.UseGraphStructure = false

	result, err := e.Query(context.Background(), buildTestGraph(t), "plant", opts)
	require.NoError(t, err)

	assert.Equal(t, SearchModeSemantic, result.Metadata.SearchMode)
	assert.ElementsMatch(t, []string{"3", "4"}, resultIDs(result.Results))
	assert.Equal(t, 2, result.Metadata.StrongMatches)
	assert.Empty(t, result.Metadata.Degraded)
	// no insight provider
	assert.True(t, result.Metadata.FallbackMode)

	// paper embeddings are served from the cache on the second query
	first := embedder.calls.Load()
	assert.Equal(t, int32(6), first)
	_, err = e.Query(context.Background(), buildTestGraph(t), "bone", opts)
	require.NoError(t, err)
	assert.Equal(t, first+1, embedder.calls.Load())

	// Reset drops cached embeddings
	require.NoError(t, e.Reset(context.Background()))
	_, err = e.Query(context.Background(), buildTestGraph(t), "bone", opts)
	require.NoError(t, err)
	assert.Equal(t, first+1+6, embedder.calls.Load())
}

func TestQuerySemanticThresholdMiss(t *testing.T) {
	e := newTestEngine(t, &keywordEmbedder{}, nil)

	result, err := e.Query(context.Background(), buildTestGraph(t), "astronomy", DefaultQueryOptions())
	require.NoError(t, err)

	assert.Equal(t, SearchModeSemantic, result.Metadata.SearchMode)
	assert.True(t, result.Metadata.ThresholdMiss)
	assert.Empty(t, result.Results)
}

func TestQueryEmbeddingFailureDegrades(t *testing.T) {
	embedder := &keywordEmbedder{err: errors.New("provider down")}
	e := newTestEngine(t, embedder, nil)
	opts := DefaultQueryOptions()
	opts.UseGraphStructure = false

	result, err := e.Query(context.Background(), buildTestGraph(t), "microgravity plant", opts)
	require.NoError(t, err)

	assert.Equal(t, SearchModeKeyword, result.Metadata.SearchMode)
	assert.True(t, result.Metadata.FallbackMode)
	require.Len(t, result.Metadata.Degraded, 1)
	assert.Contains(t, result.Metadata.Degraded[0], "provider down")
	assert.Equal(t, "3", result.Results[0].ID)
}

func TestQueryInsights(t *testing.T) {
	t.Run("provider narrative", func(t *testing.T) {
		insights := &fakeInsights{narrative: "  Microgravity research converges on bone.  "}
		e := newTestEngine(t, &keywordEmbedder{}, insights)

		result, err := e.Query(context.Background(), buildTestGraph(t), "bone", DefaultQueryOptions())
		require.NoError(t, err)

		assert.True(t, result.Insights.AIGenerated)
		assert.Equal(t, "Microgravity research converges on bone.", result.Insights.Narrative)
		assert.False(t, result.Metadata.FallbackMode)
		require.NotEmpty(t, insights.received)
		for _, s := range insights.received {
			assert.LessOrEqual(t, len(s.Concepts), 3)
		}
	})

	t.Run("provider failure falls back to local narrative", func(t *testing.T) {
		e := newTestEngine(t, &keywordEmbedder{}, &fakeInsights{err: errors.New("quota exceeded")})

		result, err := e.Query(context.Background(), buildTestGraph(t), "bone", DefaultQueryOptions())
		require.NoError(t, err)

		assert.False(t, result.Insights.AIGenerated)
		assert.True(t, result.Metadata.FallbackMode)
		assert.Contains(t, result.Insights.Narrative, "Found")
		assert.NotEmpty(t, result.Metadata.Degraded)
	})

	t.Run("empty narrative counts as failure", func(t *testing.T) {
		e := newTestEngine(t, nil, &fakeInsights{narrative: "   "})

		result, err := e.Query(context.Background(), starGraph(t), "microgravity", DefaultQueryOptions())
		require.NoError(t, err)
		assert.False(t, result.Insights.AIGenerated)
	})
}

func TestLocalInsights(t *testing.T) {
	e := newTestEngine(t, nil, nil)

	node := func(id, domain string, degree int, concepts ...string) ScoredPaper {
		return ScoredPaper{Node: entities.Node{ID: id, Title: "Paper " + id, Domain: domain, Degree: degree, Concepts: concepts}}
	}

	tests := []struct {
		name         string
		results      []ScoredPaper
		wantMaturity string
		wantTopTheme Theme
		wantDomain   string
	}{
		{
			name: "mature area",
			results: []ScoredPaper{
				node("1", "Bone Research", 7, "bone", "microgravity"),
				node("2", "Bone Research", 6, "bone"),
				node("3", "Plant Biology", 8, "Bone"),
			},
			wantMaturity: "mature",
			wantTopTheme: Theme{Topic: "bone", Frequency: 3, Relevance: "high"},
			wantDomain:   "Bone Research",
		},
		{
			name: "niche area",
			results: []ScoredPaper{
				node("1", "Plant Biology", 1, "roots"),
				node("2", "Plant Biology", 0, "roots"),
			},
			wantMaturity: "niche",
			wantTopTheme: Theme{Topic: "roots", Frequency: 2, Relevance: "medium"},
			wantDomain:   "Plant Biology",
		},
		{
			name: "developing area",
			results: []ScoredPaper{
				node("1", "Human Physiology", 3, "cardiac"),
			},
			wantMaturity: "developing",
			wantTopTheme: Theme{Topic: "cardiac", Frequency: 1, Relevance: "medium"},
			wantDomain:   "Human Physiology",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			insights := e.localInsights("space", tt.results)

			assert.Equal(t, tt.wantMaturity, insights.Maturity)
			require.NotEmpty(t, insights.Themes)
			assert.Equal(t, tt.wantTopTheme, insights.Themes[0])
			require.NotEmpty(t, insights.Domains)
			assert.Equal(t, tt.wantDomain, insights.Domains[0].Domain)
			assert.Contains(t, insights.Narrative, tt.wantMaturity[:4])
			assert.False(t, insights.AIGenerated)
		})
	}
}

func TestKeywordScore(t *testing.T) {
	node := entities.Node{
		ID:       "1",
		Title:    "Plant growth under microgravity conditions",
		Concepts: []string{"microgravity", "plant growth"},
		Domain:   "Plant Biology",
	}

	tests := []struct {
		name  string
		terms []string
		want  float64
	}{
		{"two terms with concept hit", []string{"microgravity", "plant"}, 8},
		{"term only in title", []string{"conditions"}, 3},
		{"no match", []string{"cardiac"}, 0},
		{"repeated query term counts twice", []string{"plant", "plant"}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KeywordScore(tt.terms, node))
		})
	}
}
