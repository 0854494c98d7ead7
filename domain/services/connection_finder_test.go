package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papergraph/domain/config"
	"papergraph/domain/core/entities"
)

func TestFindConnectionsBoneScenario(t *testing.T) {
	papers := samplePapers(t)[:2]
	finder := NewDefaultConnectionFinder(&ConnectionFinderConfig{Threshold: 0.2, MaxConnections: 400}, nil)

	edges := finder.FindConnections(papers)

	require.Len(t, edges, 1)
	edge := edges[0]
	assert.True(t, edge.ConnectsNodes("1", "2"))
	assert.Equal(t, []string{"bone"}, edge.SharedConcepts)
	assert.Contains(t, []entities.EdgeType{entities.EdgeTypeWeak, entities.EdgeTypeMedium}, edge.Type)
	assert.Equal(t, entities.ClassifyStrength(edge.Strength), edge.Type)
}

func TestFindConnectionsNeverEmitsSelfLoopsOrDuplicates(t *testing.T) {
	papers := samplePapers(t)
	finder := NewDefaultConnectionFinder(&ConnectionFinderConfig{Threshold: 0, MaxConnections: 1000}, nil)

	edges := finder.FindConnections(papers)

	seen := make(map[[2]string]bool)
	for _, e := range edges {
		assert.NotEqual(t, e.Source, e.Target)
		key := pairKey(e.Source, e.Target)
		assert.False(t, seen[key], "duplicate pair %v", key)
		seen[key] = true
	}
}

func TestFindConnectionsSortedAndTruncated(t *testing.T) {
	papers := make([]entities.Paper, 0, 10)
	for i := 0; i < 10; i++ {
		papers = append(papers, newTestPaper(t, fmt.Sprintf("p%d", i),
			fmt.Sprintf("Bone study number %d", i), []string{"bone", fmt.Sprintf("topic%d", i%3)}, "Bone Research"))
	}

	finder := NewDefaultConnectionFinder(&ConnectionFinderConfig{Threshold: 0.25, MaxConnections: 7}, nil)
	edges := finder.FindConnections(papers)

	require.Len(t, edges, 7)
	for i := 1; i < len(edges); i++ {
		assert.GreaterOrEqual(t, edges[i-1].Strength, edges[i].Strength)
	}
}

func TestFindConnectionsThresholdIsExclusive(t *testing.T) {
	papers := []entities.Paper{
		{ID: "a", Title: "Alpha", Domain: "Same"},
		{ID: "b", Title: "Beta", Domain: "Same"},
	}
	// Strength is exactly the domain bonus
	finder := NewDefaultConnectionFinder(&ConnectionFinderConfig{Threshold: 0.3, MaxConnections: 10}, nil)
	assert.Empty(t, finder.FindConnections(papers))

	finder = NewDefaultConnectionFinder(&ConnectionFinderConfig{Threshold: 0.29, MaxConnections: 10}, nil)
	assert.Len(t, finder.FindConnections(papers), 1)
}

func TestFindConnectionsEmptyInput(t *testing.T) {
	finder := NewDefaultConnectionFinder(nil, nil)
	assert.Empty(t, finder.FindConnections(nil))
	assert.Empty(t, finder.FindConnections(samplePapers(t)[:1]))
}

func TestFindConnectionsDefaultsIgnoreDomainBonusAlone(t *testing.T) {
	titles := []string{
		"Cardiac output during long missions",
		"Arabidopsis root gravitropism aboard orbiting stations",
		"Bacterial biofilm formation on spacecraft surfaces",
		"Sleep quality among polar expedition crews",
		"Retinal changes after prolonged weightlessness",
	}

	// heuristic analysis labels every paper with the Unknown domain
	extractor := NewHeuristicExtractor(nil)
	papers := make([]entities.Paper, 0, len(titles))
	for i, title := range titles {
		paper := newTestPaper(t, fmt.Sprintf("p%d", i), title, nil, "")
		papers = append(papers, extractor.Extract(title).ApplyTo(paper))
		require.Equal(t, entities.UnknownDomain, papers[i].Domain)
	}

	cfg := config.DefaultDomainConfig()
	require.GreaterOrEqual(t, cfg.SimilarityThreshold, cfg.DomainBonus)

	finder := NewDefaultConnectionFinder(ConnectionFinderConfigFrom(cfg), nil)
	assert.Empty(t, finder.FindConnections(papers))
	assert.Empty(t, NewDefaultConnectionFinder(nil, nil).FindConnections(papers))

	result, err := NewGraphBuilder(nil, nil, nil).Build(papers, finder.FindConnections(papers))
	require.NoError(t, err)
	assert.Len(t, result.Clusters, len(titles))
}
