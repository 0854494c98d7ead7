package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
)

func newTestPaper(t *testing.T, id, title string, concepts []string, domain string) entities.Paper {
	t.Helper()
	p, err := entities.NewPaper(id, title, "", concepts, domain, "")
	require.NoError(t, err)
	return p
}

// chainGraph builds A–B (0.8), B–C (0.6), C–D (0.9)
func chainGraph(t *testing.T) *aggregates.Graph {
	t.Helper()
	nodes := []entities.Node{
		{ID: "A", Title: "Paper A", Domain: "Bone Research"},
		{ID: "B", Title: "Paper B", Domain: "Bone Research"},
		{ID: "C", Title: "Paper C", Domain: "Plant Biology"},
		{ID: "D", Title: "Paper D", Domain: "Plant Biology"},
	}
	edges := []entities.Edge{
		{Source: "A", Target: "B", Strength: 0.8},
		{Source: "B", Target: "C", Strength: 0.6},
		{Source: "C", Target: "D", Strength: 0.9},
	}
	for i := range edges {
		edges[i] = edges[i].WithType()
	}
	g, err := aggregates.NewGraph(nodes, edges)
	require.NoError(t, err)
	return g
}

func samplePapers(t *testing.T) []entities.Paper {
	t.Helper()
	return []entities.Paper{
		newTestPaper(t, "1", "Microgravity effects on bone density",
			[]string{"microgravity", "bone", "density"}, "Bone Research"),
		newTestPaper(t, "2", "Space radiation effects on bone cells",
			[]string{"radiation", "bone", "cells"}, "Bone Research"),
		newTestPaper(t, "3", "Plant growth under microgravity conditions",
			[]string{"microgravity", "plant growth"}, "Plant Biology"),
		newTestPaper(t, "4", "Arabidopsis root gravitropism in spaceflight",
			[]string{"arabidopsis", "root", "gravitropism", "plant growth"}, "Plant Biology"),
		newTestPaper(t, "5", "Cardiac output in long duration missions",
			[]string{"cardiac", "cardiovascular"}, "Human Physiology"),
	}
}
