package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"papergraph/domain/core/aggregates"
	"papergraph/domain/core/entities"
)

func TestFindPathsChain(t *testing.T) {
	g := chainGraph(t)
	pf := NewPathFinder(nil)

	paths := pf.FindPaths(g, "A", "D", 3)
	require.Len(t, paths, 1)
	assert.Equal(t, []string{"A", "B", "C", "D"}, paths[0].NodeIDs())
	assert.Equal(t, 3, paths[0].Hops)
	assert.InDelta(t, 0.8+0.6+0.9, paths[0].TotalStrength, 1e-9)
	assert.Nil(t, paths[0].Steps[0].Edge)
	assert.True(t, paths[0].Steps[1].Edge.ConnectsNodes("A", "B"))

	assert.Empty(t, pf.FindPaths(g, "A", "D", 2))
}

func TestFindPathsUnknownOrTrivial(t *testing.T) {
	g := chainGraph(t)
	pf := NewPathFinder(nil)

	assert.Empty(t, pf.FindPaths(g, "A", "missing", 3))
	assert.Empty(t, pf.FindPaths(g, "missing", "A", 3))
	assert.Empty(t, pf.FindPaths(g, "A", "A", 3))
	assert.Empty(t, pf.FindPaths(nil, "A", "B", 3))
}

func TestFindPathsRespectsBoundsAndRanking(t *testing.T) {
	// Diamond with a tail: S–X–T, S–Y–T, S–T, X–Y
	nodes := []entities.Node{{ID: "S"}, {ID: "X"}, {ID: "Y"}, {ID: "T"}}
	edges := []entities.Edge{
		{Source: "S", Target: "X", Strength: 0.9},
		{Source: "X", Target: "T", Strength: 0.9},
		{Source: "S", Target: "Y", Strength: 0.3},
		{Source: "Y", Target: "T", Strength: 0.3},
		{Source: "S", Target: "T", Strength: 0.5},
		{Source: "X", Target: "Y", Strength: 0.4},
	}
	g, err := aggregates.NewGraph(nodes, edges)
	require.NoError(t, err)

	tests := []struct {
		name    string
		maxHops int
		want    int
	}{
		{name: "direct only", maxHops: 1, want: 1},
		{name: "two hops", maxHops: 2, want: 3},
		{name: "three hops", maxHops: 3, want: 5},
		{name: "bound clamps to node count", maxHops: 10, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths := NewPathFinder(&PathFinderConfig{DefaultMaxHops: 3, MaxResults: 10, Decay: 0.7}).
				FindPaths(g, "S", "T", tt.maxHops)
			require.Len(t, paths, tt.want)

			for i, p := range paths {
				ids := p.NodeIDs()
				assert.Equal(t, "S", ids[0])
				assert.Equal(t, "T", ids[len(ids)-1])
				assert.LessOrEqual(t, len(ids)-1, tt.maxHops)

				unique := make(map[string]bool)
				for _, id := range ids {
					assert.False(t, unique[id], "node %s repeated", id)
					unique[id] = true
				}
				if i > 0 {
					assert.GreaterOrEqual(t, paths[i-1].TotalStrength, p.TotalStrength)
				}
			}
		})
	}
}

func TestFindPathsTruncatesToMaxResults(t *testing.T) {
	nodes := []entities.Node{{ID: "S"}, {ID: "T"}}
	edges := []entities.Edge{}
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		nodes = append(nodes, entities.Node{ID: id})
		edges = append(edges,
			entities.Edge{Source: "S", Target: id, Strength: 0.5},
			entities.Edge{Source: id, Target: "T", Strength: 0.5},
		)
	}
	g, err := aggregates.NewGraph(nodes, edges)
	require.NoError(t, err)

	paths := NewPathFinder(nil).FindPaths(g, "S", "T", 2)
	assert.Len(t, paths, 5)
}

func TestFindIndirect(t *testing.T) {
	g := chainGraph(t)
	pf := NewPathFinder(nil)

	results := pf.FindIndirect(g, "A", 2)
	require.Len(t, results, 1)
	assert.Equal(t, "C", results[0].Node.ID)
	assert.Equal(t, 2, results[0].Hops)
	assert.Equal(t, []string{"B"}, results[0].Via)
	assert.InDelta(t, 1.0*0.8*0.7*0.6*0.7, results[0].Strength, 1e-9)

	three := pf.FindIndirect(g, "A", 3)
	require.Len(t, three, 1)
	assert.Equal(t, "D", three[0].Node.ID)
	assert.Equal(t, []string{"B", "C"}, three[0].Via)

	direct := pf.FindIndirect(g, "B", 1)
	assert.Len(t, direct, 2)
	assert.Equal(t, "A", direct[0].Node.ID, "stronger neighbour first")

	assert.Empty(t, pf.FindIndirect(g, "missing", 2))
}

func TestFindIndirectVisitsEachNodeOnce(t *testing.T) {
	// Triangle S–X, S–Y, X–Y plus X–Z, Y–Z: Z is reachable twice at depth 2
	nodes := []entities.Node{{ID: "S"}, {ID: "X"}, {ID: "Y"}, {ID: "Z"}}
	edges := []entities.Edge{
		{Source: "S", Target: "X", Strength: 0.9},
		{Source: "S", Target: "Y", Strength: 0.8},
		{Source: "X", Target: "Y", Strength: 0.7},
		{Source: "X", Target: "Z", Strength: 0.6},
		{Source: "Y", Target: "Z", Strength: 0.9},
	}
	g, err := aggregates.NewGraph(nodes, edges)
	require.NoError(t, err)

	results := NewPathFinder(nil).FindIndirect(g, "S", 2)
	require.Len(t, results, 1)
	assert.Equal(t, "Z", results[0].Node.ID)
	assert.Equal(t, []string{"X"}, results[0].Via, "first discovery wins")
}
