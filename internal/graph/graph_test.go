package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

func edge(src, dst string, typ ir.EdgeType, res ir.Resolution) ir.Edge {
	return ir.Edge{Src: src, Dst: dst, Type: typ, Resolution: res}
}

func TestCalleesBFSRespectsDepthAndDedup(t *testing.T) {
	g := Build([]ir.Edge{
		edge("a", "b", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("a", "c", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("b", "d", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("c", "d", ir.EdgeCalls, ir.ResolutionSyntactic),
	})
	depth1 := g.Callees("a", ir.EdgeCalls, 1)
	require.Len(t, depth1, 2)
	assert.Equal(t, "b", depth1[0].ID)
	assert.Equal(t, "c", depth1[1].ID)

	all := g.Callees("a", ir.EdgeCalls, 0)
	require.Len(t, all, 3) // b, c, d (d reached once despite two paths)
}

func TestCallersIsReverseOfCallees(t *testing.T) {
	g := Build([]ir.Edge{
		edge("a", "b", ir.EdgeCalls, ir.ResolutionSyntactic),
	})
	callers := g.Callers("b", ir.EdgeCalls, 0)
	require.Len(t, callers, 1)
	assert.Equal(t, "a", callers[0].ID)
}

func TestSemanticEdgeWinsOverSyntacticDuplicate(t *testing.T) {
	g := Build([]ir.Edge{
		edge("a", "b", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("a", "b", ir.EdgeCalls, ir.ResolutionSemantic),
	})
	assert.Len(t, g.out["a"], 1)
	assert.Equal(t, ir.ResolutionSemantic, g.out["a"][0].Resolution)
}

func TestCyclesThroughFindsSimpleCycle(t *testing.T) {
	g := Build([]ir.Edge{
		edge("a", "b", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("b", "c", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("c", "a", ir.EdgeCalls, ir.ResolutionSyntactic),
	})
	cycles := g.CyclesThrough("a", ir.EdgeCalls, 5)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycles[0])
}

func TestCyclesThroughFindsSelfLoop(t *testing.T) {
	g := Build([]ir.Edge{
		edge("a", "a", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("a", "b", ir.EdgeCalls, ir.ResolutionSyntactic),
	})
	cycles := g.CyclesThrough("a", ir.EdgeCalls, 5)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"a"}, cycles[0])
}

func TestCyclesThroughNoCycleReturnsEmpty(t *testing.T) {
	g := Build([]ir.Edge{
		edge("a", "b", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("b", "c", ir.EdgeCalls, ir.ResolutionSyntactic),
	})
	assert.Empty(t, g.CyclesThrough("a", ir.EdgeCalls, 5))
}

func TestShortestPathBidirectional(t *testing.T) {
	g := Build([]ir.Edge{
		edge("a", "b", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("b", "c", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("c", "d", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("a", "e", ir.EdgeCalls, ir.ResolutionSyntactic),
		edge("e", "d", ir.EdgeCalls, ir.ResolutionSyntactic),
	})
	path, length, ok := g.ShortestPath("a", "d", []ir.EdgeType{ir.EdgeCalls})
	require.True(t, ok)
	assert.Equal(t, 2, length)
	assert.Equal(t, "a", path[0])
	assert.Equal(t, "d", path[len(path)-1])
	assert.Len(t, path, 3)
}

func TestShortestPathNoPath(t *testing.T) {
	g := Build([]ir.Edge{
		edge("a", "b", ir.EdgeCalls, ir.ResolutionSyntactic),
	})
	_, _, ok := g.ShortestPath("a", "z", []ir.EdgeType{ir.EdgeCalls})
	assert.False(t, ok)
}

func TestShortestPathSameNode(t *testing.T) {
	g := Build(nil)
	path, length, ok := g.ShortestPath("a", "a", nil)
	require.True(t, ok)
	assert.Equal(t, 0, length)
	assert.Equal(t, []string{"a"}, path)
}
