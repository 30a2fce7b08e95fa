package incremental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranav100000/consilium-codegraph/internal/harness"
	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

func TestResolveCallsDirectQualified(t *testing.T) {
	callee := ir.Symbol{ID: "sym-callee", FQN: "util.Helper", Kind: ir.KindFunction, Name: "Helper"}
	caller := ir.Symbol{ID: "sym-caller", FQN: "main.Run", Kind: ir.KindFunction, Name: "Run"}

	r := NewCallResolver(nil)
	r.BuildIndex("c1", []ir.Symbol{callee, caller}, nil)

	edges, stats := r.ResolveCalls([]harness.UnresolvedCall{
		{CommitID: "c1", CallerSymbol: caller.ID, CalleeName: "Helper", Qualifier: "util"},
	})
	require.Len(t, edges, 1)
	assert.Equal(t, "sym-callee", edges[0].Dst)
	assert.Equal(t, 1, stats.ResolvedDirect)
}

func TestResolveCallsUniqueBareName(t *testing.T) {
	callee := ir.Symbol{ID: "sym-callee", FQN: "pkg.Widget.Render", Kind: ir.KindMethod, Name: "Widget.Render"}
	caller := ir.Symbol{ID: "sym-caller", FQN: "main.Run", Kind: ir.KindFunction, Name: "Run"}

	r := NewCallResolver(nil)
	r.BuildIndex("c1", []ir.Symbol{callee, caller}, nil)

	edges, stats := r.ResolveCalls([]harness.UnresolvedCall{
		{CommitID: "c1", CallerSymbol: caller.ID, CalleeName: "Render", Qualifier: "w"},
	})
	require.Len(t, edges, 1)
	assert.Equal(t, "sym-callee", edges[0].Dst)
	assert.Equal(t, 1, stats.ResolvedByName)
}

func TestResolveCallsAmbiguousFallsBackToStub(t *testing.T) {
	a := ir.Symbol{ID: "sym-a", FQN: "pkg.A.Render", Kind: ir.KindMethod, Name: "A.Render"}
	b := ir.Symbol{ID: "sym-b", FQN: "pkg.B.Render", Kind: ir.KindMethod, Name: "B.Render"}
	caller := ir.Symbol{ID: "sym-caller", FQN: "main.Run", Kind: ir.KindFunction, Name: "Run"}

	r := NewCallResolver(nil)
	r.BuildIndex("c1", []ir.Symbol{a, b, caller}, nil)

	edges, stats := r.ResolveCalls([]harness.UnresolvedCall{
		{CommitID: "c1", CallerSymbol: caller.ID, CalleeName: "Render", Qualifier: "x"},
	})
	require.Len(t, edges, 1)
	assert.Equal(t, 1, stats.ResolvedStub)
	assert.NotEqual(t, "sym-a", edges[0].Dst)
	assert.NotEqual(t, "sym-b", edges[0].Dst)
	assert.Len(t, r.StubFunctions(), 1)
}

func TestResolveCallsAmbiguousResolvedViaInterfaceDispatch(t *testing.T) {
	iface := ir.Symbol{ID: "sym-iface", FQN: "pkg.Renderer", Kind: ir.KindInterface}
	a := ir.Symbol{ID: "sym-a", FQN: "pkg.A.Render", Kind: ir.KindMethod, Name: "A.Render"}
	b := ir.Symbol{ID: "sym-b", FQN: "pkg.B.Render", Kind: ir.KindMethod, Name: "B.Render"}
	caller := ir.Symbol{ID: "sym-caller", FQN: "main.Run", Kind: ir.KindFunction, Name: "Run"}

	implementsEdges := []ir.Edge{
		{Type: ir.EdgeImplements, Src: "sym-a-type", Dst: "sym-iface"},
	}
	aType := ir.Symbol{ID: "sym-a-type", FQN: "pkg.A", Kind: ir.KindClass}

	r := NewCallResolver(nil)
	r.BuildIndex("c1", []ir.Symbol{iface, a, b, caller, aType}, implementsEdges)

	edges, stats := r.ResolveCalls([]harness.UnresolvedCall{
		{CommitID: "c1", CallerSymbol: caller.ID, CalleeName: "Render", Qualifier: "x"},
	})
	require.Len(t, edges, 1)
	assert.Equal(t, "sym-a", edges[0].Dst)
	assert.Equal(t, 1, stats.ResolvedByName)
}

func TestResolveCallsUnknownCalleeGetsStub(t *testing.T) {
	caller := ir.Symbol{ID: "sym-caller", FQN: "main.Run", Kind: ir.KindFunction, Name: "Run"}
	r := NewCallResolver(nil)
	r.BuildIndex("c1", []ir.Symbol{caller}, nil)

	edges, stats := r.ResolveCalls([]harness.UnresolvedCall{
		{CommitID: "c1", CallerSymbol: caller.ID, CalleeName: "Unknown", Qualifier: "ext"},
	})
	require.Len(t, edges, 1)
	assert.Equal(t, 1, stats.ResolvedStub)
	stubs := r.StubFunctions()
	require.Len(t, stubs, 1)
	assert.Equal(t, edges[0].Dst, stubs[0].ID)
}
