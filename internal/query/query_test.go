package query

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
	"github.com/pranav100000/consilium-codegraph/internal/store"
)

func openTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	dir := t.TempDir()
	s, err := store.Open(store.Config{DataDir: filepath.Join(dir, "data")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func seedCallGraph(t *testing.T, s *store.Store) {
	t.Helper()
	ctx := context.Background()
	symbols := []ir.Symbol{
		{ID: "sym-main", CommitID: "c1", Kind: ir.KindFunction, Name: "main", FQN: "main.main", Language: "go", FilePath: "main.go"},
		{ID: "sym-run", CommitID: "c1", Kind: ir.KindFunction, Name: "Run", FQN: "pkg.Run", Language: "go", FilePath: "run.go"},
		{ID: "sym-helper", CommitID: "c1", Kind: ir.KindFunction, Name: "Helper", FQN: "pkg.Helper", Language: "go", FilePath: "helper.go"},
	}
	edges := []ir.Edge{
		{CommitID: "c1", Type: ir.EdgeCalls, Src: "sym-main", Dst: "sym-run", Resolution: ir.ResolutionSyntactic},
		{CommitID: "c1", Type: ir.EdgeCalls, Src: "sym-run", Dst: "sym-helper", Resolution: ir.ResolutionSyntactic},
	}
	_, err := s.Write(ctx, store.WriteBatch{
		Commit:  ir.CommitSnapshot{CommitID: "c1", Timestamp: 1},
		Files:   []ir.File{{CommitID: "c1", Path: "main.go", ContentHash: "h1", Language: "go"}},
		Symbols: symbols,
		Edges:   edges,
	})
	require.NoError(t, err)
}

func TestEngineGetSymbolAndCallees(t *testing.T) {
	e, s := openTestEngine(t)
	seedCallGraph(t, s)
	ctx := context.Background()

	sym, ok, err := e.GetSymbol(ctx, "c1", "pkg.Run")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sym-run", sym.ID)

	callees, err := e.Callees(ctx, "c1", "sym-main", 0)
	require.NoError(t, err)
	require.Len(t, callees, 2)
	assert.Equal(t, "pkg.Run", callees[0].FQN)
	assert.Equal(t, "pkg.Helper", callees[1].FQN)
}

func TestEngineCallersAndPath(t *testing.T) {
	e, s := openTestEngine(t)
	seedCallGraph(t, s)
	ctx := context.Background()

	callers, err := e.Callers(ctx, "c1", "sym-helper", 0)
	require.NoError(t, err)
	require.Len(t, callers, 2)

	path, ok, err := e.Path(ctx, "c1", "sym-main", "sym-helper", []ir.EdgeType{ir.EdgeCalls})
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, path, 3)
	assert.Equal(t, "sym-main", path[0].ID)
	assert.Equal(t, "sym-helper", path[2].ID)
}

func TestEngineCyclesThrough(t *testing.T) {
	e, s := openTestEngine(t)
	ctx := context.Background()
	symbols := []ir.Symbol{
		{ID: "sym-a", CommitID: "c1", Kind: ir.KindFunction, Name: "A", FQN: "pkg.A", Language: "go", FilePath: "a.go"},
		{ID: "sym-b", CommitID: "c1", Kind: ir.KindFunction, Name: "B", FQN: "pkg.B", Language: "go", FilePath: "b.go"},
	}
	edges := []ir.Edge{
		{CommitID: "c1", Type: ir.EdgeCalls, Src: "sym-a", Dst: "sym-b", Resolution: ir.ResolutionSyntactic},
		{CommitID: "c1", Type: ir.EdgeCalls, Src: "sym-b", Dst: "sym-a", Resolution: ir.ResolutionSyntactic},
	}
	_, err := s.Write(ctx, store.WriteBatch{Symbols: symbols, Edges: edges})
	require.NoError(t, err)

	cycles, err := e.CyclesThrough(ctx, "c1", "sym-a", 5)
	require.NoError(t, err)
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"sym-a", "sym-b", "sym-a"}, []string{cycles[0][0].ID, cycles[0][1].ID, cycles[0][2].ID})
}

func TestEngineStats(t *testing.T) {
	e, s := openTestEngine(t)
	seedCallGraph(t, s)
	st, err := e.Stats(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 3, st.Symbols)
	assert.Equal(t, 2, st.Edges)
}
