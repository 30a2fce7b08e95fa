package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(Config{DataDir: filepath.Join(dir, "data")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestWriteAndReadSymbols(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sym := ir.Symbol{
		ID:        "repo://c1/a.go#sym(go:pkg.Foo:1)",
		CommitID:  "c1",
		Kind:      ir.KindFunction,
		Name:      "Foo",
		FQN:       "pkg.Foo",
		Language:  "go",
		FilePath:  "a.go",
		SpanStart: ir.Position{Line: 1, Col: 1},
		SpanEnd:   ir.Position{Line: 3, Col: 1},
	}
	mutated, err := s.Write(ctx, WriteBatch{
		Commit:  ir.CommitSnapshot{CommitID: "c1", Timestamp: 100},
		Files:   []ir.File{{CommitID: "c1", Path: "a.go", ContentHash: "h1", Language: "go"}},
		Symbols: []ir.Symbol{sym},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, mutated)

	got, ok, err := s.GetSymbol(ctx, "c1", sym.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Foo", got.Name)

	found, err := s.FindSymbols(ctx, "c1", "Foo", 10)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	inFile, err := s.SymbolsInFile(ctx, "c1", "a.go")
	require.NoError(t, err)
	assert.Len(t, inFile, 1)

	hash, ok, err := s.FileContentHash(ctx, "c1", "a.go")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "h1", hash)
}

func TestDeleteEntitiesForFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sym := ir.Symbol{ID: "sym1", CommitID: "c1", Kind: ir.KindFunction, Name: "Foo", FQN: "pkg.Foo", Language: "go", FilePath: "a.go"}
	_, err := s.Write(ctx, WriteBatch{
		Files:   []ir.File{{CommitID: "c1", Path: "a.go", ContentHash: "h1", Language: "go"}},
		Symbols: []ir.Symbol{sym},
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteEntitiesForFile(ctx, "c1", "a.go"))

	_, ok, err := s.GetSymbol(ctx, "c1", "sym1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProjectMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, ok, err := s.GetLastIndexedSHA(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetLastIndexedSHA(ctx, "deadbeef"))
	sha, ok, err := s.GetLastIndexedSHA(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "deadbeef", sha)
}

func TestWriteIsIdempotentOnReplay(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	batch := WriteBatch{
		Commit: ir.CommitSnapshot{CommitID: "c1", Timestamp: 100},
		Files:  []ir.File{{CommitID: "c1", Path: "a.go", ContentHash: "h1", Language: "go"}},
		Symbols: []ir.Symbol{
			{ID: "sym1", CommitID: "c1", Kind: ir.KindFunction, Name: "Foo", FQN: "pkg.Foo", Language: "go", FilePath: "a.go"},
		},
		Edges: []ir.Edge{
			{CommitID: "c1", Type: ir.EdgeCalls, Src: "sym1", Dst: "sym1", Resolution: ir.ResolutionSyntactic},
		},
		Occurrences: []ir.Occurrence{
			{CommitID: "c1", FilePath: "a.go", SymbolID: "sym1", Role: ir.RoleDefinition, Start: ir.Position{Line: 1, Col: 1}, End: ir.Position{Line: 1, Col: 4}, Token: "Foo"},
		},
	}

	mutated, err := s.Write(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 3, mutated) // 1 symbol + 1 edge + 1 occurrence

	occBefore, err := s.db.QueryContext(ctx, `SELECT COUNT(*) FROM occurrences WHERE commit_id = 'c1'`)
	require.NoError(t, err)
	var countBefore int
	require.True(t, occBefore.Next())
	require.NoError(t, occBefore.Scan(&countBefore))
	occBefore.Close()
	assert.Equal(t, 1, countBefore)

	mutated, err = s.Write(ctx, batch)
	require.NoError(t, err)
	assert.Equal(t, 0, mutated, "replaying an unchanged batch should report zero mutations")

	occAfter, err := s.db.QueryContext(ctx, `SELECT COUNT(*) FROM occurrences WHERE commit_id = 'c1'`)
	require.NoError(t, err)
	var countAfter int
	require.True(t, occAfter.Next())
	require.NoError(t, occAfter.Scan(&countAfter))
	occAfter.Close()
	assert.Equal(t, countBefore, countAfter, "re-scanning the same commit must not duplicate occurrence rows")
}

func TestSearchText(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Write(ctx, WriteBatch{
		Symbols: []ir.Symbol{{ID: "sym1", CommitID: "c1", Kind: ir.KindFunction, Name: "ParseConfig", FQN: "pkg.ParseConfig", Language: "go", FilePath: "a.go"}},
	})
	require.NoError(t, err)

	hits, err := s.SearchText(ctx, "c1", "ParseConfig", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "sym1", hits[0].SymbolID)
}
