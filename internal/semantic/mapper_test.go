package semantic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

func TestMapperApplyJoinsByFileAndFQN(t *testing.T) {
	known := []ir.Symbol{
		{ID: "sym-caller", FilePath: "a.go", FQN: "pkg.Caller"},
		{ID: "sym-callee", FilePath: "b.go", FQN: "pkg.Callee"},
	}
	artifact := Artifact{
		Indexer: "goindexer",
		Relationships: []ArtifactRelation{
			{Type: "CALLS", SrcFile: "a.go", SrcFQN: "pkg.Caller", DstFile: "b.go", DstFQN: "pkg.Callee"},
			{Type: "CALLS", SrcFile: "a.go", SrcFQN: "pkg.Caller", DstFile: "missing.go", DstFQN: "pkg.Ghost"},
		},
	}
	m := NewMapper(nil)
	edges := m.Apply("c1", artifact, known)
	require.Len(t, edges, 1)
	assert.Equal(t, "sym-caller", edges[0].Src)
	assert.Equal(t, "sym-callee", edges[0].Dst)
	assert.Equal(t, ir.ResolutionSemantic, edges[0].Resolution)
}

func TestArtifactEncodeDecodeRoundTrip(t *testing.T) {
	a := Artifact{Indexer: "goindexer", Language: "go", Symbols: []ArtifactSymbol{{FilePath: "a.go", FQN: "pkg.Foo", Kind: "function"}}}
	data, err := a.Encode()
	require.NoError(t, err)
	decoded, err := DecodeArtifact(data)
	require.NoError(t, err)
	assert.Equal(t, a, decoded)
}
