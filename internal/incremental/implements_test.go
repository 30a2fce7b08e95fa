package incremental

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

func TestBuildImplementsIndexMatchesFullMethodSet(t *testing.T) {
	symbols := []ir.Symbol{
		{ID: "sym-iface", Kind: ir.KindInterface, FQN: "pkg.Writer", Signature: "{\n\tWrite(p []byte) (int, error)\n}"},
		{ID: "sym-type", Kind: ir.KindClass, FQN: "pkg.File"},
		{ID: "sym-method", Kind: ir.KindMethod, Name: "File.Write", FQN: "pkg.File.Write"},
	}
	edges := BuildImplementsIndex("c1", symbols)
	require.Len(t, edges, 1)
	assert.Equal(t, "sym-type", edges[0].Src)
	assert.Equal(t, "sym-iface", edges[0].Dst)
	assert.Equal(t, ir.EdgeImplements, edges[0].Type)
}

func TestBuildImplementsIndexSkipsPartialMatch(t *testing.T) {
	symbols := []ir.Symbol{
		{ID: "sym-iface", Kind: ir.KindInterface, FQN: "pkg.ReadWriter", Signature: "{\n\tRead(p []byte) (int, error)\n\tWrite(p []byte) (int, error)\n}"},
		{ID: "sym-type", Kind: ir.KindClass, FQN: "pkg.File"},
		{ID: "sym-method", Kind: ir.KindMethod, Name: "File.Write", FQN: "pkg.File.Write"},
	}
	edges := BuildImplementsIndex("c1", symbols)
	assert.Empty(t, edges)
}
