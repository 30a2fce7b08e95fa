package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

func TestGoHarnessExtractsFunctionsAndCalls(t *testing.T) {
	src := []byte(`package sample

import "fmt"

func greet(name string) string {
	return fmt.Sprintf("hi %s", name)
}

func main() {
	greet("world")
}
`)
	h := NewGoHarness()
	out, err := h.Parse(src, ProjectContext{CommitID: "c1", Path: "sample.go"})
	require.NoError(t, err)
	require.Equal(t, 0, out.ErrorNodeCount)

	var names []string
	for _, s := range out.Symbols {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "greet")
	assert.Contains(t, names, "main")

	var sawCall bool
	for _, e := range out.Edges {
		if e.Type == ir.EdgeCalls {
			sawCall = true
		}
	}
	assert.True(t, sawCall, "expected a resolved CALLS edge from main to greet")

	var sawImport bool
	for _, e := range out.Edges {
		if e.Type == ir.EdgeImports && e.Dst == "fmt" {
			sawImport = true
		}
	}
	assert.True(t, sawImport)
}

func TestGoHarnessMethodReceiverAndUnresolvedCall(t *testing.T) {
	src := []byte(`package sample

type Server struct{}

func (s *Server) Start() error {
	return s.listen()
}
`)
	h := NewGoHarness()
	out, err := h.Parse(src, ProjectContext{CommitID: "c1", Path: "server.go"})
	require.NoError(t, err)

	var found bool
	for _, s := range out.Symbols {
		if s.Kind == ir.KindMethod && s.Name == "Server.Start" {
			found = true
		}
	}
	assert.True(t, found)
	assert.NotEmpty(t, out.UnresolvedCalls, "s.listen() is not defined in this file so it must be unresolved")
}

func TestRegistryDispatchesByLanguage(t *testing.T) {
	r := NewRegistry()
	assert.NotNil(t, r.For("go"))
	assert.NotNil(t, r.For("python"))
	assert.NotNil(t, r.For("javascript"))
	assert.NotNil(t, r.For("typescript"))
	assert.Nil(t, r.For("rust"))
}

func TestLanguageFromPath(t *testing.T) {
	assert.Equal(t, "go", LanguageFromPath("a/b.go"))
	assert.Equal(t, "python", LanguageFromPath("a/b.py"))
	assert.Equal(t, "typescript", LanguageFromPath("a/b.tsx"))
	assert.Equal(t, "javascript", LanguageFromPath("a/b.mjs"))
	assert.Equal(t, "", LanguageFromPath("a/b.rs"))
}
