package incremental

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlannerExpandsOneHopImpactedSet(t *testing.T) {
	delta := &GitDelta{Modified: []string{"b.go"}, Renamed: map[string]string{}}
	graph := ImportGraph{ImportedBy: map[string][]string{
		"b.go": {"a.go"},
		"a.go": {"main.go"},
	}}
	p := NewPlanner()
	plan := p.Plan(delta, graph, []string{"a.go", "b.go", "main.go", "unrelated.go"})

	byPath := map[string]Operation{}
	for _, e := range plan.Entries {
		byPath[e.Path] = e.Operation
	}
	assert.Equal(t, OpParse, byPath["b.go"])
	assert.Equal(t, OpParse, byPath["a.go"])
	assert.Equal(t, OpKeep, byPath["main.go"], "two hops away, beyond the default one-hop syntactic bound")
	assert.Equal(t, OpKeep, byPath["unrelated.go"])
}

func TestPlannerUnboundedExpandsAllHops(t *testing.T) {
	delta := &GitDelta{Modified: []string{"b.go"}, Renamed: map[string]string{}}
	graph := ImportGraph{ImportedBy: map[string][]string{
		"b.go": {"a.go"},
		"a.go": {"main.go"},
	}}
	p := NewPlanner()
	p.Unbounded = true
	plan := p.Plan(delta, graph, []string{"a.go", "b.go", "main.go"})

	byPath := map[string]Operation{}
	for _, e := range plan.Entries {
		byPath[e.Path] = e.Operation
	}
	assert.Equal(t, OpParse, byPath["main.go"])
}

func TestPlannerHandlesDeletesAndRenames(t *testing.T) {
	delta := &GitDelta{
		Deleted:  []string{"gone.go"},
		Renamed:  map[string]string{"old.go": "new.go"},
		Modified: nil,
	}
	p := NewPlanner()
	plan := p.Plan(delta, ImportGraph{ImportedBy: map[string][]string{}}, []string{"new.go"})

	byPath := map[string]Operation{}
	for _, e := range plan.Entries {
		byPath[e.Path] = e.Operation
	}
	assert.Equal(t, OpDeletePrior, byPath["gone.go"])
	assert.Equal(t, OpDeletePrior, byPath["old.go"])
	assert.Equal(t, OpParse, byPath["new.go"])
}
