// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package graph is the in-memory traversal engine: it loads a bounded set of
// edges from the store into a directed multigraph and answers callers,
// callees, importers, cycle, and shortest-path queries over it without
// touching the store again. Callers build a Graph from whatever edge set a
// query needs (typically a seed node's k-hop closure) rather than loading an
// entire repository's graph into memory at once.
package graph

import (
	"sort"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

// Node is a traversal result: a symbol (or file, for IMPORTS) id at a given
// BFS depth from the seed.
type Node struct {
	ID    string
	Depth int
}

// Graph is a directed multigraph over one commit's edges, indexed both
// forward and backward so callers/callees/importers can all be served
// without re-scanning the edge list.
type Graph struct {
	out map[string][]ir.Edge // src -> outgoing edges
	in  map[string][]ir.Edge // dst -> incoming edges
}

// Build indexes edges for traversal. When both a semantic and a syntactic
// edge exist for the same (src, dst, type), the semantic edge wins and the
// syntactic counterpart is dropped, matching the store's tie-break rule for
// graph queries.
func Build(edges []ir.Edge) *Graph {
	g := &Graph{out: map[string][]ir.Edge{}, in: map[string][]ir.Edge{}}

	best := map[string]ir.Edge{}
	order := make([]string, 0, len(edges))
	for _, e := range edges {
		key := e.Src + "\x1f" + e.Dst + "\x1f" + string(e.Type)
		existing, ok := best[key]
		if !ok {
			order = append(order, key)
			best[key] = e
			continue
		}
		if existing.Resolution != ir.ResolutionSemantic && e.Resolution == ir.ResolutionSemantic {
			best[key] = e
		}
	}

	for _, key := range order {
		e := best[key]
		g.out[e.Src] = append(g.out[e.Src], e)
		g.in[e.Dst] = append(g.in[e.Dst], e)
	}
	return g
}

// bfs runs a breadth-first traversal from seed following adjacency, bounded
// by maxDepth (0 means unbounded), deduplicating visited nodes. Results at
// each depth are sorted lexicographically by id so equal-depth ties resolve
// deterministically.
func bfs(adjacency map[string][]ir.Edge, neighbor func(ir.Edge) string, seed string, maxDepth int) []Node {
	visited := map[string]bool{seed: true}
	frontier := []string{seed}
	var out []Node

	for depth := 1; len(frontier) > 0 && (maxDepth <= 0 || depth <= maxDepth); depth++ {
		var next []string
		seenThisDepth := map[string]bool{}
		for _, node := range frontier {
			for _, e := range adjacency[node] {
				n := neighbor(e)
				if visited[n] || seenThisDepth[n] {
					continue
				}
				seenThisDepth[n] = true
				next = append(next, n)
			}
		}
		sort.Strings(next)
		for _, n := range next {
			visited[n] = true
			out = append(out, Node{ID: n, Depth: depth})
		}
		frontier = next
	}
	return out
}

// Callees returns symbols reachable by following edgeType edges forward from
// id, up to maxDepth hops (0 = unbounded).
func (g *Graph) Callees(id string, edgeType ir.EdgeType, maxDepth int) []Node {
	return bfs(filterByType(g.out, edgeType), func(e ir.Edge) string { return e.Dst }, id, maxDepth)
}

// Callers returns symbols reaching id by following edgeType edges backward,
// up to maxDepth hops (0 = unbounded).
func (g *Graph) Callers(id string, edgeType ir.EdgeType, maxDepth int) []Node {
	return bfs(filterByType(g.in, edgeType), func(e ir.Edge) string { return e.Src }, id, maxDepth)
}

// Importers returns files that (transitively) import path, up to maxDepth
// hops (0 = unbounded). A thin alias over Callers(path, IMPORTS, ...) since
// IMPORTS edges run file -> file rather than symbol -> symbol.
func (g *Graph) Importers(path string, maxDepth int) []Node {
	return g.Callers(path, ir.EdgeImports, maxDepth)
}

func filterByType(adjacency map[string][]ir.Edge, edgeType ir.EdgeType) map[string][]ir.Edge {
	out := make(map[string][]ir.Edge, len(adjacency))
	for node, edges := range adjacency {
		var filtered []ir.Edge
		for _, e := range edges {
			if e.Type == edgeType {
				filtered = append(filtered, e)
			}
		}
		if len(filtered) > 0 {
			out[node] = filtered
		}
	}
	return out
}
