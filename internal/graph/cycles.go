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

package graph

import (
	"sort"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

// CyclesThrough finds elementary cycles passing through id, restricted to
// the strongly connected component containing id (cycles can only exist
// within a single SCC), and returns up to maxCycles of them via Johnson's
// algorithm. Cycles are returned as ordered node-id slices starting and
// ending at id; results are sorted for determinism (shortest first, then
// lexicographic on the cycle's node sequence).
func (g *Graph) CyclesThrough(id string, edgeType ir.EdgeType, maxCycles int) [][]string {
	if maxCycles <= 0 {
		maxCycles = 20
	}
	adjacency := filterByType(g.out, edgeType)
	for _, e := range adjacency[id] {
		if e.Dst == id {
			return [][]string{{id}}
		}
	}
	scc := tarjanSCCContaining(adjacency, id)
	if len(scc) < 2 {
		return nil
	}
	sccSet := make(map[string]bool, len(scc))
	for _, n := range scc {
		sccSet[n] = true
	}

	sub := make(map[string][]string, len(scc))
	for _, n := range scc {
		for _, e := range adjacency[n] {
			if sccSet[e.Dst] {
				sub[n] = append(sub[n], e.Dst)
			}
		}
	}
	for n := range sub {
		sort.Strings(sub[n])
	}

	cycles := johnsonCycles(sub, maxCycles*4) // over-collect, then filter to ones through id
	var out [][]string
	for _, c := range cycles {
		if !containsNode(c, id) {
			continue
		}
		out = append(out, rotateTo(c, id))
		if len(out) >= maxCycles {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i]) != len(out[j]) {
			return len(out[i]) < len(out[j])
		}
		for k := range out[i] {
			if out[i][k] != out[j][k] {
				return out[i][k] < out[j][k]
			}
		}
		return false
	})
	return out
}

func containsNode(cycle []string, id string) bool {
	for _, n := range cycle {
		if n == id {
			return true
		}
	}
	return false
}

// rotateTo rotates cycle so it starts (and, implicitly, ends) at id.
func rotateTo(cycle []string, id string) []string {
	idx := 0
	for i, n := range cycle {
		if n == id {
			idx = i
			break
		}
	}
	out := make([]string, 0, len(cycle)+1)
	out = append(out, cycle[idx:]...)
	out = append(out, cycle[:idx]...)
	out = append(out, id)
	return out
}

// tarjanSCCContaining computes the strongly connected component containing
// start via Tarjan's algorithm, returning only that component's members.
func tarjanSCCContaining(adjacency map[string][]ir.Edge, start string) []string {
	index := 0
	indices := map[string]int{}
	lowlink := map[string]int{}
	onStack := map[string]bool{}
	var stack []string
	var components [][]string

	var strongconnect func(v string)
	strongconnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, e := range adjacency[v] {
			w := e.Dst
			if _, seen := indices[w]; !seen {
				strongconnect(w)
				if lowlink[w] < lowlink[v] {
					lowlink[v] = lowlink[w]
				}
			} else if onStack[w] {
				if indices[w] < lowlink[v] {
					lowlink[v] = indices[w]
				}
			}
		}

		if lowlink[v] == indices[v] {
			var component []string
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			components = append(components, component)
		}
	}

	// Only the component reachable from start matters for cycle detection
	// restricted to start's SCC, but Tarjan must run from start to guarantee
	// start's component is discovered; disconnected nodes are never visited.
	if _, ok := adjacency[start]; !ok {
		if _, hasIncoming := reverseHasNode(adjacency, start); !hasIncoming {
			return nil
		}
	}
	strongconnect(start)

	for _, c := range components {
		for _, n := range c {
			if n == start {
				return c
			}
		}
	}
	return nil
}

func reverseHasNode(adjacency map[string][]ir.Edge, node string) (string, bool) {
	for src, edges := range adjacency {
		for _, e := range edges {
			if e.Dst == node {
				return src, true
			}
		}
	}
	return "", false
}

// johnsonCycles enumerates elementary cycles in a graph restricted to a
// single SCC using Johnson's algorithm, stopping early once limit cycles
// have been found.
func johnsonCycles(adjacency map[string][]string, limit int) [][]string {
	nodes := make([]string, 0, len(adjacency))
	for n := range adjacency {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)

	var cycles [][]string
	blocked := map[string]bool{}
	blockedMap := map[string]map[string]bool{}
	var stack []string

	var unblock func(u string)
	unblock = func(u string) {
		blocked[u] = false
		for w := range blockedMap[u] {
			delete(blockedMap[u], w)
			if blocked[w] {
				unblock(w)
			}
		}
	}

	var circuit func(v, start string) bool
	circuit = func(v, start string) bool {
		found := false
		stack = append(stack, v)
		blocked[v] = true

		for _, w := range adjacency[v] {
			if len(cycles) >= limit {
				break
			}
			if w == start {
				cycle := make([]string, len(stack))
				copy(cycle, stack)
				cycles = append(cycles, cycle)
				found = true
			} else if !blocked[w] {
				if circuit(w, start) {
					found = true
				}
			}
		}

		if found {
			unblock(v)
		} else {
			for _, w := range adjacency[v] {
				if blockedMap[w] == nil {
					blockedMap[w] = map[string]bool{}
				}
				blockedMap[w][v] = true
			}
		}

		stack = stack[:len(stack)-1]
		return found
	}

	for _, start := range nodes {
		if len(cycles) >= limit {
			break
		}
		blocked = map[string]bool{}
		blockedMap = map[string]map[string]bool{}
		circuit(start, start)
	}
	return dedupeCycles(cycles)
}

// dedupeCycles collapses cycles discovered multiple times (once per node
// Johnson's search started from) down to one entry per distinct cycle,
// identified by rotating each to start at its lexicographically smallest
// node.
func dedupeCycles(cycles [][]string) [][]string {
	seen := map[string]bool{}
	var out [][]string
	for _, c := range cycles {
		canon := canonicalRotation(c)
		key := ""
		for _, n := range canon {
			key += n + "\x1f"
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

func canonicalRotation(cycle []string) []string {
	if len(cycle) == 0 {
		return cycle
	}
	minIdx := 0
	for i, n := range cycle {
		if n < cycle[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(cycle))
	out = append(out, cycle[minIdx:]...)
	out = append(out, cycle[:minIdx]...)
	return out
}
