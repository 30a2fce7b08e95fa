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

// ShortestPath finds one shortest path from a to b over edges of any of the
// given types, via bidirectional BFS: one frontier expands forward from a,
// another expands backward from b, and the search stops as soon as they
// meet. Returns the path (inclusive of both endpoints) and its length in
// edges, or ok=false if no path exists.
func (g *Graph) ShortestPath(a, b string, edgeTypes []ir.EdgeType) (path []string, length int, ok bool) {
	if a == b {
		return []string{a}, 0, true
	}
	typeSet := make(map[ir.EdgeType]bool, len(edgeTypes))
	for _, t := range edgeTypes {
		typeSet[t] = true
	}
	matches := func(e ir.Edge) bool { return len(typeSet) == 0 || typeSet[e.Type] }

	forwardParent := map[string]string{a: ""}
	backwardParent := map[string]string{b: ""}
	forwardFrontier := []string{a}
	backwardFrontier := []string{b}

	for len(forwardFrontier) > 0 && len(backwardFrontier) > 0 {
		if meeting, found := expandFrontier(g.out, func(e ir.Edge) string { return e.Dst }, matches, &forwardFrontier, forwardParent, backwardParent); found {
			p := buildBidirectionalPath(meeting, forwardParent, backwardParent)
			return p, len(p) - 1, true
		}
		if meeting, found := expandFrontier(g.in, func(e ir.Edge) string { return e.Src }, matches, &backwardFrontier, backwardParent, forwardParent); found {
			p := buildBidirectionalPath(meeting, forwardParent, backwardParent)
			return p, len(p) - 1, true
		}
	}
	return nil, 0, false
}

// expandFrontier advances one BFS frontier by one hop, recording parent
// pointers, and reports the first node it discovers that the opposite
// frontier has already reached (a meeting point), if any.
func expandFrontier(adjacency map[string][]ir.Edge, neighbor func(ir.Edge) string, matches func(ir.Edge) bool, frontier *[]string, parent, otherParent map[string]string) (string, bool) {
	var next []string
	var meeting string
	found := false

	sorted := append([]string(nil), (*frontier)...)
	sort.Strings(sorted)
	for _, node := range sorted {
		for _, e := range adjacency[node] {
			if !matches(e) {
				continue
			}
			n := neighbor(e)
			if _, visited := parent[n]; visited {
				continue
			}
			parent[n] = node
			next = append(next, n)
			if !found {
				if _, reached := otherParent[n]; reached {
					meeting = n
					found = true
				}
			}
		}
	}
	*frontier = next
	return meeting, found
}

// buildBidirectionalPath reconstructs the full path through meeting using
// the forward search's parent chain (meeting back to a) and the backward
// search's parent chain (meeting forward to b).
func buildBidirectionalPath(meeting string, forwardParent, backwardParent map[string]string) []string {
	var front []string
	for n := meeting; ; {
		front = append([]string{n}, front...)
		p, ok := forwardParent[n]
		if !ok || p == "" {
			break
		}
		n = p
	}
	var back []string
	for n := meeting; ; {
		p, ok := backwardParent[n]
		if !ok || p == "" {
			break
		}
		back = append(back, p)
		n = p
	}
	return append(front, back...)
}
