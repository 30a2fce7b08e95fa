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

package incremental

import "sort"

// Operation is what the orchestrator should do with one file under the
// target commit.
type Operation string

const (
	// OpParse re-parses the file and (re)inserts its rows.
	OpParse Operation = "parse"
	// OpDeletePrior removes a file's prior rows without re-parsing it (the
	// file was deleted between commits).
	OpDeletePrior Operation = "delete-prior"
	// OpKeep leaves a file's existing rows untouched.
	OpKeep Operation = "keep"
)

// PlanEntry is one file's planned operation.
type PlanEntry struct {
	Path      string
	Operation Operation
}

// Plan is the ordered, deduplicated set of per-file operations a scan will
// execute. The planner only computes it; the orchestrator executes it.
type Plan struct {
	BaseSHA string
	HeadSHA string
	Entries []PlanEntry
}

// ParsePaths returns the paths planned for OpParse, in deterministic order.
func (p *Plan) ParsePaths() []string {
	var out []string
	for _, e := range p.Entries {
		if e.Operation == OpParse {
			out = append(out, e.Path)
		}
	}
	return out
}

// DeletePaths returns the paths planned for OpDeletePrior, in deterministic
// order.
func (p *Plan) DeletePaths() []string {
	var out []string
	for _, e := range p.Entries {
		if e.Operation == OpDeletePrior {
			out = append(out, e.Path)
		}
	}
	return out
}

// ImportGraph is the reverse-lookup the planner needs to expand a dirty set
// to its impacted set: for a given file path, which other files import it.
// The orchestrator builds this from the store's IMPORTS edges for the base
// commit, resolving raw import strings to repo-relative paths first.
type ImportGraph struct {
	// ImportedBy maps a file path to the paths that import it.
	ImportedBy map[string][]string
}

// Planner computes a scan plan from a dirty set and the import graph.
type Planner struct {
	// SemanticHops bounds reverse-closure expansion for syntactic-only
	// scans; semantic scans expand without bound since a semantic symbol id
	// can shift identity across an entire module boundary. Default 1, per
	// the syntactic default.
	SemanticHops int
	Unbounded    bool
}

// NewPlanner builds a planner with the syntactic default of a single-hop
// reverse-closure expansion.
func NewPlanner() *Planner {
	return &Planner{SemanticHops: 1}
}

// Plan computes the dirty set from delta, expands it to the impacted set via
// the reverse import closure in graph, and emits the union as a plan.
// Renamed files are planned as a delete of the old path plus a parse of the
// new one, since a rename changes the file's symbol ids (the file path is
// part of every symbol id).
func (p *Planner) Plan(delta *GitDelta, graph ImportGraph, allPaths []string) *Plan {
	plan := &Plan{BaseSHA: delta.BaseSHA, HeadSHA: delta.HeadSHA}

	dirty := map[string]bool{}
	deletedOnly := map[string]bool{}
	for _, path := range delta.Added {
		dirty[path] = true
	}
	for _, path := range delta.Modified {
		dirty[path] = true
	}
	for _, path := range delta.Deleted {
		deletedOnly[path] = true
	}
	for oldPath, newPath := range delta.Renamed {
		deletedOnly[oldPath] = true
		dirty[newPath] = true
	}

	impacted := p.expandImpacted(dirty, graph)

	allPlanned := map[string]Operation{}
	for path := range deletedOnly {
		allPlanned[path] = OpDeletePrior
	}
	for path := range dirty {
		allPlanned[path] = OpParse
	}
	for path := range impacted {
		if allPlanned[path] == "" {
			allPlanned[path] = OpParse
		}
	}
	for _, path := range allPaths {
		if allPlanned[path] == "" {
			allPlanned[path] = OpKeep
		}
	}

	for path, op := range allPlanned {
		plan.Entries = append(plan.Entries, PlanEntry{Path: path, Operation: op})
	}
	sort.Slice(plan.Entries, func(i, j int) bool { return plan.Entries[i].Path < plan.Entries[j].Path })
	return plan
}

// expandImpacted performs the reverse-import-closure BFS from the dirty set:
// any file that imports a dirty file is itself impacted, recursively, up to
// SemanticHops hops (or unbounded when Unbounded is set for a semantic-aware
// scan).
func (p *Planner) expandImpacted(dirty map[string]bool, graph ImportGraph) map[string]bool {
	impacted := map[string]bool{}
	frontier := make([]string, 0, len(dirty))
	for path := range dirty {
		frontier = append(frontier, path)
	}

	hops := p.SemanticHops
	for hop := 0; len(frontier) > 0 && (p.Unbounded || hop < hops); hop++ {
		var next []string
		for _, path := range frontier {
			for _, importer := range graph.ImportedBy[path] {
				if dirty[importer] || impacted[importer] {
					continue
				}
				impacted[importer] = true
				next = append(next, importer)
			}
		}
		frontier = next
	}
	return impacted
}
