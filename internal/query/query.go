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

// Package query is the typed read surface over a scanned commit: symbol
// lookup, full-text search, and neighborhood traversal. It loads whatever
// slice of the edge set a given traversal needs into an in-memory graph.Graph
// and never holds one across calls.
package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/pranav100000/consilium-codegraph/internal/errors"
	"github.com/pranav100000/consilium-codegraph/internal/graph"
	"github.com/pranav100000/consilium-codegraph/internal/ir"
	"github.com/pranav100000/consilium-codegraph/internal/store"
)

// Engine answers query-interface operations against one store.
type Engine struct {
	store *store.Store
}

// New builds a query engine over an open store.
func New(s *store.Store) *Engine {
	return &Engine{store: s}
}

// GetSymbol returns the symbol with the given FQN, the lowest sig_hash one
// if more than one overload shares the FQN.
func (e *Engine) GetSymbol(ctx context.Context, commitID, fqn string) (ir.Symbol, bool, error) {
	syms, err := e.store.FindSymbols(ctx, commitID, fqn, 50)
	if err != nil {
		return ir.Symbol{}, false, errors.Wrap(errors.ErrQuery, "%s", err)
	}
	var match *ir.Symbol
	for i := range syms {
		if syms[i].FQN == fqn {
			if match == nil || syms[i].SigHash < match.SigHash {
				match = &syms[i]
			}
		}
	}
	if match == nil {
		return ir.Symbol{}, false, nil
	}
	return *match, true, nil
}

// FindSymbols runs an FTS-backed fuzzy lookup, falling back to an exact/
// substring match when the FTS query has no hits (e.g. punctuation-only
// patterns FTS5 rejects).
func (e *Engine) FindSymbols(ctx context.Context, commitID, pattern string, limit int) ([]ir.Symbol, error) {
	if limit <= 0 {
		limit = 50
	}
	hits, err := e.store.SearchText(ctx, commitID, pattern, limit)
	if err == nil && len(hits) > 0 {
		out := make([]ir.Symbol, 0, len(hits))
		for _, h := range hits {
			sym, ok, getErr := e.store.GetSymbol(ctx, commitID, h.SymbolID)
			if getErr == nil && ok {
				out = append(out, sym)
			}
		}
		if len(out) > 0 {
			return out, nil
		}
	}
	syms, findErr := e.store.FindSymbols(ctx, commitID, pattern, limit)
	if findErr != nil {
		return nil, errors.Wrap(errors.ErrQuery, "%s", findErr)
	}
	return syms, nil
}

// SymbolsInFile returns every symbol declared in path.
func (e *Engine) SymbolsInFile(ctx context.Context, commitID, path string) ([]ir.Symbol, error) {
	syms, err := e.store.SymbolsInFile(ctx, commitID, path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrQuery, "%s", err)
	}
	return syms, nil
}

// Stats reports row counts for a commit.
func (e *Engine) Stats(ctx context.Context, commitID string) (store.Stats, error) {
	st, err := e.store.GetStats(ctx, commitID)
	if err != nil {
		return store.Stats{}, errors.Wrap(errors.ErrQuery, "%s", err)
	}
	return st, nil
}

// Callers resolves symbolID then loads the CALLS edge set and returns
// callers up to depth hops away, resolved to full symbols and sorted by
// (depth, fqn) for deterministic tie-breaking.
func (e *Engine) Callers(ctx context.Context, commitID, symbolID string, depth int) ([]ir.Symbol, error) {
	return e.traverse(ctx, commitID, symbolID, depth, ir.EdgeCalls, func(g *graph.Graph, id string, d int) []graph.Node {
		return g.Callers(id, ir.EdgeCalls, d)
	})
}

// Callees mirrors Callers in the forward direction.
func (e *Engine) Callees(ctx context.Context, commitID, symbolID string, depth int) ([]ir.Symbol, error) {
	return e.traverse(ctx, commitID, symbolID, depth, ir.EdgeCalls, func(g *graph.Graph, id string, d int) []graph.Node {
		return g.Callees(id, ir.EdgeCalls, d)
	})
}

// Importers returns files that (transitively) import path.
func (e *Engine) Importers(ctx context.Context, commitID, path string, depth int) ([]string, error) {
	edges, err := e.store.AllEdges(ctx, commitID, ir.EdgeImports)
	if err != nil {
		return nil, errors.Wrap(errors.ErrQuery, "%s", err)
	}
	g := graph.Build(edges)
	nodes := g.Importers(path, depth)
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out, nil
}

// CyclesThrough finds elementary CALLS cycles passing through symbolID.
func (e *Engine) CyclesThrough(ctx context.Context, commitID, symbolID string, maxCycles int) ([][]ir.Symbol, error) {
	edges, err := e.store.AllEdges(ctx, commitID, ir.EdgeCalls)
	if err != nil {
		return nil, errors.Wrap(errors.ErrQuery, "%s", err)
	}
	g := graph.Build(edges)
	cycles := g.CyclesThrough(symbolID, ir.EdgeCalls, maxCycles)

	out := make([][]ir.Symbol, 0, len(cycles))
	for _, cycle := range cycles {
		syms, resolveErr := e.resolveIDs(ctx, commitID, cycle)
		if resolveErr != nil {
			return nil, resolveErr
		}
		out = append(out, syms)
	}
	return out, nil
}

// Path finds the shortest path between from and to over the given edge
// types (CALLS, IMPORTS, EXTENDS and IMPLEMENTS when empty).
func (e *Engine) Path(ctx context.Context, commitID, from, to string, edgeTypes []ir.EdgeType) ([]ir.Symbol, bool, error) {
	if len(edgeTypes) == 0 {
		edgeTypes = []ir.EdgeType{ir.EdgeCalls, ir.EdgeImports, ir.EdgeExtends, ir.EdgeImplements}
	}
	var all []ir.Edge
	for _, t := range edgeTypes {
		edges, err := e.store.AllEdges(ctx, commitID, t)
		if err != nil {
			return nil, false, errors.Wrap(errors.ErrQuery, "%s", err)
		}
		all = append(all, edges...)
	}
	g := graph.Build(all)
	ids, _, ok := g.ShortestPath(from, to, edgeTypes)
	if !ok {
		return nil, false, nil
	}
	syms, err := e.resolveIDs(ctx, commitID, ids)
	if err != nil {
		return nil, false, err
	}
	return syms, true, nil
}

func (e *Engine) traverse(ctx context.Context, commitID, symbolID string, depth int, edgeType ir.EdgeType, walk func(*graph.Graph, string, int) []graph.Node) ([]ir.Symbol, error) {
	edges, err := e.store.AllEdges(ctx, commitID, edgeType)
	if err != nil {
		return nil, errors.Wrap(errors.ErrQuery, "%s", err)
	}
	g := graph.Build(edges)
	nodes := walk(g, symbolID, depth)

	type hit struct {
		sym   ir.Symbol
		depth int
	}
	hits := make([]hit, 0, len(nodes))
	for _, n := range nodes {
		sym, ok, getErr := e.store.GetSymbol(ctx, commitID, n.ID)
		if getErr != nil {
			return nil, errors.Wrap(errors.ErrQuery, "%s", getErr)
		}
		if !ok {
			continue
		}
		hits = append(hits, hit{sym: sym, depth: n.Depth})
	}
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].depth != hits[j].depth {
			return hits[i].depth < hits[j].depth
		}
		return hits[i].sym.FQN < hits[j].sym.FQN
	})
	syms := make([]ir.Symbol, len(hits))
	for i, h := range hits {
		syms[i] = h.sym
	}
	return syms, nil
}

func (e *Engine) resolveIDs(ctx context.Context, commitID string, ids []string) ([]ir.Symbol, error) {
	out := make([]ir.Symbol, 0, len(ids))
	for _, id := range ids {
		sym, ok, err := e.store.GetSymbol(ctx, commitID, id)
		if err != nil {
			return nil, errors.Wrap(errors.ErrQuery, "%s", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: dangling symbol id in traversal result: %s", errors.ErrQuery, id)
		}
		out = append(out, sym)
	}
	return out, nil
}
