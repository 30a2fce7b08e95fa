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

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
	"sync"

	"github.com/pranav100000/consilium-codegraph/internal/harness"
	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

// parallelThreshold is the call-count above which ResolveCalls switches from
// sequential resolution to the worker pool, matching the resolver's own
// resolver.go threshold.
const parallelThreshold = 1000

// maxResolverWorkers caps the worker pool regardless of GOMAXPROCS, the same
// fixed worker cap.
const maxResolverWorkers = 8

// ResolverStats summarizes one ResolveCalls run.
type ResolverStats struct {
	Total           int
	ResolvedDirect  int
	ResolvedByName  int
	ResolvedStub    int
	Unresolvable    int
}

// CallResolver closes CALLS edges a language harness left unresolved because
// the callee lives outside the file being parsed: cross-package qualified
// calls, and receiver-method calls whose concrete or interface type the
// harness could not determine syntactically (cross-package call
// resolution").
type CallResolver struct {
	logger *slog.Logger

	commitID string

	symbolsByFQN      map[string]string   // fully-qualified name -> symbol id
	fqnBySymbolID     map[string]string   // symbol id -> fully-qualified name
	methodsByBareName map[string][]string // bare method/function name -> symbol ids sharing it
	implementsIndex   map[string][]string // interface FQN -> concrete type FQNs implementing it

	mu            sync.Mutex
	stubCache     map[string]string // external callee key -> stub symbol id
	stubFunctions []ir.Symbol
}

// NewCallResolver constructs an empty resolver; call BuildIndex before
// ResolveCalls.
func NewCallResolver(logger *slog.Logger) *CallResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &CallResolver{
		logger:            logger,
		symbolsByFQN:      map[string]string{},
		fqnBySymbolID:     map[string]string{},
		methodsByBareName: map[string][]string{},
		implementsIndex:   map[string][]string{},
		stubCache:         map[string]string{},
	}
}

// BuildIndex populates the lookup tables ResolveCalls needs from one commit's
// full symbol and edge set. Must be called once per commit before resolving.
func (r *CallResolver) BuildIndex(commitID string, symbols []ir.Symbol, implementsEdges []ir.Edge) {
	r.commitID = commitID
	bySymbolID := make(map[string]ir.Symbol, len(symbols))

	for _, s := range symbols {
		bySymbolID[s.ID] = s
		r.symbolsByFQN[s.FQN] = s.ID
		r.fqnBySymbolID[s.ID] = s.FQN
		if s.Kind != ir.KindFunction && s.Kind != ir.KindMethod {
			continue
		}
		bare := s.Name
		if idx := strings.LastIndex(bare, "."); idx >= 0 {
			bare = bare[idx+1:]
		}
		r.methodsByBareName[bare] = append(r.methodsByBareName[bare], s.ID)
	}

	for _, e := range implementsEdges {
		if e.Type != ir.EdgeImplements {
			continue
		}
		concrete, ok := bySymbolID[e.Src]
		iface, ok2 := bySymbolID[e.Dst]
		if !ok || !ok2 {
			continue
		}
		r.implementsIndex[iface.FQN] = append(r.implementsIndex[iface.FQN], concrete.FQN)
	}
}

// ResolveCalls closes every unresolved call against the built index,
// returning the resulting CALLS edges. Runs sequentially below
// parallelThreshold calls, and on a capped worker pool above it.
func (r *CallResolver) ResolveCalls(calls []harness.UnresolvedCall) ([]ir.Edge, ResolverStats) {
	if len(calls) < parallelThreshold {
		return r.resolveSequential(calls)
	}
	return r.resolveParallel(calls)
}

func (r *CallResolver) resolveSequential(calls []harness.UnresolvedCall) ([]ir.Edge, ResolverStats) {
	var edges []ir.Edge
	var stats ResolverStats
	for _, c := range calls {
		edge, outcome := r.resolveOne(c)
		stats.Total++
		r.tally(&stats, outcome)
		if edge != nil {
			edges = append(edges, *edge)
		}
	}
	return edges, stats
}

func (r *CallResolver) resolveParallel(calls []harness.UnresolvedCall) ([]ir.Edge, ResolverStats) {
	jobs := make(chan harness.UnresolvedCall, len(calls))
	type result struct {
		edge    *ir.Edge
		outcome string
	}
	results := make(chan result, len(calls))

	var wg sync.WaitGroup
	for i := 0; i < maxResolverWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for c := range jobs {
				edge, outcome := r.resolveOne(c)
				results <- result{edge: edge, outcome: outcome}
			}
		}()
	}
	for _, c := range calls {
		jobs <- c
	}
	close(jobs)
	wg.Wait()
	close(results)

	var edges []ir.Edge
	var stats ResolverStats
	for res := range results {
		stats.Total++
		r.tally(&stats, res.outcome)
		if res.edge != nil {
			edges = append(edges, *res.edge)
		}
	}
	r.logger.Info("incremental.resolver.complete",
		"total", stats.Total, "direct", stats.ResolvedDirect,
		"by_name", stats.ResolvedByName, "stub", stats.ResolvedStub, "unresolvable", stats.Unresolvable,
	)
	return edges, stats
}

func (r *CallResolver) tally(stats *ResolverStats, outcome string) {
	switch outcome {
	case "direct":
		stats.ResolvedDirect++
	case "by_name":
		stats.ResolvedByName++
	case "stub":
		stats.ResolvedStub++
	default:
		stats.Unresolvable++
	}
}

// resolveOne resolves a single unresolved call via, in order: an exact
// qualifier-qualified FQN match (handles cross-package qualified calls and
// import-aliased calls), a unique bare-name match across the commit (handles
// unqualified same-package calls and unambiguous receiver-method calls), an
// interface-dispatch pick (when the bare-name match is ambiguous, a single
// edge to one candidate, see resolveViaInterfaceDispatch), or finally an
// external stub for callees defined outside the scanned tree.
func (r *CallResolver) resolveOne(c harness.UnresolvedCall) (*ir.Edge, string) {
	if c.Qualifier != "" {
		if calleeID, ok := r.symbolsByFQN[c.Qualifier+"."+c.CalleeName]; ok {
			return r.edge(c.CallerSymbol, calleeID, ir.ResolutionSyntactic), "direct"
		}
	}

	candidates := r.methodsByBareName[c.CalleeName]
	switch len(candidates) {
	case 0:
		return r.stub(c), "stub"
	case 1:
		return r.edge(c.CallerSymbol, candidates[0], ir.ResolutionSyntactic), "by_name"
	default:
		if edge := r.resolveViaInterfaceDispatch(c, candidates); edge != nil {
			return edge, "by_name"
		}
		return r.stub(c), "stub"
	}
}

// resolveViaInterfaceDispatch picks a candidate when a bare method name is
// ambiguous: the first candidate whose receiver type implements an indexed
// interface is used as the syntactic edge target (semantic upgrade may later
// refine this to the true runtime type). Interfaces are visited in map
// order, so when candidates implement different interfaces which of them is
// picked is not fixed. Returns nil when no candidate's receiver type
// implements any indexed interface.
func (r *CallResolver) resolveViaInterfaceDispatch(c harness.UnresolvedCall, candidates []string) *ir.Edge {
	for _, impls := range r.implementsIndex {
		if len(impls) == 0 {
			continue
		}
		implSet := make(map[string]bool, len(impls))
		for _, fqn := range impls {
			implSet[fqn] = true
		}
		for _, candidateID := range candidates {
			if implSet[r.ownerOf(candidateID)] {
				return r.edge(c.CallerSymbol, candidateID, ir.ResolutionSyntactic)
			}
		}
	}
	return nil
}

// ownerOf returns the receiver type's FQN for a method symbol id, e.g.
// "pkg.Server.Start" -> "pkg.Server", by trimming the final dotted segment
// off the symbol's recorded FQN.
func (r *CallResolver) ownerOf(symbolID string) string {
	fqn := r.fqnBySymbolID[symbolID]
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return fqn
	}
	return fqn[:idx]
}

func (r *CallResolver) edge(src, dst string, res ir.Resolution) *ir.Edge {
	return &ir.Edge{CommitID: r.commitID, Type: ir.EdgeCalls, Src: src, Dst: dst, Resolution: res}
}

// stub resolves an unresolvable callee to a synthetic external-stub symbol
// so the graph records that the call happened without fabricating a false
// resolution to an unrelated in-tree symbol. One stub is created per
// distinct (qualifier, name) pair and reused across calls.
func (r *CallResolver) stub(c harness.UnresolvedCall) *ir.Edge {
	key := c.Qualifier + "." + c.CalleeName
	r.mu.Lock()
	defer r.mu.Unlock()

	stubID, ok := r.stubCache[key]
	if !ok {
		stubID = externalStubID(r.commitID, key)
		r.stubCache[key] = stubID
		r.stubFunctions = append(r.stubFunctions, ir.Symbol{
			ID:       stubID,
			CommitID: r.commitID,
			Kind:     ir.KindFunction,
			Name:     c.CalleeName,
			FQN:      "external." + key,
			Language: "external",
			FilePath: "",
		})
	}
	return &ir.Edge{CommitID: r.commitID, Type: ir.EdgeCalls, Src: c.CallerSymbol, Dst: stubID, Resolution: ir.ResolutionSyntactic}
}

// StubFunctions returns the synthetic external symbols created by stub() so
// the caller can persist them alongside real symbols; every CALLS edge
// targeting one otherwise points at a symbol id the store has never seen.
func (r *CallResolver) StubFunctions() []ir.Symbol {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ir.Symbol, len(r.stubFunctions))
	copy(out, r.stubFunctions)
	return out
}

// externalStubID derives a deterministic id for an unresolvable external
// callee so the same (commit, qualifier, name) pair always maps to the same
// stub across re-scans.
func externalStubID(commitID, key string) string {
	sum := sha256.Sum256([]byte(commitID + "\x1f" + key))
	return "repo://" + commitID + "/external#stub(" + hex.EncodeToString(sum[:8]) + ")"
}
