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

// Package orchestrator sequences one scan end to end: resolve the target
// commit, plan which files need work, parse them through the harness
// registry, resolve cross-file calls and interface dispatch, run the
// optional semantic upgrade, and write everything under the new commit
// snapshot.
package orchestrator

import (
	"context"
	"sort"
	"time"

	"log/slog"

	"github.com/pranav100000/consilium-codegraph/internal/errors"
	"github.com/pranav100000/consilium-codegraph/internal/harness"
	"github.com/pranav100000/consilium-codegraph/internal/incremental"
	"github.com/pranav100000/consilium-codegraph/internal/ir"
	"github.com/pranav100000/consilium-codegraph/internal/metrics"
	"github.com/pranav100000/consilium-codegraph/internal/store"
	"github.com/pranav100000/consilium-codegraph/internal/walker"
)

// Config controls one orchestrator's scan behavior.
type Config struct {
	ExcludeGlobs    []string
	SemanticEnabled bool
	ForceFullScan   bool
	// OnProgress, when set, is invoked as a scan moves through phases: once
	// per phase boundary with current==total==1, and, during the parse
	// phase, once per file parsed with current/total reflecting the file
	// count. A caller wires this to a progress bar; nil disables reporting.
	OnProgress func(phase string, current, total int)
}

// Orchestrator owns the components a scan wires together. One instance is
// reused across repeated scans of the same project (e.g. a watch loop).
type Orchestrator struct {
	cfg      Config
	logger   *slog.Logger
	store    *store.Store
	registry *harness.Registry
	resolver *incremental.CallResolver
	metrics  *metrics.Collector
}

// New builds an orchestrator over an already-open store. A nil metrics
// collector is replaced with a private one so callers that don't care about
// /metrics don't have to construct one.
func New(s *store.Store, m *metrics.Collector, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}
	return &Orchestrator{
		cfg:      cfg,
		logger:   logger,
		store:    s,
		registry: harness.NewRegistry(),
		resolver: incremental.NewCallResolver(logger),
		metrics:  m,
	}
}

// Result summarizes one scan.
type Result struct {
	CommitID      string
	FilesParsed   int
	FilesKept     int
	FilesDeleted  int
	ParseErrors   int
	Symbols       int
	Edges         int
	SemanticEdges int
	// Mutations counts store rows (symbols, edges, occurrences) whose
	// contents actually changed as a result of this scan. A no-op re-scan
	// of an already-indexed commit reports zero.
	Mutations     int
	ResolverStats incremental.ResolverStats
	Duration      time.Duration
}

// Scan indexes repoRoot at ref ("" means HEAD), running an incremental scan
// against the previously recorded commit when one exists and ForceFullScan
// is false, or a full scan otherwise.
func (o *Orchestrator) Scan(ctx context.Context, repoRoot, ref string) (*Result, error) {
	start := time.Now()
	totalTimer := o.startTimer("total")
	defer totalTimer()

	w, err := walker.Open(repoRoot, o.cfg.ExcludeGlobs)
	if err != nil {
		o.metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	headSHA, err := w.ResolveCommit(ref)
	if err != nil {
		o.metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	entries := map[string][]byte{}
	if err := w.Walk(headSHA, func(e walker.Entry) error {
		entries[e.Path] = e.Content
		return nil
	}); err != nil {
		o.metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(errors.ErrIO, "walking %s: %v", headSHA, err)
	}
	o.tick("walk")

	allPaths := make([]string, 0, len(entries))
	for p := range entries {
		allPaths = append(allPaths, p)
	}
	sort.Strings(allPaths)

	plan, baseSHA, err := o.buildPlan(ctx, w, headSHA, allPaths, entries)
	if err != nil {
		o.metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	o.tick("plan")

	if _, err := o.store.Write(ctx, store.WriteBatch{
		Commit: ir.CommitSnapshot{CommitID: headSHA, Timestamp: time.Now().Unix(), Parent: baseSHA},
	}); err != nil {
		o.metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(errors.ErrStore, "recording commit %s: %v", headSHA, err)
	}

	keepTimer := o.startTimer("keep")
	for _, entry := range plan.Entries {
		if entry.Operation != incremental.OpKeep || baseSHA == "" {
			continue
		}
		if err := o.store.CopyFileForCommit(ctx, baseSHA, headSHA, entry.Path); err != nil {
			o.logger.Warn("orchestrator.copy_forward.error", "path", entry.Path, "err", err)
			continue
		}
		o.metrics.FilesKept.Inc()
	}
	keepTimer()
	o.tick("keep")
	o.metrics.FilesDeleted.Add(float64(len(plan.DeletePaths())))

	parseTimer := o.startTimer("parse")
	batch, unresolved, parseErrors := o.parseFiles(headSHA, plan.ParsePaths(), entries)
	parseTimer()

	mutations, err := o.store.Write(ctx, store.WriteBatch{
		Files:       batch.Files,
		Symbols:     batch.Symbols,
		Edges:       batch.Edges,
		Occurrences: batch.Occurrences,
	})
	if err != nil {
		o.metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(errors.ErrStore, "writing parsed batch for %s: %v", headSHA, err)
	}
	o.tick("write")

	allSymbols, err := o.store.AllSymbols(ctx, headSHA)
	if err != nil {
		o.metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(errors.ErrStore, "loading symbols for %s: %v", headSHA, err)
	}

	resolveTimer := o.startTimer("resolve")
	implementsEdges := incremental.BuildImplementsIndex(headSHA, allSymbols)
	o.resolver.BuildIndex(headSHA, allSymbols, implementsEdges)
	resolvedEdges, stats := o.resolver.ResolveCalls(unresolved)
	resolveTimer()
	o.tick("resolve")

	resolvedMutations, err := o.store.Write(ctx, store.WriteBatch{
		Symbols: o.resolver.StubFunctions(),
		Edges:   append(append([]ir.Edge{}, implementsEdges...), resolvedEdges...),
	})
	if err != nil {
		o.metrics.ScansTotal.WithLabelValues("error").Inc()
		return nil, errors.Wrap(errors.ErrStore, "writing resolved edges for %s: %v", headSHA, err)
	}
	mutations += resolvedMutations

	semanticEdgeCount := 0
	if o.cfg.SemanticEnabled {
		semTimer := o.startTimer("semantic")
		semEdges, semErr := o.runSemanticPass(repoRoot, headSHA, allSymbols)
		semTimer()
		o.tick("semantic")
		if semErr != nil {
			o.logger.Warn("orchestrator.semantic.error", "err", semErr)
		} else if len(semEdges) > 0 {
			semMutations, err := o.store.Write(ctx, store.WriteBatch{Edges: semEdges})
			if err != nil {
				o.logger.Warn("orchestrator.semantic.write.error", "err", err)
			} else {
				semanticEdgeCount = len(semEdges)
				mutations += semMutations
			}
		}
	}

	if err := o.store.SetLastIndexedSHA(ctx, headSHA); err != nil {
		o.logger.Warn("orchestrator.set_sha.error", "err", err)
	}

	for _, e := range batch.Edges {
		o.metrics.EdgesWritten.WithLabelValues(string(e.Type)).Inc()
	}
	o.metrics.SymbolsIndexed.Add(float64(len(batch.Symbols)))
	o.metrics.ParseErrors.Add(float64(parseErrors))
	o.metrics.FilesParsed.Add(float64(len(plan.ParsePaths())))
	o.metrics.CallsUnresolved.Add(float64(stats.ResolvedStub))
	o.metrics.ScansTotal.WithLabelValues("ok").Inc()

	result := &Result{
		CommitID:      headSHA,
		FilesParsed:   len(plan.ParsePaths()),
		FilesKept:     len(plan.Entries) - len(plan.ParsePaths()) - len(plan.DeletePaths()),
		FilesDeleted:  len(plan.DeletePaths()),
		ParseErrors:   parseErrors,
		Symbols:       len(batch.Symbols),
		Edges:         len(batch.Edges) + len(implementsEdges) + len(resolvedEdges),
		SemanticEdges: semanticEdgeCount,
		Mutations:     mutations,
		ResolverStats: stats,
		Duration:      time.Since(start),
	}
	o.logger.Info("orchestrator.scan.complete",
		"commit", headSHA, "files_parsed", result.FilesParsed, "files_kept", result.FilesKept,
		"files_deleted", result.FilesDeleted, "symbols", result.Symbols, "edges", result.Edges,
		"semantic_edges", result.SemanticEdges, "mutations", result.Mutations, "duration_ms", result.Duration.Milliseconds(),
	)
	return result, nil
}

// buildPlan resolves the previous commit (if any) and computes this scan's
// plan: a full-file OpParse plan on a first scan, a re-scan of the same
// commit, or when ForceFullScan is set, an incremental plan otherwise. A
// same-commit re-scan is safe to route through the full-parse path because
// every downstream write upserts on its natural key (store.Write reports
// zero mutations when nothing actually changed).
func (o *Orchestrator) buildPlan(ctx context.Context, w *walker.Walker, headSHA string, allPaths []string, entries map[string][]byte) (*incremental.Plan, string, error) {
	baseSHA, hasPrior, err := o.store.GetLastIndexedSHA(ctx)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrStore, "reading last indexed sha: %v", err)
	}
	if !hasPrior || baseSHA == "" || baseSHA == headSHA || o.cfg.ForceFullScan {
		plan := &incremental.Plan{BaseSHA: baseSHA, HeadSHA: headSHA}
		for _, p := range allPaths {
			plan.Entries = append(plan.Entries, incremental.PlanEntry{Path: p, Operation: incremental.OpParse})
		}
		return plan, baseSHA, nil
	}

	detector := incremental.NewGitDeltaDetector(w.Repo(), o.logger)
	delta, err := detector.DetectDelta(baseSHA, headSHA)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrIO, "detecting delta %s..%s: %v", baseSHA, headSHA, err)
	}

	importEdges, err := o.store.AllEdges(ctx, baseSHA, ir.EdgeImports)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrStore, "loading import edges for %s: %v", baseSHA, err)
	}
	basePaths, err := o.store.AllFilePaths(ctx, baseSHA)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrStore, "loading file paths for %s: %v", baseSHA, err)
	}

	modulePath := moduleRootPath(entries["go.mod"])
	graph := buildImportGraph(modulePath, basePaths, importEdges)
	plan := incremental.NewPlanner().Plan(delta, graph, allPaths)
	return plan, baseSHA, nil
}

// tick reports a phase boundary to cfg.OnProgress, if set.
func (o *Orchestrator) tick(phase string) {
	if o.cfg.OnProgress != nil {
		o.cfg.OnProgress(phase, 1, 1)
	}
}

func (o *Orchestrator) startTimer(phase string) func() {
	started := time.Now()
	return func() {
		o.metrics.ScanDuration.WithLabelValues(phase).Observe(time.Since(started).Seconds())
	}
}
