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

package orchestrator

import (
	"sort"
	"sync"

	"github.com/pranav100000/consilium-codegraph/internal/harness"
	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

const (
	parseParallelThreshold = 10
	maxParseWorkers        = 4
)

// parsedBatch is everything a set of parsed files contributes to the graph.
type parsedBatch struct {
	Files       []ir.File
	Symbols     []ir.Symbol
	Edges       []ir.Edge
	Occurrences []ir.Occurrence
}

// parseFiles dispatches each path in paths to its language harness, in
// parallel once the batch reaches parseParallelThreshold paths (a threshold
// and worker count of its own, separate from the incremental resolver's
// parallel/sequential split). Files with no
// registered harness for their extension are silently skipped.
func (o *Orchestrator) parseFiles(commitID string, paths []string, content map[string][]byte) (parsedBatch, []harness.UnresolvedCall, int) {
	if len(paths) < parseParallelThreshold {
		return o.parseSequential(commitID, paths, content)
	}
	return o.parseParallel(commitID, paths, content)
}

func (o *Orchestrator) parseOne(commitID, path string, content []byte) (*harness.ParseOutput, int) {
	lang := harness.LanguageFromPath(path)
	if lang == "" {
		return nil, 0
	}
	h := o.registry.For(lang)
	if h == nil {
		return nil, 0
	}
	out, err := h.Parse(content, harness.ProjectContext{CommitID: commitID, Path: path})
	if err != nil {
		o.logger.Warn("orchestrator.parse.error", "path", path, "err", err)
		return nil, 1
	}
	return &out, 0
}

func (o *Orchestrator) parseSequential(commitID string, paths []string, content map[string][]byte) (parsedBatch, []harness.UnresolvedCall, int) {
	var batch parsedBatch
	var unresolved []harness.UnresolvedCall
	errorCount := 0
	for i, path := range paths {
		out, errs := o.parseOne(commitID, path, content[path])
		errorCount += errs
		if o.cfg.OnProgress != nil {
			o.cfg.OnProgress("parse", i+1, len(paths))
		}
		if out == nil {
			continue
		}
		mergeParseOutput(&batch, &unresolved, out)
	}
	return batch, unresolved, errorCount
}

func (o *Orchestrator) parseParallel(commitID string, paths []string, content map[string][]byte) (parsedBatch, []harness.UnresolvedCall, int) {
	type indexedOutput struct {
		index int
		out   *harness.ParseOutput
	}
	jobs := make(chan int, len(paths))
	results := make(chan indexedOutput, len(paths))
	var errorCount int32
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < maxParseWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				path := paths[idx]
				out, errs := o.parseOne(commitID, path, content[path])
				if errs > 0 {
					mu.Lock()
					errorCount += int32(errs)
					mu.Unlock()
				}
				results <- indexedOutput{index: idx, out: out}
			}
		}()
	}
	for i := range paths {
		jobs <- i
	}
	close(jobs)
	go func() {
		wg.Wait()
		close(results)
	}()

	outputs := make([]*harness.ParseOutput, len(paths))
	done := 0
	for r := range results {
		outputs[r.index] = r.out
		done++
		if o.cfg.OnProgress != nil {
			o.cfg.OnProgress("parse", done, len(paths))
		}
	}

	var batch parsedBatch
	var unresolved []harness.UnresolvedCall
	for _, out := range outputs {
		if out == nil {
			continue
		}
		mergeParseOutput(&batch, &unresolved, out)
	}
	sort.Slice(batch.Files, func(i, j int) bool { return batch.Files[i].Path < batch.Files[j].Path })
	return batch, unresolved, int(errorCount)
}

func mergeParseOutput(batch *parsedBatch, unresolved *[]harness.UnresolvedCall, out *harness.ParseOutput) {
	batch.Files = append(batch.Files, out.File)
	batch.Symbols = append(batch.Symbols, out.Symbols...)
	batch.Edges = append(batch.Edges, out.Edges...)
	batch.Occurrences = append(batch.Occurrences, out.Occurrences...)
	*unresolved = append(*unresolved, out.UnresolvedCalls...)
}
