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
	"fmt"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
	"github.com/pranav100000/consilium-codegraph/internal/semantic"
	"github.com/pranav100000/consilium-codegraph/internal/semantic/goindexer"
)

// runSemanticPass runs the in-process Go semantic indexer over repoRoot and
// maps its artifact against the commit's known symbols. Only the bundled Go
// indexer runs here; TypeScript and Python semantic indexers are pluggable
// subprocesses invoked the same way by a caller that wants them, not wired
// into this orchestrator directly.
func (o *Orchestrator) runSemanticPass(repoRoot, commitID string, knownSymbols []ir.Symbol) ([]ir.Edge, error) {
	artifact, err := goindexer.Index(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("run go semantic indexer: %w", err)
	}
	mapper := semantic.NewMapper(o.logger)
	return mapper.Apply(commitID, artifact, knownSymbols), nil
}
