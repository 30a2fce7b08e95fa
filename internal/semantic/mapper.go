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

package semantic

import (
	"log/slog"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

// Mapper upgrades syntactic edges to semantic ones by joining an indexer
// Artifact against the symbols a scan already extracted. It never mutates
// the syntactic edges it supersedes; the graph engine, not the mapper,
// decides which of a syntactic/semantic pair wins a query.
type Mapper struct {
	logger *slog.Logger
}

// NewMapper constructs a mapper. A nil logger falls back to slog.Default,
// mirroring the nil-logger-falls-back-to-default constructor pattern used
// throughout this codebase.
func NewMapper(logger *slog.Logger) *Mapper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mapper{logger: logger}
}

// symbolKey is how the mapper joins an artifact symbol reference against
// the commit's known symbols: (file, fqn) is stable across a harness run
// even though sig_hash may differ between the syntactic and semantic view.
type symbolKey struct {
	file string
	fqn  string
}

// Apply joins artifact relationships against known symbols (by file+fqn)
// and returns the semantic edges to add to the commit's graph. Relations
// naming a symbol this commit doesn't know about are skipped with a
// warning log rather than failing the whole mapping pass.
func (m *Mapper) Apply(commitID string, artifact Artifact, knownSymbols []ir.Symbol) []ir.Edge {
	index := make(map[symbolKey]string, len(knownSymbols))
	for _, sym := range knownSymbols {
		index[symbolKey{file: sym.FilePath, fqn: sym.FQN}] = sym.ID
	}

	var edges []ir.Edge
	for _, rel := range artifact.Relationships {
		srcID, srcOK := index[symbolKey{file: rel.SrcFile, fqn: rel.SrcFQN}]
		dstID, dstOK := index[symbolKey{file: rel.DstFile, fqn: rel.DstFQN}]
		if !srcOK || !dstOK {
			m.logger.Warn("semantic.mapper.unresolved_relation",
				"src", rel.SrcFile+"#"+rel.SrcFQN,
				"dst", rel.DstFile+"#"+rel.DstFQN,
				"type", rel.Type,
				"indexer", artifact.Indexer,
			)
			continue
		}
		edges = append(edges, ir.Edge{
			CommitID:   commitID,
			Type:       ir.EdgeType(rel.Type),
			Src:        srcID,
			Dst:        dstID,
			Resolution: ir.ResolutionSemantic,
			Provenance: map[string]string{"indexer": artifact.Indexer},
		})
	}
	m.logger.Info("semantic.mapper.complete",
		"indexer", artifact.Indexer,
		"relations_in", len(artifact.Relationships),
		"edges_out", len(edges),
	)
	return edges
}
