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

// Package semantic implements the semantic mapper: it upgrades
// syntactic edges to resolution=semantic by consuming an opaque JSON
// artifact produced by an external semantic indexer (subprocess, for TS and
// Python) or the in-process Go indexer in ./goindexer.
package semantic

import (
	"encoding/json"
	"fmt"
)

// Artifact is the wire format a semantic indexer emits: one JSON
// document per file set, naming symbols by FQN so the mapper can join them
// against the harness-produced IR without either side knowing the other's
// internal ids.
type Artifact struct {
	Indexer       string               `json:"indexer"`
	Language      string               `json:"language"`
	Symbols       []ArtifactSymbol     `json:"symbols"`
	Relationships []ArtifactRelation   `json:"relationships"`
}

// ArtifactSymbol names a symbol the indexer resolved, keyed by FQN plus the
// file it's declared in (the mapper joins on (file_path, fqn)).
type ArtifactSymbol struct {
	FilePath string `json:"file_path"`
	FQN      string `json:"fqn"`
	Kind     string `json:"kind"`
}

// ArtifactRelation is one semantically-resolved edge between two symbols,
// named by (file_path, fqn) pairs rather than internal symbol ids.
type ArtifactRelation struct {
	Type       string `json:"type"` // CALLS, EXTENDS, IMPLEMENTS, OVERRIDES, RETURNS, READS, WRITES
	SrcFile    string `json:"src_file"`
	SrcFQN     string `json:"src_fqn"`
	DstFile    string `json:"dst_file"`
	DstFQN     string `json:"dst_fqn"`
}

// DecodeArtifact parses the opaque bytes a semantic indexer produced. The
// mapper never inspects indexer-internal fields beyond this schema.
func DecodeArtifact(data []byte) (Artifact, error) {
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("decode semantic artifact: %w", err)
	}
	return a, nil
}

// Encode serializes an artifact, used by the in-process Go indexer to
// produce bytes in the same shape an external subprocess would.
func (a Artifact) Encode() ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("encode semantic artifact: %w", err)
	}
	return data, nil
}
