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
	"path"
	"strings"

	"github.com/pranav100000/consilium-codegraph/internal/incremental"
	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

// moduleRootPath parses the module directive out of a go.mod file's bytes,
// the only line the planner's import-graph builder needs from it. Returns
// "" if the content has no module directive (non-Go repos have nothing to
// resolve import edges against).
func moduleRootPath(goModContent []byte) string {
	for _, line := range strings.Split(string(goModContent), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "module ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "module"))
		}
	}
	return ""
}

// packageImportPath maps a repo-relative file path to the Go import path of
// the package that declares it, by directory convention: modulePath plus
// the file's directory, forward-slash joined.
func packageImportPath(modulePath, filePath string) string {
	dir := path.Dir(filePath)
	if dir == "." {
		return modulePath
	}
	return modulePath + "/" + dir
}

// buildImportGraph turns a commit's recorded IMPORTS edges (file path ->
// raw import string) into the reverse adjacency the incremental planner
// needs to expand a dirty set to its impacted set: for each known file, the
// files that import the package it belongs to.
//
// Only Go import edges are resolved this way; other-language import edges
// (module specifiers, not package directories) fall outside this mapping
// and simply never widen the impacted set, which is a conservative miss
// rather than a false impact.
func buildImportGraph(modulePath string, filePaths []string, importEdges []ir.Edge) incremental.ImportGraph {
	graph := incremental.ImportGraph{ImportedBy: map[string][]string{}}
	if modulePath == "" {
		return graph
	}

	filesByPackage := map[string][]string{}
	for _, p := range filePaths {
		pkg := packageImportPath(modulePath, p)
		filesByPackage[pkg] = append(filesByPackage[pkg], p)
	}

	for _, e := range importEdges {
		for _, importedFile := range filesByPackage[e.Dst] {
			graph.ImportedBy[importedFile] = append(graph.ImportedBy[importedFile], e.Src)
		}
	}
	return graph
}
