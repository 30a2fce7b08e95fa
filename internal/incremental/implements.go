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
	"strings"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

// BuildImplementsIndex determines which concrete Go types implement which
// interfaces by comparing method sets, emitting an IMPLEMENTS edge for
// every (concrete type, interface) pair where the type has every method
// the interface declares.
func BuildImplementsIndex(commitID string, symbols []ir.Symbol) []ir.Edge {
	interfaces := map[string][]string{} // interface FQN -> method names
	interfaceSymbol := map[string]string{}
	typeMethods := map[string]map[string]bool{} // receiver type name -> method set
	typeSymbol := map[string]string{}

	for _, s := range symbols {
		switch s.Kind {
		case ir.KindInterface:
			interfaceSymbol[s.FQN] = s.ID
			interfaces[s.FQN] = extractInterfaceMethodNames(s.Signature)
		case ir.KindClass, ir.KindType:
			typeSymbol[s.FQN] = s.ID
		case ir.KindMethod:
			if idx := strings.LastIndex(s.Name, "."); idx >= 0 {
				method := s.Name[idx+1:]
				recvFQN := packageOf(s.FQN) // "pkg.Type.Method" -> "pkg.Type"
				if typeMethods[recvFQN] == nil {
					typeMethods[recvFQN] = map[string]bool{}
				}
				typeMethods[recvFQN][method] = true
			}
		}
	}

	var edges []ir.Edge
	for ifaceFQN, methods := range interfaces {
		if len(methods) == 0 {
			continue
		}
		ifaceID := interfaceSymbol[ifaceFQN]
		for typeFQN, methodSet := range typeMethods {
			if typeFQN == ifaceFQN {
				continue
			}
			if !hasAllMethods(methodSet, methods) {
				continue
			}
			typeID, ok := typeSymbol[typeFQN]
			if !ok {
				continue
			}
			edges = append(edges, ir.Edge{
				CommitID:   commitID,
				Type:       ir.EdgeImplements,
				Src:        typeID,
				Dst:        ifaceID,
				Resolution: ir.ResolutionSyntactic,
			})
		}
	}
	return edges
}

func packageOf(fqn string) string {
	idx := strings.LastIndex(fqn, ".")
	if idx < 0 {
		return ""
	}
	return fqn[:idx]
}

func hasAllMethods(methods map[string]bool, required []string) bool {
	for _, m := range required {
		if !methods[m] {
			return false
		}
	}
	return true
}

// extractInterfaceMethodNames parses method names out of an interface
// body's source text, a line-anchored heuristic over raw signature text:
// each line that starts with an exported identifier followed by "(" counts
// as one method.
func extractInterfaceMethodNames(body string) []string {
	var names []string
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "{" || trimmed == "}" {
			continue
		}
		idx := strings.Index(trimmed, "(")
		if idx <= 0 {
			continue
		}
		name := trimmed[:idx]
		if name == "" || !(name[0] >= 'A' && name[0] <= 'Z') {
			continue
		}
		names = append(names, name)
	}
	return names
}
