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

package harness

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

// PythonHarness extracts def/class declarations and call expressions from
// Python source via Tree-sitter.
type PythonHarness struct{}

func NewPythonHarness() *PythonHarness { return &PythonHarness{} }

func (h *PythonHarness) Supports(language string) bool { return language == "python" }

func (h *PythonHarness) Parse(content []byte, pctx ProjectContext) (ParseOutput, error) {
	tree, release, err := pyLang.parse(content)
	if err != nil {
		return ParseOutput{}, err
	}
	defer release()
	defer tree.Close()

	root := tree.RootNode()
	out := ParseOutput{
		File: ir.File{
			CommitID:    pctx.CommitID,
			Path:        pctx.Path,
			ContentHash: ir.ContentHash(content),
			Language:    "python",
		},
		ErrorNodeCount: countErrorNodes(root),
	}

	nameToID := map[string]string{}
	var classStack []string

	var collect func(n *sitter.Node)
	collect = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "class_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				name := nodeText(nameNode, content)
				fqn := joinDot(append(append([]string{}, classStack...), name))
				sym := newSymbol(pctx, "python", ir.KindClass, name, fqn, n)
				out.Symbols = append(out.Symbols, sym)
				classStack = append(classStack, name)
				defer func() { classStack = classStack[:len(classStack)-1] }()
			}
		case "function_definition":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				name := nodeText(nameNode, content)
				kind := ir.KindFunction
				if len(classStack) > 0 {
					kind = ir.KindMethod
				}
				fqn := joinDot(append(append([]string{}, classStack...), name))
				sym := newSymbol(pctx, "python", kind, name, fqn, n)
				sym.Signature = paramsText(n, content)
				out.Symbols = append(out.Symbols, sym)
				nameToID[name] = sym.ID
				edges, occs, unresolved := extractGenericCalls(n, pctx, "python", content, sym.ID, nameToID)
				out.Edges = append(out.Edges, edges...)
				out.Occurrences = append(out.Occurrences, occs...)
				out.UnresolvedCalls = append(out.UnresolvedCalls, unresolved...)
			}
		case "import_statement", "import_from_statement":
			edges, occs := extractPyImport(n, pctx, content)
			out.Edges = append(out.Edges, edges...)
			out.Occurrences = append(out.Occurrences, occs...)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			collect(n.Child(i))
		}
	}
	collect(root)
	return out, nil
}

func extractPyImport(n *sitter.Node, pctx ProjectContext, content []byte) ([]ir.Edge, []ir.Occurrence) {
	text := nodeText(n, content)
	return []ir.Edge{{
			CommitID:   pctx.CommitID,
			Type:       ir.EdgeImports,
			Src:        pctx.Path,
			Dst:        text,
			Resolution: ir.ResolutionSyntactic,
		}}, []ir.Occurrence{{
			CommitID: pctx.CommitID,
			FilePath: pctx.Path,
			Role:     ir.RoleRef,
			Start:    toPosition(n.StartPoint()),
			End:      toPosition(n.EndPoint()),
			Token:    text,
		}}
}

func joinDot(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}

func paramsText(n *sitter.Node, content []byte) string {
	params := n.ChildByFieldName("parameters")
	if params == nil {
		return ""
	}
	return nodeText(params, content)
}

// newSymbol builds a Symbol whose signature hash is the fixed hash of an
// all-unknown shape (no meaningful param shape syntactically available),
// used by the dynamic-language harnesses.
func newSymbol(pctx ProjectContext, lang string, kind ir.SymbolKind, name, fqn string, n *sitter.Node) ir.Symbol {
	hash := ir.SigHash(ir.SignatureShape{ReturnKind: ir.ParamUnknown})
	return ir.Symbol{
		ID:         ir.SymbolID(pctx.CommitID, pctx.Path, lang, fqn, hash),
		CommitID:   pctx.CommitID,
		Kind:       kind,
		Name:       name,
		FQN:        fqn,
		SigHash:    hash,
		Language:   lang,
		FilePath:   pctx.Path,
		SpanStart:  toPosition(n.StartPoint()),
		SpanEnd:    toPosition(n.EndPoint()),
		Visibility: "public",
	}
}

// extractGenericCalls walks a function body for call nodes (Python's "call"
// and JS/TS's "call_expression" node types) and either
// resolves them against the in-file name table or emits an UnresolvedCall.
func extractGenericCalls(fnNode *sitter.Node, pctx ProjectContext, lang string, content []byte, callerID string, nameToID map[string]string) ([]ir.Edge, []ir.Occurrence, []UnresolvedCall) {
	var edges []ir.Edge
	var occs []ir.Occurrence
	var unresolved []UnresolvedCall

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call" || n.Type() == "call_expression" {
			fn := n.ChildByFieldName("function")
			if fn == nil {
				fn = n.Child(0)
			}
			if fn != nil {
				occ := ir.Occurrence{
					CommitID: pctx.CommitID,
					FilePath: pctx.Path,
					Role:     ir.RoleCall,
					Start:    toPosition(fn.StartPoint()),
					End:      toPosition(fn.EndPoint()),
					Token:    nodeText(fn, content),
				}
				name := nodeText(fn, content)
				qualifier := ""
				if fn.Type() == "attribute" || fn.Type() == "member_expression" {
					obj := fn.ChildByFieldName("object")
					attr := fn.ChildByFieldName("attribute")
					if attr == nil {
						attr = fn.ChildByFieldName("property")
					}
					if attr != nil {
						name = nodeText(attr, content)
					}
					if obj != nil {
						qualifier = nodeText(obj, content)
					}
				}
				if calleeID, ok := nameToID[name]; ok && qualifier == "" {
					occ.SymbolID = calleeID
					edges = append(edges, ir.Edge{CommitID: pctx.CommitID, Type: ir.EdgeCalls, Src: callerID, Dst: calleeID, Resolution: ir.ResolutionSyntactic})
				} else {
					unresolved = append(unresolved, UnresolvedCall{CommitID: pctx.CommitID, CallerSymbol: callerID, CalleeName: name, Qualifier: qualifier, FilePath: pctx.Path, Occurrence: occ})
				}
				occs = append(occs, occ)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(fnNode)
	return edges, occs, unresolved
}
