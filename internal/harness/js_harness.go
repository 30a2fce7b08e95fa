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

// JavaScriptHarness extracts functions, classes and call expressions from
// JavaScript source via Tree-sitter.
type JavaScriptHarness struct{}

func NewJavaScriptHarness() *JavaScriptHarness { return &JavaScriptHarness{} }

func (h *JavaScriptHarness) Supports(language string) bool { return language == "javascript" }

func (h *JavaScriptHarness) Parse(content []byte, pctx ProjectContext) (ParseOutput, error) {
	return parseECMAScript(jsLang, "javascript", content, pctx)
}

// TypeScriptHarness extracts functions, classes, interfaces and call
// expressions from TypeScript source via Tree-sitter.
type TypeScriptHarness struct{}

func NewTypeScriptHarness() *TypeScriptHarness { return &TypeScriptHarness{} }

func (h *TypeScriptHarness) Supports(language string) bool { return language == "typescript" }

func (h *TypeScriptHarness) Parse(content []byte, pctx ProjectContext) (ParseOutput, error) {
	return parseECMAScript(tsLang, "typescript", content, pctx)
}

// parseECMAScript is shared between the JS and TS harnesses: the two
// grammars share almost all node types relevant to symbol/call extraction,
// differing mainly in type annotations the store doesn't need to resolve.
func parseECMAScript(lang *pooledParser, langTag string, content []byte, pctx ProjectContext) (ParseOutput, error) {
	tree, release, err := lang.parse(content)
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
			Language:    langTag,
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
		case "class_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				name := nodeText(nameNode, content)
				fqn := joinDot(append(append([]string{}, classStack...), name))
				sym := newSymbol(pctx, langTag, ir.KindClass, name, fqn, n)
				out.Symbols = append(out.Symbols, sym)
				classStack = append(classStack, name)
				walkClassBody(n, content, pctx, langTag, &out, nameToID, classStack[:len(classStack)-1])
				classStack = classStack[:len(classStack)-1]
				return
			}
		case "interface_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				name := nodeText(nameNode, content)
				fqn := joinDot(append(append([]string{}, classStack...), name))
				out.Symbols = append(out.Symbols, newSymbol(pctx, langTag, ir.KindInterface, name, fqn, n))
			}
		case "function_declaration":
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil {
				name := nodeText(nameNode, content)
				fqn := joinDot(append(append([]string{}, classStack...), name))
				sym := newSymbol(pctx, langTag, ir.KindFunction, name, fqn, n)
				sym.Signature = paramsText(n, content)
				out.Symbols = append(out.Symbols, sym)
				nameToID[name] = sym.ID
				edges, occs, unresolved := extractGenericCalls(n, pctx, langTag, content, sym.ID, nameToID)
				out.Edges = append(out.Edges, edges...)
				out.Occurrences = append(out.Occurrences, occs...)
				out.UnresolvedCalls = append(out.UnresolvedCalls, unresolved...)
			}
		case "import_statement":
			edges, occs := extractPyImport(n, pctx, content) // shared: whole-statement text as the import token
			out.Edges = append(out.Edges, edges...)
			out.Occurrences = append(out.Occurrences, occs...)
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			collect(n.Child(i))
		}
	}
	collect(root)
	return out, nil
}

func walkClassBody(classNode *sitter.Node, content []byte, pctx ProjectContext, langTag string, out *ParseOutput, nameToID map[string]string, ownerStack []string) {
	body := classNode.ChildByFieldName("body")
	if body == nil {
		return
	}
	for i := 0; i < int(body.ChildCount()); i++ {
		member := body.Child(i)
		if member.Type() != "method_definition" {
			continue
		}
		nameNode := member.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nodeText(nameNode, content)
		fqn := joinDot(append(append([]string{}, ownerStack...), name))
		sym := newSymbol(pctx, langTag, ir.KindMethod, name, fqn, member)
		sym.Signature = paramsText(member, content)
		out.Symbols = append(out.Symbols, sym)
		nameToID[name] = sym.ID
		edges, occs, unresolved := extractGenericCalls(member, pctx, langTag, content, sym.ID, nameToID)
		out.Edges = append(out.Edges, edges...)
		out.Occurrences = append(out.Occurrences, occs...)
		out.UnresolvedCalls = append(out.UnresolvedCalls, unresolved...)
	}
}
