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
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

// GoHarness extracts symbols, edges and occurrences from Go source via
// Tree-sitter, the primary language harness. It runs a two-pass walk: first
// collect every declaration so forward references resolve, then walk each
// function body for calls and other occurrences.
type GoHarness struct{}

func NewGoHarness() *GoHarness { return &GoHarness{} }

func (h *GoHarness) Supports(language string) bool { return language == "go" }

type goFuncContext struct {
	content     []byte
	path        string
	commitID    string
	packageName string
	nameToID    map[string]string // simple func/method name -> symbol id, for same-file call resolution
}

func (h *GoHarness) Parse(content []byte, pctx ProjectContext) (ParseOutput, error) {
	tree, release, err := goLang.parse(content)
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
			Language:    "go",
		},
		ErrorNodeCount: countErrorNodes(root),
	}

	ctx := &goFuncContext{content: content, path: pctx.Path, commitID: pctx.CommitID, nameToID: map[string]string{}}
	ctx.packageName = h.extractPackageName(root, content)

	type funcRec struct {
		sym  ir.Symbol
		node *sitter.Node
	}
	var funcs []funcRec

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Type() {
		case "function_declaration":
			if sym := h.extractFunction(n, ctx); sym != nil {
				funcs = append(funcs, funcRec{*sym, n})
				ctx.nameToID[sym.Name] = sym.ID
				out.Symbols = append(out.Symbols, *sym)
			}
		case "method_declaration":
			if sym := h.extractMethod(n, ctx); sym != nil {
				funcs = append(funcs, funcRec{*sym, n})
				simple := sym.Name
				if idx := strings.LastIndex(simple, "."); idx >= 0 {
					simple = simple[idx+1:]
				}
				ctx.nameToID[simple] = sym.ID
				out.Symbols = append(out.Symbols, *sym)
			}
		case "type_declaration":
			out.Symbols = append(out.Symbols, h.extractTypes(n, ctx)...)
		case "import_declaration":
			edges, occs := h.extractImports(n, ctx)
			out.Edges = append(out.Edges, edges...)
			out.Occurrences = append(out.Occurrences, occs...)
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)

	for _, fr := range funcs {
		edges, occs, unresolved := h.extractCalls(fr.node, ctx, fr.sym.ID)
		out.Edges = append(out.Edges, edges...)
		out.Occurrences = append(out.Occurrences, occs...)
		out.UnresolvedCalls = append(out.UnresolvedCalls, unresolved...)
	}

	return out, nil
}

func (h *GoHarness) extractPackageName(root *sitter.Node, content []byte) string {
	for i := 0; i < int(root.ChildCount()); i++ {
		c := root.Child(i)
		if c.Type() == "package_clause" {
			if id := c.ChildByFieldName("name"); id != nil {
				return nodeText(id, content)
			}
		}
	}
	return ""
}

func (h *GoHarness) extractFunction(n *sitter.Node, ctx *goFuncContext) *ir.Symbol {
	nameNode := n.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nodeText(nameNode, ctx.content)
	sig := h.signatureText(n, ctx.content)
	fqn := ctx.packageName + "." + name
	shape := h.signatureShape(n, ctx.content)
	hash := ir.SigHash(shape)
	sym := ir.Symbol{
		ID:        ir.SymbolID(ctx.commitID, ctx.path, "go", fqn, hash),
		CommitID:  ctx.commitID,
		Kind:      ir.KindFunction,
		Name:      name,
		FQN:       fqn,
		Signature: sig,
		SigHash:   hash,
		Language:  "go",
		FilePath:  ctx.path,
		SpanStart: toPosition(n.StartPoint()),
		SpanEnd:   toPosition(n.EndPoint()),
		Visibility: visibilityOf(name),
	}
	return &sym
}

func (h *GoHarness) extractMethod(n *sitter.Node, ctx *goFuncContext) *ir.Symbol {
	nameNode := n.ChildByFieldName("name")
	recvNode := n.ChildByFieldName("receiver")
	if nameNode == nil || recvNode == nil {
		return nil
	}
	name := nodeText(nameNode, ctx.content)
	recvType := h.receiverTypeName(recvNode, ctx.content)
	qualifiedName := recvType + "." + name
	fqn := ctx.packageName + "." + qualifiedName
	shape := h.signatureShape(n, ctx.content)
	hash := ir.SigHash(shape)
	sym := ir.Symbol{
		ID:         ir.SymbolID(ctx.commitID, ctx.path, "go", fqn, hash),
		CommitID:   ctx.commitID,
		Kind:       ir.KindMethod,
		Name:       qualifiedName,
		FQN:        fqn,
		Signature:  h.signatureText(n, ctx.content),
		SigHash:    hash,
		Language:   "go",
		FilePath:   ctx.path,
		SpanStart:  toPosition(n.StartPoint()),
		SpanEnd:    toPosition(n.EndPoint()),
		Visibility: visibilityOf(name),
	}
	return &sym
}

func (h *GoHarness) receiverTypeName(recv *sitter.Node, content []byte) string {
	// receiver is a parameter_list with one parameter_declaration whose
	// type may be a pointer_type wrapping a type_identifier.
	for i := 0; i < int(recv.ChildCount()); i++ {
		child := recv.Child(i)
		if child.Type() != "parameter_declaration" {
			continue
		}
		t := child.ChildByFieldName("type")
		if t == nil {
			continue
		}
		if t.Type() == "pointer_type" {
			inner := t.Child(1)
			return nodeText(inner, content)
		}
		return nodeText(t, content)
	}
	return ""
}

func (h *GoHarness) signatureText(n *sitter.Node, content []byte) string {
	params := n.ChildByFieldName("parameters")
	result := n.ChildByFieldName("result")
	sig := "("
	if params != nil {
		sig += nodeText(params, content)
	}
	sig += ")"
	if result != nil {
		sig += " " + nodeText(result, content)
	}
	return sig
}

func (h *GoHarness) signatureShape(n *sitter.Node, content []byte) ir.SignatureShape {
	var shape ir.SignatureShape
	params := n.ChildByFieldName("parameters")
	if params != nil {
		for i := 0; i < int(params.ChildCount()); i++ {
			p := params.Child(i)
			if p.Type() != "parameter_declaration" && p.Type() != "variadic_parameter_declaration" {
				continue
			}
			t := p.ChildByFieldName("type")
			if p.Type() == "variadic_parameter_declaration" {
				shape.ParamKinds = append(shape.ParamKinds, ir.ParamVariadic)
				continue
			}
			if t != nil {
				shape.ParamKinds = append(shape.ParamKinds, ir.TypedParamKind(nodeText(t, content)))
			} else {
				shape.ParamKinds = append(shape.ParamKinds, ir.ParamUnknown)
			}
		}
	}
	result := n.ChildByFieldName("result")
	if result != nil {
		shape.ReturnKind = ir.TypedParamKind(nodeText(result, content))
	} else {
		shape.ReturnKind = ir.ParamUnknown
	}
	return shape
}

func (h *GoHarness) extractTypes(n *sitter.Node, ctx *goFuncContext) []ir.Symbol {
	var syms []ir.Symbol
	for i := 0; i < int(n.ChildCount()); i++ {
		spec := n.Child(i)
		if spec.Type() != "type_spec" {
			continue
		}
		nameNode := spec.ChildByFieldName("name")
		typeNode := spec.ChildByFieldName("type")
		if nameNode == nil || typeNode == nil {
			continue
		}
		name := nodeText(nameNode, ctx.content)
		kind := ir.KindType
		switch typeNode.Type() {
		case "struct_type":
			kind = ir.KindClass
		case "interface_type":
			kind = ir.KindInterface
		}
		fqn := ctx.packageName + "." + name
		shape := ir.SignatureShape{ReturnKind: ir.ParamUnknown}
		hash := ir.SigHash(shape)
		syms = append(syms, ir.Symbol{
			ID:         ir.SymbolID(ctx.commitID, ctx.path, "go", fqn, hash),
			CommitID:   ctx.commitID,
			Kind:       kind,
			Name:       name,
			FQN:        fqn,
			Signature:  nodeText(typeNode, ctx.content),
			SigHash:    hash,
			Language:   "go",
			FilePath:   ctx.path,
			SpanStart:  toPosition(spec.StartPoint()),
			SpanEnd:    toPosition(spec.EndPoint()),
			Visibility: visibilityOf(name),
		})
		if typeNode.Type() == "struct_type" {
			syms = append(syms, h.extractFields(typeNode, ctx, fqn)...)
		}
	}
	return syms
}

func (h *GoHarness) extractFields(structNode *sitter.Node, ctx *goFuncContext, ownerFQN string) []ir.Symbol {
	var syms []ir.Symbol
	fieldList := structNode.ChildByFieldName("body")
	if fieldList == nil {
		return syms
	}
	for i := 0; i < int(fieldList.ChildCount()); i++ {
		decl := fieldList.Child(i)
		if decl.Type() != "field_declaration" {
			continue
		}
		nameNode := decl.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := nodeText(nameNode, ctx.content)
		fqn := ownerFQN + "." + name
		shape := ir.SignatureShape{ReturnKind: ir.ParamUnknown}
		hash := ir.SigHash(shape)
		syms = append(syms, ir.Symbol{
			ID:         ir.SymbolID(ctx.commitID, ctx.path, "go", fqn, hash),
			CommitID:   ctx.commitID,
			Kind:       ir.KindField,
			Name:       name,
			FQN:        fqn,
			Language:   "go",
			FilePath:   ctx.path,
			SpanStart:  toPosition(decl.StartPoint()),
			SpanEnd:    toPosition(decl.EndPoint()),
			Visibility: visibilityOf(name),
		})
	}
	return syms
}

func (h *GoHarness) extractImports(n *sitter.Node, ctx *goFuncContext) ([]ir.Edge, []ir.Occurrence) {
	var edges []ir.Edge
	var occs []ir.Occurrence
	var specs []*sitter.Node
	spec := n.ChildByFieldName("spec")
	if spec != nil {
		specs = append(specs, spec)
	}
	// import blocks wrap multiple import_spec nodes under import_spec_list
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if c.Type() == "import_spec_list" {
			for j := 0; j < int(c.ChildCount()); j++ {
				if c.Child(j).Type() == "import_spec" {
					specs = append(specs, c.Child(j))
				}
			}
		} else if c.Type() == "import_spec" {
			specs = append(specs, c)
		}
	}
	for _, s := range specs {
		pathNode := s.ChildByFieldName("path")
		if pathNode == nil {
			continue
		}
		importPath := strings.Trim(nodeText(pathNode, ctx.content), `"`)
		edges = append(edges, ir.Edge{
			CommitID:   ctx.commitID,
			Type:       ir.EdgeImports,
			Src:        ctx.path,
			Dst:        importPath,
			Resolution: ir.ResolutionSyntactic,
		})
		occs = append(occs, ir.Occurrence{
			CommitID: ctx.commitID,
			FilePath: ctx.path,
			Role:     ir.RoleRef,
			Start:    toPosition(s.StartPoint()),
			End:      toPosition(s.EndPoint()),
			Token:    importPath,
		})
	}
	return edges, occs
}

func (h *GoHarness) extractCalls(fnNode *sitter.Node, ctx *goFuncContext, callerID string) ([]ir.Edge, []ir.Occurrence, []UnresolvedCall) {
	var edges []ir.Edge
	var occs []ir.Occurrence
	var unresolved []UnresolvedCall

	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Type() == "call_expression" {
			fn := n.ChildByFieldName("function")
			if fn != nil {
				edges, occs, unresolved = h.resolveCall(fn, n, ctx, callerID, edges, occs, unresolved)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(fnNode)
	return edges, occs, unresolved
}

func (h *GoHarness) resolveCall(fn, callNode *sitter.Node, ctx *goFuncContext, callerID string, edges []ir.Edge, occs []ir.Occurrence, unresolved []UnresolvedCall) ([]ir.Edge, []ir.Occurrence, []UnresolvedCall) {
	occ := ir.Occurrence{
		CommitID: ctx.commitID,
		FilePath: ctx.path,
		Role:     ir.RoleCall,
		Start:    toPosition(fn.StartPoint()),
		End:      toPosition(fn.EndPoint()),
		Token:    nodeText(fn, ctx.content),
	}

	switch fn.Type() {
	case "identifier":
		name := nodeText(fn, ctx.content)
		if calleeID, ok := ctx.nameToID[name]; ok {
			occ.SymbolID = calleeID
			edges = append(edges, ir.Edge{CommitID: ctx.commitID, Type: ir.EdgeCalls, Src: callerID, Dst: calleeID, Resolution: ir.ResolutionSyntactic})
		} else {
			unresolved = append(unresolved, UnresolvedCall{
				CommitID: ctx.commitID, CallerSymbol: callerID, CalleeName: name, FilePath: ctx.path, Occurrence: occ,
			})
		}
	case "selector_expression":
		operand := fn.ChildByFieldName("operand")
		field := fn.ChildByFieldName("field")
		if field == nil {
			break
		}
		name := nodeText(field, ctx.content)
		qualifier := ""
		if operand != nil {
			qualifier = nodeText(operand, ctx.content)
		}
		// Same-package method call on a local value, e.g. receiver.Method(); we
		// don't know the receiver's type syntactically so this always defers
		// to the cross-file/cross-package resolver.
		unresolved = append(unresolved, UnresolvedCall{
			CommitID: ctx.commitID, CallerSymbol: callerID, CalleeName: name, Qualifier: qualifier, FilePath: ctx.path, Occurrence: occ,
		})
	}
	occs = append(occs, occ)
	return edges, occs, unresolved
}

func visibilityOf(name string) string {
	if name == "" {
		return ""
	}
	r := name[0]
	if r >= 'A' && r <= 'Z' {
		return "exported"
	}
	return "unexported"
}
