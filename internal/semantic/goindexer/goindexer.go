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

// Package goindexer is the one concrete external semantic indexer shipped
// in-tree: it loads a Go module with full type information via
// golang.org/x/tools/go/packages and emits the semantic-indexer artifact
// format the mapper consumes. TypeScript and Python semantic
// indexers remain pluggable subprocesses and are not bundled.
package goindexer

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"path/filepath"

	"golang.org/x/tools/go/packages"

	"github.com/pranav100000/consilium-codegraph/internal/semantic"
)

// Index loads every Go package rooted at dir and emits a semantic artifact
// describing resolved CALLS relationships. All loaded packages share one
// token.FileSet so a callee's definition position can be resolved back to
// a repo-relative path even when it's defined in a different package than
// the call site.
func Index(dir string) (semantic.Artifact, error) {
	fset := token.NewFileSet()
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedSyntax |
			packages.NeedTypes | packages.NeedTypesInfo | packages.NeedImports | packages.NeedDeps,
		Dir:  dir,
		Fset: fset,
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return semantic.Artifact{}, fmt.Errorf("load packages: %w", err)
	}
	_ = packages.PrintErrors(pkgs) // partial type info from packages with errors is still useful

	var art semantic.Artifact
	art.Indexer = "goindexer"
	art.Language = "go"

	for _, pkg := range pkgs {
		for i, file := range pkg.Syntax {
			filePath := pkg.CompiledGoFiles[i]
			rel, relErr := filepath.Rel(dir, filePath)
			if relErr != nil {
				rel = filePath
			}
			indexFile(pkg, file, rel, dir, fset, &art)
		}
	}
	return art, nil
}

func indexFile(pkg *packages.Package, file *ast.File, relPath, dir string, fset *token.FileSet, art *semantic.Artifact) {
	ast.Inspect(file, func(n ast.Node) bool {
		call, ok := n.(*ast.CallExpr)
		if !ok {
			return true
		}
		callerFQN := enclosingFuncFQN(pkg, file, call.Pos())
		if callerFQN == "" {
			return true
		}
		calleeFQN, calleeFile := resolveCallee(pkg, call, dir, fset)
		if calleeFQN == "" {
			return true
		}
		art.Relationships = append(art.Relationships, semantic.ArtifactRelation{
			Type:    "CALLS",
			SrcFile: relPath,
			SrcFQN:  callerFQN,
			DstFile: calleeFile,
			DstFQN:  calleeFQN,
		})
		return true
	})
}

// enclosingFuncFQN returns "package.Receiver.Method" or "package.Func" for
// the function declaration enclosing pos, or "" if pos isn't inside one.
func enclosingFuncFQN(pkg *packages.Package, file *ast.File, pos int) string {
	var result string
	ast.Inspect(file, func(n ast.Node) bool {
		fn, ok := n.(*ast.FuncDecl)
		if !ok {
			return true
		}
		if int(fn.Pos()) > pos || int(fn.End()) < pos {
			return true
		}
		name := fn.Name.Name
		if fn.Recv != nil && len(fn.Recv.List) > 0 {
			if t := recvTypeName(fn.Recv.List[0].Type); t != "" {
				name = t + "." + name
			}
		}
		result = pkg.Name + "." + name
		return false
	})
	return result
}

func recvTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return recvTypeName(t.X)
	case *ast.Ident:
		return t.Name
	default:
		return ""
	}
}

// resolveCallee uses the package's types.Info to resolve a call's target
// function to its defining package and a package.Name / package.Recv.Name
// FQN, matching the FQN scheme the Go harness produces syntactically so
// the mapper can join on it.
func resolveCallee(pkg *packages.Package, call *ast.CallExpr, dir string, fset *token.FileSet) (fqn, file string) {
	var ident *ast.Ident
	switch fn := call.Fun.(type) {
	case *ast.Ident:
		ident = fn
	case *ast.SelectorExpr:
		ident = fn.Sel
	default:
		return "", ""
	}
	obj := pkg.TypesInfo.Uses[ident]
	if obj == nil {
		return "", ""
	}
	fn, ok := obj.(*types.Func)
	if !ok {
		return "", ""
	}
	name := fn.Name()
	if sig, ok := fn.Type().(*types.Signature); ok && sig.Recv() != nil {
		recvType := sig.Recv().Type()
		if ptr, ok := recvType.(*types.Pointer); ok {
			recvType = ptr.Elem()
		}
		if named, ok := recvType.(*types.Named); ok {
			name = named.Obj().Name() + "." + name
		}
	}
	pkgName := ""
	if fn.Pkg() != nil {
		pkgName = fn.Pkg().Name()
	}
	pos := fset.Position(fn.Pos())
	relFile, err := filepath.Rel(dir, pos.Filename)
	if err != nil {
		relFile = pos.Filename
	}
	return pkgName + "." + name, relFile
}
