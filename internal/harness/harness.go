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

// Package harness implements the language harness contract: one harness per
// supported grammar (Go, Python, JavaScript, TypeScript), each turning raw
// source bytes into the normalized IR plus any UnresolvedCall records the
// incremental resolver needs to close after a full scan.
package harness

import (
	"fmt"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

// ProjectContext carries per-scan information a harness needs beyond the
// single file's bytes: the repo-relative path and the pinned commit id that
// every emitted IR value must be stamped with.
type ProjectContext struct {
	CommitID string
	Path     string
}

// UnresolvedCall is a CALLS edge a harness could not resolve against the
// current file alone (the callee lives in another file or package). The
// incremental resolver closes these after every file in a scan has parsed.
type UnresolvedCall struct {
	CommitID     string
	CallerSymbol string
	CalleeName   string // bare or qualified name as written at the call site
	Qualifier    string // import alias / package prefix, "" if unqualified
	FilePath     string
	Occurrence   ir.Occurrence
}

// ParseOutput is everything a harness produces from one file.
type ParseOutput struct {
	File            ir.File
	Symbols         []ir.Symbol
	Edges           []ir.Edge
	Occurrences     []ir.Occurrence
	UnresolvedCalls []UnresolvedCall
	ErrorNodeCount  int // tree-sitter ERROR node count; nonzero means partial parse
}

// Harness is the language harness contract: a harness
// reports whether it supports a language and turns file bytes into IR.
type Harness interface {
	Supports(language string) bool
	Parse(content []byte, ctx ProjectContext) (ParseOutput, error)
}

// Registry dispatches a language to its harness.
type Registry struct {
	harnesses []Harness
}

// NewRegistry builds the default registry: Go, Python, JavaScript,
// TypeScript, each backed by a pooled tree-sitter parser.
func NewRegistry() *Registry {
	return &Registry{
		harnesses: []Harness{
			NewGoHarness(),
			NewPythonHarness(),
			NewJavaScriptHarness(),
			NewTypeScriptHarness(),
		},
	}
}

// For returns the harness that supports language, or nil.
func (r *Registry) For(language string) Harness {
	for _, h := range r.harnesses {
		if h.Supports(language) {
			return h
		}
	}
	return nil
}

// LanguageFromPath maps a file extension to a harness language tag. Returns
// "" for extensions with no harness.
func LanguageFromPath(path string) string {
	switch {
	case hasSuffix(path, ".go"):
		return "go"
	case hasSuffix(path, ".py"):
		return "python"
	case hasSuffix(path, ".ts"), hasSuffix(path, ".tsx"):
		return "typescript"
	case hasSuffix(path, ".js"), hasSuffix(path, ".jsx"), hasSuffix(path, ".mjs"), hasSuffix(path, ".cjs"):
		return "javascript"
	default:
		return ""
	}
}

func hasSuffix(s, suffix string) bool {
	if len(s) < len(suffix) {
		return false
	}
	return s[len(s)-len(suffix):] == suffix
}

// pooledParser wraps a sync.Pool of tree-sitter parsers for one grammar.
// Parsers are not goroutine-safe, so every harness checks one out per
// parse and returns it when done.
type pooledParser struct {
	pool sync.Pool
	once sync.Once
	lang *sitter.Language
}

func newPooledParser(lang *sitter.Language) *pooledParser {
	return &pooledParser{lang: lang}
}

func (p *pooledParser) init() {
	p.once.Do(func() {
		p.pool.New = func() any {
			parser := sitter.NewParser()
			parser.SetLanguage(p.lang)
			return parser
		}
	})
}

func (p *pooledParser) parse(content []byte) (*sitter.Tree, func(), error) {
	p.init()
	obj := p.pool.Get()
	parser, ok := obj.(*sitter.Parser)
	if !ok {
		return nil, func() {}, fmt.Errorf("invalid parser type in pool")
	}
	release := func() { p.pool.Put(parser) }
	tree, err := parser.ParseCtx(nil, nil, content)
	if err != nil {
		release()
		return nil, func() {}, err
	}
	return tree, release, nil
}

var (
	goLang   = newPooledParser(golang.GetLanguage())
	pyLang   = newPooledParser(python.GetLanguage())
	jsLang   = newPooledParser(javascript.GetLanguage())
	tsLang   = newPooledParser(typescript.GetLanguage())
)

// countErrorNodes counts ERROR nodes in a tree, signalling a partial parse.
func countErrorNodes(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrorNodes(node.Child(i))
	}
	return count
}

func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	return string(content[node.StartByte():node.EndByte()])
}

func toPosition(p sitter.Point) ir.Position {
	return ir.Position{Line: int(p.Row) + 1, Col: int(p.Column) + 1}
}
