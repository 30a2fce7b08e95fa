// Package ir defines the canonical intermediate representation shared by
// every stage of the indexing pipeline: the normalized shape that language
// harnesses emit, the semantic mapper upgrades, the store persists, and the
// graph engine traverses.
package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash/fnv"
	"sort"
	"strings"
)

// SymbolKind enumerates the kinds of named entities the harnesses extract.
type SymbolKind string

const (
	KindFunction    SymbolKind = "function"
	KindMethod      SymbolKind = "method"
	KindClass       SymbolKind = "class"
	KindInterface   SymbolKind = "interface"
	KindVariable    SymbolKind = "variable"
	KindType        SymbolKind = "type"
	KindModule      SymbolKind = "module"
	KindPackage     SymbolKind = "package"
	KindNamespace   SymbolKind = "namespace"
	KindField       SymbolKind = "field"
	KindEnum        SymbolKind = "enum"
	KindEnumMember  SymbolKind = "enum_member"
)

// EdgeType enumerates the directed relations recorded between symbols (or,
// for file-level IMPORTS, between files).
type EdgeType string

const (
	EdgeContains   EdgeType = "CONTAINS"
	EdgeDeclares   EdgeType = "DECLARES"
	EdgeCalls      EdgeType = "CALLS"
	EdgeImports    EdgeType = "IMPORTS"
	EdgeExtends    EdgeType = "EXTENDS"
	EdgeImplements EdgeType = "IMPLEMENTS"
	EdgeOverrides  EdgeType = "OVERRIDES"
	EdgeReturns    EdgeType = "RETURNS"
	EdgeReads      EdgeType = "READS"
	EdgeWrites     EdgeType = "WRITES"
)

// Resolution distinguishes edges derived from grammar alone (syntactic)
// from edges resolved by an external semantic indexer.
type Resolution string

const (
	ResolutionSyntactic Resolution = "syntactic"
	ResolutionSemantic  Resolution = "semantic"
)

// OccurrenceRole classifies a single textual appearance of a symbol.
type OccurrenceRole string

const (
	RoleRef        OccurrenceRole = "ref"
	RoleRead       OccurrenceRole = "read"
	RoleWrite      OccurrenceRole = "write"
	RoleCall       OccurrenceRole = "call"
	RoleExtend     OccurrenceRole = "extend"
	RoleImplement  OccurrenceRole = "implement"
	RoleDefinition OccurrenceRole = "definition"
)

// Position is a 1-indexed line/column location within a file.
type Position struct {
	Line int
	Col  int
}

// CommitSnapshot identifies a single pinned scan target.
type CommitSnapshot struct {
	CommitID  string
	Timestamp int64 // unix seconds
	Parent    string
}

// File is a single source file as seen at a commit.
type File struct {
	CommitID    string
	Path        string // repo-relative, forward-slash normalized
	ContentHash string
	Language    string
}

// Symbol is a named entity extracted (or upgraded) during a scan.
type Symbol struct {
	ID         string
	CommitID   string
	Kind       SymbolKind
	Name       string
	FQN        string
	Signature  string
	SigHash    uint64
	Language   string
	FilePath   string
	SpanStart  Position
	SpanEnd    Position
	Visibility string // optional; "" when not applicable
	Doc        string // optional
}

// Edge is a typed directed relation between two symbols, or (for file-level
// IMPORTS) between two file paths.
type Edge struct {
	CommitID   string
	Type       EdgeType
	Src        string
	Dst        string
	Resolution Resolution
	Provenance map[string]string // producer name/version for semantic edges
}

// Occurrence is a single textual appearance of a symbol at a file span.
type Occurrence struct {
	CommitID string
	FilePath string
	SymbolID string // optional; "" when the occurrence could not be resolved
	Role     OccurrenceRole
	Start    Position
	End      Position
	Token    string
}

// SymbolID computes the deterministic identity of a symbol from its
// defining inputs: repo://{commit}/{path}#sym({lang}:{fqn}:{sigHash}).
// Equal inputs always produce an equal id, on any machine, on any run.
func SymbolID(commitID, path, lang, fqn string, sigHash uint64) string {
	return fmt.Sprintf("repo://%s/%s#sym(%s:%s:%016x)", commitID, path, lang, fqn, sigHash)
}

// ParamKind is the coarse shape a signature parameter is reduced to before
// hashing, so syntactic-only extraction (which cannot resolve real types)
// still produces a stable hash that semantic upgrade may later refine.
type ParamKind string

const (
	ParamValue    ParamKind = "value"
	ParamVariadic ParamKind = "variadic"
	ParamKeyword  ParamKind = "keyword"
	ParamUnknown  ParamKind = "?"
)

// TypedParamKind tags a parameter whose static type is known.
func TypedParamKind(t string) ParamKind {
	return ParamKind("typed:" + t)
}

// SignatureShape is the coarse, language-agnostic shape of a callable
// signature used to compute a stable signature hash.
type SignatureShape struct {
	ParamKinds []ParamKind
	ReturnKind ParamKind
}

// SigHash computes a stable 64-bit FNV-1a hash over a signature shape.
// A narrower, non-cryptographic hash is used deliberately here (as opposed
// to the SHA-256 used for content hashing elsewhere) since sig_hash only
// needs to disambiguate overloads, not resist tampering.
func SigHash(shape SignatureShape) uint64 {
	h := fnv.New64a()
	for _, k := range shape.ParamKinds {
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{0})
	}
	_, _ = h.Write([]byte("->"))
	_, _ = h.Write([]byte(shape.ReturnKind))
	return h.Sum64()
}

// ContentHash computes a stable SHA-256 hex digest of file bytes.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// NaturalKey returns the edge's natural key the store uses for insert-or-replace
// conflict resolution: (commit_id, src, dst, type, resolution).
func (e Edge) NaturalKey() string {
	return strings.Join([]string{e.CommitID, e.Src, e.Dst, string(e.Type), string(e.Resolution)}, "\x1f")
}

// NaturalKey returns the natural key for symbols: (commit_id, fqn, sig_hash).
func (s Symbol) NaturalKey() string {
	return fmt.Sprintf("%s\x1f%s\x1f%016x", s.CommitID, s.FQN, s.SigHash)
}

// SortSymbols orders symbols deterministically by FQN then sig hash, the
// canonical ordering used for re-scan determinism comparisons.
func SortSymbols(symbols []Symbol) {
	sort.Slice(symbols, func(i, j int) bool {
		if symbols[i].FQN != symbols[j].FQN {
			return symbols[i].FQN < symbols[j].FQN
		}
		return symbols[i].SigHash < symbols[j].SigHash
	})
}

// SortEdges orders edges deterministically for canonical comparisons.
func SortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Src != b.Src {
			return a.Src < b.Src
		}
		if a.Dst != b.Dst {
			return a.Dst < b.Dst
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Resolution < b.Resolution
	})
}
