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

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
)

func scanSymbol(rows interface {
	Scan(...any) error
}) (ir.Symbol, error) {
	var sym ir.Symbol
	var kind, sig, visibility, doc sql.NullString
	var sigHash int64
	err := rows.Scan(&sym.ID, &sym.CommitID, &kind, &sym.Name, &sym.FQN, &sig, &sigHash,
		&sym.Language, &sym.FilePath, &sym.SpanStart.Line, &sym.SpanStart.Col,
		&sym.SpanEnd.Line, &sym.SpanEnd.Col, &visibility, &doc)
	if err != nil {
		return sym, err
	}
	sym.Kind = ir.SymbolKind(kind.String)
	sym.Signature = sig.String
	sym.SigHash = uint64(sigHash)
	sym.Visibility = visibility.String
	sym.Doc = doc.String
	return sym, nil
}

const symbolColumns = `id, commit_id, kind, name, fqn, signature, sig_hash, language, file_path, start_line, start_col, end_line, end_col, visibility, doc`

// GetSymbol fetches a single symbol by id within a commit.
func (s *Store) GetSymbol(ctx context.Context, commitID, id string) (ir.Symbol, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return ir.Symbol{}, false, err
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE commit_id = ? AND id = ?`, commitID, id)
	sym, err := scanSymbol(row)
	if err == sql.ErrNoRows {
		return ir.Symbol{}, false, nil
	}
	if err != nil {
		return ir.Symbol{}, false, fmt.Errorf("get symbol %s: %w", id, err)
	}
	return sym, true, nil
}

// FindSymbols looks up symbols by exact name or FQN substring within a
// commit, ordered deterministically.
func (s *Store) FindSymbols(ctx context.Context, commitID, namePattern string, limit int) ([]ir.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+symbolColumns+` FROM symbols
		WHERE commit_id = ? AND (name = ? OR fqn LIKE ?)
		ORDER BY fqn, sig_hash LIMIT ?`, commitID, namePattern, "%"+namePattern+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("find symbols %s: %w", namePattern, err)
	}
	defer rows.Close()
	return collectSymbols(rows)
}

// SymbolsInFile returns every symbol declared in path at commitID.
func (s *Store) SymbolsInFile(ctx context.Context, commitID, path string) ([]ir.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+symbolColumns+` FROM symbols
		WHERE commit_id = ? AND file_path = ? ORDER BY start_line`, commitID, path)
	if err != nil {
		return nil, fmt.Errorf("symbols in file %s: %w", path, err)
	}
	defer rows.Close()
	return collectSymbols(rows)
}

func collectSymbols(rows *sql.Rows) ([]ir.Symbol, error) {
	var out []ir.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, fmt.Errorf("scan symbol row: %w", err)
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// AllSymbols returns every symbol recorded for commitID, used by the
// incremental resolver and semantic mapper to build their in-memory
// indexes over the whole commit rather than one file at a time.
func (s *Store) AllSymbols(ctx context.Context, commitID string) ([]ir.Symbol, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE commit_id = ? ORDER BY fqn, sig_hash`, commitID)
	if err != nil {
		return nil, fmt.Errorf("all symbols: %w", err)
	}
	defer rows.Close()
	return collectSymbols(rows)
}

// Edges returns every edge of type edgeType with src == nodeID (direction
// "out") or dst == nodeID (direction "in") at commitID.
func (s *Store) Edges(ctx context.Context, commitID, nodeID string, edgeType ir.EdgeType, direction string) ([]ir.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	col := "dst"
	if direction == "out" {
		col = "src"
	}
	query := fmt.Sprintf(`SELECT commit_id, type, src, dst, resolution, provenance FROM edges WHERE commit_id = ? AND type = ? AND %s = ?`, col)
	rows, err := s.db.QueryContext(ctx, query, commitID, string(edgeType), nodeID)
	if err != nil {
		return nil, fmt.Errorf("edges for %s: %w", nodeID, err)
	}
	defer rows.Close()
	var out []ir.Edge
	for rows.Next() {
		var e ir.Edge
		var typ, resolution, provenance string
		if err := rows.Scan(&e.CommitID, &typ, &e.Src, &e.Dst, &resolution, &provenance); err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		e.Type = ir.EdgeType(typ)
		e.Resolution = ir.Resolution(resolution)
		out = append(out, e)
	}
	return out, rows.Err()
}

// AllEdges returns every edge of type edgeType for commitID, used by the
// graph engine to build its in-memory adjacency structures.
func (s *Store) AllEdges(ctx context.Context, commitID string, edgeType ir.EdgeType) ([]ir.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT commit_id, type, src, dst, resolution, provenance FROM edges WHERE commit_id = ? AND type = ?`, commitID, string(edgeType))
	if err != nil {
		return nil, fmt.Errorf("all edges: %w", err)
	}
	defer rows.Close()
	var out []ir.Edge
	for rows.Next() {
		var e ir.Edge
		var typ, resolution, provenance string
		if err := rows.Scan(&e.CommitID, &typ, &e.Src, &e.Dst, &resolution, &provenance); err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		e.Type = ir.EdgeType(typ)
		e.Resolution = ir.Resolution(resolution)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Stats summarizes a commit's graph as per-table row counts.
type Stats struct {
	Files       int
	Symbols     int
	Edges       int
	Occurrences int
}

// GetStats computes row counts for a commit.
func (s *Store) GetStats(ctx context.Context, commitID string) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return Stats{}, err
	}
	var st Stats
	for table, dest := range map[string]*int{"files": &st.Files, "symbols": &st.Symbols, "edges": &st.Edges, "occurrences": &st.Occurrences} {
		row := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE commit_id = ?`, table), commitID)
		if err := row.Scan(dest); err != nil {
			return Stats{}, fmt.Errorf("count %s: %w", table, err)
		}
	}
	return st, nil
}

// AllFilePaths returns every file path recorded for commitID.
func (s *Store) AllFilePaths(ctx context.Context, commitID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM files WHERE commit_id = ?`, commitID)
	if err != nil {
		return nil, fmt.Errorf("all file paths: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FileContentHash returns the recorded content hash for path at commitID.
func (s *Store) FileContentHash(ctx context.Context, commitID, path string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return "", false, err
	}
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT content_hash FROM files WHERE commit_id = ? AND path = ?`, commitID, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("file content hash %s: %w", path, err)
	}
	return hash, true, nil
}
