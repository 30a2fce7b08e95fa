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

// WriteBatch is everything one file (or one full scan) contributes to the
// graph in a single transaction.
type WriteBatch struct {
	Commit      ir.CommitSnapshot
	Files       []ir.File
	Symbols     []ir.Symbol
	Edges       []ir.Edge
	Occurrences []ir.Occurrence
}

// Write persists a batch transactionally: either every row lands or none
// does. Symbols/edges/occurrences upsert keyed on their natural key, so a
// re-scan of unchanged code is idempotent, and only rows whose contents
// actually differ from what's stored count toward the returned mutation
// total (an upsert that rewrites a row to its own values reports zero).
func (s *Store) Write(ctx context.Context, batch WriteBatch) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin write tx: %w", err)
	}
	defer tx.Rollback()

	if batch.Commit.CommitID != "" {
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO commits(commit_id, timestamp, parent) VALUES (?, ?, ?)`,
			batch.Commit.CommitID, batch.Commit.Timestamp, batch.Commit.Parent); err != nil {
			return 0, fmt.Errorf("write commit: %w", err)
		}
	}

	if err := writeFiles(ctx, tx, batch.Files); err != nil {
		return 0, err
	}
	mutated := 0
	n, err := writeSymbols(ctx, tx, batch.Symbols)
	if err != nil {
		return 0, err
	}
	mutated += n
	n, err = writeEdges(ctx, tx, batch.Edges)
	if err != nil {
		return 0, err
	}
	mutated += n
	n, err = writeOccurrences(ctx, tx, batch.Occurrences)
	if err != nil {
		return 0, err
	}
	mutated += n

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit write tx: %w", err)
	}
	return mutated, nil
}

func writeFiles(ctx context.Context, tx *sql.Tx, files []ir.File) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO files(commit_id, path, content_hash, language) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare file insert: %w", err)
	}
	defer stmt.Close()
	for _, f := range files {
		if _, err := stmt.ExecContext(ctx, f.CommitID, f.Path, f.ContentHash, f.Language); err != nil {
			return fmt.Errorf("write file %s: %w", f.Path, err)
		}
	}
	return nil
}

func writeSymbols(ctx context.Context, tx *sql.Tx, symbols []ir.Symbol) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO symbols
		(id, commit_id, kind, name, fqn, signature, sig_hash, language, file_path,
		 start_line, start_col, end_line, end_col, visibility, doc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id, commit_id) DO UPDATE SET
			kind = excluded.kind, name = excluded.name, fqn = excluded.fqn,
			signature = excluded.signature, sig_hash = excluded.sig_hash,
			language = excluded.language, file_path = excluded.file_path,
			start_line = excluded.start_line, start_col = excluded.start_col,
			end_line = excluded.end_line, end_col = excluded.end_col,
			visibility = excluded.visibility, doc = excluded.doc
		WHERE kind IS NOT excluded.kind OR name IS NOT excluded.name OR fqn IS NOT excluded.fqn
			OR signature IS NOT excluded.signature OR sig_hash IS NOT excluded.sig_hash
			OR language IS NOT excluded.language OR file_path IS NOT excluded.file_path
			OR start_line IS NOT excluded.start_line OR start_col IS NOT excluded.start_col
			OR end_line IS NOT excluded.end_line OR end_col IS NOT excluded.end_col
			OR visibility IS NOT excluded.visibility OR doc IS NOT excluded.doc`)
	if err != nil {
		return 0, fmt.Errorf("prepare symbol insert: %w", err)
	}
	defer stmt.Close()
	ftsStmt, err := tx.PrepareContext(ctx, `INSERT INTO symbols_fts(id, commit_id, name, name_tokens, fqn, signature, doc) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare fts insert: %w", err)
	}
	defer ftsStmt.Close()

	mutated := 0
	for _, sym := range symbols {
		res, err := stmt.ExecContext(ctx, sym.ID, sym.CommitID, string(sym.Kind), sym.Name, sym.FQN,
			sym.Signature, int64(sym.SigHash), sym.Language, sym.FilePath,
			sym.SpanStart.Line, sym.SpanStart.Col, sym.SpanEnd.Line, sym.SpanEnd.Col,
			sym.Visibility, sym.Doc)
		if err != nil {
			return mutated, fmt.Errorf("write symbol %s: %w", sym.ID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			mutated++
			if _, err := tx.ExecContext(ctx, `DELETE FROM symbols_fts WHERE id = ? AND commit_id = ?`, sym.ID, sym.CommitID); err != nil {
				return mutated, fmt.Errorf("clear fts row for %s: %w", sym.ID, err)
			}
			if _, err := ftsStmt.ExecContext(ctx, sym.ID, sym.CommitID, sym.Name, ftsNameTokens(sym.Name), sym.FQN, sym.Signature, sym.Doc); err != nil {
				return mutated, fmt.Errorf("index fts row for %s: %w", sym.ID, err)
			}
		}
	}
	return mutated, nil
}

func writeEdges(ctx context.Context, tx *sql.Tx, edges []ir.Edge) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO edges(commit_id, type, src, dst, resolution, provenance) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(commit_id, src, dst, type, resolution) DO UPDATE SET provenance = excluded.provenance
		WHERE provenance IS NOT excluded.provenance`)
	if err != nil {
		return 0, fmt.Errorf("prepare edge insert: %w", err)
	}
	defer stmt.Close()
	mutated := 0
	for _, e := range edges {
		provenance := ""
		if len(e.Provenance) > 0 {
			provenance = encodeProvenance(e.Provenance)
		}
		res, err := stmt.ExecContext(ctx, e.CommitID, string(e.Type), e.Src, e.Dst, string(e.Resolution), provenance)
		if err != nil {
			return mutated, fmt.Errorf("write edge %s->%s: %w", e.Src, e.Dst, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			mutated++
		}
	}
	return mutated, nil
}

// writeOccurrences upserts keyed on (commit_id, file_path, start_line,
// start_col, role): the same token position can only hold one occurrence of
// a given role, so a re-scan of unchanged source rewrites the same rows
// instead of appending duplicates.
func writeOccurrences(ctx context.Context, tx *sql.Tx, occs []ir.Occurrence) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO occurrences
		(commit_id, file_path, symbol_id, role, start_line, start_col, end_line, end_col, token)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(commit_id, file_path, start_line, start_col, role) DO UPDATE SET
			symbol_id = excluded.symbol_id, end_line = excluded.end_line,
			end_col = excluded.end_col, token = excluded.token
		WHERE symbol_id IS NOT excluded.symbol_id OR end_line IS NOT excluded.end_line
			OR end_col IS NOT excluded.end_col OR token IS NOT excluded.token`)
	if err != nil {
		return 0, fmt.Errorf("prepare occurrence insert: %w", err)
	}
	defer stmt.Close()
	mutated := 0
	for _, o := range occs {
		symID := sql.NullString{String: o.SymbolID, Valid: o.SymbolID != ""}
		res, err := stmt.ExecContext(ctx, o.CommitID, o.FilePath, symID, string(o.Role),
			o.Start.Line, o.Start.Col, o.End.Line, o.End.Col, o.Token)
		if err != nil {
			return mutated, fmt.Errorf("write occurrence in %s: %w", o.FilePath, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			mutated++
		}
	}
	return mutated, nil
}

func encodeProvenance(m map[string]string) string {
	out := ""
	first := true
	for k, v := range m {
		if !first {
			out += ";"
		}
		first = false
		out += k + "=" + v
	}
	return out
}

// DeleteEntitiesForFile removes every symbol, edge, and occurrence rooted
// at path for commitID, in an order that respects foreign references
// (occurrences and edges first, symbols last) to respect foreign
// references.
func (s *Store) DeleteEntitiesForFile(ctx context.Context, commitID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback()

	queries := []struct {
		sql  string
		args []any
	}{
		{`DELETE FROM occurrences WHERE commit_id = ? AND file_path = ?`, []any{commitID, path}},
		{`DELETE FROM edges WHERE commit_id = ? AND src IN (SELECT id FROM symbols WHERE commit_id = ? AND file_path = ?)`, []any{commitID, commitID, path}},
		{`DELETE FROM edges WHERE commit_id = ? AND dst IN (SELECT id FROM symbols WHERE commit_id = ? AND file_path = ?)`, []any{commitID, commitID, path}},
		{`DELETE FROM edges WHERE commit_id = ? AND type = 'IMPORTS' AND src = ?`, []any{commitID, path}},
		{`DELETE FROM symbols_fts WHERE commit_id = ? AND id IN (SELECT id FROM symbols WHERE commit_id = ? AND file_path = ?)`, []any{commitID, commitID, path}},
		{`DELETE FROM symbols WHERE commit_id = ? AND file_path = ?`, []any{commitID, path}},
		{`DELETE FROM files WHERE commit_id = ? AND path = ?`, []any{commitID, path}},
	}
	for _, q := range queries {
		if _, err := tx.ExecContext(ctx, q.sql, q.args...); err != nil {
			return fmt.Errorf("delete entities for %s: %w", path, err)
		}
	}
	return tx.Commit()
}

// CopyFileForCommit carries one file's rows (symbols, edges between those
// symbols, occurrences, and the file row itself) forward from fromCommitID
// to toCommitID, rewriting every symbol id's embedded commit segment so ids
// stay content-addressed under the new snapshot. Used for files an
// incremental plan marks OpKeep: their bytes didn't change, but every
// snapshot still needs its own copy of their rows since commit id is part
// of a symbol's identity.
func (s *Store) CopyFileForCommit(ctx context.Context, fromCommitID, toCommitID, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	if fromCommitID == toCommitID {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin copy tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT `+symbolColumns+` FROM symbols WHERE commit_id = ? AND file_path = ?`, fromCommitID, path)
	if err != nil {
		return fmt.Errorf("read symbols to copy for %s: %w", path, err)
	}
	symbols, err := collectSymbols(rows)
	rows.Close()
	if err != nil {
		return fmt.Errorf("scan symbols to copy for %s: %w", path, err)
	}

	idRewrite := make(map[string]string, len(symbols))
	for i := range symbols {
		oldID := symbols[i].ID
		symbols[i].CommitID = toCommitID
		symbols[i].ID = ir.SymbolID(toCommitID, symbols[i].FilePath, symbols[i].Language, symbols[i].FQN, symbols[i].SigHash)
		idRewrite[oldID] = symbols[i].ID
	}

	var fileContentHash, fileLanguage string
	err = tx.QueryRowContext(ctx, `SELECT content_hash, language FROM files WHERE commit_id = ? AND path = ?`, fromCommitID, path).
		Scan(&fileContentHash, &fileLanguage)
	if err != nil {
		return fmt.Errorf("read file row to copy for %s: %w", path, err)
	}

	edgeRows, err := tx.QueryContext(ctx, `SELECT commit_id, type, src, dst, resolution, provenance FROM edges
		WHERE commit_id = ? AND src IN (SELECT id FROM symbols WHERE commit_id = ? AND file_path = ?)`, fromCommitID, fromCommitID, path)
	if err != nil {
		return fmt.Errorf("read edges to copy for %s: %w", path, err)
	}
	var edges []ir.Edge
	for edgeRows.Next() {
		var e ir.Edge
		var typ, resolution, provenance string
		if err := edgeRows.Scan(&e.CommitID, &typ, &e.Src, &e.Dst, &resolution, &provenance); err != nil {
			edgeRows.Close()
			return fmt.Errorf("scan edge to copy for %s: %w", path, err)
		}
		e.Type = ir.EdgeType(typ)
		e.Resolution = ir.Resolution(resolution)
		edges = append(edges, e)
	}
	edgeRows.Close()
	if err := edgeRows.Err(); err != nil {
		return fmt.Errorf("iterate edges to copy for %s: %w", path, err)
	}

	occRows, err := tx.QueryContext(ctx, `SELECT file_path, symbol_id, role, start_line, start_col, end_line, end_col, token
		FROM occurrences WHERE commit_id = ? AND file_path = ?`, fromCommitID, path)
	if err != nil {
		return fmt.Errorf("read occurrences to copy for %s: %w", path, err)
	}
	var occs []ir.Occurrence
	for occRows.Next() {
		var o ir.Occurrence
		var symID sql.NullString
		if err := occRows.Scan(&o.FilePath, &symID, &o.Role, &o.Start.Line, &o.Start.Col, &o.End.Line, &o.End.Col, &o.Token); err != nil {
			occRows.Close()
			return fmt.Errorf("scan occurrence to copy for %s: %w", path, err)
		}
		o.SymbolID = symID.String
		occs = append(occs, o)
	}
	occRows.Close()
	if err := occRows.Err(); err != nil {
		return fmt.Errorf("iterate occurrences to copy for %s: %w", path, err)
	}

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO files(commit_id, path, content_hash, language) VALUES (?, ?, ?, ?)`,
		toCommitID, path, fileContentHash, fileLanguage); err != nil {
		return fmt.Errorf("copy file row for %s: %w", path, err)
	}
	if _, err := writeSymbols(ctx, tx, symbols); err != nil {
		return fmt.Errorf("copy symbols for %s: %w", path, err)
	}
	for i := range edges {
		edges[i].CommitID = toCommitID
		if rewritten, ok := idRewrite[edges[i].Src]; ok {
			edges[i].Src = rewritten
		}
		if rewritten, ok := idRewrite[edges[i].Dst]; ok {
			edges[i].Dst = rewritten
		}
	}
	if _, err := writeEdges(ctx, tx, edges); err != nil {
		return fmt.Errorf("copy edges for %s: %w", path, err)
	}
	for i := range occs {
		occs[i].CommitID = toCommitID
		if rewritten, ok := idRewrite[occs[i].SymbolID]; ok {
			occs[i].SymbolID = rewritten
		}
	}
	if _, err := writeOccurrences(ctx, tx, occs); err != nil {
		return fmt.Errorf("copy occurrences for %s: %w", path, err)
	}

	return tx.Commit()
}

// DeleteSnapshot removes every row for commitID. The store exposes this as
// an explicit retention operation; nothing calls it automatically.
func (s *Store) DeleteSnapshot(ctx context.Context, commitID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkOpen(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot delete tx: %w", err)
	}
	defer tx.Rollback()
	tables := []string{"occurrences", "edges", "symbols_fts", "symbols", "files", "commits"}
	for _, table := range tables {
		col := "commit_id"
		if table == "commits" {
			col = "commit_id"
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = ?`, table, col), commitID); err != nil {
			return fmt.Errorf("delete snapshot %s from %s: %w", commitID, table, err)
		}
	}
	return tx.Commit()
}
