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
	"fmt"
	"strings"
	"unicode"
)

// SearchHit is one full-text match against the symbols index.
type SearchHit struct {
	SymbolID string
	Name     string
	FQN      string
	Snippet  string
	Rank     float64
}

// SearchText runs a full text query over symbol name/fqn/signature/doc
// using SQLite FTS5, the nearest real substitute for a Datalog-backed
// text search.
func (s *Store) SearchText(ctx context.Context, commitID, query string, limit int) ([]SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.checkOpen(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, fqn, snippet(symbols_fts, 2, '[', ']', '...', 8), bm25(symbols_fts, 0.0, 0.0, 4.0, 2.0, 2.0, 1.0, 1.0)
		FROM symbols_fts
		WHERE symbols_fts MATCH ? AND commit_id = ?
		ORDER BY bm25(symbols_fts, 0.0, 0.0, 4.0, 2.0, 2.0, 1.0, 1.0)
		LIMIT ?`, query, commitID, limit)
	if err != nil {
		return nil, fmt.Errorf("search text %q: %w", query, err)
	}
	defer rows.Close()

	var hits []SearchHit
	for rows.Next() {
		var h SearchHit
		if err := rows.Scan(&h.SymbolID, &h.Name, &h.FQN, &h.Snippet, &h.Rank); err != nil {
			return nil, fmt.Errorf("scan search hit: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

// splitIdentifier breaks an identifier into its case-delimited and
// underscore-delimited sub-words ("getUserByID" -> "get", "User", "By",
// "ID"), so a search for "user" finds a symbol named "getUserByID" even
// though the FTS index retains the whole identifier as its own token for
// exact-name matches.
func splitIdentifier(name string) []string {
	var words []string
	var cur []rune
	runes := []rune(name)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = nil
		}
	}
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || r == '.':
			flush()
		case unicode.IsUpper(r) && i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1])):
			flush()
			cur = append(cur, r)
		case unicode.IsUpper(r) && i > 0 && unicode.IsUpper(runes[i-1]) && i+1 < len(runes) && unicode.IsLower(runes[i+1]):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return words
}

// ftsNameTokens returns the space-joined split sub-words for name, used to
// populate symbols_fts.name_tokens so substring-style identifier search
// works without stemming the name column itself (stemming would blur the
// boundary between an identifier and its exact form).
func ftsNameTokens(name string) string {
	return strings.Join(splitIdentifier(name), " ")
}
