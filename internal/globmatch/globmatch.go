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

// Package globmatch matches repo-relative paths against exclude glob
// patterns supporting "**", "*", "?" and character classes.
package globmatch

import (
	"path"
	"strings"
)

// Match reports whether p matches pattern. "**" matches across path
// separators; all other segments are matched with path.Match semantics.
func Match(pattern, p string) bool {
	if !strings.Contains(pattern, "**") {
		ok, _ := path.Match(pattern, p)
		if ok {
			return true
		}
		// A glob with no "/" is allowed to match the base name too,
		// supports "*.min.js" style root-relative excludes.
		if !strings.Contains(pattern, "/") {
			ok, _ = path.Match(pattern, path.Base(p))
			return ok
		}
		return false
	}
	return matchDoubleStar(pattern, p)
}

// matchDoubleStar expands "**" segments into a recursive descent match.
func matchDoubleStar(pattern, p string) bool {
	patParts := strings.Split(pattern, "/")
	return matchParts(patParts, strings.Split(p, "/"))
}

func matchParts(pat, name []string) bool {
	if len(pat) == 0 {
		return len(name) == 0
	}
	if pat[0] == "**" {
		if len(pat) == 1 {
			return true
		}
		for i := 0; i <= len(name); i++ {
			if matchParts(pat[1:], name[i:]) {
				return true
			}
		}
		return false
	}
	if len(name) == 0 {
		return false
	}
	ok, _ := path.Match(pat[0], name[0])
	if !ok {
		return false
	}
	return matchParts(pat[1:], name[1:])
}
