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

package incremental

import "github.com/pranav100000/consilium-codegraph/internal/ir"

// HashDeltaDetector computes a dirty set by comparing content hashes of the
// current working tree against the hashes recorded for the previous scan,
// the fallback path for a re-scan once git has become unavailable after a
// first scan already succeeded.
type HashDeltaDetector struct{}

// NewHashDeltaDetector constructs a content-hash based detector.
func NewHashDeltaDetector() *HashDeltaDetector { return &HashDeltaDetector{} }

// DetectChanges compares previously recorded (path -> content hash) state
// against the current walk's entries and returns a GitDelta-shaped result
// so the planner can treat both detection paths identically.
func (h *HashDeltaDetector) DetectChanges(previous map[string]string, current map[string][]byte) *GitDelta {
	delta := &GitDelta{Renamed: map[string]string{}}
	seen := make(map[string]bool, len(current))

	for path, content := range current {
		seen[path] = true
		hash := ir.ContentHash(content)
		prevHash, existed := previous[path]
		switch {
		case !existed:
			delta.Added = append(delta.Added, path)
		case prevHash != hash:
			delta.Modified = append(delta.Modified, path)
		}
	}
	for path := range previous {
		if !seen[path] {
			delta.Deleted = append(delta.Deleted, path)
		}
	}

	sortDeltaLists(delta)
	rebuildAllList(delta)
	return delta
}
