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

// Package incremental implements the incremental planner: it
// computes the dirty set between two commits, then expands it to the
// impacted set via the reverse import closure, and closes cross-file calls
// the harnesses couldn't resolve on their own.
package incremental

import (
	"fmt"
	"log/slog"
	"sort"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/utils/merkletrie"
)

// ChangeType classifies one path's change between two commits.
type ChangeType string

const (
	FileAdded    ChangeType = "added"
	FileModified ChangeType = "modified"
	FileDeleted  ChangeType = "deleted"
	FileRenamed  ChangeType = "renamed"
)

// GitDelta is the set of changed paths between two commits (the dirty
// set, before impacted-set expansion).
type GitDelta struct {
	BaseSHA  string
	HeadSHA  string
	Added    []string
	Modified []string
	Deleted  []string
	Renamed  map[string]string // old path -> new path
	All      []string
}

// ChangeType returns the type of change for path, or "" if path isn't in
// the delta.
func (d *GitDelta) ChangeType(path string) ChangeType {
	for _, p := range d.Added {
		if p == path {
			return FileAdded
		}
	}
	for _, p := range d.Modified {
		if p == path {
			return FileModified
		}
	}
	for _, p := range d.Deleted {
		if p == path {
			return FileDeleted
		}
	}
	for oldPath, newPath := range d.Renamed {
		if newPath == path {
			return FileRenamed
		}
		if oldPath == path {
			return FileDeleted
		}
	}
	return ""
}

// HasChanges reports whether the delta touched any file.
func (d *GitDelta) HasChanges() bool { return len(d.All) > 0 }

// GitDeltaDetector detects changed files between two commits using go-git's
// in-process diff machinery rather than shelling out to `git diff`.
type GitDeltaDetector struct {
	repo   *gogit.Repository
	logger *slog.Logger
}

// NewGitDeltaDetector builds a detector over an already-open repository.
func NewGitDeltaDetector(repo *gogit.Repository, logger *slog.Logger) *GitDeltaDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitDeltaDetector{repo: repo, logger: logger}
}

// DetectDelta computes the delta between baseSHA and headSHA. An empty
// baseSHA compares against an empty tree, so every file in headSHA comes
// back as Added (the first-scan case).
func (d *GitDeltaDetector) DetectDelta(baseSHA, headSHA string) (*GitDelta, error) {
	headTree, err := d.treeFor(headSHA)
	if err != nil {
		return nil, fmt.Errorf("resolve head tree: %w", err)
	}
	var baseTree *object.Tree
	if baseSHA != "" {
		baseTree, err = d.treeFor(baseSHA)
		if err != nil {
			return nil, fmt.Errorf("resolve base tree: %w", err)
		}
	}

	changes, err := object.DiffTree(baseTree, headTree)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	delta := &GitDelta{BaseSHA: baseSHA, HeadSHA: headSHA, Renamed: map[string]string{}}
	for _, c := range changes {
		action, err := c.Action()
		if err != nil {
			continue
		}
		switch action {
		case merkletrie.Insert:
			delta.Added = append(delta.Added, c.To.Name)
		case merkletrie.Delete:
			delta.Deleted = append(delta.Deleted, c.From.Name)
		case merkletrie.Modify:
			delta.Modified = append(delta.Modified, c.To.Name)
		}
	}

	sortDeltaLists(delta)
	rebuildAllList(delta)
	d.logger.Info("incremental.delta.complete",
		"base", short(baseSHA), "head", short(headSHA),
		"added", len(delta.Added), "modified", len(delta.Modified), "deleted", len(delta.Deleted),
	)
	return delta, nil
}

func (d *GitDeltaDetector) treeFor(sha string) (*object.Tree, error) {
	commit, err := d.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, err
	}
	return commit.Tree()
}

func short(sha string) string {
	if len(sha) <= 8 {
		return sha
	}
	return sha[:8]
}

func sortDeltaLists(d *GitDelta) {
	sort.Strings(d.Added)
	sort.Strings(d.Modified)
	sort.Strings(d.Deleted)
}

func rebuildAllList(d *GitDelta) {
	set := map[string]bool{}
	for _, p := range d.Added {
		set[p] = true
	}
	for _, p := range d.Modified {
		set[p] = true
	}
	for _, p := range d.Deleted {
		set[p] = true
	}
	for oldPath, newPath := range d.Renamed {
		set[oldPath] = true
		set[newPath] = true
	}
	d.All = make([]string, 0, len(set))
	for p := range set {
		d.All = append(d.All, p)
	}
	sort.Strings(d.All)
}
