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

// Package walker enumerates the files of a repository as they existed at a
// pinned commit, applying exclude globs before any parser sees a byte.
package walker

import (
	"fmt"
	"io"
	"path"
	"path/filepath"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	cgerrors "github.com/pranav100000/consilium-codegraph/internal/errors"
	"github.com/pranav100000/consilium-codegraph/internal/globmatch"
)

// Entry is one file as it existed at a pinned commit.
type Entry struct {
	Path    string // repo-relative, forward-slash normalized
	Content []byte
}

// Walker resolves a commit and enumerates its tree, filtering by exclude
// globs before returning entries.
type Walker struct {
	repo         *gogit.Repository
	excludeGlobs []string
}

// Open opens an existing git repository at root. Returns
// errors.ErrRepoNotFound if root is not a git repository.
func Open(root string, excludeGlobs []string) (*Walker, error) {
	r, err := gogit.PlainOpen(root)
	if err != nil {
		return nil, cgerrors.Wrap(cgerrors.ErrRepoNotFound, "opening repo at %s: %v", root, err)
	}
	return &Walker{repo: r, excludeGlobs: excludeGlobs}, nil
}

// ResolveCommit resolves a ref (branch, tag, or SHA; "" means HEAD) to a
// full commit SHA. Returns errors.ErrCommitMissing if the ref can't be
// resolved.
func (w *Walker) ResolveCommit(ref string) (string, error) {
	if ref == "" {
		head, err := w.repo.Head()
		if err != nil {
			return "", cgerrors.Wrap(cgerrors.ErrCommitMissing, "resolving HEAD: %v", err)
		}
		return head.Hash().String(), nil
	}
	hash, err := w.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return "", cgerrors.Wrap(cgerrors.ErrCommitMissing, "resolving %s: %v", ref, err)
	}
	return hash.String(), nil
}

// Walk enumerates every blob in the tree of commitSHA, skipping paths that
// match an exclude glob, and invokes fn with the file's repo-relative path
// and content. Walking stops at the first error fn returns.
func (w *Walker) Walk(commitSHA string, fn func(Entry) error) error {
	hash := plumbing.NewHash(commitSHA)
	commit, err := w.repo.CommitObject(hash)
	if err != nil {
		return cgerrors.Wrap(cgerrors.ErrCommitMissing, "loading commit %s: %v", commitSHA, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return cgerrors.Wrap(cgerrors.ErrIO, "loading tree for %s: %v", commitSHA, err)
	}

	walker := gogit.NewTreeWalker(tree, true, nil)
	defer walker.Close()

	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return cgerrors.Wrap(cgerrors.ErrIO, "walking tree: %v", err)
		}
		if !entry.Mode.IsFile() {
			continue
		}
		cleanPath := path.Clean(filepath.ToSlash(name))
		if w.excluded(cleanPath) {
			continue
		}
		blob, err := w.repo.BlobObject(entry.Hash)
		if err != nil {
			return cgerrors.Wrap(cgerrors.ErrIO, "reading blob %s: %v", cleanPath, err)
		}
		reader, err := blob.Reader()
		if err != nil {
			return cgerrors.Wrap(cgerrors.ErrIO, "opening blob reader %s: %v", cleanPath, err)
		}
		content, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return cgerrors.Wrap(cgerrors.ErrIO, "reading blob content %s: %v", cleanPath, err)
		}
		if err := fn(Entry{Path: cleanPath, Content: content}); err != nil {
			return err
		}
	}
	return nil
}

func (w *Walker) excluded(p string) bool {
	for _, pattern := range w.excludeGlobs {
		if globmatch.Match(pattern, p) {
			return true
		}
	}
	return false
}

// Repo exposes the underlying repository handle for components (like the
// incremental delta detector) that need direct go-git access within a
// scan, the same way store.DB exposes sqlite to the FTS layer.
func (w *Walker) Repo() *gogit.Repository { return w.repo }

// HeadSHA returns the current HEAD commit SHA.
func (w *Walker) HeadSHA() (string, error) {
	return w.ResolveCommit("")
}

// ParentSHA returns the first parent of commitSHA, or "" if it has none.
func (w *Walker) ParentSHA(commitSHA string) (string, error) {
	commit, err := w.repo.CommitObject(plumbing.NewHash(commitSHA))
	if err != nil {
		return "", cgerrors.Wrap(cgerrors.ErrCommitMissing, "loading commit %s: %v", commitSHA, err)
	}
	if commit.NumParents() == 0 {
		return "", nil
	}
	parent, err := commit.Parent(0)
	if err != nil {
		return "", fmt.Errorf("loading parent of %s: %w", commitSHA, err)
	}
	return parent.Hash.String(), nil
}
