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

// Package errors defines the typed error-kind taxonomy used across the
// indexing pipeline and query layer. Every kind is a distinct sentinel so
// callers can branch with errors.Is/errors.As instead of string matching.
package errors

import (
	"errors"
	"fmt"
)

// Kind sentinels. Wrap with fmt.Errorf("...: %w", KindX) to attach context.
var (
	ErrRepoNotFound      = errors.New("repo_not_found")
	ErrCommitMissing     = errors.New("commit_missing")
	ErrIO                = errors.New("io_error")
	ErrParse             = errors.New("parse_error")
	ErrMapper            = errors.New("mapper_error")
	ErrStore             = errors.New("store_error")
	ErrSchemaMismatch    = errors.New("schema_mismatch")
	ErrCancelled         = errors.New("cancelled")
	ErrIndexerUnavailable = errors.New("indexer_unavailable")
	ErrIndexerTimeout    = errors.New("indexer_timeout")
	ErrQuery             = errors.New("query_error")
)

// Is reports whether err ultimately wraps kind.
func Is(err, kind error) bool {
	return errors.Is(err, kind)
}

// Wrap attaches kind to err's chain with a formatted message.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), kind)
}

// Warning is a recoverable, per-file condition collected onto a scan report
// rather than aborting the scan.
type Warning struct {
	FilePath string
	Kind     error
	Message  string
}

func (w Warning) Error() string {
	if w.FilePath == "" {
		return w.Message
	}
	return fmt.Sprintf("%s: %s", w.FilePath, w.Message)
}

// NewWarning constructs a Warning for a recoverable per-file failure.
func NewWarning(path string, kind error, format string, args ...any) Warning {
	return Warning{FilePath: path, Kind: kind, Message: fmt.Sprintf(format, args...)}
}
