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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/pranav100000/consilium-codegraph/internal/query"
	"github.com/pranav100000/consilium-codegraph/internal/ui"
)

// runSearch executes the 'search' command: list symbols whose name or FQN
// matches a glob-style pattern.
func runSearch(args []string, configPath string, globals globalFlags) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	commitFlag := fs.String("commit", "", "Commit to query (default: last scanned commit)")
	limit := fs.Int("limit", 50, "Maximum number of results")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codegraph search <pattern> [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 {
		fs.Usage()
		os.Exit(1)
	}
	pattern := rest[0]

	s, commitID, err := openStoreAndCommit(configPath, *commitFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	engine := query.New(s)
	symbols, err := engine.FindSymbols(ctx, commitID, pattern, *limit)
	if err != nil {
		return fmt.Errorf("searching %q: %w", pattern, err)
	}

	if globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(symbols)
	}
	if len(symbols) == 0 {
		_, _ = ui.Dim.Println("No matches.")
		return nil
	}
	for _, sym := range symbols {
		fmt.Printf("%-10s %-60s %s:%d\n", sym.Kind, sym.FQN, sym.FilePath, sym.SpanStart.Line)
	}
	return nil
}
