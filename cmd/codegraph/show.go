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

	"github.com/pranav100000/consilium-codegraph/internal/config"
	"github.com/pranav100000/consilium-codegraph/internal/ir"
	"github.com/pranav100000/consilium-codegraph/internal/query"
	"github.com/pranav100000/consilium-codegraph/internal/store"
	"github.com/pranav100000/consilium-codegraph/internal/ui"
)

// runShow executes the 'show' command: print one symbol's definition site,
// signature, and documentation.
func runShow(args []string, configPath string, globals globalFlags) error {
	fs := flag.NewFlagSet("show", flag.ExitOnError)
	commitFlag := fs.String("commit", "", "Commit to query (default: last scanned commit)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codegraph show <fully-qualified-name> [options]\n\nOptions:\n")
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
	fqn := rest[0]

	s, commitID, err := openStoreAndCommit(configPath, *commitFlag)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	engine := query.New(s)
	sym, ok, err := engine.GetSymbol(ctx, commitID, fqn)
	if err != nil {
		return fmt.Errorf("looking up %s: %w", fqn, err)
	}
	if !ok {
		return fmt.Errorf("no symbol found for %q at commit %s", fqn, commitID)
	}

	if globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(sym)
	}
	printSymbol(sym)
	return nil
}

func printSymbol(sym ir.Symbol) {
	_, _ = ui.Bold.Println(sym.FQN)
	fmt.Printf("Kind:       %s\n", sym.Kind)
	fmt.Printf("File:       %s:%d\n", sym.FilePath, sym.SpanStart.Line)
	fmt.Printf("Language:   %s\n", sym.Language)
	if sym.Visibility != "" {
		fmt.Printf("Visibility: %s\n", sym.Visibility)
	}
	if sym.Signature != "" {
		fmt.Printf("Signature:  %s\n", sym.Signature)
	}
	if sym.Doc != "" {
		fmt.Println()
		_, _ = ui.Dim.Println(sym.Doc)
	}
}

// openStoreAndCommit opens the project's store and resolves the commit a
// query should run against: the flag value if given, otherwise the last
// scanned commit recorded by a prior 'scan'.
func openStoreAndCommit(configPath, commitFlag string) (*store.Store, string, error) {
	if configPath == "" {
		configPath = config.ConfigPath(".")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, "", err
	}
	s, err := store.Open(store.Config{DataDir: cfg.DataDir})
	if err != nil {
		return nil, "", fmt.Errorf("opening store: %w", err)
	}
	if commitFlag != "" {
		return s, commitFlag, nil
	}
	sha, ok, err := s.GetLastIndexedSHA(context.Background())
	if err != nil {
		s.Close()
		return nil, "", fmt.Errorf("reading last scanned commit: %w", err)
	}
	if !ok {
		s.Close()
		return nil, "", fmt.Errorf("no scanned commit found; run 'codegraph scan' first")
	}
	return s, sha, nil
}
