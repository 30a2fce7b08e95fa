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
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/pranav100000/consilium-codegraph/internal/ir"
	"github.com/pranav100000/consilium-codegraph/internal/query"
	"github.com/pranav100000/consilium-codegraph/internal/ui"
)

// runGraph executes the 'graph' command: print callers, callees, cycles, or
// a shortest path for a symbol given by its fully-qualified name.
//
// Exactly one of --callers, --callees, --cycles, or --to must be given.
func runGraph(args []string, configPath string, globals globalFlags) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	commitFlag := fs.String("commit", "", "Commit to query (default: last scanned commit)")
	depth := fs.Int("depth", 2, "Traversal depth for --callers/--callees")
	callers := fs.Bool("callers", false, "List symbols that call this one")
	callees := fs.Bool("callees", false, "List symbols this one calls")
	cycles := fs.Bool("cycles", false, "List call cycles passing through this symbol")
	maxCycles := fs.Int("max-cycles", 10, "Maximum cycles to report with --cycles")
	to := fs.String("to", "", "Find a shortest path to this fully-qualified name")
	via := fs.String("via", "CALLS", "Comma-separated edge types for --to (e.g. CALLS,IMPORTS)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: codegraph graph <fully-qualified-name> [options]\n\nOptions:\n")
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

	selected := 0
	for _, set := range []bool{*callers, *callees, *cycles, *to != ""} {
		if set {
			selected++
		}
	}
	if selected != 1 {
		fs.Usage()
		os.Exit(1)
	}

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

	switch {
	case *to != "":
		target, ok, err := engine.GetSymbol(ctx, commitID, *to)
		if err != nil {
			return fmt.Errorf("looking up %s: %w", *to, err)
		}
		if !ok {
			return fmt.Errorf("no symbol found for %q at commit %s", *to, commitID)
		}
		edgeTypes := parseEdgeTypes(*via)
		path, found, err := engine.Path(ctx, commitID, sym.ID, target.ID, edgeTypes)
		if err != nil {
			return fmt.Errorf("finding path: %w", err)
		}
		return printPathResult(path, found, globals)

	case *cycles:
		cyclesResult, err := engine.CyclesThrough(ctx, commitID, sym.ID, *maxCycles)
		if err != nil {
			return fmt.Errorf("finding cycles: %w", err)
		}
		return printCyclesResult(cyclesResult, globals)

	case *callees:
		result, err := engine.Callees(ctx, commitID, sym.ID, *depth)
		if err != nil {
			return fmt.Errorf("finding callees: %w", err)
		}
		return printSymbolList("Callees of "+fqn, result, globals)

	default:
		result, err := engine.Callers(ctx, commitID, sym.ID, *depth)
		if err != nil {
			return fmt.Errorf("finding callers: %w", err)
		}
		return printSymbolList("Callers of "+fqn, result, globals)
	}
}

func parseEdgeTypes(via string) []ir.EdgeType {
	var out []ir.EdgeType
	for _, part := range strings.Split(via, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, ir.EdgeType(strings.ToUpper(part)))
		}
	}
	return out
}

func printSymbolList(title string, symbols []ir.Symbol, globals globalFlags) error {
	if globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(symbols)
	}
	_, _ = ui.Bold.Println(title)
	if len(symbols) == 0 {
		_, _ = ui.Dim.Println("  (none)")
		return nil
	}
	for _, sym := range symbols {
		fmt.Printf("  %-60s %s:%d\n", sym.FQN, sym.FilePath, sym.SpanStart.Line)
	}
	return nil
}

func printPathResult(path []ir.Symbol, found bool, globals globalFlags) error {
	if globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(struct {
			Found bool        `json:"found"`
			Path  []ir.Symbol `json:"path"`
		}{found, path})
	}
	if !found {
		_, _ = ui.Warn.Println("No path found.")
		return nil
	}
	for i, sym := range path {
		if i > 0 {
			fmt.Print("  -> ")
		}
		fmt.Print(sym.FQN)
	}
	fmt.Println()
	return nil
}

func printCyclesResult(cycles [][]ir.Symbol, globals globalFlags) error {
	if globals.JSON {
		return json.NewEncoder(os.Stdout).Encode(cycles)
	}
	if len(cycles) == 0 {
		_, _ = ui.Success.Println("No cycles found.")
		return nil
	}
	for i, cycle := range cycles {
		fmt.Printf("Cycle %d:\n", i+1)
		for _, sym := range cycle {
			fmt.Printf("  %s\n", sym.FQN)
		}
	}
	return nil
}
