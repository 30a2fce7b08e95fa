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

// Package main implements the codegraph CLI for scanning repositories and
// querying the resulting code graph.
//
// Usage:
//
//	codegraph init                 Create .codegraph/project.yaml
//	codegraph scan                 Scan the current repository
//	codegraph show <symbol>        Show a symbol's details
//	codegraph search <pattern>     Search symbols by name pattern
//	codegraph graph <symbol>       Print callers/callees/path for a symbol
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/pranav100000/consilium-codegraph/internal/ui"
)

// globalFlags holds flags that apply to every subcommand.
type globalFlags struct {
	JSON    bool
	NoColor bool
	Verbose int
	Quiet   bool
}

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .codegraph/project.yaml (default: ./.codegraph/project.yaml)")
		jsonOutput  = flag.Bool("json", false, "Output in JSON format")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v info, -vv debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress output")
	)

	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `codegraph - code graph indexer and query tool

Usage:
  codegraph <command> [options]

Commands:
  init      Create .codegraph/project.yaml configuration
  scan      Scan the repository and update the code graph
  show      Show a symbol's definition, file, and signature
  search    Search symbols by name or FQN pattern
  graph     Print callers, callees, a path, or cycles for a symbol

Global Options:
  --json         Output in JSON format (for applicable commands)
  --no-color     Disable color output (respects NO_COLOR env var)
  -v, --verbose  Increase verbosity (-v info, -vv debug)
  -q, --quiet    Suppress progress output
  -c, --config   Path to .codegraph/project.yaml
  -V, --version  Show version and exit

Examples:
  codegraph init
  codegraph scan
  codegraph scan --full
  codegraph show github.com/example/pkg.Foo
  codegraph search 'Handle*'
  codegraph graph github.com/example/pkg.Foo --callers --depth 2

For detailed command help: codegraph <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("codegraph version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	if *quiet && *verbose > 0 {
		fmt.Fprintln(os.Stderr, "Error: cannot use --quiet and --verbose together")
		os.Exit(1)
	}
	if *jsonOutput {
		*quiet = true
	}

	globals := globalFlags{JSON: *jsonOutput, NoColor: *noColor, Verbose: *verbose, Quiet: *quiet}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	var err error
	switch command {
	case "init":
		err = runInit(cmdArgs, *configPath, globals)
	case "scan":
		err = runScan(cmdArgs, *configPath, globals)
	case "show":
		err = runShow(cmdArgs, *configPath, globals)
	case "search":
		err = runSearch(cmdArgs, *configPath, globals)
	case "graph":
		err = runGraph(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	_, _ = ui.Fail.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
