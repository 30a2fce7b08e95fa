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
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	flag "github.com/spf13/pflag"

	"github.com/pranav100000/consilium-codegraph/internal/config"
	"github.com/pranav100000/consilium-codegraph/internal/metrics"
	"github.com/pranav100000/consilium-codegraph/internal/orchestrator"
	"github.com/pranav100000/consilium-codegraph/internal/store"
	"github.com/pranav100000/consilium-codegraph/internal/ui"
)

// runScan executes the 'scan' command: walk the repository at the given
// ref (HEAD by default), parse and resolve its code graph, and persist it
// under the store's data directory.
//
// Flags:
//   - --full: force a full rescan, ignoring the previous checkpoint
//   - --ref: git ref to scan (default: HEAD)
//   - --semantic: enable the in-process Go semantic indexing pass
//   - --debug: enable debug logging
//   - --metrics-addr: HTTP address to expose Prometheus metrics on
func runScan(args []string, configPath string, globals globalFlags) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	full := fs.Bool("full", false, "Force a full rescan")
	ref := fs.String("ref", "", "Git ref to scan (default: HEAD)")
	semantic := fs.Bool("semantic", true, "Run the Go semantic indexing pass")
	debug := fs.Bool("debug", false, "Enable debug logging")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: codegraph scan [options]

Scans the current repository, building or updating its code graph. Runs
incrementally against the last scanned commit unless --full is given.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if configPath == "" {
		configPath = config.ConfigPath(".")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	s, err := store.Open(store.Config{DataDir: cfg.DataDir})
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer s.Close()

	m := metrics.New()
	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", m.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			logger.Info("metrics.http.start", "addr", *metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("metrics.http.error", "err", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Info("scan.shutdown.signal", "signal", sig.String())
		cancel()
	}()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	orch := orchestrator.New(s, m, orchestrator.Config{
		ExcludeGlobs:    cfg.Scan.ExcludeGlobs,
		SemanticEnabled: *semantic,
		ForceFullScan:   *full,
		OnProgress:      newProgressReporter(globals),
	}, logger)

	result, err := orch.Scan(ctx, cwd, *ref)
	if err != nil {
		return fmt.Errorf("scanning: %w", err)
	}

	printScanResult(result, globals)
	return nil
}

// newProgressReporter returns an orchestrator.Config.OnProgress callback
// that drives a terminal progress bar, one bar per phase, or nil when
// progress output is suppressed (quiet mode, JSON output, non-terminal).
func newProgressReporter(globals globalFlags) func(phase string, current, total int) {
	if globals.Quiet || !isatty.IsTerminal(os.Stderr.Fd()) {
		return nil
	}
	var bar *progressbar.ProgressBar
	var currentPhase string
	return func(phase string, current, total int) {
		if phase != currentPhase {
			if bar != nil {
				_ = bar.Finish()
			}
			currentPhase = phase
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription(phase),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set(current)
	}
}

func printScanResult(r *orchestrator.Result, globals globalFlags) {
	if globals.Quiet {
		return
	}
	_, _ = ui.Bold.Println("Scan Complete")
	fmt.Printf("Commit:          %s\n", r.CommitID)
	fmt.Printf("Files parsed:    %d\n", r.FilesParsed)
	fmt.Printf("Files kept:      %d\n", r.FilesKept)
	fmt.Printf("Files deleted:   %d\n", r.FilesDeleted)
	if r.ParseErrors > 0 {
		_, _ = ui.Warn.Printf("Parse errors:    %d\n", r.ParseErrors)
	}
	fmt.Printf("Symbols:         %d\n", r.Symbols)
	fmt.Printf("Edges:           %d\n", r.Edges)
	if r.SemanticEdges > 0 {
		fmt.Printf("Semantic edges:  %d\n", r.SemanticEdges)
	}
	fmt.Printf("Unresolved calls stubbed: %d\n", r.ResolverStats.ResolvedStub)
	fmt.Printf("Mutations:       %d\n", r.Mutations)
	fmt.Printf("Duration:        %s\n", r.Duration.Round(time.Millisecond))
}
