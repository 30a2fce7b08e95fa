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

// Package config loads .codegraph/project.yaml and supplies defaults for
// the scan pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the root of .codegraph/project.yaml.
type Config struct {
	ProjectID string       `yaml:"project_id"`
	DataDir   string       `yaml:"data_dir"`
	Scan      ScanConfig   `yaml:"scan"`
	Semantic  SemanticConfig `yaml:"semantic"`
}

// ScanConfig controls walking, parsing, and batching.
type ScanConfig struct {
	ExcludeGlobs     []string         `yaml:"exclude_globs"`
	MaxFileSizeBytes int64            `yaml:"max_file_size_bytes"`
	UseGitDelta      bool             `yaml:"use_git_delta"`
	Concurrency      ConcurrencyConfig `yaml:"concurrency"`
}

// ConcurrencyConfig controls worker pool sizes.
type ConcurrencyConfig struct {
	ParseWorkers   int `yaml:"parse_workers"`
	ResolveWorkers int `yaml:"resolve_workers"`
}

// SemanticConfig controls which semantic indexers run per language.
type SemanticConfig struct {
	GoEnabled     bool              `yaml:"go_enabled"`
	ExternalCmds  map[string]string `yaml:"external_cmds"` // language -> subprocess command
	TimeoutSeconds int              `yaml:"timeout_seconds"`
}

// DefaultConfig returns a config with sensible defaults: an exclude-glob
// list covering the usual build/dependency/VCS noise in a repo.
func DefaultConfig() Config {
	return Config{
		ProjectID: "",
		DataDir:   ".codegraph",
		Scan: ScanConfig{
			MaxFileSizeBytes: 1048576,
			UseGitDelta:      true,
			ExcludeGlobs: []string{
				".git/**",
				"node_modules/**", "vendor/**",
				"dist/**", "build/**", "bin/**", "**/bin/**", "out/**",
				".idea/**", ".vscode/**", "*.swp", "*.swo",
				".next/**", ".nuxt/**",
				".codegraph/**",
				"*.o", "*.so", "*.dylib", "*.exe", "*.dll", "*.a",
				".cache/**", "coverage/**", "tmp/**", ".tmp/**",
				"*.min.js", "*.min.css",
				"package-lock.json", "yarn.lock", "pnpm-lock.yaml", "go.sum",
			},
			Concurrency: ConcurrencyConfig{ParseWorkers: 4, ResolveWorkers: 8},
		},
		Semantic: SemanticConfig{
			GoEnabled:      true,
			ExternalCmds:   map[string]string{},
			TimeoutSeconds: 60,
		},
	}
}

// Load reads and parses the config file at path over DefaultConfig(), so
// any key the file does not set keeps its default (a key the file sets,
// even to a zero value, replaces it). A missing file is not an error: the caller
// gets DefaultConfig() back untouched.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigPath returns the default config path for a project root.
func ConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".codegraph", "project.yaml")
}
