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

// Package metrics defines the Prometheus counters and histograms a scan
// reports, served over the /metrics endpoint by promhttp.Handler when the
// CLI's scan command is given --metrics-addr.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric a scan run touches, registered against its
// own registry so tests can spin up an isolated collector per case.
type Collector struct {
	registry *prometheus.Registry

	ScansTotal       *prometheus.CounterVec
	FilesParsed      prometheus.Counter
	FilesKept        prometheus.Counter
	FilesDeleted     prometheus.Counter
	ParseErrors      prometheus.Counter
	SymbolsIndexed   prometheus.Counter
	EdgesWritten     *prometheus.CounterVec
	CallsUnresolved  prometheus.Counter
	ScanDuration     *prometheus.HistogramVec
	QueryDuration    *prometheus.HistogramVec
}

// New builds a Collector registered against a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		ScansTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codegraph_scans_total",
			Help: "Number of scans run, partitioned by outcome.",
		}, []string{"outcome"}),
		FilesParsed: factory.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_files_parsed_total",
			Help: "Number of files re-parsed across all scans.",
		}),
		FilesKept: factory.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_files_kept_total",
			Help: "Number of files carried forward unparsed across all scans.",
		}),
		FilesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_files_deleted_total",
			Help: "Number of files dropped from the graph across all scans.",
		}),
		ParseErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_parse_errors_total",
			Help: "Number of files that failed to parse.",
		}),
		SymbolsIndexed: factory.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_symbols_indexed_total",
			Help: "Number of symbols written across all scans.",
		}),
		EdgesWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "codegraph_edges_written_total",
			Help: "Number of edges written, partitioned by edge type.",
		}, []string{"type"}),
		CallsUnresolved: factory.NewCounter(prometheus.CounterOpts{
			Name: "codegraph_calls_unresolved_total",
			Help: "Number of calls that resolved to an external stub rather than a known symbol.",
		}),
		ScanDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codegraph_scan_duration_seconds",
			Help:    "Wall time of a scan, partitioned by phase.",
			Buckets: prometheus.DefBuckets,
		}, []string{"phase"}),
		QueryDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "codegraph_query_duration_seconds",
			Help:    "Wall time of a query-engine operation, partitioned by operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// Handler exposes the collector's registry over the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
