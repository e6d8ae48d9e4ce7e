// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package search

import (
	"log/slog"

	"github.com/poiesic/waypoint/core"
)

// SearchMonitor receives callbacks as a search progresses.
// It is the diagnostic view of why a route was or was not returned.
type SearchMonitor interface {
	Start(query string)
	AfterTokenize(normalized string, tokens []string)
	RouteScored(result *core.SearchResult)
	RouteDiscarded(result *core.SearchResult)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                      {}
func (n *noopMonitor) AfterTokenize(_ string, _ []string)  {}
func (n *noopMonitor) RouteScored(_ *core.SearchResult)    {}
func (n *noopMonitor) RouteDiscarded(_ *core.SearchResult) {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)       {}

// LogMonitor writes every search stage to a logger at debug level.
type LogMonitor struct {
	logger *slog.Logger
}

var _ SearchMonitor = (*LogMonitor)(nil)

// NewLogMonitor creates a LogMonitor. A nil logger uses slog.Default().
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger.With("component", "search")}
}

func (m *LogMonitor) Start(query string) {
	m.logger.Debug("search started", "query", query)
}

func (m *LogMonitor) AfterTokenize(normalized string, tokens []string) {
	m.logger.Debug("query tokenized", "normalized", normalized, "tokens", tokens)
}

func (m *LogMonitor) RouteScored(result *core.SearchResult) {
	m.logger.Debug("route scored", routeAttrs(result)...)
}

func (m *LogMonitor) RouteDiscarded(result *core.SearchResult) {
	m.logger.Debug("route below threshold", routeAttrs(result)...)
}

func (m *LogMonitor) Finish(results []*core.SearchResult) {
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.Route.ID)
	}
	m.logger.Debug("search finished", "count", len(results), "routes", ids)
}

func routeAttrs(result *core.SearchResult) []any {
	d := result.MatchDetails
	return []any{
		"route", result.Route.ID,
		"score", result.Score,
		"semantic", d.Semantic,
		"tags", d.Tags,
		"capabilities", d.Capabilities,
		"title", d.Title,
		"path", d.Path,
		"priority", result.PriorityBoost,
	}
}
