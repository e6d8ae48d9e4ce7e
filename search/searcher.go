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
	"cmp"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/poiesic/waypoint/core"
)

// Searcher ranks routes against free-text queries.
// All methods are safe for concurrent use.
type Searcher struct {
	index    atomic.Pointer[Index]
	weights  Weights
	minScore float64
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithWeights replaces the scoring policy.
// Default is DefaultWeights().
func WithWeights(w Weights) Option {
	return func(s *Searcher) error {
		if err := w.Validate(); err != nil {
			return err
		}
		s.weights = w
		return nil
	}
}

// WithMinScore sets the score a result must strictly exceed.
// Default is DefaultMinScore.
func WithMinScore(minScore float64) Option {
	return func(s *Searcher) error {
		if minScore < 0 || math.IsNaN(minScore) || math.IsInf(minScore, 0) {
			return fmt.Errorf("%w: %v", ErrInvalidMinScore, minScore)
		}
		s.minScore = minScore
		return nil
	}
}

// NewSearcher indexes routes and returns a ready Searcher.
// An empty corpus is valid and matches nothing.
func NewSearcher(routes []*core.Route, opts ...Option) (*Searcher, error) {
	s := &Searcher{
		weights:  DefaultWeights(),
		minScore: DefaultMinScore,
		logger:   slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.index.Store(BuildIndex(routes))
	return s, nil
}

// Reload rebuilds the index from routes and swaps it in.
// Queries already running finish against the previous index.
func (s *Searcher) Reload(routes []*core.Route) {
	idx := BuildIndex(routes)
	s.index.Store(idx)
	s.logger.Info("route index reloaded", "routes", idx.Len())
}

// Snapshot returns the index currently used for queries.
func (s *Searcher) Snapshot() *Index {
	return s.index.Load()
}

// Weights returns the scoring policy in use.
func (s *Searcher) Weights() Weights {
	return s.weights
}

// Search returns up to limit routes ranked by relevance.
func (s *Searcher) Search(query string, limit int) []*core.Route {
	results := s.SearchWithDetails(query, limit)
	routes := make([]*core.Route, 0, len(results))
	for _, r := range results {
		routes = append(routes, r.Route)
	}
	return routes
}

// SearchWithDetails returns up to limit scored results with their channel breakdown.
func (s *Searcher) SearchWithDetails(query string, limit int) []*core.SearchResult {
	return s.SearchWithMonitor(query, limit, nil)
}

// SearchWithMonitor searches like SearchWithDetails and reports each stage to monitor.
//
// Blank queries, queries without any token and non-positive limits yield an
// empty result. Results strictly above the minimum score are sorted by score
// descending; equal scores keep corpus order.
func (s *Searcher) SearchWithMonitor(query string, limit int, monitor SearchMonitor) []*core.SearchResult {
	// Use noop monitor if none provided
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	monitor.Start(query)
	results := []*core.SearchResult{}

	if limit <= 0 || strings.TrimSpace(query) == "" {
		monitor.Finish(results)
		return results
	}

	q := NewQuery(query)
	monitor.AfterTokenize(q.Normalized, q.Tokens)
	if q.Empty() {
		monitor.Finish(results)
		return results
	}

	type ranked struct {
		result  *core.SearchResult
		ordinal int
	}

	idx := s.index.Load()
	kept := make([]ranked, 0, idx.Len())
	for _, entry := range idx.entries {
		result := ScoreRoute(entry, q, s.weights)
		if result.Score > s.minScore {
			monitor.RouteScored(result)
			kept = append(kept, ranked{result: result, ordinal: entry.Ordinal})
		} else {
			monitor.RouteDiscarded(result)
		}
	}

	slices.SortFunc(kept, func(a, b ranked) int {
		if c := cmp.Compare(b.result.Score, a.result.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ordinal, b.ordinal)
	})

	if len(kept) > limit {
		kept = kept[:limit]
	}
	for _, r := range kept {
		results = append(results, r.result)
	}

	monitor.Finish(results)
	return results
}

// FindByID returns the route with the given ID, or nil when there is none.
func (s *Searcher) FindByID(id string) *core.Route {
	entry := s.index.Load().Lookup(id)
	if entry == nil {
		return nil
	}
	return entry.Route
}

// AllRoutes returns the full corpus in its original order.
func (s *Searcher) AllRoutes() []*core.Route {
	return s.index.Load().Routes()
}
