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

package navigation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/poiesic/waypoint/ai"
	"github.com/poiesic/waypoint/core"
)

const (
	// DefaultSearchLimit is the number of results ProcessQuery resolves.
	DefaultSearchLimit = 3

	// DefaultContextLimit is the number of candidates BuildContext renders.
	DefaultContextLimit = 5

	fallbackReason = "top lexical match"
)

// RouteSearcher is the part of search.Searcher the Agent depends on.
type RouteSearcher interface {
	SearchWithDetails(query string, limit int) []*core.SearchResult
	FindByID(id string) *core.Route
	AllRoutes() []*core.Route
	Reload(routes []*core.Route)
}

// reloadable is implemented by collaborators that cache corpus state.
type reloadable interface {
	Reload(routes []*core.Route)
}

// Agent resolves user input into navigation targets.
// It holds no per-query state and is safe for concurrent use.
type Agent struct {
	searcher     RouteSearcher
	searchLimit  int
	contextLimit int
	filter       SegmentFilter
	queries      QueryBuilder
	graph        GraphResolver
	contexts     ContextBuilder
	selector     ai.RouteSelector
	logger       *slog.Logger
}

// Option configures an Agent.
type Option func(*Agent) error

// WithSearchLimit sets how many ranked results ProcessQuery resolves.
// Default is DefaultSearchLimit.
func WithSearchLimit(limit int) Option {
	return func(a *Agent) error {
		if limit <= 0 {
			return fmt.Errorf("%w: search limit %d", ErrInvalidLimit, limit)
		}
		a.searchLimit = limit
		return nil
	}
}

// WithContextLimit sets how many candidates BuildContext includes.
// Default is DefaultContextLimit.
func WithContextLimit(limit int) Option {
	return func(a *Agent) error {
		if limit <= 0 {
			return fmt.Errorf("%w: context limit %d", ErrInvalidLimit, limit)
		}
		a.contextLimit = limit
		return nil
	}
}

// WithSegmentFilter sets the predicate for non-navigable path segments.
// Default strips segments starting with DefaultPrivatePrefix.
func WithSegmentFilter(filter SegmentFilter) Option {
	return func(a *Agent) error {
		if filter != nil {
			a.filter = filter
		}
		return nil
	}
}

// WithQueryBuilder sets the query parameter collaborator.
// Default is NoParams.
func WithQueryBuilder(qb QueryBuilder) Option {
	return func(a *Agent) error {
		if qb != nil {
			a.queries = qb
		}
		return nil
	}
}

// WithGraphResolver sets the related-route collaborator.
// Default is a RouteGraph over the searcher's corpus.
func WithGraphResolver(g GraphResolver) Option {
	return func(a *Agent) error {
		a.graph = g
		return nil
	}
}

// WithContextBuilder sets the context collaborator.
// Default is TextContextBuilder.
func WithContextBuilder(cb ContextBuilder) Option {
	return func(a *Agent) error {
		if cb != nil {
			a.contexts = cb
		}
		return nil
	}
}

// WithSelector enables assisted navigation through an AI route selector.
func WithSelector(selector ai.RouteSelector) Option {
	return func(a *Agent) error {
		a.selector = selector
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) error {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger
		return nil
	}
}

// NewAgent creates an Agent over searcher.
func NewAgent(searcher RouteSearcher, opts ...Option) (*Agent, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}

	a := &Agent{
		searcher:     searcher,
		searchLimit:  DefaultSearchLimit,
		contextLimit: DefaultContextLimit,
		filter:       PrivateSegments(DefaultPrivatePrefix),
		queries:      NoParams{},
		contexts:     TextContextBuilder{},
		logger:       slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	if a.graph == nil {
		a.graph = NewRouteGraph(searcher.AllRoutes(), a.filter)
	}
	a.logger = a.logger.With("component", "navigation")
	return a, nil
}

// ProcessQuery ranks routes for input and resolves each result into a
// navigation target. Degenerate input yields an empty slice.
// The only error is ctx's.
func (a *Agent) ProcessQuery(ctx context.Context, input string) ([]*core.NavigationResult, error) {
	_, navigation, err := a.rank(ctx, input)
	return navigation, err
}

// rank returns the search results for input and their resolved targets, index for index.
func (a *Agent) rank(ctx context.Context, input string) ([]*core.SearchResult, []*core.NavigationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	results := a.searcher.SearchWithDetails(input, a.searchLimit)
	navigation := make([]*core.NavigationResult, 0, len(results))
	for _, result := range results {
		navigation = append(navigation, a.resolve(input, result))
	}

	a.logger.Debug("query processed", "input", input, "results", len(navigation))
	return results, navigation, nil
}

func (a *Agent) resolve(input string, result *core.SearchResult) *core.NavigationResult {
	params := a.queries.BuildQueryParams(input, result.Route)
	if params == nil {
		params = map[string]string{}
	}
	path := CleanPath(result.Route.Path, a.filter)
	return &core.NavigationResult{
		Route:      result.Route,
		Path:       path,
		Params:     params,
		FullURL:    path + a.queries.ToQueryString(params),
		Confidence: result.Score,
	}
}

// GetRelated returns the routes related to routeID.
func (a *Agent) GetRelated(routeID string) []core.ResolvedRelation {
	if a.graph == nil {
		return []core.ResolvedRelation{}
	}
	return a.graph.RelatedRoutes(routeID)
}

// BuildContext composes a context blob for query. When currentRouteID names
// a known route, its relations are included.
func (a *Agent) BuildContext(query, currentRouteID string) string {
	return a.buildContext(query, a.searcher.SearchWithDetails(query, a.contextLimit), currentRouteID)
}

func (a *Agent) buildContext(query string, results []*core.SearchResult, currentRouteID string) string {
	var current *core.Route
	var related []core.ResolvedRelation
	if currentRouteID != "" {
		if current = a.searcher.FindByID(currentRouteID); current != nil {
			related = a.GetRelated(currentRouteID)
		}
	}
	return a.contexts.BuildContext(query, results, current, related)
}

// Assist resolves input to a single navigation target. When a selector is
// configured it chooses among the ranked candidates; otherwise, or when the
// selector fails or picks nothing valid, the top candidate is returned.
// A nil result means nothing matched.
func (a *Agent) Assist(ctx context.Context, input, currentRouteID string) (*core.NavigationResult, error) {
	results, candidates, err := a.rank(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	fallback := candidates[0]
	if a.selector == nil {
		fallback.Reason = fallbackReason
		return fallback, nil
	}

	chosen, err := a.choose(ctx, input, currentRouteID, results, candidates)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		a.logger.Warn("route selection failed, using top candidate", "err", err)
		fallback.Reason = fallbackReason
		return fallback, nil
	}
	return chosen, nil
}

// Select is Assist without the fallback: the result always comes from the
// selector. It returns ErrSelectorRequired when none is configured, the
// selector's error when it fails, and ErrInvalidSelection when the choice is
// not one of the candidates. A nil result with a nil error means nothing matched.
func (a *Agent) Select(ctx context.Context, input, currentRouteID string) (*core.NavigationResult, error) {
	if a.selector == nil {
		return nil, ErrSelectorRequired
	}
	results, candidates, err := a.rank(ctx, input)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	return a.choose(ctx, input, currentRouteID, results, candidates)
}

// choose asks the selector to pick among candidates. The selector's context
// is rendered from the same results, so every route it sees is selectable.
func (a *Agent) choose(ctx context.Context, input, currentRouteID string, results []*core.SearchResult, candidates []*core.NavigationResult) (*core.NavigationResult, error) {
	req := ai.SelectionRequest{
		Query:      input,
		Context:    a.buildContext(input, results, currentRouteID),
		Candidates: make([]ai.Candidate, 0, len(candidates)),
	}
	for _, c := range candidates {
		req.Candidates = append(req.Candidates, ai.Candidate{
			ID:    c.Route.ID,
			Title: c.Route.Title,
			Path:  c.Path,
			Score: c.Confidence,
		})
	}

	selection, err := a.selector.SelectRoute(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("route selection failed: %w", err)
	}
	if selection == nil || selection.RouteID == "" {
		return nil, fmt.Errorf("%w: empty choice", ErrInvalidSelection)
	}
	for _, c := range candidates {
		if c.Route.ID == selection.RouteID {
			c.Reason = selection.Reason
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w: %q is not a candidate", ErrInvalidSelection, selection.RouteID)
}

// Reload swaps the corpus in the searcher and in any collaborator that caches it.
func (a *Agent) Reload(routes []*core.Route) {
	a.searcher.Reload(routes)
	if r, ok := a.graph.(reloadable); ok {
		r.Reload(routes)
	}
}
