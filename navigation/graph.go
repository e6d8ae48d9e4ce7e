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
	"sync/atomic"

	"github.com/poiesic/waypoint/core"
)

// GraphResolver finds the routes related to a route by explicit edges.
type GraphResolver interface {
	RelatedRoutes(routeID string) []core.ResolvedRelation
}

// routeGraph is an immutable snapshot of the relation edges of a corpus.
type routeGraph struct {
	byID   map[string]*core.Route
	byPath map[string]*core.Route
}

// RouteGraph resolves the Related edges declared on each route against the
// corpus. A target path matches a route by its raw path or by its cleaned
// path, so edges may be declared either way.
type RouteGraph struct {
	filter SegmentFilter
	graph  atomic.Pointer[routeGraph]
}

var _ GraphResolver = (*RouteGraph)(nil)

// NewRouteGraph builds a graph over routes. filter is used to derive cleaned paths.
func NewRouteGraph(routes []*core.Route, filter SegmentFilter) *RouteGraph {
	g := &RouteGraph{filter: filter}
	g.Reload(routes)
	return g
}

// Reload rebuilds the graph from routes.
func (g *RouteGraph) Reload(routes []*core.Route) {
	snapshot := &routeGraph{
		byID:   make(map[string]*core.Route, len(routes)),
		byPath: make(map[string]*core.Route, len(routes)*2),
	}
	for _, r := range routes {
		if r == nil {
			continue
		}
		snapshot.byID[r.ID] = r
		snapshot.byPath[r.Path] = r
	}
	// Cleaned paths never shadow a raw path.
	for _, r := range routes {
		if r == nil {
			continue
		}
		cleaned := CleanPath(r.Path, g.filter)
		if _, exists := snapshot.byPath[cleaned]; !exists {
			snapshot.byPath[cleaned] = r
		}
	}
	g.graph.Store(snapshot)
}

// RelatedRoutes returns the declared relations of routeID in declaration
// order. Targets missing from the corpus are returned with a nil Route.
// An unknown routeID yields an empty slice.
func (g *RouteGraph) RelatedRoutes(routeID string) []core.ResolvedRelation {
	snapshot := g.graph.Load()
	route, ok := snapshot.byID[routeID]
	if !ok {
		return []core.ResolvedRelation{}
	}

	related := make([]core.ResolvedRelation, 0, len(route.Related))
	for _, rel := range route.Related {
		target := snapshot.byPath[rel.Path]
		if target == nil {
			target = snapshot.byPath[CleanPath(rel.Path, g.filter)]
		}
		related = append(related, core.ResolvedRelation{
			Relation:    rel.Relation,
			Path:        rel.Path,
			Description: rel.Description,
			Route:       target,
		})
	}
	return related
}
