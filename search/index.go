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
	"slices"

	"github.com/poiesic/waypoint/core"
)

// IndexedRoute is the precomputed, normalized view of one route.
type IndexedRoute struct {
	Route   *core.Route
	Ordinal int // position of the route's first definition in the corpus

	// NormalizedText is the normalized concatenation of semantic text, title and path.
	NormalizedText         string
	NormalizedSemantic     string
	NormalizedTitle        string
	NormalizedPath         string
	NormalizedTags         []string
	NormalizedCapabilities []string

	textTokens  tokenSet
	titleTokens tokenSet
	tagTokens   []tokenSet
	capTokens   []tokenSet
}

// Index is an immutable snapshot of a corpus, ready for scoring.
// It is safe for concurrent use.
type Index struct {
	routes  []*core.Route
	entries []*IndexedRoute
	byID    map[string]*IndexedRoute
}

// BuildIndex indexes routes. Nil routes are skipped and missing tags or
// capabilities are treated as empty. When two routes share an ID the later
// definition replaces the earlier one but keeps its corpus position.
func BuildIndex(routes []*core.Route) *Index {
	idx := &Index{
		routes:  make([]*core.Route, 0, len(routes)),
		entries: make([]*IndexedRoute, 0, len(routes)),
		byID:    make(map[string]*IndexedRoute, len(routes)),
	}

	for _, route := range routes {
		if route == nil {
			continue
		}
		idx.routes = append(idx.routes, route)

		entry := indexRoute(route)
		if prev, ok := idx.byID[route.ID]; ok {
			entry.Ordinal = prev.Ordinal
			idx.entries[prev.Ordinal] = entry
		} else {
			entry.Ordinal = len(idx.entries)
			idx.entries = append(idx.entries, entry)
		}
		idx.byID[route.ID] = entry
	}

	return idx
}

func indexRoute(route *core.Route) *IndexedRoute {
	entry := &IndexedRoute{
		Route:              route,
		NormalizedText:     Normalize(route.SemanticText + " " + route.Title + " " + route.Path),
		NormalizedSemantic: Normalize(route.SemanticText),
		NormalizedTitle:    Normalize(route.Title),
		NormalizedPath:     Normalize(route.Path),
	}
	entry.textTokens = newTokenSet(Tokenize(entry.NormalizedText))
	entry.titleTokens = newTokenSet(Tokenize(entry.NormalizedTitle))

	for _, tag := range route.Tags {
		if n := Normalize(tag); n != "" {
			entry.NormalizedTags = append(entry.NormalizedTags, n)
			entry.tagTokens = append(entry.tagTokens, newTokenSet(Tokenize(n)))
		}
	}
	for _, capability := range route.Capabilities {
		if n := Normalize(capability); n != "" {
			entry.NormalizedCapabilities = append(entry.NormalizedCapabilities, n)
			entry.capTokens = append(entry.capTokens, newTokenSet(Tokenize(n)))
		}
	}

	return entry
}

// Len returns the number of distinct route IDs.
func (idx *Index) Len() int {
	return len(idx.entries)
}

// Lookup returns the indexed route for id, or nil.
func (idx *Index) Lookup(id string) *IndexedRoute {
	return idx.byID[id]
}

// Entries returns the indexed routes ordered by corpus position.
func (idx *Index) Entries() []*IndexedRoute {
	return slices.Clone(idx.entries)
}

// Routes returns the corpus exactly as supplied, minus nil entries.
func (idx *Index) Routes() []*core.Route {
	return slices.Clone(idx.routes)
}
