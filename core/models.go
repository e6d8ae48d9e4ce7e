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

package core

import (
	"encoding/binary"
	"hash"
	"math"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Relation names the kind of edge between two routes.
type Relation string

const (
	RelationParent      Relation = "parent"
	RelationChild       Relation = "child"
	RelationSibling     Relation = "sibling"
	RelationAlternative Relation = "alternative"
)

// SearchParam describes a query-string parameter a route understands.
type SearchParam struct {
	Name        string `json:"name" toml:"name" validate:"required"`
	Type        string `json:"type,omitempty" toml:"type,omitempty"`
	Description string `json:"description,omitempty" toml:"description,omitempty"`
}

// RelatedRoute is a declared edge from one route to another, addressed by path.
type RelatedRoute struct {
	Path        string   `json:"path" toml:"path" validate:"required"`
	Relation    Relation `json:"relation" toml:"relation" validate:"required,oneof=parent child sibling alternative"`
	Description string   `json:"description,omitempty" toml:"description,omitempty"`
}

// Route describes a navigable destination of the host application.
// All text fields exist for matching only; Path is what a navigation
// eventually targets once non-navigable segments are removed.
type Route struct {
	ID           string   `json:"id" toml:"id" validate:"required"`
	Path         string   `json:"path" toml:"path" validate:"required,startswith=/"`
	Title        string   `json:"title" toml:"title"`
	SemanticText string   `json:"semantic_text" toml:"semantic_text"`
	Tags         []string `json:"tags,omitempty" toml:"tags,omitempty"`
	Capabilities []string `json:"capabilities,omitempty" toml:"capabilities,omitempty"`
	Priority     float64  `json:"priority,omitempty" toml:"priority,omitempty" validate:"finite"`

	// Metadata carried along for collaborators; never scored.
	ExamplePrompts []string       `json:"example_prompts,omitempty" toml:"example_prompts,omitempty"`
	SearchParams   []SearchParam  `json:"search_params,omitempty" toml:"search_params,omitempty" validate:"dive"`
	Related        []RelatedRoute `json:"related,omitempty" toml:"related,omitempty" validate:"dive"`
	Entities       []string       `json:"entities,omitempty" toml:"entities,omitempty"`
}

// MatchDetails is the per-channel breakdown of a route's score.
type MatchDetails struct {
	Semantic     float64 `json:"semantic"`
	Tags         float64 `json:"tags"`
	Capabilities float64 `json:"capabilities"`
	Title        float64 `json:"title"`
	Path         float64 `json:"path"`
}

// Total returns the sum of all channel contributions.
func (m MatchDetails) Total() float64 {
	return m.Semantic + m.Tags + m.Capabilities + m.Title + m.Path
}

// SearchResult represents a scored route.
// Score always equals MatchDetails.Total() + PriorityBoost.
type SearchResult struct {
	Route         *Route       `json:"route"`
	Score         float64      `json:"score"`
	MatchDetails  MatchDetails `json:"match_details"`
	PriorityBoost float64      `json:"priority_boost"`
}

// NavigationResult is a fully resolved navigation target.
type NavigationResult struct {
	Route      *Route            `json:"route"`
	Path       string            `json:"path"`
	Params     map[string]string `json:"params"`
	FullURL    string            `json:"full_url"`
	Confidence float64           `json:"confidence"`
	Reason     string            `json:"reason,omitempty"` // Set by assisted navigation only
}

// ResolvedRelation is a declared relation whose target may or may not exist in the corpus.
type ResolvedRelation struct {
	Relation    Relation `json:"relation"`
	Path        string   `json:"path"`
	Description string   `json:"description,omitempty"`
	Route       *Route   `json:"route,omitempty"` // nil when the path matches no known route
}

// ImportState records the last corpus import applied to a catalog.
type ImportState struct {
	Source      string    `json:"source"`
	Mode        string    `json:"mode"`
	Fingerprint ID        `json:"fingerprint"`
	Routes      int       `json:"routes"`
	ImportedAt  time.Time `json:"imported_at"`
}

// Fingerprint hashes the content of a corpus, in order, into a single ID.
// Two corpora with the same fingerprint index identically.
func Fingerprint(routes []*Route) ID {
	h, _ := blake2b.New(8, nil)
	for _, r := range routes {
		if r == nil {
			continue
		}
		writeField(h, r.ID)
		writeField(h, r.Path)
		writeField(h, r.Title)
		writeField(h, r.SemanticText)
		writeList(h, r.Tags)
		writeList(h, r.Capabilities)
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(r.Priority))
		h.Write(buf[:])
		writeList(h, r.ExamplePrompts)
		for _, p := range r.SearchParams {
			writeField(h, p.Name)
			writeField(h, p.Type)
			writeField(h, p.Description)
		}
		for _, rel := range r.Related {
			writeField(h, rel.Path)
			writeField(h, string(rel.Relation))
			writeField(h, rel.Description)
		}
		writeList(h, r.Entities)
	}
	return ID(binary.LittleEndian.Uint64(h.Sum(nil)))
}

// writeField writes a length-prefixed string so adjacent fields cannot collide.
func writeField(h hash.Hash, s string) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(len(s)))
	h.Write(buf[:n])
	h.Write([]byte(s))
}

func writeList(h hash.Hash, items []string) {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(len(items)))
	h.Write(buf[:n])
	for _, item := range items {
		writeField(h, item)
	}
}
