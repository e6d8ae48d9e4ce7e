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
	"strings"

	"github.com/poiesic/waypoint/core"
)

// Query is a user query prepared for scoring.
type Query struct {
	Raw        string
	Normalized string
	Tokens     []string

	tokens tokenSet
}

// NewQuery normalizes and tokenizes text.
func NewQuery(text string) Query {
	normalized := Normalize(text)
	tokens := Tokenize(normalized)
	return Query{
		Raw:        text,
		Normalized: normalized,
		Tokens:     tokens,
		tokens:     newTokenSet(tokens),
	}
}

// Empty reports whether the query has nothing to match on.
func (q Query) Empty() bool {
	return len(q.Tokens) == 0
}

// ScoreRoute computes the channel breakdown and total score of one route.
// The returned Score always equals MatchDetails.Total() + PriorityBoost.
func ScoreRoute(entry *IndexedRoute, q Query, w Weights) *core.SearchResult {
	if q.tokens == nil {
		q.tokens = newTokenSet(q.Tokens)
	}

	var details core.MatchDetails

	details.Semantic = jaccard(entry.textTokens, q.tokens) * w.Semantic
	if containsQuery(entry.NormalizedSemantic, q) {
		details.Semantic += w.PhraseBonus
	}

	details.Tags = scoreTags(entry, q, w)
	details.Capabilities = scoreCapabilities(entry, q, w)

	details.Title = jaccard(entry.titleTokens, q.tokens) * w.Title
	if containsQuery(entry.NormalizedTitle, q) {
		details.Title += w.TitleBonus
	}

	if containsQuery(entry.NormalizedPath, q) {
		details.Path = w.Path
	}

	boost := entry.Route.Priority * w.Priority

	return &core.SearchResult{
		Route:         entry.Route,
		Score:         details.Total() + boost,
		MatchDetails:  details,
		PriorityBoost: boost,
	}
}

// scoreTags credits each tag through exactly one branch: an exact token
// match, else a substring match in either direction, else token similarity.
func scoreTags(entry *IndexedRoute, q Query, w Weights) float64 {
	score := 0.0
	for i, tag := range entry.NormalizedTags {
		switch {
		case anyToken(q.Tokens, func(tok string) bool { return tok == tag }):
			score += w.TagExact
		case anyToken(q.Tokens, func(tok string) bool {
			return strings.Contains(tag, tok) || strings.Contains(tok, tag)
		}):
			score += w.TagPartial
		default:
			score += jaccard(entry.tagTokens[i], q.tokens) * w.TagSimilarity
		}
	}
	return score
}

// scoreCapabilities credits each capability with both the direct match
// bonus and its token similarity; the two are not exclusive.
func scoreCapabilities(entry *IndexedRoute, q Query, w Weights) float64 {
	score := 0.0
	for i, capability := range entry.NormalizedCapabilities {
		if containsQuery(capability, q) {
			score += w.CapabilityDirect
		}
		score += jaccard(entry.capTokens[i], q.tokens) * w.CapabilitySimilarity
	}
	return score
}

func containsQuery(text string, q Query) bool {
	return q.Normalized != "" && strings.Contains(text, q.Normalized)
}

func anyToken(tokens []string, match func(string) bool) bool {
	for _, tok := range tokens {
		if match(tok) {
			return true
		}
	}
	return false
}
