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
	"fmt"
	"math"
)

// DefaultMinScore is the score a result must strictly exceed to be kept.
const DefaultMinScore = 0.1

// DefaultSearchLimit is the result count used when a caller has no preference.
const DefaultSearchLimit = 5

// Weights is the scoring policy. Every channel contribution in a
// SearchResult is a product or sum of these values.
type Weights struct {
	Semantic             float64 `json:"semantic" toml:"semantic"`
	PhraseBonus          float64 `json:"phrase_bonus" toml:"phrase_bonus"`
	TagExact             float64 `json:"tag_exact" toml:"tag_exact"`
	TagPartial           float64 `json:"tag_partial" toml:"tag_partial"`
	TagSimilarity        float64 `json:"tag_similarity" toml:"tag_similarity"`
	CapabilityDirect     float64 `json:"capability_direct" toml:"capability_direct"`
	CapabilitySimilarity float64 `json:"capability_similarity" toml:"capability_similarity"`
	Title                float64 `json:"title" toml:"title"`
	TitleBonus           float64 `json:"title_bonus" toml:"title_bonus"`
	Path                 float64 `json:"path" toml:"path"`
	Priority             float64 `json:"priority" toml:"priority"`
}

// DefaultWeights returns the stock scoring policy.
func DefaultWeights() Weights {
	return Weights{
		Semantic:             5.0,
		PhraseBonus:          3.0,
		TagExact:             2.0,
		TagPartial:           1.0,
		TagSimilarity:        0.5,
		CapabilityDirect:     1.5,
		CapabilitySimilarity: 0.8,
		Title:                3.0,
		TitleBonus:           2.0,
		Path:                 1.0,
		Priority:             0.5,
	}
}

// Validate reports whether every weight is a finite, non-negative number.
func (w Weights) Validate() error {
	named := []struct {
		name  string
		value float64
	}{
		{"semantic", w.Semantic},
		{"phrase_bonus", w.PhraseBonus},
		{"tag_exact", w.TagExact},
		{"tag_partial", w.TagPartial},
		{"tag_similarity", w.TagSimilarity},
		{"capability_direct", w.CapabilityDirect},
		{"capability_similarity", w.CapabilitySimilarity},
		{"title", w.Title},
		{"title_bonus", w.TitleBonus},
		{"path", w.Path},
		{"priority", w.Priority},
	}
	for _, n := range named {
		if n.value < 0 || math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return fmt.Errorf("%w: %s = %v", ErrInvalidWeights, n.name, n.value)
		}
	}
	return nil
}
