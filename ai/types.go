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

package ai

// Candidate is a ranked route offered to a RouteSelector.
type Candidate struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Path  string  `json:"path"`
	Score float64 `json:"score"`
}

// SelectionRequest carries everything a selector may look at.
type SelectionRequest struct {
	// Query is the raw user input.
	Query string

	// Context is a human-readable summary of candidates and related routes.
	Context string

	// Candidates are ranked by lexical score, best first.
	Candidates []Candidate
}

// Selection is a selector's verdict.
type Selection struct {
	// RouteID is the chosen candidate, or empty when none fits.
	RouteID string

	// Reason is a short explanation suitable for display.
	Reason string

	// Confidence is the selector's own certainty, from 0 to 1.
	Confidence float64
}

// HasCandidate reports whether id is one of the request's candidates.
func (r SelectionRequest) HasCandidate(id string) bool {
	for _, c := range r.Candidates {
		if c.ID == id {
			return true
		}
	}
	return false
}
