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

package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/waypoint/ai"
)

const selectorSystemPrompt = `You route users of a web application to the right screen.

You receive the user's request, a context summary, and a numbered list of
candidate screens found by keyword search. Pick the single candidate that best
fulfils the request. Prefer the first candidates when several fit equally.
If none of them fits, answer with an empty route_id.

Respond with JSON only, matching this schema:
{
  "type": "object",
  "properties": {
    "route_id": {"type": "string"},
    "reason": {"type": "string"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  },
  "required": ["route_id", "reason", "confidence"],
  "additionalProperties": false
}

The reason must be one short sentence in the language of the request.`

// buildSelectorPrompt renders the user message for a selection request.
func buildSelectorPrompt(req ai.SelectionRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Request: %s\n", scrubString(req.Query))
	if req.Context != "" {
		fmt.Fprintf(&b, "\nContext:\n%s\n", strings.TrimSpace(req.Context))
	}
	b.WriteString("\nCandidates:\n")
	for i, c := range req.Candidates {
		fmt.Fprintf(&b, "%d. route_id=%q title=%q path=%q score=%.2f\n", i+1, c.ID, c.Title, c.Path, c.Score)
	}
	return b.String()
}

// scrubString removes control characters and collapses whitespace.
func scrubString(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return ' '
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
