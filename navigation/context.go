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
	"fmt"
	"strings"

	"github.com/poiesic/waypoint/core"
)

// ContextBuilder composes a textual context from ranked results and the
// relations of the route the user is currently on. current may be nil.
type ContextBuilder interface {
	BuildContext(query string, results []*core.SearchResult, current *core.Route, related []core.ResolvedRelation) string
}

// TextContextBuilder renders a plain-text context suitable for a prompt.
type TextContextBuilder struct{}

var _ ContextBuilder = TextContextBuilder{}

func (TextContextBuilder) BuildContext(query string, results []*core.SearchResult, current *core.Route, related []core.ResolvedRelation) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Query: %s\n", strings.TrimSpace(query))

	if current != nil {
		fmt.Fprintf(&sb, "\nCurrent route: %s (%s)\n", current.Title, current.Path)
	}

	sb.WriteString("\nCandidate routes:\n")
	if len(results) == 0 {
		sb.WriteString("(none)\n")
	}
	for i, r := range results {
		fmt.Fprintf(&sb, "%d. [%s] %s (%s) score=%.2f\n", i+1, r.Route.ID, r.Route.Title, r.Route.Path, r.Score)
		if text := strings.TrimSpace(r.Route.SemanticText); text != "" {
			fmt.Fprintf(&sb, "   %s\n", text)
		}
	}

	if len(related) > 0 {
		sb.WriteString("\nRelated routes:\n")
		for _, rel := range related {
			fmt.Fprintf(&sb, "- %s: %s", rel.Relation, rel.Path)
			if rel.Route != nil {
				fmt.Fprintf(&sb, " (%s)", rel.Route.Title)
			}
			if rel.Description != "" {
				fmt.Fprintf(&sb, " - %s", rel.Description)
			}
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
