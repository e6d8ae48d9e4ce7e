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

// Package mock provides test doubles for the ai package.
//
// Behavior is injected through exported function fields:
//
//	selector := mock.NewMockRouteSelector()
//	selector.SelectRouteFunc = func(ctx context.Context, req ai.SelectionRequest) (*ai.Selection, error) {
//	    return &ai.Selection{RouteID: "ptax", Confidence: 1}, nil
//	}
//
//	// Check call counts
//	count := selector.CallCount()
//
// # Default Behavior
//
//   - MockRouteSelector: picks the last candidate, so tests can tell a
//     selector choice apart from the lexical top result
//   - MockProvider: wraps a MockRouteSelector
package mock
