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

// Package navigation turns ranked routes into navigation targets.
//
// The Agent runs a search, then for every result cleans the route path of
// non-navigable segments, asks a QueryBuilder for query parameters, and
// assembles the full URL. Related routes and prompt context come from the
// pluggable GraphResolver and ContextBuilder; an optional ai.RouteSelector
// can pick among the ranked candidates.
package navigation
