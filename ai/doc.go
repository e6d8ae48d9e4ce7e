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

// Package ai provides abstractions for the optional AI services used by waypoint.
//
// Lexical search always produces the candidate list. An AI service may then
// pick the best candidate for an ambiguous query, using a context summary of
// the candidates and their related routes.
//
// # Implementation Packages
//
//   - ai/openai: production implementation using OpenAI-compatible APIs
//   - ai/mock: test doubles with injectable behavior
//
// Public constructors (openai.NewProvider, openai.NewRouteSelector) return
// interface types. Mock constructors return concrete types so tests can
// inject behavior and inspect call counts.
package ai
