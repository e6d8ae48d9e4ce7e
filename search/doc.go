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

// Package search implements lexical route matching.
//
// A corpus of routes is indexed once into an immutable Index. Each query is
// normalized, tokenized and scored against every indexed route on five
// channels (semantic text, tags, capabilities, title, path) using token-set
// Jaccard similarity and substring bonuses, plus a priority boost. Results
// below the minimum score are discarded and the rest are ranked.
//
// The Searcher holds the current Index behind an atomic pointer, so queries
// never lock and Reload swaps the whole index at once.
package search
