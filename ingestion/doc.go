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

// Package ingestion provides pipeline orchestration for importing route corpora.
//
// The Pipeline type manages the import workflow, including:
//   - Validating incoming routes
//   - Persisting them to the route catalog, replacing or merging
//   - Recording the import state
//   - Swapping the live search index to the stored catalog
//
// Imports are serialized so the live index always reflects the last committed catalog.
package ingestion
