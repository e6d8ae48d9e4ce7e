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

// Package storage provides the storage abstraction layer for waypoint.
//
// This package defines repository interfaces that decouple the route catalog
// from the engine that searches it. The catalog is the durable copy of a
// route corpus; the search index is always rebuilt from it in memory.
//
// # Architecture
//
//   - RouteRepository: ordered route catalog keyed by route ID
//   - ImportStateRepository: bookkeeping for the last applied import
//
// Routes are encoded with a compact binary codec (see MarshalRoute).
//
// # Usage
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
//	routes, err := badger.NewRouteRepository(backend)
//
// Use in tests with in-memory storage:
//
//	routes, backend, err := badger.NewMemoryRepositories()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
