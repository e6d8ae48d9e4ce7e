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

import "context"

// RouteSelector picks the best route for a query among ranked candidates.
// Implementations must be thread-safe for concurrent use.
type RouteSelector interface {
	// SelectRoute chooses one of req.Candidates.
	// A Selection with an empty RouteID means no candidate fits.
	// Returns an error only when the selection could not be obtained.
	SelectRoute(ctx context.Context, req SelectionRequest) (*Selection, error)
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
type AIProvider interface {
	// RouteSelector returns the route selection service.
	// The returned RouteSelector is safe for concurrent use.
	RouteSelector() RouteSelector

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
