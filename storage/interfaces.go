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

package storage

import (
	"context"

	"github.com/poiesic/waypoint/core"
)

// Repository is the base interface for all storage operations.
type Repository interface {
	// WithTransaction executes a function within a transaction.
	// Repository calls made with the ctx passed to fn join the transaction,
	// including calls on other repositories sharing the same backend.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// RouteRepository persists a route catalog and remembers corpus order.
type RouteRepository interface {
	Repository

	// PutRoutes inserts or replaces routes by ID.
	// New routes are appended to the corpus order; replaced routes keep their position.
	PutRoutes(ctx context.Context, routes ...*core.Route) error

	// GetRoute retrieves a single route by ID.
	// Returns ErrNotFound if the route doesn't exist.
	GetRoute(ctx context.Context, id string) (*core.Route, error)

	// ListRoutes returns every stored route in corpus order.
	ListRoutes(ctx context.Context) ([]*core.Route, error)

	// DeleteRoutes removes routes by ID.
	// Returns ErrNotFound if any route doesn't exist; nothing is deleted in that case.
	DeleteRoutes(ctx context.Context, ids ...string) error

	// ReplaceAll atomically replaces the whole catalog with routes, in the given order.
	ReplaceAll(ctx context.Context, routes []*core.Route) error

	// CountRoutes returns the number of stored routes.
	CountRoutes(ctx context.Context) (int, error)
}

// ImportStateRepository remembers the last import applied to the catalog.
type ImportStateRepository interface {
	// SaveImportState persists state, stamping ImportedAt.
	SaveImportState(ctx context.Context, state *core.ImportState) error

	// LoadImportState returns the last saved state.
	// Returns nil, nil if no import has been recorded.
	LoadImportState(ctx context.Context) (*core.ImportState, error)
}
