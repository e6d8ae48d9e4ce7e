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

package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/poiesic/waypoint/core"
	"github.com/poiesic/waypoint/storage"
)

// RouteRepository implements storage.RouteRepository for BadgerDB.
//
// Each route is stored under its ID together with a corpus ordinal drawn
// from a sequence; a second key space maps ordinals back to IDs so listing
// is a single ordered prefix scan.
type RouteRepository struct {
	backend    *Backend
	ordinalSeq *badger.Sequence
	writeMu    sync.Mutex
}

var _ storage.RouteRepository = (*RouteRepository)(nil)

// NewRouteRepository creates a new RouteRepository.
func NewRouteRepository(backend *Backend) (*RouteRepository, error) {
	seq, err := backend.GetSequence(routeOrdinalSeq)
	if err != nil {
		return nil, err
	}

	return &RouteRepository{
		backend:    backend,
		ordinalSeq: seq,
	}, nil
}

// Close releases the ordinal sequence.
func (r *RouteRepository) Close() error {
	return r.ordinalSeq.Release()
}

// WithTransaction delegates to the backend.
func (r *RouteRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.backend.WithTransaction(ctx, fn)
}

// PutRoutes inserts or replaces routes by ID.
func (r *RouteRepository) PutRoutes(ctx context.Context, routes ...*core.Route) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		if err := r.putRoutes(tx, routes); err != nil {
			return err
		}
		return nil
	}, true)
}

// GetRoute retrieves a single route by ID.
func (r *RouteRepository) GetRoute(ctx context.Context, id string) (*core.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var route *core.Route
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		_, stored, err := readRoute(tx, makeRouteKey(id))
		if err != nil {
			return err
		}
		if stored == nil {
			return fmt.Errorf("%w: route %q", storage.ErrNotFound, id)
		}
		route = stored
		return nil
	}, false)

	return route, err
}

// ListRoutes returns every stored route in corpus order.
func (r *RouteRepository) ListRoutes(ctx context.Context) ([]*core.Route, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var routes []*core.Route
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(routeOrderPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			id, err := iter.Item().ValueCopy(nil)
			if err != nil {
				return err
			}

			_, route, err := readRoute(tx, makeRouteKey(string(id)))
			if err != nil {
				return err
			}
			if route == nil {
				r.backend.logger.Warn("order index points at missing route", "id", string(id))
				continue
			}
			routes = append(routes, route)
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}
	return routes, nil
}

// DeleteRoutes removes routes by ID. Nothing is deleted if any ID is unknown.
func (r *RouteRepository) DeleteRoutes(ctx context.Context, ids ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeRouteKey(id)
			ordinal, route, err := readRoute(tx, key)
			if err != nil {
				return err
			}
			if route == nil {
				return fmt.Errorf("%w: route %q", storage.ErrNotFound, id)
			}
			if err := tx.Delete(makeRouteOrderKey(ordinal)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return nil
	}, true)
}

// ReplaceAll atomically replaces the whole catalog.
func (r *RouteRepository) ReplaceAll(ctx context.Context, routes []*core.Route) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	return r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		for _, prefix := range []string{routePrefix, routeOrderPrefix} {
			if err := deletePrefix(tx, []byte(prefix)); err != nil {
				return err
			}
		}
		if err := r.putRoutes(tx, routes); err != nil {
			return err
		}
		return nil
	}, true)
}

// CountRoutes returns the number of stored routes.
func (r *RouteRepository) CountRoutes(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	count := 0
	err := r.backend.WithTx(ctx, func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(routeOrderPrefix)
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)

	return count, err
}

// Helper methods

// putRoutes writes routes inside tx. A route whose ID is already stored,
// including earlier in the same batch, keeps its ordinal.
func (r *RouteRepository) putRoutes(tx *badger.Txn, routes []*core.Route) error {
	for _, route := range routes {
		if route == nil {
			continue
		}

		key := makeRouteKey(route.ID)
		ordinal, existing, err := readRoute(tx, key)
		if err != nil {
			return err
		}
		if existing == nil {
			ordinal, err = r.ordinalSeq.Next()
			if err != nil {
				return err
			}
			if err := tx.Set(makeRouteOrderKey(ordinal), []byte(route.ID)); err != nil {
				return err
			}
		}

		if err := tx.Set(key, storage.MarshalStoredRoute(ordinal, route)); err != nil {
			return err
		}
	}
	return nil
}

// readRoute reads a stored route from the transaction.
// Returns a nil route and no error when the key is absent.
func readRoute(tx *badger.Txn, key []byte) (uint64, *core.Route, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return 0, nil, nil
		}
		return 0, nil, err
	}

	var (
		ordinal uint64
		route   *core.Route
	)
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		ordinal, route, unmarshalErr = storage.UnmarshalStoredRoute(val)
		return unmarshalErr
	})
	return ordinal, route, err
}

// deletePrefix removes every key under prefix.
func deletePrefix(tx *badger.Txn, prefix []byte) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	opts.PrefetchValues = false
	iter := tx.NewIterator(opts)

	var keys [][]byte
	for iter.Rewind(); iter.Valid(); iter.Next() {
		keys = append(keys, iter.Item().KeyCopy(nil))
	}
	iter.Close()

	for _, key := range keys {
		if err := tx.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
