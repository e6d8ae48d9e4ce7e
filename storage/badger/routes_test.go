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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/waypoint/core"
	"github.com/poiesic/waypoint/storage"
)

func newTestRouteRepo(t *testing.T) storage.RouteRepository {
	t.Helper()
	repo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func routeIDs(routes []*core.Route) []string {
	ids := make([]string, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestPutAndGetRoute(t *testing.T) {
	repo := newTestRouteRepo(t)
	ctx := context.Background()

	route := &core.Route{
		ID:           "fleet-status",
		Path:         "/fleet/status",
		Title:        "Status da Frota",
		SemanticText: "situação operacional",
		Tags:         []string{"frota"},
		Priority:     2,
		Related:      []core.RelatedRoute{{Path: "/fleet", Relation: core.RelationParent}},
	}
	require.NoError(t, repo.PutRoutes(ctx, route))

	got, err := repo.GetRoute(ctx, "fleet-status")
	require.NoError(t, err)
	assert.Equal(t, route, got)

	_, err = repo.GetRoute(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestListRoutesPreservesCorpusOrder(t *testing.T) {
	repo := newTestRouteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutRoutes(ctx,
		&core.Route{ID: "zeta", Path: "/z"},
		&core.Route{ID: "alpha", Path: "/a"},
		&core.Route{ID: "mid", Path: "/m"},
	))

	routes, err := repo.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, routeIDs(routes))

	t.Run("replacing keeps position", func(t *testing.T) {
		require.NoError(t, repo.PutRoutes(ctx, &core.Route{ID: "zeta", Path: "/z2"}))

		routes, err := repo.ListRoutes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"zeta", "alpha", "mid"}, routeIDs(routes))
		assert.Equal(t, "/z2", routes[0].Path)
	})

	t.Run("new routes append", func(t *testing.T) {
		require.NoError(t, repo.PutRoutes(ctx, &core.Route{ID: "beta", Path: "/b"}))

		routes, err := repo.ListRoutes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"zeta", "alpha", "mid", "beta"}, routeIDs(routes))
	})
}

func TestPutRoutesDuplicateInBatch(t *testing.T) {
	repo := newTestRouteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutRoutes(ctx,
		&core.Route{ID: "dup", Path: "/v1"},
		&core.Route{ID: "other", Path: "/o"},
		nil,
		&core.Route{ID: "dup", Path: "/v2"},
	))

	routes, err := repo.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"dup", "other"}, routeIDs(routes))
	assert.Equal(t, "/v2", routes[0].Path)

	count, err := repo.CountRoutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDeleteRoutes(t *testing.T) {
	repo := newTestRouteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutRoutes(ctx,
		&core.Route{ID: "a", Path: "/a"},
		&core.Route{ID: "b", Path: "/b"},
		&core.Route{ID: "c", Path: "/c"},
	))

	require.NoError(t, repo.DeleteRoutes(ctx, "b"))
	routes, err := repo.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, routeIDs(routes))

	t.Run("unknown id deletes nothing", func(t *testing.T) {
		err := repo.DeleteRoutes(ctx, "a", "missing")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		count, err := repo.CountRoutes(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}

func TestReplaceAll(t *testing.T) {
	repo := newTestRouteRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.PutRoutes(ctx,
		&core.Route{ID: "old1", Path: "/o1"},
		&core.Route{ID: "shared", Path: "/s-old"},
	))

	require.NoError(t, repo.ReplaceAll(ctx, []*core.Route{
		{ID: "shared", Path: "/s-new"},
		{ID: "new1", Path: "/n1"},
	}))

	routes, err := repo.ListRoutes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared", "new1"}, routeIDs(routes))
	assert.Equal(t, "/s-new", routes[0].Path)

	_, err = repo.GetRoute(ctx, "old1")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	t.Run("empty replacement clears the catalog", func(t *testing.T) {
		require.NoError(t, repo.ReplaceAll(ctx, nil))
		count, err := repo.CountRoutes(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestRouteRepositoryCancelledContext(t *testing.T) {
	repo := newTestRouteRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, repo.PutRoutes(ctx, &core.Route{ID: "a", Path: "/a"}), context.Canceled)
	_, err := repo.ListRoutes(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImportStateRepository(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	defer backend.Close()

	repo := NewImportStateRepository(backend)
	ctx := context.Background()

	state, err := repo.LoadImportState(ctx)
	require.NoError(t, err)
	assert.Nil(t, state)

	saved := &core.ImportState{Source: "routes.json", Mode: "merge", Fingerprint: 7, Routes: 3}
	require.NoError(t, repo.SaveImportState(ctx, saved))
	assert.False(t, saved.ImportedAt.IsZero())

	loaded, err := repo.LoadImportState(ctx)
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestWithTransactionJoinsRepositoryWrites(t *testing.T) {
	repo, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	states := NewImportStateRepository(backend)
	ctx := context.Background()

	require.NoError(t, repo.PutRoutes(ctx, &core.Route{ID: "home", Path: "/"}))

	t.Run("rolls back every write on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := repo.WithTransaction(ctx, func(ctx context.Context) error {
			if err := repo.ReplaceAll(ctx, []*core.Route{{ID: "fleet", Path: "/fleet"}}); err != nil {
				return err
			}
			if err := states.SaveImportState(ctx, &core.ImportState{Source: "x", Routes: 1}); err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		routes, err := repo.ListRoutes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"home"}, routeIDs(routes))

		state, err := states.LoadImportState(ctx)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("reads see pending writes and commit together", func(t *testing.T) {
		err := repo.WithTransaction(ctx, func(ctx context.Context) error {
			if err := repo.PutRoutes(ctx, &core.Route{ID: "fleet", Path: "/fleet"}); err != nil {
				return err
			}
			routes, err := repo.ListRoutes(ctx)
			if err != nil {
				return err
			}
			assert.Equal(t, []string{"home", "fleet"}, routeIDs(routes))

			// Not visible outside the transaction yet.
			outside, err := repo.ListRoutes(context.Background())
			if err != nil {
				return err
			}
			assert.Equal(t, []string{"home"}, routeIDs(outside))

			return states.SaveImportState(ctx, &core.ImportState{Source: "merge", Routes: len(routes)})
		})
		require.NoError(t, err)

		routes, err := repo.ListRoutes(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"home", "fleet"}, routeIDs(routes))

		state, err := states.LoadImportState(ctx)
		require.NoError(t, err)
		require.NotNil(t, state)
		assert.Equal(t, 2, state.Routes)
	})

	t.Run("nested transactions join the outer one", func(t *testing.T) {
		boom := errors.New("boom")
		err := repo.WithTransaction(ctx, func(ctx context.Context) error {
			err := backend.WithTransaction(ctx, func(ctx context.Context) error {
				return repo.DeleteRoutes(ctx, "fleet")
			})
			if err != nil {
				return err
			}
			return boom
		})
		require.ErrorIs(t, err, boom)

		count, err := repo.CountRoutes(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})
}
