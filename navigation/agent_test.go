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

package navigation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/waypoint/ai"
	"github.com/poiesic/waypoint/ai/mock"
	"github.com/poiesic/waypoint/core"
	"github.com/poiesic/waypoint/search"
)

func financeCorpus() []*core.Route {
	return []*core.Route{
		{
			ID:           "ptax",
			Title:        "Cotação PTAX",
			Path:         "/_private/finance/ptax",
			SemanticText: "relatório de cotação PTAX do dólar",
			Tags:         []string{"ptax", "câmbio", "relatório"},
			Capabilities: []string{"Abrir relatório de PTAX"},
			SearchParams: []core.SearchParam{{Name: "date", Type: "date"}},
			Related: []core.RelatedRoute{
				{Path: "/finance/exchange", Relation: core.RelationSibling, Description: "histórico de câmbio"},
				{Path: "/finance/archive", Relation: core.RelationAlternative},
			},
		},
		{
			ID:           "exchange",
			Title:        "Câmbio",
			Path:         "/_private/finance/exchange",
			SemanticText: "histórico de câmbio do dólar e euro",
			Tags:         []string{"câmbio", "dólar"},
			Related: []core.RelatedRoute{
				{Path: "/_private/finance/ptax", Relation: core.RelationSibling},
			},
		},
		{
			ID:           "fleet-status",
			Title:        "Status da Frota",
			Path:         "/fleet/status",
			SemanticText: "situação operacional de cada embarcação em tempo real",
			Tags:         []string{"frota", "status"},
		},
		{
			ID:           "home",
			Title:        "Início",
			Path:         "/_app/_layout",
			SemanticText: "página inicial com visão geral",
		},
	}
}

func newTestAgent(t *testing.T, opts ...Option) (*Agent, *search.Searcher) {
	t.Helper()
	s, err := search.NewSearcher(financeCorpus())
	require.NoError(t, err)
	a, err := NewAgent(s, opts...)
	require.NoError(t, err)
	return a, s
}

func TestNewAgent(t *testing.T) {
	t.Run("searcher required", func(t *testing.T) {
		_, err := NewAgent(nil)
		assert.ErrorIs(t, err, ErrSearcherRequired)
	})

	t.Run("invalid limits", func(t *testing.T) {
		s, err := search.NewSearcher(financeCorpus())
		require.NoError(t, err)

		_, err = NewAgent(s, WithSearchLimit(0))
		assert.ErrorIs(t, err, ErrInvalidLimit)

		_, err = NewAgent(s, WithContextLimit(-1))
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})
}

func TestProcessQuery_PrivateSegmentsRemoved(t *testing.T) {
	a, s := newTestAgent(t)

	results, err := a.ProcessQuery(context.Background(), "abrir relatório de PTAX")
	require.NoError(t, err)
	require.NotEmpty(t, results)

	top := results[0]
	assert.Equal(t, "ptax", top.Route.ID)
	assert.Equal(t, "/finance/ptax", top.Path)
	assert.True(t, strings.HasPrefix(top.FullURL, top.Path))
	assert.NotNil(t, top.Params)
	assert.Empty(t, top.Reason)

	for _, r := range results {
		for _, seg := range strings.Split(r.Path, "/") {
			assert.False(t, strings.HasPrefix(seg, "_"), "path %q has a private segment", r.Path)
		}
	}

	// Confidence mirrors the search score.
	scored := s.SearchWithDetails("abrir relatório de PTAX", DefaultSearchLimit)
	require.Len(t, results, len(scored))
	for i := range scored {
		assert.Equal(t, scored[i].Route.ID, results[i].Route.ID)
		assert.Equal(t, scored[i].Score, results[i].Confidence)
	}
}

func TestProcessQuery_Degenerate(t *testing.T) {
	a, _ := newTestAgent(t)

	for _, q := range []string{"", "   ", "a b", "xyzzy nonsense query"} {
		results, err := a.ProcessQuery(context.Background(), q)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results, "query %q", q)
	}
}

func TestProcessQuery_SearchLimit(t *testing.T) {
	a, _ := newTestAgent(t, WithSearchLimit(1))

	results, err := a.ProcessQuery(context.Background(), "relatório câmbio dólar")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestProcessQuery_QueryBuilder(t *testing.T) {
	a, _ := newTestAgent(t, WithQueryBuilder(DeclaredParams{}))

	results, err := a.ProcessQuery(context.Background(), "abrir relatório de PTAX date=2024-05-01 unit=usd")
	require.NoError(t, err)

	var ptax *core.NavigationResult
	for _, r := range results {
		if r.Route.ID == "ptax" {
			ptax = r
		}
	}
	require.NotNil(t, ptax)
	assert.Equal(t, map[string]string{"date": "2024-05-01"}, ptax.Params)
	assert.Equal(t, "/finance/ptax?date=2024-05-01", ptax.FullURL)
}

func TestProcessQuery_NilParamsFromBuilder(t *testing.T) {
	a, _ := newTestAgent(t, WithQueryBuilder(QueryBuilderFunc(func(string, *core.Route) map[string]string {
		return nil
	})))

	results, err := a.ProcessQuery(context.Background(), "abrir relatório de PTAX")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.NotNil(t, results[0].Params)
	assert.Equal(t, results[0].Path, results[0].FullURL)
}

func TestProcessQuery_CustomSegmentFilter(t *testing.T) {
	a, _ := newTestAgent(t, WithSegmentFilter(func(seg string) bool { return seg == "finance" }))

	results, err := a.ProcessQuery(context.Background(), "abrir relatório de PTAX")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "/_private/ptax", results[0].Path)
}

func TestProcessQuery_CanceledContext(t *testing.T) {
	a, _ := newTestAgent(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.ProcessQuery(ctx, "abrir relatório de PTAX")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGetRelated(t *testing.T) {
	a, _ := newTestAgent(t)

	related := a.GetRelated("ptax")
	require.Len(t, related, 2)

	assert.Equal(t, core.RelationSibling, related[0].Relation)
	assert.Equal(t, "/finance/exchange", related[0].Path)
	assert.Equal(t, "histórico de câmbio", related[0].Description)
	require.NotNil(t, related[0].Route)
	assert.Equal(t, "exchange", related[0].Route.ID)

	assert.Equal(t, core.RelationAlternative, related[1].Relation)
	assert.Nil(t, related[1].Route)

	// Raw paths resolve too.
	back := a.GetRelated("exchange")
	require.Len(t, back, 1)
	require.NotNil(t, back[0].Route)
	assert.Equal(t, "ptax", back[0].Route.ID)

	assert.Empty(t, a.GetRelated("fleet-status"))
	assert.Empty(t, a.GetRelated("does-not-exist"))
}

type staticGraph map[string][]core.ResolvedRelation

func (g staticGraph) RelatedRoutes(id string) []core.ResolvedRelation { return g[id] }

func TestGetRelated_CustomResolver(t *testing.T) {
	graph := staticGraph{"fleet-status": {{Relation: core.RelationParent, Path: "/fleet"}}}
	a, _ := newTestAgent(t, WithGraphResolver(graph))

	related := a.GetRelated("fleet-status")
	require.Len(t, related, 1)
	assert.Equal(t, "/fleet", related[0].Path)
	assert.Empty(t, a.GetRelated("ptax"))
}

func TestBuildContext(t *testing.T) {
	a, _ := newTestAgent(t)

	t.Run("without current route", func(t *testing.T) {
		text := a.BuildContext("relatório câmbio dólar", "")
		assert.Contains(t, text, "Query: relatório câmbio dólar")
		assert.Contains(t, text, "[ptax] Cotação PTAX (/_private/finance/ptax)")
		assert.Contains(t, text, "[exchange] Câmbio")
		assert.NotContains(t, text, "Current route:")
		assert.NotContains(t, text, "Related routes:")
	})

	t.Run("with current route", func(t *testing.T) {
		text := a.BuildContext("relatório câmbio dólar", "ptax")
		assert.Contains(t, text, "Current route: Cotação PTAX (/_private/finance/ptax)")
		assert.Contains(t, text, "- sibling: /finance/exchange (Câmbio) - histórico de câmbio")
		assert.Contains(t, text, "- alternative: /finance/archive")
	})

	t.Run("unknown current route", func(t *testing.T) {
		text := a.BuildContext("relatório", "nope")
		assert.NotContains(t, text, "Current route:")
	})

	t.Run("no candidates", func(t *testing.T) {
		text := a.BuildContext("xyzzy", "")
		assert.Contains(t, text, "(none)")
	})
}

func TestBuildContext_ContextLimit(t *testing.T) {
	var got []*core.SearchResult
	cb := contextBuilderFunc(func(query string, results []*core.SearchResult, current *core.Route, related []core.ResolvedRelation) string {
		got = results
		return "ok"
	})
	a, _ := newTestAgent(t, WithContextLimit(1), WithContextBuilder(cb))

	assert.Equal(t, "ok", a.BuildContext("relatório câmbio dólar", ""))
	assert.Len(t, got, 1)
}

type contextBuilderFunc func(string, []*core.SearchResult, *core.Route, []core.ResolvedRelation) string

func (f contextBuilderFunc) BuildContext(q string, r []*core.SearchResult, c *core.Route, rel []core.ResolvedRelation) string {
	return f(q, r, c, rel)
}

func TestAssist(t *testing.T) {
	ctx := context.Background()
	const query = "relatório câmbio dólar"

	t.Run("no selector returns top candidate", func(t *testing.T) {
		a, _ := newTestAgent(t)
		ranked, err := a.ProcessQuery(ctx, query)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(ranked), 2)

		got, err := a.Assist(ctx, query, "")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, ranked[0].Route.ID, got.Route.ID)
		assert.Equal(t, fallbackReason, got.Reason)
	})

	t.Run("selector choice wins", func(t *testing.T) {
		selector := mock.NewMockRouteSelector()
		a, _ := newTestAgent(t, WithSelector(selector))
		ranked, err := a.ProcessQuery(ctx, query)
		require.NoError(t, err)

		got, err := a.Assist(ctx, query, "ptax")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, ranked[len(ranked)-1].Route.ID, got.Route.ID)
		assert.Equal(t, "mock selection", got.Reason)

		assert.Equal(t, 1, selector.CallCount())
		req := selector.LastRequest()
		assert.Equal(t, query, req.Query)
		assert.Len(t, req.Candidates, len(ranked))
		assert.Contains(t, req.Context, "Current route: Cotação PTAX")
		for _, c := range req.Candidates {
			assert.False(t, strings.Contains(c.Path, "/_"))
		}
	})

	t.Run("selector error falls back", func(t *testing.T) {
		selector := mock.NewMockRouteSelector()
		selector.SelectRouteFunc = func(context.Context, ai.SelectionRequest) (*ai.Selection, error) {
			return nil, errors.New("model unavailable")
		}
		a, _ := newTestAgent(t, WithSelector(selector))

		got, err := a.Assist(ctx, query, "")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, fallbackReason, got.Reason)
	})

	t.Run("unknown or empty choice falls back", func(t *testing.T) {
		for _, id := range []string{"", "fleet-status", "missing"} {
			selector := mock.NewMockRouteSelector()
			selector.SelectRouteFunc = func(context.Context, ai.SelectionRequest) (*ai.Selection, error) {
				return &ai.Selection{RouteID: id, Reason: "picked"}, nil
			}
			a, _ := newTestAgent(t, WithSelector(selector))
			ranked, err := a.ProcessQuery(ctx, query)
			require.NoError(t, err)

			got, err := a.Assist(ctx, query, "")
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, ranked[0].Route.ID, got.Route.ID, "choice %q", id)
			assert.Equal(t, fallbackReason, got.Reason)
		}
	})

	t.Run("nothing matches", func(t *testing.T) {
		selector := mock.NewMockRouteSelector()
		a, _ := newTestAgent(t, WithSelector(selector))

		got, err := a.Assist(ctx, "xyzzy nonsense query", "")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, 0, selector.CallCount())
	})

	t.Run("canceled context during selection", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		selector := mock.NewMockRouteSelector()
		selector.SelectRouteFunc = func(c context.Context, _ ai.SelectionRequest) (*ai.Selection, error) {
			cancel()
			return nil, c.Err()
		}
		a, _ := newTestAgent(t, WithSelector(selector))

		_, err := a.Assist(cctx, query, "")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestAssist_ContextListsOnlySelectableCandidates(t *testing.T) {
	ctx := context.Background()
	const query = "relatório câmbio dólar"

	wide, _ := newTestAgent(t)
	ranked, err := wide.ProcessQuery(ctx, query)
	require.NoError(t, err)
	require.Len(t, ranked, 2)

	selector := mock.NewMockRouteSelector()
	a, _ := newTestAgent(t, WithSelector(selector), WithSearchLimit(1), WithContextLimit(5))

	got, err := a.Assist(ctx, query, "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ranked[0].Route.ID, got.Route.ID)

	req := selector.LastRequest()
	require.Len(t, req.Candidates, 1)
	assert.Contains(t, req.Context, "["+ranked[0].Route.ID+"]")
	assert.NotContains(t, req.Context, "["+ranked[1].Route.ID+"]")

	// BuildContext itself still honors the context limit.
	assert.Contains(t, a.BuildContext(query, ""), "["+ranked[1].Route.ID+"]")
}

func TestSelect(t *testing.T) {
	ctx := context.Background()
	const query = "relatório câmbio dólar"

	t.Run("selector required", func(t *testing.T) {
		a, _ := newTestAgent(t)
		_, err := a.Select(ctx, query, "")
		assert.ErrorIs(t, err, ErrSelectorRequired)
	})

	t.Run("selector error is returned", func(t *testing.T) {
		unavailable := errors.New("model unavailable")
		selector := mock.NewMockRouteSelector()
		selector.SelectRouteFunc = func(context.Context, ai.SelectionRequest) (*ai.Selection, error) {
			return nil, unavailable
		}
		a, _ := newTestAgent(t, WithSelector(selector))

		got, err := a.Select(ctx, query, "")
		assert.ErrorIs(t, err, unavailable)
		assert.Nil(t, got)
	})

	t.Run("unknown or empty choice is rejected", func(t *testing.T) {
		for _, id := range []string{"", "fleet-status", "missing"} {
			selector := mock.NewMockRouteSelector()
			selector.SelectRouteFunc = func(context.Context, ai.SelectionRequest) (*ai.Selection, error) {
				return &ai.Selection{RouteID: id}, nil
			}
			a, _ := newTestAgent(t, WithSelector(selector))

			got, err := a.Select(ctx, query, "")
			assert.ErrorIs(t, err, ErrInvalidSelection, "choice %q", id)
			assert.Nil(t, got)
		}
	})

	t.Run("valid choice", func(t *testing.T) {
		selector := mock.NewMockRouteSelector()
		a, _ := newTestAgent(t, WithSelector(selector))
		ranked, err := a.ProcessQuery(ctx, query)
		require.NoError(t, err)

		got, err := a.Select(ctx, query, "")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, ranked[len(ranked)-1].Route.ID, got.Route.ID)
		assert.Equal(t, "mock selection", got.Reason)
	})

	t.Run("nothing matches", func(t *testing.T) {
		selector := mock.NewMockRouteSelector()
		a, _ := newTestAgent(t, WithSelector(selector))

		got, err := a.Select(ctx, "xyzzy nonsense query", "")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, 0, selector.CallCount())
	})
}

func TestReload(t *testing.T) {
	a, s := newTestAgent(t)

	routes := []*core.Route{
		{
			ID:           "maintenance",
			Title:        "Manutenção",
			Path:         "/_private/maintenance",
			SemanticText: "desgaste e manutenção preventiva de motores",
			Related:      []core.RelatedRoute{{Path: "/fleet/status", Relation: core.RelationParent}},
		},
		{
			ID:    "fleet",
			Title: "Frota",
			Path:  "/fleet/status",
		},
	}
	a.Reload(routes)

	assert.Nil(t, s.FindByID("ptax"))
	assert.Empty(t, a.GetRelated("ptax"))

	related := a.GetRelated("maintenance")
	require.Len(t, related, 1)
	require.NotNil(t, related[0].Route)
	assert.Equal(t, "fleet", related[0].Route.ID)

	results, err := a.ProcessQuery(context.Background(), "manutenção dos motores")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "/maintenance", results[0].Path)
}
