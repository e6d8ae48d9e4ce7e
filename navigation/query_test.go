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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/waypoint/core"
)

func TestEncodeParams(t *testing.T) {
	assert.Equal(t, "", EncodeParams(nil))
	assert.Equal(t, "", EncodeParams(map[string]string{}))
	assert.Equal(t, "?a=1+x&b=2", EncodeParams(map[string]string{"b": "2", "a": "1 x"}))
	assert.Equal(t, "?q=a%26b", EncodeParams(map[string]string{"q": "a&b"}))
}

func TestNoParams(t *testing.T) {
	qb := NoParams{}
	params := qb.BuildQueryParams("date=2024-01-01", &core.Route{ID: "r"})
	assert.NotNil(t, params)
	assert.Empty(t, params)
	assert.Equal(t, "", qb.ToQueryString(params))
}

func TestDeclaredParams(t *testing.T) {
	route := &core.Route{
		ID:   "consumption",
		Path: "/consumption",
		SearchParams: []core.SearchParam{
			{Name: "date", Type: "date"},
			{Name: "vessel", Type: "string"},
		},
	}

	tests := []struct {
		name  string
		input string
		route *core.Route
		want  map[string]string
	}{
		{
			name:  "equals form",
			input: "consumo date=2024-05-01",
			route: route,
			want:  map[string]string{"date": "2024-05-01"},
		},
		{
			name:  "colon form and quoted value",
			input: `consumo vessel: "Sea Star", date:2024-05-01`,
			route: route,
			want:  map[string]string{"vessel": "Sea Star", "date": "2024-05-01"},
		},
		{
			name:  "names match case-insensitively",
			input: "consumo VESSEL=aurora",
			route: route,
			want:  map[string]string{"vessel": "aurora"},
		},
		{
			name:  "undeclared names ignored",
			input: "consumo unit=liters",
			route: route,
			want:  map[string]string{},
		},
		{
			name:  "no declared params",
			input: "date=2024-05-01",
			route: &core.Route{ID: "bare", Path: "/bare"},
			want:  map[string]string{},
		},
		{
			name:  "nil route",
			input: "date=2024-05-01",
			route: nil,
			want:  map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeclaredParams{}.BuildQueryParams(tt.input, tt.route))
		})
	}
}

func TestQueryBuilderFunc(t *testing.T) {
	qb := QueryBuilderFunc(func(input string, route *core.Route) map[string]string {
		return map[string]string{"route": route.ID}
	})
	params := qb.BuildQueryParams("anything", &core.Route{ID: "r1"})
	assert.Equal(t, map[string]string{"route": "r1"}, params)
	assert.Equal(t, "?route=r1", qb.ToQueryString(params))
}

func TestQueryBuilderByName(t *testing.T) {
	tests := []struct {
		name string
		want QueryBuilder
	}{
		{"", NoParams{}},
		{"none", NoParams{}},
		{"Declared", DeclaredParams{}},
	}
	for _, tt := range tests {
		got, err := QueryBuilderByName(tt.name)
		require.NoError(t, err, tt.name)
		assert.IsType(t, tt.want, got, tt.name)
	}

	_, err := QueryBuilderByName("dates")
	assert.ErrorIs(t, err, ErrUnknownQueryBuilder)
}
