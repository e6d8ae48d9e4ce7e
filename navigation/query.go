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
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/poiesic/waypoint/core"
)

// QueryBuilder derives query parameters for a matched route from the raw
// user input, and serializes them.
type QueryBuilder interface {
	BuildQueryParams(input string, route *core.Route) map[string]string
	ToQueryString(params map[string]string) string
}

// Query builder names accepted by QueryBuilderByName.
const (
	QueryBuilderNone     = "none"
	QueryBuilderDeclared = "declared"
)

// QueryBuilderByName returns the built-in query builder called name.
// An empty name means QueryBuilderNone.
func QueryBuilderByName(name string) (QueryBuilder, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", QueryBuilderNone:
		return NoParams{}, nil
	case QueryBuilderDeclared:
		return DeclaredParams{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownQueryBuilder, name)
	}
}

// EncodeParams renders params as "?k=v&..." with keys sorted, or "" when empty.
func EncodeParams(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return "?" + values.Encode()
}

// NoParams is the default QueryBuilder. It never extracts parameters.
type NoParams struct{}

var _ QueryBuilder = NoParams{}

func (NoParams) BuildQueryParams(string, *core.Route) map[string]string { return map[string]string{} }
func (NoParams) ToQueryString(params map[string]string) string          { return EncodeParams(params) }

// QueryBuilderFunc adapts a function to a QueryBuilder with standard encoding.
type QueryBuilderFunc func(input string, route *core.Route) map[string]string

var _ QueryBuilder = QueryBuilderFunc(nil)

func (f QueryBuilderFunc) BuildQueryParams(input string, route *core.Route) map[string]string {
	return f(input, route)
}

func (f QueryBuilderFunc) ToQueryString(params map[string]string) string {
	return EncodeParams(params)
}

// explicitParam matches "name=value" or "name:value"; the value may be quoted.
var explicitParam = regexp.MustCompile(`([\p{L}\p{N}_]+)\s*[=:]\s*("([^"]*)"|[^\s,;]+)`)

// DeclaredParams fills parameters the user typed explicitly, such as
// "date=2024-05-01" or `vessel:"Sea Star"`, keeping only names the route
// declares in its SearchParams. Names match case-insensitively.
type DeclaredParams struct{}

var _ QueryBuilder = DeclaredParams{}

func (DeclaredParams) BuildQueryParams(input string, route *core.Route) map[string]string {
	params := map[string]string{}
	if route == nil || len(route.SearchParams) == 0 {
		return params
	}

	declared := make(map[string]string, len(route.SearchParams))
	for _, p := range route.SearchParams {
		declared[strings.ToLower(p.Name)] = p.Name
	}

	for _, m := range explicitParam.FindAllStringSubmatch(input, -1) {
		name, ok := declared[strings.ToLower(m[1])]
		if !ok {
			continue
		}
		value := m[2]
		if strings.HasPrefix(value, `"`) {
			value = m[3]
		}
		if value != "" {
			params[name] = value
		}
	}
	return params
}

func (DeclaredParams) ToQueryString(params map[string]string) string {
	return EncodeParams(params)
}
