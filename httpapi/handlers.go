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

package httpapi

import (
	"errors"
	"net/http"

	chi "github.com/go-chi/chi/v5"

	"github.com/poiesic/waypoint/core"
)

var errRouteNotFound = errors.New("route not found")

type routesResponse struct {
	Routes []*core.Route `json:"routes"`
	Count  int           `json:"count"`
}

type searchResponse struct {
	Query   string               `json:"query"`
	Routes  []*core.Route        `json:"routes,omitempty"`
	Results []*core.SearchResult `json:"results,omitempty"`
}

type relatedResponse struct {
	RouteID string                  `json:"route_id"`
	Related []core.ResolvedRelation `json:"related"`
}

type navigateResponse struct {
	Query   string                   `json:"query"`
	Results []*core.NavigationResult `json:"results"`
}

type assistResponse struct {
	Query  string                 `json:"query"`
	Result *core.NavigationResult `json:"result"`
}

func (s *Server) handleListRoutes(w http.ResponseWriter, r *http.Request) {
	routes := s.searcher.AllRoutes()
	writeJSON(w, http.StatusOK, routesResponse{Routes: routes, Count: len(routes)})
}

func (s *Server) handleGetRoute(w http.ResponseWriter, r *http.Request) {
	route := s.searcher.FindByID(chi.URLParam(r, "id"))
	if route == nil {
		s.writeError(w, http.StatusNotFound, errRouteNotFound)
		return
	}
	writeJSON(w, http.StatusOK, route)
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.searcher.FindByID(id) == nil {
		s.writeError(w, http.StatusNotFound, errRouteNotFound)
		return
	}
	writeJSON(w, http.StatusOK, relatedResponse{RouteID: id, Related: s.navigator.GetRelated(id)})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	limit, err := s.parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	details, err := parseBool(r, "details")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	query := r.URL.Query().Get("q")
	results := s.searcher.SearchWithDetails(query, limit)

	resp := searchResponse{Query: query}
	if details {
		resp.Results = results
	} else {
		resp.Routes = make([]*core.Route, 0, len(results))
		for _, res := range results {
			resp.Routes = append(resp.Routes, res.Route)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	assist, err := parseBool(r, "assist")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	query := r.URL.Query().Get("q")

	if assist {
		result, err := s.navigator.Assist(r.Context(), query, r.URL.Query().Get("current"))
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, assistResponse{Query: query, Result: result})
		return
	}

	results, err := s.navigator.ProcessQuery(r.Context(), query)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, navigateResponse{Query: query, Results: results})
}

func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	text := s.navigator.BuildContext(r.URL.Query().Get("q"), r.URL.Query().Get("current"))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}
