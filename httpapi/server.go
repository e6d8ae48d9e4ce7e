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

// Package httpapi exposes the route engine as a read-only JSON API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	chi "github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/poiesic/waypoint/core"
	"github.com/poiesic/waypoint/search"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	defaultMaxLimit = 50
	shutdownTimeout = 5 * time.Second
)

var (
	// ErrSearcherRequired is returned when no searcher is provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrNavigatorRequired is returned when no navigator is provided.
	ErrNavigatorRequired = errors.New("navigator required")
)

// Searcher is the ranking surface served by the API.
type Searcher interface {
	SearchWithDetails(query string, limit int) []*core.SearchResult
	FindByID(id string) *core.Route
	AllRoutes() []*core.Route
}

// Navigator is the navigation surface served by the API.
type Navigator interface {
	ProcessQuery(ctx context.Context, input string) ([]*core.NavigationResult, error)
	Assist(ctx context.Context, input, currentRouteID string) (*core.NavigationResult, error)
	GetRelated(routeID string) []core.ResolvedRelation
	BuildContext(query, currentRouteID string) string
}

// Server routes HTTP requests to the engine.
type Server struct {
	router       chi.Router
	searcher     Searcher
	navigator    Navigator
	defaultLimit int
	maxLimit     int
	logger       *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithDefaultLimit sets the result count used when a request names none.
// Default is search.DefaultSearchLimit.
func WithDefaultLimit(limit int) Option {
	return func(s *Server) error {
		if limit < 1 {
			return fmt.Errorf("default limit must be positive, got %d", limit)
		}
		s.defaultLimit = limit
		return nil
	}
}

// WithMaxLimit caps the result count a request may ask for.
// Default is 50.
func WithMaxLimit(limit int) Option {
	return func(s *Server) error {
		if limit < 1 {
			return fmt.Errorf("max limit must be positive, got %d", limit)
		}
		s.maxLimit = limit
		return nil
	}
}

// NewServer creates a Server.
func NewServer(searcher Searcher, navigator Navigator, opts ...Option) (*Server, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if navigator == nil {
		return nil, ErrNavigatorRequired
	}

	s := &Server{
		router:       chi.NewRouter(),
		searcher:     searcher,
		navigator:    navigator,
		defaultLimit: search.DefaultSearchLimit,
		maxLimit:     defaultMaxLimit,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	if s.defaultLimit > s.maxLimit {
		s.defaultLimit = s.maxLimit
	}
	s.logger = s.logger.With("component", "httpapi")
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) routes() {
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	s.router.Get("/routes", s.handleListRoutes)
	s.router.Get("/routes/{id}", s.handleGetRoute)
	s.router.Get("/routes/{id}/related", s.handleRelated)
	s.router.Get("/search", s.handleSearch)
	s.router.Get("/navigate", s.handleNavigate)
	s.router.Get("/context", s.handleContext)
}

// parseLimit reads the limit query parameter, capped at the server maximum.
func (s *Server) parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return s.defaultLimit, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	return min(limit, s.maxLimit), nil
}

func parseBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "err", err)
	} else {
		s.logger.Warn("request failed", "status", status, "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
