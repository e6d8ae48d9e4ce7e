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

// Package waypoint resolves natural-language requests to application routes.
//
// A Catalog ties the pieces together: a persistent route catalog, the
// lexical search index built from it, the navigation agent, and the import
// pipeline that keeps the index in step with the catalog.
package waypoint

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/poiesic/waypoint/ai"
	"github.com/poiesic/waypoint/ai/openai"
	"github.com/poiesic/waypoint/core"
	"github.com/poiesic/waypoint/corpus"
	"github.com/poiesic/waypoint/ingestion"
	"github.com/poiesic/waypoint/navigation"
	"github.com/poiesic/waypoint/search"
	"github.com/poiesic/waypoint/storage"
	"github.com/poiesic/waypoint/storage/badger"
)

// Catalog is a route catalog opened for matching. It owns the storage,
// the live search index, the navigation agent and the import pipeline
// that keeps the index in step with storage. Close releases everything.
type Catalog struct {
	backend   *badger.Backend
	routeRepo storage.RouteRepository
	stateRepo storage.ImportStateRepository
	searcher  *search.Searcher
	agent     *navigation.Agent
	pipeline  *ingestion.Pipeline
	provider  ai.AIProvider
	logger    *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// CatalogOption configures a Catalog.
type CatalogOption func(*catalogOptions)

type catalogOptions struct {
	inMemory       bool
	aiConfig       *ai.Config
	provider       ai.AIProvider
	searchOpts     []search.Option
	navigationOpts []navigation.Option
	logger         *slog.Logger
}

// WithInMemory keeps the catalog in memory; the path is ignored.
func WithInMemory() CatalogOption {
	return func(o *catalogOptions) {
		o.inMemory = true
	}
}

// WithAI enables assisted navigation through an OpenAI-compatible service.
func WithAI(config *ai.Config) CatalogOption {
	return func(o *catalogOptions) {
		o.aiConfig = config
	}
}

// WithProvider enables assisted navigation through an existing provider.
// The Catalog takes ownership and closes it.
func WithProvider(provider ai.AIProvider) CatalogOption {
	return func(o *catalogOptions) {
		o.provider = provider
	}
}

// WithSearchOptions passes options to the searcher.
func WithSearchOptions(opts ...search.Option) CatalogOption {
	return func(o *catalogOptions) {
		o.searchOpts = append(o.searchOpts, opts...)
	}
}

// WithNavigationOptions passes options to the navigation agent.
func WithNavigationOptions(opts ...navigation.Option) CatalogOption {
	return func(o *catalogOptions) {
		o.navigationOpts = append(o.navigationOpts, opts...)
	}
}

// WithLogger sets the logger shared by every component.
func WithLogger(logger *slog.Logger) CatalogOption {
	return func(o *catalogOptions) {
		o.logger = logger
	}
}

// NewCatalog opens the catalog at filePath and indexes the routes it holds.
func NewCatalog(ctx context.Context, filePath string, opts ...CatalogOption) (*Catalog, error) {
	options := &catalogOptions{}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger
	if logger == nil {
		logger = slog.Default()
	}

	// Open backend
	backend, err := badger.OpenBackend(filePath, options.inMemory, badger.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	routeRepo, err := badger.NewRouteRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	stateRepo := badger.NewImportStateRepository(backend)

	c := &Catalog{
		backend:   backend,
		routeRepo: routeRepo,
		stateRepo: stateRepo,
		logger:    logger,
	}

	if err := c.init(ctx, options); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Catalog) init(ctx context.Context, options *catalogOptions) error {
	routes, err := c.routeRepo.ListRoutes(ctx)
	if err != nil {
		return err
	}

	searchOpts := append([]search.Option{search.WithLogger(c.logger)}, options.searchOpts...)
	c.searcher, err = search.NewSearcher(routes, searchOpts...)
	if err != nil {
		return err
	}

	c.provider = options.provider
	if c.provider == nil && options.aiConfig != nil {
		c.provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			return err
		}
	}

	navigationOpts := []navigation.Option{navigation.WithLogger(c.logger)}
	if c.provider != nil {
		navigationOpts = append(navigationOpts, navigation.WithSelector(c.provider.RouteSelector()))
	}
	navigationOpts = append(navigationOpts, options.navigationOpts...)
	c.agent, err = navigation.NewAgent(c.searcher, navigationOpts...)
	if err != nil {
		return err
	}

	c.pipeline, err = ingestion.NewPipeline(c.routeRepo, c.stateRepo, c.agent, ingestion.WithLogger(c.logger))
	if err != nil {
		return err
	}

	c.logger.Info("catalog opened", "routes", len(routes), "assisted", c.provider != nil)
	return nil
}

// Close releases the provider, repositories and storage.
// Safe to call multiple times.
func (c *Catalog) Close() error {
	c.closeOnce.Do(func() {
		var errs []error

		if c.provider != nil {
			if err := c.provider.Close(); err != nil {
				c.logger.Error("error closing AI provider", "err", err)
			}
		}
		if err := c.routeRepo.Close(); err != nil {
			c.logger.Error("error closing route repository", "err", err)
			errs = append(errs, err)
		}
		if err := c.backend.Close(); err != nil {
			c.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}

// Searcher returns the live search index.
func (c *Catalog) Searcher() *search.Searcher {
	return c.searcher
}

// Agent returns the navigation agent over the live index.
func (c *Catalog) Agent() *navigation.Agent {
	return c.agent
}

// Pipeline returns the import pipeline that publishes to the agent.
func (c *Catalog) Pipeline() *ingestion.Pipeline {
	return c.pipeline
}

// RouteRepository returns the persistent route store.
func (c *Catalog) RouteRepository() storage.RouteRepository {
	return c.routeRepo
}

// Assisted reports whether an AI selector is configured.
func (c *Catalog) Assisted() bool {
	return c.provider != nil
}

// Import stores routes and swaps them into the live index.
func (c *Catalog) Import(ctx context.Context, routes []*core.Route, opts *ingestion.ImportOptions) (*core.ImportState, error) {
	return c.pipeline.Import(ctx, routes, opts)
}

// ImportFile imports a corpus file.
func (c *Catalog) ImportFile(ctx context.Context, path string, mode ingestion.Mode) (*core.ImportState, error) {
	return c.pipeline.ImportFile(ctx, path, mode)
}

// State returns the last recorded import, or nil if none.
func (c *Catalog) State(ctx context.Context) (*core.ImportState, error) {
	return c.pipeline.State(ctx)
}

// Watch returns a started watcher that re-imports the corpus at path,
// replacing the catalog, whenever its content changes.
func (c *Catalog) Watch(path string, opts ...corpus.WatcherOption) (*corpus.Watcher, error) {
	opts = append([]corpus.WatcherOption{corpus.WithWatcherLogger(c.logger)}, opts...)
	w, err := corpus.NewWatcher(path, func(routes []*core.Route) error {
		_, err := c.pipeline.Import(context.Background(), routes, &ingestion.ImportOptions{
			Mode:   ingestion.ModeReplace,
			Source: path,
		})
		return err
	}, opts...)
	if err != nil {
		return nil, err
	}

	w.Prime(c.searcher.AllRoutes())
	if err := w.Start(); err != nil {
		return nil, err
	}
	return w, nil
}
