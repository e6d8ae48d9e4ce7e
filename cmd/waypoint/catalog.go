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

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/waypoint"
	"github.com/poiesic/waypoint/config"
	"github.com/poiesic/waypoint/core"
	"github.com/poiesic/waypoint/corpus"
	"github.com/poiesic/waypoint/ingestion"
	"github.com/poiesic/waypoint/navigation"
	"github.com/poiesic/waypoint/search"
)

// loadConfig reads the configuration named by --config and applies --db.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if db := c.String("db"); db != "" {
		cfg.Storage.Path = db
		cfg.Storage.InMemory = false
	}
	return cfg, nil
}

// catalogOptions translates the configuration into catalog options.
// assist forces assisted navigation on even when ai.enabled is false.
func catalogOptions(cfg *config.Config, assist bool) ([]waypoint.CatalogOption, error) {
	queries, err := cfg.Navigation.Builder()
	if err != nil {
		return nil, err
	}

	opts := []waypoint.CatalogOption{
		waypoint.WithLogger(slog.Default()),
		waypoint.WithSearchOptions(
			search.WithWeights(cfg.Search.Weights),
			search.WithMinScore(cfg.Search.MinScore),
		),
		waypoint.WithNavigationOptions(
			navigation.WithSearchLimit(cfg.Navigation.SearchLimit),
			navigation.WithContextLimit(cfg.Navigation.ContextLimit),
			navigation.WithSegmentFilter(navigation.PrivateSegments(cfg.Navigation.PrivatePrefix)),
			navigation.WithQueryBuilder(queries),
		),
	}
	if cfg.Storage.InMemory {
		opts = append(opts, waypoint.WithInMemory())
	}
	if cfg.AI.Enabled || assist {
		opts = append(opts, waypoint.WithAI(cfg.AI.Provider()))
	}
	return opts, nil
}

// openCatalog opens the configured catalog and brings it in step with
// corpus.file, when one is configured.
func openCatalog(c *cli.Context, cfg *config.Config, assist bool) (*waypoint.Catalog, error) {
	opts, err := catalogOptions(cfg, assist)
	if err != nil {
		return nil, err
	}
	catalog, err := waypoint.NewCatalog(c.Context, cfg.Storage.Path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if cfg.Corpus.File != "" {
		if err := syncCorpus(c.Context, catalog, cfg.Corpus.File); err != nil {
			catalog.Close()
			return nil, err
		}
	}
	return catalog, nil
}

// syncCorpus imports path in replace mode unless the catalog already holds
// the same content.
func syncCorpus(ctx context.Context, catalog *waypoint.Catalog, path string) error {
	routes, err := corpus.LoadFile(path)
	if err != nil {
		return err
	}

	state, err := catalog.State(ctx)
	if err != nil {
		return err
	}
	if state != nil && state.Fingerprint == core.Fingerprint(routes) {
		slog.Debug("corpus unchanged, skipping import", "path", path, "routes", state.Routes)
		return nil
	}

	_, err = catalog.Import(ctx, routes, &ingestion.ImportOptions{
		Mode:   ingestion.ModeReplace,
		Source: path,
	})
	return err
}
