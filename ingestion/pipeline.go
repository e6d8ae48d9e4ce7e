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

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/poiesic/waypoint/core"
	"github.com/poiesic/waypoint/corpus"
	"github.com/poiesic/waypoint/storage"
)

// Mode selects how an import combines with the stored catalog.
type Mode string

const (
	// ModeReplace discards the stored catalog in favor of the imported corpus.
	ModeReplace Mode = "replace"

	// ModeMerge upserts the imported routes, keeping all others.
	ModeMerge Mode = "merge"

	// modeDelete is recorded in the import state after a deletion.
	modeDelete Mode = "delete"
)

// ParseMode parses a mode name. An empty name means ModeReplace.
func ParseMode(name string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(name))) {
	case "", ModeReplace:
		return ModeReplace, nil
	case ModeMerge:
		return ModeMerge, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, name)
	}
}

// Engine is the live index an import publishes to.
type Engine interface {
	Reload(routes []*core.Route)
}

// Pipeline orchestrates route imports into the catalog and the live index.
type Pipeline struct {
	routeRepository storage.RouteRepository
	stateRepository storage.ImportStateRepository
	engine          Engine
	mu              sync.Mutex
	logger          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(
	routeRepository storage.RouteRepository,
	stateRepository storage.ImportStateRepository,
	engine Engine,
	opts ...Option,
) (*Pipeline, error) {
	if routeRepository == nil {
		return nil, ErrRouteRepositoryRequired
	}
	if stateRepository == nil {
		return nil, ErrImportStateRepositoryRequired
	}
	if engine == nil {
		return nil, ErrEngineRequired
	}

	p := &Pipeline{
		routeRepository: routeRepository,
		stateRepository: stateRepository,
		engine:          engine,
		logger:          slog.Default(),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	p.logger = p.logger.With("component", "ingestion")
	return p, nil
}

// ImportOptions holds optional parameters for an import.
type ImportOptions struct {
	Mode   Mode   // Defaults to ModeReplace
	Source string // Free-form origin recorded in the import state
}

// Import validates routes, stores them and reloads the engine from the
// stored catalog. Nothing is stored when validation fails.
func (p *Pipeline) Import(ctx context.Context, routes []*core.Route, opts *ImportOptions) (*core.ImportState, error) {
	if opts == nil {
		opts = &ImportOptions{}
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeReplace
	}
	if mode != ModeReplace && mode != ModeMerge {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	if err := core.ValidateCorpus(routes); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		state   *core.ImportState
		catalog []*core.Route
	)
	err := p.routeRepository.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		switch mode {
		case ModeReplace:
			err = p.routeRepository.ReplaceAll(ctx, routes)
		case ModeMerge:
			err = p.routeRepository.PutRoutes(ctx, routes...)
		}
		if err != nil {
			return fmt.Errorf("failed to store routes: %w", err)
		}
		state, catalog, err = p.record(ctx, mode, opts.Source)
		return err
	})
	if err != nil {
		return nil, err
	}

	p.engine.Reload(catalog)
	p.logger.Info("routes imported", "mode", mode, "source", opts.Source, "imported", len(routes), "catalog", state.Routes)
	return state, nil
}

// ImportFile loads a corpus file and imports it with the file path as source.
func (p *Pipeline) ImportFile(ctx context.Context, path string, mode Mode) (*core.ImportState, error) {
	routes, err := corpus.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return p.Import(ctx, routes, &ImportOptions{Mode: mode, Source: path})
}

// Delete removes routes by ID and reloads the engine.
// Returns storage.ErrNotFound, deleting nothing, if any ID is unknown.
func (p *Pipeline) Delete(ctx context.Context, ids ...string) (*core.ImportState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		state   *core.ImportState
		catalog []*core.Route
	)
	err := p.routeRepository.WithTransaction(ctx, func(ctx context.Context) error {
		if err := p.routeRepository.DeleteRoutes(ctx, ids...); err != nil {
			return err
		}
		var err error
		state, catalog, err = p.record(ctx, modeDelete, strings.Join(ids, ","))
		return err
	})
	if err != nil {
		return nil, err
	}

	p.engine.Reload(catalog)
	p.logger.Info("routes deleted", "deleted", len(ids), "catalog", state.Routes)
	return state, nil
}

// Sync reloads the engine from the stored catalog without importing anything.
// Returns the number of routes loaded.
func (p *Pipeline) Sync(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	routes, err := p.routeRepository.ListRoutes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list routes: %w", err)
	}
	p.engine.Reload(routes)
	return len(routes), nil
}

// State returns the last recorded import, or nil if none.
func (p *Pipeline) State(ctx context.Context) (*core.ImportState, error) {
	return p.stateRepository.LoadImportState(ctx)
}

// record saves the import state for the stored catalog and returns both.
// Callers hold p.mu and run it in the same transaction as the catalog write,
// so the state never describes a catalog that was not committed.
func (p *Pipeline) record(ctx context.Context, mode Mode, source string) (*core.ImportState, []*core.Route, error) {
	catalog, err := p.routeRepository.ListRoutes(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list routes: %w", err)
	}

	state := &core.ImportState{
		Source:      source,
		Mode:        string(mode),
		Fingerprint: core.Fingerprint(catalog),
		Routes:      len(catalog),
	}
	if err := p.stateRepository.SaveImportState(ctx, state); err != nil {
		return nil, nil, fmt.Errorf("failed to save import state: %w", err)
	}
	return state, catalog, nil
}
