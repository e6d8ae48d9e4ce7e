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

// Package config loads the waypoint configuration file.
//
// The file is TOML. Every key is optional; anything missing keeps its
// default, and a missing file yields the defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/poiesic/waypoint/ai"
	"github.com/poiesic/waypoint/navigation"
	"github.com/poiesic/waypoint/search"
)

// DefaultFile is the configuration file looked up when none is named.
const DefaultFile = "waypoint.toml"

// Config is the full configuration.
type Config struct {
	Search     SearchConfig     `toml:"search"`
	Navigation NavigationConfig `toml:"navigation"`
	Storage    StorageConfig    `toml:"storage"`
	Corpus     CorpusConfig     `toml:"corpus"`
	AI         AIConfig         `toml:"ai"`
	Server     ServerConfig     `toml:"server"`
}

// SearchConfig tunes ranking.
type SearchConfig struct {
	Weights      search.Weights `toml:"weights"`
	MinScore     float64        `toml:"min_score"`
	DefaultLimit int            `toml:"default_limit"`
}

// NavigationConfig tunes the navigation agent.
type NavigationConfig struct {
	SearchLimit   int    `toml:"search_limit"`
	ContextLimit  int    `toml:"context_limit"`
	PrivatePrefix string `toml:"private_prefix"`

	// QueryBuilder names how query parameters are extracted: "none" or "declared".
	QueryBuilder string `toml:"query_builder"`
}

// Builder returns the configured query builder.
func (c NavigationConfig) Builder() (navigation.QueryBuilder, error) {
	return navigation.QueryBuilderByName(c.QueryBuilder)
}

// StorageConfig locates the route catalog.
type StorageConfig struct {
	Path     string `toml:"path"`
	InMemory bool   `toml:"in_memory"`
}

// CorpusConfig names a corpus file to import on startup.
type CorpusConfig struct {
	File       string `toml:"file"`
	Watch      bool   `toml:"watch"`
	DebounceMS int    `toml:"debounce_ms"`
}

// Debounce returns the watcher settle interval.
func (c CorpusConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// AIConfig configures assisted navigation.
type AIConfig struct {
	Enabled       bool    `toml:"enabled"`
	Host          string  `toml:"host"`
	Model         string  `toml:"model"`
	Token         string  `toml:"token"`
	MinConfidence float64 `toml:"min_confidence"`
	MaxAttempts   int     `toml:"max_attempts"`
}

// Provider converts the section to an ai.Config.
func (c AIConfig) Provider() *ai.Config {
	return ai.NewConfig(
		ai.WithHost(c.Host),
		ai.WithModel(c.Model),
		ai.WithToken(c.Token),
		ai.WithMinConfidence(c.MinConfidence),
		ai.WithMaxAttempts(c.MaxAttempts),
	)
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Default returns the stock configuration.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Search: SearchConfig{
			Weights:      search.DefaultWeights(),
			MinScore:     search.DefaultMinScore,
			DefaultLimit: search.DefaultSearchLimit,
		},
		Navigation: NavigationConfig{
			SearchLimit:   navigation.DefaultSearchLimit,
			ContextLimit:  navigation.DefaultContextLimit,
			PrivatePrefix: navigation.DefaultPrivatePrefix,
			QueryBuilder:  navigation.QueryBuilderNone,
		},
		Storage: StorageConfig{
			Path: defaultStoragePath(),
		},
		Corpus: CorpusConfig{
			DebounceMS: 200,
		},
		AI: AIConfig{
			Host:          aiDefaults.Host,
			Model:         aiDefaults.Model,
			Token:         aiDefaults.Token,
			MinConfidence: aiDefaults.MinConfidence,
			MaxAttempts:   aiDefaults.MaxAttempts,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
	}
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".waypoint", "catalog")
	}
	return filepath.Join(home, ".waypoint", "catalog")
}

// Load reads the file at path over the defaults and validates the result.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that every value is usable.
func (c *Config) Validate() error {
	if err := c.Search.Weights.Validate(); err != nil {
		return err
	}
	if c.Search.MinScore < 0 {
		return fmt.Errorf("search.min_score must not be negative, got %v", c.Search.MinScore)
	}
	if c.Search.DefaultLimit < 1 {
		return fmt.Errorf("search.default_limit must be positive, got %d", c.Search.DefaultLimit)
	}
	if c.Navigation.SearchLimit < 1 {
		return fmt.Errorf("navigation.search_limit must be positive, got %d", c.Navigation.SearchLimit)
	}
	if c.Navigation.ContextLimit < 1 {
		return fmt.Errorf("navigation.context_limit must be positive, got %d", c.Navigation.ContextLimit)
	}
	if _, err := c.Navigation.Builder(); err != nil {
		return fmt.Errorf("navigation.query_builder: %w", err)
	}
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return errors.New("storage.path is required unless storage.in_memory is set")
	}
	if c.Corpus.Watch && c.Corpus.File == "" {
		return errors.New("corpus.watch requires corpus.file")
	}
	if c.Corpus.DebounceMS < 1 {
		return fmt.Errorf("corpus.debounce_ms must be positive, got %d", c.Corpus.DebounceMS)
	}
	if c.AI.Enabled {
		if err := c.AI.Provider().Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}
