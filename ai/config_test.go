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

package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	assert.Equal(t, "qwen2.5:3b", cfg.Model)
	assert.Equal(t, "none", cfg.Token)
	assert.Equal(t, 0.5, cfg.MinConfidence)
	assert.Equal(t, 3, cfg.MaxAttempts)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), NewConfig())
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithHost("http://custom:8080/v1"),
			WithModel("gpt-4o-mini"),
			WithToken("sk-test"),
			WithMinConfidence(0.8),
			WithMaxAttempts(5),
		)

		assert.Equal(t, "http://custom:8080/v1", cfg.Host)
		assert.Equal(t, "gpt-4o-mini", cfg.Model)
		assert.Equal(t, "sk-test", cfg.Token)
		assert.Equal(t, 0.8, cfg.MinConfidence)
		assert.Equal(t, 5, cfg.MaxAttempts)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name     string
		host     string
		expected string
	}{
		{"already has /v1", "http://localhost:11434/v1", "http://localhost:11434/v1"},
		{"missing /v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"has trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"empty host", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Host: tt.host}
			cfg.Normalize()
			assert.Equal(t, tt.expected, cfg.Host)
			assert.Equal(t, "none", cfg.Token)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Host:          "http://localhost:11434",
			Model:         "qwen2.5:3b",
			MinConfidence: 0.5,
			MaxAttempts:   3,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()
		assert.NoError(t, cfg.Validate())
		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.Host)
	})

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"missing host", func(c *Config) { c.Host = "" }, "Host"},
		{"missing model", func(c *Config) { c.Model = "" }, "Model"},
		{"confidence too low", func(c *Config) { c.MinConfidence = -0.1 }, "MinConfidence"},
		{"confidence too high", func(c *Config) { c.MinConfidence = 1.5 }, "MinConfidence"},
		{"no attempts", func(c *Config) { c.MaxAttempts = 0 }, "MaxAttempts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	t.Run("confidence at boundaries", func(t *testing.T) {
		cfg := valid()
		cfg.MinConfidence = 0
		assert.NoError(t, cfg.Validate())
		cfg.MinConfidence = 1
		assert.NoError(t, cfg.Validate())
	})
}

func TestSelectionRequestHasCandidate(t *testing.T) {
	req := SelectionRequest{Candidates: []Candidate{{ID: "a"}, {ID: "b"}}}
	assert.True(t, req.HasCandidate("b"))
	assert.False(t, req.HasCandidate("c"))
	assert.False(t, SelectionRequest{}.HasCandidate(""))
}
