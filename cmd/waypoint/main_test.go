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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/waypoint/config"
)

const testCorpus = `{
  "routes": [
    {
      "id": "ptax",
      "path": "/finance/_reports/ptax",
      "title": "Relatório PTAX",
      "semantic_text": "Relatório da taxa PTAX do Banco Central",
      "tags": ["ptax", "câmbio"],
      "example_prompts": ["abrir relatório de PTAX"],
      "search_params": [{"name": "date", "type": "date"}],
      "related": [{"path": "/finance/exchange", "relation": "sibling", "description": "Cotações"}]
    },
    {
      "id": "exchange",
      "path": "/finance/exchange",
      "title": "Câmbio",
      "semantic_text": "Cotações de câmbio e conversão de moedas",
      "tags": ["câmbio", "moedas"]
    }
  ]
}`

func findFlag[T cli.Flag](flags []cli.Flag, name string) T {
	var zero T
	for _, flag := range flags {
		if f, ok := flag.(T); ok && flag.Names()[0] == name {
			return f
		}
	}
	return zero
}

func findCommand(app *cli.App, name string) *cli.Command {
	for _, cmd := range app.Commands {
		if cmd.Name == name {
			return cmd
		}
	}
	return nil
}

func TestAppFlags(t *testing.T) {
	app := newApp()

	t.Run("config defaults to waypoint.toml", func(t *testing.T) {
		f := findFlag[*cli.StringFlag](app.Flags, "config")
		require.NotNil(t, f)
		assert.Equal(t, config.DefaultFile, f.Value)
		assert.Equal(t, []string{"WAYPOINT_CONFIG"}, f.EnvVars)
	})

	t.Run("db has no default value", func(t *testing.T) {
		f := findFlag[*cli.StringFlag](app.Flags, "db")
		require.NotNil(t, f)
		assert.Empty(t, f.Value)
	})

	t.Run("import mode defaults to replace", func(t *testing.T) {
		cmd := findCommand(app, "import")
		require.NotNil(t, cmd)
		f := findFlag[*cli.StringFlag](cmd.Flags, "mode")
		require.NotNil(t, f)
		assert.Equal(t, "replace", f.Value)
	})

	t.Run("every command is registered", func(t *testing.T) {
		for _, name := range []string{"search", "navigate", "related", "context", "routes", "import", "remove", "eval", "serve", "config"} {
			assert.NotNil(t, findCommand(app, name), name)
		}
	})
}

func TestSetupLogger(t *testing.T) {
	app := newApp()
	app.Commands = nil
	app.Action = func(*cli.Context) error { return nil }

	t.Run("accepts known levels", func(t *testing.T) {
		for _, level := range []string{"debug", "INFO", "warn", "error"} {
			assert.NoError(t, app.Run([]string{"waypoint", "--env-file", "", "--log-level", level}), level)
		}
	})

	t.Run("rejects unknown levels", func(t *testing.T) {
		err := app.Run([]string{"waypoint", "--env-file", "", "--log-level", "verbose"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file is ignored", func(t *testing.T) {
		assert.NoError(t, loadEnv(filepath.Join(dir, "missing.env")))
	})

	t.Run("loads variables", func(t *testing.T) {
		path := filepath.Join(dir, ".env")
		require.NoError(t, os.WriteFile(path, []byte("WAYPOINT_TEST_VAR=loaded\n"), 0o644))
		t.Cleanup(func() { os.Unsetenv("WAYPOINT_TEST_VAR") })

		require.NoError(t, loadEnv(path))
		assert.Equal(t, "loaded", os.Getenv("WAYPOINT_TEST_VAR"))
	})
}

// runner runs CLI commands against a catalog in a temporary directory.
type runner struct {
	t        *testing.T
	dir      string
	corpus   string
	config   string
	logLevel string

	// stderr holds the diagnostics of the last run.
	stderr string
}

func newRunner(t *testing.T) *runner {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.json")
	require.NoError(t, os.WriteFile(path, []byte(testCorpus), 0o644))
	return &runner{
		t:        t,
		dir:      dir,
		corpus:   path,
		config:   filepath.Join(dir, "missing.toml"),
		logLevel: "error",
	}
}

// writeConfig makes the runner use a configuration file with content.
func (r *runner) writeConfig(content string) {
	r.config = filepath.Join(r.dir, "waypoint.toml")
	require.NoError(r.t, os.WriteFile(r.config, []byte(content), 0o644))
}

func (r *runner) run(args ...string) (string, error) {
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut

	base := []string{
		"waypoint",
		"--log-level", r.logLevel,
		"--env-file", "",
		"--config", r.config,
		"--db", filepath.Join(r.dir, "catalog"),
	}
	err := app.Run(append(base, args...))
	r.stderr = errOut.String()
	return out.String(), err
}

func (r *runner) mustRun(args ...string) string {
	out, err := r.run(args...)
	require.NoError(r.t, err)
	return out
}

func TestCommands(t *testing.T) {
	r := newRunner(t)

	out := r.mustRun("import", r.corpus)
	assert.Contains(t, out, "catalog holds 2 routes")

	t.Run("routes lists the catalog in corpus order", func(t *testing.T) {
		out := r.mustRun("routes")
		assert.Equal(t, "ptax\t/finance/_reports/ptax\tRelatório PTAX\nexchange\t/finance/exchange\tCâmbio\n", out)
	})

	t.Run("routes encodes json", func(t *testing.T) {
		out := r.mustRun("routes", "--format", "json")
		assert.Contains(t, out, `"ptax"`)
		assert.Contains(t, out, `"exchange"`)
	})

	t.Run("search ranks the matching route first", func(t *testing.T) {
		out := r.mustRun("search", "--details", "relatório", "ptax")
		assert.Contains(t, out, "1. [ptax] Relatório PTAX")
		assert.Contains(t, out, "semantic=")
	})

	t.Run("search without a query fails", func(t *testing.T) {
		_, err := r.run("search")
		assert.ErrorIs(t, err, errQueryRequired)
	})

	t.Run("search without matches", func(t *testing.T) {
		out := r.mustRun("search", "zzzz")
		assert.Equal(t, "No matching routes\n", out)
	})

	t.Run("navigate strips private segments", func(t *testing.T) {
		out := r.mustRun("navigate", "ptax")
		assert.Contains(t, out, "1. /finance/ptax  Relatório PTAX")
	})

	t.Run("related resolves declared edges", func(t *testing.T) {
		out := r.mustRun("related", "ptax")
		assert.Equal(t, "- sibling: /finance/exchange Câmbio - Cotações\n", out)
	})

	t.Run("related rejects unknown routes", func(t *testing.T) {
		_, err := r.run("related", "nope")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not found")
	})

	t.Run("context renders candidates", func(t *testing.T) {
		out := r.mustRun("context", "ptax")
		assert.Contains(t, out, "Query: ptax")
		assert.Contains(t, out, "[ptax]")
	})

	t.Run("eval replays example prompts", func(t *testing.T) {
		out := r.mustRun("eval", "--workers", "1")
		assert.Contains(t, out, "Cases:   1")
		assert.Contains(t, out, "Top-1:   1 (100.0%)")
	})

	t.Run("config prints toml", func(t *testing.T) {
		out := r.mustRun("config")
		assert.Contains(t, out, "[search]")
		assert.Contains(t, out, filepath.Join(r.dir, "catalog"))
	})

	t.Run("import rejects unknown modes", func(t *testing.T) {
		_, err := r.run("import", "--mode", "append", r.corpus)
		assert.Error(t, err)
	})

	t.Run("remove drops routes", func(t *testing.T) {
		out := r.mustRun("remove", "exchange")
		assert.Contains(t, out, "catalog holds 1 routes")

		out = r.mustRun("routes")
		assert.NotContains(t, out, "exchange")
	})
}

func TestNavigateWithDeclaredParams(t *testing.T) {
	r := newRunner(t)
	r.writeConfig("[navigation]\nquery_builder = \"declared\"\n")
	r.mustRun("import", r.corpus)

	out := r.mustRun("navigate", "ptax", "date=2024-05-01")
	assert.Contains(t, out, "1. /finance/ptax?date=2024-05-01  Relatório PTAX")
}

func TestNavigateIgnoresParamsByDefault(t *testing.T) {
	r := newRunner(t)
	r.mustRun("import", r.corpus)

	out := r.mustRun("navigate", "ptax", "date=2024-05-01")
	assert.Contains(t, out, "1. /finance/ptax  Relatório PTAX")
}

func TestSearchTracesScoringAtDebug(t *testing.T) {
	r := newRunner(t)
	r.mustRun("import", r.corpus)

	r.logLevel = "debug"
	r.mustRun("search", "ptax")
	assert.Contains(t, r.stderr, "route scored")
	assert.Contains(t, r.stderr, "route=ptax")
	assert.Contains(t, r.stderr, "search finished")
}
