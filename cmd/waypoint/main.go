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
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/waypoint/config"
	"github.com/poiesic/waypoint/search"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "waypoint",
		Usage: "Natural-language route matching for application navigation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the TOML configuration file",
				Value:   config.DefaultFile,
				EnvVars: []string{"WAYPOINT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to the BadgerDB catalog directory (overrides storage.path)",
				EnvVars: []string{"WAYPOINT_DB"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file loaded before anything else",
				Value: ".env",
			},
		},
		Before: func(c *cli.Context) error {
			if err := loadEnv(c.String("env-file")); err != nil {
				return err
			}
			return setupLogger(c)
		},
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Rank routes for a query",
				ArgsUsage: "QUERY...",
				Action:    searchCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "limit",
						Aliases: []string{"n"},
						Usage:   "Maximum number of results (defaults to search.default_limit)",
					},
					&cli.BoolFlag{
						Name:  "details",
						Usage: "Show the per-channel score breakdown (use --log-level debug to trace discarded routes)",
					},
				},
			},
			{
				Name:      "navigate",
				Usage:     "Resolve a query into navigation targets",
				ArgsUsage: "QUERY...",
				Action:    navigateCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "assist",
						Usage: "Let the configured AI model pick one target",
					},
					&cli.StringFlag{
						Name:  "current",
						Usage: "ID of the route the user is currently on",
					},
				},
			},
			{
				Name:      "related",
				Usage:     "List the routes related to a route",
				ArgsUsage: "ROUTE_ID",
				Action:    relatedCommand,
			},
			{
				Name:      "context",
				Usage:     "Print the prompt context for a query",
				ArgsUsage: "QUERY...",
				Action:    contextCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "current",
						Usage: "ID of the route the user is currently on",
					},
				},
			},
			{
				Name:   "routes",
				Usage:  "List the routes in the catalog",
				Action: routesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Usage:   "Output format (text, json, toml)",
						Value:   "text",
					},
				},
			},
			{
				Name:      "import",
				Usage:     "Import a JSON or TOML route corpus into the catalog",
				ArgsUsage: "FILE",
				Action:    importCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Import mode (replace, merge)",
						Value:   "replace",
					},
				},
			},
			{
				Name:      "remove",
				Usage:     "Remove routes from the catalog",
				ArgsUsage: "ROUTE_ID...",
				Action:    removeCommand,
			},
			{
				Name:   "eval",
				Usage:  "Replay every route's example prompts and report ranking quality",
				Action: evalCommand,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "k",
						Usage: "Ranking depth counted as a hit",
						Value: search.DefaultSearchLimit,
					},
					&cli.IntFlag{
						Name:  "workers",
						Usage: "Number of concurrent workers (0 = half the CPUs)",
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N cases",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "assist",
						Usage: "Also evaluate assisted navigation",
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum attempts for a failed assisted case",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 500 * time.Millisecond,
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides server.addr)",
					},
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Reload corpus.file whenever it changes (overrides corpus.watch)",
					},
				},
			},
			{
				Name:   "config",
				Usage:  "Print the effective configuration",
				Action: configCommand,
			},
		},
	}
}

// loadEnv loads environment variables from path. A missing file is ignored.
func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
