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
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/waypoint/core"
	"github.com/poiesic/waypoint/corpus"
	"github.com/poiesic/waypoint/evaluation"
	"github.com/poiesic/waypoint/httpapi"
	"github.com/poiesic/waypoint/ingestion"
	"github.com/poiesic/waypoint/search"
)

var errQueryRequired = errors.New("query required")

func queryArg(c *cli.Context) (string, error) {
	query := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if query == "" {
		return "", errQueryRequired
	}
	return query, nil
}

func searchCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	limit := cfg.Search.DefaultLimit
	if c.IsSet("limit") {
		limit = c.Int("limit")
	}

	catalog, err := openCatalog(c, cfg, false)
	if err != nil {
		return err
	}
	defer catalog.Close()

	out := c.App.Writer
	// The monitor logs every scored and discarded route at debug level.
	monitor := search.NewLogMonitor(slog.Default())
	results := catalog.Searcher().SearchWithMonitor(query, limit, monitor)
	if len(results) == 0 {
		fmt.Fprintln(out, "No matching routes")
		return nil
	}
	for i, r := range results {
		fmt.Fprintf(out, "%d. [%s] %s (%s) score=%.2f\n", i+1, r.Route.ID, r.Route.Title, r.Route.Path, r.Score)
		if c.Bool("details") {
			d := r.MatchDetails
			fmt.Fprintf(out, "   semantic=%.2f tags=%.2f capabilities=%.2f title=%.2f path=%.2f priority=%.2f\n",
				d.Semantic, d.Tags, d.Capabilities, d.Title, d.Path, r.PriorityBoost)
		}
	}
	return nil
}

func navigateCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	assist := c.Bool("assist")

	catalog, err := openCatalog(c, cfg, assist)
	if err != nil {
		return err
	}
	defer catalog.Close()

	out := c.App.Writer
	if assist {
		result, err := catalog.Agent().Assist(c.Context, query, c.String("current"))
		if err != nil {
			return err
		}
		if result == nil {
			fmt.Fprintln(out, "No matching route")
			return nil
		}
		printNavigation(c, 1, result)
		return nil
	}

	results, err := catalog.Agent().ProcessQuery(c.Context, query)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(out, "No matching route")
		return nil
	}
	for i, r := range results {
		printNavigation(c, i+1, r)
	}
	return nil
}

func printNavigation(c *cli.Context, n int, r *core.NavigationResult) {
	out := c.App.Writer
	fmt.Fprintf(out, "%d. %s  %s (confidence %.2f)\n", n, r.FullURL, r.Route.Title, r.Confidence)
	if r.Reason != "" {
		fmt.Fprintf(out, "   reason: %s\n", r.Reason)
	}
}

func relatedCommand(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("route id required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	catalog, err := openCatalog(c, cfg, false)
	if err != nil {
		return err
	}
	defer catalog.Close()

	if catalog.Searcher().FindByID(id) == nil {
		return fmt.Errorf("route %q not found", id)
	}

	out := c.App.Writer
	related := catalog.Agent().GetRelated(id)
	if len(related) == 0 {
		fmt.Fprintln(out, "No related routes")
		return nil
	}
	for _, rel := range related {
		title := "(unknown route)"
		if rel.Route != nil {
			title = rel.Route.Title
		}
		fmt.Fprintf(out, "- %s: %s %s", rel.Relation, rel.Path, title)
		if rel.Description != "" {
			fmt.Fprintf(out, " - %s", rel.Description)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func contextCommand(c *cli.Context) error {
	query, err := queryArg(c)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	catalog, err := openCatalog(c, cfg, false)
	if err != nil {
		return err
	}
	defer catalog.Close()

	fmt.Fprint(c.App.Writer, catalog.Agent().BuildContext(query, c.String("current")))
	return nil
}

func routesCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	catalog, err := openCatalog(c, cfg, false)
	if err != nil {
		return err
	}
	defer catalog.Close()

	out := c.App.Writer
	routes := catalog.Searcher().AllRoutes()

	format := strings.ToLower(c.String("format"))
	if format == "text" {
		for _, r := range routes {
			fmt.Fprintf(out, "%s\t%s\t%s\n", r.ID, r.Path, r.Title)
		}
		return nil
	}

	f, err := corpus.ParseFormat(format)
	if err != nil {
		return err
	}
	data, err := corpus.Encode(routes, f)
	if err != nil {
		return err
	}
	_, err = out.Write(data)
	return err
}

func importCommand(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("corpus file required")
	}
	mode, err := ingestion.ParseMode(c.String("mode"))
	if err != nil {
		return err
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// The configured corpus file would be synced on open, then replaced.
	cfg.Corpus.File = ""

	catalog, err := openCatalog(c, cfg, false)
	if err != nil {
		return err
	}
	defer catalog.Close()

	state, err := catalog.ImportFile(c.Context, path, mode)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Imported %s (%s): catalog holds %d routes, fingerprint %016x\n",
		path, state.Mode, state.Routes, uint64(state.Fingerprint))
	return nil
}

func removeCommand(c *cli.Context) error {
	ids := c.Args().Slice()
	if len(ids) == 0 {
		return errors.New("route id required")
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	cfg.Corpus.File = ""

	catalog, err := openCatalog(c, cfg, false)
	if err != nil {
		return err
	}
	defer catalog.Close()

	state, err := catalog.Pipeline().Delete(c.Context, ids...)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Removed %d routes: catalog holds %d routes\n", len(ids), state.Routes)
	return nil
}

func evalCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	assist := c.Bool("assist")

	catalog, err := openCatalog(c, cfg, assist)
	if err != nil {
		return err
	}
	defer catalog.Close()

	evalConfig := evaluation.DefaultConfig()
	evalConfig.K = c.Int("k")
	if workers := c.Int("workers"); workers > 0 {
		evalConfig.PoolSize = workers
	}
	evalConfig.ReportInterval = c.Int("report-interval")
	evalConfig.MaxRetries = c.Int("max-retries")
	evalConfig.RetryDelay = c.Duration("retry-delay")

	var opts []evaluation.Option
	if assist {
		opts = append(opts, evaluation.WithAssistant(catalog.Agent()))
	}
	evaluator, err := evaluation.NewEvaluator(catalog.Searcher(), evalConfig, c.App.ErrWriter, opts...)
	if err != nil {
		return err
	}

	cases := evaluation.CasesFromRoutes(catalog.Searcher().AllRoutes())
	report, err := evaluator.Run(c.Context, cases)
	if err != nil {
		return err
	}
	_, err = report.WriteTo(c.App.Writer)
	return err
}

func serveCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	addr := cfg.Server.Addr
	if c.IsSet("addr") {
		addr = c.String("addr")
	}
	watch := cfg.Corpus.Watch
	if c.IsSet("watch") {
		watch = c.Bool("watch")
	}
	if watch && cfg.Corpus.File == "" {
		return errors.New("--watch requires corpus.file in the configuration")
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	catalog, err := openCatalog(c, cfg, false)
	if err != nil {
		return err
	}
	defer catalog.Close()

	if watch {
		watcher, err := catalog.Watch(cfg.Corpus.File, corpus.WithDebounce(cfg.Corpus.Debounce()))
		if err != nil {
			return err
		}
		defer watcher.Stop()
	}

	server, err := httpapi.NewServer(catalog.Searcher(), catalog.Agent(),
		httpapi.WithDefaultLimit(cfg.Search.DefaultLimit),
	)
	if err != nil {
		return err
	}
	return server.ListenAndServe(ctx, addr)
}

func configCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := cfg.Marshal()
	if err != nil {
		return err
	}
	_, err = c.App.Writer.Write(data)
	return err
}
