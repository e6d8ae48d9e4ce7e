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

package evaluation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/poiesic/waypoint/core"
)

// Searcher is the ranking surface under evaluation.
type Searcher interface {
	Search(query string, limit int) []*core.Route
}

// Assistant resolves a prompt to a single route chosen by a model.
// It must report selection failures rather than fall back to the lexical
// ranking, so that failed cases are retried and never counted as hits.
type Assistant interface {
	Select(ctx context.Context, input, currentRouteID string) (*core.NavigationResult, error)
}

// Case is one prompt expected to lead to one route.
type Case struct {
	RouteID string `json:"route_id"`
	Prompt  string `json:"prompt"`
}

// CasesFromRoutes builds one case per example prompt, in corpus order.
func CasesFromRoutes(routes []*core.Route) []Case {
	var cases []Case
	for _, r := range routes {
		if r == nil {
			continue
		}
		for _, prompt := range r.ExamplePrompts {
			cases = append(cases, Case{RouteID: r.ID, Prompt: prompt})
		}
	}
	return cases
}

// Config holds configuration for an evaluation run.
type Config struct {
	// K is the ranking depth checked for a hit
	K int

	// PoolSize is the number of concurrent workers
	PoolSize int

	// ReportInterval is how often to report progress (number of cases)
	ReportInterval int

	// MaxRetries is the maximum number of attempts for an assisted case
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	return &Config{
		K:              5,
		PoolSize:       poolSize,
		ReportInterval: 50,
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
	}
}

// Outcome is the result of replaying one case.
type Outcome struct {
	Case Case `json:"case"`

	// Rank is the 1-based position of the expected route, or 0 when it is
	// not within the top K.
	Rank int `json:"rank"`

	// Got lists the route IDs returned, best first.
	Got []string `json:"got"`

	// Assisted is the route chosen by the assistant, when one is configured.
	Assisted string `json:"assisted,omitempty"`

	// Err is set when the assistant failed after all retries.
	Err string `json:"error,omitempty"`
}

// Report aggregates the outcomes of a run.
type Report struct {
	Total        int           `json:"total"`
	K            int           `json:"k"`
	Top1         int           `json:"top1"`
	TopK         int           `json:"topk"`
	MRR          float64       `json:"mrr"`
	AssistedHits int           `json:"assisted_hits,omitempty"`
	Assisted     bool          `json:"assisted"`
	Misses       []Outcome     `json:"misses"`
	Elapsed      time.Duration `json:"elapsed"`
}

// Top1Rate returns the fraction of cases ranked first.
func (r *Report) Top1Rate() float64 {
	return ratio(r.Top1, r.Total)
}

// TopKRate returns the fraction of cases ranked within K.
func (r *Report) TopKRate() float64 {
	return ratio(r.TopK, r.Total)
}

// AssistedRate returns the fraction of cases the assistant resolved correctly.
func (r *Report) AssistedRate() float64 {
	return ratio(r.AssistedHits, r.Total)
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}

// WriteTo prints a human-readable summary.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	fmt.Fprintf(cw, "Cases:   %d\n", r.Total)
	fmt.Fprintf(cw, "Top-1:   %d (%.1f%%)\n", r.Top1, r.Top1Rate()*100)
	fmt.Fprintf(cw, "Top-%d:   %d (%.1f%%)\n", r.K, r.TopK, r.TopKRate()*100)
	fmt.Fprintf(cw, "MRR:     %.3f\n", r.MRR)
	if r.Assisted {
		fmt.Fprintf(cw, "Assisted: %d (%.1f%%)\n", r.AssistedHits, r.AssistedRate()*100)
	}
	if len(r.Misses) > 0 {
		fmt.Fprintf(cw, "\nMisses:\n")
		for _, m := range r.Misses {
			fmt.Fprintf(cw, "  %q expected %s, got %v\n", m.Case.Prompt, m.Case.RouteID, m.Got)
		}
	}
	return cw.n, cw.err
}

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

// Evaluator replays cases against a searcher.
type Evaluator struct {
	searcher  Searcher
	assistant Assistant
	config    *Config
	progress  io.Writer
	logger    *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator) error

// WithAssistant also checks which route the assistant picks for each case.
func WithAssistant(assistant Assistant) Option {
	return func(e *Evaluator) error {
		e.assistant = assistant
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// NewEvaluator creates a new evaluator.
// progress: where to write progress output (typically os.Stderr), may be nil
func NewEvaluator(searcher Searcher, config *Config, progress io.Writer, opts ...Option) (*Evaluator, error) {
	if searcher == nil {
		return nil, ErrSearcherRequired
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.K < 1 {
		return nil, fmt.Errorf("k must be positive, got %d", config.K)
	}
	if progress == nil {
		progress = io.Discard
	}

	cfg := *config
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}

	e := &Evaluator{
		searcher: searcher,
		config:   &cfg,
		progress: progress,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Run replays every case on a worker pool and aggregates the outcomes.
// Outcomes are aggregated in case order regardless of completion order.
func (e *Evaluator) Run(ctx context.Context, cases []Case) (*Report, error) {
	report := &Report{
		Total:    len(cases),
		K:        e.config.K,
		Assisted: e.assistant != nil,
		Misses:   []Outcome{},
	}
	if len(cases) == 0 {
		fmt.Fprintf(e.progress, "No example prompts found (0 cases)\n")
		return report, nil
	}

	poolSize := e.config.PoolSize
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	fmt.Fprintf(e.progress, "Replaying %d cases (workers: %d)\n", len(cases), poolSize)
	tracker := NewProgressTracker(e.progress, len(cases), e.config.ReportInterval)
	tracker.Start()

	outcomes := make([]Outcome, len(cases))
	var wg sync.WaitGroup
	for i := range cases {
		if err := ctx.Err(); err != nil {
			break
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			outcomes[i] = e.replay(ctx, cases[i])
			tracker.Increment(1)
		})
		if submitErr != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("failed to submit case: %w", submitErr)
		}
	}
	wg.Wait()
	tracker.Finish()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, o := range outcomes {
		if o.Rank == 1 {
			report.Top1++
		}
		if o.Rank > 0 {
			report.TopK++
			report.MRR += 1 / float64(o.Rank)
		} else {
			report.Misses = append(report.Misses, o)
		}
		if o.Assisted != "" && o.Assisted == o.Case.RouteID {
			report.AssistedHits++
		}
	}
	report.MRR /= float64(report.Total)
	report.Elapsed = tracker.Elapsed()

	e.logger.Info("evaluation complete",
		"cases", report.Total, "top1", report.Top1, "topk", report.TopK, "mrr", report.MRR, "elapsed", report.Elapsed)
	return report, nil
}

func (e *Evaluator) replay(ctx context.Context, c Case) Outcome {
	outcome := Outcome{Case: c, Got: []string{}}
	for i, r := range e.searcher.Search(c.Prompt, e.config.K) {
		outcome.Got = append(outcome.Got, r.ID)
		if outcome.Rank == 0 && r.ID == c.RouteID {
			outcome.Rank = i + 1
		}
	}

	if e.assistant == nil {
		return outcome
	}

	var chosen *core.NavigationResult
	err := RetryWithBackoff(ctx, func() error {
		var assistErr error
		chosen, assistErr = e.assistant.Select(ctx, c.Prompt, "")
		return assistErr
	}, e.config.MaxRetries, e.config.RetryDelay)
	if err != nil {
		e.logger.Warn("assisted replay failed", "prompt", c.Prompt, "err", err)
		outcome.Err = err.Error()
		return outcome
	}
	if chosen != nil && chosen.Route != nil {
		outcome.Assisted = chosen.Route.ID
	}
	return outcome
}
