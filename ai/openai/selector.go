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

package openai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/poiesic/waypoint/ai"
)

// RouteSelector implements ai.RouteSelector using OpenAI-compatible chat APIs.
type RouteSelector struct {
	client        llms.Model
	minConfidence float64
	maxAttempts   int
	logger        *slog.Logger
}

// selection is the wire shape of the model's answer.
type selection struct {
	RouteID    string  `json:"route_id"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// newRouteSelector is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newRouteSelector(config *ai.Config) (*RouteSelector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.Host),
		openai.WithToken(config.Token),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, err
	}

	return newRouteSelectorWithModel(client, config), nil
}

func newRouteSelectorWithModel(client llms.Model, config *ai.Config) *RouteSelector {
	return &RouteSelector{
		client:        client,
		minConfidence: config.MinConfidence,
		maxAttempts:   config.MaxAttempts,
		logger:        slog.Default().With("component", "openai-selector"),
	}
}

// NewRouteSelector creates a new route selector using the provided configuration.
//
// Returns ai.RouteSelector interface to enforce abstraction.
func NewRouteSelector(config *ai.Config) (ai.RouteSelector, error) {
	return newRouteSelector(config)
}

// SelectRoute asks the model to choose among the request's candidates.
// Unknown route IDs and answers below the minimum confidence yield an empty selection.
func (s *RouteSelector) SelectRoute(ctx context.Context, req ai.SelectionRequest) (*ai.Selection, error) {
	if len(req.Candidates) == 0 {
		return &ai.Selection{}, nil
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(selectorSystemPrompt)},
		},
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextPart(buildSelectorPrompt(req))},
		},
	}

	// Retry in case of malformed JSON
	var result selection
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		response, err := s.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			s.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			s.logger.Debug("no choices returned from model")
			return &ai.Selection{}, nil
		}

		responseText := cleanResponse(response.Choices[0].Content)
		if err := jsoniter.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			s.logger.Warn("error parsing selector response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		lastErr = nil
		break
	}

	if lastErr != nil {
		s.logger.Error("failed to parse selector response after retries", "err", lastErr)
		return nil, fmt.Errorf("parse selector response: %w", lastErr)
	}

	result.RouteID = strings.TrimSpace(result.RouteID)
	switch {
	case result.RouteID == "":
		s.logger.Debug("selector found no fitting candidate", "reason", result.Reason)
		return &ai.Selection{Reason: result.Reason}, nil
	case !req.HasCandidate(result.RouteID):
		s.logger.Warn("selector chose an unknown route", "route", result.RouteID)
		return &ai.Selection{}, nil
	case result.Confidence < s.minConfidence:
		s.logger.Debug("selection below confidence threshold",
			"route", result.RouteID,
			"confidence", result.Confidence,
			"min", s.minConfidence)
		return &ai.Selection{Reason: result.Reason, Confidence: result.Confidence}, nil
	}

	return &ai.Selection{
		RouteID:    result.RouteID,
		Reason:     result.Reason,
		Confidence: result.Confidence,
	}, nil
}
