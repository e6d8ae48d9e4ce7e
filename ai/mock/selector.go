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

package mock

import (
	"context"
	"sync"

	"github.com/poiesic/waypoint/ai"
)

// MockRouteSelector is a test double for ai.RouteSelector.
type MockRouteSelector struct {
	// SelectRouteFunc is called by SelectRoute if set.
	// If nil, the last candidate is chosen.
	SelectRouteFunc func(ctx context.Context, req ai.SelectionRequest) (*ai.Selection, error)

	mu       sync.Mutex
	calls    int
	requests []ai.SelectionRequest
}

var _ ai.RouteSelector = (*MockRouteSelector)(nil)

// NewMockRouteSelector creates a mock selector with default behavior.
func NewMockRouteSelector() *MockRouteSelector {
	return &MockRouteSelector{}
}

// SelectRoute records the request and returns a selection.
func (m *MockRouteSelector) SelectRoute(ctx context.Context, req ai.SelectionRequest) (*ai.Selection, error) {
	m.mu.Lock()
	m.calls++
	m.requests = append(m.requests, req)
	fn := m.SelectRouteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}

	if len(req.Candidates) == 0 {
		return &ai.Selection{}, nil
	}
	last := req.Candidates[len(req.Candidates)-1]
	return &ai.Selection{
		RouteID:    last.ID,
		Reason:     "mock selection",
		Confidence: 1,
	}, nil
}

// CallCount returns the number of times SelectRoute was called.
func (m *MockRouteSelector) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastRequest returns the most recent request, or a zero request.
func (m *MockRouteSelector) LastRequest() ai.SelectionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.requests) == 0 {
		return ai.SelectionRequest{}
	}
	return m.requests[len(m.requests)-1]
}

// Reset clears the call history and custom functions.
func (m *MockRouteSelector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = 0
	m.requests = nil
	m.SelectRouteFunc = nil
}
