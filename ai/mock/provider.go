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

import "github.com/poiesic/waypoint/ai"

// MockProvider is a test double for ai.AIProvider.
type MockProvider struct {
	selector *MockRouteSelector
	closed   bool
}

// NewMockProvider creates a new mock provider with a default mock selector.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockSelector() to access the concrete selector for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{selector: NewMockRouteSelector()}
}

// NewMockProviderWithSelector creates a mock provider around a custom selector.
func NewMockProviderWithSelector(selector *MockRouteSelector) ai.AIProvider {
	return &MockProvider{selector: selector}
}

// RouteSelector returns the mock selector.
func (p *MockProvider) RouteSelector() ai.RouteSelector {
	return p.selector
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockSelector returns the underlying mock selector for test assertions.
func (p *MockProvider) GetMockSelector() *MockRouteSelector {
	return p.selector
}
