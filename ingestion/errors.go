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

import "errors"

var (
	// ErrRouteRepositoryRequired is returned when a route repository is not provided.
	ErrRouteRepositoryRequired = errors.New("route repository required")

	// ErrImportStateRepositoryRequired is returned when an import state repository is not provided.
	ErrImportStateRepositoryRequired = errors.New("import state repository required")

	// ErrEngineRequired is returned when no index to reload is provided.
	ErrEngineRequired = errors.New("engine required")

	// ErrInvalidMode is returned for an unknown import mode.
	ErrInvalidMode = errors.New("invalid import mode")
)
