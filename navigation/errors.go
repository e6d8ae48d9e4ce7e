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

package navigation

import "errors"

var (
	// ErrSearcherRequired is returned when no searcher is provided.
	ErrSearcherRequired = errors.New("searcher required")

	// ErrInvalidLimit is returned when a search or context limit is not positive.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrUnknownQueryBuilder is returned for a query builder name with no built-in implementation.
	ErrUnknownQueryBuilder = errors.New("unknown query builder")

	// ErrSelectorRequired is returned by Select when no route selector is configured.
	ErrSelectorRequired = errors.New("route selector required")

	// ErrInvalidSelection is returned when the selector picks no candidate or an unknown one.
	ErrInvalidSelection = errors.New("invalid route selection")
)
