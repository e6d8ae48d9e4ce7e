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

package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidRoute indicates a Route failed validation.
	ErrInvalidRoute = errors.New("invalid route")

	// ErrDuplicateRouteID indicates two routes in one corpus share an ID.
	ErrDuplicateRouteID = errors.New("duplicate route id")

	// ErrEmptyCorpus indicates a corpus holds no routes.
	ErrEmptyCorpus = errors.New("corpus cannot be empty")
)
