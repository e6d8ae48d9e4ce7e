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

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func routeValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("finite", isFinite); err != nil {
			panic(err)
		}
	})
	return validate
}

// isFinite rejects NaN and infinite floats.
func isFinite(fl validator.FieldLevel) bool {
	f := fl.Field().Float()
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ValidateRoute validates a Route according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Path must not be empty and must start with "/"
//   - Every search param must be named
//   - Every related route must have a path and a known relation
//   - Priority must be finite (NaN never clears the threshold, +Inf always ranks first)
//
// NOT validated:
//   - Title, SemanticText, Tags, Capabilities (empty text simply never matches)
//   - Priority range (any finite value is allowed, including negative ones)
func ValidateRoute(route *Route) error {
	if route == nil {
		return fmt.Errorf("%w: route is nil", ErrInvalidRoute)
	}

	if err := routeValidator().Struct(route); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: id %q: %s", ErrInvalidRoute, route.ID, strings.Join(fields, ", "))
		}
		return fmt.Errorf("%w: %w", ErrInvalidRoute, err)
	}

	return nil
}

// ValidateCorpus validates every route and rejects duplicate IDs.
func ValidateCorpus(routes []*Route) error {
	if len(routes) == 0 {
		return ErrEmptyCorpus
	}

	seen := make(map[string]int, len(routes))
	for i, route := range routes {
		if err := ValidateRoute(route); err != nil {
			return fmt.Errorf("route %d: %w", i, err)
		}
		if prev, ok := seen[route.ID]; ok {
			return fmt.Errorf("%w: %q at positions %d and %d", ErrDuplicateRouteID, route.ID, prev, i)
		}
		seen[route.ID] = i
	}

	return nil
}
