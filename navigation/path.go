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

import "strings"

// DefaultPrivatePrefix marks framework-private path segments.
const DefaultPrivatePrefix = "_"

// SegmentFilter reports whether a path segment is non-navigable and must be stripped.
type SegmentFilter func(segment string) bool

// PrivateSegments returns a filter that strips segments starting with prefix.
func PrivateSegments(prefix string) SegmentFilter {
	return func(segment string) bool {
		return prefix != "" && strings.HasPrefix(segment, prefix)
	}
}

// CleanPath removes empty and filtered segments from path and rejoins the
// rest with "/". The result always starts with "/" and is "/" when nothing
// is left, so "/a/b/" and "a/b" both become "/a/b". A nil filter only drops
// empty segments.
func CleanPath(path string, filter SegmentFilter) string {
	segments := strings.Split(path, "/")
	kept := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg == "" || (filter != nil && filter(seg)) {
			continue
		}
		kept = append(kept, seg)
	}
	return "/" + strings.Join(kept, "/")
}
