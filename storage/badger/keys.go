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

package badger

import (
	"encoding/binary"
)

const (
	routePrefix      = "rte:"
	routeOrderPrefix = "rteo:"
	routeOrdinalSeq  = "rteseq"
	importStateKey   = "import:state"
)

// makeRouteKey generates a key for a route by ID.
func makeRouteKey(id string) []byte {
	return []byte(routePrefix + id)
}

// makeRouteOrderKey generates a key for the corpus order index.
// Format: prefix:ordinal
func makeRouteOrderKey(ordinal uint64) []byte {
	buf := make([]byte, len(routeOrderPrefix)+8)
	offset := copy(buf, routeOrderPrefix)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], ordinal)
	return buf
}
