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

package storage

import (
	"fmt"
	"math"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"

	"github.com/poiesic/waypoint/core"
)

// RouteMUS is the binary serializer for core.Route.
// Field order is fixed; append new fields at the end only.
var RouteMUS = routeSerializer{}

type routeSerializer struct{}

func (routeSerializer) Marshal(v core.Route, bs []byte) (n int) {
	n = ord.String.Marshal(v.ID, bs)
	n += ord.String.Marshal(v.Path, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.SemanticText, bs[n:])
	n += marshalStrings(v.Tags, bs[n:])
	n += marshalStrings(v.Capabilities, bs[n:])
	n += varint.Uint64.Marshal(math.Float64bits(v.Priority), bs[n:])
	n += marshalStrings(v.ExamplePrompts, bs[n:])
	n += varint.Uint64.Marshal(uint64(len(v.SearchParams)), bs[n:])
	for _, p := range v.SearchParams {
		n += ord.String.Marshal(p.Name, bs[n:])
		n += ord.String.Marshal(p.Type, bs[n:])
		n += ord.String.Marshal(p.Description, bs[n:])
	}
	n += varint.Uint64.Marshal(uint64(len(v.Related)), bs[n:])
	for _, r := range v.Related {
		n += ord.String.Marshal(r.Path, bs[n:])
		n += ord.String.Marshal(string(r.Relation), bs[n:])
		n += ord.String.Marshal(r.Description, bs[n:])
	}
	n += marshalStrings(v.Entities, bs[n:])
	return n
}

func (routeSerializer) Unmarshal(bs []byte) (v core.Route, n int, err error) {
	d := decoder{bs: bs}
	v.ID = d.string()
	v.Path = d.string()
	v.Title = d.string()
	v.SemanticText = d.string()
	v.Tags = d.strings()
	v.Capabilities = d.strings()
	v.Priority = math.Float64frombits(d.uint64())
	v.ExamplePrompts = d.strings()
	if count := d.length(); count > 0 {
		v.SearchParams = make([]core.SearchParam, count)
		for i := range v.SearchParams {
			v.SearchParams[i].Name = d.string()
			v.SearchParams[i].Type = d.string()
			v.SearchParams[i].Description = d.string()
		}
	}
	if count := d.length(); count > 0 {
		v.Related = make([]core.RelatedRoute, count)
		for i := range v.Related {
			v.Related[i].Path = d.string()
			v.Related[i].Relation = core.Relation(d.string())
			v.Related[i].Description = d.string()
		}
	}
	v.Entities = d.strings()
	return v, d.n, d.err
}

func (routeSerializer) Size(v core.Route) (size int) {
	size = ord.String.Size(v.ID)
	size += ord.String.Size(v.Path)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.SemanticText)
	size += sizeStrings(v.Tags)
	size += sizeStrings(v.Capabilities)
	size += varint.Uint64.Size(math.Float64bits(v.Priority))
	size += sizeStrings(v.ExamplePrompts)
	size += varint.Uint64.Size(uint64(len(v.SearchParams)))
	for _, p := range v.SearchParams {
		size += ord.String.Size(p.Name) + ord.String.Size(p.Type) + ord.String.Size(p.Description)
	}
	size += varint.Uint64.Size(uint64(len(v.Related)))
	for _, r := range v.Related {
		size += ord.String.Size(r.Path) + ord.String.Size(string(r.Relation)) + ord.String.Size(r.Description)
	}
	size += sizeStrings(v.Entities)
	return size
}

func marshalStrings(items []string, bs []byte) (n int) {
	n = varint.Uint64.Marshal(uint64(len(items)), bs)
	for _, item := range items {
		n += ord.String.Marshal(item, bs[n:])
	}
	return n
}

func sizeStrings(items []string) (size int) {
	size = varint.Uint64.Size(uint64(len(items)))
	for _, item := range items {
		size += ord.String.Size(item)
	}
	return size
}

// decoder reads consecutive fields and keeps the first error.
type decoder struct {
	bs  []byte
	n   int
	err error
}

func (d *decoder) uint64() uint64 {
	if d.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

func (d *decoder) string() string {
	if d.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(d.bs[d.n:])
	d.n += n
	d.err = err
	return v
}

// length reads a collection length and rejects counts that cannot fit in the remaining input.
func (d *decoder) length() int {
	count := d.uint64()
	if d.err != nil {
		return 0
	}
	if count > uint64(len(d.bs)-d.n) {
		d.err = ErrTruncatedData
		return 0
	}
	return int(count)
}

func (d *decoder) strings() []string {
	count := d.length()
	if count == 0 {
		return nil
	}
	items := make([]string, count)
	for i := range items {
		items[i] = d.string()
	}
	if d.err != nil {
		return nil
	}
	return items
}

// MarshalRoute serializes a Route to bytes.
func MarshalRoute(route *core.Route) []byte {
	buf := make([]byte, RouteMUS.Size(*route))
	RouteMUS.Marshal(*route, buf)
	return buf
}

// UnmarshalRoute deserializes a Route from bytes.
func UnmarshalRoute(data []byte) (*core.Route, error) {
	route, _, err := RouteMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: route: %w", ErrSerializationFailed, err)
	}
	return &route, nil
}

// MarshalStoredRoute serializes a route together with its corpus position.
func MarshalStoredRoute(ordinal uint64, route *core.Route) []byte {
	buf := make([]byte, varint.Uint64.Size(ordinal)+RouteMUS.Size(*route))
	n := varint.Uint64.Marshal(ordinal, buf)
	RouteMUS.Marshal(*route, buf[n:])
	return buf
}

// UnmarshalStoredRoute is the inverse of MarshalStoredRoute.
func UnmarshalStoredRoute(data []byte) (uint64, *core.Route, error) {
	ordinal, n, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: route ordinal: %w", ErrSerializationFailed, err)
	}
	route, err := UnmarshalRoute(data[n:])
	if err != nil {
		return 0, nil, err
	}
	return ordinal, route, nil
}

// MarshalImportState serializes an ImportState to bytes.
func MarshalImportState(state *core.ImportState) []byte {
	imported := uint64(state.ImportedAt.UnixMicro())
	size := ord.String.Size(state.Source) +
		ord.String.Size(state.Mode) +
		varint.Uint64.Size(uint64(state.Fingerprint)) +
		varint.Uint64.Size(uint64(state.Routes)) +
		varint.Uint64.Size(imported)
	buf := make([]byte, size)
	n := ord.String.Marshal(state.Source, buf)
	n += ord.String.Marshal(state.Mode, buf[n:])
	n += varint.Uint64.Marshal(uint64(state.Fingerprint), buf[n:])
	n += varint.Uint64.Marshal(uint64(state.Routes), buf[n:])
	varint.Uint64.Marshal(imported, buf[n:])
	return buf
}

// UnmarshalImportState deserializes an ImportState from bytes.
func UnmarshalImportState(data []byte) (*core.ImportState, error) {
	d := decoder{bs: data}
	state := &core.ImportState{
		Source:      d.string(),
		Mode:        d.string(),
		Fingerprint: core.ID(d.uint64()),
		Routes:      int(d.uint64()),
	}
	imported := d.uint64()
	if d.err != nil {
		return nil, fmt.Errorf("%w: import state: %w", ErrSerializationFailed, d.err)
	}
	state.ImportedAt = time.UnixMicro(int64(imported)).UTC()
	return state, nil
}
